// Package rpcserver implements the gRPC services of the descriptor wallet:
// stateless descriptor tools, the wallet loader, and the loaded wallet.
package rpcserver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/descstore"
	"github.com/czh0526/btc-descriptors/netparams"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/wallet"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	pb "github.com/czh0526/btc-descriptors/rpc/walletrpc"
)

// MaxDeriveCount bounds the number of addresses a single request may
// derive.
const MaxDeriveCount = 10000

// translateError maps errors of the wallet stack onto gRPC status errors.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	var descErr descriptor.Error
	if errors.As(err, &descErr) {
		return status.Error(codes.InvalidArgument, err.Error())
	}

	var storeErr descstore.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.ErrorCode {
		case descstore.ErrDescriptorNotFound, descstore.ErrNoSeed:
			return status.Error(codes.NotFound, err.Error())
		case descstore.ErrDuplicateName:
			return status.Error(codes.AlreadyExists, err.Error())
		case descstore.ErrInvalidName, descstore.ErrWrongPassphrase:
			return status.Error(codes.InvalidArgument, err.Error())
		case descstore.ErrIndexOverflow:
			return status.Error(codes.OutOfRange, err.Error())
		}
		return status.Error(codes.Internal, err.Error())
	}

	switch {
	case errors.Is(err, wallet.ErrLoaded), errors.Is(err, wallet.ErrExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, wallet.ErrNotLoaded), errors.Is(err, wallet.ErrLocked),
		errors.Is(err, wallet.ErrWatchingOnly):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, wallet.ErrEmptyPassphrase),
		errors.Is(err, wallet.ErrChainRequired),
		errors.Is(err, wallet.ErrNoAddresses),
		errors.Is(err, seed.ErrInvalidMnemonic):
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return status.Error(codes.Unknown, err.Error())
}

func parseChain(name string) (descriptor.Chain, error) {
	switch name {
	case "":
		return descriptor.ChainUnspecified, nil
	case pb.ChainExternal:
		return descriptor.ChainExternal, nil
	case pb.ChainInternal:
		return descriptor.ChainInternal, nil
	}
	return 0, status.Errorf(codes.InvalidArgument, "unknown chain %q", name)
}

func parseCombo(name string) (descriptor.ComboOutput, error) {
	combo, err := descriptor.ParseComboOutput(name)
	if err != nil {
		return 0, status.Error(codes.InvalidArgument, err.Error())
	}
	return combo, nil
}

///////////////////////////////
//	DescriptorServer
///////////////////////////////

type descriptorServer struct {
	pb.UnimplementedDescriptorServiceServer
	activeNet *netparams.Params
}

func (s *descriptorServer) Checksum(ctx context.Context,
	req *pb.ChecksumRequest) (*pb.ChecksumResponse, error) {

	body, err := descriptor.ValidateChecksum(req.Descriptor)
	if err != nil {
		return nil, translateError(err)
	}
	sum, err := descriptor.Checksum(body)
	if err != nil {
		return nil, translateError(err)
	}
	return &pb.ChecksumResponse{
		Checksum:   sum,
		Descriptor: body + "#" + sum,
	}, nil
}

func (s *descriptorServer) Analyze(ctx context.Context,
	req *pb.AnalyzeRequest) (*pb.AnalyzeResponse, error) {

	d, err := descriptor.New(req.Descriptor)
	if err != nil {
		return nil, translateError(err)
	}

	resp := &pb.AnalyzeResponse{
		Canonical:            d.String(),
		Checksum:             d.Checksum(),
		IsCombo:              d.IsCombo(),
		RequiresAddressIndex: d.RequiresAddressIndex(),
		RequiresChain:        d.RequiresChain(),
	}
	if base, ok := d.BaseKey(); ok {
		resp.BaseKey = base.String()
	}
	for _, k := range d.Keys() {
		if k.Origin != nil {
			resp.Fingerprints = append(resp.Fingerprints,
				fmt.Sprintf("%08x", k.Origin.Fingerprint))
		}
	}
	return resp, nil
}

func (s *descriptorServer) DeriveAddresses(ctx context.Context,
	req *pb.DeriveAddressesRequest) (*pb.DeriveAddressesResponse, error) {

	if req.Count > MaxDeriveCount {
		return nil, status.Errorf(codes.InvalidArgument,
			"count %d exceeds the limit of %d", req.Count,
			MaxDeriveCount)
	}
	if uint64(req.From)+uint64(req.Count) > uint64(descstore.MaxIndex)+1 {
		return nil, status.Error(codes.OutOfRange,
			"indexes leave the non-hardened range")
	}

	net := s.activeNet.Params
	if req.Network != "" {
		params, err := netparams.ByName(req.Network)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		net = params.Params
	}
	chain, err := parseChain(req.Chain)
	if err != nil {
		return nil, err
	}
	combo, err := parseCombo(req.Combo)
	if err != nil {
		return nil, err
	}

	d, err := descriptor.New(req.Descriptor)
	if err != nil {
		return nil, translateError(err)
	}

	return &pb.DeriveAddressesResponse{
		Addresses: deriveRange(d, net, chain, combo, req.From, req.Count),
	}, nil
}

// deriveRange derives count addresses starting at from. Descriptors without
// a wildcard yield their single address at index 0.
func deriveRange(d *descriptor.Descriptor, net *chaincfg.Params,
	chain descriptor.Chain, combo descriptor.ComboOutput,
	from, count uint32) []pb.IndexedAddress {

	if !d.RequiresAddressIndex() {
		addr, ok := d.Address(descriptor.DerivationContext{
			Net:   net,
			Chain: chain,
			Combo: combo,
		})
		if !ok {
			return nil
		}
		return []pb.IndexedAddress{{Index: 0, Address: addr.String()}}
	}

	indexes := make([]uint32, count)
	for i := range indexes {
		indexes[i] = from + uint32(i)
	}
	found := d.Addresses(net, chain, combo, indexes, nil)

	addrs := make([]pb.IndexedAddress, 0, len(found))
	for index, addr := range found {
		addrs = append(addrs, pb.IndexedAddress{
			Index:   index,
			Address: addr.String(),
		})
	}
	sort.Slice(addrs, func(i, j int) bool {
		return addrs[i].Index < addrs[j].Index
	})
	return addrs
}

// StartDescriptorService registers the stateless descriptor tools with
// server. Addresses are encoded for activeNet unless a request names
// another network.
func StartDescriptorService(server *grpc.Server, activeNet *netparams.Params) {
	service := &descriptorServer{
		activeNet: activeNet,
	}
	pb.RegisterDescriptorServiceServer(server, service)
}

///////////////////////////////
//	LoaderServer
///////////////////////////////

type loaderServer struct {
	pb.UnimplementedWalletLoaderServiceServer
	loader    *wallet.Loader
	activeNet *netparams.Params
}

func (s *loaderServer) CreateWallet(ctx context.Context,
	req *pb.CreateWalletRequest) (*pb.CreateWalletResponse, error) {

	resp := &pb.CreateWalletResponse{}

	var walletSeed seed.Seed
	switch {
	case req.WatchingOnly:
		log.Infof("Creating watching-only wallet")

	case req.Mnemonic != "":
		restored, err := seed.FromMnemonic(
			req.Mnemonic, req.MnemonicPassphrase,
		)
		if err != nil {
			return nil, translateError(err)
		}
		defer restored.Zero()
		walletSeed = restored

	default:
		generated, err := seed.NewMnemonicSeed(
			rand.Reader, seed.RecommendedEntropyBits,
			req.MnemonicPassphrase,
		)
		if err != nil {
			return nil, translateError(err)
		}
		defer generated.Zero()
		walletSeed = generated

		resp.Mnemonic, err = generated.Mnemonic()
		if err != nil {
			return nil, translateError(err)
		}
	}

	_, err := s.loader.CreateNewWallet(rand.Reader, walletSeed, req.Passphrase)
	if err != nil {
		return nil, translateError(err)
	}
	return resp, nil
}

func (s *loaderServer) OpenWallet(ctx context.Context,
	req *pb.OpenWalletRequest) (*pb.OpenWalletResponse, error) {

	if _, err := s.loader.OpenExistingWallet(); err != nil {
		return nil, translateError(err)
	}
	return &pb.OpenWalletResponse{}, nil
}

func (s *loaderServer) WalletExists(ctx context.Context,
	req *pb.WalletExistsRequest) (*pb.WalletExistsResponse, error) {

	exists, err := s.loader.WalletExists()
	if err != nil {
		return nil, translateError(err)
	}
	return &pb.WalletExistsResponse{Exists: exists}, nil
}

func (s *loaderServer) CloseWallet(ctx context.Context,
	req *pb.CloseWalletRequest) (*pb.CloseWalletResponse, error) {

	if err := s.loader.UnloadWallet(); err != nil {
		return nil, translateError(err)
	}
	return &pb.CloseWalletResponse{}, nil
}

// StartWalletLoaderService registers the wallet loader with server.
func StartWalletLoaderService(server *grpc.Server, loader *wallet.Loader,
	activeNet *netparams.Params) {

	service := &loaderServer{
		loader:    loader,
		activeNet: activeNet,
	}
	pb.RegisterWalletLoaderServiceServer(server, service)
}

//////////////////////////
//  WalletServer
//////////////////////////

type walletServer struct {
	pb.UnimplementedWalletServiceServer
	loader *wallet.Loader
}

// wallet returns the loaded wallet. Services are registered before Serve,
// so the wallet is looked up on every call.
func (s *walletServer) wallet() (*wallet.Wallet, error) {
	w, ok := s.loader.LoadedWallet()
	if !ok {
		return nil, translateError(wallet.ErrNotLoaded)
	}
	return w, nil
}

func (s *walletServer) ImportDescriptor(ctx context.Context,
	req *pb.ImportDescriptorRequest) (*pb.ImportDescriptorResponse, error) {

	w, err := s.wallet()
	if err != nil {
		return nil, err
	}

	d, err := descriptor.New(req.Descriptor)
	if err != nil {
		return nil, translateError(err)
	}
	d = d.WithMetadata(req.Name, req.Note)
	if err := w.ImportDescriptor(d); err != nil {
		return nil, translateError(err)
	}
	return &pb.ImportDescriptorResponse{Canonical: d.String()}, nil
}

func (s *walletServer) ListDescriptors(ctx context.Context,
	req *pb.ListDescriptorsRequest) (*pb.ListDescriptorsResponse, error) {

	w, err := s.wallet()
	if err != nil {
		return nil, err
	}

	descs, err := w.Descriptors()
	if err != nil {
		return nil, translateError(err)
	}

	resp := &pb.ListDescriptorsResponse{
		Descriptors: make([]pb.WalletDescriptor, 0, len(descs)),
	}
	for _, d := range descs {
		resp.Descriptors = append(resp.Descriptors, pb.WalletDescriptor{
			Name:       d.Name(),
			Note:       d.Note(),
			Descriptor: d.SourceWithChecksum(),
		})
	}
	return resp, nil
}

func (s *walletServer) NextAddresses(ctx context.Context,
	req *pb.NextAddressesRequest) (*pb.NextAddressesResponse, error) {

	if req.Count > MaxDeriveCount {
		return nil, status.Errorf(codes.InvalidArgument,
			"count %d exceeds the limit of %d", req.Count,
			MaxDeriveCount)
	}
	w, err := s.wallet()
	if err != nil {
		return nil, err
	}
	chain, err := parseChain(req.Chain)
	if err != nil {
		return nil, err
	}
	combo, err := parseCombo(req.Combo)
	if err != nil {
		return nil, err
	}

	addrs, err := w.NextAddresses(req.Name, chain, combo, req.Count)
	if err != nil {
		return nil, translateError(err)
	}

	resp := &pb.NextAddressesResponse{
		Addresses: make([]string, len(addrs)),
	}
	for i, addr := range addrs {
		resp.Addresses[i] = addr.String()
	}
	return resp, nil
}

func (s *walletServer) UnlockWallet(ctx context.Context,
	req *pb.UnlockWalletRequest) (*pb.UnlockWalletResponse, error) {

	w, err := s.wallet()
	if err != nil {
		return nil, err
	}
	if err := w.Unlock(req.Passphrase); err != nil {
		return nil, translateError(err)
	}
	return &pb.UnlockWalletResponse{}, nil
}

func (s *walletServer) LockWallet(ctx context.Context,
	req *pb.LockWalletRequest) (*pb.LockWalletResponse, error) {

	w, err := s.wallet()
	if err != nil {
		return nil, err
	}
	w.Lock()
	return &pb.LockWalletResponse{}, nil
}

// StartWalletService registers the wallet service with server. Calls fail
// with FailedPrecondition while loader has no wallet loaded.
func StartWalletService(server *grpc.Server, loader *wallet.Loader) {
	service := &walletServer{
		loader: loader,
	}
	pb.RegisterWalletServiceServer(server, service)
}

// UnaryLogger logs every unary call and its outcome.
func UnaryLogger(ctx context.Context, req interface{},
	info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (interface{}, error) {

	resp, err := handler(ctx, req)
	if err != nil {
		log.Debugf("%s failed: %v", info.FullMethod, err)
	} else {
		log.Tracef("%s succeeded", info.FullMethod)
	}
	return resp, err
}
