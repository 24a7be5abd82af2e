package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/descstore"
	"github.com/czh0526/btc-descriptors/netparams"
	"github.com/czh0526/btc-descriptors/rpc/rpcserver"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	pb "github.com/czh0526/btc-descriptors/rpc/walletrpc"
)

var errChainRequired = errors.New("the descriptor has multipath steps, " +
	"choose one with --chain")

func parseChain(name string) descriptor.Chain {
	switch name {
	case pb.ChainExternal:
		return descriptor.ChainExternal
	case pb.ChainInternal:
		return descriptor.ChainInternal
	}
	return descriptor.ChainUnspecified
}

// runChecksum prints the descriptor with its checksum appended. A checksum
// already present must be valid.
func runChecksum(w io.Writer, cmd *checksumCommand) error {
	body, err := descriptor.ValidateChecksum(cmd.Args.Descriptor)
	if err != nil {
		return err
	}
	withChecksum, err := descriptor.SourceWithChecksum(body)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, withChecksum)
	return nil
}

// runInfo prints the canonical form of a descriptor and what deriving from
// it needs.
func runInfo(w io.Writer, cmd *infoCommand, net *netparams.Params) error {
	d, err := descriptor.New(cmd.Args.Descriptor)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "descriptor:             %s#%s\n", d, d.Checksum())
	fmt.Fprintf(w, "combo:                  %v\n", d.IsCombo())
	fmt.Fprintf(w, "requires address index: %v\n", d.RequiresAddressIndex())
	fmt.Fprintf(w, "requires chain:         %v\n", d.RequiresChain())
	if base, ok := d.BaseKey(); ok {
		fmt.Fprintf(w, "base key:               %s\n", base)
	}
	for i, k := range d.Keys() {
		fmt.Fprintf(w, "key %-19d %s\n", i, k)
	}

	if d.RequiresAddressIndex() || d.RequiresChain() {
		return nil
	}
	addr, ok := d.Address(descriptor.DerivationContext{Net: net.Params})
	if ok {
		fmt.Fprintf(w, "address:                %s\n", addr)
	}
	return nil
}

// runDerive prints the addresses of a descriptor, one "index address" pair
// per line. Indexes without an address are skipped.
func runDerive(w io.Writer, cmd *deriveCommand, net *netparams.Params) error {
	if cmd.Count > rpcserver.MaxDeriveCount {
		return fmt.Errorf("count %d exceeds the limit of %d", cmd.Count,
			rpcserver.MaxDeriveCount)
	}
	if uint64(cmd.From)+uint64(cmd.Count) > uint64(descstore.MaxIndex)+1 {
		return errors.New("indexes leave the non-hardened range")
	}

	d, err := descriptor.New(cmd.Args.Descriptor)
	if err != nil {
		return err
	}
	chain := parseChain(cmd.Chain)
	if d.RequiresChain() && chain == descriptor.ChainUnspecified {
		return errChainRequired
	}
	combo, err := descriptor.ParseComboOutput(cmd.Combo)
	if err != nil {
		return err
	}

	if !d.RequiresAddressIndex() {
		addr, ok := d.Address(descriptor.DerivationContext{
			Net:   net.Params,
			Chain: chain,
			Combo: combo,
		})
		if ok {
			fmt.Fprintf(w, "%d %s\n", 0, addr)
		}
		return nil
	}

	indexes := make([]uint32, cmd.Count)
	for i := range indexes {
		indexes[i] = cmd.From + uint32(i)
	}
	found := d.Addresses(net.Params, chain, combo, indexes, nil)

	sorted := make([]uint32, 0, len(found))
	for index := range found {
		sorted = append(sorted, index)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})
	for _, index := range sorted {
		fmt.Fprintf(w, "%d %s\n", index, found[index])
	}
	return nil
}

// dialWallet connects to the wallet gRPC server at addr.
func dialWallet(addr string) (*grpc.ClientConn, error) {
	return grpc.Dial(addr,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
}

// runNext asks a running wallet server for the next addresses of a stored
// descriptor.
func runNext(ctx context.Context, w io.Writer, cmd *nextCommand) error {
	conn, err := dialWallet(cmd.RPCServer)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := pb.NewWalletServiceClient(conn).NextAddresses(ctx,
		&pb.NextAddressesRequest{
			Name:  cmd.Args.Name,
			Chain: cmd.Chain,
			Combo: cmd.Combo,
			Count: cmd.Count,
		},
	)
	if err != nil {
		return err
	}

	for _, addr := range resp.Addresses {
		fmt.Fprintln(w, addr)
	}
	return nil
}

// runImport stores a descriptor in the wallet of a running wallet server.
func runImport(ctx context.Context, w io.Writer, cmd *importCommand) error {
	conn, err := dialWallet(cmd.RPCServer)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := pb.NewWalletServiceClient(conn).ImportDescriptor(ctx,
		&pb.ImportDescriptorRequest{
			Descriptor: cmd.Args.Descriptor,
			Name:       cmd.Name,
			Note:       cmd.Note,
		},
	)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Imported %s: %s\n", cmd.Name, resp.Canonical)
	return nil
}
