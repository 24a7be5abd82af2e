package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"

	"github.com/czh0526/btc-descriptors/internal/prompt"
	"github.com/czh0526/btc-descriptors/rpc/rpcserver"
	"github.com/czh0526/btc-descriptors/wallet"
	"google.golang.org/grpc"
)

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	if err := walletMain(os.Args[1:]); err != nil {
		os.Exit(1)
	}
}

// walletMain is a work-around main function that is required since deferred
// functions (such as log flushing) are not called with calls to os.Exit.
// Instead, main runs this function and checks for a non-nil error, at which
// point any defers have already run, and if the error is non-nil, the program
// can be exited with an error exit status.
func walletMain(args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		if isHelp(err) {
			fmt.Fprintln(os.Stdout, err)
			return nil
		}
		fmt.Fprintln(os.Stderr, err)
		return err
	}

	ctx := context.Background()
	switch cfg.command {
	case checksumSubCmd:
		err = runChecksum(os.Stdout, &cfg.Checksum)
	case infoSubCmd:
		err = runInfo(os.Stdout, &cfg.Info, cfg.activeNet)
	case deriveSubCmd:
		err = runDerive(os.Stdout, &cfg.Derive, cfg.activeNet)
	case nextSubCmd:
		err = runNext(ctx, os.Stdout, &cfg.Next)
	case importSubCmd:
		err = runImport(ctx, os.Stdout, &cfg.Import)
	case createSubCmd:
		err = createWallet(cfg, prompt.Stdio(), os.Stdout)
	case serveSubCmd:
		return serve(cfg)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return err
}

// serve runs the gRPC server until an interrupt is received.
func serve(cfg *config) error {
	logFile := filepath.Join(cfg.LogDir, defaultLogFilename)
	if err := initLogRotator(logFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	defer logRotator.Close()

	if cfg.configErr != nil {
		log.Warnf("%v", cfg.configErr)
	}

	loader := wallet.NewLoader(cfg.activeNet.Params, cfg.netDir(), true,
		cfg.DBTimeout)
	loader.SetScryptOptions(cfg.scryptOptions)

	server, _, err := startRPCServer(cfg, loader)
	if err != nil {
		log.Errorf("Unable to create RPC server: %v", err)
		return err
	}

	loader.RunAfterLoad(func(w *wallet.Wallet) {
		descs, err := w.Descriptors()
		if err != nil {
			log.Errorf("Unable to list wallet descriptors: %v", err)
			return
		}
		log.Infof("Loaded %s wallet with %d descriptors",
			w.ChainParams().Name, len(descs))
	})

	if !cfg.Serve.NoInitialLoad {
		if _, err := loader.OpenExistingWallet(); err != nil {
			log.Errorf("Unable to open wallet: %v", err)
			server.Stop()
			return err
		}
	}

	// Handlers run in reverse order: stop serving, then close the wallet.
	addInterruptHandler(func() {
		err := loader.UnloadWallet()
		if err != nil && err != wallet.ErrNotLoaded {
			log.Errorf("Failed to close wallet: %v", err)
		}
	})
	addInterruptHandler(func() {
		log.Info("Stopping gRPC server...")
		server.GracefulStop()
		log.Info("gRPC server shutdown")
	})

	<-interruptHandlersDone
	log.Info("Shutdown complete")
	return nil
}

// startRPCServer registers every service with a new gRPC server and serves
// it on each configured listener. The bound addresses are returned in
// listener order.
func startRPCServer(cfg *config, loader *wallet.Loader) (*grpc.Server,
	[]net.Addr, error) {

	listeners := make([]net.Listener, 0, len(cfg.Serve.RPCListeners))
	for _, addr := range cfg.Serve.RPCListeners {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			for _, l := range listeners {
				l.Close()
			}
			return nil, nil, fmt.Errorf("unable to listen on %s: %w",
				addr, err)
		}
		listeners = append(listeners, lis)
	}

	server := grpc.NewServer(grpc.UnaryInterceptor(rpcserver.UnaryLogger))
	rpcserver.StartDescriptorService(server, cfg.activeNet)
	rpcserver.StartWalletLoaderService(server, loader, cfg.activeNet)
	rpcserver.StartWalletService(server, loader)

	addrs := make([]net.Addr, 0, len(listeners))
	for _, lis := range listeners {
		lis := lis
		addrs = append(addrs, lis.Addr())
		go func() {
			log.Infof("gRPC server listening on %s", lis.Addr())
			if err := server.Serve(lis); err != nil {
				log.Errorf("gRPC server on %s failed: %v",
					lis.Addr(), err)
				simulateInterrupt()
			}
		}()
	}
	return server, addrs, nil
}
