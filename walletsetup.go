package main

import (
	"crypto/rand"
	"fmt"
	"io"
	"path/filepath"

	"github.com/czh0526/btc-descriptors/internal/prompt"
	"github.com/czh0526/btc-descriptors/internal/zero"
	"github.com/czh0526/btc-descriptors/netparams"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/wallet"
)

// networkDir returns the directory name of a network directory to hold wallet
// files.
func networkDir(dataDir string, net *netparams.Params) string {
	return filepath.Join(dataDir, net.DirName())
}

// createWallet prompts the user for the wallet seed and the passphrase that
// encrypts it, then creates the wallet database in the network directory.
func createWallet(cfg *config, p *prompt.Prompter, out io.Writer) error {
	netDir := cfg.netDir()
	if err := wallet.CheckCreateDir(netDir); err != nil {
		return err
	}
	loader := wallet.NewLoader(cfg.activeNet.Params, netDir, true,
		cfg.DBTimeout)
	loader.SetScryptOptions(cfg.scryptOptions)

	var (
		s    seed.Seed
		pass []byte
	)
	if !cfg.Create.WatchingOnly {
		mnemonicSeed, err := p.Seed()
		if err != nil {
			return err
		}
		defer mnemonicSeed.Zero()
		s = mnemonicSeed

		pass, err = p.Passphrase("Enter the passphrase that will "+
			"encrypt the wallet seed", true)
		if err != nil {
			return err
		}
		defer zero.Bytes(pass)
	}

	fmt.Fprintln(out, "Creating the wallet...")
	if _, err := loader.CreateNewWallet(rand.Reader, s, pass); err != nil {
		return err
	}
	if err := loader.UnloadWallet(); err != nil {
		return err
	}

	fmt.Fprintln(out, "The wallet has been created successfully.")
	return nil
}
