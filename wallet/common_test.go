package wallet

import (
	"crypto/rand"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon " +
		"abandon abandon abandon abandon abandon about"

	defaultDBTimeout = 10 * time.Second
)

var testPassphrase = []byte("81lUHXnOMZ@?XXd7O9xyDIWIbXX-lj")

func testSeed(t *testing.T) seed.Seed {
	t.Helper()

	s, err := seed.FromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	return s
}

func testLoader(t *testing.T) *Loader {
	t.Helper()

	loader := NewLoader(
		&chaincfg.MainNetParams, t.TempDir(), true, defaultDBTimeout,
	)
	loader.SetScryptOptions(&snacl.FastScryptOptions)
	return loader
}

// createTestWallet creates and loads a wallet from the test mnemonic.
func createTestWallet(t *testing.T) (*Loader, *Wallet) {
	t.Helper()

	loader := testLoader(t)
	w, err := loader.CreateNewWallet(rand.Reader, testSeed(t), testPassphrase)
	require.NoError(t, err)
	t.Cleanup(func() {
		if _, ok := loader.LoadedWallet(); ok {
			_ = loader.UnloadWallet()
		}
	})
	return loader, w
}
