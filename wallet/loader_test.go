package wallet

import (
	"crypto/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderLifecycle(t *testing.T) {
	loader := testLoader(t)

	exists, err := loader.WalletExists()
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = loader.OpenExistingWallet()
	assert.Error(t, err)
	assert.ErrorIs(t, loader.UnloadWallet(), ErrNotLoaded)

	var callbackWallet *Wallet
	loader.RunAfterLoad(func(w *Wallet) {
		callbackWallet = w
	})

	_, err = loader.CreateNewWallet(rand.Reader, testSeed(t), nil)
	assert.ErrorIs(t, err, ErrEmptyPassphrase)

	w, err := loader.CreateNewWallet(rand.Reader, testSeed(t), testPassphrase)
	require.NoError(t, err)
	assert.Same(t, w, callbackWallet)

	loaded, ok := loader.LoadedWallet()
	require.True(t, ok)
	assert.Same(t, w, loaded)

	_, err = loader.CreateNewWallet(rand.Reader, testSeed(t), testPassphrase)
	assert.ErrorIs(t, err, ErrLoaded)
	_, err = loader.OpenExistingWallet()
	assert.ErrorIs(t, err, ErrLoaded)

	// Callbacks added after loading run immediately.
	ran := false
	loader.RunAfterLoad(func(*Wallet) { ran = true })
	assert.True(t, ran)

	require.NoError(t, loader.UnloadWallet())
	_, ok = loader.LoadedWallet()
	assert.False(t, ok)

	exists, err = loader.WalletExists()
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = loader.CreateNewWallet(rand.Reader, testSeed(t), testPassphrase)
	assert.ErrorIs(t, err, ErrExists)

	w, err = loader.OpenExistingWallet()
	require.NoError(t, err)
	defer loader.UnloadWallet()

	descs, err := w.Descriptors()
	require.NoError(t, err)
	assert.Len(t, descs, 3)
}

func TestLoaderWrongNetwork(t *testing.T) {
	dir := t.TempDir()

	loader := NewLoader(&chaincfg.MainNetParams, dir, true, defaultDBTimeout)
	_, err := loader.CreateNewWallet(rand.Reader, nil, nil)
	require.NoError(t, err)
	require.NoError(t, loader.UnloadWallet())

	loader = NewLoader(&chaincfg.TestNet3Params, dir, true, defaultDBTimeout)
	_, err = loader.OpenExistingWallet()
	assert.ErrorIs(t, err, ErrWrongNetwork)

	// The failed open must release the database file.
	loader = NewLoader(&chaincfg.MainNetParams, dir, true, defaultDBTimeout)
	_, err = loader.OpenExistingWallet()
	require.NoError(t, err)
	require.NoError(t, loader.UnloadWallet())
}

func TestWatchingOnlyWallet(t *testing.T) {
	loader := testLoader(t)
	w, err := loader.CreateNewWallet(rand.Reader, nil, nil)
	require.NoError(t, err)
	defer loader.UnloadWallet()

	descs, err := w.Descriptors()
	require.NoError(t, err)
	assert.Empty(t, descs)

	assert.ErrorIs(t, w.Unlock(testPassphrase), ErrWatchingOnly)

	d := descriptor.Must("addr(1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA)").
		WithMetadata("watched", "")
	require.NoError(t, w.ImportDescriptor(d))

	addrs, err := w.NextAddresses("watched", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 3)
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	assert.Equal(t, "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA", addrs[0].String())
}

func TestCheckCreateDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, CheckCreateDir(dir))
	require.NoError(t, CheckCreateDir(dir))

	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0600))
	assert.Error(t, CheckCreateDir(file))
}
