package wallet

import (
	"fmt"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/descstore"
	"github.com/czh0526/btc-descriptors/key"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addressStrings(addrs []btcutil.Address) []string {
	strs := make([]string, len(addrs))
	for i, addr := range addrs {
		strs[i] = addr.String()
	}
	return strs
}

func TestDefaultDescriptors(t *testing.T) {
	_, w := createTestWallet(t)

	descs, err := w.Descriptors()
	require.NoError(t, err)

	var names []string
	for _, d := range descs {
		names = append(names, d.Name())
		assert.True(t, d.RequiresChain())
		assert.True(t, d.RequiresAddressIndex())
	}
	assert.Equal(t, []string{"bip44-0", "bip49-0", "bip84-0"}, names)

	tests := []struct {
		name  string
		chain descriptor.Chain
		want  string
	}{
		{
			name:  "bip44-0",
			chain: descriptor.ChainExternal,
			want:  "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA",
		},
		{
			name:  "bip49-0",
			chain: descriptor.ChainExternal,
			want:  "37VucYSaXLCAsxYyAPfbSi9eh4iEcbShgf",
		},
		{
			name:  "bip84-0",
			chain: descriptor.ChainExternal,
			want:  "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		},
		{
			name:  "bip84-0",
			chain: descriptor.ChainInternal,
			want:  "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el",
		},
	}
	for _, test := range tests {
		addrs, err := w.DeriveAddresses(test.name, test.chain,
			descriptor.ComboUnspecified, []uint32{0})
		require.NoError(t, err, test.name)
		assert.Equal(t, []string{test.want}, addressStrings(addrs),
			"%s %v", test.name, test.chain)
	}
}

func TestNextAddresses(t *testing.T) {
	_, w := createTestWallet(t)

	_, err := w.NextAddresses("bip84-0", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 1)
	assert.ErrorIs(t, err, ErrChainRequired)

	first, err := w.NextAddresses("bip84-0", descriptor.ChainExternal,
		descriptor.ComboUnspecified, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
		first[0].String())

	next, err := w.NextAddresses("bip84-0", descriptor.ChainExternal,
		descriptor.ComboUnspecified, 1)
	require.NoError(t, err)

	want, err := w.DeriveAddresses("bip84-0", descriptor.ChainExternal,
		descriptor.ComboUnspecified, []uint32{0, 1, 2})
	require.NoError(t, err)
	assert.Equal(t, addressStrings(want),
		addressStrings(append(first, next...)))

	// The internal chain has its own counter.
	change, err := w.NextAddresses("bip84-0", descriptor.ChainInternal,
		descriptor.ComboUnspecified, 1)
	require.NoError(t, err)
	assert.Equal(t, "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el",
		change[0].String())

	none, err := w.NextAddresses("bip84-0", descriptor.ChainExternal,
		descriptor.ComboUnspecified, 0)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = w.NextAddresses("missing", descriptor.ChainExternal,
		descriptor.ComboUnspecified, 1)
	assert.True(t, descstore.IsError(err, descstore.ErrDescriptorNotFound))
}

func TestImportRemove(t *testing.T) {
	_, w := createTestWallet(t)

	d := descriptor.Must("raw(51)").WithMetadata("script", "anyone can spend")
	require.NoError(t, w.ImportDescriptor(d))

	err := w.ImportDescriptor(d)
	assert.True(t, descstore.IsError(err, descstore.ErrDuplicateName))

	got, err := w.Descriptor("script")
	require.NoError(t, err)
	assert.True(t, d.Equal(got))
	assert.Equal(t, "anyone can spend", got.Note())

	// Raw scripts have no address.
	_, err = w.NextAddresses("script", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 1)
	assert.ErrorIs(t, err, ErrNoAddresses)

	require.NoError(t, w.RemoveDescriptor("script"))
	_, err = w.Descriptor("script")
	assert.True(t, descstore.IsError(err, descstore.ErrDescriptorNotFound))
}

func TestComboAddresses(t *testing.T) {
	_, w := createTestWallet(t)

	root, err := key.NewRootKey(testSeed(t), &chaincfg.MainNetParams)
	require.NoError(t, err)
	rootPub, err := root.Neuter()
	require.NoError(t, err)

	d := descriptor.Must(fmt.Sprintf("combo(%s/*)", rootPub)).
		WithMetadata("combo", "")
	require.NoError(t, w.ImportDescriptor(d))

	// Without a selector combo has no script.
	_, err = w.NextAddresses("combo", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 1)
	assert.ErrorIs(t, err, ErrNoAddresses)

	wpkh, err := w.NextAddresses("combo", descriptor.ChainUnspecified,
		descriptor.ComboWPKH, 2)
	require.NoError(t, err)
	require.Len(t, wpkh, 2)

	// The selectors share the index counter of the descriptor.
	pkh, err := w.NextAddresses("combo", descriptor.ChainUnspecified,
		descriptor.ComboPKH, 1)
	require.NoError(t, err)

	want, err := w.DeriveAddresses("combo", descriptor.ChainUnspecified,
		descriptor.ComboPKH, []uint32{2})
	require.NoError(t, err)
	assert.Equal(t, addressStrings(want), addressStrings(pkh))

	for _, addr := range wpkh {
		_, ok := addr.(*btcutil.AddressWitnessPubKeyHash)
		assert.True(t, ok, addr.String())
	}
}

func TestUnlock(t *testing.T) {
	_, w := createTestWallet(t)
	assert.True(t, w.Locked())
	_, err := w.PrivateKeys()
	assert.ErrorIs(t, err, ErrLocked)

	err = w.Unlock([]byte("wrong"))
	assert.True(t, descstore.IsError(err, descstore.ErrWrongPassphrase))
	assert.True(t, w.Locked())

	root, err := key.NewRootKey(testSeed(t), &chaincfg.MainNetParams)
	require.NoError(t, err)
	rootPub, err := root.Neuter()
	require.NoError(t, err)

	hardened := descriptor.Must(fmt.Sprintf("pkh(%s/0h/*h)", rootPub)).
		WithMetadata("hardened", "")
	require.NoError(t, w.ImportDescriptor(hardened))

	// Locked wallets cannot derive hardened children of public keys, and
	// the failed attempt does not consume an index.
	_, err = w.NextAddresses("hardened", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 1)
	assert.ErrorIs(t, err, ErrNoAddresses)

	require.NoError(t, w.Unlock(testPassphrase))
	assert.False(t, w.Locked())
	provider, err := w.PrivateKeys()
	require.NoError(t, err)
	assert.NotNil(t, provider)

	child, err := key.DerivePath(root, []uint32{
		hdkeychain.HardenedKeyStart, hdkeychain.HardenedKeyStart,
	})
	require.NoError(t, err)
	want, err := child.Address(&chaincfg.MainNetParams)
	require.NoError(t, err)

	addrs, err := w.NextAddresses("hardened", descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{want.String()}, addressStrings(addrs))

	w.Lock()
	assert.True(t, w.Locked())
	w.Lock()
}
