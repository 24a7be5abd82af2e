package keyscope

import (
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/key"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMnemonic = "abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon about"

func testRoot(t *testing.T, net *chaincfg.Params) *hdkeychain.ExtendedKey {
	t.Helper()

	s, err := seed.FromMnemonic(testMnemonic, "")
	require.NoError(t, err)
	root, err := key.NewRootKey(s, net)
	require.NoError(t, err)
	return root
}

func firstAddress(t *testing.T, d *descriptor.Descriptor,
	chain descriptor.Chain, net *chaincfg.Params) string {

	t.Helper()

	addr, ok := d.Address(descriptor.DerivationContext{
		Net:          net,
		Chain:        chain,
		AddressIndex: descriptor.Index(0),
	})
	require.True(t, ok)
	return addr.EncodeAddress()
}

func TestAccountDescriptorVectors(t *testing.T) {
	root := testRoot(t, &chaincfg.MainNetParams)
	net := &chaincfg.MainNetParams

	tests := []struct {
		scope    KeyScope
		prefix   string
		external string
		internal string
	}{
		{
			scope:    KeyScopeBIP0084,
			prefix:   "wpkh([73c5da0a/84'/0'/0']xpub",
			external: "bc1qcr8te4kr609gcawutmrza0j4xv80jy8z306fyu",
			internal: "bc1q8c6fshw2dlwun7ekn9qwf37cu2rn755upcp6el",
		},
		{
			scope:    KeyScopeBIP0044,
			prefix:   "pkh([73c5da0a/44'/0'/0']xpub",
			external: "1LqBGSKuX5yYUonjxT5qGfpUsXKYYWeabA",
		},
		{
			scope:  KeyScopeBIP0049Plus,
			prefix: "sh(wpkh([73c5da0a/49'/0'/0']xpub",
		},
	}

	for _, test := range tests {
		d, err := AccountDescriptor(root, net, test.scope, DefaultAccountNum)
		require.NoError(t, err, test.scope.String())

		assert.True(t, strings.HasPrefix(d.String(), test.prefix), d.String())
		assert.True(t, d.RequiresChain())
		assert.True(t, d.RequiresAddressIndex())

		if test.external != "" {
			assert.Equal(t, test.external,
				firstAddress(t, d, descriptor.ChainExternal, net))
		}
		if test.internal != "" {
			assert.Equal(t, test.internal,
				firstAddress(t, d, descriptor.ChainInternal, net))
		}
	}
}

func TestAccountDescriptorMatchesAccountKey(t *testing.T) {
	net := &chaincfg.TestNet3Params
	root := testRoot(t, net)

	d, err := AccountDescriptor(root, net, KeyScopeBIP0084, 2)
	require.NoError(t, err)
	assert.Contains(t, d.String(), "/84'/1'/2']tpub")

	acctKey, err := AccountKey(root, KeyScopeBIP0084.ForNet(net), 2)
	require.NoError(t, err)
	child, err := key.DerivePath(acctKey, []uint32{1, 5})
	require.NoError(t, err)
	want, err := child.ECPubKey()
	require.NoError(t, err)

	got, ok := d.Keys()[0].PubKey(descriptor.DerivationContext{
		Chain:        descriptor.ChainInternal,
		AddressIndex: descriptor.Index(5),
	})
	require.True(t, ok)
	assert.True(t, want.IsEqual(got))
}

func TestAccountKeyErrors(t *testing.T) {
	root := testRoot(t, &chaincfg.MainNetParams)

	_, err := AccountKey(root, KeyScopeBIP0084, MaxAccountNum+1)
	assert.Error(t, err)

	pub, err := root.Neuter()
	require.NoError(t, err)
	_, err = AccountKey(pub, KeyScopeBIP0084, 0)
	assert.ErrorIs(t, err, ErrWatchingOnly)

	_, err = AccountDescriptor(root, &chaincfg.MainNetParams,
		KeyScope{Purpose: 86}, 0)
	assert.Error(t, err)
}

func TestDefaultDescriptors(t *testing.T) {
	root := testRoot(t, &chaincfg.MainNetParams)

	descs, err := DefaultDescriptors(root, &chaincfg.MainNetParams, 0)
	require.NoError(t, err)
	require.Len(t, descs, len(DefaultKeyScopes))

	names := make([]string, len(descs))
	for i, d := range descs {
		names[i] = d.Name()
	}
	assert.Equal(t, []string{"bip44-0", "bip49-0", "bip84-0"}, names)
	assert.Equal(t, "m/84'/1'", KeyScopeBIP0084.ForNet(&chaincfg.TestNet3Params).String())
}
