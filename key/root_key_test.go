package key

import (
	"bytes"
	"fmt"
	"sync"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bip32Seed is the seed of the first BIP-32 test vector.
var bip32Seed = seed.RawSeed{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

func TestNewRootKey(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	assert.Equal(t, "xprv9s21ZrQH143K3QTDL4LXw2F7HEK3wJUD2nW2nRk4stbPy6cq3jP"+
		"PqjiChkVvvNKmPGJxWUtg6LnF5kejMRNNU3TGtRBeJgk33yuGBxrMPHi",
		rootKey.String())

	fingerprint, err := Fingerprint(rootKey)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3442193e), fingerprint)

	pub, err := rootKey.Neuter()
	require.NoError(t, err)
	pubFingerprint, err := Fingerprint(pub)
	require.NoError(t, err)
	assert.Equal(t, fingerprint, pubFingerprint)
}

func TestDerivePath(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	// m/0H from the first BIP-32 test vector.
	child, err := DerivePath(rootKey, []uint32{hdkeychain.HardenedKeyStart})
	require.NoError(t, err)
	assert.Equal(t, "xprv9uHRZZhk6KAJC1avXpDAp4MDc3sQKNxDiPvvkX8Br5ngLNv1TxvU"+
		"xt4cV1rGL5hj6KCesnDYUhd7oWgT11eZG7XnxHrnYeSvkzY7d2bhkJ7",
		child.String())

	pub, err := rootKey.Neuter()
	require.NoError(t, err)
	_, err = DerivePath(pub, []uint32{hdkeychain.HardenedKeyStart})
	assert.ErrorIs(t, err, hdkeychain.ErrDeriveHardFromPublic)

	same, err := DerivePath(rootKey, nil)
	require.NoError(t, err)
	assert.Equal(t, rootKey.String(), same.String())
}

func TestDerivePathVectors(t *testing.T) {
	hkStart := uint32(hdkeychain.HardenedKeyStart)

	tests := []struct {
		name     string
		path     []uint32
		wantPub  string
		wantPriv string
	}{
		{
			name:     "m/0H/1",
			path:     []uint32{hkStart, 1},
			wantPub:  "xpub6ASuArnXKPbfEwhqN6e3mwBcDTgzisQN1wXN9BJcM47sSikHjJf3UFHKkNAWbWMiGj7Wf5uMash7SyYq527Hqck2AxYysAA7xmALppuCkwQ",
			wantPriv: "xprv9wTYmMFdV23N2TdNG573QoEsfRrWKQgWeibmLntzniatZvR9BmLnvSxqu53Kw1UmYPxLgboyZQaXwTCg8MSY3H2EU4pWcQDnRnrVA1xe8fs",
		},
		{
			name:     "m/0H/1/2H",
			path:     []uint32{hkStart, 1, hkStart + 2},
			wantPub:  "xpub6D4BDPcP2GT577Vvch3R8wDkScZWzQzMMUm3PWbmWvVJrZwQY4VUNgqFJPMM3No2dFDFGTsxxpG5uJh7n7epu4trkrX7x7DogT5Uv6fcLW5",
			wantPriv: "xprv9z4pot5VBttmtdRTWfWQmoH1taj2axGVzFqSb8C9xaxKymcFzXBDptWmT7FwuEzG3ryjH4ktypQSAewRiNMjANTtpgP4mLTj34bhnZX7UiM",
		},
		{
			name:     "m/0H/1/2H/2",
			path:     []uint32{hkStart, 1, hkStart + 2, 2},
			wantPub:  "xpub6FHa3pjLCk84BayeJxFW2SP4XRrFd1JYnxeLeU8EqN3vDfZmbqBqaGJAyiLjTAwm6ZLRQUMv1ZACTj37sR62cfN7fe5JnJ7dh8zL4fiyLHV",
			wantPriv: "xprvA2JDeKCSNNZky6uBCviVfJSKyQ1mDYahRjijr5idH2WwLsEd4Hsb2Tyh8RfQMuPh7f7RtyzTtdrbdqqsunu5Mm3wDvUAKRHSC34sJ7in334",
		},
		{
			name:     "m/0H/1/2H/2/1000000000",
			path:     []uint32{hkStart, 1, hkStart + 2, 2, 1000000000},
			wantPub:  "xpub6H1LXWLaKsWFhvm6RVpEL9P4KfRZSW7abD2ttkWP3SSQvnyA8FSVqNTEcYFgJS2UaFcxupHiYkro49S8yGasTvXEYBVPamhGW6cFJodrTHy",
			wantPriv: "xprvA41z7zogVVwxVSgdKUHDy1SKmdb533PjDz7J6N6mV6uS3ze1ai8FHa8kmHScGpWmj4WggLyQjgPie1rFSruoUihUZREPSL39UNdE3BBDu76",
		},
	}

	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			extKey, err := DerivePath(rootKey, test.path)
			require.NoError(t, err)
			assert.Equal(t, uint8(len(test.path)), extKey.Depth())
			assert.Equal(t, test.wantPriv, extKey.String())

			pubKey, err := extKey.Neuter()
			require.NoError(t, err)
			assert.Equal(t, test.wantPub, pubKey.String())
		})
	}
}

func TestRing(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	ring := NewRing(4)
	fingerprint, err := ring.Add(rootKey)
	require.NoError(t, err)
	assert.Equal(t, uint32(0x3442193e), fingerprint)
	assert.True(t, ring.Has(fingerprint))
	assert.Equal(t, 1, ring.Len())

	path := []uint32{hdkeychain.HardenedKeyStart, 1}
	want, err := DerivePath(rootKey, path)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		got, err := ring.PrivateKey(fingerprint, path)
		require.NoError(t, err)
		assert.True(t, got.IsPrivate())
		assert.Equal(t, want.String(), got.String())
	}

	// Zeroing a returned key leaves the cached copy intact.
	got, err := ring.PrivateKey(fingerprint, path)
	require.NoError(t, err)
	got.Zero()
	again, err := ring.PrivateKey(fingerprint, path)
	require.NoError(t, err)
	assert.Equal(t, want.String(), again.String())

	_, err = ring.PrivateKey(0xdeadbeef, path)
	assert.ErrorIs(t, err, ErrUnknownFingerprint)

	pub, err := rootKey.Neuter()
	require.NoError(t, err)
	_, err = ring.Add(pub)
	assert.ErrorIs(t, err, ErrNotPrivate)
}

func TestRingConcurrentAccess(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	ring := NewRing(8)
	fingerprint, err := ring.Add(rootKey)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i uint32) {
			defer wg.Done()

			path := []uint32{hdkeychain.HardenedKeyStart + i%4, i}
			got, err := ring.PrivateKey(fingerprint, path)
			assert.NoError(t, err)
			if got != nil {
				assert.True(t, got.IsPrivate())
			}
		}(uint32(i))
	}
	wg.Wait()
}

func TestRingZero(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)

	ring := NewRing(0)
	fingerprint, err := ring.Add(rootKey)
	require.NoError(t, err)

	ring.Zero()
	assert.Equal(t, 0, ring.Len())
	_, err = ring.PrivateKey(fingerprint, nil)
	assert.ErrorIs(t, err, ErrUnknownFingerprint)
}

// TestRingProvidesHardenedDescriptorKeys evaluates a descriptor whose
// wildcard is hardened below a public key, which only works through the
// ring.
func TestRingProvidesHardenedDescriptorKeys(t *testing.T) {
	rootKey, err := NewRootKey(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	pub, err := rootKey.Neuter()
	require.NoError(t, err)

	ring := NewRing(0)
	fingerprint, err := ring.Add(rootKey)
	require.NoError(t, err)

	d, err := descriptor.New(fmt.Sprintf("pkh([%08x]%s/*h)", fingerprint, pub))
	require.NoError(t, err)

	_, ok := d.ScriptPubKey(descriptor.DerivationContext{
		AddressIndex: descriptor.Index(3),
	})
	assert.False(t, ok)

	addrs := d.Addresses(&chaincfg.MainNetParams, descriptor.ChainUnspecified,
		descriptor.ComboUnspecified, []uint32{0, 1, 2, 3}, ring)
	require.Len(t, addrs, 4)

	child, err := DerivePath(rootKey, []uint32{hdkeychain.HardenedKeyStart + 3})
	require.NoError(t, err)
	want, err := child.Address(&chaincfg.MainNetParams)
	require.NoError(t, err)
	assert.Equal(t, want.EncodeAddress(), addrs[3].EncodeAddress())
	assert.False(t, bytes.Equal(addrs[2].ScriptAddress(), addrs[3].ScriptAddress()))
}
