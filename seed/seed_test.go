package seed

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zeroEntropyWords = "abandon abandon abandon abandon abandon abandon " +
	"abandon abandon abandon abandon abandon about"

func TestNewMnemonicSeedVector(t *testing.T) {
	s, err := NewMnemonicSeed(bytes.NewReader(make([]byte, 16)), 128, "TREZOR")
	require.NoError(t, err)

	words, err := s.Mnemonic()
	require.NoError(t, err)
	assert.Equal(t, zeroEntropyWords, words)
	assert.Equal(t, "c55257c360c07c72029aebc1b53c05ed0362ada38ead3e3e9efa"+
		"3708e53495531f09a6987599d18264c1e1c92f2cf141630c7a3c4ab7c81b2f"+
		"001698e7463b04", hex.EncodeToString(s.Bytes()))
}

func TestNewMnemonicSeedEntropy(t *testing.T) {
	tests := []struct {
		bits  int
		words int
		err   error
	}{
		{128, 12, nil},
		{160, 15, nil},
		{256, 24, nil},
		{96, 0, ErrInvalidEntropy},
		{129, 0, ErrInvalidEntropy},
		{288, 0, ErrInvalidEntropy},
	}

	for _, test := range tests {
		rand := bytes.NewReader(bytes.Repeat([]byte{0x5a}, 32))
		s, err := NewMnemonicSeed(rand, test.bits, "")
		if test.err != nil {
			assert.ErrorIs(t, err, test.err, "bits %d", test.bits)
			continue
		}
		require.NoError(t, err, "bits %d", test.bits)

		words, err := s.Mnemonic()
		require.NoError(t, err)
		assert.Len(t, strings.Fields(words), test.words)
		assert.Len(t, s.Bytes(), 64)
	}
}

func TestShortRandomness(t *testing.T) {
	_, err := NewMnemonicSeed(bytes.NewReader(make([]byte, 4)), 128, "")
	assert.Error(t, err)

	_, err = NewSeed(bytes.NewReader(make([]byte, 4)), RecommendedLen)
	assert.Error(t, err)
}

func TestFromMnemonic(t *testing.T) {
	spaced := "  " + strings.ReplaceAll(zeroEntropyWords, " ", "   ") + "\n"
	s, err := FromMnemonic(spaced, "TREZOR")
	require.NoError(t, err)

	words, err := s.Mnemonic()
	require.NoError(t, err)
	assert.Equal(t, zeroEntropyWords, words)

	other, err := FromMnemonic(zeroEntropyWords, "")
	require.NoError(t, err)
	assert.NotEqual(t, s.Identity(), other.Identity())

	again, err := FromMnemonic(zeroEntropyWords, "TREZOR")
	require.NoError(t, err)
	assert.Equal(t, s.Identity(), again.Identity())

	badChecksum := strings.Replace(zeroEntropyWords, "about", "abandon", 1)
	_, err = FromMnemonic(badChecksum, "")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))

	_, err = FromMnemonic("not a bip39 phrase at all", "")
	assert.True(t, errors.Is(err, ErrInvalidMnemonic))
}

func TestRawSeed(t *testing.T) {
	rand := bytes.NewReader(bytes.Repeat([]byte{0x01, 0x02}, 32))
	s, err := NewSeed(rand, RecommendedLen)
	require.NoError(t, err)
	assert.Len(t, s.Bytes(), RecommendedLen)

	_, err = s.Mnemonic()
	assert.ErrorIs(t, err, ErrNoMnemonic)

	copied, err := FromBytes(s.Bytes())
	require.NoError(t, err)
	assert.Equal(t, s.Identity(), copied.Identity())

	// The identity does not expose the seed bytes.
	id := s.Identity()
	assert.False(t, bytes.Contains(id[:], s.Bytes()[:16]))

	copied.Zero()
	assert.Equal(t, make([]byte, RecommendedLen), copied.Bytes())
	assert.NotEqual(t, make([]byte, RecommendedLen), s.Bytes())
}

func TestRawSeedLength(t *testing.T) {
	for _, n := range []int{0, hdkeychain.MinSeedBytes - 1, hdkeychain.MaxSeedBytes + 1} {
		_, err := NewSeed(bytes.NewReader(make([]byte, 128)), n)
		assert.ErrorIs(t, err, ErrInvalidLength, "len %d", n)

		_, err = FromBytes(make([]byte, n))
		assert.ErrorIs(t, err, ErrInvalidLength, "len %d", n)
	}
}

func TestSeedMasterKey(t *testing.T) {
	s, err := FromMnemonic(zeroEntropyWords, "")
	require.NoError(t, err)

	// Any seed drives BIP-32 through the interface alone.
	var capability Seed = s
	_, err = hdkeychain.NewMaster(capability.Bytes(), &chaincfg.MainNetParams)
	require.NoError(t, err)
}
