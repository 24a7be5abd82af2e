package descriptor

import (
	"encoding/hex"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/require"
)

// bip32Seed is the seed of the first BIP-32 test vector.
var bip32Seed = []byte{
	0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07,
	0x08, 0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f,
}

func checkError(t *testing.T, testName string, gotErr error,
	wantErrCode ErrorCode) bool {

	t.Helper()

	var derr Error
	if !errors.As(gotErr, &derr) {
		t.Errorf("%s: unexpected error type - got %T (%v), want %T",
			testName, gotErr, gotErr, Error{})
		return false
	}
	if derr.ErrorCode != wantErrCode {
		t.Errorf("%s: unexpected error code - got %s (%s), want %s",
			testName, derr.ErrorCode, derr.Description, wantErrCode)
		return false
	}

	return true
}

func testMaster(t *testing.T) *hdkeychain.ExtendedKey {
	t.Helper()

	master, err := hdkeychain.NewMaster(bip32Seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	return master
}

func testMasterPub(t *testing.T) *hdkeychain.ExtendedKey {
	t.Helper()

	pub, err := testMaster(t).Neuter()
	require.NoError(t, err)
	return pub
}

// testPrivKey returns the private key with scalar n.
func testPrivKey(n byte) *btcec.PrivateKey {
	var b [32]byte
	b[31] = n
	priv, _ := btcec.PrivKeyFromBytes(b[:])
	return priv
}

// testPubHex returns the compressed public key n*G in hex.
func testPubHex(n byte) string {
	return hex.EncodeToString(testPrivKey(n).PubKey().SerializeCompressed())
}

func deriveFrom(t *testing.T, key *hdkeychain.ExtendedKey,
	path ...uint32) *hdkeychain.ExtendedKey {

	t.Helper()

	for _, i := range path {
		child, err := key.Derive(i)
		require.NoError(t, err, spew.Sdump(path))
		key = child
	}
	return key
}

func derivedPub(t *testing.T, key *hdkeychain.ExtendedKey,
	path ...uint32) []byte {

	t.Helper()

	pub, err := deriveFrom(t, key, path...).ECPubKey()
	require.NoError(t, err)
	return pub.SerializeCompressed()
}

// testProvider derives private keys from one master key and refuses the
// paths its refuse func matches.
type testProvider struct {
	master *hdkeychain.ExtendedKey
	refuse func(path []uint32) bool
}

func (p *testProvider) PrivateKey(fingerprint uint32,
	path []uint32) (*hdkeychain.ExtendedKey, error) {

	pub, err := p.master.ECPubKey()
	if err != nil {
		return nil, err
	}
	if fingerprint != Fingerprint(pub) {
		return nil, errors.New("unknown fingerprint")
	}
	if p.refuse != nil && p.refuse(path) {
		return nil, errors.New("refused")
	}

	key := p.master
	for _, i := range path {
		key, err = key.Derive(i)
		if err != nil {
			return nil, err
		}
	}
	return key, nil
}
