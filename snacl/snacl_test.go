package snacl

import (
	"bytes"
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	password = []byte("sikrit")
	message  = []byte("this is a secret message of sorts")
)

func TestCryptoKeyRoundTrip(t *testing.T) {
	cryptoKey, err := GenerateCryptoKey(rand.Reader)
	require.NoError(t, err)

	box, err := cryptoKey.Encrypt(rand.Reader, message)
	require.NoError(t, err)
	assert.Len(t, box, NonceSize+len(message)+16)

	opened, err := cryptoKey.Decrypt(box)
	require.NoError(t, err)
	assert.Equal(t, message, opened)

	// The nonce is fresh for every box.
	again, err := cryptoKey.Encrypt(rand.Reader, message)
	require.NoError(t, err)
	assert.NotEqual(t, box, again)

	box[len(box)-1] ^= 0x01
	_, err = cryptoKey.Decrypt(box)
	assert.ErrorIs(t, err, ErrDecryptFailed)

	_, err = cryptoKey.Decrypt(box[:NonceSize])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSecretKey(t *testing.T) {
	sk, err := NewSecretKey(rand.Reader, password, &FastScryptOptions)
	require.NoError(t, err)

	box, err := sk.Encrypt(rand.Reader, message)
	require.NoError(t, err)

	var restored SecretKey
	require.NoError(t, restored.Unmarshal(sk.Marshal()))
	assert.Equal(t, sk.Parameters, restored.Parameters)

	assert.ErrorIs(t, restored.DeriveKey([]byte("wrong")), ErrInvalidPassword)
	require.NoError(t, restored.DeriveKey(password))
	assert.Equal(t, *sk.Key, *restored.Key)

	opened, err := restored.Decrypt(box)
	require.NoError(t, err)
	assert.Equal(t, message, opened)

	restored.Zero()
	assert.Equal(t, CryptoKey{}, *restored.Key)

	assert.ErrorIs(t, restored.Unmarshal(sk.Marshal()[1:]), ErrMalformed)
}

func TestSealOpen(t *testing.T) {
	sealed, err := Seal(rand.Reader, password, message, &FastScryptOptions)
	require.NoError(t, err)
	assert.False(t, bytes.Contains(sealed, message))

	opened, err := Open(password, sealed)
	require.NoError(t, err)
	assert.Equal(t, message, opened)

	_, err = Open([]byte("wrong"), sealed)
	assert.ErrorIs(t, err, ErrInvalidPassword)

	_, err = Open(password, sealed[:10])
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestSealDeterministicRandomness(t *testing.T) {
	randomness := bytes.Repeat([]byte{0x42}, KeySize+NonceSize)

	first, err := Seal(bytes.NewReader(randomness), password, message,
		&FastScryptOptions)
	require.NoError(t, err)
	second, err := Seal(bytes.NewReader(randomness), password, message,
		&FastScryptOptions)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = Seal(bytes.NewReader(randomness[:KeySize]), password, message,
		&FastScryptOptions)
	assert.Error(t, err)
}
