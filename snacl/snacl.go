// Package snacl protects secrets with a passphrase. Keys are stretched with
// scrypt and data is sealed with NaCl secretbox.
package snacl

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/binary"
	"errors"
	"io"
	"runtime/debug"

	"github.com/czh0526/btc-descriptors/internal/zero"
	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

const (
	KeySize   = 32
	NonceSize = 24

	// paramsSize is the length of marshalled Parameters.
	paramsSize = KeySize + sha256.Size + 24
)

var (
	ErrInvalidPassword = errors.New("invalid password")
	ErrMalformed       = errors.New("malformed data")
	ErrDecryptFailed   = errors.New("unable to decrypt")
)

// ScryptOptions are the scrypt cost parameters.
type ScryptOptions struct {
	N, R, P int
}

var (
	// DefaultScryptOptions are the costs used for stored secrets.
	DefaultScryptOptions = ScryptOptions{
		N: 262144,
		R: 8,
		P: 1,
	}

	// FastScryptOptions are cheap costs for tests.
	FastScryptOptions = ScryptOptions{
		N: 16,
		R: 8,
		P: 1,
	}
)

// CryptoKey is a secretbox key.
type CryptoKey [KeySize]byte

// Encrypt seals in under a fresh nonce read from rand. The nonce prefixes
// the returned box.
func (ck *CryptoKey) Encrypt(rand io.Reader, in []byte) ([]byte, error) {
	var nonce [NonceSize]byte
	if _, err := io.ReadFull(rand, nonce[:]); err != nil {
		return nil, err
	}
	blob := secretbox.Seal(nil, in, &nonce, (*[KeySize]byte)(ck))
	return append(nonce[:], blob...), nil
}

// Decrypt opens a box produced by Encrypt.
func (ck *CryptoKey) Decrypt(in []byte) ([]byte, error) {
	if len(in) < NonceSize+secretbox.Overhead {
		return nil, ErrMalformed
	}

	var nonce [NonceSize]byte
	copy(nonce[:], in[:NonceSize])

	opened, ok := secretbox.Open(nil, in[NonceSize:], &nonce, (*[KeySize]byte)(ck))
	if !ok {
		return nil, ErrDecryptFailed
	}
	return opened, nil
}

// Zero clears the key.
func (ck *CryptoKey) Zero() {
	zero.Bytea32((*[KeySize]byte)(ck))
}

// GenerateCryptoKey reads a random key from rand.
func GenerateCryptoKey(rand io.Reader) (*CryptoKey, error) {
	var key CryptoKey
	if _, err := io.ReadFull(rand, key[:]); err != nil {
		return nil, err
	}
	return &key, nil
}

// Parameters are the public values needed to re-derive a SecretKey from
// its passphrase.
type Parameters struct {
	Salt   [KeySize]byte
	Digest [sha256.Size]byte
	N      int
	R      int
	P      int
}

// SecretKey is a CryptoKey derived from a passphrase.
type SecretKey struct {
	Key        *CryptoKey
	Parameters Parameters
}

// NewSecretKey derives a key from password with a random salt.
func NewSecretKey(rand io.Reader, password []byte,
	opts *ScryptOptions) (*SecretKey, error) {

	sk := SecretKey{
		Key: &CryptoKey{},
		Parameters: Parameters{
			N: opts.N,
			R: opts.R,
			P: opts.P,
		},
	}
	if _, err := io.ReadFull(rand, sk.Parameters.Salt[:]); err != nil {
		return nil, err
	}

	if err := sk.deriveKey(password); err != nil {
		return nil, err
	}
	sk.Parameters.Digest = sha256.Sum256(sk.Key[:])

	return &sk, nil
}

func (sk *SecretKey) deriveKey(password []byte) error {
	key, err := scrypt.Key(password, sk.Parameters.Salt[:],
		sk.Parameters.N, sk.Parameters.R, sk.Parameters.P, len(sk.Key))
	if err != nil {
		return err
	}
	copy(sk.Key[:], key)
	zero.Bytes(key)

	// scrypt allocates a large buffer that should not linger.
	debug.FreeOSMemory()
	return nil
}

// DeriveKey re-derives the key from password and checks it against the
// stored digest.
func (sk *SecretKey) DeriveKey(password []byte) error {
	if err := sk.deriveKey(password); err != nil {
		return err
	}

	digest := sha256.Sum256(sk.Key[:])
	if subtle.ConstantTimeCompare(digest[:], sk.Parameters.Digest[:]) != 1 {
		sk.Key.Zero()
		return ErrInvalidPassword
	}
	return nil
}

// Marshal serializes the parameters. The key itself is never serialized.
func (sk *SecretKey) Marshal() []byte {
	params := &sk.Parameters

	marshalled := make([]byte, paramsSize)
	b := marshalled
	copy(b[:KeySize], params.Salt[:])
	b = b[KeySize:]
	copy(b[:sha256.Size], params.Digest[:])
	b = b[sha256.Size:]
	binary.LittleEndian.PutUint64(b[:8], uint64(params.N))
	b = b[8:]
	binary.LittleEndian.PutUint64(b[:8], uint64(params.R))
	b = b[8:]
	binary.LittleEndian.PutUint64(b[:8], uint64(params.P))

	return marshalled
}

// Unmarshal loads parameters produced by Marshal. DeriveKey must be called
// before the key can be used.
func (sk *SecretKey) Unmarshal(marshalled []byte) error {
	if len(marshalled) != paramsSize {
		return ErrMalformed
	}
	if sk.Key == nil {
		sk.Key = &CryptoKey{}
	}

	params := &sk.Parameters
	copy(params.Salt[:], marshalled[:KeySize])
	marshalled = marshalled[KeySize:]
	copy(params.Digest[:], marshalled[:sha256.Size])
	marshalled = marshalled[sha256.Size:]
	params.N = int(binary.LittleEndian.Uint64(marshalled[:8]))
	params.R = int(binary.LittleEndian.Uint64(marshalled[8:16]))
	params.P = int(binary.LittleEndian.Uint64(marshalled[16:24]))

	return nil
}

// Encrypt seals in with the secret key.
func (sk *SecretKey) Encrypt(rand io.Reader, in []byte) ([]byte, error) {
	return sk.Key.Encrypt(rand, in)
}

// Decrypt opens a box sealed with the secret key.
func (sk *SecretKey) Decrypt(in []byte) ([]byte, error) {
	return sk.Key.Decrypt(in)
}

// Zero clears the derived key.
func (sk *SecretKey) Zero() {
	sk.Key.Zero()
}

// Seal encrypts plaintext under passphrase. The result carries the scrypt
// parameters followed by the box, so Open needs only the passphrase.
func Seal(rand io.Reader, passphrase, plaintext []byte,
	opts *ScryptOptions) ([]byte, error) {

	sk, err := NewSecretKey(rand, passphrase, opts)
	if err != nil {
		return nil, err
	}
	defer sk.Zero()

	box, err := sk.Encrypt(rand, plaintext)
	if err != nil {
		return nil, err
	}
	return append(sk.Marshal(), box...), nil
}

// Open decrypts a blob produced by Seal.
func Open(passphrase, sealed []byte) ([]byte, error) {
	if len(sealed) < paramsSize {
		return nil, ErrMalformed
	}

	var sk SecretKey
	if err := sk.Unmarshal(sealed[:paramsSize]); err != nil {
		return nil, err
	}
	if err := sk.DeriveKey(passphrase); err != nil {
		return nil, err
	}
	defer sk.Zero()

	return sk.Decrypt(sealed[paramsSize:])
}
