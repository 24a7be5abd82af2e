// Package seed provides the root secrets master keys are derived from.
//
// A Seed only exposes capabilities: its bytes, an optional mnemonic view and
// a digest that identifies it without revealing it. All constructors take
// their randomness source explicitly so callers and tests control it.
package seed

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/czh0526/btc-descriptors/internal/zero"
	"github.com/tyler-smith/go-bip39"
)

const (
	// RecommendedLen is the recommended length in bytes of a raw seed.
	RecommendedLen = hdkeychain.RecommendedSeedLen

	// RecommendedEntropyBits is the entropy of a 24 word mnemonic.
	RecommendedEntropyBits = 256
)

var (
	// ErrNoMnemonic is returned by Seed.Mnemonic for seeds that were not
	// created from a mnemonic.
	ErrNoMnemonic = errors.New("seed has no mnemonic")

	// ErrInvalidLength is returned when a raw seed is too short or too
	// long to create a master key.
	ErrInvalidLength = fmt.Errorf("seed length must be between %d and %d "+
		"bytes", hdkeychain.MinSeedBytes, hdkeychain.MaxSeedBytes)

	// ErrInvalidEntropy is returned for mnemonic entropy sizes BIP-39 does
	// not define.
	ErrInvalidEntropy = errors.New("entropy must be a multiple of 32 bits " +
		"between 128 and 256")

	// ErrInvalidMnemonic is returned when a mnemonic has unknown words or
	// a bad checksum.
	ErrInvalidMnemonic = errors.New("invalid mnemonic")
)

// identityTag domain separates seed identities from other hashes of the
// same bytes.
var identityTag = []byte("btc-descriptors/seed")

// Seed is the root secret of a wallet.
type Seed interface {
	// Bytes returns the seed bytes fed to BIP-32 master key generation.
	Bytes() []byte

	// Mnemonic returns the BIP-39 words the seed was made from, or
	// ErrNoMnemonic.
	Mnemonic() (string, error)

	// Identity returns a digest naming the seed without revealing it.
	Identity() chainhash.Hash
}

// RawSeed is a seed known only by its bytes.
type RawSeed []byte

// NewSeed reads length random bytes from rand.
func NewSeed(rand io.Reader, length int) (RawSeed, error) {
	if length < hdkeychain.MinSeedBytes || length > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidLength
	}

	buf := make([]byte, length)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil, fmt.Errorf("unable to read seed: %w", err)
	}
	return RawSeed(buf), nil
}

// FromBytes copies b into a RawSeed after checking its length.
func FromBytes(b []byte) (RawSeed, error) {
	if len(b) < hdkeychain.MinSeedBytes || len(b) > hdkeychain.MaxSeedBytes {
		return nil, ErrInvalidLength
	}
	return append(RawSeed(nil), b...), nil
}

func (s RawSeed) Bytes() []byte {
	return s
}

func (s RawSeed) Mnemonic() (string, error) {
	return "", ErrNoMnemonic
}

func (s RawSeed) Identity() chainhash.Hash {
	return *chainhash.TaggedHash(identityTag, s)
}

// Zero clears the seed bytes.
func (s RawSeed) Zero() {
	zero.Bytes(s)
}

// MnemonicSeed is a BIP-39 seed. Its bytes are the PBKDF2 stretch of the
// words and the passphrase.
type MnemonicSeed struct {
	words      string
	passphrase string
	seed       []byte
}

// NewMnemonicSeed draws bits of entropy from rand and encodes them as
// BIP-39 words.
func NewMnemonicSeed(rand io.Reader, bits int,
	passphrase string) (*MnemonicSeed, error) {

	if bits < 128 || bits > 256 || bits%32 != 0 {
		return nil, ErrInvalidEntropy
	}

	entropy := make([]byte, bits/8)
	defer zero.Bytes(entropy)
	if _, err := io.ReadFull(rand, entropy); err != nil {
		return nil, fmt.Errorf("unable to read entropy: %w", err)
	}

	words, err := bip39.NewMnemonic(entropy)
	if err != nil {
		return nil, err
	}
	return FromMnemonic(words, passphrase)
}

// FromMnemonic validates words and derives the seed they encode together
// with passphrase. Runs of whitespace between words are ignored.
func FromMnemonic(words, passphrase string) (*MnemonicSeed, error) {
	words = strings.Join(strings.Fields(words), " ")

	seed, err := bip39.NewSeedWithErrorChecking(words, passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMnemonic, err)
	}

	return &MnemonicSeed{
		words:      words,
		passphrase: passphrase,
		seed:       seed,
	}, nil
}

func (s *MnemonicSeed) Bytes() []byte {
	return s.seed
}

func (s *MnemonicSeed) Mnemonic() (string, error) {
	return s.words, nil
}

// Identity commits to the derived seed so the same words with different
// passphrases have different identities.
func (s *MnemonicSeed) Identity() chainhash.Hash {
	return *chainhash.TaggedHash(identityTag, s.seed)
}

// Zero clears the derived seed bytes. The words are immutable strings and
// are only dropped.
func (s *MnemonicSeed) Zero() {
	zero.Bytes(s.seed)
	s.words = ""
	s.passphrase = ""
}

var (
	_ Seed = RawSeed(nil)
	_ Seed = (*MnemonicSeed)(nil)
)
