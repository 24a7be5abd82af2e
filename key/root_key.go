package key

import (
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/seed"
)

// NewRootKey creates the BIP-32 master key of s for the given network.
func NewRootKey(s seed.Seed, params *chaincfg.Params) (*hdkeychain.ExtendedKey, error) {
	return hdkeychain.NewMaster(s.Bytes(), params)
}

// Fingerprint returns the BIP-32 fingerprint of k, the value key origins
// name the master key by.
func Fingerprint(k *hdkeychain.ExtendedKey) (uint32, error) {
	pub, err := k.ECPubKey()
	if err != nil {
		return 0, err
	}
	return descriptor.Fingerprint(pub), nil
}

// DerivePath walks k down path. Hardened steps need a private key.
func DerivePath(k *hdkeychain.ExtendedKey, path []uint32) (*hdkeychain.ExtendedKey, error) {
	for _, i := range path {
		child, err := k.Derive(i)
		if err != nil {
			return nil, err
		}
		k = child
	}
	return k, nil
}
