// Package keyscope maps BIP-44 style key scopes onto account descriptors.
package keyscope

import (
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/key"
)

const (
	// DefaultAccountNum is the account created with every wallet.
	DefaultAccountNum = 0

	// MaxAccountNum is the highest hardened account index.
	MaxAccountNum = hdkeychain.HardenedKeyStart - 1
)

// ErrWatchingOnly is returned when account keys are requested from a
// public root key.
var ErrWatchingOnly = errors.New("account keys need a private root key")

// KeyScope is the purpose and coin type of a BIP-44 style derivation tree.
type KeyScope struct {
	Purpose uint32
	Coin    uint32
}

func (k KeyScope) String() string {
	return fmt.Sprintf("m/%d'/%d'", k.Purpose, k.Coin)
}

// ForNet returns the scope with the coin type of net.
func (k KeyScope) ForNet(net *chaincfg.Params) KeyScope {
	return KeyScope{Purpose: k.Purpose, Coin: net.HDCoinType}
}

// ScopeAddrSchema is the descriptor function wrapping the account key of a
// scope. Both branches of an account share it.
type ScopeAddrSchema struct {
	Wrap func(keyExpr string) string
}

var (
	KeyScopeBIP0044 = KeyScope{
		Purpose: 44,
		Coin:    0,
	}

	KeyScopeBIP0049Plus = KeyScope{
		Purpose: 49,
		Coin:    0,
	}

	KeyScopeBIP0084 = KeyScope{
		Purpose: 84,
		Coin:    0,
	}

	// DefaultKeyScopes are the scopes a new wallet creates descriptors
	// for, oldest first.
	DefaultKeyScopes = []KeyScope{
		KeyScopeBIP0044,
		KeyScopeBIP0049Plus,
		KeyScopeBIP0084,
	}

	ScopeAddrMap = map[uint32]ScopeAddrSchema{
		KeyScopeBIP0044.Purpose: {
			Wrap: func(k string) string { return "pkh(" + k + ")" },
		},
		KeyScopeBIP0049Plus.Purpose: {
			Wrap: func(k string) string { return "sh(wpkh(" + k + "))" },
		},
		KeyScopeBIP0084.Purpose: {
			Wrap: func(k string) string { return "wpkh(" + k + ")" },
		},
	}
)

// AccountPath returns the hardened path from the master key to an account.
func AccountPath(scope KeyScope, account uint32) []uint32 {
	return []uint32{
		scope.Purpose + hdkeychain.HardenedKeyStart,
		scope.Coin + hdkeychain.HardenedKeyStart,
		account + hdkeychain.HardenedKeyStart,
	}
}

// AccountKey derives the extended private key of an account.
func AccountKey(root *hdkeychain.ExtendedKey, scope KeyScope,
	account uint32) (*hdkeychain.ExtendedKey, error) {

	if !root.IsPrivate() {
		return nil, ErrWatchingOnly
	}
	if account > MaxAccountNum {
		return nil, fmt.Errorf("account %d is above the maximum %d",
			account, MaxAccountNum)
	}

	acctKey, err := key.DerivePath(root, AccountPath(scope, account))
	if err != nil {
		return nil, fmt.Errorf("failed to derive account %d of %v: %w",
			account, scope, err)
	}
	return acctKey, nil
}

// AccountDescriptor returns the ranged descriptor of an account, covering
// both the external and internal branch, e.g.
// wpkh([fp/84'/0'/0']xpub.../<0;1>/*). The coin type follows net.
func AccountDescriptor(root *hdkeychain.ExtendedKey, net *chaincfg.Params,
	scope KeyScope, account uint32) (*descriptor.Descriptor, error) {

	schema, ok := ScopeAddrMap[scope.Purpose]
	if !ok {
		return nil, fmt.Errorf("no address schema for purpose %d",
			scope.Purpose)
	}
	scope = scope.ForNet(net)

	fingerprint, err := key.Fingerprint(root)
	if err != nil {
		return nil, err
	}
	acctKey, err := AccountKey(root, scope, account)
	if err != nil {
		return nil, err
	}
	acctPub, err := acctKey.Neuter()
	if err != nil {
		return nil, err
	}
	acctPub, err = acctPub.CloneWithVersion(net.HDPublicKeyID[:])
	if err != nil {
		return nil, err
	}

	keyExpr := fmt.Sprintf("[%08x/%d'/%d'/%d']%s/<%d;%d>/*", fingerprint,
		scope.Purpose, scope.Coin, account, acctPub,
		descriptor.ExternalBranch, descriptor.InternalBranch)

	return descriptor.New(schema.Wrap(keyExpr))
}

// DefaultDescriptors returns the account descriptors of every default
// scope, named after their scope.
func DefaultDescriptors(root *hdkeychain.ExtendedKey, net *chaincfg.Params,
	account uint32) ([]*descriptor.Descriptor, error) {

	descs := make([]*descriptor.Descriptor, 0, len(DefaultKeyScopes))
	for _, scope := range DefaultKeyScopes {
		d, err := AccountDescriptor(root, net, scope, account)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("bip%d-%d", scope.Purpose, account)
		descs = append(descs, d.WithMetadata(name, ""))
	}
	return descs, nil
}
