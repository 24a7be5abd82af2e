package descriptor

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"sort"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

// Chain selects one element of a multipath step.
type Chain uint8

const (
	ChainUnspecified Chain = iota
	ChainExternal
	ChainInternal
)

const (
	// ExternalBranch is the multipath element used for receiving
	// addresses.
	ExternalBranch = 0

	// InternalBranch is the multipath element used for change addresses.
	InternalBranch = 1
)

// Branch returns the multipath element index the chain selects.
func (c Chain) Branch() uint32 {
	if c == ChainInternal {
		return InternalBranch
	}
	return ExternalBranch
}

func (c Chain) String() string {
	switch c {
	case ChainExternal:
		return "external"
	case ChainInternal:
		return "internal"
	}
	return "unspecified"
}

// ComboOutput selects one of the scripts combo() can produce.
type ComboOutput uint8

const (
	ComboUnspecified ComboOutput = iota
	ComboPK
	ComboPKH
	ComboWPKH
	ComboSHWPKH
)

// ComboOutputs lists every selector in the order combo defines them.
var ComboOutputs = []ComboOutput{ComboPK, ComboPKH, ComboWPKH, ComboSHWPKH}

func (c ComboOutput) String() string {
	switch c {
	case ComboPK:
		return "pk"
	case ComboPKH:
		return "pkh"
	case ComboWPKH:
		return "wpkh"
	case ComboSHWPKH:
		return "sh_wpkh"
	}
	return "unspecified"
}

// ParseComboOutput returns the selector named s. The empty string is
// ComboUnspecified.
func ParseComboOutput(s string) (ComboOutput, error) {
	if s == "" {
		return ComboUnspecified, nil
	}
	for _, c := range ComboOutputs {
		if c.String() == s {
			return c, nil
		}
	}
	return ComboUnspecified, fmt.Errorf("unknown combo output %q", s)
}

// KeyType is the visibility of a requested HD key.
type KeyType uint8

const (
	KeyTypePublic KeyType = iota
	KeyTypePrivate
)

// PrivateKeyProvider resolves private key material. It is asked for the
// extended private key at path below the master key with the given
// fingerprint. Implementations must be safe for concurrent use.
type PrivateKeyProvider interface {
	PrivateKey(fingerprint uint32, path []uint32) (*hdkeychain.ExtendedKey, error)
}

// DerivationContext carries everything evaluation may need. Every field is
// optional. A missing field that evaluation needs yields no result.
type DerivationContext struct {
	// Net is the network used to encode addresses. Mainnet when nil.
	Net *chaincfg.Params

	// Chain picks the element of multipath steps.
	Chain Chain

	// AddressIndex replaces wildcards.
	AddressIndex *uint32

	// PrivateKeys resolves hardened derivation below public keys and
	// private HD keys.
	PrivateKeys PrivateKeyProvider

	// Combo selects the script a combo descriptor evaluates to.
	Combo ComboOutput
}

// Index returns a pointer to i, for DerivationContext.AddressIndex.
func Index(i uint32) *uint32 {
	return &i
}

func (ctx *DerivationContext) net() *chaincfg.Params {
	if ctx.Net == nil {
		return &chaincfg.MainNetParams
	}
	return ctx.Net
}

// ScriptPubKey evaluates n into an output script.
func ScriptPubKey(n Node, ctx DerivationContext) ([]byte, bool) {
	script, err := scriptPubKey(n, &ctx)
	if err != nil {
		log.Debugf("Unable to build script for %v: %v", n.Function(), err)
		return nil, false
	}
	return script, script != nil
}

// scriptPubKey returns a nil script without error when the context lacks
// what evaluation needs.
func scriptPubKey(n Node, ctx *DerivationContext) ([]byte, error) {
	switch n := n.(type) {
	case *PKNode:
		pub, ok := n.Key.serializedPubKey(ctx)
		if !ok {
			return nil, nil
		}
		return payToPubKey(pub)

	case *PKHNode:
		pub, ok := n.Key.serializedPubKey(ctx)
		if !ok {
			return nil, nil
		}
		return payToPubKeyHash(pub, ctx.net())

	case *WPKHNode:
		pub, ok := n.Key.serializedPubKey(ctx)
		if !ok {
			return nil, nil
		}
		return payToWitnessPubKeyHash(pub, ctx.net())

	case *ComboNode:
		return comboScript(n, ctx)

	case *SHNode:
		redeem, err := scriptPubKey(n.Child, ctx)
		if err != nil || redeem == nil {
			return nil, err
		}
		if len(redeem) > MaxScriptElementSize {
			return nil, fmt.Errorf("redeem script of %d bytes is too "+
				"large", len(redeem))
		}
		return payToScriptHash(redeem, ctx.net())

	case *WSHNode:
		witness, err := scriptPubKey(n.Child, ctx)
		if err != nil || witness == nil {
			return nil, err
		}
		return payToWitnessScriptHash(witness, ctx.net())

	case *MultiNode:
		return multisigScript(n, ctx)

	case *AddrNode:
		return txscript.PayToAddrScript(n.Address)

	case *RawNode:
		return append([]byte(nil), n.Script...), nil
	}

	return nil, fmt.Errorf("unknown descriptor node %T", n)
}

func comboScript(n *ComboNode, ctx *DerivationContext) ([]byte, error) {
	if ctx.Combo == ComboUnspecified {
		log.Debugf("combo(%v) needs an output selector", n.Key)
		return nil, nil
	}
	if !n.Key.compressed &&
		(ctx.Combo == ComboWPKH || ctx.Combo == ComboSHWPKH) {

		return nil, nil
	}

	pub, ok := n.Key.serializedPubKey(ctx)
	if !ok {
		return nil, nil
	}

	switch ctx.Combo {
	case ComboPK:
		return payToPubKey(pub)
	case ComboPKH:
		return payToPubKeyHash(pub, ctx.net())
	case ComboWPKH:
		return payToWitnessPubKeyHash(pub, ctx.net())
	case ComboSHWPKH:
		witnessProgram, err := payToWitnessPubKeyHash(pub, ctx.net())
		if err != nil {
			return nil, err
		}
		return payToScriptHash(witnessProgram, ctx.net())
	}
	return nil, fmt.Errorf("unknown combo output %d", ctx.Combo)
}

func multisigScript(n *MultiNode, ctx *DerivationContext) ([]byte, error) {
	pubs := make([][]byte, 0, len(n.Keys))
	for _, k := range n.Keys {
		pub, ok := k.serializedPubKey(ctx)
		if !ok {
			return nil, nil
		}
		pubs = append(pubs, pub)
	}
	if n.Sorted {
		sort.Slice(pubs, func(i, j int) bool {
			return bytes.Compare(pubs[i], pubs[j]) < 0
		})
	}

	builder := txscript.NewScriptBuilder()
	builder.AddInt64(int64(n.Threshold))
	for _, pub := range pubs {
		builder.AddData(pub)
	}
	builder.AddInt64(int64(len(pubs)))
	builder.AddOp(txscript.OP_CHECKMULTISIG)
	return builder.Script()
}

func payToPubKey(pub []byte) ([]byte, error) {
	return txscript.NewScriptBuilder().
		AddData(pub).
		AddOp(txscript.OP_CHECKSIG).
		Script()
}

func payToPubKeyHash(pub []byte, net *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressPubKeyHash(btcutil.Hash160(pub), net)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

func payToWitnessPubKeyHash(pub []byte, net *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressWitnessPubKeyHash(btcutil.Hash160(pub), net)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

func payToScriptHash(redeem []byte, net *chaincfg.Params) ([]byte, error) {
	addr, err := btcutil.NewAddressScriptHash(redeem, net)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

func payToWitnessScriptHash(witness []byte, net *chaincfg.Params) ([]byte, error) {
	hash := sha256.Sum256(witness)
	addr, err := btcutil.NewAddressWitnessScriptHash(hash[:], net)
	if err != nil {
		return nil, err
	}
	return txscript.PayToAddrScript(addr)
}

// governingKey returns the only key expression reachable from n.
func governingKey(n Node) (*KeyExpression, bool) {
	keys := Keys(n)
	if len(keys) != 1 {
		return nil, false
	}
	return keys[0], true
}

// HDKey resolves the single key expression of n to an extended key.
func HDKey(n Node, keyType KeyType, ctx DerivationContext) (*hdkeychain.ExtendedKey, bool) {
	key, ok := governingKey(n)
	if !ok {
		return nil, false
	}
	return key.hdKey(keyType, &ctx)
}

// address encodes script for net. Only scripts with exactly one standard
// address form have one.
func address(script []byte, net *chaincfg.Params) (btcutil.Address, bool) {
	class, addrs, _, err := txscript.ExtractPkScriptAddrs(script, net)
	if err != nil || len(addrs) != 1 {
		return nil, false
	}
	switch class {
	case txscript.PubKeyHashTy, txscript.ScriptHashTy,
		txscript.WitnessV0PubKeyHashTy, txscript.WitnessV0ScriptHashTy,
		txscript.WitnessV1TaprootTy:

		return addrs[0], true
	}
	return nil, false
}
