package descriptor

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

// KeyMaterialType identifies how the key of a key expression is written.
type KeyMaterialType uint8

const (
	// KeyExtended is a BIP-32 extended public or private key.
	KeyExtended KeyMaterialType = iota

	// KeyRawPublic is a hex encoded public key, compressed or not.
	KeyRawPublic

	// KeyRawPrivate is a hex encoded 32 byte private key.
	KeyRawPrivate

	// KeyWIF is a private key in wallet import format.
	KeyWIF
)

func (t KeyMaterialType) String() string {
	switch t {
	case KeyExtended:
		return "extended"
	case KeyRawPublic:
		return "public"
	case KeyRawPrivate:
		return "private"
	case KeyWIF:
		return "wif"
	}
	return fmt.Sprintf("KeyMaterialType(%d)", t)
}

// Wildcard describes the trailing /* of a key expression.
type Wildcard uint8

const (
	WildcardNone Wildcard = iota
	WildcardUnhardened
	WildcardHardened
)

// KeyOrigin is the [fingerprint/path] prefix of a key expression.
type KeyOrigin struct {
	Fingerprint uint32
	Path        []uint32
}

// String returns the origin without the surrounding brackets.
func (o *KeyOrigin) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%08x", o.Fingerprint)
	for _, i := range o.Path {
		b.WriteByte('/')
		b.WriteString(formatIndex(i))
	}
	return b.String()
}

// PathStep is one derivation step after the key. A step with two choices
// is a multipath step <a;b> whose element is picked by the chain.
type PathStep struct {
	Choices []uint32
}

// IsMultipath reports whether the step depends on the chain.
func (s PathStep) IsMultipath() bool {
	return len(s.Choices) > 1
}

func (s PathStep) String() string {
	if !s.IsMultipath() {
		return formatIndex(s.Choices[0])
	}
	parts := make([]string, len(s.Choices))
	for i, c := range s.Choices {
		parts[i] = formatIndex(c)
	}
	return "<" + strings.Join(parts, ";") + ">"
}

// KeyExpression is the leaf of every key-carrying descriptor function.
type KeyExpression struct {
	Origin   *KeyOrigin
	Type     KeyMaterialType
	Steps    []PathStep
	Wildcard Wildcard
	Range    Range

	// text is the key material exactly as written.
	text string

	extended   *hdkeychain.ExtendedKey
	pubKey     *btcec.PublicKey
	privKey    *btcec.PrivateKey
	compressed bool
}

// Compressed reports whether the key serializes to 33 bytes.
func (k *KeyExpression) Compressed() bool {
	return k.compressed
}

// ExtendedKey returns the extended key material, or nil for raw keys.
func (k *KeyExpression) ExtendedKey() *hdkeychain.ExtendedKey {
	return k.extended
}

// IsPrivate reports whether the key material itself carries a private key.
func (k *KeyExpression) IsPrivate() bool {
	switch k.Type {
	case KeyRawPrivate, KeyWIF:
		return true
	case KeyExtended:
		return k.extended.IsPrivate()
	}
	return false
}

// IsRange reports whether the expression ends in a wildcard.
func (k *KeyExpression) IsRange() bool {
	return k.Wildcard != WildcardNone
}

// IsMultipath reports whether any step depends on the chain.
func (k *KeyExpression) IsMultipath() bool {
	for _, s := range k.Steps {
		if s.IsMultipath() {
			return true
		}
	}
	return false
}

// String re-serializes the key expression with ' as the hardened marker.
func (k *KeyExpression) String() string {
	var b strings.Builder
	if k.Origin != nil {
		b.WriteByte('[')
		b.WriteString(k.Origin.String())
		b.WriteByte(']')
	}
	b.WriteString(k.text)
	for _, s := range k.Steps {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	switch k.Wildcard {
	case WildcardUnhardened:
		b.WriteString("/*")
	case WildcardHardened:
		b.WriteString("/*'")
	}
	return b.String()
}

// fingerprintAndPath returns the master fingerprint and the full path from
// the master key down to the key after resolving the tail.
func (k *KeyExpression) fingerprintAndPath(tail []uint32) (uint32, []uint32) {
	if k.Origin != nil {
		path := make([]uint32, 0, len(k.Origin.Path)+len(tail))
		path = append(path, k.Origin.Path...)
		return k.Origin.Fingerprint, append(path, tail...)
	}
	return Fingerprint(k.pubKey), tail
}

// resolveTail turns the steps and wildcard into concrete child indexes.
func (k *KeyExpression) resolveTail(ctx *DerivationContext) ([]uint32, bool) {
	path := make([]uint32, 0, len(k.Steps)+1)
	for _, s := range k.Steps {
		if !s.IsMultipath() {
			path = append(path, s.Choices[0])
			continue
		}
		if ctx.Chain == ChainUnspecified {
			log.Debugf("Key %v needs a chain", k)
			return nil, false
		}
		i := ctx.Chain.Branch()
		if int(i) >= len(s.Choices) {
			return nil, false
		}
		path = append(path, s.Choices[i])
	}

	if k.Wildcard == WildcardNone {
		return path, true
	}
	if ctx.AddressIndex == nil {
		log.Debugf("Key %v needs an address index", k)
		return nil, false
	}
	index := *ctx.AddressIndex
	if index >= hdkeychain.HardenedKeyStart {
		return nil, false
	}
	if k.Wildcard == WildcardHardened {
		index += hdkeychain.HardenedKeyStart
	}
	return append(path, index), true
}

// derive walks the extended key down path, falling back to the private key
// provider when public derivation is impossible.
func (k *KeyExpression) derive(ctx *DerivationContext,
	tail []uint32) (*hdkeychain.ExtendedKey, bool) {

	child := k.extended
	for _, i := range tail {
		next, err := child.Derive(i)
		if errors.Is(err, hdkeychain.ErrDeriveHardFromPublic) {
			return k.derivePrivate(ctx, tail)
		}
		if err != nil {
			log.Debugf("Unable to derive child %d of %v: %v", i, k, err)
			return nil, false
		}
		child = next
	}
	return child, true
}

// derivePrivate asks the provider for the private key at the full path.
func (k *KeyExpression) derivePrivate(ctx *DerivationContext,
	tail []uint32) (*hdkeychain.ExtendedKey, bool) {

	if ctx.PrivateKeys == nil {
		log.Debugf("Key %v needs private key material", k)
		return nil, false
	}

	fingerprint, path := k.fingerprintAndPath(tail)
	priv, err := ctx.PrivateKeys.PrivateKey(fingerprint, path)
	if err != nil {
		log.Debugf("No private key for %08x/%v: %v", fingerprint,
			formatPath(path), err)
		return nil, false
	}
	if priv == nil || !priv.IsPrivate() {
		return nil, false
	}
	return priv, true
}

// PubKey resolves the expression to a concrete public key.
func (k *KeyExpression) PubKey(ctx DerivationContext) (*btcec.PublicKey, bool) {
	return k.resolvePubKey(&ctx)
}

func (k *KeyExpression) resolvePubKey(ctx *DerivationContext) (*btcec.PublicKey, bool) {
	if k.Type != KeyExtended {
		return k.pubKey, true
	}

	tail, ok := k.resolveTail(ctx)
	if !ok {
		return nil, false
	}
	child, ok := k.derive(ctx, tail)
	if !ok {
		return nil, false
	}
	pub, err := child.ECPubKey()
	if err != nil {
		log.Debugf("Unable to resolve public key of %v: %v", k, err)
		return nil, false
	}
	return pub, true
}

// serializedPubKey resolves the public key in the encoding the expression
// was written with.
func (k *KeyExpression) serializedPubKey(ctx *DerivationContext) ([]byte, bool) {
	pub, ok := k.resolvePubKey(ctx)
	if !ok {
		return nil, false
	}
	if k.compressed {
		return pub.SerializeCompressed(), true
	}
	return pub.SerializeUncompressed(), true
}

// hdKey resolves the expression to an extended key of the requested type.
func (k *KeyExpression) hdKey(keyType KeyType,
	ctx *DerivationContext) (*hdkeychain.ExtendedKey, bool) {

	if k.Type != KeyExtended {
		return nil, false
	}

	tail, ok := k.resolveTail(ctx)
	if !ok {
		return nil, false
	}

	var child *hdkeychain.ExtendedKey
	switch {
	case keyType == KeyTypePublic:
		child, ok = k.derive(ctx, tail)
	case k.extended.IsPrivate():
		child, ok = k.derive(ctx, tail)
	default:
		child, ok = k.derivePrivate(ctx, tail)
	}
	if !ok {
		return nil, false
	}

	if keyType == KeyTypePublic && child.IsPrivate() {
		pub, err := child.Neuter()
		if err != nil {
			return nil, false
		}
		return pub, true
	}
	return child, true
}

// Fingerprint returns the BIP-32 fingerprint of a public key.
func Fingerprint(pub *btcec.PublicKey) uint32 {
	if pub == nil {
		return 0
	}
	return binary.BigEndian.Uint32(btcutil.Hash160(pub.SerializeCompressed())[:4])
}

func formatIndex(i uint32) string {
	if i >= hdkeychain.HardenedKeyStart {
		return strconv.FormatUint(uint64(i-hdkeychain.HardenedKeyStart), 10) + "'"
	}
	return strconv.FormatUint(uint64(i), 10)
}

func formatPath(path []uint32) string {
	parts := make([]string, 0, len(path)+1)
	parts = append(parts, "m")
	for _, i := range path {
		parts = append(parts, formatIndex(i))
	}
	return strings.Join(parts, "/")
}
