package descriptor

import (
	"runtime"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
)

// Descriptor is a parsed output descriptor. It is immutable and safe for
// concurrent evaluation.
type Descriptor struct {
	source string
	root   Node
	name   string
	note   string
}

// New validates the optional checksum of text, then lexes and parses the
// rest. The returned error is always an Error.
func New(text string) (*Descriptor, error) {
	source, err := ValidateChecksum(text)
	if err != nil {
		return nil, err
	}

	tokens, err := Lex(source)
	if err != nil {
		return nil, err
	}

	root, err := Parse(tokens)
	if err != nil {
		return nil, err
	}

	return &Descriptor{source: source, root: root}, nil
}

// Must is like New but panics on error. It is meant for descriptors that
// are known to be valid.
func Must(text string) *Descriptor {
	d, err := New(text)
	if err != nil {
		panic(err)
	}
	return d
}

// WithMetadata returns a copy of d carrying a name and note.
func (d *Descriptor) WithMetadata(name, note string) *Descriptor {
	c := *d
	c.name = name
	c.note = note
	return &c
}

// Name returns the user supplied name, if any.
func (d *Descriptor) Name() string {
	return d.name
}

// Note returns the user supplied note, if any.
func (d *Descriptor) Note() string {
	return d.note
}

// Source returns the descriptor text without its checksum.
func (d *Descriptor) Source() string {
	return d.source
}

// Root returns the parsed tree.
func (d *Descriptor) Root() Node {
	return d.root
}

// String returns the canonical form of the descriptor.
func (d *Descriptor) String() string {
	return d.root.String()
}

// Checksum returns the checksum of the source text.
func (d *Descriptor) Checksum() string {
	// The lexer only accepts characters of the checksum alphabet.
	sum, _ := Checksum(d.source)
	return sum
}

// SourceWithChecksum returns the source text followed by its checksum.
func (d *Descriptor) SourceWithChecksum() string {
	return d.source + "#" + d.Checksum()
}

// Equal compares descriptors by source text. Metadata is ignored.
func (d *Descriptor) Equal(o *Descriptor) bool {
	if d == nil || o == nil {
		return d == o
	}
	return d.source == o.source
}

// IsCombo reports whether the descriptor is combo(KEY).
func (d *Descriptor) IsCombo() bool {
	return d.root.Function() == FuncCombo
}

// RequiresAddressIndex reports whether evaluation needs an address index.
func (d *Descriptor) RequiresAddressIndex() bool {
	return requiresAddressIndex(d.root)
}

// RequiresChain reports whether evaluation needs a chain.
func (d *Descriptor) RequiresChain() bool {
	return requiresChain(d.root)
}

// Keys returns the key expressions of the descriptor in declaration order.
func (d *Descriptor) Keys() []*KeyExpression {
	return Keys(d.root)
}

// ScriptPubKey evaluates the descriptor into an output script.
func (d *Descriptor) ScriptPubKey(ctx DerivationContext) ([]byte, bool) {
	return ScriptPubKey(d.root, ctx)
}

// HDKey resolves the descriptor's only key expression to an extended key.
// Descriptors with several keys or a non-extended key have none.
func (d *Descriptor) HDKey(keyType KeyType, ctx DerivationContext) (*hdkeychain.ExtendedKey, bool) {
	return HDKey(d.root, keyType, ctx)
}

// BaseKey returns the extended public key as written in the descriptor,
// before any derivation step.
func (d *Descriptor) BaseKey() (*hdkeychain.ExtendedKey, bool) {
	key, ok := governingKey(d.root)
	if !ok || key.Type != KeyExtended {
		return nil, false
	}
	if !key.extended.IsPrivate() {
		return key.extended, true
	}
	pub, err := key.extended.Neuter()
	if err != nil {
		return nil, false
	}
	return pub, true
}

// Address evaluates the descriptor and encodes the script for ctx.Net.
func (d *Descriptor) Address(ctx DerivationContext) (btcutil.Address, bool) {
	script, ok := d.ScriptPubKey(ctx)
	if !ok {
		return nil, false
	}
	return address(script, ctx.net())
}

// Addresses derives the address of every index on chain. combo selects the
// script of a combo descriptor and is ignored otherwise. Indexes that have
// no address are left out of the result.
func (d *Descriptor) Addresses(net *chaincfg.Params, chain Chain,
	combo ComboOutput, indexes []uint32,
	privateKeys PrivateKeyProvider) map[uint32]btcutil.Address {

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		addresses = make(map[uint32]btcutil.Address, len(indexes))
		work      = make(chan uint32)
	)

	workers := runtime.NumCPU()
	if workers > len(indexes) {
		workers = len(indexes)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range work {
				addr, ok := d.Address(DerivationContext{
					Net:          net,
					Chain:        chain,
					AddressIndex: Index(index),
					PrivateKeys:  privateKeys,
					Combo:        combo,
				})
				if !ok {
					log.Debugf("No address at index %d of %v", index, d)
					continue
				}

				mu.Lock()
				addresses[index] = addr
				mu.Unlock()
			}
		}()
	}

	for _, index := range indexes {
		work <- index
	}
	close(work)
	wg.Wait()

	return addresses
}
