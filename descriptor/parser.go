package descriptor

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"
)

const (
	// MaxMultisigKeys is the largest number of keys in multi and
	// sortedmulti.
	MaxMultisigKeys = txscript.MaxPubKeysPerMultiSig

	// MaxBareMultisigKeys is the largest number of keys in a multi that
	// is not wrapped by sh or wsh.
	MaxBareMultisigKeys = 3

	// MaxScriptElementSize is the largest redeem script sh can wrap.
	MaxScriptElementSize = txscript.MaxScriptElementSize

	// pubKeyBytesLenUncompressed is the length of a serialized
	// uncompressed public key.
	pubKeyBytesLenUncompressed = 65
)

// scriptContext is the position of a function inside the descriptor.
type scriptContext uint8

const (
	contextTop scriptContext = iota
	contextP2SH
	contextP2WSH
)

func (c scriptContext) String() string {
	switch c {
	case contextP2SH:
		return "sh"
	case contextP2WSH:
		return "wsh"
	}
	return "top level"
}

// addressNets are the networks addr() arguments are checked against.
var addressNets = []*chaincfg.Params{
	&chaincfg.MainNetParams,
	&chaincfg.TestNet3Params,
	&chaincfg.RegressionNetParams,
	&chaincfg.SigNetParams,
	&chaincfg.SimNetParams,
}

// Parser builds a descriptor tree from a token stream.
type Parser struct {
	tokens []Token
	pos    int
}

// Parse parses tokens produced by Lex into the root node.
func Parse(tokens []Token) (Node, error) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Kind != TokenEOF {
		tokens = append(tokens, Token{Kind: TokenEOF})
	}
	p := &Parser{tokens: tokens}

	root, err := p.parseScript(contextTop)
	if err != nil {
		return nil, err
	}

	tok := p.peek()
	switch tok.Kind {
	case TokenEOF:
		return root, nil
	case TokenHash:
		return nil, p.errorAt(tok, ErrUnexpectedToken,
			"unexpected checksum marker")
	default:
		return nil, p.errorAt(tok, ErrUnexpectedToken,
			fmt.Sprintf("unexpected %v after descriptor", tok.Kind))
	}
}

func (p *Parser) peek() Token {
	return p.tokens[p.pos]
}

func (p *Parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Kind != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *Parser) accept(kind TokenKind) (Token, bool) {
	if p.peek().Kind == kind {
		return p.next(), true
	}
	return Token{}, false
}

func (p *Parser) errorAt(tok Token, code ErrorCode, desc string) error {
	if tok.Kind == TokenEOF && code == ErrUnexpectedToken {
		code = ErrUnexpectedEnd
		desc = "unexpected end of descriptor"
	}
	return descError(code, desc, tok.Range, nil)
}

func (p *Parser) expect(kind TokenKind, what string) (Token, error) {
	tok := p.next()
	if tok.Kind != kind {
		return tok, p.errorAt(tok, ErrUnexpectedToken,
			fmt.Sprintf("expected %s, got %v", what, tok.Kind))
	}
	return tok, nil
}

// parseScript parses NAME(ARGS) in the given context.
func (p *Parser) parseScript(ctx scriptContext) (Node, error) {
	nameTok := p.next()
	if nameTok.Kind != TokenWord {
		return nil, p.errorAt(nameTok, ErrUnexpectedToken,
			fmt.Sprintf("expected function name, got %v", nameTok.Kind))
	}
	fn, ok := functionsByName[nameTok.Text]
	if !ok {
		return nil, p.errorAt(nameTok, ErrUnknownFunction,
			fmt.Sprintf("unknown function %q", nameTok.Text))
	}
	if err := checkContext(fn, ctx, nameTok); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenOpenParen, "'('"); err != nil {
		return nil, err
	}
	if tok := p.peek(); tok.Kind == TokenCloseParen {
		return nil, p.errorAt(tok, ErrArity,
			fmt.Sprintf("%v requires an argument", fn))
	}

	var node Node
	switch fn {
	case FuncPK, FuncPKH, FuncWPKH, FuncCombo:
		compressed := fn == FuncWPKH || ctx == contextP2WSH
		key, err := p.parseKey(compressed)
		if err != nil {
			return nil, err
		}
		switch fn {
		case FuncPK:
			node = &PKNode{Key: key}
		case FuncPKH:
			node = &PKHNode{Key: key}
		case FuncWPKH:
			node = &WPKHNode{Key: key}
		default:
			node = &ComboNode{Key: key}
		}

	case FuncSH:
		child, err := p.parseScript(contextP2SH)
		if err != nil {
			return nil, err
		}
		node = &SHNode{Child: child}

	case FuncWSH:
		child, err := p.parseScript(contextP2WSH)
		if err != nil {
			return nil, err
		}
		node = &WSHNode{Child: child}

	case FuncMulti, FuncSortedMulti:
		multi, err := p.parseMulti(ctx, fn == FuncSortedMulti)
		if err != nil {
			return nil, err
		}
		node = multi

	case FuncAddr:
		addr, err := p.parseAddr()
		if err != nil {
			return nil, err
		}
		node = addr

	case FuncRaw:
		raw, err := p.parseRaw()
		if err != nil {
			return nil, err
		}
		node = raw
	}

	closeTok := p.next()
	switch closeTok.Kind {
	case TokenCloseParen:
	case TokenComma:
		return nil, p.errorAt(closeTok, ErrArity,
			fmt.Sprintf("too many arguments to %v", fn))
	default:
		return nil, p.errorAt(closeTok, ErrUnexpectedToken,
			fmt.Sprintf("expected ')', got %v", closeTok.Kind))
	}

	setRange(node, Range{nameTok.Range.Start, closeTok.Range.End})
	return node, nil
}

func setRange(n Node, rng Range) {
	switch n := n.(type) {
	case *PKNode:
		n.rng = rng
	case *PKHNode:
		n.rng = rng
	case *WPKHNode:
		n.rng = rng
	case *ComboNode:
		n.rng = rng
	case *SHNode:
		n.rng = rng
	case *WSHNode:
		n.rng = rng
	case *MultiNode:
		n.rng = rng
	case *AddrNode:
		n.rng = rng
	case *RawNode:
		n.rng = rng
	}
}

// checkContext enforces where each function may appear.
func checkContext(fn Function, ctx scriptContext, tok Token) error {
	var allowed bool
	switch fn {
	case FuncPK, FuncPKH, FuncMulti, FuncSortedMulti:
		allowed = true
	case FuncWPKH:
		allowed = ctx != contextP2WSH
	case FuncWSH:
		allowed = ctx != contextP2WSH
	case FuncSH, FuncCombo, FuncAddr, FuncRaw:
		allowed = ctx == contextTop
	}
	if allowed {
		return nil
	}

	str := fmt.Sprintf("%v is not allowed inside %v", fn, ctx)
	if ctx == contextTop {
		str = fmt.Sprintf("%v is not allowed at %v", fn, ctx)
	}
	return descError(ErrNesting, str, tok.Range, nil)
}

func (p *Parser) parseMulti(ctx scriptContext, sorted bool) (*MultiNode, error) {
	fn := FuncMulti
	if sorted {
		fn = FuncSortedMulti
	}

	kTok, err := p.expect(TokenNumber, "threshold")
	if err != nil {
		return nil, err
	}
	threshold, err := strconv.ParseUint(kTok.Text, 10, 32)
	if err != nil {
		return nil, p.errorAt(kTok, ErrThreshold,
			fmt.Sprintf("invalid threshold %q", kTok.Text))
	}

	var keys []*KeyExpression
	for {
		if _, ok := p.accept(TokenComma); !ok {
			break
		}
		key, err := p.parseKey(ctx == contextP2WSH)
		if err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, p.errorAt(p.peek(), ErrArity,
			fmt.Sprintf("%v requires at least one key", fn))
	}

	n := len(keys)
	lastKey := keys[n-1].Range
	switch {
	case n > MaxMultisigKeys:
		return nil, descError(ErrTooManyKeys, fmt.Sprintf(
			"%v takes at most %d keys, got %d", fn, MaxMultisigKeys, n),
			lastKey, nil)

	case ctx == contextTop && n > MaxBareMultisigKeys:
		return nil, descError(ErrTooManyKeys, fmt.Sprintf(
			"bare %v takes at most %d keys, got %d", fn,
			MaxBareMultisigKeys, n), lastKey, nil)
	}
	if threshold < 1 || threshold > uint64(n) {
		return nil, p.errorAt(kTok, ErrThreshold, fmt.Sprintf(
			"threshold %d is outside [1, %d]", threshold, n))
	}

	if ctx == contextP2SH {
		if size := multisigScriptSize(int(threshold), keys); size > MaxScriptElementSize {
			return nil, descError(ErrTooManyKeys, fmt.Sprintf(
				"sh redeem script of %d bytes exceeds %d bytes", size,
				MaxScriptElementSize), lastKey, nil)
		}
	}

	return &MultiNode{
		Threshold: int(threshold),
		Keys:      keys,
		Sorted:    sorted,
	}, nil
}

// multisigScriptSize is the size of the multisig script built from keys.
// Thresholds and key counts never exceed 20, so each takes one push byte
// plus at most one data byte.
func multisigScriptSize(threshold int, keys []*KeyExpression) int {
	smallInt := func(n int) int {
		if n <= 16 {
			return 1
		}
		return 2
	}
	size := smallInt(threshold) + smallInt(len(keys)) + 1
	for _, k := range keys {
		if k.compressed {
			size += 1 + 33
		} else {
			size += 1 + 65
		}
	}
	return size
}

func (p *Parser) parseAddr() (*AddrNode, error) {
	tok, err := p.expect(TokenWord, "address")
	if err != nil {
		return nil, err
	}
	for _, net := range addressNets {
		addr, err := btcutil.DecodeAddress(tok.Text, net)
		if err == nil && addr.IsForNet(net) {
			return &AddrNode{Address: addr, text: tok.Text}, nil
		}
	}
	return nil, p.errorAt(tok, ErrAddress,
		fmt.Sprintf("invalid address %q", tok.Text))
}

func (p *Parser) parseRaw() (*RawNode, error) {
	tok := p.next()
	if tok.Kind != TokenWord && tok.Kind != TokenNumber {
		return nil, p.errorAt(tok, ErrUnexpectedToken,
			fmt.Sprintf("expected hex script, got %v", tok.Kind))
	}
	script, err := hex.DecodeString(tok.Text)
	if err != nil {
		return nil, descError(ErrHex, "invalid hex script", tok.Range, err)
	}
	return &RawNode{Script: script}, nil
}

// parseKey parses [origin]KEY/steps/*. When compressed is set the key must
// serialize to 33 bytes.
func (p *Parser) parseKey(compressed bool) (*KeyExpression, error) {
	start := p.peek().Range.Start
	key := &KeyExpression{}

	if _, ok := p.accept(TokenOpenBracket); ok {
		origin, err := p.parseOrigin()
		if err != nil {
			return nil, err
		}
		key.Origin = origin
	}

	keyTok := p.next()
	if keyTok.Kind != TokenWord && keyTok.Kind != TokenNumber {
		return nil, p.errorAt(keyTok, ErrUnexpectedToken,
			fmt.Sprintf("expected key, got %v", keyTok.Kind))
	}
	if err := decodeKeyMaterial(key, keyTok); err != nil {
		return nil, err
	}
	if compressed && !key.compressed {
		return nil, descError(ErrKey,
			"uncompressed keys are not allowed in segwit scripts",
			keyTok.Range, nil)
	}

	for {
		slash, ok := p.accept(TokenSlash)
		if !ok {
			break
		}
		if key.Wildcard != WildcardNone {
			return nil, descError(ErrWildcard,
				"wildcard must be the final derivation step",
				slash.Range, nil)
		}
		if key.Type != KeyExtended {
			return nil, descError(ErrDerivationPath,
				"derivation steps are only allowed after extended keys",
				slash.Range, nil)
		}

		switch tok := p.peek(); tok.Kind {
		case TokenStar:
			p.next()
			key.Wildcard = WildcardUnhardened
			if p.acceptHardened() {
				key.Wildcard = WildcardHardened
			}

		case TokenOpenAngle:
			if key.IsMultipath() {
				return nil, p.errorAt(tok, ErrDerivationPath,
					"only one multipath step is allowed")
			}
			step, err := p.parseMultipath()
			if err != nil {
				return nil, err
			}
			key.Steps = append(key.Steps, step)

		default:
			index, err := p.parseIndex()
			if err != nil {
				return nil, err
			}
			key.Steps = append(key.Steps, PathStep{Choices: []uint32{index}})
		}
	}

	key.Range = Range{start, p.tokens[p.pos-1].Range.End}
	return key, nil
}

// acceptHardened consumes ' or h.
func (p *Parser) acceptHardened() bool {
	tok := p.peek()
	if tok.Kind == TokenHardened || (tok.Kind == TokenWord && tok.Text == "h") {
		p.next()
		return true
	}
	return false
}

// parseIndex parses a single child number with an optional hardened marker.
func (p *Parser) parseIndex() (uint32, error) {
	tok := p.next()
	switch tok.Kind {
	case TokenNumber:
	case TokenStar:
		return 0, descError(ErrWildcard,
			"wildcard is not allowed here", tok.Range, nil)
	default:
		return 0, p.errorAt(tok, ErrDerivationPath,
			fmt.Sprintf("expected derivation index, got %v", tok.Kind))
	}

	index, err := strconv.ParseUint(tok.Text, 10, 32)
	if err != nil || index >= hdkeychain.HardenedKeyStart {
		return 0, p.errorAt(tok, ErrDerivationPath,
			fmt.Sprintf("derivation index %s is out of range", tok.Text))
	}
	if p.acceptHardened() {
		index += hdkeychain.HardenedKeyStart
	}
	return uint32(index), nil
}

// parseMultipath parses <a;b>.
func (p *Parser) parseMultipath() (PathStep, error) {
	open := p.next()

	var step PathStep
	for {
		index, err := p.parseIndex()
		if err != nil {
			return step, err
		}
		step.Choices = append(step.Choices, index)

		if _, ok := p.accept(TokenSemicolon); ok {
			continue
		}
		closeTok, err := p.expect(TokenCloseAngle, "'>' or ';'")
		if err != nil {
			return step, err
		}
		if len(step.Choices) != 2 {
			return step, descError(ErrDerivationPath,
				"multipath step must have exactly two elements",
				Range{open.Range.Start, closeTok.Range.End}, nil)
		}
		return step, nil
	}
}

// parseOrigin parses fingerprint/path] after the opening bracket.
func (p *Parser) parseOrigin() (*KeyOrigin, error) {
	fpTok := p.next()
	if fpTok.Kind != TokenWord && fpTok.Kind != TokenNumber {
		return nil, p.errorAt(fpTok, ErrDerivationPath,
			fmt.Sprintf("expected key origin fingerprint, got %v", fpTok.Kind))
	}
	fp, err := hex.DecodeString(fpTok.Text)
	if err != nil || len(fp) != 4 {
		return nil, p.errorAt(fpTok, ErrDerivationPath,
			"fingerprint must be 8 hex characters")
	}

	origin := &KeyOrigin{
		Fingerprint: uint32(fp[0])<<24 | uint32(fp[1])<<16 |
			uint32(fp[2])<<8 | uint32(fp[3]),
	}
	for {
		if _, ok := p.accept(TokenSlash); !ok {
			break
		}
		if tok := p.peek(); tok.Kind == TokenOpenAngle {
			return nil, p.errorAt(tok, ErrDerivationPath,
				"multipath steps are not allowed in key origins")
		}
		index, err := p.parseIndex()
		if err != nil {
			return nil, err
		}
		origin.Path = append(origin.Path, index)
	}

	if _, err := p.expect(TokenCloseBracket, "']'"); err != nil {
		return nil, err
	}
	return origin, nil
}

// decodeKeyMaterial fills in the key fields from the literal token.
func decodeKeyMaterial(key *KeyExpression, tok Token) error {
	text := tok.Text
	key.text = text

	if raw, err := hex.DecodeString(text); err == nil {
		switch len(raw) {
		case btcec.PubKeyBytesLenCompressed, pubKeyBytesLenUncompressed:
			pub, err := btcec.ParsePubKey(raw)
			if err != nil {
				return descError(ErrKey, "invalid public key", tok.Range, err)
			}
			key.Type = KeyRawPublic
			key.pubKey = pub
			key.compressed = len(raw) == btcec.PubKeyBytesLenCompressed
			return nil

		case btcec.PrivKeyBytesLen:
			priv, pub := btcec.PrivKeyFromBytes(raw)
			key.Type = KeyRawPrivate
			key.privKey = priv
			key.pubKey = pub
			key.compressed = true
			return nil
		}
	}

	if ext, err := hdkeychain.NewKeyFromString(text); err == nil {
		// Populate the cached public key so later derivations only read
		// the shared key.
		pub, err := ext.ECPubKey()
		if err != nil {
			return descError(ErrKey, "invalid extended key", tok.Range, err)
		}
		key.Type = KeyExtended
		key.extended = ext
		key.pubKey = pub
		key.compressed = true
		return nil
	}

	if wif, err := btcutil.DecodeWIF(text); err == nil {
		key.Type = KeyWIF
		key.privKey = wif.PrivKey
		key.pubKey = wif.PrivKey.PubKey()
		key.compressed = wif.CompressPubKey
		return nil
	}

	return descError(ErrKey, fmt.Sprintf("invalid key %q", text), tok.Range, nil)
}
