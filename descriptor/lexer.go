package descriptor

import (
	"fmt"
)

// TokenKind represents the kind of a token.
type TokenKind int

const (
	TokenEOF TokenKind = iota

	// TokenWord is a run of letters and digits that is not a plain number:
	// function names, key material, hex data and addresses.
	TokenWord

	// TokenNumber is a run of decimal digits.
	TokenNumber

	// TokenHardened is the hardened derivation marker, ' or h.
	TokenHardened

	TokenOpenParen    // (
	TokenCloseParen   // )
	TokenComma        // ,
	TokenColon        // :
	TokenSlash        // /
	TokenStar         // *
	TokenOpenBracket  // [
	TokenCloseBracket // ]
	TokenOpenAngle    // <
	TokenCloseAngle   // >
	TokenSemicolon    // ;
	TokenHash         // #
)

var tokenKindStrings = map[TokenKind]string{
	TokenEOF:          "end of input",
	TokenWord:         "word",
	TokenNumber:       "number",
	TokenHardened:     "hardened marker",
	TokenOpenParen:    "'('",
	TokenCloseParen:   "')'",
	TokenComma:        "','",
	TokenColon:        "':'",
	TokenSlash:        "'/'",
	TokenStar:         "'*'",
	TokenOpenBracket:  "'['",
	TokenCloseBracket: "']'",
	TokenOpenAngle:    "'<'",
	TokenCloseAngle:   "'>'",
	TokenSemicolon:    "';'",
	TokenHash:         "checksum marker",
}

func (k TokenKind) String() string {
	if s, ok := tokenKindStrings[k]; ok {
		return s
	}
	return fmt.Sprintf("TokenKind(%d)", int(k))
}

// Token is a lexical token together with the exact source it was read from.
type Token struct {
	Kind  TokenKind
	Text  string
	Range Range
}

var punctuation = map[byte]TokenKind{
	'(':  TokenOpenParen,
	')':  TokenCloseParen,
	',':  TokenComma,
	':':  TokenColon,
	'/':  TokenSlash,
	'*':  TokenStar,
	'[':  TokenOpenBracket,
	']':  TokenCloseBracket,
	'<':  TokenOpenAngle,
	'>':  TokenCloseAngle,
	';':  TokenSemicolon,
	'#':  TokenHash,
	'\'': TokenHardened,
}

// Lexer scans descriptor text into tokens in a single pass.
type Lexer struct {
	src    string
	start  int
	cur    int
	tokens []Token
}

// NewLexer returns a lexer over src.
func NewLexer(src string) *Lexer {
	return &Lexer{src: src}
}

// Lex tokenizes text. The returned slice always ends with a TokenEOF.
func Lex(text string) ([]Token, error) {
	return NewLexer(text).Scan()
}

// Scan consumes the whole input.
func (l *Lexer) Scan() ([]Token, error) {
	for !l.atEnd() {
		l.start = l.cur
		if err := l.scanToken(); err != nil {
			return nil, err
		}
	}
	l.start = l.cur
	l.addToken(TokenEOF)
	return l.tokens, nil
}

func (l *Lexer) atEnd() bool {
	return l.cur >= len(l.src)
}

func (l *Lexer) peek() byte {
	if l.atEnd() {
		return 0
	}
	return l.src[l.cur]
}

func (l *Lexer) advance() byte {
	c := l.src[l.cur]
	l.cur++
	return c
}

func (l *Lexer) addToken(kind TokenKind) {
	l.tokens = append(l.tokens, Token{
		Kind:  kind,
		Text:  l.src[l.start:l.cur],
		Range: Range{l.start, l.cur},
	})
}

func (l *Lexer) scanToken() error {
	c := l.advance()
	if kind, ok := punctuation[c]; ok {
		l.addToken(kind)
		return nil
	}
	if isAlnum(c) {
		l.scanWord()
		return nil
	}

	str := fmt.Sprintf("unexpected character %q", c)
	return descError(ErrInvalidCharacter, str, Range{l.start, l.cur}, nil)
}

// scanWord reads a run of letters and digits. A run made only of digits is
// a number, and digits followed by a single 'h' are a number followed by a
// hardened marker.
func (l *Lexer) scanWord() {
	for isAlnum(l.peek()) {
		l.advance()
	}

	word := l.src[l.start:l.cur]
	digits := 0
	for digits < len(word) && isDigit(word[digits]) {
		digits++
	}

	switch {
	case digits == len(word):
		l.addToken(TokenNumber)

	case digits > 0 && digits == len(word)-1 && word[digits] == 'h':
		end := l.cur
		l.cur = l.start + digits
		l.addToken(TokenNumber)
		l.start, l.cur = l.cur, end
		l.addToken(TokenHardened)

	default:
		l.addToken(TokenWord)
	}
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isAlnum(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
