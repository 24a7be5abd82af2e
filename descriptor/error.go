package descriptor

import (
	"fmt"
	"strings"
)

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrChecksumLength indicates a checksum suffix that is not exactly
	// ChecksumLength characters long.
	ErrChecksumLength ErrorCode = iota

	// ErrChecksumMismatch indicates the checksum suffix does not match the
	// checksum computed over the descriptor body.
	ErrChecksumMismatch

	// ErrInvalidCharacter indicates a character outside the descriptor
	// alphabet.
	ErrInvalidCharacter

	// ErrUnexpectedToken indicates a token that is not allowed at its
	// position.
	ErrUnexpectedToken

	// ErrUnexpectedEnd indicates the input ended inside an expression.
	ErrUnexpectedEnd

	// ErrUnknownFunction indicates a function name outside the descriptor
	// grammar.
	ErrUnknownFunction

	// ErrArity indicates a function called with the wrong number of
	// arguments.
	ErrArity

	// ErrThreshold indicates a multisig threshold outside [1, n].
	ErrThreshold

	// ErrNesting indicates a function used in a context where it is not
	// allowed, such as sh inside sh.
	ErrNesting

	// ErrWildcard indicates a wildcard that is not the final derivation
	// step.
	ErrWildcard

	// ErrDerivationPath indicates a malformed origin or derivation path.
	ErrDerivationPath

	// ErrKey indicates key material that cannot be decoded.
	ErrKey

	// ErrAddress indicates an address that cannot be decoded.
	ErrAddress

	// ErrHex indicates malformed hex data.
	ErrHex

	// ErrTooManyKeys indicates a multisig with more keys than allowed in
	// its context.
	ErrTooManyKeys
)

var errorCodeStrings = map[ErrorCode]string{
	ErrChecksumLength:   "ErrChecksumLength",
	ErrChecksumMismatch: "ErrChecksumMismatch",
	ErrInvalidCharacter: "ErrInvalidCharacter",
	ErrUnexpectedToken:  "ErrUnexpectedToken",
	ErrUnexpectedEnd:    "ErrUnexpectedEnd",
	ErrUnknownFunction:  "ErrUnknownFunction",
	ErrArity:            "ErrArity",
	ErrThreshold:        "ErrThreshold",
	ErrNesting:          "ErrNesting",
	ErrWildcard:         "ErrWildcard",
	ErrDerivationPath:   "ErrDerivationPath",
	ErrKey:              "ErrKey",
	ErrAddress:          "ErrAddress",
	ErrHex:              "ErrHex",
	ErrTooManyKeys:      "ErrTooManyKeys",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Stage names the construction step that produced an error.
type Stage string

const (
	StageChecksum Stage = "checksum"
	StageLex      Stage = "lex"
	StageParse    Stage = "parse"
)

// Stage returns the construction stage an error code belongs to.
func (e ErrorCode) Stage() Stage {
	switch e {
	case ErrChecksumLength, ErrChecksumMismatch:
		return StageChecksum
	case ErrInvalidCharacter:
		return StageLex
	default:
		return StageParse
	}
}

// Range is a half-open byte span [Start, End) into the descriptor text.
type Range struct {
	Start int
	End   int
}

// Error is the error returned while constructing a descriptor. Range always
// points into the complete text given to New, checksum included.
type Error struct {
	ErrorCode   ErrorCode
	Description string
	Range       Range
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	msg := fmt.Sprintf("%s error at offset %d: %s", e.ErrorCode.Stage(),
		e.Range.Start, e.Description)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// Stage returns the construction stage that failed.
func (e Error) Stage() Stage {
	return e.ErrorCode.Stage()
}

// Snippet renders source with a caret line under the error range.
func (e Error) Snippet(source string) string {
	start, end := e.Range.Start, e.Range.End
	if start > len(source) {
		start = len(source)
	}
	if end > len(source) {
		end = len(source)
	}
	width := end - start
	if width < 1 {
		width = 1
	}

	var b strings.Builder
	b.WriteString(source)
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", start))
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

func descError(c ErrorCode, desc string, rng Range, err error) Error {
	return Error{ErrorCode: c, Description: desc, Range: rng, Err: err}
}

