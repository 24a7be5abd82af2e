package descstore

import "fmt"

// ErrorCode identifies a kind of error.
type ErrorCode int

const (
	// ErrDatabase indicates an error with the underlying database.
	ErrDatabase ErrorCode = iota

	// ErrAlreadyExists indicates the store namespace was already created.
	ErrAlreadyExists

	// ErrNoExist indicates the store namespace has not been created.
	ErrNoExist

	// ErrDescriptorNotFound indicates no descriptor is stored under the
	// requested name.
	ErrDescriptorNotFound

	// ErrDuplicateName indicates a descriptor is already stored under the
	// requested name.
	ErrDuplicateName

	// ErrInvalidName indicates a descriptor without a usable name.
	ErrInvalidName

	// ErrCorrupt indicates a stored value that cannot be decoded.
	ErrCorrupt

	// ErrIndexOverflow indicates an address index would leave the
	// non-hardened range.
	ErrIndexOverflow

	// ErrNoSeed indicates the store holds no seed.
	ErrNoSeed

	// ErrWrongPassphrase indicates the seed passphrase did not match.
	ErrWrongPassphrase

	// ErrCrypto indicates a failure while sealing or opening the seed.
	ErrCrypto
)

var errorCodeStrings = map[ErrorCode]string{
	ErrDatabase:           "ErrDatabase",
	ErrAlreadyExists:      "ErrAlreadyExists",
	ErrNoExist:            "ErrNoExist",
	ErrDescriptorNotFound: "ErrDescriptorNotFound",
	ErrDuplicateName:      "ErrDuplicateName",
	ErrInvalidName:        "ErrInvalidName",
	ErrCorrupt:            "ErrCorrupt",
	ErrIndexOverflow:      "ErrIndexOverflow",
	ErrNoSeed:             "ErrNoSeed",
	ErrWrongPassphrase:    "ErrWrongPassphrase",
	ErrCrypto:             "ErrCrypto",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s := errorCodeStrings[e]; s != "" {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// StoreError provides a single type for errors that can happen during store
// operation. Err holds the underlying error, if any.
type StoreError struct {
	ErrorCode   ErrorCode
	Description string
	Err         error
}

// Error satisfies the error interface and prints human-readable errors.
func (e StoreError) Error() string {
	if e.Err != nil {
		return e.Description + ": " + e.Err.Error()
	}
	return e.Description
}

// Unwrap returns the underlying error, if any.
func (e StoreError) Unwrap() error {
	return e.Err
}

func storeError(c ErrorCode, desc string, err error) StoreError {
	return StoreError{ErrorCode: c, Description: desc, Err: err}
}

// IsError returns whether err is a StoreError with the given code.
func IsError(err error, code ErrorCode) bool {
	serr, ok := err.(StoreError)
	return ok && serr.ErrorCode == code
}
