package walletdb

import "errors"

// Driver registry and lifecycle errors.
var (
	// ErrDbTypeRegistered is returned by RegisterDriver when a backend
	// with the same name is already known.
	ErrDbTypeRegistered = errors.New("database type already registered")

	// ErrDbUnknownType is returned by Create and Open for a backend name
	// nothing registered.
	ErrDbUnknownType = errors.New("unknown database type")

	// ErrDbDoesNotExist is returned when opening a database file that is
	// missing.
	ErrDbDoesNotExist = errors.New("database does not exist")

	// ErrDbExists is returned when creating a database over an existing
	// file.
	ErrDbExists = errors.New("database already exists")

	// ErrDbNotOpen is returned when using a closed database.
	ErrDbNotOpen = errors.New("database not open")

	// ErrDbAlreadyOpen is returned when the file lock could not be taken
	// before the open timeout, usually because another process holds it.
	ErrDbAlreadyOpen = errors.New("database already open")

	// ErrInvalid is returned when the file is not a database of the
	// backend.
	ErrInvalid = errors.New("invalid database")
)

// Transaction errors.
var (
	// ErrTxClosed is returned when committing or rolling back a
	// transaction that already finished.
	ErrTxClosed = errors.New("tx closed")

	// ErrTxNotWritable is returned when writing inside a read
	// transaction.
	ErrTxNotWritable = errors.New("tx not writable")
)

// Bucket and value errors.
var (
	// ErrBucketNotFound is returned when deleting a bucket that does not
	// exist.
	ErrBucketNotFound = errors.New("bucket not found")

	// ErrBucketExists is returned by CreateBucket when the bucket is
	// already there.
	ErrBucketExists = errors.New("bucket already exists")

	// ErrBucketNameRequired is returned for an empty bucket name.
	ErrBucketNameRequired = errors.New("bucket name required")

	// ErrKeyRequired is returned when putting an empty key.
	ErrKeyRequired = errors.New("key required")

	// ErrKeyTooLarge is returned when a key exceeds the backend limit.
	ErrKeyTooLarge = errors.New("key too large")

	// ErrValueTooLarge is returned when a value exceeds the backend limit.
	ErrValueTooLarge = errors.New("value too large")

	// ErrIncompatibleValue is returned when a bucket operation targets a
	// plain value or a value operation targets a bucket.
	ErrIncompatibleValue = errors.New("incompatible value")
)
