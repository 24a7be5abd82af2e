// Package walletdb is a transactional, namespaced key/value store with
// pluggable backends. Backends register themselves with RegisterDriver and
// are selected by name in Create and Open.
//
// Data lives in buckets. A top-level bucket is the namespace of one
// subsystem, and subsystems nest further buckets below it as needed.
package walletdb

import (
	"io"
	"sort"
)

// Driver describes a backend. Create and Open receive the backend specific
// arguments passed to the package level functions of the same name.
type Driver struct {
	DBType string
	Create func(args ...interface{}) (DB, error)
	Open   func(args ...interface{}) (DB, error)
}

// DB is an open database.
type DB interface {
	// BeginReadTx and BeginReadWriteTx start manual transactions that
	// the caller must finish with Rollback or Commit.
	BeginReadTx() (ReadTx, error)
	BeginReadWriteTx() (ReadWriteTx, error)

	// View runs f in a read transaction. reset is called before f so
	// callers can clear state collected by an earlier attempt.
	View(f func(tx ReadTx) error, reset func()) error

	// Update runs f in a read-write transaction which is committed when
	// f returns nil and rolled back otherwise.
	Update(f func(tx ReadWriteTx) error, reset func()) error

	// Copy writes a consistent snapshot of the database to w.
	Copy(w io.Writer) error

	// PrintStats returns backend statistics for debugging.
	PrintStats() string

	Close() error
}

// ReadTx gives read access to the top-level buckets.
type ReadTx interface {
	// ReadBucket returns the top-level bucket named key, or nil.
	ReadBucket(key []byte) ReadBucket

	// ForEachBucket calls fn with the name of every top-level bucket.
	ForEachBucket(fn func(key []byte) error) error

	Rollback() error
}

// ReadWriteTx adds top-level bucket management and commit to ReadTx.
type ReadWriteTx interface {
	ReadTx

	// ReadWriteBucket returns the top-level bucket named key, or nil.
	ReadWriteBucket(key []byte) ReadWriteBucket

	CreateTopLevelBucket(key []byte) (ReadWriteBucket, error)
	DeleteTopLevelBucket(key []byte) error

	Commit() error

	// OnCommit registers f to run after a successful commit.
	OnCommit(f func())
}

// ReadBucket is a read view of a bucket. Values returned by Get and the
// cursor are only valid until the transaction ends.
type ReadBucket interface {
	Name() []byte

	// NestedReadBucket returns the child bucket named key, or nil.
	NestedReadBucket(key []byte) ReadBucket

	// ForEach calls f for every key in byte order. Nested buckets have a
	// nil value.
	ForEach(f func(k, v []byte) error) error

	// Get returns nil for missing keys and nested buckets.
	Get(key []byte) []byte

	ReadCursor() ReadCursor
}

// ReadWriteBucket is a writable bucket.
type ReadWriteBucket interface {
	ReadBucket

	NestedReadWriteBucket(key []byte) ReadWriteBucket
	CreateBucket(key []byte) (ReadWriteBucket, error)
	CreateBucketIfNotExists(key []byte) (ReadWriteBucket, error)
	DeleteNestedBucket(key []byte) error

	Put(key, value []byte) error
	Delete(key []byte) error

	ReadWriteCursor() ReadWriteCursor

	// Tx returns the transaction the bucket was opened in.
	Tx() ReadWriteTx

	// NextSequence increments and returns the bucket sequence.
	NextSequence() (uint64, error)
	SetSequence(v uint64) error
	Sequence() uint64
}

// ReadCursor walks the keys of a bucket in byte order. Every method returns
// a nil key once the cursor moves past either end.
type ReadCursor interface {
	First() (key, value []byte)
	Last() (key, value []byte)
	Next() (key, value []byte)
	Prev() (key, value []byte)

	// Seek moves to seek, or to the next key after it.
	Seek(seek []byte) (key, value []byte)
}

// ReadWriteCursor can also delete the pair it points at.
type ReadWriteCursor interface {
	ReadCursor

	Delete() error
}

var drivers = make(map[string]*Driver)

// RegisterDriver adds a backend. It fails if the name is taken.
func RegisterDriver(driver Driver) error {
	if _, exists := drivers[driver.DBType]; exists {
		return ErrDbTypeRegistered
	}

	drivers[driver.DBType] = &driver
	return nil
}

// SupportedDrivers returns the names of the registered backends.
func SupportedDrivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func driver(dbType string) (*Driver, error) {
	drv, ok := drivers[dbType]
	if !ok {
		return nil, ErrDbUnknownType
	}
	return drv, nil
}

// Create creates a database with the backend registered as dbType.
func Create(dbType string, args ...interface{}) (DB, error) {
	drv, err := driver(dbType)
	if err != nil {
		return nil, err
	}
	return drv.Create(args...)
}

// Open opens a database with the backend registered as dbType.
func Open(dbType string, args ...interface{}) (DB, error) {
	drv, err := driver(dbType)
	if err != nil {
		return nil, err
	}
	return drv.Open(args...)
}

// View runs f in a read transaction of db.
func View(db DB, f func(tx ReadTx) error) error {
	return db.View(f, func() {})
}

// Update runs f in a read-write transaction of db.
func Update(db DB, f func(tx ReadWriteTx) error) error {
	return db.Update(f, func() {})
}
