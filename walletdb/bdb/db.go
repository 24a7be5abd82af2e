package bdb

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/czh0526/btc-descriptors/walletdb"
	"go.etcd.io/bbolt"
)

type db bbolt.DB

func (db *db) beginTx(writable bool) (*transaction, error) {
	boltTx, err := (*bbolt.DB)(db).Begin(writable)
	if err != nil {
		return nil, convertErr(err)
	}
	return &transaction{boltTx: boltTx}, nil
}

func (db *db) BeginReadTx() (walletdb.ReadTx, error) {
	return db.beginTx(false)
}

func (db *db) BeginReadWriteTx() (walletdb.ReadWriteTx, error) {
	return db.beginTx(true)
}

func (db *db) Copy(w io.Writer) error {
	return convertErr((*bbolt.DB)(db).View(func(tx *bbolt.Tx) error {
		_, err := tx.WriteTo(w)
		return err
	}))
}

func (db *db) Close() error {
	return convertErr((*bbolt.DB)(db).Close())
}

func (db *db) PrintStats() string {
	stats := (*bbolt.DB)(db).Stats()
	return fmt.Sprintf("free pages=%d pending pages=%d open read txs=%d",
		stats.FreePageN, stats.PendingPageN, stats.OpenTxN)
}

func (db *db) View(f func(tx walletdb.ReadTx) error, reset func()) error {
	reset()

	tx, err := db.beginTx(false)
	if err != nil {
		return err
	}

	err = f(tx)
	rollbackErr := tx.Rollback()
	if err != nil {
		return err
	}
	return rollbackErr
}

func (db *db) Update(f func(tx walletdb.ReadWriteTx) error, reset func()) error {
	reset()

	tx, err := db.beginTx(true)
	if err != nil {
		return err
	}

	// Roll back if f panics so the write lock is released.
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := f(tx); err != nil {
		return err
	}

	committed = true
	return tx.Commit()
}

var _ walletdb.DB = (*db)(nil)

func openDB(dbPath string, noFreelistSync bool, create bool,
	timeout time.Duration) (walletdb.DB, error) {

	exists := fileExists(dbPath)
	if !create && !exists {
		return nil, walletdb.ErrDbDoesNotExist
	}
	if create && exists {
		return nil, walletdb.ErrDbExists
	}

	options := &bbolt.Options{
		NoFreelistSync: noFreelistSync,
		FreelistType:   bbolt.FreelistMapType,
		Timeout:        timeout,
	}

	boltDB, err := bbolt.Open(dbPath, 0600, options)
	if err != nil {
		return nil, convertErr(err)
	}
	return (*db)(boltDB), nil
}

func fileExists(name string) bool {
	if _, err := os.Stat(name); err != nil {
		if os.IsNotExist(err) {
			return false
		}
	}
	return true
}

var boltErrors = map[error]error{
	// Database open/create errors.
	bbolt.ErrDatabaseNotOpen: walletdb.ErrDbNotOpen,
	bbolt.ErrInvalid:         walletdb.ErrInvalid,
	bbolt.ErrTimeout:         walletdb.ErrDbAlreadyOpen,

	// Transaction errors.
	bbolt.ErrTxNotWritable: walletdb.ErrTxNotWritable,
	bbolt.ErrTxClosed:      walletdb.ErrTxClosed,

	// Value/bucket errors.
	bbolt.ErrBucketNotFound:     walletdb.ErrBucketNotFound,
	bbolt.ErrBucketExists:       walletdb.ErrBucketExists,
	bbolt.ErrBucketNameRequired: walletdb.ErrBucketNameRequired,
	bbolt.ErrKeyRequired:        walletdb.ErrKeyRequired,
	bbolt.ErrKeyTooLarge:        walletdb.ErrKeyTooLarge,
	bbolt.ErrValueTooLarge:      walletdb.ErrValueTooLarge,
	bbolt.ErrIncompatibleValue:  walletdb.ErrIncompatibleValue,
}

// convertErr maps bolt errors onto their walletdb equivalents and returns
// any other error unchanged.
func convertErr(err error) error {
	if err == nil {
		return nil
	}
	for boltErr, dbErr := range boltErrors {
		if errors.Is(err, boltErr) {
			return dbErr
		}
	}
	return err
}
