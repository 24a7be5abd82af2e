package descstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/czh0526/btc-descriptors/walletdb"
	_ "github.com/czh0526/btc-descriptors/walletdb/bdb"
)

var (
	defaultDBTimeout = 10 * time.Second

	storeNamespaceKey = []byte("descstoreNamespace")
)

func checkStoreError(t *testing.T, testName string, gotErr error,
	wantErrCode ErrorCode) bool {

	t.Helper()

	serr, ok := gotErr.(StoreError)
	if !ok {
		t.Errorf("%s: unexpected error type - got %T, want %T",
			testName, gotErr, StoreError{})
		return false
	}
	if serr.ErrorCode != wantErrCode {
		t.Errorf("%s: unexpected error code - got %s (%s), want %s",
			testName, serr.ErrorCode, serr.Description, wantErrCode)
		return false
	}

	return true
}

func emptyDB(t *testing.T) (tearDownFunc func(), db walletdb.DB) {
	dirName, err := os.MkdirTemp("", "storetest")
	if err != nil {
		t.Fatalf("Failed to create db temp dir: %v", err)
	}
	dbPath := filepath.Join(dirName, "storetest.db")
	db, err = walletdb.Create("bdb", dbPath, true, defaultDBTimeout)
	if err != nil {
		_ = os.RemoveAll(dirName)
		t.Fatalf("Failed to create db: %v", err)
	}

	tearDownFunc = func() {
		db.Close()
		_ = os.RemoveAll(dirName)
	}

	return
}

// createdDB returns a database holding a fresh store under
// storeNamespaceKey.
func createdDB(t *testing.T) (func(), walletdb.DB) {
	teardown, db := emptyDB(t)
	err := walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		ns, err := tx.CreateTopLevelBucket(storeNamespaceKey)
		if err != nil {
			return err
		}
		return Create(ns, "mainnet")
	})
	if err != nil {
		teardown()
		t.Fatalf("Failed to create store: %v", err)
	}
	return teardown, db
}
