package wallet

import (
	"path/filepath"
	"time"

	"github.com/czh0526/btc-descriptors/walletdb"
	_ "github.com/czh0526/btc-descriptors/walletdb/bdb"
)

const (
	// WalletDBName is the file name of the wallet database inside the
	// loader's directory.
	WalletDBName = "wallet.db"

	dbDriver = "bdb"
)

// descstoreNamespaceKey is the top-level bucket holding the descriptor
// store.
var descstoreNamespaceKey = []byte("descstore")

func walletDBPath(dir string) string {
	return filepath.Join(dir, WalletDBName)
}

// createDB creates a new wallet database in dir, creating dir if needed.
func createDB(dir string, noFreelistSync bool,
	timeout time.Duration) (walletdb.DB, error) {

	if err := CheckCreateDir(dir); err != nil {
		return nil, err
	}
	return walletdb.Create(dbDriver, walletDBPath(dir), noFreelistSync,
		timeout)
}

// openDB opens the existing wallet database in dir.
func openDB(dir string, noFreelistSync bool,
	timeout time.Duration) (walletdb.DB, error) {

	return walletdb.Open(dbDriver, walletDBPath(dir), noFreelistSync,
		timeout)
}
