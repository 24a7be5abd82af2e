package wallet

import (
	"errors"
	"io"
	"os"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/czh0526/btc-descriptors/walletdb"
)

var (
	// ErrLoaded describes the error condition of attempting to load or
	// create a wallet when the loader has already done so.
	ErrLoaded = errors.New("wallet already loaded")

	// ErrNotLoaded describes the error condition of attempting to close a
	// loaded wallet when a wallet has not been loaded.
	ErrNotLoaded = errors.New("wallet is not loaded")

	// ErrExists describes the error condition of attempting to create a
	// new wallet when one exists already.
	ErrExists = errors.New("wallet already exists")

	// ErrEmptyPassphrase is returned when creating a wallet with a seed
	// but no passphrase to protect it.
	ErrEmptyPassphrase = errors.New("passphrase may not be empty")
)

// Loader implements the creating of new and opening of existing wallets,
// while providing a callback system for other subsystems to handle the
// loading of a wallet. It is safe for concurrent use.
type Loader struct {
	chainParams    *chaincfg.Params
	dbDirPath      string
	noFreelistSync bool
	timeout        time.Duration
	scryptOptions  *snacl.ScryptOptions

	callbacks []func(*Wallet)
	wallet    *Wallet
	db        walletdb.DB
	mu        sync.Mutex
}

// NewLoader constructs a Loader for wallets of chainParams stored in
// dbDirPath.
func NewLoader(chainParams *chaincfg.Params, dbDirPath string,
	noFreelistSync bool, timeout time.Duration) *Loader {

	return &Loader{
		chainParams:    chainParams,
		dbDirPath:      dbDirPath,
		noFreelistSync: noFreelistSync,
		timeout:        timeout,
		scryptOptions:  &snacl.DefaultScryptOptions,
	}
}

// SetScryptOptions sets the key stretching costs used to seal the seed of
// newly created wallets.
func (l *Loader) SetScryptOptions(opts *snacl.ScryptOptions) {
	l.mu.Lock()
	l.scryptOptions = opts
	l.mu.Unlock()
}

// ChainParams returns the network the loader opens wallets for.
func (l *Loader) ChainParams() *chaincfg.Params {
	return l.chainParams
}

// onLoaded executes each added callback and prevents loader from loading
// any additional wallets. Requires mutex to be locked.
func (l *Loader) onLoaded(w *Wallet, db walletdb.DB) {
	for _, fn := range l.callbacks {
		fn(w)
	}

	l.wallet = w
	l.db = db
	l.callbacks = nil
}

// RunAfterLoad adds a function to be executed when the loader creates or
// opens a wallet. Functions are executed in a single goroutine in the order
// they are added.
func (l *Loader) RunAfterLoad(fn func(*Wallet)) {
	l.mu.Lock()
	if l.wallet != nil {
		w := l.wallet
		l.mu.Unlock()
		fn(w)
	} else {
		l.callbacks = append(l.callbacks, fn)
		l.mu.Unlock()
	}
}

// CreateNewWallet creates a new wallet and opens it. A nil seed creates a
// watching-only wallet that only holds imported descriptors; otherwise the
// seed is sealed under passphrase, using randomness from rand, and the
// default account descriptors of its master key are imported.
func (l *Loader) CreateNewWallet(rand io.Reader, s seed.Seed,
	passphrase []byte) (*Wallet, error) {

	defer l.mu.Unlock()
	l.mu.Lock()

	if l.wallet != nil {
		return nil, ErrLoaded
	}
	if s != nil && len(passphrase) == 0 {
		return nil, ErrEmptyPassphrase
	}

	db, err := createDB(l.dbDirPath, l.noFreelistSync, l.timeout)
	if errors.Is(err, walletdb.ErrDbExists) {
		return nil, ErrExists
	}
	if err != nil {
		return nil, err
	}

	err = create(db, l.chainParams, rand, s, passphrase, l.scryptOptions)
	if err != nil {
		_ = db.Close()
		_ = os.Remove(walletDBPath(l.dbDirPath))
		return nil, err
	}

	w, err := open(db, l.chainParams)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	log.Infof("Created wallet in %s", l.dbDirPath)
	l.onLoaded(w, db)
	return w, nil
}

// OpenExistingWallet opens the wallet from the loader's wallet database
// path.
func (l *Loader) OpenExistingWallet() (*Wallet, error) {
	defer l.mu.Unlock()
	l.mu.Lock()

	if l.wallet != nil {
		return nil, ErrLoaded
	}

	db, err := openDB(l.dbDirPath, l.noFreelistSync, l.timeout)
	if err != nil {
		log.Errorf("Failed to open database: %v", err)
		return nil, err
	}

	w, err := open(db, l.chainParams)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Warnf("Error closing database: %v", closeErr)
		}
		return nil, err
	}

	log.Infof("Opened wallet in %s", l.dbDirPath)
	l.onLoaded(w, db)
	return w, nil
}

// WalletExists returns whether a file exists at the loader's database path.
// This may return an error for unexpected I/O failures.
func (l *Loader) WalletExists() (bool, error) {
	_, err := os.Stat(walletDBPath(l.dbDirPath))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// LoadedWallet returns the loaded wallet, if any, and a bool for whether the
// wallet has been loaded or not. If true, the wallet pointer should be safe
// to dereference.
func (l *Loader) LoadedWallet() (*Wallet, bool) {
	l.mu.Lock()
	w := l.wallet
	l.mu.Unlock()
	return w, w != nil
}

// UnloadWallet locks the loaded wallet and closes its database. If the
// wallet has not been loaded, ErrNotLoaded is returned.
func (l *Loader) UnloadWallet() error {
	defer l.mu.Unlock()
	l.mu.Lock()

	if l.wallet == nil {
		return ErrNotLoaded
	}

	l.wallet.Lock()
	if err := l.db.Close(); err != nil {
		return err
	}

	l.wallet = nil
	l.db = nil
	log.Info("Wallet unloaded")
	return nil
}
