package wallet

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/descstore"
	"github.com/czh0526/btc-descriptors/key"
	"github.com/czh0526/btc-descriptors/keyscope"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/czh0526/btc-descriptors/walletdb"
)

var (
	// ErrLocked is returned when an operation needs the seed but the
	// wallet has not been unlocked.
	ErrLocked = errors.New("wallet is locked")

	// ErrWatchingOnly is returned when unlocking a wallet that holds no
	// seed.
	ErrWatchingOnly = errors.New("wallet is watching-only")

	// ErrWrongNetwork is returned when opening a wallet created for
	// another network.
	ErrWrongNetwork = errors.New("wallet belongs to another network")

	// ErrChainRequired is returned when a descriptor with multipath steps
	// is used without choosing the external or internal chain.
	ErrChainRequired = errors.New("descriptor requires a chain")

	// ErrNoAddresses is returned when none of the requested indexes
	// produce an address.
	ErrNoAddresses = errors.New("descriptor produced no addresses")
)

// DefaultAccount is the account the default descriptors of a new wallet
// belong to.
const DefaultAccount = 0

// Wallet is a descriptor wallet: a set of named descriptors with address
// index counters, and an optional encrypted seed whose master key can be
// unlocked to derive through hardened steps.
type Wallet struct {
	db          walletdb.DB
	chainParams *chaincfg.Params

	mtx  sync.RWMutex
	ring *key.Ring
}

func newWallet(db walletdb.DB, chainParams *chaincfg.Params) *Wallet {
	return &Wallet{
		db:          db,
		chainParams: chainParams,
	}
}

// create initializes the descriptor store of a new wallet. When s is not
// nil it is sealed under passphrase and the default account descriptors of
// its master key are imported.
func create(db walletdb.DB, chainParams *chaincfg.Params, rand io.Reader,
	s seed.Seed, passphrase []byte, opts *snacl.ScryptOptions) error {

	var defaults []*descriptor.Descriptor
	if s != nil {
		root, err := key.NewRootKey(s, chainParams)
		if err != nil {
			return err
		}
		defaults, err = keyscope.DefaultDescriptors(
			root, chainParams, DefaultAccount,
		)
		root.Zero()
		if err != nil {
			return err
		}
	}

	return walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		ns, err := tx.CreateTopLevelBucket(descstoreNamespaceKey)
		if err != nil {
			return err
		}
		if err := descstore.Create(ns, chainParams.Name); err != nil {
			return err
		}
		if s == nil {
			return nil
		}

		err = descstore.PutSeed(ns, rand, passphrase, s, opts)
		if err != nil {
			return err
		}
		for _, d := range defaults {
			if err := descstore.PutDescriptor(ns, d); err != nil {
				return err
			}
			log.Debugf("Imported default descriptor %s", d.Name())
		}
		return nil
	})
}

// open upgrades the store of an existing wallet and checks its network.
func open(db walletdb.DB, chainParams *chaincfg.Params) (*Wallet, error) {
	err := walletdb.Update(db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(descstoreNamespaceKey)
		if err := descstore.Upgrade(ns); err != nil {
			return err
		}

		netName, err := descstore.Network(ns)
		if err != nil {
			return err
		}
		if netName != chainParams.Name {
			return fmt.Errorf("%w: created for %s, opened for %s",
				ErrWrongNetwork, netName, chainParams.Name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return newWallet(db, chainParams), nil
}

// ChainParams returns the network the wallet derives addresses for.
func (w *Wallet) ChainParams() *chaincfg.Params {
	return w.chainParams
}

// Database returns the underlying wallet database.
func (w *Wallet) Database() walletdb.DB {
	return w.db
}

// ImportDescriptor stores d under its name.
func (w *Wallet) ImportDescriptor(d *descriptor.Descriptor) error {
	err := walletdb.Update(w.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(descstoreNamespaceKey)
		return descstore.PutDescriptor(ns, d)
	})
	if err != nil {
		return err
	}

	log.Infof("Imported descriptor %s: %s", d.Name(), d)
	return nil
}

// Descriptor returns the descriptor stored under name.
func (w *Wallet) Descriptor(name string) (*descriptor.Descriptor, error) {
	var d *descriptor.Descriptor
	err := walletdb.View(w.db, func(tx walletdb.ReadTx) error {
		var err error
		d, err = descstore.FetchDescriptor(
			tx.ReadBucket(descstoreNamespaceKey), name,
		)
		return err
	})
	return d, err
}

// Descriptors returns every stored descriptor in name order.
func (w *Wallet) Descriptors() ([]*descriptor.Descriptor, error) {
	var descs []*descriptor.Descriptor
	err := walletdb.View(w.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(descstoreNamespaceKey)
		return descstore.ForEachDescriptor(ns,
			func(d *descriptor.Descriptor) error {
				descs = append(descs, d)
				return nil
			},
		)
	})
	return descs, err
}

// RemoveDescriptor deletes the descriptor stored under name and forgets its
// address indexes.
func (w *Wallet) RemoveDescriptor(name string) error {
	err := walletdb.Update(w.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(descstoreNamespaceKey)
		return descstore.DeleteDescriptor(ns, name)
	})
	if err != nil {
		return err
	}

	log.Infof("Removed descriptor %s", name)
	return nil
}

// counterChain returns the chain whose counter tracks d, or an error if d
// needs a chain and none was given.
func counterChain(d *descriptor.Descriptor,
	chain descriptor.Chain) (descriptor.Chain, error) {

	if !d.RequiresChain() {
		return descriptor.ChainUnspecified, nil
	}
	if chain == descriptor.ChainUnspecified {
		return 0, fmt.Errorf("%w: %s", ErrChainRequired, d.Name())
	}
	return chain, nil
}

// derive returns the addresses of indexes in ascending index order,
// skipping indexes without an address.
func (w *Wallet) derive(d *descriptor.Descriptor, chain descriptor.Chain,
	combo descriptor.ComboOutput, indexes []uint32) []btcutil.Address {

	found := d.Addresses(w.chainParams, chain, combo, indexes,
		w.privateKeys())

	sorted := make([]uint32, 0, len(found))
	for index := range found {
		sorted = append(sorted, index)
	}
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	addrs := make([]btcutil.Address, 0, len(sorted))
	for _, index := range sorted {
		addrs = append(addrs, found[index])
	}
	return addrs
}

// NextAddresses hands out the next count addresses of the named descriptor
// on chain. combo picks the script of combo descriptors, which share one
// counter for all selectors. Descriptors without a wildcard have a single
// address, which is returned without consuming an index.
func (w *Wallet) NextAddresses(name string, chain descriptor.Chain,
	combo descriptor.ComboOutput, count uint32) ([]btcutil.Address, error) {

	if count == 0 {
		return nil, nil
	}

	var addrs []btcutil.Address
	err := walletdb.Update(w.db, func(tx walletdb.ReadWriteTx) error {
		ns := tx.ReadWriteBucket(descstoreNamespaceKey)
		d, err := descstore.FetchDescriptor(ns, name)
		if err != nil {
			return err
		}
		counter, err := counterChain(d, chain)
		if err != nil {
			return err
		}

		if !d.RequiresAddressIndex() {
			addr, ok := d.Address(descriptor.DerivationContext{
				Net:         w.chainParams,
				Chain:       counter,
				PrivateKeys: w.privateKeys(),
				Combo:       combo,
			})
			if !ok {
				return fmt.Errorf("%w: %s", ErrNoAddresses, name)
			}
			addrs = []btcutil.Address{addr}
			return nil
		}

		first, err := descstore.AdvanceIndex(ns, name, counter, count)
		if err != nil {
			return err
		}
		indexes := make([]uint32, count)
		for i := range indexes {
			indexes[i] = first + uint32(i)
		}

		// Returning an error rolls the counter back.
		addrs = w.derive(d, counter, combo, indexes)
		if len(addrs) == 0 {
			return fmt.Errorf("%w: %s at %d..%d", ErrNoAddresses,
				name, first, first+count-1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Debugf("Handed out %d %v addresses of %s", len(addrs), chain, name)
	return addrs, nil
}

// DeriveAddresses derives the addresses of the named descriptor at the given
// indexes without touching its counters.
func (w *Wallet) DeriveAddresses(name string, chain descriptor.Chain,
	combo descriptor.ComboOutput, indexes []uint32) ([]btcutil.Address, error) {

	d, err := w.Descriptor(name)
	if err != nil {
		return nil, err
	}
	counter, err := counterChain(d, chain)
	if err != nil {
		return nil, err
	}

	if !d.RequiresAddressIndex() {
		addr, ok := d.Address(descriptor.DerivationContext{
			Net:         w.chainParams,
			Chain:       counter,
			PrivateKeys: w.privateKeys(),
			Combo:       combo,
		})
		if !ok {
			return nil, nil
		}
		return []btcutil.Address{addr}, nil
	}
	return w.derive(d, counter, combo, indexes), nil
}

// Unlock opens the stored seed with passphrase and keeps its master key in
// memory until Lock is called.
func (w *Wallet) Unlock(passphrase []byte) error {
	var s seed.RawSeed
	err := walletdb.View(w.db, func(tx walletdb.ReadTx) error {
		ns := tx.ReadBucket(descstoreNamespaceKey)
		if !descstore.HasSeed(ns) {
			return ErrWatchingOnly
		}

		var err error
		s, err = descstore.FetchSeed(ns, passphrase)
		return err
	})
	if err != nil {
		return err
	}
	defer s.Zero()

	root, err := key.NewRootKey(s, w.chainParams)
	if err != nil {
		return err
	}
	ring := key.NewRing(0)
	if _, err := ring.Add(root); err != nil {
		root.Zero()
		return err
	}

	w.mtx.Lock()
	if w.ring != nil {
		w.ring.Zero()
	}
	w.ring = ring
	w.mtx.Unlock()

	log.Info("Wallet unlocked")
	return nil
}

// Lock forgets the unlocked master key.
func (w *Wallet) Lock() {
	w.mtx.Lock()
	defer w.mtx.Unlock()

	if w.ring == nil {
		return
	}
	w.ring.Zero()
	w.ring = nil
	log.Info("Wallet locked")
}

// Locked reports whether the master key is unavailable.
func (w *Wallet) Locked() bool {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	return w.ring == nil
}

// PrivateKeys returns the unlocked key ring, or ErrLocked.
func (w *Wallet) PrivateKeys() (descriptor.PrivateKeyProvider, error) {
	if provider := w.privateKeys(); provider != nil {
		return provider, nil
	}
	return nil, ErrLocked
}

func (w *Wallet) privateKeys() descriptor.PrivateKeyProvider {
	w.mtx.RLock()
	defer w.mtx.RUnlock()

	if w.ring == nil {
		return nil
	}
	return w.ring
}
