// Package descstore persists named output descriptors, their address index
// counters and an encrypted wallet seed inside a walletdb namespace.
//
// Layout of the namespace bucket:
//
//	meta/        "version" -> uint32, "net" -> network name
//	descriptors/ name -> binary descriptor record
//	indexes/     name/ chain -> next unused uint32 index
//	seeds/       "seed" -> snacl sealed seed bytes
package descstore

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/czh0526/btc-descriptors/internal/zero"
	"github.com/czh0526/btc-descriptors/record"
	"github.com/czh0526/btc-descriptors/seed"
	"github.com/czh0526/btc-descriptors/snacl"
	"github.com/czh0526/btc-descriptors/walletdb"
)

// MaxIndex is the highest address index NextIndex will hand out.
const MaxIndex = hdkeychain.HardenedKeyStart - 1

var (
	metaBucketName        = []byte("meta")
	descriptorsBucketName = []byte("descriptors")
	indexesBucketName     = []byte("indexes")
	seedsBucketName       = []byte("seeds")

	versionKey = []byte("version")
	netKey     = []byte("net")
	seedKey    = []byte("seed")
)

var byteOrder = binary.BigEndian

// Exists returns whether the store has been created in ns.
func Exists(ns walletdb.ReadBucket) bool {
	if ns == nil {
		return false
	}
	meta := ns.NestedReadBucket(metaBucketName)
	return meta != nil && meta.Get(versionKey) != nil
}

// Create initializes an empty store in ns for the named network.
func Create(ns walletdb.ReadWriteBucket, netName string) error {
	if Exists(ns) {
		return storeError(ErrAlreadyExists, "store already exists", nil)
	}

	for _, name := range [][]byte{
		metaBucketName, descriptorsBucketName, indexesBucketName,
		seedsBucketName,
	} {
		if _, err := ns.CreateBucketIfNotExists(name); err != nil {
			str := "failed to create " + string(name) + " bucket"
			return storeError(ErrDatabase, str, err)
		}
	}

	meta := ns.NestedReadWriteBucket(metaBucketName)
	if err := meta.Put(netKey, []byte(netName)); err != nil {
		return storeError(ErrDatabase, "failed to store network", err)
	}
	if err := putVersion(ns, latestVersion()); err != nil {
		return err
	}

	log.Debugf("Created descriptor store for %s", netName)
	return nil
}

// Network returns the name of the network the store was created for.
func Network(ns walletdb.ReadBucket) (string, error) {
	meta, err := bucket(ns, metaBucketName)
	if err != nil {
		return "", err
	}
	return string(meta.Get(netKey)), nil
}

func bucket(ns walletdb.ReadBucket, name []byte) (walletdb.ReadBucket, error) {
	if !Exists(ns) {
		return nil, storeError(ErrNoExist, "store does not exist", nil)
	}
	b := ns.NestedReadBucket(name)
	if b == nil {
		str := "missing " + string(name) + " bucket"
		return nil, storeError(ErrDatabase, str, nil)
	}
	return b, nil
}

func rwBucket(ns walletdb.ReadWriteBucket,
	name []byte) (walletdb.ReadWriteBucket, error) {

	if !Exists(ns) {
		return nil, storeError(ErrNoExist, "store does not exist", nil)
	}
	b := ns.NestedReadWriteBucket(name)
	if b == nil {
		str := "missing " + string(name) + " bucket"
		return nil, storeError(ErrDatabase, str, nil)
	}
	return b, nil
}

func fetchVersion(ns walletdb.ReadBucket) (uint32, error) {
	meta := ns.NestedReadBucket(metaBucketName)
	if meta == nil {
		return 0, storeError(ErrNoExist, "store does not exist", nil)
	}
	v := meta.Get(versionKey)
	if len(v) != 4 {
		return 0, storeError(ErrCorrupt, "malformed store version", nil)
	}
	return byteOrder.Uint32(v), nil
}

func putVersion(ns walletdb.ReadWriteBucket, version uint32) error {
	meta := ns.NestedReadWriteBucket(metaBucketName)
	if meta == nil {
		return storeError(ErrNoExist, "store does not exist", nil)
	}
	var v [4]byte
	byteOrder.PutUint32(v[:], version)
	if err := meta.Put(versionKey, v[:]); err != nil {
		return storeError(ErrDatabase, "failed to store version", err)
	}
	return nil
}

func validName(name string) error {
	if name == "" {
		return storeError(ErrInvalidName, "descriptor name is empty", nil)
	}
	return nil
}

// PutDescriptor stores d under its name. The name must not be taken.
func PutDescriptor(ns walletdb.ReadWriteBucket, d *descriptor.Descriptor) error {
	if err := validName(d.Name()); err != nil {
		return err
	}
	descs, err := rwBucket(ns, descriptorsBucketName)
	if err != nil {
		return err
	}

	key := []byte(d.Name())
	if descs.Get(key) != nil {
		str := "descriptor " + d.Name() + " already exists"
		return storeError(ErrDuplicateName, str, nil)
	}

	var b bytes.Buffer
	if err := record.Encode(&b, d); err != nil {
		return storeError(ErrCorrupt, "failed to encode descriptor", err)
	}
	if err := descs.Put(key, b.Bytes()); err != nil {
		str := "failed to store descriptor " + d.Name()
		return storeError(ErrDatabase, str, err)
	}
	return nil
}

func decodeDescriptor(name string, v []byte) (*descriptor.Descriptor, error) {
	d, err := record.Decode(bytes.NewReader(v))
	if err != nil {
		str := "failed to decode descriptor " + name
		return nil, storeError(ErrCorrupt, str, err)
	}
	return d, nil
}

// FetchDescriptor returns the descriptor stored under name.
func FetchDescriptor(ns walletdb.ReadBucket,
	name string) (*descriptor.Descriptor, error) {

	descs, err := bucket(ns, descriptorsBucketName)
	if err != nil {
		return nil, err
	}
	v := descs.Get([]byte(name))
	if v == nil {
		str := "descriptor " + name + " not found"
		return nil, storeError(ErrDescriptorNotFound, str, nil)
	}
	return decodeDescriptor(name, v)
}

// ForEachDescriptor calls fn for every stored descriptor in name order.
func ForEachDescriptor(ns walletdb.ReadBucket,
	fn func(*descriptor.Descriptor) error) error {

	descs, err := bucket(ns, descriptorsBucketName)
	if err != nil {
		return err
	}
	return descs.ForEach(func(k, v []byte) error {
		d, err := decodeDescriptor(string(k), v)
		if err != nil {
			return err
		}
		return fn(d)
	})
}

// DeleteDescriptor removes the descriptor stored under name together with
// its index counters.
func DeleteDescriptor(ns walletdb.ReadWriteBucket, name string) error {
	descs, err := rwBucket(ns, descriptorsBucketName)
	if err != nil {
		return err
	}
	key := []byte(name)
	if descs.Get(key) == nil {
		str := "descriptor " + name + " not found"
		return storeError(ErrDescriptorNotFound, str, nil)
	}
	if err := descs.Delete(key); err != nil {
		str := "failed to delete descriptor " + name
		return storeError(ErrDatabase, str, err)
	}

	indexes := ns.NestedReadWriteBucket(indexesBucketName)
	if indexes.NestedReadBucket(key) != nil {
		if err := indexes.DeleteNestedBucket(key); err != nil {
			str := "failed to delete indexes of " + name
			return storeError(ErrDatabase, str, err)
		}
	}
	return nil
}

func chainKey(chain descriptor.Chain) []byte {
	return []byte{byte(chain)}
}

// NextIndex returns the first index of chain that has not been handed out
// for the named descriptor.
func NextIndex(ns walletdb.ReadBucket, name string,
	chain descriptor.Chain) (uint32, error) {

	if _, err := FetchDescriptor(ns, name); err != nil {
		return 0, err
	}

	indexes := ns.NestedReadBucket(indexesBucketName)
	counters := indexes.NestedReadBucket([]byte(name))
	if counters == nil {
		return 0, nil
	}
	v := counters.Get(chainKey(chain))
	if v == nil {
		return 0, nil
	}
	if len(v) != 4 {
		str := "malformed index of " + name
		return 0, storeError(ErrCorrupt, str, nil)
	}
	return byteOrder.Uint32(v), nil
}

// AdvanceIndex hands out count indexes of chain for the named descriptor and
// returns the first of them.
func AdvanceIndex(ns walletdb.ReadWriteBucket, name string,
	chain descriptor.Chain, count uint32) (uint32, error) {

	first, err := NextIndex(ns, name, chain)
	if err != nil {
		return 0, err
	}
	next := uint64(first) + uint64(count)
	if next > uint64(MaxIndex)+1 {
		str := "address index of " + name + " would exceed the " +
			"non-hardened range"
		return 0, storeError(ErrIndexOverflow, str, nil)
	}

	indexes := ns.NestedReadWriteBucket(indexesBucketName)
	counters, err := indexes.CreateBucketIfNotExists([]byte(name))
	if err != nil {
		str := "failed to create indexes of " + name
		return 0, storeError(ErrDatabase, str, err)
	}
	var v [4]byte
	byteOrder.PutUint32(v[:], uint32(next))
	if err := counters.Put(chainKey(chain), v[:]); err != nil {
		str := "failed to store index of " + name
		return 0, storeError(ErrDatabase, str, err)
	}
	return first, nil
}

// PutSeed seals s under passphrase and stores it, replacing any stored
// seed.
func PutSeed(ns walletdb.ReadWriteBucket, rand io.Reader, passphrase []byte,
	s seed.Seed, opts *snacl.ScryptOptions) error {

	seeds, err := rwBucket(ns, seedsBucketName)
	if err != nil {
		return err
	}
	sealed, err := snacl.Seal(rand, passphrase, s.Bytes(), opts)
	if err != nil {
		return storeError(ErrCrypto, "failed to seal seed", err)
	}
	if err := seeds.Put(seedKey, sealed); err != nil {
		return storeError(ErrDatabase, "failed to store seed", err)
	}
	return nil
}

// HasSeed returns whether a seed is stored.
func HasSeed(ns walletdb.ReadBucket) bool {
	seeds, err := bucket(ns, seedsBucketName)
	return err == nil && seeds.Get(seedKey) != nil
}

// FetchSeed opens the stored seed with passphrase. The caller owns the
// returned seed and should zero it when done.
func FetchSeed(ns walletdb.ReadBucket, passphrase []byte) (seed.RawSeed, error) {
	seeds, err := bucket(ns, seedsBucketName)
	if err != nil {
		return nil, err
	}
	sealed := seeds.Get(seedKey)
	if sealed == nil {
		return nil, storeError(ErrNoSeed, "no seed stored", nil)
	}

	plain, err := snacl.Open(passphrase, sealed)
	switch {
	case errors.Is(err, snacl.ErrInvalidPassword):
		return nil, storeError(ErrWrongPassphrase, "invalid passphrase",
			err)
	case err != nil:
		return nil, storeError(ErrCrypto, "failed to open seed", err)
	}

	s, err := seed.FromBytes(plain)
	zero.Bytes(plain)
	if err != nil {
		return nil, storeError(ErrCorrupt, "stored seed is invalid", err)
	}
	return s, nil
}
