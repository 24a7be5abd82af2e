package key

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/czh0526/btc-descriptors/descriptor"
	"github.com/lightninglabs/neutrino/cache"
	"github.com/lightninglabs/neutrino/cache/lru"
)

const (
	// DefaultCacheSize is the number of derived private keys a Ring keeps.
	DefaultCacheSize = 10_000
)

var (
	// ErrUnknownFingerprint is returned when no master key with the
	// requested fingerprint was added to the ring.
	ErrUnknownFingerprint = errors.New("unknown master key fingerprint")

	// ErrNotPrivate is returned when a public key is added to the ring.
	ErrNotPrivate = errors.New("master key is not private")
)

// derivationPath identifies a derived key by master fingerprint and path.
type derivationPath string

func newDerivationPath(fingerprint uint32, path []uint32) derivationPath {
	var b strings.Builder
	b.WriteString(strconv.FormatUint(uint64(fingerprint), 16))
	for _, i := range path {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(i), 10))
	}
	return derivationPath(b.String())
}

type cachedKey struct {
	key *hdkeychain.ExtendedKey
}

// copyPrivateKey returns a private extended key that shares no memory with
// k, so zeroing either leaves the other intact.
func copyPrivateKey(k *hdkeychain.ExtendedKey) (*hdkeychain.ExtendedKey, error) {
	priv, err := k.ECPrivKey()
	if err != nil {
		return nil, err
	}
	var parentFP [4]byte
	binary.BigEndian.PutUint32(parentFP[:], k.ParentFingerprint())

	return hdkeychain.NewExtendedKey(
		append([]byte(nil), k.Version()...), priv.Serialize(),
		append([]byte(nil), k.ChainCode()...), parentFP[:],
		k.Depth(), k.ChildIndex(), true,
	), nil
}

func (c *cachedKey) Size() (uint64, error) {
	return 1, nil
}

// Ring holds master private keys and resolves private keys below them. It
// implements descriptor.PrivateKeyProvider and is safe for concurrent use.
type Ring struct {
	mtx     sync.RWMutex
	masters map[uint32]*hdkeychain.ExtendedKey

	cacheSize    uint64
	privKeyCache *lru.Cache[derivationPath, *cachedKey]
}

// NewRing returns an empty ring caching up to cacheSize derived keys.
func NewRing(cacheSize uint64) *Ring {
	if cacheSize == 0 {
		cacheSize = DefaultCacheSize
	}
	return &Ring{
		masters:      make(map[uint32]*hdkeychain.ExtendedKey),
		cacheSize:    cacheSize,
		privKeyCache: lru.NewCache[derivationPath, *cachedKey](cacheSize),
	}
}

// Add registers a master private key and returns its fingerprint.
func (r *Ring) Add(master *hdkeychain.ExtendedKey) (uint32, error) {
	if !master.IsPrivate() {
		return 0, ErrNotPrivate
	}

	// Populate the cached public key before the key is shared between
	// goroutines.
	fingerprint, err := Fingerprint(master)
	if err != nil {
		return 0, err
	}

	r.mtx.Lock()
	r.masters[fingerprint] = master
	r.mtx.Unlock()

	log.Debugf("Added master key %08x to key ring", fingerprint)
	return fingerprint, nil
}

// Has reports whether the master key with fingerprint is in the ring.
func (r *Ring) Has(fingerprint uint32) bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	_, ok := r.masters[fingerprint]
	return ok
}

// Len returns the number of master keys in the ring.
func (r *Ring) Len() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	return len(r.masters)
}

// PrivateKey returns the extended private key at path below the master key
// with the given fingerprint. The key is a copy the caller may zero.
func (r *Ring) PrivateKey(fingerprint uint32,
	path []uint32) (*hdkeychain.ExtendedKey, error) {

	r.mtx.RLock()
	defer r.mtx.RUnlock()

	master, ok := r.masters[fingerprint]
	if !ok {
		return nil, fmt.Errorf("%w: %08x", ErrUnknownFingerprint,
			fingerprint)
	}

	id := newDerivationPath(fingerprint, path)
	cached, err := r.privKeyCache.Get(id)
	if err == nil {
		return copyPrivateKey(cached.key)
	}
	if !errors.Is(err, cache.ErrElementNotFound) {
		return nil, err
	}

	derived, err := DerivePath(master, path)
	if err != nil {
		return nil, fmt.Errorf("unable to derive %s: %w", id, err)
	}
	if _, err := Fingerprint(derived); err != nil {
		return nil, err
	}

	if _, err := r.privKeyCache.Put(id, &cachedKey{key: derived}); err != nil {
		log.Warnf("Unable to cache private key %s: %v", id, err)
	}
	return copyPrivateKey(derived)
}

// Zero removes all master keys from the ring and clears their material.
func (r *Ring) Zero() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for fingerprint, master := range r.masters {
		master.Zero()
		delete(r.masters, fingerprint)
	}
	r.privKeyCache = lru.NewCache[derivationPath, *cachedKey](r.cacheSize)
}

var _ descriptor.PrivateKeyProvider = (*Ring)(nil)
