package descstore

import (
	"github.com/czh0526/btc-descriptors/walletdb"
	"github.com/czh0526/btc-descriptors/walletdb/migration"
)

// versions lists every schema version of the store. Version 1 is the layout
// written by Create.
var versions = []migration.Version{
	{
		Number:    1,
		Migration: nil,
	},
	{
		Number:    2,
		Migration: dropEmptyIndexBuckets,
	},
}

func latestVersion() uint32 {
	return migration.GetLatestVersion(versions)
}

// dropEmptyIndexBuckets removes index buckets left behind by descriptors
// that were deleted before DeleteDescriptor cleaned up their counters.
func dropEmptyIndexBuckets(ns walletdb.ReadWriteBucket) error {
	descs := ns.NestedReadBucket(descriptorsBucketName)
	indexes := ns.NestedReadWriteBucket(indexesBucketName)
	if descs == nil || indexes == nil {
		return storeError(ErrDatabase, "missing store buckets", nil)
	}

	var orphans [][]byte
	err := indexes.ForEach(func(k, v []byte) error {
		if v == nil && descs.Get(k) == nil {
			orphans = append(orphans, append([]byte(nil), k...))
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, name := range orphans {
		log.Debugf("Dropping orphaned indexes of %s", name)
		if err := indexes.DeleteNestedBucket(name); err != nil {
			return err
		}
	}
	return nil
}

// migrationManager exposes a store namespace to the migration package.
type migrationManager struct {
	ns walletdb.ReadWriteBucket
}

func (m *migrationManager) Name() string {
	return "descriptor store"
}

func (m *migrationManager) Namespace() walletdb.ReadWriteBucket {
	return m.ns
}

func (m *migrationManager) CurrentVersion(ns walletdb.ReadBucket) (uint32, error) {
	return fetchVersion(ns)
}

func (m *migrationManager) SetVersion(ns walletdb.ReadWriteBucket,
	version uint32) error {

	return putVersion(ns, version)
}

func (m *migrationManager) Versions() []migration.Version {
	return versions
}

var _ migration.Manager = (*migrationManager)(nil)

// Upgrade migrates the store in ns to the latest schema version.
func Upgrade(ns walletdb.ReadWriteBucket) error {
	if !Exists(ns) {
		return storeError(ErrNoExist, "store does not exist", nil)
	}
	return migration.Upgrade(&migrationManager{ns: ns})
}
