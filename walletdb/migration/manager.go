// Package migration applies versioned upgrades to the namespaces stored in a
// walletdb database.
package migration

import (
	"errors"
	"fmt"
	"sort"

	"github.com/czh0526/btc-descriptors/walletdb"
)

var (
	// ErrReversion is returned when the stored version is newer than the
	// latest version the running code knows about.
	ErrReversion = errors.New("reverting to a previous version is not " +
		"supported")
)

// Version is a single step in a namespace's upgrade path.
type Version struct {
	Number    uint32
	Migration func(walletdb.ReadWriteBucket) error
}

// Manager describes a namespace that can be upgraded.
type Manager interface {
	// Name identifies the namespace in log output.
	Name() string

	// Namespace returns the top-level bucket of the namespace.
	Namespace() walletdb.ReadWriteBucket

	// CurrentVersion returns the version stored in ns.
	CurrentVersion(ns walletdb.ReadBucket) (uint32, error)

	// SetVersion records a new version in ns.
	SetVersion(ns walletdb.ReadWriteBucket, version uint32) error

	// Versions returns every known version, including those without a
	// migration.
	Versions() []Version
}

// GetLatestVersion returns the highest version number in versions.
func GetLatestVersion(versions []Version) uint32 {
	var latest uint32
	for _, v := range versions {
		if v.Number > latest {
			latest = v.Number
		}
	}
	return latest
}

// VersionsToApply returns the versions newer than current, sorted in the
// order they should run.
func VersionsToApply(current uint32, versions []Version) []Version {
	var toApply []Version
	for _, v := range versions {
		if v.Number > current {
			toApply = append(toApply, v)
		}
	}
	sort.Slice(toApply, func(i, j int) bool {
		return toApply[i].Number < toApply[j].Number
	})
	return toApply
}

// Upgrade brings every manager up to its latest version. The caller owns the
// enclosing transaction, so a failed migration leaves no partial state once
// that transaction is rolled back.
func Upgrade(mgrs ...Manager) error {
	for _, mgr := range mgrs {
		if err := upgrade(mgr); err != nil {
			return err
		}
	}
	return nil
}

func upgrade(mgr Manager) error {
	ns := mgr.Namespace()
	if ns == nil {
		return fmt.Errorf("unable to upgrade %v: namespace bucket "+
			"missing", mgr.Name())
	}

	current, err := mgr.CurrentVersion(ns)
	if err != nil {
		return fmt.Errorf("unable to read %v version: %w", mgr.Name(),
			err)
	}

	versions := mgr.Versions()
	latest := GetLatestVersion(versions)
	switch {
	case current == latest:
		return nil

	case current > latest:
		log.Errorf("Refusing to revert %v from version %d to %d",
			mgr.Name(), current, latest)
		return ErrReversion
	}

	log.Infof("Upgrading %v from version %d to %d", mgr.Name(), current,
		latest)

	for _, version := range VersionsToApply(current, versions) {
		if version.Migration != nil {
			log.Infof("Applying %v migration #%d", mgr.Name(),
				version.Number)
			if err := version.Migration(ns); err != nil {
				return fmt.Errorf("unable to apply %v migration "+
					"#%d: %w", mgr.Name(), version.Number,
					err)
			}
		}

		if err := mgr.SetVersion(ns, version.Number); err != nil {
			return fmt.Errorf("unable to set %v version to %d: %w",
				mgr.Name(), version.Number, err)
		}
	}

	return nil
}
