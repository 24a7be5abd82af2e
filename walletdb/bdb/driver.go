// Package bdb registers the bolt backed walletdb driver "bdb".
//
// Create and Open take three arguments: the database path, whether to skip
// syncing the freelist, and how long to wait for the file lock.
package bdb

import (
	"fmt"
	"time"

	"github.com/czh0526/btc-descriptors/walletdb"
)

const (
	dbType = "bdb"
)

func parseArgs(funcName string,
	args ...interface{}) (string, bool, time.Duration, error) {

	if len(args) != 3 {
		return "", false, 0, fmt.Errorf("invalid arguments to %s.%s "+
			"-- expected database path, no-freelist-sync and "+
			"timeout option", dbType, funcName)
	}

	dbPath, ok := args[0].(string)
	if !ok {
		return "", false, 0, fmt.Errorf("first argument to %s.%s is "+
			"invalid -- expected database path string", dbType,
			funcName)
	}

	noFreelistSync, ok := args[1].(bool)
	if !ok {
		return "", false, 0, fmt.Errorf("second argument to %s.%s is "+
			"invalid -- expected no-freelist-sync bool", dbType,
			funcName)
	}

	timeout, ok := args[2].(time.Duration)
	if !ok {
		return "", false, 0, fmt.Errorf("third argument to %s.%s is "+
			"invalid -- expected timeout time.Duration", dbType,
			funcName)
	}

	return dbPath, noFreelistSync, timeout, nil
}

func driverFunc(funcName string, create bool) func(...interface{}) (walletdb.DB, error) {
	return func(args ...interface{}) (walletdb.DB, error) {
		dbPath, noFreelistSync, timeout, err := parseArgs(funcName, args...)
		if err != nil {
			return nil, err
		}
		return openDB(dbPath, noFreelistSync, create, timeout)
	}
}

func init() {
	driver := walletdb.Driver{
		DBType: dbType,
		Create: driverFunc("Create", true),
		Open:   driverFunc("Open", false),
	}

	if err := walletdb.RegisterDriver(driver); err != nil {
		panic(fmt.Sprintf("Failed to register database driver '%s': %v",
			dbType, err))
	}
}
