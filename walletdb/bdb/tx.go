package bdb

import (
	"github.com/czh0526/btc-descriptors/walletdb"
	"go.etcd.io/bbolt"
)

type transaction struct {
	boltTx *bbolt.Tx
}

func (tx *transaction) ForEachBucket(fn func(key []byte) error) error {
	return convertErr(tx.boltTx.ForEach(
		func(name []byte, _ *bbolt.Bucket) error {
			return fn(name)
		}),
	)
}

func (tx *transaction) CreateTopLevelBucket(key []byte) (walletdb.ReadWriteBucket, error) {
	boltBucket, err := tx.boltTx.CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return &bucket{boltBucket: boltBucket, name: key, tx: tx}, nil
}

func (tx *transaction) DeleteTopLevelBucket(key []byte) error {
	return convertErr(tx.boltTx.DeleteBucket(key))
}

func (tx *transaction) ReadBucket(key []byte) walletdb.ReadBucket {
	if b := tx.bucket(key); b != nil {
		return b
	}
	return nil
}

func (tx *transaction) ReadWriteBucket(key []byte) walletdb.ReadWriteBucket {
	if b := tx.bucket(key); b != nil {
		return b
	}
	return nil
}

func (tx *transaction) bucket(key []byte) *bucket {
	boltBucket := tx.boltTx.Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return &bucket{boltBucket: boltBucket, name: key, tx: tx}
}

func (tx *transaction) Commit() error {
	return convertErr(tx.boltTx.Commit())
}

func (tx *transaction) Rollback() error {
	return convertErr(tx.boltTx.Rollback())
}

func (tx *transaction) OnCommit(f func()) {
	tx.boltTx.OnCommit(f)
}

var _ walletdb.ReadWriteTx = (*transaction)(nil)
