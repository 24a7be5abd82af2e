package bdb

import (
	"github.com/czh0526/btc-descriptors/walletdb"
	"go.etcd.io/bbolt"
)

// bucket is a walletdb bucket backed by a bolt bucket.
type bucket struct {
	boltBucket *bbolt.Bucket
	name       []byte
	tx         *transaction
}

func (b *bucket) Name() []byte {
	return b.name
}

func (b *bucket) nested(key []byte) *bucket {
	boltBucket := b.boltBucket.Bucket(key)
	if boltBucket == nil {
		return nil
	}
	return &bucket{boltBucket: boltBucket, name: key, tx: b.tx}
}

func (b *bucket) NestedReadBucket(key []byte) walletdb.ReadBucket {
	// Return an untyped nil so callers can compare against nil.
	if nb := b.nested(key); nb != nil {
		return nb
	}
	return nil
}

func (b *bucket) NestedReadWriteBucket(key []byte) walletdb.ReadWriteBucket {
	if nb := b.nested(key); nb != nil {
		return nb
	}
	return nil
}

func (b *bucket) ForEach(f func(k, v []byte) error) error {
	return convertErr(b.boltBucket.ForEach(f))
}

func (b *bucket) Get(key []byte) []byte {
	return b.boltBucket.Get(key)
}

func (b *bucket) ReadCursor() walletdb.ReadCursor {
	return b.ReadWriteCursor()
}

func (b *bucket) CreateBucket(key []byte) (walletdb.ReadWriteBucket, error) {
	boltBucket, err := b.boltBucket.CreateBucket(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return &bucket{boltBucket: boltBucket, name: key, tx: b.tx}, nil
}

func (b *bucket) CreateBucketIfNotExists(key []byte) (walletdb.ReadWriteBucket, error) {
	boltBucket, err := b.boltBucket.CreateBucketIfNotExists(key)
	if err != nil {
		return nil, convertErr(err)
	}
	return &bucket{boltBucket: boltBucket, name: key, tx: b.tx}, nil
}

func (b *bucket) DeleteNestedBucket(key []byte) error {
	return convertErr(b.boltBucket.DeleteBucket(key))
}

func (b *bucket) Put(key, value []byte) error {
	return convertErr(b.boltBucket.Put(key, value))
}

func (b *bucket) Delete(key []byte) error {
	return convertErr(b.boltBucket.Delete(key))
}

func (b *bucket) ReadWriteCursor() walletdb.ReadWriteCursor {
	return (*cursor)(b.boltBucket.Cursor())
}

func (b *bucket) Tx() walletdb.ReadWriteTx {
	return b.tx
}

func (b *bucket) NextSequence() (uint64, error) {
	seq, err := b.boltBucket.NextSequence()
	return seq, convertErr(err)
}

func (b *bucket) SetSequence(v uint64) error {
	return convertErr(b.boltBucket.SetSequence(v))
}

func (b *bucket) Sequence() uint64 {
	return b.boltBucket.Sequence()
}

var _ walletdb.ReadWriteBucket = (*bucket)(nil)

// cursor is a walletdb cursor backed by a bolt cursor.
type cursor bbolt.Cursor

func (c *cursor) First() (key, value []byte) {
	return (*bbolt.Cursor)(c).First()
}

func (c *cursor) Last() (key, value []byte) {
	return (*bbolt.Cursor)(c).Last()
}

func (c *cursor) Next() (key, value []byte) {
	return (*bbolt.Cursor)(c).Next()
}

func (c *cursor) Prev() (key, value []byte) {
	return (*bbolt.Cursor)(c).Prev()
}

func (c *cursor) Seek(seek []byte) (key, value []byte) {
	return (*bbolt.Cursor)(c).Seek(seek)
}

func (c *cursor) Delete() error {
	return convertErr((*bbolt.Cursor)(c).Delete())
}

var _ walletdb.ReadWriteCursor = (*cursor)(nil)
