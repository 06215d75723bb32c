package leveldb

import (
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/errors"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/wooyang2018/govchain/storage"
)

const DriverName = "leveldb"

func init() {
	storage.Register(DriverName, func() storage.Database {
		return new(LDBDatabase)
	})
}

// LDBDatabase define data structure of storage
type LDBDatabase struct {
	fn string
	db *leveldb.DB
}

func setDefaultOptions(options map[string]interface{}) {
	if _, ok := options["cache"].(int); !ok {
		options["cache"] = 16
	}
	if _, ok := options["fds"].(int); !ok {
		options["fds"] = 16
	}
}

// Open opens an instance of LDB with parameters (ldb path and other options)
func (ldb *LDBDatabase) Open(path string, options map[string]interface{}) error {
	setDefaultOptions(options)
	cache := options["cache"].(int)
	fds := options["fds"].(int)

	db, err := leveldb.OpenFile(path, &opt.Options{
		OpenFilesCacheCapacity: fds,
		BlockCacheCapacity:     cache / 2 * opt.MiB,
		WriteBuffer:            cache / 4 * opt.MiB, // Two of these are used internally
		Filter:                 filter.NewBloomFilter(10),
	})
	if _, corrupted := err.(*errors.ErrCorrupted); corrupted {
		return err
	}
	// (Re)check for errors and abort if opening of the db failed
	if err != nil {
		return err
	}
	ldb.fn = path
	ldb.db = db
	return nil
}

// Path returns the path to the database directory.
func (ldb *LDBDatabase) Path() string {
	return ldb.fn
}

func (ldb *LDBDatabase) Put(key []byte, value []byte) error {
	return ldb.db.Put(key, value, nil)
}

func (ldb *LDBDatabase) Has(key []byte) (bool, error) {
	return ldb.db.Has(key, nil)
}

// Get returns storage.ErrNotFound for absent keys.
func (ldb *LDBDatabase) Get(key []byte) ([]byte, error) {
	dat, err := ldb.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return dat, nil
}

func (ldb *LDBDatabase) Delete(key []byte) error {
	return ldb.db.Delete(key, nil)
}

func (ldb *LDBDatabase) Close() {
	ldb.db.Close()
}

func (ldb *LDBDatabase) NewIteratorWithRange(start []byte, limit []byte) storage.Iterator {
	keyRange := &util.Range{Start: start, Limit: limit}
	return ldb.db.NewIterator(keyRange, nil)
}

func (ldb *LDBDatabase) NewIteratorWithPrefix(prefix []byte) storage.Iterator {
	return ldb.db.NewIterator(util.BytesPrefix(prefix), nil)
}

func (ldb *LDBDatabase) NewBatch() storage.Batch {
	return &LDBBatch{db: ldb.db, b: new(leveldb.Batch), keys: map[string]bool{}}
}

// LDBBatch define batch data structure
type LDBBatch struct {
	db   *leveldb.DB
	b    *leveldb.Batch
	size int
	keys map[string]bool
}

func (b *LDBBatch) Put(key, value []byte) error {
	b.b.Put(key, value)
	b.keys[string(key)] = true
	b.size += len(value)
	return nil
}

func (b *LDBBatch) Delete(key []byte) error {
	b.b.Delete(key)
	b.keys[string(key)] = true
	b.size += len(key)
	return nil
}

// PutIfAbsent puts the key only if the batch has not touched it yet.
func (b *LDBBatch) PutIfAbsent(key, value []byte) error {
	if !b.keys[string(key)] {
		return b.Put(key, value)
	}
	return nil
}

func (b *LDBBatch) Exist(key []byte) bool {
	return b.keys[string(key)]
}

func (b *LDBBatch) Write() error {
	return b.db.Write(b.b, nil)
}

func (b *LDBBatch) ValueSize() int {
	return b.size
}

func (b *LDBBatch) Reset() {
	b.b.Reset()
	b.size = 0
	b.keys = map[string]bool{}
}
