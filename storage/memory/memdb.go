package memory

import (
	"sync"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/wooyang2018/govchain/storage"
)

const DriverName = "memory"

func init() {
	storage.Register(DriverName, func() storage.Database {
		return NewMemDatabase()
	})
}

// MemDatabase keeps the whole key space in a goleveldb skiplist. It is used
// by tests and throwaway simulations.
type MemDatabase struct {
	db *memdb.DB
	mu sync.Mutex // serializes batch writes
}

func NewMemDatabase() *MemDatabase {
	return &MemDatabase{db: memdb.New(comparer.DefaultComparer, 0)}
}

func (m *MemDatabase) Open(path string, options map[string]interface{}) error {
	return nil
}

func (m *MemDatabase) Put(key []byte, value []byte) error {
	return m.db.Put(key, value)
}

func (m *MemDatabase) Get(key []byte) ([]byte, error) {
	v, err := m.db.Get(key)
	if err == memdb.ErrNotFound {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return append([]byte{}, v...), nil
}

func (m *MemDatabase) Has(key []byte) (bool, error) {
	return m.db.Contains(key), nil
}

func (m *MemDatabase) Delete(key []byte) error {
	err := m.db.Delete(key)
	if err == memdb.ErrNotFound {
		return nil
	}
	return err
}

func (m *MemDatabase) Close() {
	m.db.Reset()
}

func (m *MemDatabase) NewIteratorWithRange(start []byte, limit []byte) storage.Iterator {
	return m.db.NewIterator(&util.Range{Start: start, Limit: limit})
}

func (m *MemDatabase) NewIteratorWithPrefix(prefix []byte) storage.Iterator {
	return m.db.NewIterator(util.BytesPrefix(prefix))
}

func (m *MemDatabase) NewBatch() storage.Batch {
	return &MemBatch{db: m, keys: map[string]bool{}}
}

type kv struct {
	k, v []byte
	del  bool
}

// MemBatch buffers writes until Write applies them in order.
type MemBatch struct {
	db     *MemDatabase
	writes []kv
	size   int
	keys   map[string]bool
}

func (b *MemBatch) Put(key, value []byte) error {
	b.writes = append(b.writes, kv{append([]byte{}, key...), append([]byte{}, value...), false})
	b.keys[string(key)] = true
	b.size += len(value)
	return nil
}

func (b *MemBatch) Delete(key []byte) error {
	b.writes = append(b.writes, kv{append([]byte{}, key...), nil, true})
	b.keys[string(key)] = true
	b.size += len(key)
	return nil
}

func (b *MemBatch) PutIfAbsent(key, value []byte) error {
	if !b.keys[string(key)] {
		return b.Put(key, value)
	}
	return nil
}

func (b *MemBatch) Exist(key []byte) bool {
	return b.keys[string(key)]
}

func (b *MemBatch) ValueSize() int {
	return b.size
}

func (b *MemBatch) Write() error {
	b.db.mu.Lock()
	defer b.db.mu.Unlock()
	for _, w := range b.writes {
		if w.del {
			if err := b.db.Delete(w.k); err != nil {
				return err
			}
			continue
		}
		if err := b.db.Put(w.k, w.v); err != nil {
			return err
		}
	}
	return nil
}

func (b *MemBatch) Reset() {
	b.writes = b.writes[:0]
	b.size = 0
	b.keys = map[string]bool{}
}
