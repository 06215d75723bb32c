// KV database interface
package storage

import (
	"errors"
	"fmt"
	"sync"
)

var ErrNotFound = errors.New("storage: key not found")

// Iterator迭代器
type Iterator interface {
	Key() []byte
	Value() []byte
	Next() bool
	Prev() bool
	Last() bool
	First() bool
	Error() error
	Release()
}

// Database KV数据库的接口
type Database interface {
	Open(path string, options map[string]interface{}) error
	Put(key []byte, value []byte) error
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Delete(key []byte) error
	Close()
	NewBatch() Batch
	NewIteratorWithRange(start []byte, limit []byte) Iterator
	NewIteratorWithPrefix(prefix []byte) Iterator
}

// Batch Batch操作的接口
type Batch interface {
	ValueSize() int
	Write() error
	Reset()
	Put(key []byte, value []byte) error
	Delete(key []byte) error
	PutIfAbsent(key []byte, value []byte) error
	Exist(key []byte) bool
}

type NewDatabaseFunc func() Database

var (
	driverMutex sync.Mutex
	drivers     = make(map[string]NewDatabaseFunc)
)

// Register makes a storage driver available by name. It panics on duplicates.
func Register(name string, f NewDatabaseFunc) {
	driverMutex.Lock()
	defer driverMutex.Unlock()

	if _, exists := drivers[name]; exists {
		panic(fmt.Sprintf("storage driver %s exists", name))
	}
	drivers[name] = f
}

// CreateDB opens a database with the named driver.
func CreateDB(name, path string, options map[string]interface{}) (Database, error) {
	driverMutex.Lock()
	f, ok := drivers[name]
	driverMutex.Unlock()
	if !ok {
		return nil, fmt.Errorf("storage driver %s not exists", name)
	}

	db := f()
	if options == nil {
		options = make(map[string]interface{})
	}
	if err := db.Open(path, options); err != nil {
		return nil, fmt.Errorf("open %s database failed.path:%s err:%v", name, path, err)
	}
	return db, nil
}
