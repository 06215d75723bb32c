package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/wooyang2018/govchain/storage"
)

func TestLDBDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state")
	db, err := storage.CreateDB(DriverName, path, nil)
	if err != nil {
		t.Fatal(err)
	}

	batch := db.NewBatch()
	batch.Put([]byte("p/1"), []byte("a"))
	batch.Put([]byte("p/2"), []byte("b"))
	batch.Put([]byte("q/1"), []byte("c"))
	if err := batch.Write(); err != nil {
		t.Fatal(err)
	}
	db.Close()

	// reopen and check durability
	db, err = storage.CreateDB(DriverName, path, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("missing")); err != storage.ErrNotFound {
		t.Fatalf("expect ErrNotFound, got %v", err)
	}
	it := db.NewIteratorWithPrefix([]byte("p/"))
	defer it.Release()
	n := 0
	for it.Next() {
		n++
	}
	if n != 2 {
		t.Fatalf("expect 2 keys, got %d", n)
	}
}
