package sandbox

import (
	"github.com/wooyang2018/govchain/storage"
)

// DBReader exposes committed storage as the bottom Reader of a sandbox stack.
type DBReader struct {
	db storage.Database
}

func NewDBReader(db storage.Database) *DBReader {
	return &DBReader{db: db}
}

func (r *DBReader) ReadRaw(rawKey []byte) ([]byte, error) {
	return r.db.Get(rawKey)
}

func (r *DBReader) IterRaw(start, limit []byte) XIterator {
	return &dbIterator{it: r.db.NewIteratorWithRange(start, limit)}
}

type dbIterator struct {
	it storage.Iterator
}

func (d *dbIterator) Key() []byte {
	return append([]byte{}, d.it.Key()...)
}

func (d *dbIterator) Value() *Entry {
	return &Entry{Value: append([]byte{}, d.it.Value()...)}
}

func (d *dbIterator) Next() bool {
	return d.it.Next()
}

func (d *dbIterator) Error() error {
	return d.it.Error()
}

func (d *dbIterator) Close() {
	d.it.Release()
}
