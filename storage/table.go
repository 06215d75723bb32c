package storage

// table is a key prefixed view of a Database.
type table struct {
	db     Database
	prefix string
}

// NewTable returns a Database that transparently prefixes every key.
func NewTable(db Database, prefix string) Database {
	return &table{
		db:     db,
		prefix: prefix,
	}
}

func (dt *table) Open(path string, options map[string]interface{}) error {
	return nil
}

func (dt *table) Put(key []byte, value []byte) error {
	return dt.db.Put(append([]byte(dt.prefix), key...), value)
}

func (dt *table) Has(key []byte) (bool, error) {
	return dt.db.Has(append([]byte(dt.prefix), key...))
}

func (dt *table) Get(key []byte) ([]byte, error) {
	return dt.db.Get(append([]byte(dt.prefix), key...))
}

func (dt *table) Delete(key []byte) error {
	return dt.db.Delete(append([]byte(dt.prefix), key...))
}

func (dt *table) Close() {
	// Do nothing; don't close the underlying DB.
}

func (dt *table) NewIteratorWithRange(start []byte, limit []byte) Iterator {
	var ps, pl []byte
	ps = append([]byte(dt.prefix), start...)
	if len(limit) == 0 {
		pl = prefixEnd([]byte(dt.prefix))
	} else {
		pl = append([]byte(dt.prefix), limit...)
	}
	return &tableIterator{Iterator: dt.db.NewIteratorWithRange(ps, pl), skip: len(dt.prefix)}
}

func (dt *table) NewIteratorWithPrefix(prefix []byte) Iterator {
	return &tableIterator{
		Iterator: dt.db.NewIteratorWithPrefix(append([]byte(dt.prefix), prefix...)),
		skip:     len(dt.prefix),
	}
}

func (dt *table) NewBatch() Batch {
	return &tableBatch{dt.db.NewBatch(), dt.prefix}
}

type tableIterator struct {
	Iterator
	skip int
}

func (it *tableIterator) Key() []byte {
	key := it.Iterator.Key()
	if len(key) < it.skip {
		return key
	}
	return key[it.skip:]
}

type tableBatch struct {
	batch  Batch
	prefix string
}

func (tb *tableBatch) Put(key, value []byte) error {
	return tb.batch.Put(append([]byte(tb.prefix), key...), value)
}

func (tb *tableBatch) PutIfAbsent(key, value []byte) error {
	return tb.batch.PutIfAbsent(append([]byte(tb.prefix), key...), value)
}

func (tb *tableBatch) Exist(key []byte) bool {
	return tb.batch.Exist(append([]byte(tb.prefix), key...))
}

func (tb *tableBatch) Delete(key []byte) error {
	return tb.batch.Delete(append([]byte(tb.prefix), key...))
}

func (tb *tableBatch) Write() error {
	return tb.batch.Write()
}

func (tb *tableBatch) ValueSize() int {
	return tb.batch.ValueSize()
}

func (tb *tableBatch) Reset() {
	tb.batch.Reset()
}

// prefixEnd returns the smallest key greater than every key with the prefix.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte{}, prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}
