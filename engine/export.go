package engine

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/wooyang2018/govchain/engine/base"
	"github.com/wooyang2018/govchain/storage"
)

// StateRecord is one committed key of an exported state dump.
type StateRecord struct {
	Key   string `json:"k"`
	Value []byte `json:"v"`
}

// Export writes every committed key as snappy framed JSON lines, ordered by key.
func (c *Chain) Export(w io.Writer) (int, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if c.closed {
		return 0, base.ErrChainClosed
	}

	sw := snappy.NewBufferedWriter(w)
	enc := json.NewEncoder(sw)
	it := c.db.NewIteratorWithRange(nil, nil)
	defer it.Release()

	n := 0
	for it.Next() {
		rec := &StateRecord{Key: string(it.Key()), Value: append([]byte{}, it.Value()...)}
		if err := enc.Encode(rec); err != nil {
			return n, err
		}
		n++
	}
	if err := it.Error(); err != nil {
		return n, err
	}
	return n, sw.Close()
}

// ReadExport decodes a dump written by Export.
func ReadExport(r io.Reader) ([]*StateRecord, error) {
	scanner := bufio.NewScanner(snappy.NewReader(r))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	out := make([]*StateRecord, 0)
	for scanner.Scan() {
		rec := new(StateRecord)
		if err := json.Unmarshal(scanner.Bytes(), rec); err != nil {
			return nil, fmt.Errorf("decode state record %d failed.err:%v", len(out), err)
		}
		out = append(out, rec)
	}
	return out, scanner.Err()
}

// Import writes a dump into an empty database.
func Import(db storage.Database, records []*StateRecord) error {
	batch := db.NewBatch()
	for _, rec := range records {
		if err := batch.Put([]byte(rec.Key), rec.Value); err != nil {
			return err
		}
	}
	return batch.Write()
}
