package sandbox

import (
	"bytes"
	"errors"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/storage"
)

const (
	// BucketSeperator separates bucket and key in a raw key
	BucketSeperator = "/"
)

// Reader is the layer underneath a XMCache. Iterators must skip deleted keys.
type Reader interface {
	ReadRaw(rawKey []byte) ([]byte, error)
	IterRaw(start, limit []byte) XIterator
}

// Entry is a pending write; deleted entries hide the value of lower layers.
type Entry struct {
	Value   []byte
	Deleted bool
}

// XMCache is a write overlay on top of a Reader. Writes stay in the overlay
// until they are merged into a parent XMCache or committed to a storage batch.
type XMCache struct {
	parent  Reader
	outputs *treemap.Map
	lock    sync.RWMutex
}

func NewXMCache(parent Reader) *XMCache {
	return &XMCache{
		parent:  parent,
		outputs: treemap.NewWithStringComparator(),
	}
}

// Fork opens a child overlay whose parent is mc.
func (mc *XMCache) Fork() *XMCache {
	return NewXMCache(mc)
}

func (mc *XMCache) Get(bucket string, key []byte) ([]byte, error) {
	return mc.ReadRaw(MakeRawKey(bucket, key))
}

func (mc *XMCache) Put(bucket string, key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	mc.lock.Lock()
	defer mc.lock.Unlock()
	mc.outputs.Put(string(MakeRawKey(bucket, key)), &Entry{Value: append([]byte{}, value...)})
	return nil
}

func (mc *XMCache) Del(bucket string, key []byte) error {
	mc.lock.Lock()
	defer mc.lock.Unlock()
	mc.outputs.Put(string(MakeRawKey(bucket, key)), &Entry{Deleted: true})
	return nil
}

// Select returns the merged view of the overlay and its parents, ordered by key.
func (mc *XMCache) Select(bucket string, startKey []byte, endKey []byte) (base.Iterator, error) {
	start := MakeRawKey(bucket, startKey)
	var limit []byte
	if len(endKey) == 0 {
		limit = prefixEnd(MakeRawKey(bucket, nil))
	} else {
		limit = MakeRawKey(bucket, endKey)
	}
	return newContractIterator(mc.IterRaw(start, limit), len(bucket)+len(BucketSeperator)), nil
}

func (mc *XMCache) ReadRaw(rawKey []byte) ([]byte, error) {
	mc.lock.RLock()
	v, ok := mc.outputs.Get(string(rawKey))
	mc.lock.RUnlock()
	if ok {
		e := v.(*Entry)
		if e.Deleted {
			return nil, storage.ErrNotFound
		}
		return append([]byte{}, e.Value...), nil
	}
	if mc.parent == nil {
		return nil, storage.ErrNotFound
	}
	return mc.parent.ReadRaw(rawKey)
}

func (mc *XMCache) IterRaw(start, limit []byte) XIterator {
	own := newOutputsIterator(mc.snapshot(start, limit))
	if mc.parent == nil {
		return newStripDelIterator(own)
	}
	return newStripDelIterator(newMultiIterator(own, mc.parent.IterRaw(start, limit)))
}

// snapshot copies the overlay entries within [start, limit).
func (mc *XMCache) snapshot(start, limit []byte) []rawKV {
	mc.lock.RLock()
	defer mc.lock.RUnlock()

	out := make([]rawKV, 0)
	it := mc.outputs.Iterator()
	for it.Next() {
		k := []byte(it.Key().(string))
		if bytes.Compare(k, start) < 0 {
			continue
		}
		if limit != nil && bytes.Compare(k, limit) >= 0 {
			break
		}
		out = append(out, rawKV{key: k, entry: it.Value().(*Entry)})
	}
	return out
}

// Merge applies every write of child to mc. child must have been forked from mc.
func (mc *XMCache) Merge(child *XMCache) error {
	if child.parent != Reader(mc) {
		return errors.New("merge: sandbox is not a child of this cache")
	}
	child.lock.RLock()
	defer child.lock.RUnlock()
	mc.lock.Lock()
	defer mc.lock.Unlock()

	it := child.outputs.Iterator()
	for it.Next() {
		mc.outputs.Put(it.Key(), it.Value())
	}
	return nil
}

// Commit writes the overlay into batch. Deleted keys become batch deletes.
func (mc *XMCache) Commit(batch storage.Batch) error {
	mc.lock.RLock()
	defer mc.lock.RUnlock()

	it := mc.outputs.Iterator()
	for it.Next() {
		key := []byte(it.Key().(string))
		e := it.Value().(*Entry)
		var err error
		if e.Deleted {
			err = batch.Delete(key)
		} else {
			err = batch.Put(key, e.Value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteCount returns the number of keys touched by the overlay.
func (mc *XMCache) WriteCount() int {
	mc.lock.RLock()
	defer mc.lock.RUnlock()
	return mc.outputs.Size()
}

// MakeRawKey joins bucket and key into a storage key.
func MakeRawKey(bucket string, key []byte) []byte {
	k := append([]byte(bucket), []byte(BucketSeperator)...)
	return append(k, key...)
}

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
