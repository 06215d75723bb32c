package sandbox

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wooyang2018/govchain/contract/base"
	"github.com/wooyang2018/govchain/storage"
	"github.com/wooyang2018/govchain/storage/memory"
)

func collect(t *testing.T, it base.Iterator) map[string]string {
	t.Helper()
	defer it.Close()
	out := make(map[string]string)
	var last string
	for it.Next() {
		k := string(it.Key())
		require.True(t, last == "" || last < k, "iteration must be ordered")
		last = k
		out[k] = string(it.Value())
	}
	require.NoError(t, it.Error())
	return out
}

func newBase(t *testing.T) (storage.Database, *XMCache) {
	db := memory.NewMemDatabase()
	require.NoError(t, db.Put(MakeRawKey("b", []byte("k1")), []byte("v1")))
	require.NoError(t, db.Put(MakeRawKey("b", []byte("k3")), []byte("v3")))
	require.NoError(t, db.Put(MakeRawKey("c", []byte("k1")), []byte("other")))
	return db, NewXMCache(NewDBReader(db))
}

func TestXMCacheReadThrough(t *testing.T) {
	_, mc := newBase(t)

	v, err := mc.Get("b", []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))

	require.NoError(t, mc.Put("b", []byte("k2"), []byte("v2")))
	require.NoError(t, mc.Del("b", []byte("k3")))

	_, err = mc.Get("b", []byte("k3"))
	require.ErrorIs(t, err, storage.ErrNotFound)

	it, err := mc.Select("b", nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k1": "v1", "k2": "v2"}, collect(t, it))
}

func TestXMCacheForkMergeDiscard(t *testing.T) {
	_, mc := newBase(t)

	child := mc.Fork()
	require.NoError(t, child.Put("b", []byte("k4"), []byte("v4")))
	require.NoError(t, child.Del("b", []byte("k1")))

	// parent does not see child writes before merge
	_, err := mc.Get("b", []byte("k4"))
	require.ErrorIs(t, err, storage.ErrNotFound)
	v, err := mc.Get("b", []byte("k1"))
	require.NoError(t, err)
	require.Equal(t, "v1", string(v))

	// a dropped child leaves no trace
	dropped := mc.Fork()
	require.NoError(t, dropped.Put("b", []byte("k9"), []byte("v9")))

	require.NoError(t, mc.Merge(child))
	it, err := mc.Select("b", nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k3": "v3", "k4": "v4"}, collect(t, it))

	require.Error(t, child.Merge(mc))
}

func TestXMCacheCommit(t *testing.T) {
	db, mc := newBase(t)
	require.NoError(t, mc.Put("b", []byte("k2"), []byte("v2")))
	require.NoError(t, mc.Del("b", []byte("k1")))
	require.Equal(t, 2, mc.WriteCount())

	batch := db.NewBatch()
	require.NoError(t, mc.Commit(batch))
	require.NoError(t, batch.Write())

	fresh := NewXMCache(NewDBReader(db))
	it, err := fresh.Select("b", nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k2": "v2", "k3": "v3"}, collect(t, it))

	it, err = fresh.Select("c", nil, nil)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k1": "other"}, collect(t, it))
}

func TestXMCacheSelectRange(t *testing.T) {
	_, mc := newBase(t)
	require.NoError(t, mc.Put("b", []byte("k2"), []byte("v2")))

	it, err := mc.Select("b", []byte("k2"), []byte("k3"))
	require.NoError(t, err)
	require.Equal(t, map[string]string{"k2": "v2"}, collect(t, it))
}
