package hash

import (
	"crypto/sha256"
	"encoding/binary"

	"github.com/wooyang2018/govchain/common/cache"
	"golang.org/x/crypto/blake2b"
)

var selectorCache = cache.NewLRUCache(1024)

func HashUsingSha256(data []byte) []byte {
	h := sha256.New()
	h.Write(data)
	out := h.Sum(nil)

	return out
}

func HashUsingBlake2b256(data []byte) []byte {
	out := blake2b.Sum256(data)
	return out[:]
}

// Selector derives a 4 byte identifier from a name: the first four bytes of
// its BLAKE2b-256 digest read big-endian.
func Selector(name string) uint32 {
	if v, ok := selectorCache.Get(name); ok {
		return v.(uint32)
	}
	sel := binary.BigEndian.Uint32(HashUsingBlake2b256([]byte(name))[:4])
	selectorCache.Add(name, sel)
	return sel
}
