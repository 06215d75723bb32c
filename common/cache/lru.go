package cache

import (
	lru "github.com/hashicorp/golang-lru"
)

// LRUCache is a fixed size, goroutine safe cache.
type LRUCache struct {
	c *lru.Cache
}

func NewLRUCache(size int) *LRUCache {
	c, err := lru.New(size)
	if err != nil {
		panic(err)
	}
	return &LRUCache{c: c}
}

func (l *LRUCache) Add(key, value interface{}) {
	l.c.Add(key, value)
}

func (l *LRUCache) Get(key interface{}) (interface{}, bool) {
	return l.c.Get(key)
}

func (l *LRUCache) Del(key interface{}) {
	l.c.Remove(key)
}

func (l *LRUCache) Len() int {
	return l.c.Len()
}
