package service

import (
	"strings"

	keysDomain "github.com/allisson/keystorage/internal/keys/domain"
)

// KeyCache maps storage paths to key bytes for the lifetime of one key store.
//
// An entry is only ever added after a successful backend read or write. The
// cache is not synchronized: it belongs to exactly one store instance, which
// is used by one request or session at a time.
type KeyCache struct {
	entries map[string][]byte
}

// NewKeyCache creates an empty KeyCache.
func NewKeyCache() *KeyCache {
	return &KeyCache{entries: make(map[string][]byte)}
}

// Get returns a copy of the cached key at path.
func (c *KeyCache) Get(path string) ([]byte, bool) {
	key, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	return append([]byte{}, key...), true
}

// Put stores a copy of key at path, replacing any previous entry.
func (c *KeyCache) Put(path string, key []byte) {
	if old, ok := c.entries[path]; ok {
		keysDomain.Zero(old)
	}
	c.entries[path] = append([]byte{}, key...)
}

// Evict removes the entry at path. It is a no-op if the path is not cached.
func (c *KeyCache) Evict(path string) {
	if key, ok := c.entries[path]; ok {
		keysDomain.Zero(key)
		delete(c.entries, path)
	}
}

// EvictPrefix removes every entry whose path starts with prefix.
func (c *KeyCache) EvictPrefix(prefix string) {
	for path := range c.entries {
		if strings.HasPrefix(path, prefix) {
			c.Evict(path)
		}
	}
}

// Len returns the number of cached entries.
func (c *KeyCache) Len() int {
	return len(c.entries)
}

// Close zeroes and drops every cached key.
func (c *KeyCache) Close() {
	for path := range c.entries {
		c.Evict(path)
	}
}
