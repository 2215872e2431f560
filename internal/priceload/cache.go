package priceload

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sync"
	"time"
)

// entry is one cached parse of a price-curve file.
type entry struct {
	rows      []Row
	expiresAt time.Time
}

// Cache memoizes Load by file path and modification time, so re-running
// a scenario against the same CSV during a session skips re-parsing,
// in the shape of the teacher's ResponseCache (sha256 key, TTL,
// background cleanup), adapted to file-backed CSV parses instead of
// live API responses.
type Cache struct {
	mu    sync.RWMutex
	store map[string]*entry
	ttl   time.Duration
}

// NewCache returns a Cache with the given TTL and starts its background
// cleanup goroutine.
func NewCache(ttl time.Duration) *Cache {
	c := &Cache{store: make(map[string]*entry), ttl: ttl}
	go c.cleanup()
	return c
}

// Load returns the cached parse of path if present and fresh, otherwise
// parses it via Load, caches, and returns the result.
func (c *Cache) Load(path string) ([]Row, error) {
	key, err := cacheKey(path)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if ok && time.Now().Before(e.expiresAt) {
		return e.rows, nil
	}

	rows, err := Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.store[key] = &entry{rows: rows, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return rows, nil
}

// cacheKey hashes the path together with the file's modification time,
// so an edited file invalidates its cache entry without an explicit
// Clear.
func cacheKey(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat price curve %q: %w", path, err)
	}
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", path, info.ModTime().UnixNano())))
	return hex.EncodeToString(sum[:]), nil
}

func (c *Cache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mu.Lock()
		now := time.Now()
		for k, e := range c.store {
			if now.After(e.expiresAt) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
