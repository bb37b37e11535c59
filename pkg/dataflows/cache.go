package dataflows

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// tokenCache keeps token metadata, which almost never changes, in memory
// and in one JSON file per symbol under dir. Order books and prices are
// never cached.
type tokenCache struct {
	dir string
	ttl time.Duration

	mu  sync.RWMutex
	mem map[string]cachedToken
}

type cachedToken struct {
	Row     tokenRow  `json:"row"`
	Fetched time.Time `json:"fetched"`
}

// newTokenCache returns a memory-only cache when dir is empty.
func newTokenCache(dir string, ttl time.Duration) *tokenCache {
	return &tokenCache{dir: dir, ttl: ttl, mem: make(map[string]cachedToken)}
}

func (c *tokenCache) file(symbol string) string {
	return filepath.Join(c.dir, "token_"+strings.ReplaceAll(symbol, ".", "_")+".json")
}

func (c *tokenCache) get(symbol string) (tokenRow, bool) {
	c.mu.RLock()
	entry, ok := c.mem[symbol]
	c.mu.RUnlock()

	if !ok && c.dir != "" {
		raw, err := os.ReadFile(c.file(symbol))
		if err == nil && json.Unmarshal(raw, &entry) == nil {
			ok = true
			c.mu.Lock()
			c.mem[symbol] = entry
			c.mu.Unlock()
		}
	}
	if !ok || time.Since(entry.Fetched) > c.ttl {
		return tokenRow{}, false
	}
	return entry.Row, true
}

func (c *tokenCache) put(symbol string, row tokenRow) error {
	entry := cachedToken{Row: row, Fetched: time.Now()}
	c.mu.Lock()
	c.mem[symbol] = entry
	c.mu.Unlock()

	if c.dir == "" {
		return nil
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return os.WriteFile(c.file(symbol), raw, 0o644)
}
