package output

import (
	"fmt"
	"os"
	"sync"
)

// DirCache creates each directory at most once per process, even when many
// goroutines ask for the same path concurrently.
type DirCache struct {
	// MkdirAll defaults to os.MkdirAll.
	MkdirAll func(path string, perm os.FileMode) error

	mu      sync.Mutex
	entries map[string]*dirEntry
}

type dirEntry struct {
	once sync.Once
	err  error
}

// NewDirCache returns an empty cache backed by os.MkdirAll.
func NewDirCache() *DirCache {
	return &DirCache{entries: make(map[string]*dirEntry)}
}

// Ensure creates path on first use and returns the outcome of that single
// attempt to every caller.
func (c *DirCache) Ensure(path string) error {
	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[string]*dirEntry)
	}
	entry, ok := c.entries[path]
	if !ok {
		entry = &dirEntry{}
		c.entries[path] = entry
	}
	c.mu.Unlock()

	entry.once.Do(func() {
		mkdir := c.MkdirAll
		if mkdir == nil {
			mkdir = os.MkdirAll
		}
		if err := mkdir(path, 0o755); err != nil {
			entry.err = fmt.Errorf("create directory %s: %w", path, err)
		}
	})
	return entry.err
}
