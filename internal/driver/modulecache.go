package driver

import (
	"sync"
	"sync/atomic"

	"knox/internal/project"
)

type cacheEntry struct {
	done chan struct{}
	mod  *Module
	err  error
}

// ModuleCache is the single point of truth for parsed modules of one run.
// The first caller to claim a ModuleID parses it; concurrent callers for the
// same id wait for that result instead of parsing again.
type ModuleCache struct {
	mu     sync.Mutex
	byMod  map[project.ModuleID]*cacheEntry
	parses atomic.Int64
}

// NewModuleCache creates a ModuleCache with the given capacity hint.
func NewModuleCache(capHint int) *ModuleCache {
	return &ModuleCache{byMod: make(map[project.ModuleID]*cacheEntry, capHint)}
}

// Load returns the module for id, running parse only if nobody claimed id before.
// fresh reports whether this call performed the parse.
func (c *ModuleCache) Load(id project.ModuleID, parse func() (*Module, error)) (mod *Module, fresh bool, err error) {
	c.mu.Lock()
	entry, ok := c.byMod[id]
	if !ok {
		entry = &cacheEntry{done: make(chan struct{})}
		c.byMod[id] = entry
	}
	c.mu.Unlock()

	if ok {
		<-entry.done
		return entry.mod, false, entry.err
	}

	entry.mod, entry.err = parse()
	if entry.mod != nil {
		c.parses.Add(1)
	}
	close(entry.done)
	return entry.mod, true, entry.err
}

// Get returns a finished module without claiming it.
func (c *ModuleCache) Get(id project.ModuleID) (*Module, bool) {
	c.mu.Lock()
	entry, ok := c.byMod[id]
	c.mu.Unlock()
	if !ok {
		return nil, false
	}
	select {
	case <-entry.done:
		return entry.mod, entry.mod != nil
	default:
		return nil, false
	}
}

// ParseCount reports how many modules the cache parsed.
func (c *ModuleCache) ParseCount() int {
	return int(c.parses.Load())
}

// Len reports how many ids were claimed.
func (c *ModuleCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.byMod)
}
