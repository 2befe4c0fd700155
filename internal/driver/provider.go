package driver

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by a SourceProvider when the module file does not exist.
var ErrNotFound = errors.New("module source not found")

// SourceProvider loads module sources. rel is the module file relative to the
// package root (src/a/b.kx). A missing file must yield an error wrapping ErrNotFound.
type SourceProvider interface {
	Read(root, rel string) (path string, content []byte, err error)
}

// FSProvider reads modules from disk.
type FSProvider struct{}

func (FSProvider) Read(root, rel string) (string, []byte, error) {
	path := filepath.Join(root, rel)
	// #nosec G304 -- path is built from the package root and a validated module path
	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return path, nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return path, nil, err
	}
	return path, content, nil
}

// MemProvider serves sources from memory; keys are slash separated
// "<root>/<rel>" paths. Used by tests and by stdin builds.
type MemProvider struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemProvider() *MemProvider {
	return &MemProvider{files: make(map[string][]byte)}
}

// Add registers content for root/rel; rel uses "/" (e.g. "src/main.kx").
func (p *MemProvider) Add(root, rel, content string) *MemProvider {
	p.mu.Lock()
	p.files[memKey(root, rel)] = []byte(content)
	p.mu.Unlock()
	return p
}

func (p *MemProvider) Read(root, rel string) (string, []byte, error) {
	key := memKey(root, rel)
	p.mu.RLock()
	content, ok := p.files[key]
	p.mu.RUnlock()
	if !ok {
		return key, nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	return key, content, nil
}

func memKey(root, rel string) string {
	return filepath.ToSlash(filepath.Join(root, filepath.FromSlash(rel)))
}
