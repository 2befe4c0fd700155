package driver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"knox/internal/project"
)

// DependencyMap answers whether the first segment of an import names a
// dependency and where that dependency lives.
type DependencyMap interface {
	Root(name string) (root string, ok bool)
}

// StaticDeps maps dependency names to package roots.
type StaticDeps map[string]string

func (d StaticDeps) Root(name string) (string, bool) {
	root, ok := d[name]
	return root, ok
}

// DepsLoader returns the dependency map of a dependency package located at root.
type DepsLoader func(root string) (DependencyMap, error)

// ManifestDeps reads root/knox.toml; a package without a manifest has no dependencies.
func ManifestDeps(root string) (DependencyMap, error) {
	path := filepath.Join(root, project.ManifestName)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StaticDeps{}, nil
		}
		return nil, fmt.Errorf("failed to stat %q: %w", path, err)
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		return nil, err
	}
	return StaticDeps(m.DependencyRoots()), nil
}

// StaticDepsLoader serves per-root dependency maps from memory.
func StaticDepsLoader(byRoot map[string]StaticDeps) DepsLoader {
	return func(root string) (DependencyMap, error) {
		if deps, ok := byRoot[root]; ok {
			return deps, nil
		}
		return StaticDeps{}, nil
	}
}

// pkg is a package known to one resolution run.
type pkg struct {
	name string
	root string
	deps DependencyMap
}
