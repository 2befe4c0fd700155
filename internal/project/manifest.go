package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
)

// ManifestName - имя файла манифеста пакета.
const ManifestName = "knox.toml"

// DefaultEntry is used when [package].entry is absent.
const DefaultEntry = "src/main.kx"

// Dependency is one entry of [dependencies]: name = { path = "..." }.
type Dependency struct {
	Path string `toml:"path"`
}

// Manifest is a parsed knox.toml.
type Manifest struct {
	Path         string
	Root         string
	Name         string
	Version      string
	Entry        string
	Dependencies map[string]Dependency
}

var (
	// ErrPackageSectionMissing indicates that [package] is missing.
	ErrPackageSectionMissing = errors.New("missing [package]")
	// ErrPackageNameMissing indicates that [package].name is missing.
	ErrPackageNameMissing = errors.New("missing [package].name")
)

type manifestFile struct {
	Package struct {
		Name    string `toml:"name"`
		Version string `toml:"version"`
		Entry   string `toml:"entry"`
	} `toml:"package"`
	Dependencies map[string]Dependency `toml:"dependencies"`
}

// LoadManifest parses the knox.toml at path.
func LoadManifest(path string) (*Manifest, error) {
	var raw manifestFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if !meta.IsDefined("package", "name") || raw.Package.Name == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageNameMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %q", path, undecoded[0].String())
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	m := &Manifest{
		Path:         abs,
		Root:         filepath.Dir(abs),
		Name:         raw.Package.Name,
		Version:      raw.Package.Version,
		Entry:        raw.Package.Entry,
		Dependencies: raw.Dependencies,
	}
	if m.Entry == "" {
		m.Entry = DefaultEntry
	}
	if m.Dependencies == nil {
		m.Dependencies = map[string]Dependency{}
	}
	for name, dep := range m.Dependencies {
		if !IsValidModuleIdent(name) {
			return nil, fmt.Errorf("%s: invalid dependency name %q", path, name)
		}
		if dep.Path == "" {
			return nil, fmt.Errorf("%s: dependency %q has no path", path, name)
		}
	}
	return m, nil
}

// DependencyRoots maps dependency names to absolute package roots.
func (m *Manifest) DependencyRoots() map[string]string {
	out := make(map[string]string, len(m.Dependencies))
	for name, dep := range m.Dependencies {
		p := dep.Path
		if !filepath.IsAbs(p) {
			p = filepath.Join(m.Root, p)
		}
		out[name] = filepath.Clean(p)
	}
	return out
}

// DependencyNames returns dependency names sorted.
func (m *Manifest) DependencyNames() []string {
	names := make([]string, 0, len(m.Dependencies))
	for name := range m.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FindManifest walks up from startDir to locate knox.toml.
func FindManifest(startDir string) (path string, ok bool, err error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, ManifestName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}
