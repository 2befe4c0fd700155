package project

import (
	"cmp"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// SourceExt - расширение исходных файлов.
const SourceExt = ".kx"

// ModuleID identifies a module: the owning package ("" for the package being
// built) plus the canonical path "a::b". Two imports that reach the same file
// always produce equal ModuleIDs.
type ModuleID struct {
	Package string
	Path    string
}

// EntryModule is the root package's program entry (src/main.kx).
var EntryModule = ModuleID{Path: "main"}

// LibModule is the module a bare dependency import resolves to (src/lib.kx).
func LibModule(pkg string) ModuleID {
	return ModuleID{Package: pkg, Path: "lib"}
}

func (m ModuleID) IsZero() bool { return m == ModuleID{} }

// Segments splits Path on "::".
func (m ModuleID) Segments() []string {
	return strings.Split(m.Path, "::")
}

func (m ModuleID) String() string {
	if m.Package == "" {
		return m.Path
	}
	return m.Package + "::" + m.Path
}

// Symbol is a flat identifier usable in binary symbol tables: a::b -> a_b.
func (m ModuleID) Symbol() string {
	return strings.ReplaceAll(m.String(), "::", "_")
}

// RelFile is the module file relative to its package root: src/a/b.kx.
func (m ModuleID) RelFile() string {
	return filepath.Join("src", filepath.Join(m.Segments()...)+SourceExt)
}

// Compare orders the root package first, then by package, then by path.
func Compare(a, b ModuleID) int {
	if a.Package != b.Package {
		switch {
		case a.Package == "":
			return -1
		case b.Package == "":
			return 1
		}
		return cmp.Compare(a.Package, b.Package)
	}
	return cmp.Compare(a.Path, b.Path)
}

// IsValidModuleIdent reports whether name is usable as a path segment or dependency name.
func IsValidModuleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		if r > unicode.MaxASCII {
			return false
		}
		if i == 0 && r != '_' && !unicode.IsLetter(r) {
			return false
		}
		if i > 0 && r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// ModuleOfFile maps a package-relative source path (src/a/b.kx) to its module.
func ModuleOfFile(rel string) (ModuleID, error) {
	rel = filepath.ToSlash(filepath.Clean(rel))
	inner, ok := strings.CutPrefix(rel, "src/")
	if !ok || !strings.HasSuffix(inner, SourceExt) {
		return ModuleID{}, fmt.Errorf("%s: module files live under src/ and end in %s", rel, SourceExt)
	}
	segs := strings.Split(strings.TrimSuffix(inner, SourceExt), "/")
	for _, s := range segs {
		if !IsValidModuleIdent(s) {
			return ModuleID{}, fmt.Errorf("%s: %q is not a valid module name", rel, s)
		}
	}
	return ModuleID{Path: strings.Join(segs, "::")}, nil
}
