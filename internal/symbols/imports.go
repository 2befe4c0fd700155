package symbols

import (
	"knox/internal/ast"
	"knox/internal/project"
	"knox/internal/source"
)

// ImportKind tells what an import binds.
type ImportKind uint8

const (
	// ImportModule binds a module alias: `import a::b`, `import greet`.
	ImportModule ImportKind = iota
	// ImportItem binds one item of a module: `import a::{x}`, `import a::x`.
	ImportItem
)

func (k ImportKind) String() string {
	if k == ImportModule {
		return "module"
	}
	return "item"
}

// ImportBinding is one name bound by an import item, as decided by the resolver.
type ImportBinding struct {
	Local  string
	Kind   ImportKind
	Target project.ModuleID
	Item   string // ImportItem only
	Span   source.Span
	Decl   ast.ItemID
}
