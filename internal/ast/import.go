package ast

import (
	"strings"

	"knox/internal/source"
)

// ImportName is one entry of `import a::b::{x, y as z}` or the tail of `import a::b::x as z`.
type ImportName struct {
	Name  string
	Alias string
	Span  source.Span
}

// Local returns the name the import binds in the importing module.
func (n ImportName) Local() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Name
}

// ImportItem covers every import form:
//
//	import a::b            Path=[a b]
//	import a::b as x       Path=[a b] Alias=x
//	import a::b::{x, y}    Path=[a b] Group=true Names=[x y]
//
// Whether `a::b` names a module or item b of module a is decided by the resolver.
type ImportItem struct {
	Path     []string
	PathSpan source.Span
	Alias    string
	Group    bool
	Names    []ImportName
	Span     source.Span
}

// PathString joins the path with "::".
func (imp *ImportItem) PathString() string {
	return strings.Join(imp.Path, "::")
}

func (i *Items) NewImport(imp ImportItem) ItemID {
	payload := i.Imports.Allocate(imp)
	return i.new(ItemImport, imp.Span, PayloadID(payload))
}

func (i *Items) Import(id ItemID) (*ImportItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemImport {
		return nil, false
	}
	return i.Imports.Get(uint32(item.Payload)), true
}
