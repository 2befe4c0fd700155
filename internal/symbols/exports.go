package symbols

import (
	"slices"

	"knox/internal/project"
	"knox/internal/source"
)

// ExportedSymbol captures metadata about a symbol exported from a module.
type ExportedSymbol struct {
	Name   string
	Kind   SymbolKind
	Flags  SymbolFlags
	Span   source.Span
	Func   *Function
	Struct *Struct
}

// ModuleExports is the public-name table importers resolve against.
type ModuleExports struct {
	Module  project.ModuleID
	Symbols map[string]ExportedSymbol
}

// NewModuleExports creates an exports container for the given module.
func NewModuleExports(mod project.ModuleID) *ModuleExports {
	return &ModuleExports{
		Module:  mod,
		Symbols: make(map[string]ExportedSymbol),
	}
}

// Add registers an exported symbol under its textual name.
func (m *ModuleExports) Add(sym ExportedSymbol) {
	if m == nil {
		return
	}
	m.Symbols[sym.Name] = sym
}

// Lookup returns the exported symbol for name.
func (m *ModuleExports) Lookup(name string) (ExportedSymbol, bool) {
	if m == nil {
		return ExportedSymbol{}, false
	}
	sym, ok := m.Symbols[name]
	return sym, ok
}

// Names returns exported names sorted.
func (m *ModuleExports) Names() []string {
	names := make([]string, 0, len(m.Symbols))
	for name := range m.Symbols {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// CollectExports fills t.Exports from its public free functions and structs.
func CollectExports(t *ModuleTable) *ModuleExports {
	t.Exports = NewModuleExports(t.Module)
	for name, fn := range t.Funcs {
		if fn.Public() {
			t.Exports.Add(ExportedSymbol{Name: name, Kind: SymbolFunction, Flags: fn.Flags, Span: fn.Span, Func: fn})
		}
	}
	for name, st := range t.Structs {
		if st.Public() {
			t.Exports.Add(ExportedSymbol{Name: name, Kind: SymbolStruct, Flags: st.Flags, Span: st.Span, Struct: st})
		}
	}
	return t.Exports
}
