package symbols

import (
	"slices"

	"knox/internal/project"
	"knox/internal/source"
	"knox/internal/types"
)

// ModuleTable holds every top-level declaration of one module, public or not.
// Importers go through Exports; the full table lets the checker tell
// "not found" from "not exported".
type ModuleTable struct {
	Module  project.ModuleID
	Funcs   map[string]*Function
	Structs map[string]*Struct
	// Functions lists every fn of the module (free, methods, accessors) in item order.
	Functions []*Function
	Exports   *ModuleExports
}

func NewModuleTable(mod project.ModuleID) *ModuleTable {
	return &ModuleTable{
		Module:  mod,
		Funcs:   make(map[string]*Function),
		Structs: make(map[string]*Struct),
		Exports: NewModuleExports(mod),
	}
}

// Lookup finds a top-level name: a free function or a struct.
func (t *ModuleTable) Lookup(name string) (*Function, *Struct) {
	if fn, ok := t.Funcs[name]; ok {
		return fn, nil
	}
	if st, ok := t.Structs[name]; ok {
		return nil, st
	}
	return nil, nil
}

// DeclSpan returns the declaration span of a top-level name.
func (t *ModuleTable) DeclSpan(name string) (source.Span, bool) {
	fn, st := t.Lookup(name)
	switch {
	case fn != nil:
		return fn.Span, true
	case st != nil:
		return st.Span, true
	}
	return source.Span{}, false
}

// Program is the declaration view of the whole module graph.
type Program struct {
	Types   *types.Interner
	Modules map[project.ModuleID]*ModuleTable
	// StructsByType maps a struct TypeID back to its declaration.
	StructsByType map[types.TypeID]*Struct
	Builtins      map[string]*Function
}

func NewProgram(in *types.Interner) *Program {
	return &Program{
		Types:         in,
		Modules:       make(map[project.ModuleID]*ModuleTable),
		StructsByType: make(map[types.TypeID]*Struct),
		Builtins:      make(map[string]*Function),
	}
}

// Module returns the table of mod, or nil.
func (p *Program) Module(mod project.ModuleID) *ModuleTable {
	return p.Modules[mod]
}

// Struct returns the declaration behind a struct type (references are stripped).
func (p *Program) Struct(id types.TypeID) (*Struct, bool) {
	st, ok := p.StructsByType[p.Types.Deref(id)]
	return st, ok
}

// SortedModules returns module ids in project.Compare order.
func (p *Program) SortedModules() []project.ModuleID {
	out := make([]project.ModuleID, 0, len(p.Modules))
	for id := range p.Modules {
		out = append(out, id)
	}
	slices.SortFunc(out, project.Compare)
	return out
}
