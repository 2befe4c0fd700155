package sema

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/symbols"
	"knox/internal/types"
)

// importEntry is a checked import binding.
type importEntry struct {
	binding symbols.ImportBinding
	module  *symbols.ModuleTable // ImportModule
	fn      *symbols.Function
	st      *symbols.Struct
	// broken entries were already reported; uses stay silent.
	broken bool
}

func bindingsByName(list []symbols.ImportBinding) map[string]symbols.ImportBinding {
	out := make(map[string]symbols.ImportBinding, len(list))
	for _, b := range list {
		if _, dup := out[b.Local]; !dup {
			out[b.Local] = b
		}
	}
	return out
}

// bindImports checks every import of the module against the export tables
// of its targets.
func (mc *moduleChecker) bindImports(checkers map[project.ModuleID]*moduleChecker) {
	for _, b := range mc.mod.Imports {
		if _, dup := mc.imports[b.Local]; dup {
			continue // уже сообщено резолвером
		}
		entry := &importEntry{binding: b}
		mc.imports[b.Local] = entry

		if prev, clash := mc.table.DeclSpan(b.Local); clash {
			mc.duplicate(b.Local, b.Span, prev)
			entry.broken = true
			continue
		}
		target := mc.prog.Module(b.Target)
		if target == nil || checkers[b.Target] == nil {
			entry.broken = true
			continue
		}
		if b.Kind == symbols.ImportModule {
			entry.module = target
			continue
		}
		fn, st := target.Lookup(b.Item)
		switch {
		case fn == nil && st == nil:
			mc.report(diag.SemaImportNotFound, b.Span,
				"module "+b.Target.String()+" has no item named "+b.Item).Emit()
			entry.broken = true
		case fn != nil && !fn.Public():
			mc.report(diag.VisNotExported, b.Span,
				"function "+b.Item+" is private to module "+b.Target.String()).
				WithNote(fn.Span, "declared here without pub").
				Emit()
			entry.broken = true
		case st != nil && !st.Public():
			mc.report(diag.VisNotExported, b.Span,
				"struct "+b.Item+" is private to module "+b.Target.String()).
				WithNote(st.Span, "declared here without pub").
				Emit()
			entry.broken = true
		default:
			entry.fn, entry.st = fn, st
		}
	}
}

// importedStruct looks a type name up through the raw bindings. It runs in
// phase 1, before bindImports, when only struct tables are complete.
func (mc *moduleChecker) importedStruct(name string, te *ast.TypeExpr) (types.TypeID, bool) {
	b, ok := mc.bindings[name]
	if !ok || b.Kind != symbols.ImportItem {
		return types.NoTypeID, false
	}
	target := mc.prog.Module(b.Target)
	if target == nil {
		return types.NoTypeID, true
	}
	st, ok := target.Structs[b.Item]
	if !ok {
		if _, isFn := target.Funcs[b.Item]; isFn {
			mc.report(diag.SemaUnknownType, te.Span, name+" is a function, not a type").Emit()
		}
		// ненайденный импорт сообщит bindImports
		return types.NoTypeID, true
	}
	if !st.Public() {
		return types.NoTypeID, true
	}
	return st.Type, true
}

// moduleAlias returns the table bound by `import a::b` under name.
func (mc *moduleChecker) moduleAlias(name string) (*symbols.ModuleTable, bool) {
	b, ok := mc.bindings[name]
	if !ok || b.Kind != symbols.ImportModule {
		return nil, false
	}
	target := mc.prog.Module(b.Target)
	return target, target != nil
}
