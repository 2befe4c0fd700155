package sema

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/types"
)

func (mc *moduleChecker) primitive(name string) (types.TypeID, bool) {
	switch name {
	case "int":
		return mc.builtins.Int, true
	case "u64":
		return mc.builtins.U64, true
	case "string":
		return mc.builtins.String, true
	case "bool":
		return mc.builtins.Bool, true
	case "dynamic":
		return mc.builtins.Dynamic, true
	}
	return types.NoTypeID, false
}

// resolveType maps a syntactic type to a TypeID. Errors are reported once
// and yield NoTypeID, which later checks treat as already diagnosed.
func (mc *moduleChecker) resolveType(id ast.TypeID) types.TypeID {
	te := mc.b.Types.Get(id)
	if te == nil {
		return types.NoTypeID
	}
	switch te.Kind {
	case ast.TypeExprUnit:
		return mc.builtins.Unit
	case ast.TypeExprOption:
		elem := mc.resolveType(te.Elem)
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return mc.types.Option(elem)
	case ast.TypeExprResult:
		ok, errT := mc.resolveType(te.Elem), mc.resolveType(te.Err)
		if ok == types.NoTypeID || errT == types.NoTypeID {
			return types.NoTypeID
		}
		return mc.types.Result(ok, errT)
	case ast.TypeExprRef:
		elem := mc.resolveType(te.Elem)
		if elem == types.NoTypeID {
			return types.NoTypeID
		}
		return mc.types.Ref(elem, te.Mutable)
	case ast.TypeExprPath:
		return mc.resolveTypePath(te)
	}
	return types.NoTypeID
}

func (mc *moduleChecker) resolveTypePath(te *ast.TypeExpr) types.TypeID {
	switch len(te.Path) {
	case 1:
		name := te.Path[0]
		if t, ok := mc.primitive(name); ok {
			return t
		}
		if st, ok := mc.table.Structs[name]; ok {
			return st.Type
		}
		if t, ok := mc.importedStruct(name, te); ok {
			return t
		}
		mc.report(diag.SemaUnknownType, te.Span, "unknown type "+name).Emit()
		return types.NoTypeID
	case 2:
		target, ok := mc.moduleAlias(te.Path[0])
		if !ok {
			break
		}
		st, ok := target.Structs[te.Path[1]]
		if !ok {
			mc.report(diag.SemaUnknownType, te.Span,
				"module "+target.Module.String()+" has no type "+te.Path[1]).Emit()
			return types.NoTypeID
		}
		if !st.Public() && st.Module != mc.mod.ID {
			mc.report(diag.VisNotExported, te.Span,
				"struct "+st.Name+" is private to module "+st.Module.String()).
				WithNote(st.Span, "declared here without pub").
				Emit()
			return types.NoTypeID
		}
		return st.Type
	}
	mc.report(diag.SemaUnknownType, te.Span, "unknown type "+te.PathString()).Emit()
	return types.NoTypeID
}
