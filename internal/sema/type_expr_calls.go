package sema

import (
	"strconv"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/symbols"
	"knox/internal/types"
)

// derefLayers strips references; innerMut is the mutability of the innermost one.
func (fc *fnChecker) derefLayers(t types.TypeID) (base types.TypeID, layers int, innerMut bool) {
	base = t
	for {
		tt, ok := fc.types.Lookup(base)
		if !ok || tt.Kind != types.KindReference {
			return base, layers, innerMut
		}
		layers++
		innerMut = tt.Mutable
		base = tt.Elem
	}
}

// receiverStruct types the target of `e.f` / `e.m()` and finds its struct.
func (fc *fnChecker) receiverStruct(target ast.ExprID, code diag.Code, what string) (*symbols.Struct, int, bool, bool) {
	tt := fc.expr(target, types.NoTypeID)
	if tt == types.NoTypeID {
		return nil, 0, false, false
	}
	if !fc.typed(target, tt, "a struct") {
		return nil, 0, false, false
	}
	base, layers, innerMut := fc.derefLayers(tt)
	st, ok := fc.mc.prog.StructsByType[base]
	if !ok {
		fc.report(code, fc.b.Exprs.Get(target).Span, "type "+fc.typeName(tt)+" has no "+what).Emit()
		return nil, 0, false, false
	}
	return st, layers, innerMut, true
}

func (fc *fnChecker) fieldRead(id ast.ExprID, d *ast.ExprFieldData) types.TypeID {
	st, layers, _, ok := fc.receiverStruct(d.Target, diag.SemaUnknownField, "fields")
	if !ok {
		return types.NoTypeID
	}
	if st.Module == fc.mc.mod.ID {
		return fc.rawField(id, d, st, layers)
	}
	// вне модуля e.f означает e.f(), если геттер есть
	if getter, ok := st.Method(d.Name); ok && getter.Public() && len(getter.Sig.Params) == 1 {
		fc.info.Calls[id] = getter
		fc.info.Receivers[d.Target] = adjustReceiver(getter, layers)
		return getter.Sig.Result
	}
	fc.privateField(d, st)
	return types.NoTypeID
}

func (fc *fnChecker) fieldWrite(id ast.ExprID, d *ast.ExprFieldData) types.TypeID {
	st, layers, _, ok := fc.receiverStruct(d.Target, diag.SemaUnknownField, "fields")
	if !ok {
		return types.NoTypeID
	}
	if st.Module != fc.mc.mod.ID {
		b := fc.report(diag.VisPrivateField, d.NameSpan,
			"field "+d.Name+" of "+st.Name+" is private to module "+st.Module.String())
		if setter, ok := st.Method("set_" + d.Name); ok && setter.Public() {
			b = b.WithNote(setter.Span, "use the setter set_"+d.Name)
		}
		b.Emit()
		return types.NoTypeID
	}
	return fc.rawField(id, d, st, layers)
}

func (fc *fnChecker) rawField(id ast.ExprID, d *ast.ExprFieldData, st *symbols.Struct, layers int) types.TypeID {
	info, _ := fc.types.StructInfo(st.Type)
	field, idx, ok := info.Field(d.Name)
	if !ok {
		fc.report(diag.SemaUnknownField, d.NameSpan, "struct "+st.Name+" has no field "+d.Name).Emit()
		return types.NoTypeID
	}
	fc.info.Fields[id] = FieldRef{Struct: st.Type, Index: idx}
	fc.info.Receivers[d.Target] = Receiver{Derefs: layers}
	return field.Type
}

func (fc *fnChecker) privateField(d *ast.ExprFieldData, st *symbols.Struct) {
	info, _ := fc.types.StructInfo(st.Type)
	if _, _, exists := info.Field(d.Name); !exists {
		fc.report(diag.SemaUnknownField, d.NameSpan, "struct "+st.Name+" has no field "+d.Name).Emit()
		return
	}
	fc.report(diag.VisPrivateField, d.NameSpan,
		"field "+d.Name+" of "+st.Name+" is private to module "+st.Module.String()).
		WithNote(st.Span, "add @pub(get) to the field to generate a getter").
		Emit()
}

// adjustReceiver decides how the receiver value reaches self.
func adjustReceiver(m *symbols.Function, layers int) Receiver {
	switch m.Receiver {
	case symbols.ReceiverRef, symbols.ReceiverMutRef:
		if layers == 0 {
			return Receiver{AddrOf: true}
		}
		return Receiver{Derefs: layers - 1}
	}
	return Receiver{Derefs: layers}
}

func (fc *fnChecker) call(id ast.ExprID, d *ast.ExprCallData) types.TypeID {
	callee := fc.b.Exprs.Get(d.Callee)
	var fn *symbols.Function
	switch callee.Kind {
	case ast.ExprField:
		fd, _ := fc.b.Exprs.Field(d.Callee)
		return fc.methodCall(id, fd, d.Args)
	case ast.ExprIdent:
		name, _ := fc.b.Exprs.Ident(d.Callee)
		fn = fc.lookupFn(name.Name, callee.Span)
	case ast.ExprPath:
		path, _ := fc.b.Exprs.Path(d.Callee)
		fn = fc.lookupPathFn(path.Segments, callee.Span)
	default:
		t := fc.expr(d.Callee, types.NoTypeID)
		if t != types.NoTypeID {
			fc.report(diag.SemaNotCallable, callee.Span, "value of type "+fc.typeName(t)+" is not callable").Emit()
		}
	}
	if fn == nil {
		for _, a := range d.Args {
			fc.expr(a, types.NoTypeID)
		}
		return types.NoTypeID
	}
	fc.info.Calls[id] = fn
	fc.args(id, fn, fn.Sig.Params, d.Args)
	return fn.Sig.Result
}

func (fc *fnChecker) methodCall(id ast.ExprID, fd *ast.ExprFieldData, args []ast.ExprID) types.TypeID {
	st, layers, innerMut, ok := fc.receiverStruct(fd.Target, diag.SemaUnknownMethod, "methods")
	if !ok {
		for _, a := range args {
			fc.expr(a, types.NoTypeID)
		}
		return types.NoTypeID
	}
	m, ok := st.Method(fd.Name)
	if !ok {
		b := fc.report(diag.SemaUnknownMethod, fd.NameSpan, "struct "+st.Name+" has no method "+fd.Name)
		if info, _ := fc.types.StructInfo(st.Type); info != nil {
			if _, _, isField := info.Field(fd.Name); isField {
				b = b.WithNote(st.Span, fd.Name+" is a field; add @pub(get) to generate an accessor")
			}
		}
		b.Emit()
		for _, a := range args {
			fc.expr(a, types.NoTypeID)
		}
		return types.NoTypeID
	}
	if m.Module != fc.mc.mod.ID && !m.Public() {
		fc.report(diag.VisPrivateMethod, fd.NameSpan,
			"method "+st.Name+"."+fd.Name+" is private to module "+m.Module.String()).
			WithNote(m.Span, "declared here without pub").
			Emit()
	}
	if m.Receiver == symbols.ReceiverMutRef {
		fc.checkMutReceiver(fd, m, layers, innerMut)
	}
	fc.info.Receivers[fd.Target] = adjustReceiver(m, layers)
	fc.info.Calls[id] = m
	fc.args(id, m, m.Sig.Params[1:], args)
	return m.Sig.Result
}

// checkMutReceiver: &mut self needs a &mut reference or a mutable place.
func (fc *fnChecker) checkMutReceiver(fd *ast.ExprFieldData, m *symbols.Function, layers int, innerMut bool) {
	sp := fc.b.Exprs.Get(fd.Target).Span
	if layers > 0 {
		if !innerMut {
			fc.report(diag.SemaMutRefOfImmutable, sp,
				"cannot call "+m.Name+" through a shared reference; it takes &mut self").Emit()
		}
		return
	}
	p := fc.placeOf(fd.Target)
	if p.ok && !p.mutable {
		b := fc.report(diag.SemaMutRefOfImmutable, sp, p.immutableReason("borrow", "as mutable to call "+m.Name))
		if p.root != nil && !p.viaRef {
			b = b.WithNote(p.root.Span, "declared here; use `let mut` to allow mutation")
		}
		b.Emit()
	}
}

func (fc *fnChecker) args(id ast.ExprID, fn *symbols.Function, params []types.TypeID, args []ast.ExprID) {
	if len(args) != len(params) {
		noun := "arguments"
		if len(params) == 1 {
			noun = "argument"
		}
		fc.report(diag.SemaArgCount, fc.b.Exprs.Get(id).Span,
			fn.Name+" expects "+strconv.Itoa(len(params))+" "+noun+", found "+strconv.Itoa(len(args))).Emit()
	}
	for i, a := range args {
		if i < len(params) {
			fc.check(a, params[i])
			continue
		}
		fc.expr(a, types.NoTypeID)
	}
}

// lookupFn resolves a call by bare name: locals, module items, imports, builtins.
func (fc *fnChecker) lookupFn(name string, sp source.Span) *symbols.Function {
	if l, ok := fc.scope.Lookup(name); ok {
		fc.report(diag.SemaNotCallable, sp, name+" is a local of type "+fc.typeName(l.Type)+", not a function").Emit()
		return nil
	}
	fn, st := fc.mc.table.Lookup(name)
	if fn != nil {
		return fn
	}
	if st != nil {
		fc.report(diag.SemaNotCallable, sp, st.Name+" is a struct; build it with "+st.Name+" { ... }").Emit()
		return nil
	}
	if entry, ok := fc.mc.imports[name]; ok {
		switch {
		case entry.broken:
			return nil
		case entry.fn != nil:
			return entry.fn
		case entry.st != nil:
			fc.report(diag.SemaNotCallable, sp, name+" is a struct; build it with a constructor function").Emit()
		default:
			fc.report(diag.SemaNotCallable, sp, name+" is a module, not a function").Emit()
		}
		return nil
	}
	if fn, ok := fc.mc.prog.Builtins[name]; ok {
		return fn
	}
	fc.report(diag.SemaUnknownName, sp, "unknown function "+name).Emit()
	return nil
}

// lookupPathFn resolves `m::f` through a module alias.
func (fc *fnChecker) lookupPathFn(path []string, sp source.Span) *symbols.Function {
	if len(path) != 2 {
		fc.report(diag.SemaUnknownName, sp, "unknown function "+joinPath(path)).Emit()
		return nil
	}
	target, ok := fc.mc.moduleAlias(path[0])
	if !ok {
		if entry, imported := fc.mc.imports[path[0]]; imported && entry.broken {
			return nil
		}
		fc.report(diag.SemaUnknownName, sp, "unknown module "+path[0]).Emit()
		return nil
	}
	fn, st := target.Lookup(path[1])
	switch {
	case st != nil:
		fc.report(diag.SemaNotCallable, sp, joinPath(path)+" is a struct, not a function").Emit()
		return nil
	case fn == nil:
		fc.report(diag.SemaUnknownName, sp, "module "+target.Module.String()+" has no function "+path[1]).Emit()
		return nil
	case !fn.Public() && fn.Module != fc.mc.mod.ID:
		fc.report(diag.VisNotExported, sp, "function "+path[1]+" is private to module "+target.Module.String()).
			WithNote(fn.Span, "declared here without pub").
			Emit()
		return nil
	}
	return fn
}
