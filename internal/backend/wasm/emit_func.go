package wasm

import (
	"knox/internal/ast"
	"knox/internal/layout"
	"knox/internal/sema"
	"knox/internal/source"
	"knox/internal/symbols"
	"knox/internal/types"
)

// localSlot is where a binding lives. A cell holds the address of a
// memory slot with the value; other bindings are plain wasm locals.
type localSlot struct {
	index uint32
	repr  layout.Repr
	cell  bool
	// none: unit binding that is not a cell, nothing to store
	none bool
}

type funcEmitter struct {
	e     *Emitter
	info  *sema.ModuleInfo
	ex    *ast.Exprs
	fn    *symbols.Function
	fi    *sema.FnInfo
	fb    *funcBuilder
	cells map[*symbols.Local]bool
	slots map[*symbols.Local]localSlot
}

func newFuncEmitter(e *Emitter, info *sema.ModuleInfo, fi *sema.FnInfo, cells map[*symbols.Local]bool) *funcEmitter {
	return &funcEmitter{
		e:     e,
		info:  info,
		ex:    info.Builder.Exprs,
		fn:    fi.Func,
		fi:    fi,
		cells: cells,
		slots: make(map[*symbols.Local]localSlot, len(fi.Locals)),
	}
}

func (fe *funcEmitter) emit() *function {
	params := 0
	for _, p := range fe.fn.Sig.Params {
		if _, ok := valType(fe.e.repr(p)); ok {
			params++
		}
	}
	fe.fb = newFuncBuilder(params)

	next := uint32(0)
	for _, l := range fe.fi.Params {
		r := fe.e.repr(l.Type)
		s := localSlot{repr: r, none: r == layout.ReprNone}
		if !s.none {
			s.index = next
			next++
		}
		fe.slots[l] = s
	}
	// параметры, у которых берут адрес, переезжают в ячейки
	for _, l := range fe.fi.Params {
		if !fe.cells[l] {
			continue
		}
		s := fe.slots[l]
		if !s.none {
			fe.fb.localGet(s.index)
		}
		fe.slots[l] = fe.newCell(s.repr, l.Type)
	}

	item, ok := fe.info.Builder.Items.Fn(fe.fn.Item)
	if !ok || !item.Body.IsValid() {
		panic(&InternalError{Msg: "function has no body", Func: fe.fn.Symbol})
	}
	fe.valueAs(item.Body, fe.fn.Sig.Result)
	return fe.fb.finish(fe.fn.Symbol, fe.e.funcSigs[fe.fn])
}

func (fe *funcEmitter) fail(sp source.Span, format string, args ...any) {
	err := internalf(sp, format, args...)
	err.Func = fe.fn.Symbol
	panic(err)
}

func (fe *funcEmitter) span(id ast.ExprID) source.Span {
	if e := fe.ex.Get(id); e != nil {
		return e.Span
	}
	return source.Span{}
}

// typeOf is the checked type of id; a missing decoration is a compiler bug.
func (fe *funcEmitter) typeOf(id ast.ExprID) types.TypeID {
	t, ok := fe.info.ExprTypes[id]
	if !ok || t == types.NoTypeID {
		fe.fail(fe.span(id), "expression has no type")
	}
	return t
}

func (fe *funcEmitter) repr(t types.TypeID) layout.Repr {
	return fe.e.repr(t)
}

func (fe *funcEmitter) valType(r layout.Repr) byte {
	t, ok := valType(r)
	if !ok {
		fe.fail(source.Span{}, "no wasm type for %s", r)
	}
	return t
}

func (fe *funcEmitter) temp(r layout.Repr) uint32 {
	return fe.fb.newLocal(fe.valType(r))
}

// newCell moves the value on top of the stack into a fresh memory slot.
func (fe *funcEmitter) newCell(r layout.Repr, t types.TypeID) localSlot {
	return fe.fillCell(fe.fb.newLocal(valI32), r, t)
}

func (fe *funcEmitter) fillCell(cell uint32, r layout.Repr, t types.TypeID) localSlot {
	slot := fe.e.layoutOf(t, source.Span{}).Slot
	var tmp uint32
	if r != layout.ReprNone {
		tmp = fe.temp(r)
		fe.fb.localSet(tmp)
	}
	fe.alloc(max(slot, 4))
	fe.fb.localTee(cell)
	if r != layout.ReprNone {
		fe.fb.localGet(tmp)
	}
	fe.fb.store(r, 0)
	return localSlot{index: cell, repr: r, cell: true}
}

func (fe *funcEmitter) alloc(size int) {
	fe.fb.i32Const(int32(mustU32(size)))
	fe.fb.call(allocIndex)
}

// slot returns the storage of a binding, creating a wasm local on first use.
func (fe *funcEmitter) slot(l *symbols.Local, sp source.Span) localSlot {
	if s, ok := fe.slots[l]; ok {
		return s
	}
	fe.fail(sp, "binding %s used before it was initialised", l.Name)
	return localSlot{}
}

// bind initialises a let or pattern binding from the value on the stack.
// A record pattern binds the same names once per candidate, so an existing
// slot is reused.
func (fe *funcEmitter) bind(l *symbols.Local) {
	r := fe.repr(l.Type)
	s, seen := fe.slots[l]
	switch {
	case fe.cells[l]:
		cell := s.index
		if !seen {
			cell = fe.fb.newLocal(valI32)
		}
		fe.slots[l] = fe.fillCell(cell, r, l.Type)
	case r == layout.ReprNone:
		fe.slots[l] = localSlot{none: true}
	default:
		if !seen {
			s = localSlot{index: fe.temp(r), repr: r}
			fe.slots[l] = s
		}
		fe.fb.localSet(s.index)
	}
}

func (fe *funcEmitter) stmt(id ast.StmtID) {
	st := fe.info.Builder.Stmts.Get(id)
	if st == nil {
		return
	}
	switch st.Kind {
	case ast.StmtLet:
		let := fe.info.Builder.Stmts.Let(id)
		l, ok := fe.info.Bindings[id]
		if !ok {
			fe.fail(st.Span, "let has no binding")
		}
		fe.value(let.Value)
		fe.bind(l)

	case ast.StmtAssign:
		as := fe.info.Builder.Stmts.Assign(id)
		fe.assign(as.Target, as.Value)

	case ast.StmtReturn:
		ret := fe.info.Builder.Stmts.Return(id)
		if ret.Value.IsValid() {
			fe.valueAs(ret.Value, fe.fn.Sig.Result)
		}
		fe.fb.op(opReturn)

	case ast.StmtExpr:
		es := fe.info.Builder.Stmts.Expr(id)
		fe.valueAs(es.Expr, fe.e.res.TypeInterner.Builtins().Unit)
	}
}

func (fe *funcEmitter) assign(target, value ast.ExprID) {
	e := fe.ex.Get(target)
	switch e.Kind {
	case ast.ExprIdent:
		l, ok := fe.info.Locals[target]
		if !ok {
			fe.fail(e.Span, "assignment target has no binding")
		}
		s := fe.slot(l, e.Span)
		if s.cell {
			fe.fb.localGet(s.index)
			fe.value(value)
			fe.fb.store(s.repr, 0)
			return
		}
		fe.value(value)
		if !s.none {
			fe.fb.localSet(s.index)
		}

	case ast.ExprField:
		d, _ := fe.ex.Field(target)
		ref, ok := fe.info.Fields[target]
		if !ok {
			fe.fail(e.Span, "field %s is not resolved", d.Name)
		}
		off, ft := fe.field(ref, e.Span)
		fe.receiver(d.Target)
		fe.value(value)
		fe.fb.store(fe.repr(ft), off)

	case ast.ExprDeref:
		d, _ := fe.ex.Deref(target)
		fe.value(d.Operand)
		fe.value(value)
		fe.fb.store(fe.repr(fe.typeOf(target)), 0)

	default:
		fe.fail(e.Span, "cannot assign to %s", e.Kind)
	}
}

// field returns the offset and type of a struct field.
func (fe *funcEmitter) field(ref sema.FieldRef, sp source.Span) (int, types.TypeID) {
	info, ok := fe.e.types.StructInfo(ref.Struct)
	if !ok || ref.Index >= len(info.Fields) {
		fe.fail(sp, "unknown struct field")
	}
	off, err := fe.e.layout.FieldOffset(ref.Struct, ref.Index)
	if err != nil {
		fe.fail(sp, "%v", err)
	}
	return off, info.Fields[ref.Index].Type
}

// receiver pushes the adjusted target of a field access or method call.
func (fe *funcEmitter) receiver(target ast.ExprID) {
	rcv := fe.info.Receivers[target]
	if rcv.AddrOf {
		fe.addr(target)
		return
	}
	fe.value(target)
	t := fe.typeOf(target)
	for range rcv.Derefs {
		tt, ok := fe.e.types.Lookup(t)
		if !ok || tt.Kind != types.KindReference {
			fe.fail(fe.span(target), "receiver is not a reference")
		}
		t = tt.Elem
		fe.fb.load(fe.repr(t), 0)
	}
}

// addr pushes the address of a place; temporaries get a fresh slot.
func (fe *funcEmitter) addr(id ast.ExprID) {
	e := fe.ex.Get(id)
	switch e.Kind {
	case ast.ExprIdent:
		if l, ok := fe.info.Locals[id]; ok {
			if s := fe.slot(l, e.Span); s.cell {
				fe.fb.localGet(s.index)
				return
			}
		}
	case ast.ExprField:
		if ref, ok := fe.info.Fields[id]; ok {
			d, _ := fe.ex.Field(id)
			off, _ := fe.field(ref, e.Span)
			fe.receiver(d.Target)
			if off != 0 {
				fe.fb.i32Const(int32(mustU32(off)))
				fe.fb.op(opI32Add)
			}
			return
		}
	case ast.ExprDeref:
		d, _ := fe.ex.Deref(id)
		fe.value(d.Operand)
		return
	}
	t := fe.typeOf(id)
	fe.value(id)
	s := fe.newCell(fe.repr(t), t)
	fe.fb.localGet(s.index)
}
