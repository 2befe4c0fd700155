package wasm

import (
	"knox/internal/ast"
	"knox/internal/layout"
	"knox/internal/lexer"
	"knox/internal/symbols"
	"knox/internal/types"
)

// valueAs pushes id as a value of want: results nobody uses are dropped.
func (fe *funcEmitter) valueAs(id ast.ExprID, want types.TypeID) {
	got := fe.value(id)
	switch wantRepr := fe.repr(want); {
	case got != layout.ReprNone && wantRepr == layout.ReprNone:
		fe.fb.op(opDrop)
	case got == layout.ReprNone && wantRepr != layout.ReprNone:
		// значения нет только у того, что не возвращается
		fe.fb.op(opUnreachable)
	}
}

// value pushes id, boxed when the checker coerced it into dynamic, and
// returns what ended up on the stack.
func (fe *funcEmitter) value(id ast.ExprID) layout.Repr {
	fe.expr(id)
	from, boxed := fe.info.Coercions[id]
	if !boxed {
		return fe.repr(fe.typeOf(id))
	}
	fe.box(from, id)
	return layout.ReprI32
}

// box wraps the value on the stack into [tag][payload].
func (fe *funcEmitter) box(from types.TypeID, id ast.ExprID) {
	r := fe.repr(from)
	var tmp uint32
	if r != layout.ReprNone {
		tmp = fe.temp(r)
		fe.fb.localSet(tmp)
	}
	tag := fe.e.typeTag(from, fe.span(id))
	dyn := fe.e.layoutOf(fe.e.types.Builtins().Dynamic, fe.span(id))
	p := fe.fb.newLocal(valI32)
	fe.alloc(dyn.Size)
	fe.fb.localTee(p)
	fe.fb.i32Const(tag)
	fe.fb.store(layout.ReprI32, 0)
	if r != layout.ReprNone {
		fe.fb.localGet(p)
		fe.fb.localGet(tmp)
		fe.fb.store(r, dyn.PayloadOffset)
	}
	fe.fb.localGet(p)
}

func (fe *funcEmitter) expr(id ast.ExprID) {
	e := fe.ex.Get(id)
	if e == nil {
		fe.fail(fe.span(id), "missing expression")
	}
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := fe.ex.Literal(id)
		fe.literal(id, lit)

	case ast.ExprIdent:
		l, ok := fe.info.Locals[id]
		if !ok {
			fe.fail(e.Span, "name is not bound")
		}
		s := fe.slot(l, e.Span)
		switch {
		case s.cell:
			fe.fb.localGet(s.index)
			fe.fb.load(s.repr, 0)
		case !s.none:
			fe.fb.localGet(s.index)
		}

	case ast.ExprCall:
		d, _ := fe.ex.Call(id)
		fe.call(id, d)

	case ast.ExprField:
		d, _ := fe.ex.Field(id)
		if getter, ok := fe.info.Calls[id]; ok {
			fe.receiver(d.Target)
			fe.callFn(getter, id)
			return
		}
		ref, ok := fe.info.Fields[id]
		if !ok {
			fe.fail(e.Span, "field %s is not resolved", d.Name)
		}
		off, ft := fe.field(ref, e.Span)
		fe.receiver(d.Target)
		fe.fb.load(fe.repr(ft), off)

	case ast.ExprIf:
		d, _ := fe.ex.If(id)
		fe.ifExpr(id, d)

	case ast.ExprMatch:
		d, _ := fe.ex.Match(id)
		fe.match(id, d)

	case ast.ExprBinary:
		d, _ := fe.ex.Binary(id)
		fe.binary(d)

	case ast.ExprUnary:
		d, _ := fe.ex.Unary(id)
		if d.Op == ast.ExprUnaryNot {
			fe.value(d.Operand)
			fe.fb.op(opI32Eqz)
			return
		}
		if fe.repr(fe.typeOf(id)) == layout.ReprI64 {
			fe.fb.i64Const(0)
			fe.value(d.Operand)
			fe.fb.op(opI64Sub)
			return
		}
		fe.fb.i32Const(0)
		fe.value(d.Operand)
		fe.fb.op(opI32Sub)

	case ast.ExprStructLit:
		d, _ := fe.ex.StructLit(id)
		fe.structLit(id, d)

	case ast.ExprDeref:
		d, _ := fe.ex.Deref(id)
		fe.value(d.Operand)
		fe.fb.load(fe.repr(fe.typeOf(id)), 0)

	case ast.ExprRef:
		d, _ := fe.ex.Ref(id)
		fe.addr(d.Operand)

	case ast.ExprBlock:
		d, _ := fe.ex.Block(id)
		for _, s := range d.Stmts {
			fe.stmt(s)
		}
		if d.Tail.IsValid() {
			fe.valueAs(d.Tail, fe.typeOf(id))
			return
		}
		if fe.repr(fe.typeOf(id)) != layout.ReprNone {
			// блок без хвоста с типом значения всегда уходит раньше
			fe.fb.op(opUnreachable)
		}

	case ast.ExprPropagate:
		d, _ := fe.ex.Propagate(id)
		fe.propagate(id, d)

	case ast.ExprCtor:
		d, _ := fe.ex.Ctor(id)
		fe.ctor(id, d)

	default:
		fe.fail(e.Span, "unexpected %s expression", e.Kind)
	}
}

func (fe *funcEmitter) literal(id ast.ExprID, lit *ast.ExprLiteralData) {
	switch lit.Kind {
	case ast.ExprLitInt:
		v, ok := lexer.ParseInt(lit.Value)
		if !ok {
			fe.fail(fe.span(id), "bad integer literal %q", lit.Value)
		}
		if fe.repr(fe.typeOf(id)) == layout.ReprI64 {
			fe.fb.i64Const(int64(v))
			return
		}
		// 2147483648 встречается только под минусом и заворачивается в MinInt32
		fe.fb.i32Const(int32(uint32(v)))
	case ast.ExprLitString:
		fe.stringConst(lit.Value)
	case ast.ExprLitTrue:
		fe.fb.i32Const(1)
	case ast.ExprLitFalse:
		fe.fb.i32Const(0)
	case ast.ExprLitUnit:
	}
}

// stringConst pushes (addr << 32) | len.
func (fe *funcEmitter) stringConst(s string) {
	addr := fe.e.stringAt(s)
	fe.fb.i64Const(int64(addr)<<32 | int64(mustU32(len(s))))
}

func (fe *funcEmitter) call(id ast.ExprID, d *ast.ExprCallData) {
	fn, ok := fe.info.Calls[id]
	if !ok {
		fe.fail(fe.span(id), "call is not resolved")
	}
	if fn.Builtin() {
		if fn.Symbol != "print" || len(d.Args) != 1 {
			fe.fail(fe.span(id), "unknown builtin %s", fn.Name)
		}
		fe.value(d.Args[0])
		fe.fb.call(printIndex)
		return
	}
	if fn.IsMethod() {
		fd, ok := fe.ex.Field(d.Callee)
		if !ok {
			fe.fail(fe.span(id), "method call without receiver")
		}
		fe.receiver(fd.Target)
	}
	for _, a := range d.Args {
		fe.value(a)
	}
	fe.callFn(fn, id)
}

func (fe *funcEmitter) callFn(fn *symbols.Function, id ast.ExprID) {
	idx, ok := fe.e.funcIndex[fn]
	if !ok {
		fe.fail(fe.span(id), "function %s was not emitted", fn.Symbol)
	}
	fe.fb.call(idx)
}

func (fe *funcEmitter) ifExpr(id ast.ExprID, d *ast.ExprIfData) {
	t := fe.typeOf(id)
	fe.value(d.Cond)
	fe.fb.ifThen(blockType(fe.repr(t)))
	fe.valueAs(d.Then, t)
	switch {
	case d.Else.IsValid():
		fe.fb.elseBranch()
		fe.valueAs(d.Else, t)
	case fe.repr(t) != layout.ReprNone:
		fe.fb.elseBranch()
		fe.fb.op(opUnreachable)
	}
	fe.fb.end()
}

func (fe *funcEmitter) binary(d *ast.ExprBinaryData) {
	switch d.Op {
	case ast.ExprBinaryLogicalAnd:
		fe.value(d.Left)
		fe.fb.ifThen(valI32)
		fe.value(d.Right)
		fe.fb.elseBranch()
		fe.fb.i32Const(0)
		fe.fb.end()
		return
	case ast.ExprBinaryLogicalOr:
		fe.value(d.Left)
		fe.fb.ifThen(valI32)
		fe.fb.i32Const(1)
		fe.fb.elseBranch()
		fe.value(d.Right)
		fe.fb.end()
		return
	}

	operand := fe.typeOf(d.Left)
	fe.value(d.Left)
	fe.value(d.Right)
	switch fe.e.types.Kind(operand) {
	case types.KindString:
		fe.fb.call(strEqIndex)
		if d.Op == ast.ExprBinaryNotEq {
			fe.fb.op(opI32Eqz)
		}
	case types.KindU64:
		fe.fb.op(u64Ops[d.Op])
	default:
		fe.fb.op(i32Ops[d.Op])
	}
}

// int is signed 32-bit, u64 unsigned 64-bit; both wrap on overflow.
var i32Ops = map[ast.ExprBinaryOp]byte{
	ast.ExprBinaryEq:        opI32Eq,
	ast.ExprBinaryNotEq:     opI32Ne,
	ast.ExprBinaryLess:      opI32LtS,
	ast.ExprBinaryLessEq:    opI32LeS,
	ast.ExprBinaryGreater:   opI32GtS,
	ast.ExprBinaryGreaterEq: opI32GeS,
	ast.ExprBinaryAdd:       opI32Add,
	ast.ExprBinarySub:       opI32Sub,
	ast.ExprBinaryMul:       opI32Mul,
	ast.ExprBinaryDiv:       opI32DivS,
	ast.ExprBinaryRem:       opI32RemS,
}

var u64Ops = map[ast.ExprBinaryOp]byte{
	ast.ExprBinaryEq:        opI64Eq,
	ast.ExprBinaryNotEq:     opI64Ne,
	ast.ExprBinaryLess:      opI64LtU,
	ast.ExprBinaryLessEq:    opI64LeU,
	ast.ExprBinaryGreater:   opI64GtU,
	ast.ExprBinaryGreaterEq: opI64GeU,
	ast.ExprBinaryAdd:       opI64Add,
	ast.ExprBinarySub:       opI64Sub,
	ast.ExprBinaryMul:       opI64Mul,
	ast.ExprBinaryDiv:       opI64DivU,
	ast.ExprBinaryRem:       opI64RemU,
}

func (fe *funcEmitter) structLit(id ast.ExprID, d *ast.ExprStructLitData) {
	t := fe.typeOf(id)
	info, ok := fe.e.types.StructInfo(t)
	if !ok {
		fe.fail(fe.span(id), "struct literal of non-struct type")
	}
	lay := fe.e.layoutOf(t, fe.span(id))
	p := fe.fb.newLocal(valI32)
	fe.alloc(lay.Size)
	fe.fb.localSet(p)
	// поля вычисляются в порядке записи в литерале
	for _, f := range d.Fields {
		field, idx, ok := info.Field(f.Name)
		if !ok {
			fe.fail(f.NameSpan, "struct %s has no field %s", info.Name, f.Name)
		}
		fe.fb.localGet(p)
		fe.value(f.Value)
		fe.fb.store(fe.repr(field.Type), lay.FieldOffsets[idx])
	}
	fe.fb.localGet(p)
}

// ctorTags: None=0, Some=1, Ok=0, Err=1.
func ctorTag(c ast.Ctor) int32 {
	switch c {
	case ast.CtorSome, ast.CtorErr:
		return 1
	}
	return 0
}

func (fe *funcEmitter) ctor(id ast.ExprID, d *ast.ExprCtorData) {
	t := fe.typeOf(id)
	lay := fe.e.layoutOf(t, fe.span(id))
	tt, _ := fe.e.types.Lookup(t)
	payload := tt.Elem
	if d.Ctor == ast.CtorErr {
		payload = tt.Err
	}
	r := layout.ReprNone
	var tmp uint32
	if d.Arg.IsValid() {
		fe.value(d.Arg)
		r = fe.repr(payload)
		if r != layout.ReprNone {
			tmp = fe.temp(r)
			fe.fb.localSet(tmp)
		}
	}
	p := fe.fb.newLocal(valI32)
	fe.alloc(lay.Size)
	fe.fb.localTee(p)
	fe.fb.i32Const(ctorTag(d.Ctor))
	fe.fb.store(layout.ReprI32, 0)
	if r != layout.ReprNone {
		fe.fb.localGet(p)
		fe.fb.localGet(tmp)
		fe.fb.store(r, lay.PayloadOffset)
	}
	fe.fb.localGet(p)
}

// propagate: Err goes back to the caller as is, Ok unwraps.
func (fe *funcEmitter) propagate(id ast.ExprID, d *ast.ExprPropagateData) {
	t := fe.typeOf(d.Operand)
	lay := fe.e.layoutOf(t, fe.span(id))
	tt, _ := fe.e.types.Lookup(t)
	p := fe.fb.newLocal(valI32)
	fe.value(d.Operand)
	fe.fb.localTee(p)
	fe.fb.load(layout.ReprI32, 0)
	fe.fb.ifThen(blockEmpty)
	fe.fb.localGet(p)
	fe.fb.op(opReturn)
	fe.fb.end()
	if r := fe.repr(tt.Elem); r != layout.ReprNone {
		fe.fb.localGet(p)
		fe.fb.load(r, lay.PayloadOffset)
	}
}
