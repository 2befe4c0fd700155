package sema

import (
	"math"
	"strconv"
	"strings"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/types"
)

// expr infers the type of id; want, when set, is the type the context
// requires and guides literals, constructors and branches.
func (fc *fnChecker) expr(id ast.ExprID, want types.TypeID) types.TypeID {
	if !id.IsValid() {
		return types.NoTypeID
	}
	t := fc.inferExpr(id, want)
	fc.info.ExprTypes[id] = t
	return t
}

// check infers id against want and reports when the result is not assignable.
func (fc *fnChecker) check(id ast.ExprID, want types.TypeID) types.TypeID {
	got := fc.expr(id, want)
	if fc.coerce(id, got, want) && want != types.NoTypeID && got != types.NoTypeID {
		return want
	}
	return got
}

// coerce: exact match, or boxing into dynamic. dynamic never flows back.
func (fc *fnChecker) coerce(id ast.ExprID, got, want types.TypeID) bool {
	if got == types.NoTypeID || want == types.NoTypeID || got == want {
		return true
	}
	if fc.info.Diverges[id] {
		return true
	}
	dyn := fc.mc.builtins.Dynamic
	if want == dyn {
		fc.info.Coercions[id] = got
		return true
	}
	sp := fc.b.Exprs.Get(id).Span
	if got == dyn {
		fc.report(diag.SemaDynamicUse, sp,
			"dynamic value used where "+fc.typeName(want)+" is expected; match on it with a typed pattern first").Emit()
		return false
	}
	fc.report(diag.SemaTypeMismatch, sp,
		"expected "+fc.typeName(want)+", found "+fc.typeName(got)).Emit()
	return false
}

// typed rejects dynamic operands of typed operations.
func (fc *fnChecker) typed(id ast.ExprID, t types.TypeID, what string) bool {
	if t != fc.mc.builtins.Dynamic {
		return true
	}
	fc.report(diag.SemaDynamicUse, fc.b.Exprs.Get(id).Span,
		"cannot use a dynamic value as "+what+"; match on it with a typed pattern first").Emit()
	return false
}

func (fc *fnChecker) inferExpr(id ast.ExprID, want types.TypeID) types.TypeID {
	ex := fc.b.Exprs
	e := ex.Get(id)
	bt := fc.mc.builtins
	switch e.Kind {
	case ast.ExprLit:
		lit, _ := ex.Literal(id)
		return fc.literal(id, lit, want, false)

	case ast.ExprIdent:
		d, _ := ex.Ident(id)
		if l, ok := fc.scope.Lookup(d.Name); ok {
			fc.info.Locals[id] = l
			return l.Type
		}
		fc.notAValue(id, []string{d.Name})
		return types.NoTypeID

	case ast.ExprPath:
		d, _ := ex.Path(id)
		fc.notAValue(id, d.Segments)
		return types.NoTypeID

	case ast.ExprCall:
		d, _ := ex.Call(id)
		return fc.call(id, d)

	case ast.ExprField:
		d, _ := ex.Field(id)
		return fc.fieldRead(id, d)

	case ast.ExprIf:
		d, _ := ex.If(id)
		return fc.ifExpr(id, d, want)

	case ast.ExprMatch:
		d, _ := ex.Match(id)
		return fc.match(id, d, want)

	case ast.ExprBinary:
		d, _ := ex.Binary(id)
		return fc.binary(id, d, want)

	case ast.ExprUnary:
		d, _ := ex.Unary(id)
		if d.Op == ast.ExprUnaryNot {
			fc.check(d.Operand, bt.Bool)
			return bt.Bool
		}
		if lit, ok := ex.Literal(d.Operand); ok && lit.Kind == ast.ExprLitInt && want != bt.U64 {
			t := fc.literal(d.Operand, lit, bt.Int, true)
			fc.info.ExprTypes[d.Operand] = t
			return t
		}
		hint := types.NoTypeID
		if fc.types.Kind(want).IsInteger() {
			hint = want
		}
		t := fc.expr(d.Operand, hint)
		if t == types.NoTypeID || !fc.typed(d.Operand, t, "an operand of -") {
			return types.NoTypeID
		}
		if t != bt.Int {
			fc.report(diag.SemaBadOperand, e.Span, "cannot negate a value of type "+fc.typeName(t)).Emit()
			return types.NoTypeID
		}
		return t

	case ast.ExprStructLit:
		d, _ := ex.StructLit(id)
		return fc.structLit(id, d)

	case ast.ExprDeref:
		d, _ := ex.Deref(id)
		t := fc.expr(d.Operand, types.NoTypeID)
		if t == types.NoTypeID || !fc.typed(d.Operand, t, "a reference") {
			return types.NoTypeID
		}
		ref, _ := fc.types.Lookup(t)
		if ref.Kind != types.KindReference {
			fc.report(diag.SemaDerefNonRef, e.Span, "cannot dereference a value of type "+fc.typeName(t)).Emit()
			return types.NoTypeID
		}
		return ref.Elem

	case ast.ExprRef:
		d, _ := ex.Ref(id)
		return fc.refExpr(id, d)

	case ast.ExprBlock:
		d, _ := ex.Block(id)
		return fc.block(id, d, want)

	case ast.ExprPropagate:
		d, _ := ex.Propagate(id)
		return fc.propagate(id, d, want)

	case ast.ExprCtor:
		d, _ := ex.Ctor(id)
		return fc.ctor(id, d, want)
	}
	return types.NoTypeID
}

func (fc *fnChecker) literal(id ast.ExprID, lit *ast.ExprLiteralData, want types.TypeID, negated bool) types.TypeID {
	bt := fc.mc.builtins
	switch lit.Kind {
	case ast.ExprLitString:
		return bt.String
	case ast.ExprLitTrue, ast.ExprLitFalse:
		return bt.Bool
	case ast.ExprLitUnit:
		return bt.Unit
	}
	v, ok := lexer.ParseInt(lit.Value)
	if !ok {
		return types.NoTypeID // лексер уже сообщил
	}
	if want == bt.U64 {
		return bt.U64
	}
	limit := uint64(math.MaxInt32)
	if negated {
		limit++
	}
	if v > limit {
		fc.report(diag.SemaTypeMismatch, fc.b.Exprs.Get(id).Span,
			"integer literal "+strconv.FormatUint(v, 10)+" does not fit in int").Emit()
		return types.NoTypeID
	}
	return bt.Int
}

// notAValue reports a name used as a value that is not a binding.
func (fc *fnChecker) notAValue(id ast.ExprID, path []string) {
	sp := fc.b.Exprs.Get(id).Span
	name := joinPath(path)
	if len(path) == 1 {
		fn, st := fc.mc.table.Lookup(path[0])
		_, imported := fc.mc.imports[path[0]]
		_, builtin := fc.mc.prog.Builtins[path[0]]
		switch {
		case fn != nil || builtin:
			fc.report(diag.SemaTypeMismatch, sp, "function "+name+" cannot be used as a value; call it").Emit()
			return
		case st != nil:
			fc.report(diag.SemaTypeMismatch, sp, "struct "+name+" cannot be used as a value; use a struct literal").Emit()
			return
		case imported:
			if entry := fc.mc.imports[path[0]]; entry.broken {
				return
			}
			fc.report(diag.SemaTypeMismatch, sp, "imported name "+name+" cannot be used as a value").Emit()
			return
		}
		fc.report(diag.SemaUnknownName, sp, "unknown name "+name).Emit()
		return
	}
	if _, ok := fc.mc.moduleAlias(path[0]); ok {
		fc.report(diag.SemaTypeMismatch, sp, name+" cannot be used as a value").Emit()
		return
	}
	fc.report(diag.SemaUnknownName, sp, "unknown name "+name).Emit()
}

func joinPath(path []string) string {
	return strings.Join(path, "::")
}

func (fc *fnChecker) ifExpr(id ast.ExprID, d *ast.ExprIfData, want types.TypeID) types.TypeID {
	bt := fc.mc.builtins
	fc.check(d.Cond, bt.Bool)
	if !d.Else.IsValid() {
		fc.check(d.Then, bt.Unit)
		return bt.Unit
	}
	if want != types.NoTypeID {
		fc.check(d.Then, want)
		fc.check(d.Else, want)
		if fc.info.Diverges[d.Then] && fc.info.Diverges[d.Else] {
			fc.info.Diverges[id] = true
		}
		return want
	}
	t := fc.expr(d.Then, types.NoTypeID)
	if fc.info.Diverges[d.Then] {
		t = fc.expr(d.Else, types.NoTypeID)
		if fc.info.Diverges[d.Else] {
			fc.info.Diverges[id] = true
		}
		return t
	}
	fc.check(d.Else, t)
	return t
}

func (fc *fnChecker) binary(id ast.ExprID, d *ast.ExprBinaryData, want types.TypeID) types.TypeID {
	bt := fc.mc.builtins
	sp := fc.b.Exprs.Get(id).Span
	switch d.Op {
	case ast.ExprBinaryLogicalOr, ast.ExprBinaryLogicalAnd:
		fc.check(d.Left, bt.Bool)
		fc.check(d.Right, bt.Bool)
		return bt.Bool
	}

	hint := types.NoTypeID
	if !d.Op.IsComparison() && fc.types.Kind(want).IsInteger() {
		hint = want
	}
	t := fc.operands(d, hint)
	if t == types.NoTypeID {
		if d.Op.IsComparison() {
			return bt.Bool
		}
		return types.NoTypeID
	}
	kind := fc.types.Kind(t)
	switch d.Op {
	case ast.ExprBinaryEq, ast.ExprBinaryNotEq:
		switch kind {
		case types.KindInt, types.KindU64, types.KindBool, types.KindString:
		default:
			fc.report(diag.SemaBadOperand, sp, "cannot compare values of type "+fc.typeName(t)+" with "+d.Op.String()).Emit()
		}
		return bt.Bool
	case ast.ExprBinaryLess, ast.ExprBinaryLessEq, ast.ExprBinaryGreater, ast.ExprBinaryGreaterEq:
		if !kind.IsInteger() {
			fc.report(diag.SemaBadOperand, sp, "operator "+d.Op.String()+" needs int or u64 operands, found "+fc.typeName(t)).Emit()
		}
		return bt.Bool
	}
	if !kind.IsInteger() {
		fc.report(diag.SemaBadOperand, sp, "operator "+d.Op.String()+" needs int or u64 operands, found "+fc.typeName(t)).Emit()
		return types.NoTypeID
	}
	return t
}

// operands types both sides of a binary operator; the right side must match
// the left. An int literal on the left takes the type of the right side.
func (fc *fnChecker) operands(d *ast.ExprBinaryData, hint types.TypeID) types.TypeID {
	if lit, ok := fc.b.Exprs.Literal(d.Left); ok && lit.Kind == ast.ExprLitInt {
		if _, rok := fc.b.Exprs.Literal(d.Right); !rok {
			rt := fc.expr(d.Right, hint)
			if rt == types.NoTypeID || !fc.typed(d.Right, rt, "an operand of "+d.Op.String()) {
				return types.NoTypeID
			}
			fc.check(d.Left, rt)
			return rt
		}
	}
	lt := fc.expr(d.Left, hint)
	if lt == types.NoTypeID {
		fc.expr(d.Right, types.NoTypeID)
		return types.NoTypeID
	}
	if !fc.typed(d.Left, lt, "an operand of "+d.Op.String()) {
		fc.expr(d.Right, types.NoTypeID)
		return types.NoTypeID
	}
	rt := fc.expr(d.Right, lt)
	if rt != types.NoTypeID && rt != lt {
		fc.coerce(d.Right, rt, lt)
		return types.NoTypeID
	}
	return lt
}

func (fc *fnChecker) refExpr(id ast.ExprID, d *ast.ExprRefData) types.TypeID {
	t := fc.expr(d.Operand, types.NoTypeID)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	sp := fc.b.Exprs.Get(id).Span
	p := fc.placeOf(d.Operand)
	if !p.ok {
		fc.report(diag.SemaRefOfNonPlace, sp, "cannot take a reference to a temporary value").Emit()
		return types.NoTypeID
	}
	if d.Mutable && !p.mutable {
		b := fc.report(diag.SemaMutRefOfImmutable, sp, p.immutableReason("borrow", "as mutable"))
		if p.root != nil && !p.viaRef {
			b = b.WithNote(p.root.Span, "declared here; use `let mut` to allow mutation")
		}
		b.Emit()
	}
	return fc.types.Ref(t, d.Mutable)
}

func (fc *fnChecker) propagate(id ast.ExprID, d *ast.ExprPropagateData, want types.TypeID) types.TypeID {
	sp := fc.b.Exprs.Get(id).Span
	fnRes, _ := fc.types.Lookup(fc.fn.Sig.Result)
	hint := types.NoTypeID
	if _, isCtor := fc.b.Exprs.Ctor(d.Operand); isCtor && fnRes.Kind == types.KindResult && want != types.NoTypeID {
		hint = fc.types.Result(want, fnRes.Err)
	}
	t := fc.expr(d.Operand, hint)
	if t == types.NoTypeID {
		return types.NoTypeID
	}
	res, _ := fc.types.Lookup(t)
	if res.Kind != types.KindResult {
		fc.typed(d.Operand, t, "a Result")
		if t != fc.mc.builtins.Dynamic {
			fc.report(diag.SemaPropagateNonResult, sp, "'?' needs a Result value, found "+fc.typeName(t)).Emit()
		}
		return types.NoTypeID
	}
	if fnRes.Kind != types.KindResult {
		if fc.fn.Sig.Result != types.NoTypeID {
			fc.report(diag.SemaPropagateOutsideResult, sp,
				"'?' can only be used in a function returning Result, "+fc.item.Name+" returns "+fc.typeName(fc.fn.Sig.Result)).Emit()
		}
		return res.Elem
	}
	if res.Err != fnRes.Err {
		fc.report(diag.SemaPropagateErrMismatch, sp,
			"'?' propagates "+fc.typeName(res.Err)+" but "+fc.item.Name+" returns errors of type "+fc.typeName(fnRes.Err)).Emit()
	}
	return res.Elem
}

func (fc *fnChecker) ctor(id ast.ExprID, d *ast.ExprCtorData, want types.TypeID) types.TypeID {
	sp := fc.b.Exprs.Get(id).Span
	w, _ := fc.types.Lookup(want)
	switch d.Ctor {
	case ast.CtorSome:
		if w.Kind == types.KindOption {
			fc.check(d.Arg, w.Elem)
			return want
		}
		t := fc.expr(d.Arg, types.NoTypeID)
		if t == types.NoTypeID {
			return types.NoTypeID
		}
		return fc.types.Option(t)
	case ast.CtorNone:
		if w.Kind == types.KindOption {
			return want
		}
	case ast.CtorOk:
		if w.Kind == types.KindResult {
			fc.check(d.Arg, w.Elem)
			return want
		}
	case ast.CtorErr:
		if w.Kind == types.KindResult {
			fc.check(d.Arg, w.Err)
			return want
		}
	}
	if d.Arg.IsValid() {
		fc.expr(d.Arg, types.NoTypeID)
	}
	if want != types.NoTypeID && w.Kind != types.KindDynamic {
		fc.report(diag.SemaTypeMismatch, sp, "expected "+fc.typeName(want)+", found "+d.Ctor.String()+"(..)").Emit()
		return types.NoTypeID
	}
	fc.report(diag.SemaConstructorContext, sp,
		d.Ctor.String()+" needs a known Option or Result type; add a type annotation").Emit()
	return types.NoTypeID
}

// structLit checks `S { f: e }`. Fields are private, so only the declaring
// module may build a struct directly.
func (fc *fnChecker) structLit(id ast.ExprID, d *ast.ExprStructLitData) types.TypeID {
	sp := fc.b.Exprs.Get(id).Span
	te := &ast.TypeExpr{Kind: ast.TypeExprPath, Span: d.PathSpan, Path: d.Path}
	t := fc.mc.resolveTypePath(te)
	if t == types.NoTypeID {
		fc.skipFields(d)
		return types.NoTypeID
	}
	st, ok := fc.mc.prog.Struct(t)
	if !ok || fc.types.Kind(t) != types.KindStruct {
		fc.report(diag.SemaStructLiteral, d.PathSpan, fc.typeName(t)+" is not a struct").Emit()
		fc.skipFields(d)
		return types.NoTypeID
	}
	if st.Module != fc.mc.mod.ID {
		fc.report(diag.VisPrivateField, sp,
			"cannot build "+st.Name+" here: its fields are private to module "+st.Module.String()).
			WithNote(st.Span, "declared here").
			Emit()
		fc.skipFields(d)
		return t
	}
	info, _ := fc.types.StructInfo(t)
	set := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		field, _, ok := info.Field(f.Name)
		switch {
		case !ok:
			fc.report(diag.SemaUnknownField, f.NameSpan, "struct "+st.Name+" has no field "+f.Name).Emit()
			fc.expr(f.Value, types.NoTypeID)
			continue
		case set[f.Name]:
			fc.report(diag.SemaStructLiteral, f.NameSpan, "field "+f.Name+" is set twice").Emit()
		}
		set[f.Name] = true
		fc.check(f.Value, field.Type)
	}
	var missing []string
	for _, f := range info.Fields {
		if !set[f.Name] {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		msg := "missing field"
		if len(missing) > 1 {
			msg += "s"
		}
		for i, name := range missing {
			if i > 0 {
				msg += ","
			}
			msg += " " + name
		}
		fc.report(diag.SemaStructLiteral, sp, msg+" in "+st.Name+" literal").Emit()
	}
	return t
}

func (fc *fnChecker) skipFields(d *ast.ExprStructLitData) {
	for _, f := range d.Fields {
		fc.expr(f.Value, types.NoTypeID)
	}
}
