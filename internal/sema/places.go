package sema

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/symbols"
	"knox/internal/types"
)

// place describes an assignable location: a binding, a field of a place or
// anything reached through a reference.
type place struct {
	ok      bool
	mutable bool
	// viaRef is set when mutability comes from a reference rather than a binding.
	viaRef bool
	root   *symbols.Local
}

func (p place) immutableReason(verb, tail string) string {
	var s string
	switch {
	case p.viaRef:
		s = "cannot " + verb + " through a shared reference"
	case p.root != nil && p.root.Kind == symbols.SymbolParam:
		s = "cannot " + verb + " parameter " + p.root.Name
	case p.root != nil:
		s = "cannot " + verb + " immutable binding " + p.root.Name
	default:
		s = "cannot " + verb + " an immutable value"
	}
	if tail != "" {
		s += " " + tail
	}
	return s
}

// placeOf classifies an already checked expression.
func (fc *fnChecker) placeOf(id ast.ExprID) place {
	ex := fc.b.Exprs
	e := ex.Get(id)
	if e == nil {
		return place{}
	}
	switch e.Kind {
	case ast.ExprIdent:
		l, ok := fc.info.Locals[id]
		if !ok {
			return place{}
		}
		return place{ok: true, mutable: l.Mutable(), root: l}
	case ast.ExprField:
		d, _ := ex.Field(id)
		if _, raw := fc.info.Fields[id]; !raw {
			return place{}
		}
		if t, ok := fc.types.Lookup(fc.info.ExprTypes[d.Target]); ok && t.Kind == types.KindReference {
			return place{ok: true, mutable: t.Mutable, viaRef: true}
		}
		return fc.placeOf(d.Target)
	case ast.ExprDeref:
		d, _ := ex.Deref(id)
		if t, ok := fc.types.Lookup(fc.info.ExprTypes[d.Operand]); ok && t.Kind == types.KindReference {
			return place{ok: true, mutable: t.Mutable, viaRef: true}
		}
	}
	return place{}
}

// assign checks `target = value;`.
func (fc *fnChecker) assign(target, value ast.ExprID) {
	ex := fc.b.Exprs
	e := ex.Get(target)
	switch e.Kind {
	case ast.ExprIdent:
		t := fc.expr(target, types.NoTypeID)
		fc.check(value, t)
		l := fc.info.Locals[target]
		if l != nil && !l.Mutable() {
			p := place{ok: true, root: l}
			fc.report(diag.SemaAssignImmutable, e.Span, p.immutableReason("assign to", "")).
				WithNote(l.Span, "declared here; use `let mut` to allow assignment").
				Emit()
		}

	case ast.ExprField:
		d, _ := ex.Field(target)
		t := fc.fieldWrite(target, d)
		fc.check(value, t)
		if t == types.NoTypeID {
			return
		}
		p := fc.placeOf(target)
		switch {
		case !p.ok:
			fc.report(diag.SemaRefOfNonPlace, e.Span, "cannot assign to a field of a temporary value").Emit()
		case !p.mutable && p.viaRef:
			fc.report(diag.SemaDerefAssignImmutable, e.Span, p.immutableReason("assign", "")).Emit()
		case !p.mutable:
			b := fc.report(diag.SemaAssignImmutable, e.Span, p.immutableReason("assign to a field of", ""))
			if p.root != nil {
				b = b.WithNote(p.root.Span, "declared here")
			}
			b.Emit()
		}

	case ast.ExprDeref:
		d, _ := ex.Deref(target)
		rt := fc.expr(d.Operand, types.NoTypeID)
		if rt == types.NoTypeID || !fc.typed(d.Operand, rt, "a reference") {
			fc.expr(value, types.NoTypeID)
			return
		}
		ref, _ := fc.types.Lookup(rt)
		if ref.Kind != types.KindReference {
			fc.report(diag.SemaDerefNonRef, e.Span, "cannot dereference a value of type "+fc.typeName(rt)).Emit()
			fc.expr(value, types.NoTypeID)
			return
		}
		fc.info.ExprTypes[target] = ref.Elem
		if !ref.Mutable {
			fc.report(diag.SemaDerefAssignImmutable, e.Span,
				"cannot assign through "+fc.typeName(rt)+"; a &mut reference is required").Emit()
		}
		// через ссылку пишется ровно тип pointee, без упаковки в dynamic
		got := fc.expr(value, ref.Elem)
		if got != types.NoTypeID && got != ref.Elem {
			fc.report(diag.SemaTypeMismatch, ex.Get(value).Span,
				"expected "+fc.typeName(ref.Elem)+", found "+fc.typeName(got)).Emit()
		}

	default:
		fc.expr(target, types.NoTypeID)
		fc.expr(value, types.NoTypeID)
		fc.report(diag.SemaRefOfNonPlace, e.Span, "left side of an assignment must be a binding, a field or *reference").Emit()
	}
}
