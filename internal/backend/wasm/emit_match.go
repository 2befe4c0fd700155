package wasm

import (
	"strings"

	"knox/internal/ast"
	"knox/internal/layout"
	"knox/internal/lexer"
	"knox/internal/sema"
	"knox/internal/source"
	"knox/internal/types"
)

// match lowers arms into nested blocks:
//
//	block $done (result T)
//	  block $next  ;; arm 0: test, br_if $next on mismatch, bind, body, br $done
//	  end
//	  ...
//	  unreachable
//	end
func (fe *funcEmitter) match(id ast.ExprID, d *ast.ExprMatchData) {
	result := fe.typeOf(id)
	scr := fe.typeOf(d.Scrutinee)
	fe.value(d.Scrutinee)
	for {
		tt, ok := fe.e.types.Lookup(scr)
		if !ok || tt.Kind != types.KindReference {
			break
		}
		scr = tt.Elem
		fe.fb.load(fe.repr(scr), 0)
	}
	r := fe.repr(scr)
	var tmp uint32
	if r != layout.ReprNone {
		tmp = fe.temp(r)
		fe.fb.localSet(tmp)
	}

	done := fe.fb.block(blockType(fe.repr(result)))
	for _, arm := range d.Arms {
		next := fe.fb.block(blockEmpty)
		fe.pattern(arm.Pattern, scr, tmp, next)
		fe.valueAs(arm.Body, result)
		fe.fb.br(done)
		fe.fb.end()
	}
	// проверка полноты гарантирует, что сюда не попасть
	fe.fb.op(opUnreachable)
	fe.fb.end()
}

// pattern tests the scrutinee held in local scr, branches to fail on a
// mismatch and binds the pattern's names otherwise.
func (fe *funcEmitter) pattern(pid ast.PatID, scrT types.TypeID, scr uint32, fail label) {
	p := fe.info.Builder.Patterns.Get(pid)
	if p == nil {
		fe.fail(fe.fnSpan(), "missing pattern")
	}
	switch p.Kind {
	case ast.PatWildcard:

	case ast.PatLit:
		fe.litPattern(p, scrT, scr, fail)

	case ast.PatCtor:
		info := fe.patternInfo(pid, p)
		lay := fe.e.layoutOf(scrT, p.Span)
		fe.fb.localGet(scr)
		fe.fb.load(layout.ReprI32, 0)
		fe.fb.i32Const(ctorTag(p.Ctor))
		fe.fb.op(opI32Ne)
		fe.fb.brIf(fail)
		if len(info.Locals) > 0 {
			fe.fb.localGet(scr)
			fe.fb.load(fe.repr(info.Type), lay.PayloadOffset)
			fe.bind(info.Locals[0])
		}

	case ast.PatBinding:
		info := fe.patternInfo(pid, p)
		lay := fe.e.layoutOf(scrT, p.Span)
		fe.testTag(scr, fe.e.typeTag(info.Type, p.Span), fail)
		if len(info.Locals) > 0 {
			fe.fb.localGet(scr)
			fe.fb.load(fe.repr(info.Type), lay.PayloadOffset)
			fe.bind(info.Locals[0])
		}

	case ast.PatRecord:
		fe.recordPattern(fe.patternInfo(pid, p), p, scrT, scr, fail)
	}
}

func (fe *funcEmitter) patternInfo(pid ast.PatID, p *ast.Pattern) sema.PatternInfo {
	info, ok := fe.info.Patterns[pid]
	if !ok {
		fe.fail(p.Span, "pattern is not checked")
	}
	return info
}

func (fe *funcEmitter) testTag(scr uint32, tag int32, fail label) {
	fe.fb.localGet(scr)
	fe.fb.load(layout.ReprI32, 0)
	fe.fb.i32Const(tag)
	fe.fb.op(opI32Ne)
	fe.fb.brIf(fail)
}

func (fe *funcEmitter) litPattern(p *ast.Pattern, scrT types.TypeID, scr uint32, fail label) {
	switch p.Lit {
	case ast.ExprLitInt:
		neg := strings.HasPrefix(p.LitValue, "-")
		v, ok := lexer.ParseInt(strings.TrimPrefix(p.LitValue, "-"))
		if !ok {
			fe.fail(p.Span, "bad integer pattern %q", p.LitValue)
		}
		fe.fb.localGet(scr)
		if fe.repr(scrT) == layout.ReprI64 {
			fe.fb.i64Const(int64(v))
			fe.fb.op(opI64Ne)
		} else {
			n := int32(uint32(v))
			if neg {
				n = -n
			}
			fe.fb.i32Const(n)
			fe.fb.op(opI32Ne)
		}
		fe.fb.brIf(fail)
	case ast.ExprLitString:
		fe.fb.localGet(scr)
		fe.stringConst(p.LitValue)
		fe.fb.call(strEqIndex)
		fe.fb.op(opI32Eqz)
		fe.fb.brIf(fail)
	case ast.ExprLitTrue:
		fe.fb.localGet(scr)
		fe.fb.op(opI32Eqz)
		fe.fb.brIf(fail)
	case ast.ExprLitFalse:
		fe.fb.localGet(scr)
		fe.fb.brIf(fail)
	case ast.ExprLitUnit:
	}
}

// recordPattern tries each candidate struct in declaration order; the
// first one whose tag matches binds the fields.
func (fe *funcEmitter) recordPattern(info sema.PatternInfo, p *ast.Pattern, scrT types.TypeID, scr uint32, fail label) {
	lay := fe.e.layoutOf(scrT, p.Span)
	matched := fe.fb.block(blockEmpty)
	for ci, cand := range info.Candidates {
		skip := fe.fb.block(blockEmpty)
		fe.testTag(scr, fe.e.typeTag(cand, p.Span), skip)
		obj := fe.fb.newLocal(valI32)
		fe.fb.localGet(scr)
		fe.fb.load(layout.ReprI32, lay.PayloadOffset)
		fe.fb.localSet(obj)
		for fi, l := range info.Locals {
			if fi >= len(info.Fields[ci]) {
				fe.fail(p.Span, "record pattern field %d has no slot", fi)
			}
			off, ft := fe.field(sema.FieldRef{Struct: cand, Index: info.Fields[ci][fi]}, p.Span)
			fe.fb.localGet(obj)
			fe.fb.load(fe.repr(ft), off)
			fe.bind(l)
		}
		fe.fb.br(matched)
		fe.fb.end()
	}
	fe.fb.br(fail)
	fe.fb.end()
}

func (fe *funcEmitter) fnSpan() source.Span {
	return fe.fn.Span
}
