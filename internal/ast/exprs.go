package ast

import (
	"knox/internal/source"
)

// Exprs manages allocation of expressions and their per-kind payloads.
type Exprs struct {
	Arena      *Arena[Expr]
	Idents     *Arena[ExprIdentData]
	Paths      *Arena[ExprPathData]
	Literals   *Arena[ExprLiteralData]
	Calls      *Arena[ExprCallData]
	Fields     *Arena[ExprFieldData]
	Ifs        *Arena[ExprIfData]
	Matches    *Arena[ExprMatchData]
	Binaries   *Arena[ExprBinaryData]
	Unaries    *Arena[ExprUnaryData]
	StructLits *Arena[ExprStructLitData]
	Derefs     *Arena[ExprDerefData]
	Refs       *Arena[ExprRefData]
	Blocks     *Arena[ExprBlockData]
	Propagates *Arena[ExprPropagateData]
	Ctors      *Arena[ExprCtorData]
}

// NewExprs creates a new Exprs; capHint 0 selects 1<<8.
func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 8
	}
	small := capHint / 8
	return &Exprs{
		Arena:      NewArena[Expr](capHint),
		Idents:     NewArena[ExprIdentData](capHint / 2),
		Paths:      NewArena[ExprPathData](small),
		Literals:   NewArena[ExprLiteralData](capHint / 2),
		Calls:      NewArena[ExprCallData](capHint / 4),
		Fields:     NewArena[ExprFieldData](capHint / 4),
		Ifs:        NewArena[ExprIfData](small),
		Matches:    NewArena[ExprMatchData](small),
		Binaries:   NewArena[ExprBinaryData](capHint / 4),
		Unaries:    NewArena[ExprUnaryData](small),
		StructLits: NewArena[ExprStructLitData](small),
		Derefs:     NewArena[ExprDerefData](small),
		Refs:       NewArena[ExprRefData](small),
		Blocks:     NewArena[ExprBlockData](capHint / 4),
		Propagates: NewArena[ExprPropagateData](small),
		Ctors:      NewArena[ExprCtorData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func payload[T any](e *Exprs, id ExprID, kind ExprKind, arena *Arena[T]) (*T, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return nil, false
	}
	return arena.Get(uint32(expr.Payload)), true
}

func (e *Exprs) NewIdent(span source.Span, name string) ExprID {
	return e.new(ExprIdent, span, e.Idents.Allocate(ExprIdentData{Name: name}))
}

func (e *Exprs) Ident(id ExprID) (*ExprIdentData, bool) {
	return payload(e, id, ExprIdent, e.Idents)
}

func (e *Exprs) NewPath(span source.Span, segments []string) ExprID {
	return e.new(ExprPath, span, e.Paths.Allocate(ExprPathData{Segments: segments}))
}

func (e *Exprs) Path(id ExprID) (*ExprPathData, bool) {
	return payload(e, id, ExprPath, e.Paths)
}

func (e *Exprs) NewLiteral(span source.Span, kind ExprLitKind, value string) ExprID {
	return e.new(ExprLit, span, e.Literals.Allocate(ExprLiteralData{Kind: kind, Value: value}))
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	return payload(e, id, ExprLit, e.Literals)
}

func (e *Exprs) NewCall(span source.Span, callee ExprID, args []ExprID) ExprID {
	return e.new(ExprCall, span, e.Calls.Allocate(ExprCallData{Callee: callee, Args: args}))
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	return payload(e, id, ExprCall, e.Calls)
}

func (e *Exprs) NewField(span source.Span, target ExprID, name string, nameSpan source.Span) ExprID {
	return e.new(ExprField, span, e.Fields.Allocate(ExprFieldData{Target: target, Name: name, NameSpan: nameSpan}))
}

func (e *Exprs) Field(id ExprID) (*ExprFieldData, bool) {
	return payload(e, id, ExprField, e.Fields)
}

func (e *Exprs) NewIf(span source.Span, cond, then, els ExprID) ExprID {
	return e.new(ExprIf, span, e.Ifs.Allocate(ExprIfData{Cond: cond, Then: then, Else: els}))
}

func (e *Exprs) If(id ExprID) (*ExprIfData, bool) {
	return payload(e, id, ExprIf, e.Ifs)
}

func (e *Exprs) NewMatch(span source.Span, scrutinee ExprID, arms []MatchArm) ExprID {
	return e.new(ExprMatch, span, e.Matches.Allocate(ExprMatchData{Scrutinee: scrutinee, Arms: arms}))
}

func (e *Exprs) Match(id ExprID) (*ExprMatchData, bool) {
	return payload(e, id, ExprMatch, e.Matches)
}

func (e *Exprs) NewBinary(span source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	return e.new(ExprBinary, span, e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right}))
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	return payload(e, id, ExprBinary, e.Binaries)
}

func (e *Exprs) NewUnary(span source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	return e.new(ExprUnary, span, e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand}))
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	return payload(e, id, ExprUnary, e.Unaries)
}

func (e *Exprs) NewStructLit(span source.Span, data ExprStructLitData) ExprID {
	return e.new(ExprStructLit, span, e.StructLits.Allocate(data))
}

func (e *Exprs) StructLit(id ExprID) (*ExprStructLitData, bool) {
	return payload(e, id, ExprStructLit, e.StructLits)
}

func (e *Exprs) NewDeref(span source.Span, operand ExprID) ExprID {
	return e.new(ExprDeref, span, e.Derefs.Allocate(ExprDerefData{Operand: operand}))
}

func (e *Exprs) Deref(id ExprID) (*ExprDerefData, bool) {
	return payload(e, id, ExprDeref, e.Derefs)
}

func (e *Exprs) NewRef(span source.Span, mutable bool, operand ExprID) ExprID {
	return e.new(ExprRef, span, e.Refs.Allocate(ExprRefData{Mutable: mutable, Operand: operand}))
}

func (e *Exprs) Ref(id ExprID) (*ExprRefData, bool) {
	return payload(e, id, ExprRef, e.Refs)
}

func (e *Exprs) NewBlock(span source.Span, stmts []StmtID, tail ExprID) ExprID {
	return e.new(ExprBlock, span, e.Blocks.Allocate(ExprBlockData{Stmts: stmts, Tail: tail}))
}

func (e *Exprs) Block(id ExprID) (*ExprBlockData, bool) {
	return payload(e, id, ExprBlock, e.Blocks)
}

func (e *Exprs) NewPropagate(span source.Span, operand ExprID) ExprID {
	return e.new(ExprPropagate, span, e.Propagates.Allocate(ExprPropagateData{Operand: operand}))
}

func (e *Exprs) Propagate(id ExprID) (*ExprPropagateData, bool) {
	return payload(e, id, ExprPropagate, e.Propagates)
}

func (e *Exprs) NewCtor(span source.Span, ctor Ctor, arg ExprID) ExprID {
	return e.new(ExprCtor, span, e.Ctors.Allocate(ExprCtorData{Ctor: ctor, Arg: arg}))
}

func (e *Exprs) Ctor(id ExprID) (*ExprCtorData, bool) {
	return payload(e, id, ExprCtor, e.Ctors)
}
