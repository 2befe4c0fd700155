package ast

import (
	"knox/internal/source"
)

type StmtKind uint8

const (
	StmtLet StmtKind = iota
	StmtAssign
	StmtReturn
	StmtExpr
)

type Stmt struct {
	Kind    StmtKind
	Span    source.Span
	Payload PayloadID
}

type LetStmt struct {
	Name     string
	NameSpan source.Span
	Mutable  bool
	Type     TypeID // опционально
	Value    ExprID
}

// AssignStmt: Target is an ident, a field access or a deref.
type AssignStmt struct {
	Target ExprID
	Value  ExprID
}

type ReturnStmt struct {
	Value ExprID // NoExprID для `return;`
}

type ExprStmt struct {
	Expr ExprID
}

type Stmts struct {
	Arena   *Arena[Stmt]
	Lets    *Arena[LetStmt]
	Assigns *Arena[AssignStmt]
	Returns *Arena[ReturnStmt]
	Exprs   *Arena[ExprStmt]
}

func NewStmts(capHint uint) *Stmts {
	if capHint == 0 {
		capHint = 1 << 8
	}
	return &Stmts{
		Arena:   NewArena[Stmt](capHint),
		Lets:    NewArena[LetStmt](capHint / 2),
		Assigns: NewArena[AssignStmt](capHint / 4),
		Returns: NewArena[ReturnStmt](capHint / 4),
		Exprs:   NewArena[ExprStmt](capHint / 2),
	}
}

func (s *Stmts) new(kind StmtKind, span source.Span, payload uint32) StmtID {
	return StmtID(s.Arena.Allocate(Stmt{Kind: kind, Span: span, Payload: PayloadID(payload)}))
}

func (s *Stmts) Get(id StmtID) *Stmt {
	return s.Arena.Get(uint32(id))
}

func (s *Stmts) NewLet(span source.Span, let LetStmt) StmtID {
	return s.new(StmtLet, span, s.Lets.Allocate(let))
}

func (s *Stmts) NewAssign(span source.Span, target, value ExprID) StmtID {
	return s.new(StmtAssign, span, s.Assigns.Allocate(AssignStmt{Target: target, Value: value}))
}

func (s *Stmts) NewReturn(span source.Span, value ExprID) StmtID {
	return s.new(StmtReturn, span, s.Returns.Allocate(ReturnStmt{Value: value}))
}

func (s *Stmts) NewExpr(span source.Span, expr ExprID) StmtID {
	return s.new(StmtExpr, span, s.Exprs.Allocate(ExprStmt{Expr: expr}))
}

func (s *Stmts) Let(id StmtID) *LetStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtLet {
		return s.Lets.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Assign(id StmtID) *AssignStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtAssign {
		return s.Assigns.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Return(id StmtID) *ReturnStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtReturn {
		return s.Returns.Get(uint32(st.Payload))
	}
	return nil
}

func (s *Stmts) Expr(id StmtID) *ExprStmt {
	if st := s.Get(id); st != nil && st.Kind == StmtExpr {
		return s.Exprs.Get(uint32(st.Payload))
	}
	return nil
}
