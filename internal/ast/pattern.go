package ast

import "knox/internal/source"

type PatKind uint8

const (
	PatWildcard PatKind = iota
	PatLit
	// PatRecord - `{ name: string, age: int }`, only on dynamic scrutinees.
	PatRecord
	// PatBinding - `x: T`, only on dynamic scrutinees.
	PatBinding
	// PatCtor - `Some(x)`, `None`, `Ok(_)`, `Err(e)`.
	PatCtor
)

type RecordPatField struct {
	Name     string
	NameSpan source.Span
	Type     TypeID
}

type Pattern struct {
	Kind PatKind
	Span source.Span
	// PatLit
	Lit      ExprLitKind
	LitValue string
	// PatRecord
	Fields []RecordPatField
	// PatBinding и PatCtor: имя привязки, "" для `_` и None
	Name     string
	NameSpan source.Span
	Type     TypeID
	Ctor     Ctor
}

type Patterns struct {
	Arena *Arena[Pattern]
}

func NewPatterns(capHint uint) *Patterns {
	if capHint == 0 {
		capHint = 1 << 6
	}
	return &Patterns{Arena: NewArena[Pattern](capHint)}
}

func (p *Patterns) New(pat Pattern) PatID {
	return PatID(p.Arena.Allocate(pat))
}

func (p *Patterns) Get(id PatID) *Pattern {
	return p.Arena.Get(uint32(id))
}
