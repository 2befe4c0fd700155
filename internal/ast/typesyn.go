package ast

import (
	"strings"

	"knox/internal/source"
)

type TypeExprKind uint8

const (
	// TypeExprPath covers primitives, `dynamic` and user structs (`S`, `m::S`).
	TypeExprPath TypeExprKind = iota
	TypeExprUnit
	TypeExprOption
	TypeExprResult
	TypeExprRef
)

type TypeExpr struct {
	Kind TypeExprKind
	Span source.Span
	// Path - для TypeExprPath.
	Path []string
	// Elem - Option[T], &T; для Result это T.
	Elem TypeID
	// Err - E в Result[T, E].
	Err     TypeID
	Mutable bool
}

// PathString joins the path with "::".
func (t *TypeExpr) PathString() string {
	return strings.Join(t.Path, "::")
}

type TypeExprs struct {
	Arena *Arena[TypeExpr]
}

func NewTypeExprs(capHint uint) *TypeExprs {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &TypeExprs{
		Arena: NewArena[TypeExpr](capHint),
	}
}

func (t *TypeExprs) New(te TypeExpr) TypeID {
	return TypeID(t.Arena.Allocate(te))
}

func (t *TypeExprs) NewPath(span source.Span, path ...string) TypeID {
	return t.New(TypeExpr{Kind: TypeExprPath, Span: span, Path: path})
}

func (t *TypeExprs) NewRef(span source.Span, mutable bool, elem TypeID) TypeID {
	return t.New(TypeExpr{Kind: TypeExprRef, Span: span, Mutable: mutable, Elem: elem})
}

func (t *TypeExprs) NewUnit(span source.Span) TypeID {
	return t.New(TypeExpr{Kind: TypeExprUnit, Span: span})
}

func (t *TypeExprs) Get(id TypeID) *TypeExpr {
	return t.Arena.Get(uint32(id))
}

// String renders a type expression back to source form.
func (t *TypeExprs) String(id TypeID) string {
	te := t.Get(id)
	if te == nil {
		return "()"
	}
	switch te.Kind {
	case TypeExprPath:
		return te.PathString()
	case TypeExprUnit:
		return "()"
	case TypeExprOption:
		return "Option[" + t.String(te.Elem) + "]"
	case TypeExprResult:
		return "Result[" + t.String(te.Elem) + ", " + t.String(te.Err) + "]"
	case TypeExprRef:
		if te.Mutable {
			return "&mut " + t.String(te.Elem)
		}
		return "&" + t.String(te.Elem)
	}
	return "?"
}

// Equal compares two type expressions syntactically.
func (t *TypeExprs) Equal(a, b TypeID) bool {
	return t.String(a) == t.String(b)
}
