package ast

import (
	"knox/internal/source"
)

type ExprKind uint8

const (
	ExprIdent ExprKind = iota
	ExprPath
	ExprLit
	ExprCall
	ExprField
	ExprIf
	ExprMatch
	ExprBinary
	ExprUnary
	ExprStructLit
	ExprDeref
	ExprRef
	ExprBlock
	ExprPropagate
	ExprCtor
)

var exprKindNames = [...]string{
	ExprIdent:     "ident",
	ExprPath:      "path",
	ExprLit:       "literal",
	ExprCall:      "call",
	ExprField:     "field",
	ExprIf:        "if",
	ExprMatch:     "match",
	ExprBinary:    "binary",
	ExprUnary:     "unary",
	ExprStructLit: "struct literal",
	ExprDeref:     "deref",
	ExprRef:       "ref",
	ExprBlock:     "block",
	ExprPropagate: "propagate",
	ExprCtor:      "constructor",
}

func (k ExprKind) String() string {
	if int(k) < len(exprKindNames) {
		return exprKindNames[k]
	}
	return "expr(?)"
}

type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

type ExprLitKind uint8

const (
	ExprLitInt ExprLitKind = iota
	ExprLitString
	ExprLitTrue
	ExprLitFalse
	ExprLitUnit
)

type ExprBinaryOp uint8

const (
	ExprBinaryLogicalOr ExprBinaryOp = iota
	ExprBinaryLogicalAnd
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
	ExprBinaryAdd
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryRem
)

var binaryOpText = [...]string{
	ExprBinaryLogicalOr:  "||",
	ExprBinaryLogicalAnd: "&&",
	ExprBinaryEq:         "==",
	ExprBinaryNotEq:      "!=",
	ExprBinaryLess:       "<",
	ExprBinaryLessEq:     "<=",
	ExprBinaryGreater:    ">",
	ExprBinaryGreaterEq:  ">=",
	ExprBinaryAdd:        "+",
	ExprBinarySub:        "-",
	ExprBinaryMul:        "*",
	ExprBinaryDiv:        "/",
	ExprBinaryRem:        "%",
}

func (op ExprBinaryOp) String() string {
	if int(op) < len(binaryOpText) {
		return binaryOpText[op]
	}
	return "?"
}

// IsComparison reports ==, !=, <, <=, >, >=.
func (op ExprBinaryOp) IsComparison() bool {
	return op >= ExprBinaryEq && op <= ExprBinaryGreaterEq
}

type ExprUnaryOp uint8

const (
	ExprUnaryNeg ExprUnaryOp = iota
	ExprUnaryNot
)

func (op ExprUnaryOp) String() string {
	if op == ExprUnaryNot {
		return "!"
	}
	return "-"
}

type Ctor uint8

const (
	CtorSome Ctor = iota
	CtorNone
	CtorOk
	CtorErr
)

func (c Ctor) String() string {
	switch c {
	case CtorSome:
		return "Some"
	case CtorNone:
		return "None"
	case CtorOk:
		return "Ok"
	default:
		return "Err"
	}
}

type (
	ExprIdentData struct {
		Name string
	}
	// ExprPathData - `m::f`, `a::b::S`.
	ExprPathData struct {
		Segments []string
	}
	ExprLiteralData struct {
		Kind ExprLitKind
		// Value is the literal text: digits for ints, decoded contents for strings.
		Value string
	}
	ExprCallData struct {
		Callee ExprID
		Args   []ExprID
	}
	ExprFieldData struct {
		Target   ExprID
		Name     string
		NameSpan source.Span
	}
	ExprIfData struct {
		Cond ExprID
		Then ExprID // ExprBlock
		Else ExprID // ExprBlock, ExprIf или NoExprID
	}
	MatchArm struct {
		Pattern PatID
		Body    ExprID
		Span    source.Span
	}
	ExprMatchData struct {
		Scrutinee ExprID
		Arms      []MatchArm
	}
	ExprBinaryData struct {
		Op    ExprBinaryOp
		Left  ExprID
		Right ExprID
	}
	ExprUnaryData struct {
		Op      ExprUnaryOp
		Operand ExprID
	}
	StructLitField struct {
		Name     string
		NameSpan source.Span
		Value    ExprID
	}
	ExprStructLitData struct {
		Path     []string
		PathSpan source.Span
		Fields   []StructLitField
	}
	ExprDerefData struct {
		Operand ExprID
	}
	ExprRefData struct {
		Mutable bool
		Operand ExprID
	}
	ExprBlockData struct {
		Stmts []StmtID
		Tail  ExprID // значение блока; NoExprID означает ()
	}
	ExprPropagateData struct {
		Operand ExprID
	}
	ExprCtorData struct {
		Ctor Ctor
		Arg  ExprID // NoExprID для None
	}
)
