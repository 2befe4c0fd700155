package parser

import (
	"knox/internal/ast"
	"knox/internal/token"
)

// Чем больше число, тем выше приоритет. Все бинарные операторы левоассоциативны.
const (
	precLogicalOr      = 1 // ||
	precLogicalAnd     = 2 // &&
	precEquality       = 3 // == !=
	precComparison     = 4 // < <= > >=
	precAdditive       = 5 // + -
	precMultiplicative = 6 // * / %
)

// binaryOp returns the operator and its precedence, or -1 when kind is not binary.
func binaryOp(kind token.Kind) (ast.ExprBinaryOp, int) {
	switch kind {
	case token.OrOr:
		return ast.ExprBinaryLogicalOr, precLogicalOr
	case token.AndAnd:
		return ast.ExprBinaryLogicalAnd, precLogicalAnd
	case token.EqEq:
		return ast.ExprBinaryEq, precEquality
	case token.BangEq:
		return ast.ExprBinaryNotEq, precEquality
	case token.Lt:
		return ast.ExprBinaryLess, precComparison
	case token.LtEq:
		return ast.ExprBinaryLessEq, precComparison
	case token.Gt:
		return ast.ExprBinaryGreater, precComparison
	case token.GtEq:
		return ast.ExprBinaryGreaterEq, precComparison
	case token.Plus:
		return ast.ExprBinaryAdd, precAdditive
	case token.Minus:
		return ast.ExprBinarySub, precAdditive
	case token.Star:
		return ast.ExprBinaryMul, precMultiplicative
	case token.Slash:
		return ast.ExprBinaryDiv, precMultiplicative
	case token.Percent:
		return ast.ExprBinaryRem, precMultiplicative
	}
	return 0, -1
}
