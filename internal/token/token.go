package token

import (
	"knox/internal/source"
)

// Token represents a single source token with its location and trivia.
type Token struct {
	Kind    Kind
	Span    source.Span
	Text    string
	Leading []Trivia
}

// IsLiteral reports whether the token is an int, string or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFn && t.Kind <= KwErr
}

// IsPunctOrOp reports whether the token is punctuation or an operator.
func (t Token) IsPunctOrOp() bool {
	return t.Kind >= LParen && t.Kind <= Pipe
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
