package token

import "knox/internal/source"

type TriviaKind uint8

const (
	TriviaLineComment TriviaKind = iota
	TriviaBlockComment
)

// Trivia is a comment that precedes a token. Whitespace is not kept.
type Trivia struct {
	Kind TriviaKind
	Span source.Span
	Text string
}

func (k TriviaKind) String() string {
	switch k {
	case TriviaLineComment:
		return "line_comment"
	case TriviaBlockComment:
		return "block_comment"
	}
	return "unknown"
}
