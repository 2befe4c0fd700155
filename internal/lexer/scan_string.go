package lexer

import (
	"strings"

	"knox/internal/diag"
	"knox/internal/token"
)

// scanString читает "..." целиком. Text хранит лексему с кавычками,
// декодирование делает Unquote. Незакрытая строка тянется до EOF.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // '"'
	opener := lx.cursor.SpanFrom(start)

	for !lx.cursor.EOF() {
		ch := lx.cursor.Peek()
		switch ch {
		case '"':
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
		case '\\':
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			if lx.cursor.EOF() {
				continue
			}
			if !isEscapeByte(lx.cursor.Bump()) {
				lx.errLex(diag.LexBadEscape, lx.cursor.SpanFrom(escStart), "invalid escape sequence")
			}
		default:
			lx.cursor.Bump()
		}
	}

	lx.errLex(diag.LexUnterminatedString, opener, "unterminated string literal")
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.StringLit, Span: sp, Text: lx.text(sp)}
}

func isEscapeByte(b byte) bool {
	switch b {
	case 'n', 't', '"', '\\':
		return true
	}
	return false
}

// Unquote decodes a string lexeme produced by the lexer.
// Decoding stops at the first unescaped quote; a missing closing quote is tolerated
// and unknown escapes are kept verbatim.
func Unquote(lit string) string {
	lit = strings.TrimPrefix(lit, `"`)
	var sb strings.Builder
	sb.Grow(len(lit))
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		switch {
		case c == '"':
			return sb.String()
		case c != '\\' || i+1 == len(lit):
			sb.WriteByte(c)
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case '"':
			sb.WriteByte('"')
		case '\\':
			sb.WriteByte('\\')
		default:
			sb.WriteByte('\\')
			sb.WriteByte(lit[i])
		}
	}
	return sb.String()
}
