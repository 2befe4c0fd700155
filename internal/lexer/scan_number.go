package lexer

import (
	"strconv"
	"strings"

	"knox/internal/diag"
	"knox/internal/token"
)

// scanNumber читает десятичный литерал: [0-9][0-9_]*.
// Значение должно помещаться в u64; иначе LexBadNumber, но токен остаётся IntLit.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for isDec(lx.cursor.Peek()) || lx.cursor.Peek() == '_' {
		lx.cursor.Bump()
	}
	// 12abc: хвост идентификатора съедаем в тот же токен
	bad := false
	for !lx.cursor.EOF() && isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
		bad = true
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if bad {
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal "+strconv.Quote(text))
		return token.Token{Kind: token.IntLit, Span: sp, Text: text}
	}
	if _, ok := ParseInt(text); !ok {
		lx.errLex(diag.LexBadNumber, sp, "number literal "+text+" does not fit in u64")
	}
	return token.Token{Kind: token.IntLit, Span: sp, Text: text}
}

// ParseInt returns the value of an int literal lexeme with separators removed.
func ParseInt(text string) (uint64, bool) {
	v, err := strconv.ParseUint(strings.ReplaceAll(text, "_", ""), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
