package lexer

import (
	"knox/internal/diag"
	"knox/internal/token"

	"golang.org/x/text/unicode/norm"
)

// scanIdentOrKeyword читает идентификатор (ASCII fast path + Unicode letters).
// Non-ASCII identifiers are normalised to NFC so that equal names compare equal.
func (lx *Lexer) scanIdentOrKeyword() token.Token {
	start := lx.cursor.Mark()
	ascii := true

	r, size := lx.peekRune()
	if !isIdentStartRune(r) {
		lx.bumpRune(size)
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexUnknownChar, sp, "unknown character "+quoteRune(r))
		return token.Token{Kind: token.Invalid, Span: sp, Text: lx.text(sp)}
	}
	if size > 1 {
		ascii = false
	}
	lx.bumpRune(size)

	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		if b < utf8RuneSelf {
			if !isIdentContinueByte(b) {
				break
			}
			lx.cursor.Bump()
			continue
		}
		r, size = lx.peekRune()
		if !isIdentContinueRune(r) {
			break
		}
		ascii = false
		lx.bumpRune(size)
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	if !ascii {
		text = norm.NFC.String(text)
	}
	if kw, ok := token.LookupKeyword(text); ok {
		return token.Token{Kind: kw, Span: sp, Text: text}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: text}
}
