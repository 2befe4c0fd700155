package lexer

import (
	"knox/internal/diag"
	"knox/internal/token"
)

// collectLeadingTrivia пропускает пробелы и собирает комментарии перед токеном.
//   - пробелы, табы, переводы строк отбрасываются
//   - //... до конца строки -> TriviaLineComment
//   - /* ... */ -> TriviaBlockComment, вложенные допускаются
func (lx *Lexer) collectLeadingTrivia() {
	lx.hold = lx.hold[:0]
	for !lx.cursor.EOF() {
		switch lx.cursor.Peek() {
		case ' ', '\t', '\n', '\r':
			lx.cursor.Bump()
			continue
		case '/':
			if lx.scanComment() {
				continue
			}
		}
		return
	}
}

func (lx *Lexer) scanComment() bool {
	b0, b1, ok := lx.cursor.Peek2()
	if !ok || b0 != '/' {
		return false
	}
	start := lx.cursor.Mark()
	switch b1 {
	case '/':
		for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
			lx.cursor.Bump()
		}
		lx.keep(token.TriviaLineComment, start)
		return true

	case '*':
		lx.cursor.Advance(2)
		opener := lx.cursor.SpanFrom(start)
		depth := 1
		for !lx.cursor.EOF() && depth > 0 {
			if c0, c1, ok := lx.cursor.Peek2(); ok {
				switch {
				case c0 == '/' && c1 == '*':
					lx.cursor.Advance(2)
					depth++
					continue
				case c0 == '*' && c1 == '/':
					lx.cursor.Advance(2)
					depth--
					continue
				}
			}
			lx.cursor.Bump()
		}
		if depth > 0 {
			// остаток файла считается комментарием
			lx.errLex(diag.LexUnterminatedBlockComment, opener, "unterminated block comment")
		}
		lx.keep(token.TriviaBlockComment, start)
		return true
	}
	return false
}

func (lx *Lexer) keep(kind token.TriviaKind, start Mark) {
	if !lx.opts.KeepTrivia {
		return
	}
	sp := lx.cursor.SpanFrom(start)
	lx.hold = append(lx.hold, token.Trivia{Kind: kind, Span: sp, Text: lx.text(sp)})
}
