package lexer

import (
	"strconv"
	"unicode"
	"unicode/utf8"
)

const utf8RuneSelf = utf8.RuneSelf

func (lx *Lexer) peekRune() (r rune, size int) {
	if lx.cursor.EOF() {
		return utf8.RuneError, 0
	}
	b := lx.cursor.Peek()
	if b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
}

func (lx *Lexer) bumpRune(size int) {
	if size < 1 {
		size = 1
	}
	lx.cursor.Advance(size)
}

// try2 съедает два байта, если они совпадают с a, b.
func (lx *Lexer) try2(a, b byte) bool {
	b0, b1, ok := lx.cursor.Peek2()
	if ok && b0 == a && b1 == b {
		lx.cursor.Advance(2)
		return true
	}
	return false
}

func isIdentStartByte(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b)
}

func isIdentStartRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentStartByte(byte(r))
	}
	return unicode.IsLetter(r)
}

func isIdentContinueRune(r rune) bool {
	if r < utf8.RuneSelf {
		return isIdentContinueByte(byte(r))
	}
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || unicode.Is(unicode.Mc, r)
}

func isDec(b byte) bool { return b >= '0' && b <= '9' }

func quoteRune(r rune) string {
	if r == utf8.RuneError {
		return "(invalid UTF-8)"
	}
	return strconv.QuoteRune(r)
}
