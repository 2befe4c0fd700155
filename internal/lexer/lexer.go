package lexer

import (
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/token"
)

type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	look   *token.Token   // буфер на один токен для Peek
	hold   []token.Trivia // комментарии перед следующим токеном
	errors int
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
	}
}

// Tokenize lexes the whole file and returns every token including the final EOF.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	toks := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

// Next returns the next significant token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.collectLeadingTrivia()

	if lx.cursor.EOF() {
		return token.Token{Kind: token.EOF, Span: lx.emptySpan()}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case ch == '_':
		// одиночный "_" - wildcard, "_x" - идентификатор
		if _, b1, ok := lx.cursor.Peek2(); ok && isIdentContinueByte(b1) {
			tok = lx.scanIdentOrKeyword()
		} else {
			tok = lx.scanOperatorOrPunct()
		}
	case isIdentStartByte(ch), ch >= utf8RuneSelf:
		tok = lx.scanIdentOrKeyword()
	case isDec(ch):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanString()
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if lx.opts.KeepTrivia && len(lx.hold) > 0 {
		tok.Leading = lx.hold
		lx.hold = nil
	}
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	if lx.look != nil {
		return *lx.look
	}
	t := lx.Next()
	lx.look = &t
	return t
}

// ErrorCount is the number of lexical errors reported so far.
func (lx *Lexer) ErrorCount() int {
	return lx.errors
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	lx.errors++
	if lx.opts.Reporter == nil {
		return
	}
	lx.opts.Reporter.Report(code, diag.SevError, sp, msg, nil, nil)
}
