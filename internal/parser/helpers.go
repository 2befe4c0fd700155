package parser

import (
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/token"
)

// advance - съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.lx.Next()
	if tok.Kind != token.EOF {
		p.lastSpan = tok.Span
	}
	return tok
}

// getDiagnosticSpan - для EOF указываем сразу за последним токеном.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.lx.Peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

// expect - ожидаем конкретный токен. Если нет - репортим и возвращаем (invalid,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	diagSpan := p.getDiagnosticSpan()
	p.report(code, diag.SevError, diagSpan, msg+", got "+describe(p.lx.Peek()))
	return token.Token{Kind: token.Invalid, Span: diagSpan}, false
}

// eat съедает токен k, если он следующий.
func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

func (p *Parser) err(code diag.Code, msg string) {
	p.report(code, diag.SevError, p.getDiagnosticSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevError, sp, msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	p.reportWith(code, sev, sp, msg, nil, nil)
}

func (p *Parser) reportWith(code diag.Code, sev diag.Severity, sp source.Span, msg string, notes []diag.Note, fixes []diag.Fix) {
	if p.halted {
		return
	}
	if sev == diag.SevError {
		if p.opts.Enough() {
			p.halted = true
			if p.opts.Reporter != nil {
				p.opts.Reporter.Report(diag.SynTooManyErrors, diag.SevError, sp, "too many syntax errors, giving up on this file", nil, nil)
			}
			return
		}
		p.opts.CurrentErrors++
	}
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, sev, sp, msg, notes, fixes)
	}
}

// resyncUntil пропускает токены до одного из stop (не съедая его) или EOF.
// Сбалансированные {...} пропускаются целиком.
func (p *Parser) resyncUntil(stop ...token.Kind) {
	depth := 0
	for !p.at(token.EOF) {
		k := p.lx.Peek().Kind
		if depth == 0 {
			for _, s := range stop {
				if k == s {
					return
				}
			}
		}
		switch k {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth > 0 {
				depth--
			}
		}
		p.advance()
	}
}

// resyncStmt: до ';' (съедаем), '}' или начала следующего item.
func (p *Parser) resyncStmt() {
	p.resyncUntil(token.Semicolon, token.RBrace, token.KwFn, token.KwStruct, token.KwImport, token.KwPub)
	p.eat(token.Semicolon)
}
