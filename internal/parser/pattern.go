package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/token"
)

// parsePattern:
//
//	_ | 1 | -1 | "s" | true | false
//	{ f: T, ... }          record (dynamic)
//	x: T                   typed binding (dynamic)
//	Some(x) | None | Ok(x) | Err(_)
func (p *Parser) parsePattern() (ast.PatID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Underscore:
		p.advance()
		return p.arenas.Patterns.New(ast.Pattern{Kind: ast.PatWildcard, Span: tok.Span}), true

	case token.IntLit:
		p.advance()
		return p.litPattern(tok, ast.ExprLitInt, tok.Text), true
	case token.Minus:
		p.advance()
		num, ok := p.expect(token.IntLit, diag.SynExpectPattern, "expected number after '-' in pattern")
		if !ok {
			return ast.NoPatID, false
		}
		tok.Span = tok.Span.Cover(num.Span)
		return p.litPattern(tok, ast.ExprLitInt, "-"+num.Text), true
	case token.StringLit:
		p.advance()
		return p.litPattern(tok, ast.ExprLitString, lexer.Unquote(tok.Text)), true
	case token.KwTrue:
		p.advance()
		return p.litPattern(tok, ast.ExprLitTrue, "true"), true
	case token.KwFalse:
		p.advance()
		return p.litPattern(tok, ast.ExprLitFalse, "false"), true

	case token.LBrace:
		return p.parseRecordPattern()

	case token.KwNone:
		p.advance()
		return p.arenas.Patterns.New(ast.Pattern{Kind: ast.PatCtor, Span: tok.Span, Ctor: ast.CtorNone}), true
	case token.KwSome, token.KwOk, token.KwErr:
		return p.parseCtorPattern()

	case token.Ident:
		p.advance()
		if _, ok := p.expect(token.Colon, diag.SynExpectPattern, "expected ': Type' after binding "+tok.Text); !ok {
			return ast.NoPatID, false
		}
		ty, ok := p.parseType()
		if !ok {
			return ast.NoPatID, false
		}
		return p.arenas.Patterns.New(ast.Pattern{
			Kind:     ast.PatBinding,
			Span:     tok.Span.Cover(p.lastSpan),
			Name:     tok.Text,
			NameSpan: tok.Span,
			Type:     ty,
		}), true
	}
	p.err(diag.SynExpectPattern, "expected pattern, got "+describe(tok))
	return ast.NoPatID, false
}

func (p *Parser) litPattern(tok token.Token, kind ast.ExprLitKind, value string) ast.PatID {
	return p.arenas.Patterns.New(ast.Pattern{Kind: ast.PatLit, Span: tok.Span, Lit: kind, LitValue: value})
}

func (p *Parser) parseRecordPattern() (ast.PatID, bool) {
	open := p.advance() // {
	pat := ast.Pattern{Kind: ast.PatRecord}
	for !p.at(token.RBrace) {
		name, ok := p.parseIdent("field name in record pattern")
		if !ok {
			return ast.NoPatID, false
		}
		if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected ':' after field name"); !ok {
			return ast.NoPatID, false
		}
		ty, ok := p.parseType()
		if !ok {
			return ast.NoPatID, false
		}
		pat.Fields = append(pat.Fields, ast.RecordPatField{Name: name.Text, NameSpan: name.Span, Type: ty})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close record pattern"); !ok {
		return ast.NoPatID, false
	}
	pat.Span = open.Span.Cover(p.lastSpan)
	if len(pat.Fields) == 0 {
		p.errAt(diag.SynExpectPattern, pat.Span, "record pattern needs at least one field")
		return ast.NoPatID, false
	}
	return p.arenas.Patterns.New(pat), true
}

// Some(x), Ok(_), Err(e)
func (p *Parser) parseCtorPattern() (ast.PatID, bool) {
	tok := p.advance()
	pat := ast.Pattern{Kind: ast.PatCtor, Ctor: ast.CtorSome}
	switch tok.Kind {
	case token.KwOk:
		pat.Ctor = ast.CtorOk
	case token.KwErr:
		pat.Ctor = ast.CtorErr
	}
	if _, ok := p.expect(token.LParen, diag.SynExpectPattern, "expected '(' after "+tok.Text); !ok {
		return ast.NoPatID, false
	}
	inner := p.lx.Peek()
	switch inner.Kind {
	case token.Ident:
		pat.Name, pat.NameSpan = inner.Text, inner.Span
	case token.Underscore:
	default:
		p.err(diag.SynExpectPattern, "expected a name or '_' inside "+tok.Text+"(...)")
		return ast.NoPatID, false
	}
	p.advance()
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' in pattern"); !ok {
		return ast.NoPatID, false
	}
	pat.Span = tok.Span.Cover(p.lastSpan)
	return p.arenas.Patterns.New(pat), true
}
