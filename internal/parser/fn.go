package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/token"
)

// fn name(p: T, ...) [-> R] { ... }
func (p *Parser) parseFnItem(vis ast.Visibility, start source.Span) (ast.ItemID, bool) {
	p.advance() // fn
	name, ok := p.parseIdent("function name")
	if !ok {
		return ast.NoItemID, false
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); !ok {
		return ast.NoItemID, false
	}
	params, ok := p.parseFnParams()
	if !ok {
		return ast.NoItemID, false
	}

	result := ast.NoTypeID
	if p.eat(token.Arrow) {
		if result, ok = p.parseType(); !ok {
			return ast.NoItemID, false
		}
	}

	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected '{' to start the body of "+name.Text)
		return ast.NoItemID, false
	}
	body, ok := p.parseBlock()
	if !ok {
		return ast.NoItemID, false
	}
	return p.arenas.Items.NewFn(ast.FnItem{
		Name:       name.Text,
		NameSpan:   name.Span,
		Visibility: vis,
		Params:     params,
		Result:     result,
		Body:       body,
		Span:       start.Cover(p.lastSpan),
	}), true
}

func (p *Parser) parseFnParams() ([]ast.FnParam, bool) {
	var params []ast.FnParam
	for !p.at(token.RParen) {
		name, ok := p.parseIdent("parameter name")
		if !ok {
			return nil, false
		}
		if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected ':' after parameter "+name.Text); !ok {
			return nil, false
		}
		ty, ok := p.parseType()
		if !ok {
			return nil, false
		}
		params = append(params, ast.FnParam{
			Name:     name.Text,
			NameSpan: name.Span,
			Type:     ty,
			Span:     name.Span.Cover(p.lastSpan),
		})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after parameters"); !ok {
		return nil, false
	}
	return params, true
}
