package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/token"
)

// struct Name { field: T @pub(get, set), ... }
func (p *Parser) parseStructItem(vis ast.Visibility, start source.Span) (ast.ItemID, bool) {
	p.advance() // struct
	name, ok := p.parseIdent("struct name")
	if !ok {
		return ast.NoItemID, false
	}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after struct name"); !ok {
		return ast.NoItemID, false
	}

	st := ast.StructItem{Name: name.Text, NameSpan: name.Span, Visibility: vis}
	for !p.at(token.RBrace) && !p.at(token.EOF) {
		field, ok := p.parseStructField()
		if !ok {
			p.resyncUntil(token.Comma, token.RBrace, token.KwFn, token.KwStruct, token.KwImport, token.KwPub)
			if isTopLevelStarter(p.lx.Peek().Kind) {
				return ast.NoItemID, false
			}
			p.eat(token.Comma)
			continue
		}
		st.Fields = append(st.Fields, field)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close struct "+name.Text); !ok {
		return ast.NoItemID, false
	}
	st.Span = start.Cover(p.lastSpan)
	return p.arenas.Items.NewStruct(st), true
}

func (p *Parser) parseStructField() (ast.StructField, bool) {
	name, ok := p.parseIdent("field name")
	if !ok {
		return ast.StructField{}, false
	}
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); !ok {
		return ast.StructField{}, false
	}
	ty, ok := p.parseType()
	if !ok {
		return ast.StructField{}, false
	}
	field := ast.StructField{Name: name.Text, NameSpan: name.Span, Type: ty}
	if p.at(token.At) {
		acc, sp, ok := p.parseAccessorAttr()
		if !ok {
			return ast.StructField{}, false
		}
		field.Accessor = acc
		field.AttrSpan = sp
	}
	field.Span = name.Span.Cover(p.lastSpan)
	return field, true
}

// @pub(get), @pub(set), @pub(get, set)
func (p *Parser) parseAccessorAttr() (ast.Accessor, source.Span, bool) {
	at := p.advance() // @
	if _, ok := p.expect(token.KwPub, diag.SynBadAttribute, "expected 'pub' after '@'"); !ok {
		return ast.AccessorNone, at.Span, false
	}
	if _, ok := p.expect(token.LParen, diag.SynBadAttribute, "expected '(' after '@pub'"); !ok {
		return ast.AccessorNone, at.Span, false
	}
	acc := ast.AccessorNone
	for {
		tok := p.lx.Peek()
		var bit ast.Accessor
		switch {
		case tok.Kind == token.Ident && tok.Text == "get":
			bit = ast.AccessorGet
		case tok.Kind == token.Ident && tok.Text == "set":
			bit = ast.AccessorSet
		default:
			p.err(diag.SynBadAttribute, "expected 'get' or 'set', got "+describe(tok))
			return ast.AccessorNone, at.Span, false
		}
		p.advance()
		if acc&bit != 0 {
			p.errAt(diag.SynDuplicateAccessor, tok.Span, "accessor '"+tok.Text+"' listed twice")
		}
		acc |= bit
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close '@pub('"); !ok {
		return ast.AccessorNone, at.Span, false
	}
	return acc, at.Span.Cover(p.lastSpan), true
}
