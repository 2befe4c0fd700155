package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/token"
)

// parseType:
//
//	int | u64 | string | bool | dynamic | Name | m::Name
//	() | Option[T] | Result[T, E] | &T | &mut T
func (p *Parser) parseType() (ast.TypeID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.LParen:
		p.advance()
		if _, ok := p.expect(token.RParen, diag.SynExpectType, "expected ')' in unit type"); !ok {
			return ast.NoTypeID, false
		}
		return p.arenas.Types.NewUnit(tok.Span.Cover(p.lastSpan)), true

	case token.Amp, token.AndAnd:
		// && в позиции типа - это & &T
		p.advance()
		mutable := p.eat(token.KwMut)
		elem, ok := p.parseType()
		if !ok {
			return ast.NoTypeID, false
		}
		span := tok.Span.Cover(p.lastSpan)
		if tok.Kind == token.AndAnd {
			inner := p.arenas.Types.NewRef(span, mutable, elem)
			return p.arenas.Types.NewRef(span, false, inner), true
		}
		return p.arenas.Types.NewRef(span, mutable, elem), true

	case token.Ident:
		p.advance()
		if p.at(token.LBracket) && (tok.Text == "Option" || tok.Text == "Result") {
			return p.parseGenericType(tok)
		}
		path := []string{tok.Text}
		for p.eat(token.ColonColon) {
			seg, ok := p.parseIdent("type name after '::'")
			if !ok {
				return ast.NoTypeID, false
			}
			path = append(path, seg.Text)
		}
		return p.arenas.Types.NewPath(tok.Span.Cover(p.lastSpan), path...), true
	}
	p.err(diag.SynExpectType, "expected type, got "+describe(tok))
	return ast.NoTypeID, false
}

func (p *Parser) parseGenericType(head token.Token) (ast.TypeID, bool) {
	p.advance() // [
	first, ok := p.parseType()
	if !ok {
		return ast.NoTypeID, false
	}
	te := ast.TypeExpr{Kind: ast.TypeExprOption, Elem: first}
	if head.Text == "Result" {
		te.Kind = ast.TypeExprResult
		if _, ok := p.expect(token.Comma, diag.SynExpectType, "Result needs two type arguments"); !ok {
			return ast.NoTypeID, false
		}
		if te.Err, ok = p.parseType(); !ok {
			return ast.NoTypeID, false
		}
	}
	if _, ok := p.expect(token.RBracket, diag.SynUnclosedBracket, "expected ']' after type arguments"); !ok {
		return ast.NoTypeID, false
	}
	te.Span = head.Span.Cover(p.lastSpan)
	return p.arenas.Types.New(te), true
}
