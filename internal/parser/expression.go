package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/source"
	"knox/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	return p.parseBinaryExpr(precLogicalOr)
}

// parseBinaryExpr - Pratt по таблице op_table.
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		op, prec := binaryOp(p.lx.Peek().Kind)
		if prec < minPrec {
			return left, true
		}
		p.advance()
		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}
		span := p.arenas.Exprs.Get(left).Span.Cover(p.arenas.Exprs.Get(right).Span)
		left = p.arenas.Exprs.NewBinary(span, op, left, right)
	}
}

// parseUnaryExpr: - ! & &mut * и postfix.
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.Minus, token.Bang:
		p.advance()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return ast.NoExprID, false
		}
		op := ast.ExprUnaryNeg
		if tok.Kind == token.Bang {
			op = ast.ExprUnaryNot
		}
		return p.arenas.Exprs.NewUnary(p.coverFrom(tok.Span, operand), op, operand), true

	case token.Amp, token.AndAnd:
		p.advance()
		mutable := p.eat(token.KwMut)
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return ast.NoExprID, false
		}
		span := p.coverFrom(tok.Span, operand)
		if tok.Kind == token.AndAnd {
			// &&x == &(&x)
			inner := p.arenas.Exprs.NewRef(span, mutable, operand)
			return p.arenas.Exprs.NewRef(span, false, inner), true
		}
		return p.arenas.Exprs.NewRef(span, mutable, operand), true

	case token.Star:
		p.advance()
		operand, ok := p.parseUnaryExpr()
		if !ok {
			return ast.NoExprID, false
		}
		return p.arenas.Exprs.NewDeref(p.coverFrom(tok.Span, operand), operand), true
	}
	return p.parsePostfixExpr()
}

func (p *Parser) coverFrom(start source.Span, id ast.ExprID) source.Span {
	return start.Cover(p.arenas.Exprs.Get(id).Span)
}

// parsePostfixExpr: primary { '(' args ')' | '.' name | '?' }
func (p *Parser) parsePostfixExpr() (ast.ExprID, bool) {
	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}
	for {
		switch p.lx.Peek().Kind {
		case token.LParen:
			p.advance()
			args, ok := p.parseArgs()
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.arenas.Exprs.NewCall(p.coverFrom(p.lastSpan, expr), expr, args)
		case token.Dot:
			p.advance()
			name, ok := p.parseIdent("field or method name after '.'")
			if !ok {
				return ast.NoExprID, false
			}
			expr = p.arenas.Exprs.NewField(p.coverFrom(name.Span, expr), expr, name.Text, name.Span)
		case token.Question:
			q := p.advance()
			expr = p.arenas.Exprs.NewPropagate(p.coverFrom(q.Span, expr), expr)
		default:
			return expr, true
		}
	}
}

// parseArgs after '(' up to and including ')'.
func (p *Parser) parseArgs() ([]ast.ExprID, bool) {
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()

	var args []ast.ExprID
	for !p.at(token.RParen) && !p.halted {
		arg, ok := p.parseExpr()
		if !ok {
			return nil, false
		}
		args = append(args, arg)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after arguments"); !ok {
		return nil, false
	}
	return args, true
}

func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.lx.Peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLitInt, tok.Text), true
	case token.StringLit:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLitString, lexer.Unquote(tok.Text)), true
	case token.KwTrue:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLitTrue, "true"), true
	case token.KwFalse:
		p.advance()
		return p.arenas.Exprs.NewLiteral(tok.Span, ast.ExprLitFalse, "false"), true

	case token.LParen:
		p.advance()
		if p.eat(token.RParen) {
			return p.arenas.Exprs.NewLiteral(tok.Span.Cover(p.lastSpan), ast.ExprLitUnit, "()"), true
		}
		saved := p.noStruct
		p.noStruct = false
		inner, ok := p.parseExpr()
		p.noStruct = saved
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')'"); !ok {
			return ast.NoExprID, false
		}
		return inner, true

	case token.LBrace:
		return p.parseBlock()
	case token.KwIf:
		return p.parseIfExpr()
	case token.KwMatch:
		return p.parseMatchExpr()
	case token.KwSome, token.KwOk, token.KwErr:
		return p.parseCtorExpr()
	case token.KwNone:
		p.advance()
		return p.arenas.Exprs.NewCtor(tok.Span, ast.CtorNone, ast.NoExprID), true
	case token.Ident:
		return p.parsePathExpr()
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
	return ast.NoExprID, false
}

// parsePathExpr: name, a::b, S { ... }, m::S { ... }
func (p *Parser) parsePathExpr() (ast.ExprID, bool) {
	first := p.advance()
	segments := []string{first.Text}
	for p.eat(token.ColonColon) {
		seg, ok := p.parseIdent("name after '::'")
		if !ok {
			return ast.NoExprID, false
		}
		segments = append(segments, seg.Text)
	}
	span := first.Span.Cover(p.lastSpan)
	if p.at(token.LBrace) && !p.noStruct {
		return p.parseStructLit(segments, span)
	}
	if len(segments) == 1 {
		return p.arenas.Exprs.NewIdent(span, first.Text), true
	}
	return p.arenas.Exprs.NewPath(span, segments), true
}

// S { field: expr, ... }
func (p *Parser) parseStructLit(path []string, pathSpan source.Span) (ast.ExprID, bool) {
	p.advance() // {
	lit := ast.ExprStructLitData{Path: path, PathSpan: pathSpan}
	for !p.at(token.RBrace) && !p.halted {
		name, ok := p.parseIdent("field name in struct literal")
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); !ok {
			return ast.NoExprID, false
		}
		value, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		lit.Fields = append(lit.Fields, ast.StructLitField{Name: name.Text, NameSpan: name.Span, Value: value})
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close struct literal"); !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewStructLit(pathSpan.Cover(p.lastSpan), lit), true
}

// Some(e), Ok(e), Err(e)
func (p *Parser) parseCtorExpr() (ast.ExprID, bool) {
	tok := p.advance()
	ctor := ast.CtorSome
	switch tok.Kind {
	case token.KwOk:
		ctor = ast.CtorOk
	case token.KwErr:
		ctor = ast.CtorErr
	}
	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after "+tok.Text); !ok {
		return ast.NoExprID, false
	}
	saved := p.noStruct
	p.noStruct = false
	arg, ok := p.parseExpr()
	p.noStruct = saved
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after constructor argument"); !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewCtor(tok.Span.Cover(p.lastSpan), ctor, arg), true
}

// if cond { ... } [else if ... | else { ... }]
func (p *Parser) parseIfExpr() (ast.ExprID, bool) {
	kw := p.advance()
	cond, ok := p.parseNoStructExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected '{' after if condition")
		return ast.NoExprID, false
	}
	then, ok := p.parseBlock()
	if !ok {
		return ast.NoExprID, false
	}
	els := ast.NoExprID
	if p.eat(token.KwElse) {
		switch {
		case p.at(token.KwIf):
			els, ok = p.parseIfExpr()
		case p.at(token.LBrace):
			els, ok = p.parseBlock()
		default:
			p.err(diag.SynUnexpectedToken, "expected '{' or 'if' after 'else'")
			ok = false
		}
		if !ok {
			return ast.NoExprID, false
		}
	}
	return p.arenas.Exprs.NewIf(kw.Span.Cover(p.lastSpan), cond, then, els), true
}

// match scrutinee { pattern => expr, ... }
func (p *Parser) parseMatchExpr() (ast.ExprID, bool) {
	kw := p.advance()
	scrutinee, ok := p.parseNoStructExpr()
	if !ok {
		return ast.NoExprID, false
	}
	open, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after match scrutinee")
	if !ok {
		return ast.NoExprID, false
	}
	var arms []ast.MatchArm
	for !p.at(token.RBrace) && !p.at(token.EOF) && !p.halted {
		pat, ok := p.parsePattern()
		if !ok {
			return ast.NoExprID, false
		}
		if _, ok := p.expect(token.FatArrow, diag.SynUnexpectedToken, "expected '=>' after pattern"); !ok {
			return ast.NoExprID, false
		}
		body, ok := p.parseExpr()
		if !ok {
			return ast.NoExprID, false
		}
		arms = append(arms, ast.MatchArm{
			Pattern: pat,
			Body:    body,
			Span:    p.arenas.Patterns.Get(pat).Span.Cover(p.lastSpan),
		})
		if p.eat(token.Comma) {
			continue
		}
		// после блока запятая необязательна
		if p.arenas.Exprs.Get(body).Kind != ast.ExprBlock {
			break
		}
	}
	if !p.at(token.RBrace) {
		p.reportWith(diag.SynUnclosedBrace, diag.SevError, p.getDiagnosticSpan(), "expected ',' or '}' in match arms",
			[]diag.Note{{Span: open.Span, Msg: "match body opened here"}}, nil)
		return ast.NoExprID, false
	}
	p.advance()
	return p.arenas.Exprs.NewMatch(kw.Span.Cover(p.lastSpan), scrutinee, arms), true
}

func (p *Parser) parseNoStructExpr() (ast.ExprID, bool) {
	saved := p.noStruct
	p.noStruct = true
	defer func() { p.noStruct = saved }()
	return p.parseExpr()
}
