package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/token"
)

// parseBlock: '{' stmt* [tail] '}'. Каждый оператор заканчивается ';',
// кроме последнего выражения блока - оно становится значением блока.
func (p *Parser) parseBlock() (ast.ExprID, bool) {
	open := p.advance() // {
	saved := p.noStruct
	p.noStruct = false
	defer func() { p.noStruct = saved }()

	var stmts []ast.StmtID
	tail := ast.NoExprID
	for !p.at(token.RBrace) && !p.halted {
		if p.at(token.EOF) || isTopLevelStarter(p.lx.Peek().Kind) {
			break
		}
		if tail.IsValid() {
			// выражение без ';' не в конце блока
			p.errAt(diag.SynExpectSemicolon, p.arenas.Exprs.Get(tail).Span, "expected ';' after expression")
			stmts = append(stmts, p.arenas.Stmts.NewExpr(p.arenas.Exprs.Get(tail).Span, tail))
			tail = ast.NoExprID
		}
		stmt, expr, ok := p.parseStmt()
		switch {
		case !ok:
			p.resyncStmt()
		case expr.IsValid():
			tail = expr
		default:
			stmts = append(stmts, stmt)
		}
	}
	if !p.at(token.RBrace) {
		p.reportWith(diag.SynUnclosedBrace, diag.SevError, p.getDiagnosticSpan(), "expected '}' to close block",
			[]diag.Note{{Span: open.Span, Msg: "block opened here"}}, nil)
		return ast.NoExprID, false
	}
	p.advance()
	return p.arenas.Exprs.NewBlock(open.Span.Cover(p.lastSpan), stmts, tail), true
}

// parseStmt returns either a statement or, for an expression directly
// followed by '}', the block's tail expression.
func (p *Parser) parseStmt() (ast.StmtID, ast.ExprID, bool) {
	start := p.lx.Peek().Span
	switch p.lx.Peek().Kind {
	case token.KwLet:
		st, ok := p.parseLetStmt()
		return st, ast.NoExprID, ok
	case token.KwReturn:
		p.advance()
		value := ast.NoExprID
		if !p.atOr(token.Semicolon, token.RBrace) {
			var ok bool
			if value, ok = p.parseExpr(); !ok {
				return ast.NoStmtID, ast.NoExprID, false
			}
		}
		if !p.expectSemicolon() {
			return ast.NoStmtID, ast.NoExprID, false
		}
		return p.arenas.Stmts.NewReturn(start.Cover(p.lastSpan), value), ast.NoExprID, true
	}

	expr, ok := p.parseExpr()
	if !ok {
		return ast.NoStmtID, ast.NoExprID, false
	}
	if p.eat(token.Assign) {
		if !p.isAssignTarget(expr) {
			p.errAt(diag.SynBadAssignTarget, p.arenas.Exprs.Get(expr).Span,
				"assignment target must be a variable, a field or a dereference")
			return ast.NoStmtID, ast.NoExprID, false
		}
		value, ok := p.parseExpr()
		if !ok {
			return ast.NoStmtID, ast.NoExprID, false
		}
		if !p.expectSemicolon() {
			return ast.NoStmtID, ast.NoExprID, false
		}
		return p.arenas.Stmts.NewAssign(start.Cover(p.lastSpan), expr, value), ast.NoExprID, true
	}
	if p.at(token.RBrace) {
		return ast.NoStmtID, expr, true
	}
	if p.at(token.Semicolon) {
		p.advance()
		return p.arenas.Stmts.NewExpr(start.Cover(p.lastSpan), expr), ast.NoExprID, true
	}
	// Без ';': это либо хвост с мусором после, либо забытый терминатор.
	// Отдаём как хвост, parseBlock сообщит SynExpectSemicolon.
	return ast.NoStmtID, expr, true
}

func (p *Parser) parseLetStmt() (ast.StmtID, bool) {
	kw := p.advance() // let
	let := ast.LetStmt{Mutable: p.eat(token.KwMut)}
	name, ok := p.parseIdent("binding name after 'let'")
	if !ok {
		return ast.NoStmtID, false
	}
	let.Name, let.NameSpan = name.Text, name.Span
	if p.eat(token.Colon) {
		if let.Type, ok = p.parseType(); !ok {
			return ast.NoStmtID, false
		}
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' in let binding"); !ok {
		return ast.NoStmtID, false
	}
	if let.Value, ok = p.parseExpr(); !ok {
		return ast.NoStmtID, false
	}
	if !p.expectSemicolon() {
		return ast.NoStmtID, false
	}
	return p.arenas.Stmts.NewLet(kw.Span.Cover(p.lastSpan), let), true
}

func (p *Parser) expectSemicolon() bool {
	if p.eat(token.Semicolon) {
		return true
	}
	insert := source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	p.reportWith(diag.SynExpectSemicolon, diag.SevError, p.getDiagnosticSpan(),
		"expected ';' after statement, got "+describe(p.lx.Peek()), nil,
		[]diag.Fix{{Title: "insert ';'", Edits: []diag.FixEdit{{Span: insert, NewText: ";"}}}})
	return false
}

func (p *Parser) isAssignTarget(id ast.ExprID) bool {
	switch p.arenas.Exprs.Get(id).Kind {
	case ast.ExprIdent, ast.ExprField, ast.ExprDeref:
		return true
	}
	return false
}
