package parser

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/token"
)

// parseImportItem разбирает:
//
//	import a::b;
//	import a::b as x;
//	import a::b::{x, y as z};
//	import a::b::x as y;
//
// Точка с запятой в конце необязательна.
func (p *Parser) parseImportItem() (ast.ItemID, bool) {
	kw := p.advance() // import
	imp := ast.ImportItem{}

	first, ok := p.parseIdent("module path after 'import'")
	if !ok {
		return ast.NoItemID, false
	}
	imp.Path = append(imp.Path, first.Text)
	imp.PathSpan = first.Span

	for p.eat(token.ColonColon) {
		if p.at(token.LBrace) {
			if !p.parseImportGroup(&imp) {
				return ast.NoItemID, false
			}
			break
		}
		seg, ok := p.parseIdent("path segment after '::'")
		if !ok {
			return ast.NoItemID, false
		}
		imp.Path = append(imp.Path, seg.Text)
		imp.PathSpan = imp.PathSpan.Cover(seg.Span)
	}

	if p.eat(token.KwAs) {
		if imp.Group {
			p.err(diag.SynBadImport, "an import group cannot have an alias")
			return ast.NoItemID, false
		}
		alias, ok := p.parseIdent("alias after 'as'")
		if !ok {
			return ast.NoItemID, false
		}
		imp.Alias = alias.Text
	}
	p.eat(token.Semicolon)

	imp.Span = kw.Span.Cover(p.lastSpan)
	return p.arenas.Items.NewImport(imp), true
}

func (p *Parser) parseImportGroup(imp *ast.ImportItem) bool {
	open := p.advance() // {
	imp.Group = true
	for !p.at(token.RBrace) {
		name, ok := p.parseIdent("imported name")
		if !ok {
			return false
		}
		entry := ast.ImportName{Name: name.Text, Span: name.Span}
		if p.eat(token.KwAs) {
			alias, ok := p.parseIdent("alias after 'as'")
			if !ok {
				return false
			}
			entry.Alias = alias.Text
			entry.Span = entry.Span.Cover(alias.Span)
		}
		imp.Names = append(imp.Names, entry)
		if !p.eat(token.Comma) {
			break
		}
	}
	if _, ok := p.expect(token.RBrace, diag.SynUnclosedBrace, "expected '}' to close import group"); !ok {
		return false
	}
	if len(imp.Names) == 0 {
		p.errAt(diag.SynBadImport, open.Span.Cover(p.lastSpan), "empty import group")
		return false
	}
	return true
}
