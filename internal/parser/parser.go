package parser

import (
	"slices"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/source"
	"knox/internal/token"
)

type Options struct {
	// MaxErrors ограничивает число синтаксических ошибок (0 = без лимита).
	MaxErrors     uint
	CurrentErrors uint
	Reporter      diag.Reporter
}

// Enough - проверить, достигли ли мы максимального количества ошибок
func (o *Options) Enough() bool {
	if o.MaxErrors == 0 {
		return false
	}
	return o.CurrentErrors >= o.MaxErrors
}

type Result struct {
	File   ast.FileID
	Errors uint
}

// Parser - состояние парсера на один файл
type Parser struct {
	lx       *lexer.Lexer
	arenas   *ast.Builder
	file     ast.FileID
	opts     Options
	lastSpan source.Span // span последнего съеденного токена
	// noStruct запрещает `Name {` как struct literal (условие if, scrutinee match).
	noStruct bool
	halted   bool
}

// ParseFile parses one module. The file always gets an ast.File, possibly empty.
func ParseFile(lx *lexer.Lexer, arenas *ast.Builder, opts Options) Result {
	start := lx.Peek().Span.Head()
	p := Parser{
		lx:       lx,
		arenas:   arenas,
		file:     arenas.NewFile(start),
		opts:     opts,
		lastSpan: start,
	}
	p.parseItems()
	return Result{File: p.file, Errors: p.opts.CurrentErrors}
}

func (p *Parser) at(k token.Kind) bool {
	return p.lx.Peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.lx.Peek().Kind)
}

// parseItems - основной цикл верхнего уровня.
func (p *Parser) parseItems() {
	startSpan := p.lx.Peek().Span
	for !p.at(token.EOF) && !p.halted {
		before := p.lx.Peek().Span
		itemID, ok := p.parseItem()
		if ok {
			p.arenas.PushItem(p.file, itemID)
			continue
		}
		p.resyncTop()
		if p.lx.Peek().Span == before && !p.at(token.EOF) {
			p.advance()
		}
	}
	p.arenas.Files.Get(p.file).Span = startSpan.Cover(p.lastSpan)
}

func (p *Parser) parseItem() (ast.ItemID, bool) {
	switch p.lx.Peek().Kind {
	case token.KwImport:
		return p.parseImportItem()
	case token.KwFn:
		return p.parseFnItem(ast.VisPrivate, p.lx.Peek().Span)
	case token.KwStruct:
		return p.parseStructItem(ast.VisPrivate, p.lx.Peek().Span)
	case token.KwPub:
		pubTok := p.advance()
		switch p.lx.Peek().Kind {
		case token.KwFn:
			return p.parseFnItem(ast.VisPublic, pubTok.Span)
		case token.KwStruct:
			return p.parseStructItem(ast.VisPublic, pubTok.Span)
		}
		p.err(diag.SynExpectItem, "expected 'fn' or 'struct' after 'pub'")
		return ast.NoItemID, false
	default:
		p.err(diag.SynExpectItem, "expected 'fn', 'struct' or 'import', got "+describe(p.lx.Peek()))
		return ast.NoItemID, false
	}
}

// resyncTop прокручивает до стартового токена следующего item или EOF.
func (p *Parser) resyncTop() {
	p.resyncUntil(token.KwImport, token.KwFn, token.KwStruct, token.KwPub)
}

func isTopLevelStarter(k token.Kind) bool {
	switch k {
	case token.KwImport, token.KwFn, token.KwStruct, token.KwPub:
		return true
	default:
		return false
	}
}

// parseIdent ожидает Ident; на ошибке - SynExpectIdentifier.
func (p *Parser) parseIdent(what string) (token.Token, bool) {
	if p.at(token.Ident) {
		return p.advance(), true
	}
	p.err(diag.SynExpectIdentifier, "expected "+what+", got "+describe(p.lx.Peek()))
	return token.Token{}, false
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident:
		return "identifier '" + tok.Text + "'"
	case token.IntLit, token.StringLit:
		return "literal " + tok.Text
	default:
		return "'" + tok.Kind.String() + "'"
	}
}

// ParseModule lexes and parses file into a fresh builder.
// Lexical and syntax diagnostics both go to opts.Reporter.
func ParseModule(file *source.File, opts Options) (*ast.Builder, Result) {
	hint := uint(len(file.Content) / 8)
	b := ast.NewBuilder(ast.Hints{Items: hint / 16, Stmts: hint / 4, Exprs: hint})
	lx := lexer.New(file, lexer.Options{Reporter: opts.Reporter})
	return b, ParseFile(lx, b, opts)
}
