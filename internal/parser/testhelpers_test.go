package parser

import (
	"fmt"
	"strings"
	"testing"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/testkit"
)

type parsed struct {
	b    *ast.Builder
	file ast.FileID
	src  *source.File
	bag  *diag.Bag
}

func parseSrc(t *testing.T, src string) parsed {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kx", []byte(src))
	bag := diag.NewBag(0)
	b, res := ParseModule(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return parsed{b: b, file: res.File, src: fs.Get(id), bag: bag}
}

func parseOK(t *testing.T, src string) parsed {
	t.Helper()
	p := parseSrc(t, src)
	if p.bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(p.bag))
	}
	if err := testkit.CheckSpanInvariants(p.b, p.file, p.src); err != nil {
		t.Fatalf("span invariants: %v", err)
	}
	return p
}

func (p parsed) items() []ast.ItemID {
	return p.b.Files.Get(p.file).Items
}

func (p parsed) fn(t *testing.T, idx int) *ast.FnItem {
	t.Helper()
	fn, ok := p.b.Items.Fn(p.items()[idx])
	if !ok {
		t.Fatalf("item %d is not a fn", idx)
	}
	return fn
}

// bodyTail returns the tail expression of fn idx rendered with FormatExpr.
func (p parsed) bodyTail(t *testing.T, idx int) string {
	t.Helper()
	blk, _ := p.b.Exprs.Block(p.fn(t, idx).Body)
	if !blk.Tail.IsValid() {
		t.Fatalf("fn %d has no tail expression", idx)
	}
	return p.b.FormatExpr(blk.Tail)
}

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func codes(bag *diag.Bag) []diag.Code {
	items := bag.Items()
	out := make([]diag.Code, len(items))
	for i, d := range items {
		out[i] = d.Code
	}
	return out
}

func parseSrcWithMax(t *testing.T, src string, maxErrors uint) *diag.Bag {
	t.Helper()
	fs := source.NewFileSet()
	id := fs.AddVirtual("test.kx", []byte(src))
	bag := diag.NewBag(0)
	ParseModule(fs.Get(id), Options{MaxErrors: maxErrors, Reporter: diag.BagReporter{Bag: bag}})
	return bag
}
