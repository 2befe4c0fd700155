package ast

import (
	"knox/internal/source"
)

type Hints struct{ Items, Stmts, Exprs uint }

// Builder owns every node of one module. Nodes never cross builders;
// ids are only meaningful together with the builder that allocated them.
type Builder struct {
	Files    *Files
	Items    *Items
	Stmts    *Stmts
	Exprs    *Exprs
	Types    *TypeExprs
	Patterns *Patterns
}

func NewBuilder(hints Hints) *Builder {
	if hints.Items == 0 {
		hints.Items = 1 << 6
	}
	if hints.Stmts == 0 {
		hints.Stmts = 1 << 8
	}
	if hints.Exprs == 0 {
		hints.Exprs = 1 << 8
	}
	return &Builder{
		Files:    NewFiles(1),
		Items:    NewItems(hints.Items),
		Stmts:    NewStmts(hints.Stmts),
		Exprs:    NewExprs(hints.Exprs),
		Types:    NewTypeExprs(hints.Items * 2),
		Patterns: NewPatterns(0),
	}
}

func (b *Builder) NewFile(sp source.Span) FileID {
	return b.Files.New(sp)
}

func (b *Builder) PushItem(file FileID, item ItemID) {
	f := b.Files.Get(file)
	f.Items = append(f.Items, item)
}

// FnItems returns every fn item of the file in source order.
func (b *Builder) FnItems(file FileID) []ItemID {
	var out []ItemID
	for _, id := range b.Files.Get(file).Items {
		if b.Items.Get(id).Kind == ItemFn {
			out = append(out, id)
		}
	}
	return out
}
