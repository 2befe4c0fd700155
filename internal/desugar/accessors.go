package desugar

import (
	"knox/internal/ast"
)

// pub fn f(self: &S) -> T { return self.f; }
func (d *desugarer) getter(st *ast.StructItem, field *ast.StructField) ast.ItemID {
	sp := field.Span
	b := d.b
	self := b.Types.NewRef(sp, false, b.Types.NewPath(st.NameSpan, st.Name))
	read := b.Exprs.NewField(sp, b.Exprs.NewIdent(sp, "self"), field.Name, field.NameSpan)
	body := b.Exprs.NewBlock(sp, []ast.StmtID{b.Stmts.NewReturn(sp, read)}, ast.NoExprID)
	return b.Items.NewFn(ast.FnItem{
		Name:       field.Name,
		NameSpan:   field.NameSpan,
		Visibility: ast.VisPublic,
		Params:     []ast.FnParam{{Name: "self", NameSpan: sp, Type: self, Span: sp}},
		Result:     field.Type,
		Body:       body,
		Generated:  true,
		Owner:      st.Name,
		Field:      field.Name,
		Span:       sp,
	})
}

// pub fn set_f(self: &mut S, value: T) -> () { self.f = value; }
func (d *desugarer) setter(st *ast.StructItem, field *ast.StructField) ast.ItemID {
	sp := field.Span
	b := d.b
	self := b.Types.NewRef(sp, true, b.Types.NewPath(st.NameSpan, st.Name))
	target := b.Exprs.NewField(sp, b.Exprs.NewIdent(sp, "self"), field.Name, field.NameSpan)
	assign := b.Stmts.NewAssign(sp, target, b.Exprs.NewIdent(sp, "value"))
	body := b.Exprs.NewBlock(sp, []ast.StmtID{assign}, ast.NoExprID)
	return b.Items.NewFn(ast.FnItem{
		Name:       SetterName(field.Name),
		NameSpan:   field.NameSpan,
		Visibility: ast.VisPublic,
		Params: []ast.FnParam{
			{Name: "self", NameSpan: sp, Type: self, Span: sp},
			{Name: "value", NameSpan: sp, Type: field.Type, Span: sp},
		},
		Result:    b.Types.NewUnit(sp),
		Body:      body,
		Generated: true,
		Owner:     st.Name,
		Field:     field.Name,
		Span:      sp,
	})
}
