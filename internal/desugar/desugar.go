// Package desugar expands @pub(get)/@pub(set) field directives into
// ordinary accessor functions of the declaring module.
package desugar

import (
	"knox/internal/ast"
	"knox/internal/diag"
)

// SetterName is the setter generated for field: set_<field>.
func SetterName(field string) string {
	return "set_" + field
}

// Result summarises one module's desugaring.
type Result struct {
	Getters   int
	Setters   int
	Conflicts int
}

// Module appends generated accessors to the file's item list.
// Struct items and their fields are left untouched.
func Module(b *ast.Builder, file ast.FileID, reporter diag.Reporter) Result {
	d := desugarer{b: b, reporter: reporter}
	f := b.Files.Get(file)
	if f == nil {
		return Result{}
	}

	// снимок: сгенерированные функции не должны участвовать в поиске конфликтов
	handwritten := append([]ast.ItemID(nil), f.Items...)
	var generated []ast.ItemID
	for _, id := range handwritten {
		st, ok := b.Items.Struct(id)
		if !ok {
			continue
		}
		for idx := range st.Fields {
			generated = append(generated, d.structField(handwritten, st, idx)...)
		}
	}
	f.Items = append(f.Items, generated...)
	return d.res
}

type desugarer struct {
	b        *ast.Builder
	reporter diag.Reporter
	res      Result
}

func (d *desugarer) structField(items []ast.ItemID, st *ast.StructItem, idx int) []ast.ItemID {
	field := &st.Fields[idx]
	var out []ast.ItemID
	if field.Accessor.HasGet() {
		if d.checkConflict(items, st, field.Name, nil, field.Type) {
			out = append(out, d.getter(st, field))
			d.res.Getters++
		}
	}
	if field.Accessor.HasSet() {
		if d.checkConflict(items, st, SetterName(field.Name), []ast.TypeID{field.Type}, ast.NoTypeID) {
			out = append(out, d.setter(st, field))
			d.res.Setters++
		}
	}
	return out
}

// checkConflict reports a hand-written method of st with the same name and
// signature. It returns false when the accessor must be skipped.
func (d *desugarer) checkConflict(items []ast.ItemID, st *ast.StructItem, name string, params []ast.TypeID, result ast.TypeID) bool {
	for _, id := range items {
		fn, ok := d.b.Items.Fn(id)
		if !ok || fn.Name != name || !d.isMethodOf(fn, st.Name) {
			continue
		}
		if !d.sameSignature(fn, params, result) {
			// другая сигнатура: пусть sema сообщит о дубликате
			continue
		}
		d.res.Conflicts++
		if d.reporter != nil {
			diag.ReportError(d.reporter, diag.DesugarAccessorConflict, fn.NameSpan,
				"method "+st.Name+"."+name+" conflicts with the generated accessor").
				WithNote(st.NameSpan, "accessor requested on struct "+st.Name).
				Emit()
		}
		return false
	}
	return true
}

// isMethodOf: первый параметр self типа S, &S или &mut S.
func (d *desugarer) isMethodOf(fn *ast.FnItem, structName string) bool {
	if !fn.IsMethod() {
		return false
	}
	te := d.b.Types.Get(fn.Params[0].Type)
	if te != nil && te.Kind == ast.TypeExprRef {
		te = d.b.Types.Get(te.Elem)
	}
	return te != nil && te.Kind == ast.TypeExprPath && len(te.Path) == 1 && te.Path[0] == structName
}

func (d *desugarer) sameSignature(fn *ast.FnItem, params []ast.TypeID, result ast.TypeID) bool {
	rest := fn.Params[1:]
	if len(rest) != len(params) {
		return false
	}
	for i := range rest {
		if !d.b.Types.Equal(rest[i].Type, params[i]) {
			return false
		}
	}
	return d.b.Types.String(fn.Result) == d.b.Types.String(result)
}
