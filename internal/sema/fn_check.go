package sema

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/symbols"
	"knox/internal/types"
)

// fnChecker walks one function body.
type fnChecker struct {
	mc     *moduleChecker
	b      *ast.Builder
	types  *types.Interner
	info   *ModuleInfo
	fn     *symbols.Function
	item   *ast.FnItem
	fnInfo *FnInfo
	scope  *symbols.Scope
	next   symbols.LocalID
}

func (mc *moduleChecker) checkBodies() {
	if mc.mod.SkipBodies {
		return
	}
	for _, fn := range mc.table.Functions {
		item, ok := mc.b.Items.Fn(fn.Item)
		if !ok {
			continue
		}
		fc := &fnChecker{
			mc:     mc,
			b:      mc.b,
			types:  mc.types,
			info:   mc.info,
			fn:     fn,
			item:   item,
			fnInfo: &FnInfo{Func: fn},
		}
		mc.info.Fns[fn.Item] = fc.fnInfo
		fc.run()
	}
}

func (fc *fnChecker) run() {
	fc.scope = symbols.NewScope(symbols.ScopeFunction, nil)
	seen := make(map[string]source.Span, len(fc.item.Params))
	for i, p := range fc.item.Params {
		if prev, dup := seen[p.Name]; dup {
			fc.mc.duplicate("parameter "+p.Name, p.NameSpan, prev)
		}
		seen[p.Name] = p.NameSpan
		l := fc.declare(p.Name, symbols.SymbolParam, fc.fn.Sig.Params[i], p.NameSpan, false)
		fc.fnInfo.Params = append(fc.fnInfo.Params, l)
	}
	if !fc.item.Body.IsValid() {
		return
	}
	want := fc.fn.Sig.Result
	data, ok := fc.b.Exprs.Block(fc.item.Body)
	if ok && !data.Tail.IsValid() && want != fc.mc.builtins.Unit && want != types.NoTypeID {
		fc.expr(fc.item.Body, want)
		if !fc.info.Diverges[fc.item.Body] {
			fc.report(diag.SemaMissingReturn, fc.item.NameSpan,
				"function "+fc.item.Name+" must return "+fc.types.String(want)+" on every path").Emit()
		}
		return
	}
	fc.check(fc.item.Body, want)
}

func (fc *fnChecker) report(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return fc.mc.report(code, sp, msg)
}

func (fc *fnChecker) typeName(t types.TypeID) string {
	return fc.types.String(t)
}

func (fc *fnChecker) declare(name string, kind symbols.SymbolKind, t types.TypeID, sp source.Span, mutable bool) *symbols.Local {
	fc.next++
	flags := symbols.SymbolFlags(0)
	if mutable {
		flags |= symbols.SymbolFlagMutable
	}
	l := &symbols.Local{ID: fc.next, Name: name, Kind: kind, Flags: flags, Type: t, Span: sp}
	fc.scope.Declare(l)
	fc.fnInfo.Locals = append(fc.fnInfo.Locals, l)
	return l
}

func (fc *fnChecker) push(kind symbols.ScopeKind) func() {
	outer := fc.scope
	fc.scope = symbols.NewScope(kind, outer)
	return func() { fc.scope = outer }
}

// stmt checks one statement and reports whether control never continues past it.
func (fc *fnChecker) stmt(id ast.StmtID) bool {
	st := fc.b.Stmts.Get(id)
	if st == nil {
		return false
	}
	switch st.Kind {
	case ast.StmtLet:
		let := fc.b.Stmts.Let(id)
		t := types.NoTypeID
		if let.Type.IsValid() {
			t = fc.mc.resolveType(let.Type)
			fc.check(let.Value, t)
		} else {
			t = fc.expr(let.Value, types.NoTypeID)
		}
		l := fc.declare(let.Name, symbols.SymbolLet, t, let.NameSpan, let.Mutable)
		fc.info.Bindings[id] = l
		return fc.info.Diverges[let.Value]

	case ast.StmtAssign:
		as := fc.b.Stmts.Assign(id)
		fc.assign(as.Target, as.Value)
		return false

	case ast.StmtReturn:
		ret := fc.b.Stmts.Return(id)
		want := fc.fn.Sig.Result
		if !ret.Value.IsValid() {
			if want != fc.mc.builtins.Unit && want != types.NoTypeID {
				fc.report(diag.SemaTypeMismatch, st.Span,
					"expected "+fc.typeName(want)+", found ()").Emit()
			}
			return true
		}
		fc.check(ret.Value, want)
		return true

	case ast.StmtExpr:
		es := fc.b.Stmts.Expr(id)
		fc.expr(es.Expr, types.NoTypeID)
		return fc.info.Diverges[es.Expr]
	}
	return false
}

// block checks a block expression. A block without tail has type () unless
// it diverges, in which case it takes whatever type is expected.
func (fc *fnChecker) block(id ast.ExprID, data *ast.ExprBlockData, want types.TypeID) types.TypeID {
	defer fc.push(symbols.ScopeBlock)()
	diverges := false
	for _, s := range data.Stmts {
		if fc.stmt(s) {
			diverges = true
		}
	}
	if data.Tail.IsValid() {
		t := fc.check(data.Tail, want)
		if fc.info.Diverges[data.Tail] {
			diverges = true
		}
		if diverges {
			fc.info.Diverges[id] = true
		}
		return t
	}
	if diverges {
		fc.info.Diverges[id] = true
		if want != types.NoTypeID {
			return want
		}
	}
	return fc.mc.builtins.Unit
}
