package sema

import (
	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/source"
	"knox/internal/symbols"
	"knox/internal/types"
)

// moduleChecker owns the tables and decorations of one module. Phase 1 runs
// over all modules sequentially; phase 2 touches only this module's state.
type moduleChecker struct {
	mod      *Module
	b        *ast.Builder
	prog     *symbols.Program
	types    *types.Interner
	builtins types.Builtins
	table    *symbols.ModuleTable
	info     *ModuleInfo
	reporter diag.Reporter

	bindings map[string]symbols.ImportBinding
	imports  map[string]*importEntry
	structs  map[ast.ItemID]*symbols.Struct
	fns      map[ast.ItemID]*symbols.Function
}

func newModuleChecker(m *Module, prog *symbols.Program) *moduleChecker {
	table := symbols.NewModuleTable(m.ID)
	prog.Modules[m.ID] = table
	reporter := m.Reporter
	if reporter == nil {
		reporter = diag.BagReporter{Bag: diag.NewBag(0)}
	}
	return &moduleChecker{
		mod:      m,
		b:        m.Builder,
		prog:     prog,
		types:    prog.Types,
		builtins: prog.Types.Builtins(),
		table:    table,
		info:     newModuleInfo(m, table),
		reporter: reporter,
		bindings: bindingsByName(m.Imports),
		imports:  make(map[string]*importEntry),
		structs:  make(map[ast.ItemID]*symbols.Struct),
		fns:      make(map[ast.ItemID]*symbols.Function),
	}
}

func declareBuiltins(prog *symbols.Program) {
	b := prog.Types.Builtins()
	prog.Builtins["print"] = &symbols.Function{
		Name:   "print",
		Flags:  symbols.SymbolFlagBuiltin | symbols.SymbolFlagPublic,
		Sig:    symbols.FunctionSignature{Params: []types.TypeID{b.String}, ParamNames: []string{"s"}, Result: b.Unit},
		Symbol: "print",
	}
}

func (mc *moduleChecker) items() []ast.ItemID {
	if mc.b == nil {
		return nil
	}
	f := mc.b.Files.Get(mc.mod.File)
	if f == nil {
		return nil
	}
	return f.Items
}

func (mc *moduleChecker) report(code diag.Code, sp source.Span, msg string) *diag.ReportBuilder {
	return diag.ReportError(mc.reporter, code, sp, msg)
}

func (mc *moduleChecker) duplicate(name string, sp source.Span, prev source.Span) {
	mc.report(diag.SemaDuplicateDecl, sp, "duplicate declaration of "+name).
		WithNote(prev, "previous declaration here").
		Emit()
}

func (mc *moduleChecker) declareStructs() {
	for _, id := range mc.items() {
		item, ok := mc.b.Items.Struct(id)
		if !ok {
			continue
		}
		if prev, dup := mc.table.Structs[item.Name]; dup {
			mc.duplicate(item.Name, item.NameSpan, prev.Span)
			continue
		}
		flags := symbols.SymbolFlags(0)
		if item.Visibility == ast.VisPublic {
			flags |= symbols.SymbolFlagPublic
		}
		tid := mc.types.RegisterStruct(types.StructInfo{
			Name:   item.Name,
			Module: mc.mod.ID,
			Public: item.Visibility == ast.VisPublic,
			Decl:   item.NameSpan,
		})
		st := &symbols.Struct{
			Name:   item.Name,
			Module: mc.mod.ID,
			Item:   id,
			Span:   item.NameSpan,
			Flags:  flags,
			Type:   tid,
		}
		mc.table.Structs[item.Name] = st
		mc.structs[id] = st
		mc.prog.StructsByType[tid] = st
	}
}

// declareMembers resolves field types and function signatures. Every struct
// of every module is already registered, so forward and cyclic references work.
func (mc *moduleChecker) declareMembers() {
	for _, id := range mc.items() {
		item, ok := mc.b.Items.Struct(id)
		if !ok {
			continue
		}
		st := mc.structs[id]
		if st == nil {
			continue
		}
		fields := make([]types.StructField, 0, len(item.Fields))
		seen := make(map[string]source.Span, len(item.Fields))
		for _, f := range item.Fields {
			if prev, dup := seen[f.Name]; dup {
				mc.duplicate("field "+f.Name, f.NameSpan, prev)
				continue
			}
			seen[f.Name] = f.NameSpan
			fields = append(fields, types.StructField{Name: f.Name, Type: mc.resolveType(f.Type), Span: f.NameSpan})
		}
		mc.types.SetStructFields(st.Type, fields)
	}

	for _, id := range mc.items() {
		item, ok := mc.b.Items.Fn(id)
		if !ok {
			continue
		}
		mc.declareFn(id, item)
	}
}

func (mc *moduleChecker) declareFn(id ast.ItemID, item *ast.FnItem) {
	sig := symbols.FunctionSignature{
		Params:     make([]types.TypeID, 0, len(item.Params)),
		ParamNames: make([]string, 0, len(item.Params)),
		Result:     mc.resolveResult(item.Result),
	}
	for _, p := range item.Params {
		sig.Params = append(sig.Params, mc.resolveType(p.Type))
		sig.ParamNames = append(sig.ParamNames, p.Name)
	}
	flags := symbols.SymbolFlags(0)
	if item.Visibility == ast.VisPublic {
		flags |= symbols.SymbolFlagPublic
	}
	if item.Generated {
		flags |= symbols.SymbolFlagGenerated
	}
	fn := &symbols.Function{
		Name:   item.Name,
		Module: mc.mod.ID,
		Item:   id,
		Span:   item.NameSpan,
		Flags:  flags,
		Sig:    sig,
		Field:  item.Field,
	}

	if owner, recv := mc.receiverOf(item, sig); owner != nil {
		fn.Flags |= symbols.SymbolFlagMethod
		fn.Owner = owner.Type
		fn.Receiver = recv
		fn.Symbol = mc.mod.ID.Symbol() + "_" + owner.Name + "_" + item.Name
		if !owner.AddMethod(fn) {
			prev, _ := owner.Method(item.Name)
			mc.duplicate(owner.Name+"."+item.Name, item.NameSpan, prev.Span)
			return
		}
	} else {
		fn.Symbol = mc.mod.ID.Symbol() + "_" + item.Name
		if prev, ok := mc.table.DeclSpan(item.Name); ok {
			mc.duplicate(item.Name, item.NameSpan, prev)
			return
		}
		mc.table.Funcs[item.Name] = fn
	}
	mc.table.Functions = append(mc.table.Functions, fn)
	mc.fns[id] = fn
}

// receiverOf: a method is a fn whose first parameter is self of type S, &S
// or &mut S for a struct S declared in this module.
func (mc *moduleChecker) receiverOf(item *ast.FnItem, sig symbols.FunctionSignature) (*symbols.Struct, symbols.ReceiverKind) {
	if !item.IsMethod() || len(sig.Params) == 0 || sig.Params[0] == types.NoTypeID {
		return nil, symbols.ReceiverNone
	}
	self := sig.Params[0]
	recv := symbols.ReceiverValue
	if t, ok := mc.types.Lookup(self); ok && t.Kind == types.KindReference {
		recv = symbols.ReceiverRef
		if t.Mutable {
			recv = symbols.ReceiverMutRef
		}
		self = t.Elem
	}
	st, ok := mc.prog.StructsByType[self]
	if !ok || st.Module != mc.mod.ID {
		mc.report(diag.SemaTypeMismatch, item.Params[0].Span,
			"self must have type S, &S or &mut S for a struct S declared in this module").Emit()
		return nil, symbols.ReceiverNone
	}
	return st, recv
}

func (mc *moduleChecker) resolveResult(id ast.TypeID) types.TypeID {
	if !id.IsValid() {
		return mc.builtins.Unit
	}
	return mc.resolveType(id)
}

// validateEntrypoint checks `fn main() -> ()` in the entry module.
func (mc *moduleChecker) validateEntrypoint() *symbols.Function {
	fn, ok := mc.table.Funcs["main"]
	if !ok {
		sp := source.Span{}
		if f := mc.b.Files.Get(mc.mod.File); f != nil {
			sp = f.Span.Head()
		}
		mc.report(diag.SemaNoMain, sp, "module "+mc.mod.ID.String()+" has no fn main").Emit()
		return nil
	}
	if len(fn.Sig.Params) != 0 || fn.Sig.Result != mc.builtins.Unit {
		mc.report(diag.SemaBadMainSignature, fn.Span,
			"main must take no parameters and return (), found "+mc.signatureString(fn)).Emit()
		return nil
	}
	return fn
}

func (mc *moduleChecker) signatureString(fn *symbols.Function) string {
	s := "fn("
	for i, p := range fn.Sig.Params {
		if i > 0 {
			s += ", "
		}
		s += mc.types.String(p)
	}
	return s + ") -> " + mc.types.String(fn.Sig.Result)
}
