package sema

import (
	"math"
	"strings"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/symbols"
	"knox/internal/types"
)

// coverage tracks which shapes the arms of a match have handled so far.
type coverage struct {
	wildcard bool
	trueLit  bool
	falseLit bool
	some     bool
	none     bool
	okC      bool
	errC     bool
}

func (fc *fnChecker) match(id ast.ExprID, d *ast.ExprMatchData, want types.TypeID) types.TypeID {
	scrT := fc.expr(d.Scrutinee, types.NoTypeID)
	// ссылки разыменовываются автоматически
	base, _, _ := fc.derefLayers(scrT)

	var cov coverage
	result := want
	allDiverge := len(d.Arms) > 0
	for _, arm := range d.Arms {
		pop := fc.push(symbols.ScopeArm)
		fc.pattern(arm.Pattern, base, &cov)
		switch {
		case result != types.NoTypeID:
			fc.check(arm.Body, result)
		default:
			t := fc.expr(arm.Body, types.NoTypeID)
			if !fc.info.Diverges[arm.Body] {
				result = t
			}
		}
		if !fc.info.Diverges[arm.Body] {
			allDiverge = false
		}
		pop()
	}
	if allDiverge {
		fc.info.Diverges[id] = true
	}
	if scrT != types.NoTypeID {
		if missing := fc.missingArm(base, cov); missing != "" {
			fc.report(diag.SemaNonExhaustiveMatch, fc.b.Exprs.Get(id).Span,
				"match on "+fc.typeName(scrT)+" is not exhaustive: "+missing+" not covered").Emit()
		}
	}
	if result == types.NoTypeID && allDiverge {
		return fc.mc.builtins.Unit
	}
	return result
}

func (fc *fnChecker) missingArm(t types.TypeID, cov coverage) string {
	if cov.wildcard {
		return ""
	}
	var missing []string
	switch fc.types.Kind(t) {
	case types.KindBool:
		if !cov.trueLit {
			missing = append(missing, "true")
		}
		if !cov.falseLit {
			missing = append(missing, "false")
		}
	case types.KindOption:
		if !cov.some {
			missing = append(missing, "Some(_)")
		}
		if !cov.none {
			missing = append(missing, "None")
		}
	case types.KindResult:
		if !cov.okC {
			missing = append(missing, "Ok(_)")
		}
		if !cov.errC {
			missing = append(missing, "Err(_)")
		}
	default:
		missing = append(missing, "_")
	}
	return strings.Join(missing, " and ")
}

// pattern checks one arm pattern against the scrutinee type and binds its names.
func (fc *fnChecker) pattern(pid ast.PatID, scr types.TypeID, cov *coverage) {
	p := fc.b.Patterns.Get(pid)
	if p == nil {
		return
	}
	if scr == types.NoTypeID {
		// тип уже с ошибкой: только связываем имена
		cov.wildcard = true
		fc.bindPatternNames(pid, p)
		return
	}
	kind := fc.types.Kind(scr)
	switch p.Kind {
	case ast.PatWildcard:
		cov.wildcard = true

	case ast.PatLit:
		if kind == types.KindDynamic {
			fc.report(diag.SemaBadPattern, p.Span,
				"literal patterns need a typed scrutinee; bind the dynamic value with `x: T` first").Emit()
			return
		}
		fc.literalPattern(p, scr, cov)

	case ast.PatRecord:
		if kind != types.KindDynamic {
			fc.report(diag.SemaBadPattern, p.Span,
				"record patterns only match dynamic values, found "+fc.typeName(scr)).Emit()
			fc.bindPatternNames(pid, p)
			return
		}
		fc.recordPattern(pid, p)

	case ast.PatBinding:
		t := fc.mc.resolveType(p.Type)
		if kind != types.KindDynamic {
			fc.report(diag.SemaBadPattern, p.Span,
				"typed binding patterns only match dynamic values, found "+fc.typeName(scr)).Emit()
		}
		info := PatternInfo{Type: t}
		if p.Name != "_" {
			info.Locals = []*symbols.Local{fc.declare(p.Name, symbols.SymbolLet, t, p.NameSpan, false)}
		}
		fc.info.Patterns[pid] = info

	case ast.PatCtor:
		fc.ctorPattern(pid, p, scr, cov)
	}
}

func (fc *fnChecker) literalPattern(p *ast.Pattern, scr types.TypeID, cov *coverage) {
	bt := fc.mc.builtins
	var want types.TypeID
	switch p.Lit {
	case ast.ExprLitInt:
		want = bt.Int
		if scr == bt.U64 {
			want = bt.U64
		}
		neg := strings.HasPrefix(p.LitValue, "-")
		v, ok := lexer.ParseInt(strings.TrimPrefix(p.LitValue, "-"))
		switch {
		case !ok:
		case want == bt.U64 && neg:
			fc.report(diag.SemaBadPattern, p.Span, "negative pattern cannot match u64").Emit()
		case want == bt.Int && (v > math.MaxInt32 && !(neg && v == math.MaxInt32+1)):
			fc.report(diag.SemaBadPattern, p.Span, "integer pattern "+p.LitValue+" does not fit in int").Emit()
		}
	case ast.ExprLitString:
		want = bt.String
	case ast.ExprLitTrue:
		want = bt.Bool
		cov.trueLit = true
	case ast.ExprLitFalse:
		want = bt.Bool
		cov.falseLit = true
	case ast.ExprLitUnit:
		want = bt.Unit
		if scr == bt.Unit {
			cov.wildcard = true
		}
	}
	if want != scr {
		fc.report(diag.SemaBadPattern, p.Span,
			"pattern of type "+fc.typeName(want)+" cannot match "+fc.typeName(scr)).Emit()
	}
}

func (fc *fnChecker) ctorPattern(pid ast.PatID, p *ast.Pattern, scr types.TypeID, cov *coverage) {
	t, _ := fc.types.Lookup(scr)
	payload := types.NoTypeID
	switch p.Ctor {
	case ast.CtorSome, ast.CtorNone:
		if t.Kind != types.KindOption {
			break
		}
		if p.Ctor == ast.CtorSome {
			cov.some = true
			payload = t.Elem
		} else {
			cov.none = true
		}
		fc.bindCtor(pid, p, payload)
		return
	case ast.CtorOk, ast.CtorErr:
		if t.Kind != types.KindResult {
			break
		}
		if p.Ctor == ast.CtorOk {
			cov.okC = true
			payload = t.Elem
		} else {
			cov.errC = true
			payload = t.Err
		}
		fc.bindCtor(pid, p, payload)
		return
	}
	fc.report(diag.SemaBadPattern, p.Span,
		p.Ctor.String()+" pattern cannot match "+fc.typeName(scr)).Emit()
	fc.bindPatternNames(pid, p)
}

func (fc *fnChecker) bindCtor(pid ast.PatID, p *ast.Pattern, payload types.TypeID) {
	info := PatternInfo{Type: payload}
	if p.Name != "" {
		info.Locals = []*symbols.Local{fc.declare(p.Name, symbols.SymbolLet, payload, p.NameSpan, false)}
	}
	fc.info.Patterns[pid] = info
}

// recordPattern finds every struct with the named fields at the given types
// whose fields the current module may read: it declares the struct, or the
// field has a public getter.
func (fc *fnChecker) recordPattern(pid ast.PatID, p *ast.Pattern) {
	want := make([]types.TypeID, len(p.Fields))
	valid := true
	for i, f := range p.Fields {
		want[i] = fc.mc.resolveType(f.Type)
		if want[i] == types.NoTypeID {
			valid = false
		}
	}
	info := PatternInfo{}
	if valid {
		for _, sid := range fc.types.Structs() {
			idxs, ok := fc.recordMatches(sid, p.Fields, want)
			if ok {
				info.Candidates = append(info.Candidates, sid)
				info.Fields = append(info.Fields, idxs)
			}
		}
		if len(info.Candidates) == 0 {
			names := make([]string, len(p.Fields))
			for i, f := range p.Fields {
				names[i] = f.Name + ": " + fc.typeName(want[i])
			}
			fc.report(diag.SemaBadPattern, p.Span,
				"no struct readable here has fields { "+strings.Join(names, ", ")+" }").Emit()
		}
	}
	seen := make(map[string]bool, len(p.Fields))
	for i, f := range p.Fields {
		if seen[f.Name] {
			fc.report(diag.SemaBadPattern, f.NameSpan, "field "+f.Name+" appears twice in the pattern").Emit()
			continue
		}
		seen[f.Name] = true
		info.Locals = append(info.Locals, fc.declare(f.Name, symbols.SymbolLet, want[i], f.NameSpan, false))
	}
	fc.info.Patterns[pid] = info
}

func (fc *fnChecker) recordMatches(sid types.TypeID, fields []ast.RecordPatField, want []types.TypeID) ([]int, bool) {
	info, ok := fc.types.StructInfo(sid)
	if !ok {
		return nil, false
	}
	st := fc.mc.prog.StructsByType[sid]
	local := info.Module == fc.mc.mod.ID
	idxs := make([]int, len(fields))
	for i, f := range fields {
		field, idx, ok := info.Field(f.Name)
		if !ok || field.Type != want[i] {
			return nil, false
		}
		if !local {
			getter, ok := st.Method(f.Name)
			if !ok || !getter.Public() || len(getter.Sig.Params) != 1 {
				return nil, false
			}
		}
		idxs[i] = idx
	}
	return idxs, true
}

// bindPatternNames declares a pattern's names with unknown types so the arm
// body does not cascade into unknown-name errors.
func (fc *fnChecker) bindPatternNames(pid ast.PatID, p *ast.Pattern) {
	info := PatternInfo{}
	switch p.Kind {
	case ast.PatBinding, ast.PatCtor:
		if p.Name != "" && p.Name != "_" {
			info.Locals = append(info.Locals, fc.declare(p.Name, symbols.SymbolLet, types.NoTypeID, p.NameSpan, false))
		}
	case ast.PatRecord:
		for _, f := range p.Fields {
			info.Locals = append(info.Locals, fc.declare(f.Name, symbols.SymbolLet, types.NoTypeID, f.NameSpan, false))
		}
	}
	fc.info.Patterns[pid] = info
}
