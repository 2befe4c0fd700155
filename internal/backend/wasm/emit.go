package wasm

import (
	"errors"
	"maps"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"knox/internal/ast"
	"knox/internal/layout"
	"knox/internal/project"
	"knox/internal/sema"
	"knox/internal/source"
	"knox/internal/symbols"
	"knox/internal/types"
)

// Options tune code generation.
type Options struct {
	Logger *zerolog.Logger
}

// Output is one finished binary module.
type Output struct {
	Binary  []byte
	Surface Surface
}

// Emitter owns the state shared by every function of the program.
type Emitter struct {
	res    *sema.Result
	types  *types.Interner
	layout *layout.LayoutEngine
	mod    *module
	log    zerolog.Logger

	// modules in the order their functions enter the index space
	order []project.ModuleID
	// funcIndex maps a user function to its wasm index.
	funcIndex map[*symbols.Function]uint32
	funcSigs  map[*symbols.Function]uint32
	// tags are the runtime type tags of boxed dynamic values.
	tags map[types.TypeID]int32
	// strs deduplicates string literals: contents -> address in data.
	strs map[string]uint32
	data []byte
}

// EmitModule lowers a checked program into a wasm binary. The program must
// be free of errors; a node without the decorations the checker promises
// is reported as *InternalError.
func EmitModule(res *sema.Result, opts Options) (out *Output, err error) {
	if res == nil {
		return nil, errors.New("wasm: nothing to emit")
	}
	if res.Main == nil {
		return nil, &InternalError{Msg: "program has no entry point"}
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	e := &Emitter{
		res:       res,
		types:     res.TypeInterner,
		layout:    layout.New(layout.Wasm32(), res.TypeInterner),
		mod:       newModule(),
		log:       log.With().Str("phase", "codegen").Logger(),
		funcIndex: make(map[*symbols.Function]uint32),
		funcSigs:  make(map[*symbols.Function]uint32),
		tags:      make(map[types.TypeID]int32),
		strs:      make(map[string]uint32),
		data:      dataPrefix(),
	}
	defer func() {
		if r := recover(); r != nil {
			ie, ok := r.(*InternalError)
			if !ok {
				panic(r)
			}
			out, err = nil, ie
		}
	}()

	e.mod.addRuntime()
	e.order = slices.SortedFunc(maps.Keys(res.Modules), project.Compare)
	e.prepareFunctions()
	e.collectTypeTags()
	for _, id := range e.order {
		e.emitModuleFuncs(res.Modules[id])
	}
	start := e.emitStart()
	e.collectExports(start)

	e.mod.heapStart = alignUp(mustU32(len(e.data)), 8)
	e.mod.data = e.data
	bin := e.mod.encode()
	e.log.Debug().
		Int("funcs", len(e.mod.funcs)).
		Int("tags", len(e.tags)).
		Int("strings", len(e.strs)).
		Int("bytes", len(bin)).
		Msg("module encoded")
	return &Output{Binary: bin, Surface: e.surface()}, nil
}

// prepareFunctions assigns indexes in module order, then item order.
func (e *Emitter) prepareFunctions() {
	next := firstUserIndex
	for _, id := range e.order {
		for _, fn := range e.res.Modules[id].Table.Functions {
			e.funcIndex[fn] = next
			e.funcSigs[fn] = e.signatureOf(fn)
			next++
		}
	}
}

func (e *Emitter) signatureOf(fn *symbols.Function) uint32 {
	var params, results []byte
	for _, p := range fn.Sig.Params {
		if t, ok := valType(e.repr(p)); ok {
			params = append(params, t)
		}
	}
	if t, ok := valType(e.repr(fn.Sig.Result)); ok {
		results = append(results, t)
	}
	return e.mod.signature(params, results)
}

// collectTypeTags numbers every type that can sit inside a dynamic box:
// boxed values, typed bindings and record candidates. The order follows
// canonical type names, so tags do not depend on interning order.
func (e *Emitter) collectTypeTags() {
	seen := make(map[types.TypeID]struct{})
	add := func(t types.TypeID) {
		if t != types.NoTypeID {
			seen[t] = struct{}{}
		}
	}
	for _, id := range e.order {
		info := e.res.Modules[id]
		for _, t := range info.Coercions {
			add(t)
		}
		for pid, p := range info.Patterns {
			pat := info.Builder.Patterns.Get(pid)
			if pat == nil {
				continue
			}
			switch pat.Kind {
			case ast.PatBinding:
				add(p.Type)
			case ast.PatRecord:
				for _, c := range p.Candidates {
					add(c)
				}
			}
		}
	}
	all := slices.Collect(maps.Keys(seen))
	slices.SortFunc(all, func(a, b types.TypeID) int {
		return strings.Compare(e.types.Canonical(a), e.types.Canonical(b))
	})
	for i, t := range all {
		// 0 остаётся свободным: пустая память не похожа ни на один тип
		e.tags[t] = int32(i + 1)
	}
}

func (e *Emitter) typeTag(t types.TypeID, sp source.Span) int32 {
	tag, ok := e.tags[t]
	if !ok {
		panic(internalf(sp, "type %s has no dynamic tag", e.types.String(t)))
	}
	return tag
}

func (e *Emitter) emitModuleFuncs(info *sema.ModuleInfo) {
	cells := addressTaken(info)
	for _, fn := range info.Table.Functions {
		fi, ok := info.Fns[fn.Item]
		if !ok {
			panic(&InternalError{Msg: "function has no checked body", Func: fn.Symbol})
		}
		fe := newFuncEmitter(e, info, fi, cells)
		e.mod.funcs = append(e.mod.funcs, fe.emit())
	}
}

// emitStart adds `_start`, which runs main.
func (e *Emitter) emitStart() uint32 {
	main := e.res.Main
	idx, ok := e.funcIndex[main]
	if !ok {
		panic(&InternalError{Msg: "entry point was not emitted", Func: main.Symbol})
	}
	fb := newFuncBuilder(0)
	fb.call(idx)
	if _, ok := valType(e.repr(main.Sig.Result)); ok {
		fb.op(opDrop)
	}
	e.mod.funcs = append(e.mod.funcs, fb.finish("_start", e.mod.signature(nil, nil)))
	return e.mod.funcIndex(len(e.mod.funcs) - 1)
}

// collectExports exports memory, _start and the public functions of the
// entry module; methods go out as Struct_method.
func (e *Emitter) collectExports(start uint32) {
	e.mod.exports = append(e.mod.exports,
		export{name: "memory", kind: extMemory, index: 0},
		export{name: "_start", kind: extFunc, index: start},
	)
	info := e.res.Modules[e.res.Entry]
	if info == nil {
		return
	}
	taken := map[string]bool{"memory": true, "_start": true}
	for _, fn := range info.Table.Functions {
		if !fn.Public() {
			continue
		}
		name := e.exportName(fn)
		if taken[name] {
			e.log.Debug().Str("name", name).Msg("export name taken, skipped")
			continue
		}
		taken[name] = true
		e.mod.exports = append(e.mod.exports, export{name: name, kind: extFunc, index: e.funcIndex[fn]})
	}
}

func (e *Emitter) exportName(fn *symbols.Function) string {
	if !fn.IsMethod() {
		return fn.Name
	}
	if st, ok := e.res.Program.Struct(fn.Owner); ok {
		return st.Name + "_" + fn.Name
	}
	return fn.Symbol
}

// stringAt places s in the data segment once and returns its address.
func (e *Emitter) stringAt(s string) uint32 {
	if addr, ok := e.strs[s]; ok {
		return addr
	}
	addr := mustU32(len(e.data))
	e.data = append(e.data, s...)
	e.strs[s] = addr
	return addr
}

func (e *Emitter) repr(t types.TypeID) layout.Repr {
	return e.layout.ReprOf(t)
}

func (e *Emitter) layoutOf(t types.TypeID, sp source.Span) layout.TypeLayout {
	l, err := e.layout.LayoutOf(t)
	if err != nil {
		panic(internalf(sp, "%v", err))
	}
	return l
}

// addressTaken finds the bindings that need a memory cell: operands of `&`
// and receivers passed by address.
func addressTaken(info *sema.ModuleInfo) map[*symbols.Local]bool {
	cells := make(map[*symbols.Local]bool)
	ex := info.Builder.Exprs
	for i := uint32(1); i <= ex.Arena.Len(); i++ {
		id := ast.ExprID(i)
		d, ok := ex.Ref(id)
		if !ok {
			continue
		}
		if l, ok := info.Locals[d.Operand]; ok {
			cells[l] = true
		}
	}
	for target, rcv := range info.Receivers {
		if !rcv.AddrOf {
			continue
		}
		if l, ok := info.Locals[target]; ok {
			cells[l] = true
		}
	}
	return cells
}

func alignUp(n, align uint32) uint32 {
	return (n + align - 1) / align * align
}
