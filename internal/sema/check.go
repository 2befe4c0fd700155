package sema

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"knox/internal/ast"
	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/symbols"
	"knox/internal/types"
)

// Module is one parsed and resolved module handed to the checker.
type Module struct {
	ID       project.ModuleID
	Builder  *ast.Builder
	File     ast.FileID
	Imports  []symbols.ImportBinding
	Reporter diag.Reporter
	// SkipBodies keeps declarations but skips bodies, for files with syntax errors.
	SkipBodies bool
}

// Options configure a semantic pass over a module graph.
type Options struct {
	// Entry is the module that must declare `fn main() -> ()`; zero skips the check.
	Entry project.ModuleID
	// Batches groups modules for body checking: batches run in order, groups of
	// one batch run concurrently, modules of a group run sequentially.
	// nil checks every module in one sequential group.
	Batches [][][]project.ModuleID
	Jobs    int
	Types   *types.Interner
	Logger  *zerolog.Logger
}

// Result stores semantic artefacts produced by the checker.
type Result struct {
	TypeInterner *types.Interner
	Program      *symbols.Program
	Modules      map[project.ModuleID]*ModuleInfo
	Entry        project.ModuleID
	// Main is the entry point, nil when missing or invalid.
	Main *symbols.Function
}

// Module returns the decorations of mod, or nil.
func (r *Result) Module(mod project.ModuleID) *ModuleInfo {
	return r.Modules[mod]
}

// Receiver describes how a method receiver or field target is adjusted
// before use.
type Receiver struct {
	// Derefs is the number of reference layers loaded through.
	Derefs int
	// AddrOf: the method takes &S or &mut S and the receiver is a struct value.
	AddrOf bool
}

// FieldRef points at one field of a struct.
type FieldRef struct {
	Struct types.TypeID
	Index  int
}

// PatternInfo records what a pattern tests at runtime.
type PatternInfo struct {
	// Type is the binding type of `x: T`.
	Type types.TypeID
	// Candidates are the structs a record pattern accepts, in declaration order.
	Candidates []types.TypeID
	// Fields are indexes into each candidate, parallel to Candidates.
	Fields [][]int
	// Locals are the bindings introduced by the pattern.
	Locals []*symbols.Local
}

// FnInfo carries per-function decorations.
type FnInfo struct {
	Func   *symbols.Function
	Params []*symbols.Local
	// Locals lists every binding of the function in declaration order.
	Locals []*symbols.Local
}

// ModuleInfo stores decorations for one module; ids are relative to its builder.
type ModuleInfo struct {
	Module  project.ModuleID
	Builder *ast.Builder
	File    ast.FileID
	Table   *symbols.ModuleTable

	ExprTypes map[ast.ExprID]types.TypeID
	// Coercions marks expressions boxed into dynamic; the value is the boxed type.
	Coercions map[ast.ExprID]types.TypeID
	// Calls maps call expressions, and field reads rewritten to getters, to the callee.
	Calls map[ast.ExprID]*symbols.Function
	// Fields maps raw field reads and assignment targets inside the declaring module.
	Fields map[ast.ExprID]FieldRef
	// Receivers are keyed by the receiver (or field target) expression.
	Receivers map[ast.ExprID]Receiver
	Locals    map[ast.ExprID]*symbols.Local
	Bindings  map[ast.StmtID]*symbols.Local
	Patterns  map[ast.PatID]PatternInfo
	// Diverges marks blocks and ifs whose evaluation never completes normally.
	Diverges map[ast.ExprID]bool
	Fns      map[ast.ItemID]*FnInfo
}

func newModuleInfo(m *Module, table *symbols.ModuleTable) *ModuleInfo {
	return &ModuleInfo{
		Module:    m.ID,
		Builder:   m.Builder,
		File:      m.File,
		Table:     table,
		ExprTypes: make(map[ast.ExprID]types.TypeID),
		Coercions: make(map[ast.ExprID]types.TypeID),
		Calls:     make(map[ast.ExprID]*symbols.Function),
		Fields:    make(map[ast.ExprID]FieldRef),
		Receivers: make(map[ast.ExprID]Receiver),
		Locals:    make(map[ast.ExprID]*symbols.Local),
		Bindings:  make(map[ast.StmtID]*symbols.Local),
		Patterns:  make(map[ast.PatID]PatternInfo),
		Diverges:  make(map[ast.ExprID]bool),
		Fns:       make(map[ast.ItemID]*FnInfo),
	}
}

// Check runs both phases: declarations of every module first, then bodies.
// Bodies only read declaration tables, so groups of one batch run in parallel.
func Check(ctx context.Context, mods []*Module, opts Options) (*Result, error) {
	in := opts.Types
	if in == nil {
		in = types.NewInterner()
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	log = log.With().Str("phase", "check").Logger()

	sorted := slices.Clone(mods)
	slices.SortFunc(sorted, func(a, b *Module) int { return project.Compare(a.ID, b.ID) })

	prog := symbols.NewProgram(in)
	declareBuiltins(prog)
	res := &Result{
		TypeInterner: in,
		Program:      prog,
		Modules:      make(map[project.ModuleID]*ModuleInfo, len(sorted)),
		Entry:        opts.Entry,
	}

	checkers := make(map[project.ModuleID]*moduleChecker, len(sorted))
	for _, m := range sorted {
		mc := newModuleChecker(m, prog)
		checkers[m.ID] = mc
		res.Modules[m.ID] = mc.info
	}

	// phase 1: struct names, then field types and signatures, then imports
	for _, m := range sorted {
		checkers[m.ID].declareStructs()
	}
	for _, m := range sorted {
		checkers[m.ID].declareMembers()
	}
	for _, m := range sorted {
		symbols.CollectExports(checkers[m.ID].table)
	}
	for _, m := range sorted {
		checkers[m.ID].bindImports(checkers)
	}
	log.Debug().Int("modules", len(sorted)).Int("types", len(in.Structs())).Msg("declarations collected")

	if !opts.Entry.IsZero() {
		if mc, ok := checkers[opts.Entry]; ok {
			res.Main = mc.validateEntrypoint()
		}
	}

	// phase 2
	batches := opts.Batches
	if batches == nil {
		group := make([]project.ModuleID, 0, len(sorted))
		for _, m := range sorted {
			group = append(group, m.ID)
		}
		batches = [][][]project.ModuleID{{group}}
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = 1
	}
	for bi, batch := range batches {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(jobs)
		for _, group := range batch {
			g.Go(func() error {
				for _, id := range group {
					if err := gctx.Err(); err != nil {
						return err
					}
					mc, ok := checkers[id]
					if !ok {
						return fmt.Errorf("check: module %s was not declared", id)
					}
					mc.checkBodies()
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		log.Debug().Int("batch", bi).Int("groups", len(batch)).Msg("batch checked")
	}
	log.Info().Int("modules", len(sorted)).Int("batches", len(batches)).Msg("type check finished")
	return res, nil
}
