package driver

import (
	"context"

	"github.com/rs/zerolog"

	"knox/internal/project"
	"knox/internal/sema"
	"knox/internal/types"
)

// CheckOptions configure the type-checking stage.
type CheckOptions struct {
	Jobs   int
	Types  *types.Interner
	Logger *zerolog.Logger
}

// Check type-checks every module of the graph. Diagnostics go to module bags;
// modules with syntax errors contribute declarations only.
func Check(ctx context.Context, g *ModuleGraph, opts CheckOptions) (*sema.Result, error) {
	mods := make([]*sema.Module, 0, len(g.Modules))
	for _, mod := range g.Modules {
		mods = append(mods, &sema.Module{
			ID:         mod.ID,
			Builder:    mod.Builder,
			File:       mod.AST,
			Imports:    mod.Imports,
			Reporter:   mod.Reporter(),
			SkipBodies: mod.SyntaxErrors > 0,
		})
	}
	var batches [][][]project.ModuleID
	for _, batch := range g.Batches() {
		groups := make([][]project.ModuleID, 0, len(batch))
		for _, group := range batch {
			ids := make([]project.ModuleID, 0, len(group))
			for _, mod := range group {
				ids = append(ids, mod.ID)
			}
			groups = append(groups, ids)
		}
		batches = append(batches, groups)
	}
	entry := project.ModuleID{}
	if e := g.Entry(); e != nil {
		entry = e.ID
	}
	return sema.Check(ctx, mods, sema.Options{
		Entry:   entry,
		Batches: batches,
		Jobs:    opts.Jobs,
		Types:   opts.Types,
		Logger:  opts.Logger,
	})
}
