package driver

import (
	"slices"

	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/project/dag"
	"knox/internal/source"
)

// ModuleGraph is the frozen result of resolution. Nothing mutates it after
// Resolve returns except module bags, which later phases append to.
type ModuleGraph struct {
	FileSet *source.FileSet
	Entries []project.ModuleID
	// Modules are ordered by project.Compare, the same order as Index.
	Modules []*Module
	ByID    map[project.ModuleID]*Module
	// Packages maps package names to roots ("" is the root package).
	Packages map[string]string

	Index dag.ModuleIndex
	Graph dag.Graph
	Slots []dag.ModuleSlot
	Cond  *dag.Condensation

	// ResolveOrder lists modules in the order they reached StatusResolved.
	ResolveOrder []project.ModuleID
	Cache        *ModuleCache
}

func (r *resolver) freeze(entries []project.ModuleID) *ModuleGraph {
	g := &ModuleGraph{
		FileSet:      r.fs,
		Entries:      entries,
		ByID:         r.modules,
		Packages:     make(map[string]string, len(r.packages)),
		ResolveOrder: r.order,
		Cache:        r.cache,
	}
	for name, p := range r.packages {
		g.Packages[name] = p.root
	}

	metas := make([]project.ModuleMeta, 0, len(r.modules))
	for _, mod := range r.modules {
		g.Modules = append(g.Modules, mod)
	}
	slices.SortFunc(g.Modules, func(a, b *Module) int { return project.Compare(a.ID, b.ID) })

	for _, mod := range g.Modules {
		deps := make([]project.Digest, 0, len(mod.Meta.Imports))
		for _, imp := range mod.Meta.Imports {
			if dep, ok := r.modules[imp.Target]; ok {
				deps = append(deps, dep.Meta.ContentHash)
			}
		}
		mod.Meta.ModuleHash = project.Combine(mod.Meta.ContentHash, deps...)
		metas = append(metas, mod.Meta)
	}

	nodes := make([]dag.ModuleNode, len(g.Modules))
	for i, mod := range g.Modules {
		nodes[i] = dag.ModuleNode{Meta: mod.Meta, Reporter: mod.Reporter()}
	}
	g.Index = dag.BuildIndex(metas)
	g.Graph, g.Slots = dag.BuildGraph(g.Index, nodes)
	g.Cond = dag.Condense(g.Graph)
	if n := dag.ReportCrossPackageCycles(g.Index, g.Slots, g.Cond); n > 0 {
		r.log.Warn().Int("cycles", n).Msg("import cycles between packages")
	}
	return g
}

// Module returns the module with the given id, or nil.
func (g *ModuleGraph) Module(id project.ModuleID) *Module {
	return g.ByID[id]
}

// Entry returns the first entry module.
func (g *ModuleGraph) Entry() *Module {
	if len(g.Entries) == 0 {
		return nil
	}
	return g.ByID[g.Entries[0]]
}

// Batches returns modules grouped for checking: every batch depends only on
// earlier batches; modules of one import cycle stay in one group.
func (g *ModuleGraph) Batches() [][][]*Module {
	out := make([][][]*Module, 0, len(g.Cond.Batches))
	for _, batch := range g.Cond.Batches {
		groups := make([][]*Module, 0, len(batch))
		for _, ci := range batch {
			comp := g.Cond.Components[ci]
			group := make([]*Module, 0, len(comp.Nodes))
			for _, id := range comp.Nodes {
				group = append(group, g.ByID[g.Index.Module(id)])
			}
			groups = append(groups, group)
		}
		out = append(out, groups)
	}
	return out
}

// Diagnostics merges every module bag into one sorted, deduplicated bag.
func (g *ModuleGraph) Diagnostics(max int) *diag.Bag {
	out := diag.NewBag(max)
	for _, mod := range g.Modules {
		out.Merge(mod.Bag)
	}
	out.Dedup()
	out.Sort()
	return out
}

// HasErrors reports whether any module has an error diagnostic.
func (g *ModuleGraph) HasErrors() bool {
	for _, mod := range g.Modules {
		if mod.Bag.HasErrors() {
			return true
		}
	}
	return false
}
