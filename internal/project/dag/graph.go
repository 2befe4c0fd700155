package dag

import (
	"fmt"
	"slices"

	"knox/internal/diag"
	"knox/internal/project"
)

// Graph is the import graph: an edge from importer to imported module.
type Graph struct {
	Edges   [][]NodeID // Edges[from] = []to
	Present []bool     // модуль реально загружен (а не только упомянут в импорте)
}

type ModuleNode struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
}

type ModuleSlot struct {
	Meta     project.ModuleMeta
	Reporter diag.Reporter
	Present  bool
}

// BuildGraph turns module metadata into an adjacency list.
// Self imports are legal and carry no edge; repeated imports collapse into one edge.
// Imports of modules that were never loaded are reported through the importer's Reporter.
func BuildGraph(idx ModuleIndex, nodes []ModuleNode) (Graph, []ModuleSlot) {
	nodeCount := idx.Len()
	g := Graph{
		Edges:   make([][]NodeID, nodeCount),
		Present: make([]bool, nodeCount),
	}
	slots := make([]ModuleSlot, nodeCount)
	for i, m := range idx.IDToModule {
		slots[i].Meta.ID = m
	}

	for _, node := range nodes {
		id, ok := idx.ModuleToID[node.Meta.ID]
		if !ok {
			continue
		}
		slot := &slots[int(id)]
		if slot.Present {
			// ModuleID уникален по построению, повтор - тот же модуль
			continue
		}
		slot.Meta = node.Meta
		slot.Reporter = node.Reporter
		slot.Present = true
		g.Present[int(id)] = true
	}

	for from := range slots {
		slot := &slots[from]
		if !slot.Present || len(slot.Meta.Imports) == 0 {
			continue
		}
		seen := make(map[NodeID]struct{}, len(slot.Meta.Imports))
		for _, dep := range slot.Meta.Imports {
			toID, ok := idx.ModuleToID[dep.Target]
			if !ok || int(toID) == from {
				continue
			}
			if _, dup := seen[toID]; dup {
				continue
			}
			seen[toID] = struct{}{}

			if !g.Present[int(toID)] {
				if slot.Reporter != nil {
					slot.Reporter.Report(
						diag.ResolveModuleNotFound,
						diag.SevError,
						dep.Span,
						fmt.Sprintf("module %q imports missing module %q", slot.Meta.ID, dep.Target),
						nil,
						nil,
					)
				}
				continue
			}
			g.Edges[from] = append(g.Edges[from], toID)
		}
		if len(g.Edges[from]) > 1 {
			slices.Sort(g.Edges[from])
		}
	}

	return g, slots
}

// ReportCrossPackageCycles reports every strongly connected component whose
// modules belong to more than one package. Cycles inside a package are legal.
// The diagnostic lands on the first import (in NodeID order) that leaves the
// importer's package while staying inside the component.
func ReportCrossPackageCycles(idx ModuleIndex, slots []ModuleSlot, cond *Condensation) int {
	reported := 0
	for ci, comp := range cond.Components {
		if !comp.Cyclic || !spansPackages(idx, comp.Nodes) {
			continue
		}
		names := make([]string, 0, len(comp.Nodes))
		for _, id := range comp.Nodes {
			names = append(names, idx.Module(id).String())
		}
		for _, from := range comp.Nodes {
			slot := slots[int(from)]
			imp, ok := crossImport(idx, slot, cond, ci)
			if !ok {
				continue
			}
			if slot.Reporter != nil {
				slot.Reporter.Report(
					diag.ResolveCrossPackageCycle,
					diag.SevError,
					imp.Span,
					fmt.Sprintf("import of %q closes a cycle between packages: %v", imp.Target, names),
					nil,
					nil,
				)
			}
			reported++
			break
		}
	}
	return reported
}

func spansPackages(idx ModuleIndex, nodes []NodeID) bool {
	for _, id := range nodes[1:] {
		if idx.Module(id).Package != idx.Module(nodes[0]).Package {
			return true
		}
	}
	return false
}

func crossImport(idx ModuleIndex, slot ModuleSlot, cond *Condensation, comp int) (project.ImportMeta, bool) {
	for _, imp := range slot.Meta.Imports {
		to, ok := idx.ModuleToID[imp.Target]
		if !ok || cond.Of[int(to)] != comp {
			continue
		}
		if imp.Target.Package != slot.Meta.ID.Package {
			return imp, true
		}
	}
	return project.ImportMeta{}, false
}
