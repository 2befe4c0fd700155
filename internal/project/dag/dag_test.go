package dag

import (
	"testing"

	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/source"
)

func mod(path string) project.ModuleID { return project.ModuleID{Path: path} }

func meta(path string, imports ...string) project.ModuleMeta {
	m := project.ModuleMeta{ID: mod(path)}
	for _, imp := range imports {
		m.Imports = append(m.Imports, project.ImportMeta{Target: mod(imp)})
	}
	return m
}

func buildFrom(metas ...project.ModuleMeta) (ModuleIndex, Graph, []ModuleSlot) {
	nodes := make([]ModuleNode, len(metas))
	for i, m := range metas {
		nodes[i] = ModuleNode{Meta: m}
	}
	idx := BuildIndex(metas)
	g, slots := BuildGraph(idx, nodes)
	return idx, g, slots
}

func idsToNames(idx ModuleIndex, ids []NodeID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = idx.Module(id).String()
	}
	return out
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBuildIndexOrdersRootPackageFirst(t *testing.T) {
	metas := []project.ModuleMeta{
		{
			ID: project.EntryModule,
			Imports: []project.ImportMeta{
				{Target: project.LibModule("greet")},
				{Target: mod("util")},
			},
		},
		{ID: project.ModuleID{Package: "alpha", Path: "lib"}},
	}
	idx := BuildIndex(metas)

	want := []string{"main", "util", "alpha::lib", "greet::lib"}
	got := make([]string, idx.Len())
	for i, m := range idx.IDToModule {
		got[i] = m.String()
		if id := idx.ModuleToID[m]; int(id) != i {
			t.Fatalf("ModuleToID[%s] = %d, want %d", m, id, i)
		}
	}
	if !sameStrings(got, want) {
		t.Fatalf("index = %v, want %v", got, want)
	}
}

func TestBuildGraphSkipsSelfAndDuplicateEdges(t *testing.T) {
	idx, g, _ := buildFrom(
		meta("a", "a", "b", "b"),
		meta("b"),
	)
	a := idx.ModuleToID[mod("a")]
	b := idx.ModuleToID[mod("b")]
	if len(g.Edges[a]) != 1 || g.Edges[a][0] != b {
		t.Fatalf("edges of a = %v, want [%d]", g.Edges[a], b)
	}
	if len(g.Edges[b]) != 0 {
		t.Fatalf("edges of b = %v", g.Edges[b])
	}
}

func TestBuildGraphReportsMissingModules(t *testing.T) {
	bag := diag.NewBag(10)
	span := source.Span{File: 1, Start: 7, End: 11}
	m := project.ModuleMeta{
		ID:      mod("app"),
		Imports: []project.ImportMeta{{Target: mod("gone"), Span: span}},
	}
	idx := BuildIndex([]project.ModuleMeta{m})
	g, _ := BuildGraph(idx, []ModuleNode{{Meta: m, Reporter: diag.BagReporter{Bag: bag}}})

	if g.Present[idx.ModuleToID[mod("gone")]] {
		t.Fatalf("missing module must not be present")
	}
	if len(g.Edges[idx.ModuleToID[mod("app")]]) != 0 {
		t.Fatalf("edge to a missing module must be dropped")
	}
	items := bag.Items()
	if len(items) != 1 || items[0].Code != diag.ResolveModuleNotFound || items[0].Primary != span {
		t.Fatalf("diagnostics = %+v", items)
	}
}

func TestCondenseGroupsCyclesAndOrdersDependenciesFirst(t *testing.T) {
	// main -> a <-> b -> c ; main -> d
	idx, g, _ := buildFrom(
		meta("main", "a", "d"),
		meta("a", "b"),
		meta("b", "a", "c"),
		meta("c"),
		meta("d"),
	)
	cond := Condense(g)

	if len(cond.Components) != 4 {
		t.Fatalf("components = %+v", cond.Components)
	}
	a := idx.ModuleToID[mod("a")]
	b := idx.ModuleToID[mod("b")]
	if cond.Of[a] != cond.Of[b] {
		t.Fatalf("a and b must share a component")
	}
	if !cond.Components[cond.Of[a]].Cyclic {
		t.Fatalf("a/b component must be cyclic")
	}

	var batches [][]string
	for _, batch := range cond.Batches {
		var names []string
		for _, ci := range batch {
			names = append(names, idsToNames(idx, cond.Components[ci].Nodes)...)
		}
		batches = append(batches, names)
	}
	want := [][]string{{"c", "d"}, {"a", "b"}, {"main"}}
	if len(batches) != len(want) {
		t.Fatalf("batches = %v, want %v", batches, want)
	}
	for i := range want {
		if !sameStrings(batches[i], want[i]) {
			t.Fatalf("batch[%d] = %v, want %v", i, batches[i], want[i])
		}
	}

	if got := idsToNames(idx, cond.Order()); !sameStrings(got, []string{"c", "d", "a", "b", "main"}) {
		t.Fatalf("order = %v", got)
	}
}

func TestCondenseSelfLoopIsNotCyclic(t *testing.T) {
	_, g, _ := buildFrom(meta("solo", "solo"))
	cond := Condense(g)
	if len(cond.Components) != 1 || cond.Components[0].Cyclic {
		t.Fatalf("components = %+v", cond.Components)
	}
}

func TestReportCrossPackageCycles(t *testing.T) {
	lib := project.LibModule("dep")
	span := source.Span{File: 2, Start: 0, End: 10}
	mainMeta := project.ModuleMeta{
		ID:      project.EntryModule,
		Imports: []project.ImportMeta{{Target: lib, Span: source.Span{File: 1, Start: 0, End: 10}}},
	}
	// зависимость не может импортировать корневой пакет, но граф это всё равно видит
	libMeta := project.ModuleMeta{
		ID:      lib,
		Imports: []project.ImportMeta{{Target: project.EntryModule, Span: span}},
	}
	bagMain := diag.NewBag(10)
	bagLib := diag.NewBag(10)
	idx := BuildIndex([]project.ModuleMeta{mainMeta, libMeta})
	g, slots := BuildGraph(idx, []ModuleNode{
		{Meta: mainMeta, Reporter: diag.BagReporter{Bag: bagMain}},
		{Meta: libMeta, Reporter: diag.BagReporter{Bag: bagLib}},
	})
	cond := Condense(g)

	if n := ReportCrossPackageCycles(idx, slots, cond); n != 1 {
		t.Fatalf("reported = %d, want 1", n)
	}
	if bagMain.Len() != 1 || bagMain.Items()[0].Code != diag.ResolveCrossPackageCycle {
		t.Fatalf("main diagnostics = %+v", bagMain.Items())
	}
	if bagLib.Len() != 0 {
		t.Fatalf("lib diagnostics = %+v", bagLib.Items())
	}
}

func TestReportCrossPackageCyclesIgnoresLocalCycles(t *testing.T) {
	idx, g, slots := buildFrom(meta("a", "b"), meta("b", "a"))
	if n := ReportCrossPackageCycles(idx, slots, Condense(g)); n != 0 {
		t.Fatalf("intra-package cycle reported %d times", n)
	}
}
