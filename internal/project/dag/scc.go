package dag

import (
	"slices"
)

// Component is one strongly connected component of the import graph.
type Component struct {
	Nodes  []NodeID // по возрастанию
	Cyclic bool     // больше одного модуля
}

// Condensation is the DAG of components.
type Condensation struct {
	Components []Component
	Of         []int   // Of[node] = индекс компоненты, -1 для отсутствующих модулей
	Deps       [][]int // рёбра конденсации: компонента -> компоненты, которые она импортирует
	Batches    [][]int // волны: зависимости раньше зависимых
}

// Condense runs Tarjan's algorithm over present modules and groups the
// resulting components into batches. Every component of a batch depends only
// on components of earlier batches, so a batch can be processed in parallel.
func Condense(g Graph) *Condensation {
	n := len(g.Edges)
	t := tarjan{
		g:       g,
		index:   make([]int, n),
		low:     make([]int, n),
		onStack: make([]bool, n),
		of:      make([]int, n),
	}
	for i := range n {
		t.index[i] = -1
		t.of[i] = -1
	}
	for i := range n {
		if g.Present[i] && t.index[i] < 0 {
			t.visit(i)
		}
	}

	cond := &Condensation{
		Components: t.comps,
		Of:         t.of,
		Deps:       make([][]int, len(t.comps)),
	}

	// Tarjan выдаёт компоненты в обратном топологическом порядке:
	// всё, что достижимо из компоненты, выдано раньше неё.
	level := make([]int, len(t.comps))
	for ci, comp := range t.comps {
		seen := map[int]struct{}{}
		for _, from := range comp.Nodes {
			for _, to := range g.Edges[int(from)] {
				cj := t.of[int(to)]
				if cj == ci || cj < 0 {
					continue
				}
				if _, dup := seen[cj]; dup {
					continue
				}
				seen[cj] = struct{}{}
				cond.Deps[ci] = append(cond.Deps[ci], cj)
				level[ci] = max(level[ci], level[cj]+1)
			}
		}
		slices.Sort(cond.Deps[ci])
	}

	for ci := range t.comps {
		for len(cond.Batches) <= level[ci] {
			cond.Batches = append(cond.Batches, nil)
		}
		cond.Batches[level[ci]] = append(cond.Batches[level[ci]], ci)
	}
	for _, batch := range cond.Batches {
		slices.SortFunc(batch, func(a, b int) int {
			return int(t.comps[a].Nodes[0]) - int(t.comps[b].Nodes[0])
		})
	}
	return cond
}

type tarjan struct {
	g       Graph
	counter int
	index   []int
	low     []int
	onStack []bool
	stack   []int
	of      []int
	comps   []Component
}

func (t *tarjan) visit(v int) {
	t.index[v] = t.counter
	t.low[v] = t.counter
	t.counter++
	t.stack = append(t.stack, v)
	t.onStack[v] = true

	for _, to := range t.g.Edges[v] {
		w := int(to)
		if !t.g.Present[w] {
			continue
		}
		switch {
		case t.index[w] < 0:
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		case t.onStack[w]:
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	comp := Component{}
	ci := len(t.comps)
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.onStack[w] = false
		t.of[w] = ci
		comp.Nodes = append(comp.Nodes, nodeID(w))
		if w == v {
			break
		}
	}
	slices.Sort(comp.Nodes)
	comp.Cyclic = len(comp.Nodes) > 1
	t.comps = append(t.comps, comp)
}

// Order flattens the batches into module order: dependencies first,
// members of one component in NodeID order.
func (c *Condensation) Order() []NodeID {
	out := make([]NodeID, 0, len(c.Of))
	for _, batch := range c.Batches {
		for _, ci := range batch {
			out = append(out, c.Components[ci].Nodes...)
		}
	}
	return out
}
