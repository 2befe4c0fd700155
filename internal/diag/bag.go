package diag

import (
	"slices"
	"sync"
)

// Bag collects diagnostics for one compilation unit.
// Add and Merge may be called from parallel workers.
type Bag struct {
	mu    sync.Mutex
	items []Diagnostic
	max   int
}

// NewBag creates a bag that keeps at most max diagnostics (0 = unlimited).
func NewBag(max int) *Bag {
	return &Bag{max: max}
}

// Add добавляет диагностику, учитывая лимит.
// Возвращает false, если диагностика не добавлена.
func (b *Bag) Add(d Diagnostic) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.max > 0 && len(b.items) >= b.max {
		return false
	}
	b.items = append(b.items, d)
	return true
}

func (b *Bag) HasErrors() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.items {
		if b.items[i].Severity.IsError() {
			return true
		}
	}
	return false
}

func (b *Bag) ErrorCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for i := range b.items {
		if b.items[i].Severity.IsError() {
			n++
		}
	}
	return n
}

func (b *Bag) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Items возвращает копию диагностик.
func (b *Bag) Items() []Diagnostic {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.items)
}

// Merge appends other's diagnostics, respecting the limit.
func (b *Bag) Merge(other *Bag) {
	if other == nil || other == b {
		return
	}
	for _, d := range other.Items() {
		if !b.Add(d) {
			return
		}
	}
}

// Sort orders by file, start, end, severity (desc), code.
func (b *Bag) Sort() {
	b.mu.Lock()
	defer b.mu.Unlock()
	slices.SortStableFunc(b.items, func(di, dj Diagnostic) int {
		switch {
		case di.Primary.Less(dj.Primary):
			return -1
		case dj.Primary.Less(di.Primary):
			return 1
		case di.Severity != dj.Severity:
			return int(dj.Severity) - int(di.Severity)
		case di.Code != dj.Code:
			return int(di.Code) - int(dj.Code)
		}
		return 0
	})
}

// Dedup drops repeated Code+Primary+Message entries, keeping the first.
func (b *Bag) Dedup() {
	b.mu.Lock()
	defer b.mu.Unlock()
	seen := make(map[dedupKey]struct{}, len(b.items))
	out := b.items[:0]
	for _, d := range b.items {
		key := keyOf(d.Code, d.Severity, d.Primary, d.Message)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	b.items = out
}
