package observ

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	idx := tm.Begin("resolve")
	tm.Record("parse", 3*time.Millisecond, "2 modules")
	if d := tm.End(idx, ""); d <= 0 {
		t.Fatalf("End returned %v", d)
	}
	first := tm.Phases()[0].Dur
	tm.End(idx, "again")
	if got := tm.Phases()[0].Dur; got != first {
		t.Fatalf("second End changed the duration: %v -> %v", first, got)
	}

	r := tm.Report()
	if len(r.Phases) != 2 || r.Phases[1].Name != "parse" || r.Phases[1].DurationMS != 3 {
		t.Fatalf("report = %+v", r)
	}
	if r.TotalMS != r.Phases[0].DurationMS {
		t.Fatalf("total %v includes recorded phases", r.TotalMS)
	}
	s := tm.Summary()
	if !strings.Contains(s, "// 2 modules") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestTimerConcurrentRecord(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 16 {
		wg.Go(func() {
			tm.End(tm.Begin("wave"), "")
		})
	}
	wg.Wait()
	if n := len(tm.Phases()); n != 16 {
		t.Fatalf("phases = %d", n)
	}
}

func TestEmptyTimer(t *testing.T) {
	if r := NewTimer().Report(); r.TotalMS != 0 || r.Phases != nil {
		t.Fatalf("report = %+v", r)
	}
	if d := NewTimer().End(3, ""); d != 0 {
		t.Fatalf("End on a missing phase = %v", d)
	}
}
