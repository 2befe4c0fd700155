package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase records the duration and metadata of a compilation phase.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	done  bool
}

// Timer tracks the execution time of pipeline phases. Safe for concurrent use:
// parse waves report from worker goroutines.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
}

// NewTimer creates a new empty Timer.
func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a new phase and returns its index.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now()})
	return len(t.phases) - 1
}

// End finishes a phase by its index and returns its duration.
func (t *Timer) End(idx int, note string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) {
		return 0
	}
	p := &t.phases[idx]
	if !p.done {
		p.Dur = time.Since(p.Start)
		p.done = true
	}
	p.Note = note
	return p.Dur
}

// Record adds a phase measured elsewhere (e.g. summed per-module parse time).
func (t *Timer) Record(name string, dur time.Duration, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Dur: dur, Note: note, done: true})
}

// Phases returns a copy of the tracked phases in Begin order.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Summary returns a human-readable string summarizing all tracked phases.
func (t *Timer) Summary() string {
	report := t.Report()
	var b strings.Builder
	b.WriteString("timings:\n")
	for _, p := range report.Phases {
		fmt.Fprintf(&b, "  %-20s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			b.WriteString("  // " + p.Note)
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "  %-20s %7.2f ms\n", "total", report.TotalMS)
	return b.String()
}

// PhaseReport представляет сжатую информацию о фазе таймера для сериализации.
type PhaseReport struct {
	Name       string  `json:"name" yaml:"name"`
	DurationMS float64 `json:"duration_ms" yaml:"duration_ms"`
	Note       string  `json:"note,omitempty" yaml:"note,omitempty"`
}

// Report описывает агрегированные данные таймера.
type Report struct {
	TotalMS float64       `json:"total_ms" yaml:"total_ms"`
	Phases  []PhaseReport `json:"phases" yaml:"phases"`
}

// Report формирует срез фаз и общую длительность в миллисекундах.
// Фазы, у которых есть Start, в сумму входят; Record-фазы (parse) уже
// учтены внутри resolve и в total не добавляются.
func (t *Timer) Report() Report {
	phases := t.Phases()
	if len(phases) == 0 {
		return Report{}
	}
	report := Report{
		Phases: make([]PhaseReport, len(phases)),
	}
	var total time.Duration
	for i, phase := range phases {
		if !phase.Start.IsZero() {
			total += phase.Dur
		}
		report.Phases[i] = PhaseReport{
			Name:       phase.Name,
			DurationMS: durationToMillis(phase.Dur),
			Note:       phase.Note,
		}
	}
	report.TotalMS = durationToMillis(total)
	return report
}

func durationToMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
