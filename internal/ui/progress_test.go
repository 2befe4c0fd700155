package ui

import (
	"errors"
	"strings"
	"testing"

	"knox/internal/buildpipeline"
)

func feed(m *progressModel, events ...buildpipeline.Event) {
	for _, ev := range events {
		m.applyEvent(ev)
	}
}

func TestProgressTracksModules(t *testing.T) {
	m := NewProgressModel("build app", nil).(*progressModel)
	feed(m,
		buildpipeline.Event{Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{Module: "main", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone},
		buildpipeline.Event{Module: "greet", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusDone},
		buildpipeline.Event{Stage: buildpipeline.StageResolve, Status: buildpipeline.StatusDone},
		buildpipeline.Event{Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusWorking},
		buildpipeline.Event{Module: "main", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusDone},
	)
	if len(m.items) != 2 || m.items[0].name != "main" || m.items[1].name != "greet" {
		t.Fatalf("items = %+v", m.items)
	}
	if m.items[0].status != "checked" || m.items[1].status != "parsed" {
		t.Fatalf("statuses = %q %q", m.items[0].status, m.items[1].status)
	}
	if got, want := m.percent(), 0.3+0.4/2; got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("percent = %v, want %v", got, want)
	}
	view := m.View()
	if !strings.Contains(view, "build app (checking)") || !strings.Contains(view, "greet") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestProgressKeepsErrors(t *testing.T) {
	m := NewProgressModel("build", nil).(*progressModel)
	feed(m,
		buildpipeline.Event{Module: "bad", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusError},
		buildpipeline.Event{Module: "bad", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusDone},
		buildpipeline.Event{Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusError, Err: errors.New("diagnostics reported errors")},
	)
	if m.items[0].status != "error" {
		t.Fatalf("status = %q", m.items[0].status)
	}
	if !strings.Contains(m.View(), "diagnostics reported errors") {
		t.Fatalf("view misses the failure:\n%s", m.View())
	}
}

func TestProgressQuitsWhenEventsClose(t *testing.T) {
	ch := make(chan buildpipeline.Event)
	close(ch)
	m := NewProgressModel("build", ch).(*progressModel)
	msg := m.listenForEvent()()
	if _, ok := msg.(doneMsg); !ok {
		t.Fatalf("msg = %T", msg)
	}
	m.Update(msg)
	if !m.done {
		t.Fatal("model not done")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("very::long::module::path", 10); got != "very::l..." {
		t.Fatalf("truncate = %q", got)
	}
	if got := truncate("短い名前", 5); got != "短..." {
		t.Fatalf("truncate wide = %q", got)
	}
}
