package trace

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	for _, l := range []Level{LevelOff, LevelError, LevelPhase, LevelDetail, LevelDebug} {
		got, err := ParseLevel(strings.ToUpper(l.String()))
		if err != nil || got != l {
			t.Fatalf("ParseLevel(%q) = %v, %v", l, got, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestFormatDetection(t *testing.T) {
	tests := []struct {
		format Format
		path   string
		want   Format
	}{
		{FormatAuto, "trace.ndjson", FormatNDJSON},
		{FormatAuto, "trace.json", FormatNDJSON},
		{FormatAuto, "-", FormatText},
		{FormatText, "trace.json", FormatText},
	}
	for _, tt := range tests {
		if got := detect(tt.format, tt.path); got != tt.want {
			t.Errorf("detect(%v, %q) = %v, want %v", tt.format, tt.path, got, tt.want)
		}
	}
}

func TestPhaseLogsAtPhaseLevel(t *testing.T) {
	var buf bytes.Buffer
	log, closeFn, err := New(Config{Level: LevelPhase, Format: FormatNDJSON, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer closeFn()

	Phase(&log, "check").End(nil)
	Phase(&log, "codegen").End(errors.New("boom"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2 (begin is below phase level):\n%s", len(lines), buf.String())
	}
	var first, second map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("line 0: %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("line 1: %v", err)
	}
	if first["phase"] != "check" || first["message"] != "end" {
		t.Errorf("first = %v", first)
	}
	if second["level"] != "error" || second["error"] != "boom" {
		t.Errorf("second = %v", second)
	}
}

func TestOffLevelIsSilent(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: LevelOff, Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	Phase(&log, "parse").End(errors.New("ignored"))
	if buf.Len() != 0 {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
