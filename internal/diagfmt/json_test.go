package diagfmt

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"knox/internal/diag"
	"knox/internal/source"
)

func sampleBag(t *testing.T) (*diag.Bag, *source.FileSet) {
	t.Helper()
	fs := source.NewFileSet()
	content := []byte("fn main() -> () {\n\tlet x = \"unterminated\n}")
	fileID := fs.AddVirtual("test.kx", content)

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 27, End: 40}, "Unterminated string literal").
		WithNote(source.Span{File: fileID, Start: 0, End: 2}, "inside this function").
		WithFix("close the string", diag.FixEdit{Span: source.Span{File: fileID, Start: 40, End: 40}, NewText: "\""}))
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar,
		source.Span{File: fileID, Start: 3, End: 7}, "second"))
	return bag, fs
}

// TestJSONBasic проверяет базовое JSON форматирование
func TestJSONBasic(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	err := JSON(&buf, bag, fs, JSONOpts{IncludePositions: true, PathMode: PathModeBasename})
	if err != nil {
		t.Fatalf("JSON() error: %v", err)
	}

	var output DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &output); err != nil {
		t.Fatalf("Invalid JSON output: %v\nOutput: %s", err, buf.String())
	}
	if output.Count != 2 || output.Errors != 1 {
		t.Fatalf("count=%d errors=%d", output.Count, output.Errors)
	}
	d := output.Diagnostics[0]
	if d.Severity != "ERROR" || d.Code != "LEX1002" || d.Message != "Unterminated string literal" {
		t.Errorf("unexpected diagnostic %+v", d)
	}
	want := LocationJSON{File: "test.kx", StartByte: 27, EndByte: 40, StartLine: 2, StartCol: 10, EndLine: 2, EndCol: 23}
	if d.Location != want {
		t.Errorf("location = %+v, want %+v", d.Location, want)
	}
	if d.Notes != nil || d.Fixes != nil {
		t.Errorf("notes and fixes are opt-in: %+v", d)
	}
}

func TestJSONWithoutPositions(t *testing.T) {
	bag, fs := sampleBag(t)
	var buf bytes.Buffer
	if err := JSON(&buf, bag, fs, JSONOpts{PathMode: PathModeBasename}); err != nil {
		t.Fatalf("JSON() error: %v", err)
	}
	if strings.Contains(buf.String(), "start_line") {
		t.Fatalf("positions leaked into output:\n%s", buf.String())
	}
}

func TestJSONMaxLimit(t *testing.T) {
	bag, fs := sampleBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{Max: 1})
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("Max not applied: %+v", out)
	}
	if bag.Len() != 2 {
		t.Fatalf("Max must not touch the bag")
	}
}

func TestJSONNotesFixesAndPreview(t *testing.T) {
	bag, fs := sampleBag(t)
	out := BuildDiagnosticsOutput(bag, fs, JSONOpts{
		PathMode:        PathModeBasename,
		IncludeNotes:    true,
		IncludeFixes:    true,
		IncludePreviews: true,
	})
	d := out.Diagnostics[0]
	if len(d.Notes) != 1 || d.Notes[0].Message != "inside this function" {
		t.Fatalf("notes = %+v", d.Notes)
	}
	if len(d.Fixes) != 1 || len(d.Fixes[0].Edits) != 1 {
		t.Fatalf("fixes = %+v", d.Fixes)
	}
	edit := d.Fixes[0].Edits[0]
	if edit.NewText != "\"" {
		t.Fatalf("new_text = %q", edit.NewText)
	}
	if len(edit.AfterLines) != 1 || edit.AfterLines[0] != "\tlet x = \"unterminated\"" {
		t.Fatalf("after = %q", edit.AfterLines)
	}
}

func TestYAMLMatchesJSONShape(t *testing.T) {
	bag, fs := sampleBag(t)
	opts := JSONOpts{IncludePositions: true, PathMode: PathModeBasename, IncludeNotes: true}
	var buf bytes.Buffer
	if err := YAML(&buf, bag, fs, opts); err != nil {
		t.Fatalf("YAML() error: %v", err)
	}
	var got DiagnosticsOutput
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	want := BuildDiagnosticsOutput(bag, fs, opts)
	if got.Count != want.Count || got.Diagnostics[0].Location != want.Diagnostics[0].Location {
		t.Fatalf("yaml = %+v\nwant %+v", got, want)
	}
	if !strings.Contains(buf.String(), "code: LEX1002") {
		t.Fatalf("yaml output:\n%s", buf.String())
	}
}
