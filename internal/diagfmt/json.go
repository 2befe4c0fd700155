package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"knox/internal/diag"
	"knox/internal/source"
)

// LocationJSON представляет местоположение в файле для JSON
type LocationJSON struct {
	File      string `json:"file" yaml:"file"`
	StartByte uint32 `json:"start_byte" yaml:"start_byte"`
	EndByte   uint32 `json:"end_byte" yaml:"end_byte"`
	StartLine uint32 `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	StartCol  uint32 `json:"start_col,omitempty" yaml:"start_col,omitempty"`
	EndLine   uint32 `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	EndCol    uint32 `json:"end_col,omitempty" yaml:"end_col,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message" yaml:"message"`
	Location LocationJSON `json:"location" yaml:"location"`
}

// FixEditJSON представляет одно редактирование для JSON
type FixEditJSON struct {
	Location    LocationJSON `json:"location" yaml:"location"`
	NewText     string       `json:"new_text" yaml:"new_text"`
	BeforeLines []string     `json:"before_lines,omitempty" yaml:"before_lines,omitempty"`
	AfterLines  []string     `json:"after_lines,omitempty" yaml:"after_lines,omitempty"`
}

// FixJSON представляет предложение по исправлению для JSON
type FixJSON struct {
	Title string        `json:"title" yaml:"title"`
	Edits []FixEditJSON `json:"edits,omitempty" yaml:"edits,omitempty"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity" yaml:"severity"`
	Code     string       `json:"code" yaml:"code"`
	Message  string       `json:"message" yaml:"message"`
	Location LocationJSON `json:"location" yaml:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty" yaml:"notes,omitempty"`
	Fixes    []FixJSON    `json:"fixes,omitempty" yaml:"fixes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics" yaml:"diagnostics"`
	Count       int              `json:"count" yaml:"count"`
	Errors      int              `json:"errors" yaml:"errors"`
}

// makeLocation создаёт LocationJSON из Span
func makeLocation(span source.Span, fs *source.FileSet, pathMode PathMode, includePositions bool) LocationJSON {
	loc := LocationJSON{
		File:      displayPath(fs.Get(span.File), fs, pathMode),
		StartByte: span.Start,
		EndByte:   span.End,
	}
	if includePositions {
		startPos, endPos := fs.Resolve(span)
		loc.StartLine = startPos.Line
		loc.StartCol = startPos.Col
		loc.EndLine = endPos.Line
		loc.EndCol = endPos.Col
	}
	return loc
}

// BuildDiagnosticsOutput формирует структуру вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, fs *source.FileSet, opts JSONOpts) DiagnosticsOutput {
	items := bag.Items()
	if opts.Max > 0 && opts.Max < len(items) {
		items = items[:opts.Max]
	}
	diagnostics := make([]DiagnosticJSON, 0, len(items))
	errors := 0
	for _, d := range items {
		if d.Severity == diag.SevError {
			errors++
		}
		out := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, fs, opts.PathMode, opts.IncludePositions),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			out.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				out.Notes[j] = NoteJSON{
					Message:  note.Msg,
					Location: makeLocation(note.Span, fs, opts.PathMode, opts.IncludePositions),
				}
			}
		}
		if opts.IncludeFixes && len(d.Fixes) > 0 {
			out.Fixes = buildFixes(d.Fixes, fs, opts)
		}
		diagnostics = append(diagnostics, out)
	}
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Errors:      errors,
	}
}

func buildFixes(fixes []diag.Fix, fs *source.FileSet, opts JSONOpts) []FixJSON {
	sorted := slices.Clone(fixes)
	slices.SortStableFunc(sorted, func(a, b diag.Fix) int {
		return strings.Compare(a.Title, b.Title)
	})
	out := make([]FixJSON, 0, len(sorted))
	for _, fix := range sorted {
		fj := FixJSON{Title: fix.Title}
		for _, edit := range fix.Edits {
			ej := FixEditJSON{
				Location: makeLocation(edit.Span, fs, opts.PathMode, opts.IncludePositions),
				NewText:  edit.NewText,
			}
			if opts.IncludePreviews {
				if preview, err := buildFixEditPreview(fs, edit); err == nil {
					ej.BeforeLines = preview.before
					ej.AfterLines = preview.after
				}
			}
			fj.Edits = append(fj.Edits, ej)
		}
		out = append(out, fj)
	}
	return out
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts)); err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	return nil
}

// YAML форматирует диагностики в YAML с той же структурой, что и JSON.
func YAML(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts JSONOpts) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(BuildDiagnosticsOutput(bag, fs, opts)); err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}
	return encoder.Close()
}
