package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"knox/internal/diag"
	"knox/internal/source"
)

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSetWithBase("/home/user/project")
	content := []byte("let x = \"unterminated string\n")
	fileID := fs.Add("/home/user/project/src/test.kx", content, 0)

	bag := diag.NewBag(10)
	bag.Add(diag.New(diag.SevError, diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 8, End: 28}, "Unterminated string literal"))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"Absolute path", PathModeAbsolute, "/home/user/project/src/test.kx:1:9"},
		{"Relative path", PathModeRelative, "src/test.kx:1:9"},
		{"Basename only", PathModeBasename, "test.kx:1:9"},
		{"Auto uses base dir", PathModeAuto, "src/test.kx:1:9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{PathMode: tt.mode})
			output := buf.String()
			for _, want := range []string{tt.contains, "ERROR", "LEX1002", "Unterminated string"} {
				if !strings.Contains(output, want) {
					t.Errorf("Expected output to contain %q, got:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettyCaret(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("fn main() -> () {\n    let x: int = \"s\";\n}\n")
	fileID := fs.AddVirtual("main.kx", content)
	start := uint32(bytes.Index(content, []byte(`"s"`)))

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SemaTypeMismatch, source.Span{File: fileID, Start: start, End: start + 3}, "expected int, found string"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{Context: 1})
	want := strings.Join([]string{
		"main.kx:2:18: ERROR SEM3203: expected int, found string",
		" 1 | fn main() -> () {",
		" 2 |     let x: int = \"s\";",
		"   |                  ^~~",
		" 3 | }",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestCaretWidth(t *testing.T) {
	tests := []struct {
		line       string
		start, end int
		pad, marks string
	}{
		{"abc", 2, 3, " ", "^"},
		{"\tx = y", 2, 3, "\t", "^"},
		{"日本 x", 8, 9, "     ", "^"},
		{"日本", 1, 7, "", "^~~~"},
		{"short", 4, 40, "   ", "^~"},
		{"", 1, 1, "", "^"},
	}
	for _, tt := range tests {
		pad, marks := caret(tt.line, tt.start, tt.end)
		if pad != tt.pad || marks != tt.marks {
			t.Errorf("caret(%q, %d, %d) = %q %q, want %q %q", tt.line, tt.start, tt.end, pad, marks, tt.pad, tt.marks)
		}
	}
}

func TestPrettyNotesAndFixes(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("import core::util\n")
	fileID := fs.AddVirtual("test.kx", content)

	primary := source.Span{File: fileID, Start: 7, End: 11}
	d := diag.New(diag.SevWarning, diag.SynUnexpectedToken, primary, "unexpected token")
	d = d.WithNote(source.Span{File: fileID, Start: 13, End: 17}, "remove trailing identifier")
	d = d.WithFix("insert semicolon", diag.FixEdit{Span: source.Span{File: fileID, Start: 17, End: 17}, NewText: ";"})

	bag := diag.NewBag(4)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true, ShowFixes: true})
	output := buf.String()
	for _, want := range []string{"note: test.kx:1:14: remove trailing identifier", "fix #1: insert semicolon", "apply=\";\""} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q, got:\n%s", want, output)
		}
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") || strings.Contains(buf.String(), "fix #") {
		t.Fatalf("notes and fixes are opt-in, got:\n%s", buf.String())
	}
}

func TestPrettyFixPreview(t *testing.T) {
	fs := source.NewFileSet()
	content := []byte("let a = 42 // missing semicolon")
	fileID := fs.AddVirtual("example.kx", content)

	insertSpan := source.Span{File: fileID, Start: 10, End: 10}
	d := diag.New(diag.SevWarning, diag.SynUnexpectedToken, insertSpan, "missing semicolon").
		WithFix("insert semicolon", diag.FixEdit{Span: insertSpan, NewText: ";"})
	bag := diag.NewBag(2)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowFixes: true, ShowPreview: true})
	output := buf.String()
	for _, want := range []string{"preview:", "- let a = 42 // missing semicolon", "+ let a = 42; // missing semicolon"} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected %q, got:\n%s", want, output)
		}
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("c.kx", []byte("x\n"))
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.LexUnknownChar, source.Span{File: fileID, Start: 0, End: 1}, "bad"))

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("plain output has escapes: %q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("colored output has no escapes: %q", colored.String())
	}
}

func TestSummary(t *testing.T) {
	fs := source.NewFileSet()
	fileID := fs.AddVirtual("s.kx", []byte("x"))
	sp := source.Span{File: fileID}
	bag := diag.NewBag(0)
	bag.Add(diag.NewError(diag.LexUnknownChar, sp, "a"))
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, sp, "b"))
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, sp, "c"))
	if got := Summary(bag); got != "1 error, 2 warnings" {
		t.Fatalf("Summary = %q", got)
	}
}
