package diagfmt

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"knox/internal/diag"
	"knox/internal/source"
)

type palette struct {
	err, warn, info *color.Color
	code, loc       *color.Color
	gutter, caret   *color.Color
	note, fix       *color.Color
	added, removed  *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:     mk(color.FgRed, color.Bold),
		warn:    mk(color.FgYellow, color.Bold),
		info:    mk(color.FgCyan, color.Bold),
		code:    mk(color.Bold),
		loc:     mk(color.FgWhite, color.Bold),
		gutter:  mk(color.FgBlue),
		caret:   mk(color.FgRed, color.Bold),
		note:    mk(color.FgCyan),
		fix:     mk(color.FgGreen),
		added:   mk(color.FgGreen),
		removed: mk(color.FgRed),
	}
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes и Fixes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			pal.loc.Sprintf("%s:%d:%d", displayPath(f, fs, opts.PathMode), start.Line, start.Col),
			pal.severity(d.Severity).Sprint(d.Severity.String()),
			pal.code.Sprint(d.Code.ID()),
			d.Message,
		)
		if f != nil {
			writeSnippet(w, fs, f, d.Primary, int(max(opts.Context, 0)), pal)
		}

		if opts.ShowNotes {
			for _, n := range d.Notes {
				nf := fs.Get(n.Span.File)
				pos, _ := fs.Resolve(n.Span)
				fmt.Fprintf(w, "  %s %s:%d:%d: %s\n",
					pal.note.Sprint("note:"), displayPath(nf, fs, opts.PathMode), pos.Line, pos.Col, n.Msg)
			}
		}
		if opts.ShowFixes {
			writeFixes(w, fs, d.Fixes, opts, pal)
		}
	}
}

func writeFixes(w io.Writer, fs *source.FileSet, fixes []diag.Fix, opts PrettyOpts, pal palette) {
	for i, fix := range fixes {
		fmt.Fprintf(w, "  %s %s\n", pal.fix.Sprintf("fix #%d:", i+1), fix.Title)
		for _, edit := range fix.Edits {
			ef := fs.Get(edit.Span.File)
			pos, _ := fs.Resolve(edit.Span)
			fmt.Fprintf(w, "    %s:%d:%d apply=%q\n", displayPath(ef, fs, opts.PathMode), pos.Line, pos.Col, edit.NewText)
			if !opts.ShowPreview {
				continue
			}
			preview, err := buildFixEditPreview(fs, edit)
			if err != nil {
				continue
			}
			fmt.Fprintln(w, "    preview:")
			for _, line := range preview.before {
				fmt.Fprintf(w, "      %s\n", pal.removed.Sprint("- "+line))
			}
			for _, line := range preview.after {
				fmt.Fprintf(w, "      %s\n", pal.added.Sprint("+ "+line))
			}
		}
	}
}

// writeSnippet печатает строку span-а с context строками вокруг и каретку под ней.
func writeSnippet(w io.Writer, fs *source.FileSet, f *source.File, sp source.Span, context int, pal palette) {
	start, end := fs.Resolve(sp)
	if start.Line == 0 {
		return
	}
	lineCount, err := safecast.Conv[uint32](len(f.LineIdx) + 1)
	if err != nil {
		return
	}
	ctx, err := safecast.Conv[uint32](context)
	if err != nil {
		return
	}
	first := max(start.Line, ctx+1) - ctx
	last := min(start.Line+ctx, lineCount)
	width := len(strconv.FormatUint(uint64(last), 10))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		fmt.Fprintf(w, " %s %s\n", pal.gutter.Sprintf("%*d |", width, ln), text)
		if ln != start.Line {
			continue
		}
		endCol := int(end.Col)
		if end.Line != start.Line {
			endCol = len(text) + 1
		}
		pad, marks := caret(text, int(start.Col), endCol)
		fmt.Fprintf(w, " %s %s%s\n", pal.gutter.Sprintf("%*s |", width, ""), pad, pal.caret.Sprint(marks))
	}
}

// caret returns the indentation and the ^~~ run for columns [startCol, endCol)
// of line. Columns are 1-based byte offsets; widths follow the terminal cell
// width of each rune, tabs are kept so the caret lines up.
func caret(line string, startCol, endCol int) (pad, marks string) {
	s := min(max(startCol, 1)-1, len(line))
	e := min(max(endCol-1, s), len(line))

	var b strings.Builder
	for _, r := range line[:s] {
		if r == '\t' {
			b.WriteByte('\t')
			continue
		}
		b.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}
	n := max(runewidth.StringWidth(strings.ReplaceAll(line[s:e], "\t", "    ")), 1)
	return b.String(), "^" + strings.Repeat("~", n-1)
}

// Summary renders "N errors, M warnings" for the end of a run.
func Summary(bag *diag.Bag) string {
	errs := bag.ErrorCount()
	warns := 0
	for _, d := range bag.Items() {
		if d.Severity == diag.SevWarning {
			warns++
		}
	}
	return fmt.Sprintf("%s, %s", plural(errs, "error"), plural(warns, "warning"))
}

func plural(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
