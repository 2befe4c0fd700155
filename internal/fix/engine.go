// Package fix applies the quick fixes attached to diagnostics.
package fix

import (
	"cmp"
	"errors"
	"fmt"
	"os"
	"slices"

	"knox/internal/diag"
	"knox/internal/source"
)

// ErrNoFixes is returned when no fixes were applied.
var ErrNoFixes = errors.New("no applicable fixes found")

// ApplyMode determines selection strategy for fixes.
type ApplyMode uint8

const (
	// ApplyModeOnce applies the first fix in source order.
	ApplyModeOnce ApplyMode = iota
	// ApplyModeAll applies every fix that does not overlap an earlier one.
	ApplyModeAll
	// ApplyModeID applies the fix with ApplyOptions.TargetID.
	ApplyModeID
)

// ApplyOptions configures how fixes are selected.
type ApplyOptions struct {
	Mode     ApplyMode
	TargetID string
	// DryRun computes FileChange.Content without touching disk.
	DryRun bool
}

// AppliedFix records a successfully applied fix.
type AppliedFix struct {
	ID          string
	Title       string
	Code        diag.Code
	PrimaryPath string
	EditCount   int
}

// SkippedFix captures a skipped fix with a reason.
type SkippedFix struct {
	ID     string
	Title  string
	Reason string
}

// FileChange is the new content of one file.
type FileChange struct {
	Path      string
	EditCount int
	Content   []byte
}

// ApplyResult aggregates applied fixes, skipped ones, and file changes.
type ApplyResult struct {
	Applied     []AppliedFix
	Skipped     []SkippedFix
	FileChanges []FileChange
}

type candidate struct {
	diag  diag.Diagnostic
	fix   diag.Fix
	id    string
	order int
}

// ID is the stable name of the idx-th fix of d: CODE-file-offset-idx.
func ID(d diag.Diagnostic, idx int) string {
	return fmt.Sprintf("%s-%d-%d-%d", d.Code.ID(), d.Primary.File, d.Primary.Start, idx)
}

// Apply collects fixes from diagnostics, selects a subset according to opts
// and splices their edits into the file contents.
func Apply(fs *source.FileSet, diagnostics []diag.Diagnostic, opts ApplyOptions) (*ApplyResult, error) {
	result := &ApplyResult{}
	if fs == nil {
		return result, fmt.Errorf("fix: FileSet is nil")
	}

	candidates := gatherCandidates(diagnostics, result)
	selected := selectCandidates(candidates, opts, result)
	if len(selected) == 0 {
		return result, ErrNoFixes
	}

	edits := make(map[source.FileID][]diag.FixEdit)
	for _, cand := range selected {
		if reason := checkEdits(fs, edits, cand.fix.Edits); reason != "" {
			result.Skipped = append(result.Skipped, SkippedFix{ID: cand.id, Title: cand.fix.Title, Reason: reason})
			continue
		}
		for _, e := range cand.fix.Edits {
			edits[e.Span.File] = append(edits[e.Span.File], e)
		}
		result.Applied = append(result.Applied, AppliedFix{
			ID:          cand.id,
			Title:       cand.fix.Title,
			Code:        cand.diag.Code,
			PrimaryPath: displayPath(fs, cand.diag.Primary.File),
			EditCount:   len(cand.fix.Edits),
		})
	}
	if len(result.Applied) == 0 {
		return result, ErrNoFixes
	}

	files := make([]source.FileID, 0, len(edits))
	for id := range edits {
		files = append(files, id)
	}
	slices.Sort(files)
	for _, id := range files {
		file := fs.Get(id)
		change := FileChange{
			Path:      displayPath(fs, id),
			EditCount: len(edits[id]),
			Content:   splice(file.Content, edits[id]),
		}
		if !opts.DryRun {
			if err := writeBack(file.Path, change.Content); err != nil {
				return result, err
			}
		}
		result.FileChanges = append(result.FileChanges, change)
	}
	return result, nil
}

func gatherCandidates(diagnostics []diag.Diagnostic, result *ApplyResult) []candidate {
	var cands []candidate
	for _, d := range diagnostics {
		for idx, f := range d.Fixes {
			id := ID(d, idx)
			if len(f.Edits) == 0 {
				result.Skipped = append(result.Skipped, SkippedFix{ID: id, Title: f.Title, Reason: "fix has no edits"})
				continue
			}
			cands = append(cands, candidate{diag: d, fix: f, id: id, order: len(cands)})
		}
	}
	// порядок: файл, начало, конец, порядок появления
	slices.SortStableFunc(cands, func(a, b candidate) int {
		return cmp.Or(
			cmp.Compare(a.diag.Primary.File, b.diag.Primary.File),
			cmp.Compare(a.diag.Primary.Start, b.diag.Primary.Start),
			cmp.Compare(a.diag.Primary.End, b.diag.Primary.End),
			cmp.Compare(a.order, b.order),
		)
	})
	return cands
}

func selectCandidates(cands []candidate, opts ApplyOptions, result *ApplyResult) []candidate {
	switch opts.Mode {
	case ApplyModeID:
		for _, cand := range cands {
			if cand.id == opts.TargetID {
				return []candidate{cand}
			}
		}
		result.Skipped = append(result.Skipped, SkippedFix{ID: opts.TargetID, Reason: "fix id not found"})
		return nil
	case ApplyModeAll:
		return cands
	default:
		if len(cands) == 0 {
			return nil
		}
		return cands[:1]
	}
}

// checkEdits returns a skip reason when edits fall outside their file, hit a
// virtual file or overlap edits already accepted.
func checkEdits(fs *source.FileSet, accepted map[source.FileID][]diag.FixEdit, edits []diag.FixEdit) string {
	for i, e := range edits {
		file := fs.Get(e.Span.File)
		if file == nil {
			return "unknown file"
		}
		if file.Flags&source.FileVirtual != 0 {
			return "target file is virtual"
		}
		if e.Span.End < e.Span.Start || int(e.Span.End) > len(file.Content) {
			return "edit span out of range"
		}
		for _, prev := range accepted[e.Span.File] {
			if spansConflict(prev.Span, e.Span) {
				return "conflicts with a previously applied fix"
			}
		}
		for _, other := range edits[:i] {
			if other.Span.File == e.Span.File && spansConflict(other.Span, e.Span) {
				return "fix has overlapping edits"
			}
		}
	}
	return ""
}

// spansConflict reports whether two edit spans overlap as half-open intervals.
// Two insertions never conflict; an insertion conflicts with a replacement
// strictly containing its position.
func spansConflict(a, b source.Span) bool {
	switch {
	case a.Empty() && b.Empty():
		return false
	case a.Empty():
		return b.Start < a.Start && a.Start < b.End
	case b.Empty():
		return a.Start < b.Start && b.Start < a.End
	default:
		return a.Start < b.End && b.Start < a.End
	}
}

// splice applies non-overlapping edits to content. Insertions at the same
// offset keep their order.
func splice(content []byte, edits []diag.FixEdit) []byte {
	sorted := slices.Clone(edits)
	slices.SortStableFunc(sorted, func(a, b diag.FixEdit) int {
		return cmp.Compare(a.Span.Start, b.Span.Start)
	})
	out := make([]byte, 0, len(content))
	pos := uint32(0)
	for _, e := range sorted {
		out = append(out, content[pos:e.Span.Start]...)
		out = append(out, e.NewText...)
		pos = e.Span.End
	}
	return append(out, content[pos:]...)
}

func writeBack(path string, content []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func displayPath(fs *source.FileSet, id source.FileID) string {
	file := fs.Get(id)
	if file == nil {
		return ""
	}
	return file.DisplayPath(fs.BaseDir())
}
