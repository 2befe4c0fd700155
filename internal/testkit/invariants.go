// Package testkit holds checks shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"knox/internal/ast"
	"knox/internal/source"
)

// CheckSpanInvariants verifies the spans of a parsed file:
// the file span lies within the content and belongs to sf,
// every item span is non-empty and inside the file span.
// A file without items may have an empty span.
func CheckSpanInvariants(b *ast.Builder, fileID ast.FileID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	f := b.Files.Get(fileID)
	if f == nil {
		return fmt.Errorf("file node not found")
	}

	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End < f.Span.Start || f.Span.End > lenContent {
		return fmt.Errorf("file span %v outside content of %d bytes", f.Span, lenContent)
	}
	if len(f.Items) > 0 && f.Span.End == f.Span.Start {
		return fmt.Errorf("file with %d items has empty span", len(f.Items))
	}

	for _, it := range f.Items {
		item := b.Items.Get(it)
		if item == nil {
			return fmt.Errorf("nil item for id=%d", it)
		}
		sp := item.Span
		if sp.End <= sp.Start {
			return fmt.Errorf("empty item span: %v", sp)
		}
		if sp.File != sf.ID {
			return fmt.Errorf("item span file mismatch: got=%d want=%d", sp.File, sf.ID)
		}
		// сгенерированные аксессоры несут span поля, он тоже внутри файла
		if sp.Start < f.Span.Start || sp.End > f.Span.End {
			return fmt.Errorf("item span %v is outside file span %v", sp, f.Span)
		}
	}
	return nil
}
