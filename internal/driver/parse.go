package driver

import (
	"fortio.org/safecast"

	"knox/internal/ast"
	"knox/internal/desugar"
	"knox/internal/diag"
	"knox/internal/parser"
	"knox/internal/source"
)

type ParseResult struct {
	FileSet *source.FileSet
	File    *source.File
	Builder *ast.Builder
	FileID  ast.FileID
	Desugar desugar.Result
	Bag     *diag.Bag
}

// Parse parses and desugars a single file without resolving its imports.
func Parse(filePath string, maxDiagnostics int) (*ParseResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(filePath)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	maxErrors, err := safecast.Conv[uint](maxDiagnostics)
	if err != nil {
		return nil, err
	}
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	builder, res := parser.ParseModule(file, parser.Options{
		Reporter:  reporter,
		MaxErrors: maxErrors,
	})
	ds := desugar.Module(builder, res.File, reporter)

	return &ParseResult{
		FileSet: fs,
		File:    file,
		Builder: builder,
		FileID:  res.File,
		Desugar: ds,
		Bag:     bag,
	}, nil
}
