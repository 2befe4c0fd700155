package driver

import (
	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/source"
	"knox/internal/token"
)

type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// Tokenize lexes one file from disk; comments are kept as trivia when trivia is set.
func Tokenize(path string, maxDiagnostics int, trivia bool) (*TokenizeResult, error) {
	fs := source.NewFileSet()
	fileID, err := fs.Load(path)
	if err != nil {
		return nil, err
	}
	file := fs.Get(fileID)

	bag := diag.NewBag(maxDiagnostics)
	tokens := lexer.Tokenize(file, lexer.Options{
		Reporter:   diag.BagReporter{Bag: bag},
		KeepTrivia: trivia,
	})
	return &TokenizeResult{
		FileSet: fs,
		File:    file,
		Tokens:  tokens,
		Bag:     bag,
	}, nil
}
