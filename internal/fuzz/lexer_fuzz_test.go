package fuzztests

import (
	"testing"

	"knox/internal/diag"
	"knox/internal/lexer"
	"knox/internal/source"
	"knox/internal/token"
)

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.kx", input))

		bag := diag.NewBag(64)
		toks := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}, KeepTrivia: true})
		if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
			t.Fatalf("token stream does not end with EOF")
		}
		var prev uint32
		for i, tok := range toks {
			if tok.Span.Start < prev || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %d (%s) has span %v after offset %d", i, tok.Kind, tok.Span, prev)
			}
			if int(tok.Span.End) > len(input) {
				t.Fatalf("token %d span %v beyond %d bytes", i, tok.Span, len(input))
			}
			prev = tok.Span.End
		}
	})
}
