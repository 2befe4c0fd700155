package fuzztests

import (
	"testing"
	"time"

	"knox/internal/desugar"
	"knox/internal/diag"
	"knox/internal/parser"
	"knox/internal/source"
	"knox/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

// FuzzParserBuildsAST parses and desugars arbitrary input; clean parses must
// keep span invariants.
func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("fuzz.kx", input))
		bag := diag.NewBag(128)
		reporter := diag.BagReporter{Bag: bag}

		b, res := parser.ParseModule(file, parser.Options{Reporter: reporter, MaxErrors: 128})
		desugar.Module(b, res.File, reporter)
		if bag.HasErrors() {
			return
		}
		if err := testkit.CheckSpanInvariants(b, res.File, file); err != nil {
			t.Fatalf("span invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
	})
}

// FuzzParserNoHang tests that the parser doesn't hang on any input.
func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)
	f.Add([]byte("fn f() -> () { match x { 1 => { 2 => } } }"))
	f.Add([]byte("fn f() -> () { while while while }"))

	f.Fuzz(func(t *testing.T, input []byte) {
		input = clampInput(input)

		done := make(chan struct{})
		go func() {
			defer close(done)
			fs := source.NewFileSet()
			file := fs.Get(fs.AddVirtual("fuzz.kx", input))
			bag := diag.NewBag(128)
			parser.ParseModule(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}, MaxErrors: 128})
		}()

		select {
		case <-done:
		case <-time.After(parseTimeout):
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
