package testkit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knox/internal/desugar"
	"knox/internal/diag"
	"knox/internal/parser"
	"knox/internal/source"
)

func TestSpanInvariants(t *testing.T) {
	srcs := []string{
		"",
		"// only a comment\n",
		"fn main() -> () {}\n",
		"pub struct P {\n    x: int @pub(get, set),\n}\nfn main() -> () {}\n",
	}
	for _, src := range srcs {
		fs := source.NewFileSet()
		file := fs.Get(fs.AddVirtual("t.kx", []byte(src)))
		bag := diag.NewBag(0)
		b, res := parser.ParseModule(file, parser.Options{Reporter: diag.BagReporter{Bag: bag}})
		desugar.Module(b, res.File, diag.BagReporter{Bag: bag})
		require.Zero(t, bag.Len(), "%q", src)
		assert.NoError(t, CheckSpanInvariants(b, res.File, file), "%q", src)
	}
}

func TestSpanInvariantsRejectsForeignFile(t *testing.T) {
	fs := source.NewFileSet()
	a := fs.Get(fs.AddVirtual("a.kx", []byte("fn main() -> () {}")))
	other := fs.Get(fs.AddVirtual("b.kx", []byte("fn main() -> () {}")))
	b, res := parser.ParseModule(a, parser.Options{})
	assert.Error(t, CheckSpanInvariants(b, res.File, other))
	assert.Error(t, CheckSpanInvariants(nil, res.File, a))
}
