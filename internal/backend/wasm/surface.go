package wasm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// SurfaceVersion changes whenever the Surface layout does.
const SurfaceVersion uint16 = 1

// Surface is what a host sees of a binary: its imports and exports.
type Surface struct {
	Version uint16          `msgpack:"version"`
	Imports []SurfaceImport `msgpack:"imports"`
	Exports []SurfaceExport `msgpack:"exports"`
	// Pages is the initial memory size.
	Pages uint32 `msgpack:"pages"`
}

type SurfaceImport struct {
	Module    string `msgpack:"module"`
	Name      string `msgpack:"name"`
	Signature string `msgpack:"signature"`
}

type SurfaceExport struct {
	Name string `msgpack:"name"`
	// Kind is "func" or "memory".
	Kind      string `msgpack:"kind"`
	Signature string `msgpack:"signature,omitempty"`
}

func (e *Emitter) surface() Surface {
	s := Surface{Version: SurfaceVersion, Pages: e.mod.pages()}
	for _, imp := range e.mod.imports {
		s.Imports = append(s.Imports, SurfaceImport{
			Module:    imp.module,
			Name:      imp.name,
			Signature: e.mod.sigs[imp.sig].String(),
		})
	}
	for _, ex := range e.mod.exports {
		out := SurfaceExport{Name: ex.name, Kind: "memory"}
		if ex.kind == extFunc {
			out.Kind = "func"
			out.Signature = e.mod.sigs[e.mod.sigOf(ex.index)].String()
		}
		s.Exports = append(s.Exports, out)
	}
	return s
}

// sigOf returns the type index of a function in the index space.
func (m *module) sigOf(idx uint32) uint32 {
	if int(idx) < len(m.imports) {
		return m.imports[idx].sig
	}
	return m.funcs[int(idx)-len(m.imports)].sig
}

// WriteSurface encodes s as msgpack.
func WriteSurface(w io.Writer, s Surface) error {
	if err := msgpack.NewEncoder(w).Encode(s); err != nil {
		return fmt.Errorf("encode surface: %w", err)
	}
	return nil
}

// ReadSurface decodes a surface written by WriteSurface.
func ReadSurface(data []byte) (Surface, error) {
	var s Surface
	if err := msgpack.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return Surface{}, fmt.Errorf("decode surface: %w", err)
	}
	if s.Version != SurfaceVersion {
		return Surface{}, fmt.Errorf("surface version %d, want %d", s.Version, SurfaceVersion)
	}
	return s, nil
}
