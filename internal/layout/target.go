package layout

// Target describes the memory model the layouts are computed for.
//
// Only wasm32 is implemented.
type Target struct {
	Name     string // e.g. "wasm32-wasi"
	PtrSize  int    // bytes
	WordSize int    // bytes; every field starts on a word boundary
}

func Wasm32() Target {
	return Target{
		Name:     "wasm32-wasi",
		PtrSize:  4,
		WordSize: 4,
	}
}
