package source

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
)

func TestFileSetVersioning(t *testing.T) {
	fs := NewFileSet()

	id1 := fs.Add("src/main.kx", []byte("fn main() -> () {}"), 0)
	id2 := fs.Add("src/main.kx", []byte("fn main() -> () { print(\"x\"); }"), 0)
	if id1 == id2 {
		t.Fatalf("expected a new FileID for the second version")
	}
	latest, ok := fs.GetLatest("src/main.kx")
	if !ok || latest != id2 {
		t.Fatalf("GetLatest = %d,%v; want %d,true", latest, ok, id2)
	}
	if string(fs.Get(id1).Content) != "fn main() -> () {}" {
		t.Fatalf("first version content was overwritten")
	}
}

func TestFileSetResolve(t *testing.T) {
	fs := NewFileSet()
	id := fs.AddVirtual("a.kx", []byte("ab\ncd\n\nef"))

	cases := []struct {
		off  uint32
		want LineCol
	}{
		{0, LineCol{1, 1}},
		{1, LineCol{1, 2}},
		{2, LineCol{1, 3}}, // '\n' belongs to the first line
		{3, LineCol{2, 1}},
		{6, LineCol{3, 1}},
		{8, LineCol{4, 2}},
	}
	for _, tc := range cases {
		start, _ := fs.Resolve(Span{File: id, Start: tc.off, End: tc.off})
		if start != tc.want {
			t.Errorf("offset %d: got %+v, want %+v", tc.off, start, tc.want)
		}
	}
}

func TestGetLine(t *testing.T) {
	fs := NewFileSet()
	f := fs.Get(fs.AddVirtual("a.kx", []byte("first\nsecond\nthird")))
	want := map[uint32]string{0: "", 1: "first", 2: "second", 3: "third", 4: ""}
	for line, text := range want {
		if got := f.GetLine(line); got != text {
			t.Errorf("GetLine(%d) = %q, want %q", line, got, text)
		}
	}
}

func TestLoadNormalizesCRLFAndBOM(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "m.kx")
	if err := os.WriteFile(path, []byte("\xEF\xBB\xBFa\r\nb\r\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	fs := NewFileSet()
	id, err := fs.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	f := fs.Get(id)
	if string(f.Content) != "a\nb\n" {
		t.Fatalf("content = %q", f.Content)
	}
	if f.Flags&FileHadBOM == 0 || f.Flags&FileNormalizedCRLF == 0 {
		t.Fatalf("flags = %b", f.Flags)
	}
}

func TestFileSetConcurrentAdd(t *testing.T) {
	fs := NewFileSet()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			fs.AddVirtual(filepath.Join("m", string(rune('a'+i%26))), []byte("x"))
		}(i)
	}
	wg.Wait()
	if fs.Len() != 32 {
		t.Fatalf("Len = %d, want 32", fs.Len())
	}
}
