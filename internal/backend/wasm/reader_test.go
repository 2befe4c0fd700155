package wasm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// A minimal reader for the subset of the binary format the emitter writes.

type section struct {
	id   byte
	body []byte
}

type importEntry struct {
	module, name string
}

type exportEntry struct {
	name  string
	kind  byte
	index uint32
}

type binary struct {
	sections  []section
	imports   []importEntry
	exports   []exportEntry
	bodies    [][]byte
	funcNames []string
}

type reader struct {
	t   *testing.T
	buf []byte
	pos int
}

func (r *reader) eof() bool { return r.pos >= len(r.buf) }

func (r *reader) u8() byte {
	r.t.Helper()
	require.Less(r.t, r.pos, len(r.buf), "unexpected end of input")
	b := r.buf[r.pos]
	r.pos++
	return b
}

func (r *reader) u32() uint32 {
	r.t.Helper()
	var v uint32
	for shift := 0; ; shift += 7 {
		b := r.u8()
		v |= uint32(b&0x7F) << shift
		if b&0x80 == 0 {
			return v
		}
	}
}

// sleb skips a signed LEB128 value.
func (r *reader) sleb() {
	for r.u8()&0x80 != 0 {
	}
}

func (r *reader) bytes(n uint32) []byte {
	r.t.Helper()
	require.LessOrEqual(r.t, r.pos+int(n), len(r.buf), "truncated")
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out
}

func (r *reader) name() string {
	return string(r.bytes(r.u32()))
}

func parseBinary(t *testing.T, bin []byte) *binary {
	t.Helper()
	require.True(t, bytes.HasPrefix(bin, []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}), "bad header")
	r := &reader{t: t, buf: bin, pos: 8}
	out := &binary{}
	for !r.eof() {
		id := r.u8()
		body := r.bytes(r.u32())
		out.sections = append(out.sections, section{id: id, body: body})
		sr := &reader{t: t, buf: body}
		switch id {
		case 2:
			for range sr.u32() {
				imp := importEntry{module: sr.name(), name: sr.name()}
				require.Equal(t, byte(0x00), sr.u8(), "only function imports")
				sr.u32()
				out.imports = append(out.imports, imp)
			}
		case 7:
			for range sr.u32() {
				out.exports = append(out.exports, exportEntry{name: sr.name(), kind: sr.u8(), index: sr.u32()})
			}
		case 10:
			for range sr.u32() {
				out.bodies = append(out.bodies, sr.bytes(sr.u32()))
			}
		case 0:
			require.Equal(t, "name", sr.name())
			require.Equal(t, byte(1), sr.u8())
			sub := &reader{t: t, buf: sr.bytes(sr.u32())}
			for range sub.u32() {
				sub.u32()
				out.funcNames = append(out.funcNames, sub.name())
			}
		}
		if id == 2 || id == 7 || id == 10 {
			require.True(t, sr.eof(), "section %d has trailing bytes", id)
		}
	}
	return out
}

// data returns the contents of the single active segment at address 0.
func (b *binary) data(t *testing.T) []byte {
	t.Helper()
	for _, s := range b.sections {
		if s.id != 11 {
			continue
		}
		r := &reader{t: t, buf: s.body}
		require.EqualValues(t, 1, r.u32())
		require.EqualValues(t, 0, r.u32())
		require.Equal(t, byte(0x41), r.u8())
		require.EqualValues(t, 0, r.u32())
		require.Equal(t, byte(0x0B), r.u8())
		return r.bytes(r.u32())
	}
	t.Fatal("no data section")
	return nil
}

// assertBalanced walks a function body: every block, loop and if is closed
// and the body ends with the function's own end.
func assertBalanced(t *testing.T, fn int, body []byte) {
	t.Helper()
	r := &reader{t: t, buf: body}
	for range r.u32() {
		r.u32()
		r.u8()
	}
	depth := 0
	for !r.eof() {
		op := r.u8()
		switch {
		case op == 0x02 || op == 0x03 || op == 0x04:
			r.u8()
			depth++
		case op == 0x0B:
			depth--
			if depth < 0 {
				require.True(t, r.eof(), "function %d: end of body before the last byte", fn)
			}
		case op == 0x0C || op == 0x0D || op == 0x10 || (op >= 0x20 && op <= 0x24):
			r.u32()
		case op >= 0x28 && op <= 0x3E:
			r.u32()
			r.u32()
		case op == 0x3F || op == 0x40:
			r.u8()
		case op == 0x41 || op == 0x42:
			r.sleb()
		}
	}
	require.Equal(t, -1, depth, "function %d: unbalanced control", fn)
}
