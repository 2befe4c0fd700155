package wasm

import (
	"slices"
	"strings"
)

type signature struct {
	params  []byte
	results []byte
}

func (s signature) key() string {
	return string(s.params) + "|" + string(s.results)
}

type importFunc struct {
	module, name string
	sig          uint32
	debugName    string
}

// function is one defined function; code excludes the local declarations.
type function struct {
	name   string
	sig    uint32
	params int
	// locals lists the value types of non-parameter locals in index order.
	locals []byte
	code   []byte
}

type export struct {
	name  string
	kind  byte
	index uint32
}

// module accumulates everything the binary needs before encoding.
type module struct {
	sigs     []signature
	sigIndex map[string]uint32
	imports  []importFunc
	funcs    []*function
	exports  []export
	// data is placed at address 0.
	data      []byte
	heapStart uint32
}

func newModule() *module {
	return &module{sigIndex: make(map[string]uint32)}
}

func (m *module) signature(params, results []byte) uint32 {
	s := signature{params: slices.Clone(params), results: slices.Clone(results)}
	if idx, ok := m.sigIndex[s.key()]; ok {
		return idx
	}
	idx := mustU32(len(m.sigs))
	m.sigs = append(m.sigs, s)
	m.sigIndex[s.key()] = idx
	return idx
}

func (m *module) funcIndex(i int) uint32 {
	return mustU32(len(m.imports) + i)
}

const pageSize = 1 << 16

func (m *module) encode() []byte {
	out := &encoder{}
	out.raw([]byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00})

	sec := &encoder{}
	sec.count(len(m.sigs))
	for _, s := range m.sigs {
		sec.u8(funcType)
		sec.count(len(s.params))
		sec.raw(s.params)
		sec.count(len(s.results))
		sec.raw(s.results)
	}
	out.section(secType, sec.buf)

	sec = &encoder{}
	sec.count(len(m.imports))
	for _, imp := range m.imports {
		sec.name(imp.module)
		sec.name(imp.name)
		sec.u8(extFunc)
		sec.u32(imp.sig)
	}
	out.section(secImport, sec.buf)

	sec = &encoder{}
	sec.count(len(m.funcs))
	for _, f := range m.funcs {
		sec.u32(f.sig)
	}
	out.section(secFunction, sec.buf)

	sec = &encoder{}
	sec.u32(1)
	sec.u8(0x00) // без максимума
	sec.u32(m.pages())
	out.section(secMemory, sec.buf)

	sec = &encoder{}
	sec.u32(1)
	sec.u8(valI32)
	sec.u8(0x01) // mutable
	sec.u8(opI32Const)
	sec.s64(int64(m.heapStart))
	sec.u8(opEnd)
	out.section(secGlobal, sec.buf)

	sec = &encoder{}
	sec.count(len(m.exports))
	for _, e := range m.exports {
		sec.name(e.name)
		sec.u8(e.kind)
		sec.u32(e.index)
	}
	out.section(secExport, sec.buf)

	sec = &encoder{}
	sec.count(len(m.funcs))
	for _, f := range m.funcs {
		body := &encoder{}
		writeLocals(body, f.locals)
		body.raw(f.code)
		body.u8(opEnd)
		sec.count(len(body.buf))
		sec.raw(body.buf)
	}
	out.section(secCode, sec.buf)

	sec = &encoder{}
	sec.u32(1)
	sec.u32(0) // active, memory 0
	sec.u8(opI32Const)
	sec.s32(0)
	sec.u8(opEnd)
	sec.count(len(m.data))
	sec.raw(m.data)
	out.section(secData, sec.buf)

	out.section(secCustom, m.nameSection())
	return out.buf
}

func (m *module) pages() uint32 {
	n := (m.heapStart + pageSize - 1) / pageSize
	return max(n, 1)
}

// writeLocals groups consecutive locals of one type.
func writeLocals(e *encoder, locals []byte) {
	type run struct {
		n int
		t byte
	}
	var runs []run
	for _, t := range locals {
		if len(runs) > 0 && runs[len(runs)-1].t == t {
			runs[len(runs)-1].n++
			continue
		}
		runs = append(runs, run{n: 1, t: t})
	}
	e.count(len(runs))
	for _, r := range runs {
		e.count(r.n)
		e.u8(r.t)
	}
}

// nameSection builds the "name" custom section with function names.
func (m *module) nameSection() []byte {
	names := &encoder{}
	names.count(len(m.imports) + len(m.funcs))
	for i, imp := range m.imports {
		names.count(i)
		names.name(imp.debugName)
	}
	for i, f := range m.funcs {
		names.u32(m.funcIndex(i))
		names.name(f.name)
	}
	body := &encoder{}
	body.name("name")
	body.u8(1) // function names
	body.count(len(names.buf))
	body.raw(names.buf)
	return body.buf
}

func valTypeName(t byte) string {
	switch t {
	case valI32:
		return "i32"
	case valI64:
		return "i64"
	}
	return "?"
}

func (s signature) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, p := range s.params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valTypeName(p))
	}
	sb.WriteString(") -> (")
	for i, r := range s.results {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valTypeName(r))
	}
	sb.WriteByte(')')
	return sb.String()
}
