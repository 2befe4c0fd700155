package wasm

import "knox/internal/layout"

// label is a position on the control stack of a funcBuilder.
type label int

// funcBuilder emits the instructions of one function body.
type funcBuilder struct {
	code   encoder
	params int
	locals []byte
	ctrl   int
}

func newFuncBuilder(params int) *funcBuilder {
	return &funcBuilder{params: params}
}

func (f *funcBuilder) op(b byte) { f.code.u8(b) }

func (f *funcBuilder) i32Const(v int32) {
	f.code.u8(opI32Const)
	f.code.s32(v)
}

func (f *funcBuilder) i64Const(v int64) {
	f.code.u8(opI64Const)
	f.code.s64(v)
}

// newLocal declares a local after the parameters.
func (f *funcBuilder) newLocal(t byte) uint32 {
	f.locals = append(f.locals, t)
	return mustU32(f.params + len(f.locals) - 1)
}

func (f *funcBuilder) localGet(i uint32) {
	f.code.u8(opLocalGet)
	f.code.u32(i)
}

func (f *funcBuilder) localSet(i uint32) {
	f.code.u8(opLocalSet)
	f.code.u32(i)
}

func (f *funcBuilder) localTee(i uint32) {
	f.code.u8(opLocalTee)
	f.code.u32(i)
}

func (f *funcBuilder) globalGet(i uint32) {
	f.code.u8(opGlobalGet)
	f.code.u32(i)
}

func (f *funcBuilder) globalSet(i uint32) {
	f.code.u8(opGlobalSet)
	f.code.u32(i)
}

func (f *funcBuilder) call(idx uint32) {
	f.code.u8(opCall)
	f.code.u32(idx)
}

// memarg: every slot is 4-byte aligned, so the alignment hint never exceeds 2.
func (f *funcBuilder) memOp(op byte, align, offset uint32) {
	f.code.u8(op)
	f.code.u32(align)
	f.code.u32(offset)
}

// load reads a value of the given representation from [addr+offset].
func (f *funcBuilder) load(r layout.Repr, offset int) {
	switch r {
	case layout.ReprI32:
		f.memOp(opI32Load, 2, mustU32(offset))
	case layout.ReprI64:
		f.memOp(opI64Load, 2, mustU32(offset))
	default:
		// unit: адрес больше не нужен
		f.op(opDrop)
	}
}

// store writes the value on top of the stack to [addr+offset]; the address
// is below it.
func (f *funcBuilder) store(r layout.Repr, offset int) {
	switch r {
	case layout.ReprI32:
		f.memOp(opI32Store, 2, mustU32(offset))
	case layout.ReprI64:
		f.memOp(opI64Store, 2, mustU32(offset))
	default:
		f.op(opDrop)
	}
}

func (f *funcBuilder) open(op, blockType byte) label {
	f.code.u8(op)
	f.code.u8(blockType)
	f.ctrl++
	return label(f.ctrl - 1)
}

func (f *funcBuilder) block(bt byte) label { return f.open(opBlock, bt) }
func (f *funcBuilder) loop(bt byte) label  { return f.open(opLoop, bt) }
func (f *funcBuilder) ifThen(bt byte) label {
	return f.open(opIf, bt)
}

func (f *funcBuilder) elseBranch() { f.op(opElse) }

func (f *funcBuilder) end() {
	f.op(opEnd)
	f.ctrl--
}

func (f *funcBuilder) depth(l label) uint32 {
	return mustU32(f.ctrl - 1 - int(l))
}

func (f *funcBuilder) br(l label) {
	f.code.u8(opBr)
	f.code.u32(f.depth(l))
}

func (f *funcBuilder) brIf(l label) {
	f.code.u8(opBrIf)
	f.code.u32(f.depth(l))
}

func (f *funcBuilder) finish(name string, sig uint32) *function {
	return &function{name: name, sig: sig, params: f.params, locals: f.locals, code: f.code.buf}
}

func valType(r layout.Repr) (byte, bool) {
	switch r {
	case layout.ReprI32:
		return valI32, true
	case layout.ReprI64:
		return valI64, true
	}
	return 0, false
}

// blockType maps a result representation to a block type.
func blockType(r layout.Repr) byte {
	if t, ok := valType(r); ok {
		return t
	}
	return blockEmpty
}
