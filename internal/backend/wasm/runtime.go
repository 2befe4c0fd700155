package wasm

// Memory map of the produced module:
//
//	[0, 4)    nwritten of fd_write
//	[8, 24)   two iovecs: the string, then the newline
//	24        '\n'
//	[32, ..)  string literals
//	heap      bump allocated, grows memory on demand
const (
	nwrittenAddr = 0
	iovAddr      = 8
	newlineAddr  = 24
	dataStart    = 32
	heapGlobal   = 0
)

// function indexes: the import comes first, then the runtime helpers.
const (
	fdWriteIndex uint32 = iota
	allocIndex
	printIndex
	strEqIndex
	firstUserIndex
)

// dataPrefix is the initial content of [0, dataStart).
func dataPrefix() []byte {
	p := make([]byte, dataStart)
	// второй iovec указывает на перевод строки
	putU32(p[iovAddr+8:], newlineAddr)
	putU32(p[iovAddr+12:], 1)
	p[newlineAddr] = '\n'
	return p
}

func putU32(p []byte, v uint32) {
	p[0] = byte(v)
	p[1] = byte(v >> 8)
	p[2] = byte(v >> 16)
	p[3] = byte(v >> 24)
}

func (m *module) addRuntime() {
	fdWrite := m.signature([]byte{valI32, valI32, valI32, valI32}, []byte{valI32})
	m.imports = append(m.imports, importFunc{
		module:    "wasi_snapshot_preview1",
		name:      "fd_write",
		sig:       fdWrite,
		debugName: "fd_write",
	})
	m.funcs = append(m.funcs,
		allocFunc(m.signature([]byte{valI32}, []byte{valI32})),
		printFunc(m.signature([]byte{valI64}, nil)),
		strEqFunc(m.signature([]byte{valI64, valI64}, []byte{valI32})),
	)
}

// knox_alloc(size) returns 8-aligned fresh memory. Nothing is ever freed.
func allocFunc(sig uint32) *function {
	f := newFuncBuilder(1)
	ptr := f.newLocal(valI32)
	f.globalGet(heapGlobal)
	f.localSet(ptr)

	f.globalGet(heapGlobal)
	f.localGet(0)
	f.op(opI32Add)
	f.i32Const(7)
	f.op(opI32Add)
	f.i32Const(-8)
	f.op(opI32And)
	f.globalSet(heapGlobal)

	memBytes := func() {
		f.op(opMemorySize)
		f.op(0x00)
		f.i32Const(16)
		f.op(opI32Shl)
	}
	f.globalGet(heapGlobal)
	memBytes()
	f.op(opI32GtU)
	f.ifThen(blockEmpty)
	f.globalGet(heapGlobal)
	memBytes()
	f.op(opI32Sub)
	f.i32Const(pageSize - 1)
	f.op(opI32Add)
	f.i32Const(16)
	f.op(opI32ShrU)
	f.op(opMemoryGrow)
	f.op(0x00)
	f.i32Const(-1)
	f.op(opI32Eq)
	f.ifThen(blockEmpty)
	f.op(opUnreachable)
	f.end()
	f.end()

	f.localGet(ptr)
	return f.finish("knox_alloc", sig)
}

// knox_print(s) writes s and a newline to stdout with one fd_write call.
func printFunc(sig uint32) *function {
	f := newFuncBuilder(1)
	f.i32Const(iovAddr)
	f.localGet(0)
	f.i64Const(32)
	f.op(opI64ShrU)
	f.op(opI32WrapI64)
	f.memOp(opI32Store, 2, 0)

	f.i32Const(iovAddr)
	f.localGet(0)
	f.op(opI32WrapI64)
	f.memOp(opI32Store, 2, 4)

	f.i32Const(1) // stdout
	f.i32Const(iovAddr)
	f.i32Const(2)
	f.i32Const(nwrittenAddr)
	f.call(fdWriteIndex)
	f.op(opDrop)
	return f.finish("knox_print", sig)
}

// knox_str_eq(a, b) compares two strings byte by byte.
func strEqFunc(sig uint32) *function {
	f := newFuncBuilder(2)
	n := f.newLocal(valI32)
	i := f.newLocal(valI32)
	pa := f.newLocal(valI32)
	pb := f.newLocal(valI32)

	f.localGet(0)
	f.op(opI32WrapI64)
	f.localTee(n)
	f.localGet(1)
	f.op(opI32WrapI64)
	f.op(opI32Ne)
	f.ifThen(blockEmpty)
	f.i32Const(0)
	f.op(opReturn)
	f.end()

	for param, dst := range []uint32{pa, pb} {
		f.localGet(mustU32(param))
		f.i64Const(32)
		f.op(opI64ShrU)
		f.op(opI32WrapI64)
		f.localSet(dst)
	}

	out := f.block(blockEmpty)
	top := f.loop(blockEmpty)
	f.localGet(i)
	f.localGet(n)
	f.op(opI32GeU)
	f.brIf(out)
	for _, p := range []uint32{pa, pb} {
		f.localGet(p)
		f.localGet(i)
		f.op(opI32Add)
		f.memOp(opI32Load8U, 0, 0)
	}
	f.op(opI32Ne)
	f.ifThen(blockEmpty)
	f.i32Const(0)
	f.op(opReturn)
	f.end()
	f.localGet(i)
	f.i32Const(1)
	f.op(opI32Add)
	f.localSet(i)
	f.br(top)
	f.end()
	f.end()

	f.i32Const(1)
	return f.finish("knox_str_eq", sig)
}
