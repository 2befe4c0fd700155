package wasm

// Value types.
const (
	valI32 byte = 0x7F
	valI64 byte = 0x7E
	// blockEmpty is the block type of a block without result.
	blockEmpty byte = 0x40
	funcType   byte = 0x60
)

// Section ids.
const (
	secCustom   byte = 0
	secType     byte = 1
	secImport   byte = 2
	secFunction byte = 3
	secMemory   byte = 5
	secGlobal   byte = 6
	secExport   byte = 7
	secCode     byte = 10
	secData     byte = 11
)

// External kinds of imports and exports.
const (
	extFunc   byte = 0x00
	extMemory byte = 0x02
)

// Instructions.
const (
	opUnreachable byte = 0x00
	opBlock       byte = 0x02
	opLoop        byte = 0x03
	opIf          byte = 0x04
	opElse        byte = 0x05
	opEnd         byte = 0x0B
	opBr          byte = 0x0C
	opBrIf        byte = 0x0D
	opReturn      byte = 0x0F
	opCall        byte = 0x10
	opDrop        byte = 0x1A

	opLocalGet  byte = 0x20
	opLocalSet  byte = 0x21
	opLocalTee  byte = 0x22
	opGlobalGet byte = 0x23
	opGlobalSet byte = 0x24

	opI32Load   byte = 0x28
	opI64Load   byte = 0x29
	opI32Load8U byte = 0x2D
	opI32Store  byte = 0x36
	opI64Store  byte = 0x37

	opMemorySize byte = 0x3F
	opMemoryGrow byte = 0x40

	opI32Const byte = 0x41
	opI64Const byte = 0x42

	opI32Eqz byte = 0x45
	opI32Eq  byte = 0x46
	opI32Ne  byte = 0x47
	opI32LtS byte = 0x48
	opI32LtU byte = 0x49
	opI32GtS byte = 0x4A
	opI32GtU byte = 0x4B
	opI32LeS byte = 0x4C
	opI32GeS byte = 0x4E
	opI32GeU byte = 0x4F

	opI64Eq  byte = 0x51
	opI64Ne  byte = 0x52
	opI64LtU byte = 0x54
	opI64GtU byte = 0x56
	opI64LeU byte = 0x58
	opI64GeU byte = 0x5A

	opI32Add  byte = 0x6A
	opI32Sub  byte = 0x6B
	opI32Mul  byte = 0x6C
	opI32DivS byte = 0x6D
	opI32RemS byte = 0x6F
	opI32And  byte = 0x71
	opI32Shl  byte = 0x74
	opI32ShrU byte = 0x76

	opI64Add  byte = 0x7C
	opI64Sub  byte = 0x7D
	opI64Mul  byte = 0x7E
	opI64DivU byte = 0x80
	opI64RemU byte = 0x82
	opI64ShrU byte = 0x88

	opI32WrapI64 byte = 0xA7
)
