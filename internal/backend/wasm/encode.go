package wasm

import (
	"fmt"

	"fortio.org/safecast"
)

// encoder appends wasm binary primitives to a byte slice.
type encoder struct {
	buf []byte
}

func (e *encoder) u8(b byte) { e.buf = append(e.buf, b) }

func (e *encoder) raw(p []byte) { e.buf = append(e.buf, p...) }

// u32 writes unsigned LEB128.
func (e *encoder) u32(v uint32) {
	for v >= 0x80 {
		e.buf = append(e.buf, byte(v&0x7F)|0x80)
		v >>= 7
	}
	e.buf = append(e.buf, byte(v))
}

// s64 writes signed LEB128; s32 shares it.
func (e *encoder) s64(v int64) {
	for {
		b := byte(v & 0x7F)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			e.buf = append(e.buf, b)
			return
		}
		e.buf = append(e.buf, b|0x80)
	}
}

func (e *encoder) s32(v int32) { e.s64(int64(v)) }

// count writes a length as u32; lengths never exceed 4GiB in a valid module.
func (e *encoder) count(n int) {
	e.u32(mustU32(n))
}

func (e *encoder) name(s string) {
	e.count(len(s))
	e.buf = append(e.buf, s...)
}

// section writes id, the size of body and body.
func (e *encoder) section(id byte, body []byte) {
	e.u8(id)
	e.count(len(body))
	e.raw(body)
}

func mustU32(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		panic(&InternalError{Msg: fmt.Sprintf("value %d does not fit in u32", n)})
	}
	return v
}
