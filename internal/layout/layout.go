package layout

import (
	"fortio.org/safecast"

	"knox/internal/types"
)

// Repr is how a value of a type travels on the wasm operand stack.
type Repr uint8

const (
	// ReprNone: unit, no value at all.
	ReprNone Repr = iota
	ReprI32
	ReprI64
)

func (r Repr) String() string {
	switch r {
	case ReprI32:
		return "i32"
	case ReprI64:
		return "i64"
	default:
		return "none"
	}
}

// TypeLayout is the memory layout of a type for a specific Target.
type TypeLayout struct {
	Repr Repr
	// Slot is the number of bytes a value takes when stored in a field,
	// a payload or a reference cell.
	Slot int

	// Heap objects (struct, Option, Result, dynamic box): object size.
	Size int

	// Struct-only:
	FieldOffsets []int

	// Tagged objects (Option, Result, dynamic box):
	TagSize       int
	PayloadOffset int
}

// Boxed reports whether values of the type point at a heap object.
func (l TypeLayout) Boxed() bool {
	return l.Size > 0
}

// LayoutEngine computes memory layout for types.
type LayoutEngine struct {
	Target Target
	Types  *types.Interner

	cache *cache
}

// New creates a new LayoutEngine for the specified target.
func New(target Target, typesIn *types.Interner) *LayoutEngine {
	return &LayoutEngine{
		Target: target,
		Types:  typesIn,
		cache:  newCache(),
	}
}

// LayoutOf computes and caches the layout of a type.
func (e *LayoutEngine) LayoutOf(t types.TypeID) (TypeLayout, error) {
	if cached, ok := e.cache.get(t); ok {
		if cached.Err != nil {
			return cached.Layout, cached.Err
		}
		return cached.Layout, nil
	}
	l, err := e.computeLayout(t)
	e.cache.put(t, &cacheEntry{Layout: l, Err: err})
	if err != nil {
		return l, err
	}
	return l, nil
}

// ReprOf returns the operand representation of t; unknown types have none.
func (e *LayoutEngine) ReprOf(t types.TypeID) Repr {
	l, err := e.LayoutOf(t)
	if err != nil {
		return ReprNone
	}
	return l.Repr
}

// SlotOf returns the stored size of a value of t.
func (e *LayoutEngine) SlotOf(t types.TypeID) (int, error) {
	l, err := e.LayoutOf(t)
	return l.Slot, err
}

// FieldOffset returns the byte offset of a struct field.
func (e *LayoutEngine) FieldOffset(structT types.TypeID, fieldIdx int) (int, error) {
	l, err := e.LayoutOf(structT)
	if err != nil {
		return 0, err
	}
	if fieldIdx < 0 || fieldIdx >= len(l.FieldOffsets) {
		return 0, &LayoutError{Kind: LayoutErrUnresolvedStruct, Type: structT}
	}
	return l.FieldOffsets[fieldIdx], nil
}

func (e *LayoutEngine) computeLayout(id types.TypeID) (TypeLayout, *LayoutError) {
	tt, ok := e.Types.Lookup(id)
	if !ok {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: id}
	}
	ptr := e.Target.PtrSize
	word := e.Target.WordSize

	switch tt.Kind {
	case types.KindUnit:
		return TypeLayout{Repr: ReprNone}, nil

	case types.KindBool, types.KindInt:
		return TypeLayout{Repr: ReprI32, Slot: 4}, nil

	case types.KindU64:
		return TypeLayout{Repr: ReprI64, Slot: 8}, nil

	case types.KindString:
		// (ptr << 32) | len
		return TypeLayout{Repr: ReprI64, Slot: 8}, nil

	case types.KindReference:
		return TypeLayout{Repr: ReprI32, Slot: ptr}, nil

	case types.KindOption, types.KindResult, types.KindDynamic:
		// [tag][payload]; payload slot is wide enough for any value
		return TypeLayout{
			Repr:          ReprI32,
			Slot:          ptr,
			Size:          word + 8,
			TagSize:       word,
			PayloadOffset: word,
		}, nil

	case types.KindStruct:
		return e.structLayout(id)
	}
	return TypeLayout{}, &LayoutError{Kind: LayoutErrUnknownType, Type: id}
}

// structLayout places fields in declaration order, each on a word boundary.
func (e *LayoutEngine) structLayout(id types.TypeID) (TypeLayout, *LayoutError) {
	info, ok := e.Types.StructInfo(id)
	if !ok {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrUnresolvedStruct, Type: id}
	}
	word := e.Target.WordSize
	out := TypeLayout{Repr: ReprI32, Slot: e.Target.PtrSize}
	out.FieldOffsets = make([]int, len(info.Fields))
	offset := 0
	for i, f := range info.Fields {
		if f.Type == types.NoTypeID {
			return TypeLayout{}, &LayoutError{Kind: LayoutErrUnresolvedStruct, Type: id}
		}
		slot, err := e.fieldSlot(f.Type)
		if err != nil {
			return TypeLayout{}, &LayoutError{Kind: LayoutErrUnresolvedStruct, Type: id, Err: err}
		}
		out.FieldOffsets[i] = offset
		offset = roundUp(offset+slot, word)
	}
	if _, err := safecast.Conv[uint32](offset); err != nil {
		return TypeLayout{}, &LayoutError{Kind: LayoutErrSizeOverflow, Type: id, Err: err}
	}
	// пустая структура всё равно получает адрес
	out.Size = max(offset, word)
	return out, nil
}

// fieldSlot does not descend into struct fields: they are stored as
// pointers, so self-referential structs have a finite size.
func (e *LayoutEngine) fieldSlot(t types.TypeID) (int, error) {
	if e.Types.Kind(t) == types.KindStruct {
		return e.Target.PtrSize, nil
	}
	return e.SlotOf(t)
}

func roundUp(n, align int) int {
	if align <= 1 {
		return n
	}
	return (n + align - 1) / align * align
}
