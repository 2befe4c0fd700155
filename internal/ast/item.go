package ast

import (
	"knox/internal/source"
)

type ItemKind uint8

const (
	ItemFn ItemKind = iota
	ItemStruct
	ItemImport
)

func (k ItemKind) String() string {
	switch k {
	case ItemFn:
		return "fn"
	case ItemStruct:
		return "struct"
	case ItemImport:
		return "import"
	default:
		return "item(?)"
	}
}

type Item struct {
	Kind    ItemKind
	Span    source.Span
	Payload PayloadID
}

type Items struct {
	Arena   *Arena[Item]
	Fns     *Arena[FnItem]
	Structs *Arena[StructItem]
	Imports *Arena[ImportItem]
}

// NewItems creates per-kind item arenas; capHint 0 selects 1<<7.
func NewItems(capHint uint) *Items {
	if capHint == 0 {
		capHint = 1 << 7
	}
	return &Items{
		Arena:   NewArena[Item](capHint),
		Fns:     NewArena[FnItem](capHint),
		Structs: NewArena[StructItem](capHint / 4),
		Imports: NewArena[ImportItem](capHint / 4),
	}
}

func (i *Items) new(kind ItemKind, span source.Span, payload PayloadID) ItemID {
	return ItemID(i.Arena.Allocate(Item{Kind: kind, Span: span, Payload: payload}))
}

func (i *Items) Get(id ItemID) *Item {
	return i.Arena.Get(uint32(id))
}
