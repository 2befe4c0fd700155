package ast

import "knox/internal/source"

// StructField is private to its module; Accessor controls generated get/set.
type StructField struct {
	Name     string
	NameSpan source.Span
	Type     TypeID
	Accessor Accessor
	AttrSpan source.Span
	Span     source.Span
}

type StructItem struct {
	Name       string
	NameSpan   source.Span
	Visibility Visibility
	Fields     []StructField
	Span       source.Span
}

// Field returns the field named name and its index.
func (s *StructItem) Field(name string) (*StructField, int) {
	for idx := range s.Fields {
		if s.Fields[idx].Name == name {
			return &s.Fields[idx], idx
		}
	}
	return nil, -1
}

func (i *Items) NewStruct(st StructItem) ItemID {
	payload := i.Structs.Allocate(st)
	return i.new(ItemStruct, st.Span, PayloadID(payload))
}

func (i *Items) Struct(id ItemID) (*StructItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemStruct {
		return nil, false
	}
	return i.Structs.Get(uint32(item.Payload)), true
}
