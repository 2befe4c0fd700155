package types

import (
	"fmt"
	"slices"

	"fortio.org/safecast"

	"knox/internal/project"
	"knox/internal/source"
)

// StructField describes a single field inside a nominal struct type.
type StructField struct {
	Name string
	Type TypeID
	Span source.Span
}

// StructInfo stores metadata for a struct type. Two structs with the same
// name in different modules are different types.
type StructInfo struct {
	Name   string
	Module project.ModuleID
	Public bool
	Decl   source.Span
	Fields []StructField
}

// Qualified renders module::Name.
func (s *StructInfo) Qualified() string {
	return s.Module.String() + "::" + s.Name
}

// Field returns the field named name and its index.
func (s *StructInfo) Field(name string) (StructField, int, bool) {
	for i, f := range s.Fields {
		if f.Name == name {
			return f, i, true
		}
	}
	return StructField{}, -1, false
}

// RegisterStruct allocates a nominal struct type slot and returns its TypeID.
func (in *Interner) RegisterStruct(info StructInfo) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	slot, err := safecast.Conv[uint32](len(in.structs))
	if err != nil {
		panic(fmt.Errorf("struct info overflow: %w", err))
	}
	info.Fields = slices.Clone(info.Fields)
	in.structs = append(in.structs, info)
	return in.internLocked(Type{Kind: KindStruct, Payload: slot})
}

// SetStructFields stores the resolved field descriptors for the struct type.
func (in *Interner) SetStructFields(typeID TypeID, fields []StructField) {
	in.mu.Lock()
	defer in.mu.Unlock()
	info := in.structInfoLocked(typeID)
	if info == nil {
		return
	}
	info.Fields = slices.Clone(fields)
}

// StructInfo returns metadata for the provided struct TypeID.
// The returned value is a copy.
func (in *Interner) StructInfo(typeID TypeID) (*StructInfo, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	info := in.structInfoLocked(typeID)
	if info == nil {
		return nil, false
	}
	out := *info
	out.Fields = slices.Clone(info.Fields)
	return &out, true
}

func (in *Interner) structInfoLocked(typeID TypeID) *StructInfo {
	if typeID == NoTypeID || int(typeID) >= len(in.types) {
		return nil
	}
	tt := in.types[typeID]
	if tt.Kind != KindStruct || tt.Payload == 0 || int(tt.Payload) >= len(in.structs) {
		return nil
	}
	return &in.structs[tt.Payload]
}

// Structs returns every registered struct TypeID in registration order.
func (in *Interner) Structs() []TypeID {
	in.mu.RLock()
	defer in.mu.RUnlock()
	var out []TypeID
	for id, tt := range in.types {
		if tt.Kind == KindStruct {
			out = append(out, TypeID(id))
		}
	}
	return out
}
