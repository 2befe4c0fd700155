package layout_test

import (
	"errors"
	"testing"

	"knox/internal/layout"
	"knox/internal/types"
)

func TestScalarLayouts(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	e := layout.New(layout.Wasm32(), in)
	tests := []struct {
		id   types.TypeID
		repr layout.Repr
		slot int
	}{
		{b.Unit, layout.ReprNone, 0},
		{b.Bool, layout.ReprI32, 4},
		{b.Int, layout.ReprI32, 4},
		{b.U64, layout.ReprI64, 8},
		{b.String, layout.ReprI64, 8},
		{in.Ref(b.String, true), layout.ReprI32, 4},
		{b.Dynamic, layout.ReprI32, 4},
	}
	for _, tt := range tests {
		l, err := e.LayoutOf(tt.id)
		if err != nil {
			t.Fatalf("%s: %v", in.String(tt.id), err)
		}
		if l.Repr != tt.repr || l.Slot != tt.slot {
			t.Errorf("%s: repr=%s slot=%d, want %s %d", in.String(tt.id), l.Repr, l.Slot, tt.repr, tt.slot)
		}
	}
}

func TestTaggedLayout(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	e := layout.New(layout.Wasm32(), in)
	for _, id := range []types.TypeID{in.Option(b.U64), in.Result(b.Int, b.String), b.Dynamic} {
		l, err := e.LayoutOf(id)
		if err != nil {
			t.Fatal(err)
		}
		if !l.Boxed() || l.Size != 12 || l.TagSize != 4 || l.PayloadOffset != 4 {
			t.Errorf("%s: %+v", in.String(id), l)
		}
	}
}

func TestStructFieldsInDeclarationOrder(t *testing.T) {
	in := types.NewInterner()
	b := in.Builtins()
	inner := in.RegisterStruct(types.StructInfo{Name: "Inner"})
	in.SetStructFields(inner, nil)
	user := in.RegisterStruct(types.StructInfo{Name: "User"})
	in.SetStructFields(user, []types.StructField{
		{Name: "age", Type: b.Int},
		{Name: "name", Type: b.String},
		{Name: "ok", Type: b.Bool},
		{Name: "inner", Type: inner},
		{Name: "big", Type: b.U64},
	})
	e := layout.New(layout.Wasm32(), in)
	l, err := e.LayoutOf(user)
	if err != nil {
		t.Fatal(err)
	}
	want := []int{0, 4, 12, 16, 20}
	for i, off := range want {
		if l.FieldOffsets[i] != off {
			t.Fatalf("offsets = %v, want %v", l.FieldOffsets, want)
		}
	}
	if l.Size != 28 {
		t.Fatalf("size = %d, want 28", l.Size)
	}
	if off, err := e.FieldOffset(user, 1); err != nil || off != 4 {
		t.Fatalf("FieldOffset = %d, %v", off, err)
	}

	empty, err := e.LayoutOf(inner)
	if err != nil || empty.Size != 4 || len(empty.FieldOffsets) != 0 {
		t.Fatalf("empty struct layout = %+v, %v", empty, err)
	}
}

func TestSelfReferentialStructThroughOption(t *testing.T) {
	in := types.NewInterner()
	node := in.RegisterStruct(types.StructInfo{Name: "Node"})
	in.SetStructFields(node, []types.StructField{
		{Name: "next", Type: in.Option(node)},
		{Name: "self_", Type: node},
	})
	l, err := layout.New(layout.Wasm32(), in).LayoutOf(node)
	if err != nil {
		t.Fatal(err)
	}
	if l.Size != 8 {
		t.Fatalf("size = %d, want 8", l.Size)
	}
}

func TestUnknownTypeIsAnError(t *testing.T) {
	in := types.NewInterner()
	e := layout.New(layout.Wasm32(), in)
	_, err := e.LayoutOf(types.NoTypeID)
	var le *layout.LayoutError
	if !errors.As(err, &le) || le.Kind != layout.LayoutErrUnknownType {
		t.Fatalf("err = %v", err)
	}
	// второй раз из кэша
	if _, err := e.LayoutOf(types.NoTypeID); err == nil {
		t.Fatal("cached error lost")
	}
	if e.ReprOf(types.NoTypeID) != layout.ReprNone {
		t.Fatal("unknown type must have no repr")
	}
}

func TestUnresolvedFieldIsAnError(t *testing.T) {
	in := types.NewInterner()
	s := in.RegisterStruct(types.StructInfo{Name: "S", Fields: []types.StructField{{Name: "x"}}})
	if _, err := layout.New(layout.Wasm32(), in).LayoutOf(s); err == nil {
		t.Fatal("expected an error for a field without type")
	}
}
