package types

import (
	"fmt"
	"strings"
	"sync"

	"fortio.org/safecast"
)

// Builtins stores TypeIDs for common primitive types.
type Builtins struct {
	Invalid TypeID
	Unit    TypeID
	Bool    TypeID
	Int     TypeID
	U64     TypeID
	String  TypeID
	Dynamic TypeID
}

// Interner provides stable TypeIDs by hashing structural descriptors.
// One interner serves a whole program; function bodies are checked in
// parallel, so every method is safe for concurrent use.
type Interner struct {
	mu       sync.RWMutex
	types    []Type
	index    map[typeKey]TypeID
	builtins Builtins
	structs  []StructInfo
}

// NewInterner constructs an interner seeded with built-in primitives.
func NewInterner() *Interner {
	in := &Interner{
		index: make(map[typeKey]TypeID, 64),
	}
	in.structs = append(in.structs, StructInfo{}) // reserve 0 as invalid sentinel
	in.builtins.Invalid = in.internRaw(Type{Kind: KindInvalid})
	in.builtins.Unit = in.Intern(Type{Kind: KindUnit})
	in.builtins.Bool = in.Intern(Type{Kind: KindBool})
	in.builtins.Int = in.Intern(Type{Kind: KindInt})
	in.builtins.U64 = in.Intern(Type{Kind: KindU64})
	in.builtins.String = in.Intern(Type{Kind: KindString})
	in.builtins.Dynamic = in.Intern(Type{Kind: KindDynamic})
	return in
}

// Builtins returns TypeIDs for primitive types.
func (in *Interner) Builtins() Builtins {
	return in.builtins
}

// Intern ensures the provided descriptor has a stable TypeID.
func (in *Interner) Intern(t Type) TypeID {
	if t.Kind == KindInvalid {
		return NoTypeID
	}
	key := typeKey(t)
	in.mu.RLock()
	id, ok := in.index[key]
	in.mu.RUnlock()
	if ok {
		return id
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[key]; ok {
		return id
	}
	return in.internLocked(t)
}

// internRaw adds the descriptor without consulting the map.
func (in *Interner) internRaw(t Type) TypeID {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.internLocked(t)
}

func (in *Interner) internLocked(t Type) TypeID {
	lenTypes, err := safecast.Conv[uint32](len(in.types))
	if err != nil {
		panic(fmt.Errorf("len(types) overflow: %w", err))
	}
	id := TypeID(lenTypes)
	in.types = append(in.types, t)
	in.index[typeKey(t)] = id
	return id
}

// Lookup returns the descriptor for a TypeID.
func (in *Interner) Lookup(id TypeID) (Type, bool) {
	in.mu.RLock()
	defer in.mu.RUnlock()
	if id == NoTypeID || int(id) >= len(in.types) {
		return Type{}, false
	}
	return in.types[id], true
}

// MustLookup panics when id is invalid.
func (in *Interner) MustLookup(id TypeID) Type {
	tt, ok := in.Lookup(id)
	if !ok {
		panic("types: invalid TypeID")
	}
	return tt
}

// Kind returns the kind of id, KindInvalid for unknown ids.
func (in *Interner) Kind(id TypeID) Kind {
	tt, _ := in.Lookup(id)
	return tt.Kind
}

func (in *Interner) Option(elem TypeID) TypeID { return in.Intern(MakeOption(elem)) }

func (in *Interner) Result(ok, err TypeID) TypeID { return in.Intern(MakeResult(ok, err)) }

func (in *Interner) Ref(elem TypeID, mutable bool) TypeID {
	return in.Intern(MakeReference(elem, mutable))
}

// Deref strips every reference layer.
func (in *Interner) Deref(id TypeID) TypeID {
	for {
		tt, ok := in.Lookup(id)
		if !ok || tt.Kind != KindReference {
			return id
		}
		id = tt.Elem
	}
}

// String renders a type the way it is written in source.
func (in *Interner) String(id TypeID) string {
	var sb strings.Builder
	in.write(&sb, id, false)
	return sb.String()
}

// Canonical renders a type with module-qualified struct names. Unlike
// TypeIDs it does not depend on the order types were interned in.
func (in *Interner) Canonical(id TypeID) string {
	var sb strings.Builder
	in.write(&sb, id, true)
	return sb.String()
}

func (in *Interner) write(sb *strings.Builder, id TypeID, qualified bool) {
	tt, ok := in.Lookup(id)
	if !ok {
		sb.WriteString("<invalid>")
		return
	}
	switch tt.Kind {
	case KindUnit:
		sb.WriteString("()")
	case KindBool, KindInt, KindU64, KindString, KindDynamic:
		sb.WriteString(tt.Kind.String())
	case KindStruct:
		if info, ok := in.StructInfo(id); ok && qualified {
			sb.WriteString(info.Qualified())
		} else if ok {
			sb.WriteString(info.Name)
		} else {
			sb.WriteString("<struct>")
		}
	case KindOption:
		sb.WriteString("Option[")
		in.write(sb, tt.Elem, qualified)
		sb.WriteByte(']')
	case KindResult:
		sb.WriteString("Result[")
		in.write(sb, tt.Elem, qualified)
		sb.WriteString(", ")
		in.write(sb, tt.Err, qualified)
		sb.WriteByte(']')
	case KindReference:
		sb.WriteByte('&')
		if tt.Mutable {
			sb.WriteString("mut ")
		}
		in.write(sb, tt.Elem, qualified)
	default:
		sb.WriteString("<invalid>")
	}
}

type typeKey struct {
	Kind    Kind
	Elem    TypeID
	Err     TypeID
	Mutable bool
	Payload uint32
}
