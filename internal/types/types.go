package types

import "fmt"

// TypeID uniquely identifies a type inside the interner.
type TypeID uint32

// NoTypeID marks the absence of a type.
const NoTypeID TypeID = 0

// Kind enumerates all supported kinds of types.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindUnit
	KindBool
	KindInt
	KindU64
	KindString
	KindDynamic
	KindStruct
	KindOption
	KindResult
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindU64:
		return "u64"
	case KindString:
		return "string"
	case KindDynamic:
		return "dynamic"
	case KindStruct:
		return "struct"
	case KindOption:
		return "option"
	case KindResult:
		return "result"
	case KindReference:
		return "reference"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a compact descriptor for any supported type.
type Type struct {
	Kind    Kind
	Elem    TypeID // Option/Result value, reference target
	Err     TypeID // Result error
	Mutable bool   // for references
	Payload uint32 // struct slot
}

// MakeOption describes Option[elem].
func MakeOption(elem TypeID) Type {
	return Type{Kind: KindOption, Elem: elem}
}

// MakeResult describes Result[ok, err].
func MakeResult(ok, err TypeID) Type {
	return Type{Kind: KindResult, Elem: ok, Err: err}
}

// MakeReference describes &T or &mut T depending on the mutable flag.
func MakeReference(elem TypeID, mutable bool) Type {
	return Type{Kind: KindReference, Elem: elem, Mutable: mutable}
}

// IsPrimitive reports scalar builtin kinds.
func (k Kind) IsPrimitive() bool {
	switch k {
	case KindUnit, KindBool, KindInt, KindU64, KindString:
		return true
	}
	return false
}

// IsInteger reports int and u64.
func (k Kind) IsInteger() bool {
	return k == KindInt || k == KindU64
}
