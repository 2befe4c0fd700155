package symbols

import (
	"knox/internal/ast"
	"knox/internal/project"
	"knox/internal/source"
	"knox/internal/types"
)

// SymbolKind classifies the semantic meaning of a symbol.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolModule
	SymbolFunction
	SymbolStruct
	SymbolLet
	SymbolParam
)

func (k SymbolKind) String() string {
	switch k {
	case SymbolModule:
		return "module"
	case SymbolFunction:
		return "function"
	case SymbolStruct:
		return "struct"
	case SymbolLet:
		return "let"
	case SymbolParam:
		return "param"
	default:
		return "invalid"
	}
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	SymbolFlagPublic SymbolFlags = 1 << iota
	SymbolFlagMutable
	SymbolFlagImported
	SymbolFlagBuiltin
	SymbolFlagGenerated
	SymbolFlagMethod
)

// Strings returns a slice of textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	if f&SymbolFlagPublic != 0 {
		labels = append(labels, "public")
	}
	if f&SymbolFlagMutable != 0 {
		labels = append(labels, "mutable")
	}
	if f&SymbolFlagImported != 0 {
		labels = append(labels, "imported")
	}
	if f&SymbolFlagBuiltin != 0 {
		labels = append(labels, "builtin")
	}
	if f&SymbolFlagGenerated != 0 {
		labels = append(labels, "generated")
	}
	if f&SymbolFlagMethod != 0 {
		labels = append(labels, "method")
	}
	return labels
}

// ReceiverKind is how a method takes self.
type ReceiverKind uint8

const (
	ReceiverNone ReceiverKind = iota
	ReceiverValue
	ReceiverRef
	ReceiverMutRef
)

// FunctionSignature is the resolved type of a function. For methods Params
// starts with the receiver.
type FunctionSignature struct {
	Params     []types.TypeID
	ParamNames []string
	Result     types.TypeID
}

// Function is one declared fn, free or method, hand-written or generated.
type Function struct {
	Name     string
	Module   project.ModuleID
	Item     ast.ItemID
	Span     source.Span // имя в объявлении
	Flags    SymbolFlags
	Sig      FunctionSignature
	Owner    types.TypeID // struct for methods
	Receiver ReceiverKind
	// Field names the struct field of a generated accessor.
	Field string
	// Symbol is a flat name unique in the program: module_fn or module_Struct_method.
	Symbol string
}

func (f *Function) Public() bool    { return f.Flags&SymbolFlagPublic != 0 }
func (f *Function) IsMethod() bool  { return f.Flags&SymbolFlagMethod != 0 }
func (f *Function) Generated() bool { return f.Flags&SymbolFlagGenerated != 0 }
func (f *Function) Builtin() bool   { return f.Flags&SymbolFlagBuiltin != 0 }

// Struct is one declared struct with its methods.
type Struct struct {
	Name   string
	Module project.ModuleID
	Item   ast.ItemID
	Span   source.Span
	Flags  SymbolFlags
	Type   types.TypeID
	// Methods are keyed by name; MethodOrder keeps declaration order.
	Methods     map[string]*Function
	MethodOrder []string
}

func (s *Struct) Public() bool { return s.Flags&SymbolFlagPublic != 0 }

// Method returns the method named name.
func (s *Struct) Method(name string) (*Function, bool) {
	fn, ok := s.Methods[name]
	return fn, ok
}

// AddMethod registers fn; false when the name is taken.
func (s *Struct) AddMethod(fn *Function) bool {
	if _, dup := s.Methods[fn.Name]; dup {
		return false
	}
	if s.Methods == nil {
		s.Methods = make(map[string]*Function)
	}
	s.Methods[fn.Name] = fn
	s.MethodOrder = append(s.MethodOrder, fn.Name)
	return true
}
