package ast

// Visibility описывает доступность элемента вне модуля.
type Visibility uint8

const (
	VisPrivate Visibility = iota
	VisPublic
)

func (v Visibility) String() string {
	switch v {
	case VisPublic:
		return "pub"
	default:
		return "private"
	}
}

// Accessor is the @pub(...) directive on a struct field.
type Accessor uint8

const (
	AccessorNone Accessor = 0
	AccessorGet  Accessor = 1 << 0
	AccessorSet  Accessor = 1 << 1
)

func (a Accessor) HasGet() bool { return a&AccessorGet != 0 }
func (a Accessor) HasSet() bool { return a&AccessorSet != 0 }

func (a Accessor) String() string {
	switch a {
	case AccessorGet:
		return "@pub(get)"
	case AccessorSet:
		return "@pub(set)"
	case AccessorGet | AccessorSet:
		return "@pub(get, set)"
	default:
		return ""
	}
}
