package ast

import "knox/internal/source"

type FnParam struct {
	Name     string
	NameSpan source.Span
	Type     TypeID
	Span     source.Span
}

// FnItem - объявление функции. Методы - это функции с первым параметром self.
type FnItem struct {
	Name       string
	NameSpan   source.Span
	Visibility Visibility
	Params     []FnParam
	Result     TypeID // NoTypeID означает ()
	Body       ExprID // ExprBlock
	// Generated marks accessors synthesized by the desugarer.
	Generated bool
	// Owner and Field name the struct field an accessor was generated for.
	Owner string
	Field string
	Span  source.Span
}

// IsMethod reports whether the first parameter is self.
func (f *FnItem) IsMethod() bool {
	return len(f.Params) > 0 && f.Params[0].Name == "self"
}

func (i *Items) NewFn(fn FnItem) ItemID {
	payload := i.Fns.Allocate(fn)
	return i.new(ItemFn, fn.Span, PayloadID(payload))
}

func (i *Items) Fn(id ItemID) (*FnItem, bool) {
	item := i.Get(id)
	if item == nil || item.Kind != ItemFn {
		return nil, false
	}
	return i.Fns.Get(uint32(item.Payload)), true
}
