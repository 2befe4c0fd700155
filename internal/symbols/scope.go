package symbols

import (
	"knox/internal/source"
	"knox/internal/types"
)

// ScopeKind enumerates supported scope categories.
type ScopeKind uint8

const (
	ScopeInvalid  ScopeKind = iota
	ScopeFunction           // function body scope
	ScopeBlock              // generic block scope
	ScopeArm                // match arm bindings
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFunction:
		return "function"
	case ScopeBlock:
		return "block"
	case ScopeArm:
		return "arm"
	default:
		return "invalid"
	}
}

// LocalID numbers bindings of one function; 0 is unused.
type LocalID uint32

const NoLocalID LocalID = 0

// Local is a parameter, let binding or pattern binding.
type Local struct {
	ID    LocalID
	Name  string
	Kind  SymbolKind
	Flags SymbolFlags
	Type  types.TypeID
	Span  source.Span
}

func (l *Local) Mutable() bool { return l.Flags&SymbolFlagMutable != 0 }

// Scope models a lexical scope with a parent chain.
type Scope struct {
	Kind   ScopeKind
	Parent *Scope
	names  map[string]*Local
}

func NewScope(kind ScopeKind, parent *Scope) *Scope {
	return &Scope{Kind: kind, Parent: parent, names: make(map[string]*Local)}
}

// Declare binds l in this scope, shadowing outer bindings of the same name.
func (s *Scope) Declare(l *Local) {
	s.names[l.Name] = l
}

// Lookup walks the parent chain.
func (s *Scope) Lookup(name string) (*Local, bool) {
	for cur := s; cur != nil; cur = cur.Parent {
		if l, ok := cur.names[name]; ok {
			return l, true
		}
	}
	return nil, false
}
