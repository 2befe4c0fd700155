package layout

import (
	"fmt"

	"knox/internal/types"
)

// LayoutErrorKind enumerates types of layout calculation errors.
type LayoutErrorKind uint8

const (
	// LayoutErrUnknownType: the id is not interned or is NoTypeID.
	LayoutErrUnknownType LayoutErrorKind = iota + 1
	// LayoutErrUnresolvedStruct: struct fields were never resolved.
	LayoutErrUnresolvedStruct
	LayoutErrSizeOverflow
)

// LayoutError represents an error during memory layout calculation.
// Any of them means an earlier phase let a broken type through.
type LayoutError struct {
	Kind LayoutErrorKind
	Type types.TypeID
	Err  error // for LayoutErrSizeOverflow
}

func (e *LayoutError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case LayoutErrUnknownType:
		return fmt.Sprintf("no layout for unknown type#%d", e.Type)
	case LayoutErrUnresolvedStruct:
		return fmt.Sprintf("struct type#%d has unresolved fields", e.Type)
	case LayoutErrSizeOverflow:
		if e.Err != nil {
			return fmt.Sprintf("size of type#%d overflows: %v", e.Type, e.Err)
		}
		return fmt.Sprintf("size of type#%d overflows", e.Type)
	default:
		return fmt.Sprintf("layout error kind=%d type#%d", e.Kind, e.Type)
	}
}

func (e *LayoutError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
