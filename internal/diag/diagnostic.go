package diag

import (
	"knox/internal/source"
)

// Note is a secondary span with its own message.
type Note struct {
	Span source.Span
	Msg  string
}

// FixEdit replaces Span with NewText.
type FixEdit struct {
	Span    source.Span
	NewText string
}

// Fix is a suggested correction made of text edits.
type Fix struct {
	Title string
	Edits []FixEdit
}

// Diagnostic is the single record every phase produces.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Notes    []Note
	Fixes    []Fix
}
