package lexer

import "knox/internal/diag"

// Options configure a Lexer.
type Options struct {
	// Reporter receives lexical diagnostics; nil discards them.
	Reporter diag.Reporter
	// KeepTrivia attaches comments to the following token as Leading trivia.
	KeepTrivia bool
}
