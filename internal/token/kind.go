package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	Ident
	IntLit
	StringLit

	KwFn
	KwLet
	KwMut
	KwIf
	KwElse
	KwMatch
	KwReturn
	KwStruct
	KwImport
	KwPub
	KwAs
	KwTrue
	KwFalse
	KwSome
	KwNone
	KwOk
	KwErr

	LParen     // (
	RParen     // )
	LBrace     // {
	RBrace     // }
	LBracket   // [
	RBracket   // ]
	Comma      // ,
	Colon      // :
	ColonColon // ::
	Semicolon  // ;
	Dot        // .
	Arrow      // ->
	FatArrow   // =>
	At         // @
	Question   // ?
	Underscore

	Assign  // =
	EqEq    // ==
	BangEq  // !=
	Lt      // <
	LtEq    // <=
	Gt      // >
	GtEq    // >=
	Plus    // +
	Minus   // -
	Star    // *
	Slash   // /
	Percent // %
	Bang    // !
	Amp     // &
	AndAnd  // &&
	OrOr    // ||
	Pipe    // |
)

var kindNames = [...]string{
	Invalid:    "Invalid",
	EOF:        "EOF",
	Ident:      "Ident",
	IntLit:     "IntLit",
	StringLit:  "StringLit",
	KwFn:       "fn",
	KwLet:      "let",
	KwMut:      "mut",
	KwIf:       "if",
	KwElse:     "else",
	KwMatch:    "match",
	KwReturn:   "return",
	KwStruct:   "struct",
	KwImport:   "import",
	KwPub:      "pub",
	KwAs:       "as",
	KwTrue:     "true",
	KwFalse:    "false",
	KwSome:     "Some",
	KwNone:     "None",
	KwOk:       "Ok",
	KwErr:      "Err",
	LParen:     "(",
	RParen:     ")",
	LBrace:     "{",
	RBrace:     "}",
	LBracket:   "[",
	RBracket:   "]",
	Comma:      ",",
	Colon:      ":",
	ColonColon: "::",
	Semicolon:  ";",
	Dot:        ".",
	Arrow:      "->",
	FatArrow:   "=>",
	At:         "@",
	Question:   "?",
	Underscore: "_",
	Assign:     "=",
	EqEq:       "==",
	BangEq:     "!=",
	Lt:         "<",
	LtEq:       "<=",
	Gt:         ">",
	GtEq:       ">=",
	Plus:       "+",
	Minus:      "-",
	Star:       "*",
	Slash:      "/",
	Percent:    "%",
	Bang:       "!",
	Amp:        "&",
	AndAnd:     "&&",
	OrOr:       "||",
	Pipe:       "|",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "Kind(?)"
}
