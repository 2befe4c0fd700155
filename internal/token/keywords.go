package token

var keywords = map[string]Kind{
	"fn":     KwFn,
	"let":    KwLet,
	"mut":    KwMut,
	"if":     KwIf,
	"else":   KwElse,
	"match":  KwMatch,
	"return": KwReturn,
	"struct": KwStruct,
	"import": KwImport,
	"pub":    KwPub,
	"as":     KwAs,
	"true":   KwTrue,
	"false":  KwFalse,
	"Some":   KwSome,
	"None":   KwNone,
	"Ok":     KwOk,
	"Err":    KwErr,
}

// LookupKeyword возвращает тип и bool если это ключевое слово.
// Регистр важен: Some/None/Ok/Err пишутся с заглавной.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
