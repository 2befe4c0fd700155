package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedBlockComment Code = 1003
	LexBadNumber                Code = 1004
	LexBadEscape                Code = 1005

	// Синтаксис
	SynUnexpectedToken   Code = 2001
	SynExpectIdentifier  Code = 2002
	SynExpectSemicolon   Code = 2003
	SynExpectType        Code = 2004
	SynExpectExpression  Code = 2005
	SynUnclosedParen     Code = 2006
	SynUnclosedBrace     Code = 2007
	SynUnclosedBracket   Code = 2008
	SynBadAttribute      Code = 2009
	SynBadAssignTarget   Code = 2010
	SynExpectPattern     Code = 2011
	SynExpectItem        Code = 2012
	SynTooManyErrors     Code = 2013
	SynBadImport         Code = 2014
	SynDuplicateAccessor Code = 2015

	// Десахаризация
	DesugarAccessorConflict Code = 2501

	// Разрешение модулей
	ResolveModuleNotFound     Code = 3001
	ResolveCrossPackageCycle  Code = 3002
	ResolveReadFailed         Code = 3003
	ResolveDuplicateImport    Code = 3004
	ResolveUnknownDependency  Code = 3005
	ResolveBadDependencyEntry Code = 3006

	// Видимость
	VisNotExported   Code = 3101
	VisPrivateField  Code = 3102
	VisPrivateMethod Code = 3103

	// Семантика
	SemaUnknownName            Code = 3201
	SemaUnknownType            Code = 3202
	SemaTypeMismatch           Code = 3203
	SemaArgCount               Code = 3204
	SemaNotCallable            Code = 3205
	SemaUnknownMethod          Code = 3206
	SemaImportNotFound         Code = 3207
	SemaNonExhaustiveMatch     Code = 3208
	SemaDynamicUse             Code = 3209
	SemaPropagateOutsideResult Code = 3210
	SemaPropagateErrMismatch   Code = 3211
	SemaPropagateNonResult     Code = 3212
	SemaAssignImmutable        Code = 3213
	SemaMutRefOfImmutable      Code = 3214
	SemaDerefNonRef            Code = 3215
	SemaNoMain                 Code = 3216
	SemaBadMainSignature       Code = 3217
	SemaDuplicateDecl          Code = 3218
	SemaConstructorContext     Code = 3219
	SemaMissingReturn          Code = 3220
	SemaDerefAssignImmutable   Code = 3221
	SemaBadOperand             Code = 3222
	SemaStructLiteral          Code = 3223
	SemaBadPattern             Code = 3224
	SemaUnknownField           Code = 3225
	SemaRefOfNonPlace          Code = 3226
)

var codeDescription = map[Code]string{
	UnknownCode: "Unknown error",

	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed or out of range number",
	LexBadEscape:                "Invalid escape sequence",

	SynUnexpectedToken:   "Unexpected token",
	SynExpectIdentifier:  "Expected identifier",
	SynExpectSemicolon:   "Expected ';'",
	SynExpectType:        "Expected type",
	SynExpectExpression:  "Expected expression",
	SynUnclosedParen:     "Unclosed parenthesis",
	SynUnclosedBrace:     "Unclosed brace",
	SynUnclosedBracket:   "Unclosed bracket",
	SynBadAttribute:      "Malformed field attribute",
	SynBadAssignTarget:   "Invalid assignment target",
	SynExpectPattern:     "Expected pattern",
	SynExpectItem:        "Expected item",
	SynTooManyErrors:     "Too many syntax errors",
	SynBadImport:         "Malformed import",
	SynDuplicateAccessor: "Duplicate accessor directive",

	DesugarAccessorConflict: "Method conflicts with generated accessor",

	ResolveModuleNotFound:     "Module not found",
	ResolveCrossPackageCycle:  "Import cycle between packages",
	ResolveReadFailed:         "Module could not be read",
	ResolveDuplicateImport:    "Name imported twice",
	ResolveUnknownDependency:  "Unknown dependency",
	ResolveBadDependencyEntry: "Dependency has no entry module",

	VisNotExported:   "Name is not exported",
	VisPrivateField:  "Field is private",
	VisPrivateMethod: "Method is not exported",

	SemaUnknownName:            "Unknown name",
	SemaUnknownType:            "Unknown type",
	SemaTypeMismatch:           "Type mismatch",
	SemaArgCount:               "Wrong number of arguments",
	SemaNotCallable:            "Value is not callable",
	SemaUnknownMethod:          "Unknown method",
	SemaImportNotFound:         "Imported name not found",
	SemaNonExhaustiveMatch:     "Non-exhaustive match",
	SemaDynamicUse:             "Dynamic value used as a typed value",
	SemaPropagateOutsideResult: "'?' outside a Result-returning function",
	SemaPropagateErrMismatch:   "'?' error type mismatch",
	SemaPropagateNonResult:     "'?' applied to a non-Result value",
	SemaAssignImmutable:        "Assignment to immutable binding",
	SemaMutRefOfImmutable:      "Mutable reference to immutable binding",
	SemaDerefNonRef:            "Dereference of a non-reference",
	SemaNoMain:                 "Missing main function",
	SemaBadMainSignature:       "Invalid main signature",
	SemaDuplicateDecl:          "Duplicate declaration",
	SemaConstructorContext:     "Constructor needs a known type",
	SemaMissingReturn:          "Missing return value",
	SemaDerefAssignImmutable:   "Assignment through a shared reference",
	SemaBadOperand:             "Invalid operand type",
	SemaStructLiteral:          "Invalid struct literal",
	SemaBadPattern:             "Invalid pattern",
	SemaUnknownField:           "Unknown field",
	SemaRefOfNonPlace:          "Reference to a temporary",
}

// ID returns the stable textual identifier, e.g. SEM3203.
func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 2500:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 2500 && ic < 3000:
		return fmt.Sprintf("DSG%04d", ic)
	case ic >= 3000 && ic < 3100:
		return fmt.Sprintf("RES%04d", ic)
	case ic >= 3100 && ic < 3200:
		return fmt.Sprintf("VIS%04d", ic)
	case ic >= 3200 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
