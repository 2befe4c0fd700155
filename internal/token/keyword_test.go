package token

import (
	"testing"
)

func TestLookupKeyword(t *testing.T) {
	cases := map[string]Kind{
		"fn":     KwFn,
		"let":    KwLet,
		"match":  KwMatch,
		"struct": KwStruct,
		"pub":    KwPub,
		"Some":   KwSome,
		"Err":    KwErr,
	}
	for lexeme, want := range cases {
		got, ok := LookupKeyword(lexeme)
		if !ok || got != want {
			t.Fatalf("LookupKeyword(%q) = %v,%v; want %v", lexeme, got, ok, want)
		}
	}
	for _, lexeme := range []string{"some", "FN", "int", "dynamic", "export"} {
		if _, ok := LookupKeyword(lexeme); ok {
			t.Fatalf("LookupKeyword(%q) unexpectedly ok", lexeme)
		}
	}
}

func TestKindClassification(t *testing.T) {
	if !(Token{Kind: KwErr}).IsKeyword() || (Token{Kind: LParen}).IsKeyword() {
		t.Fatal("keyword range is wrong")
	}
	if !(Token{Kind: Pipe}).IsPunctOrOp() || (Token{Kind: KwErr}).IsPunctOrOp() {
		t.Fatal("punct range is wrong")
	}
	if Arrow.String() != "->" || KwNone.String() != "None" {
		t.Fatalf("String() = %q %q", Arrow.String(), KwNone.String())
	}
}
