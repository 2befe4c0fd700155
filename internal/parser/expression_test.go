package parser

import (
	"testing"

	"knox/internal/diag"
)

func TestExpressionPrecedence(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1 + 2 * 3", "(1 + (2 * 3))"},
		{"1 * 2 + 3", "((1 * 2) + 3)"},
		{"1 - 2 - 3", "((1 - 2) - 3)"},
		{"a || b && c", "(a || (b && c))"},
		{"a == b < c", "(a == (b < c))"},
		{"a < b + 1", "(a < (b + 1))"},
		{"-a * b", "((-a) * b)"},
		{"!a && b", "((!a) && b)"},
		{"*r + 1", "((*r) + 1)"},
		{"&mut x", "(&mut x)"},
		{"f(1, 2)?", "f(1, 2)?"},
		{"u.name().len", "u.name().len"},
		{"m::f(x) % 2", "(m::f(x) % 2)"},
		{"(1 + 2) * 3", "((1 + 2) * 3)"},
		{"Some(1 + 2)", "Some((1 + 2))"},
		{"Ok(())", "Ok(())"},
		{"None", "None"},
		{`"a" + "b"`, `("a" + "b")`},
		{"auth::User { name: n, age: 3 }", "auth::User { name: n, age: 3 }"},
		{"if a { 1 } else if b { 2 } else { 3 }", "if a { 1 } else if b { 2 } else { 3 }"},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := parseOK(t, "fn f() -> int { "+tt.src+" }")
			if got := p.bodyTail(t, 0); got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStructLiteralNotInCondition(t *testing.T) {
	p := parseOK(t, "fn f() -> int { if ready { 1 } else { 2 } }")
	if got := p.bodyTail(t, 0); got != "if ready { 1 } else { 2 }" {
		t.Fatalf("got %s", got)
	}
	p = parseOK(t, "fn f() -> int { match s { _ => 1 } }")
	if got := p.bodyTail(t, 0); got != "match s { _ => 1 }" {
		t.Fatalf("got %s", got)
	}
	// в скобках struct literal снова разрешён
	p = parseOK(t, "fn f() -> bool { if (P { x: 1 }).ok() { true } else { false } }")
	if got := p.bodyTail(t, 0); got != "if P { x: 1 }.ok() { true } else { false }" {
		t.Fatalf("got %s", got)
	}
}

func TestStatements(t *testing.T) {
	p := parseOK(t, `fn f() -> () {
	let x = 1;
	let mut y: u64 = 2;
	y = y + 1;
	*r = 5;
	u.age = 3;
	print("hi");
	return;
}`)
	want := `{ let x = 1; let mut y: u64 = 2; y = (y + 1); (*r) = 5; u.age = 3; print("hi"); return; }`
	if got := p.b.FormatExpr(p.fn(t, 0).Body); got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

func TestMissingSemicolonHasFix(t *testing.T) {
	p := parseSrc(t, "fn f() -> () { let x = 1 print(x); }")
	items := p.bag.Items()
	if len(items) == 0 || items[0].Code != diag.SynExpectSemicolon {
		t.Fatalf("diagnostics = %s", diagnosticsSummary(p.bag))
	}
	fixes := items[0].Fixes
	if len(fixes) != 1 || fixes[0].Edits[0].NewText != ";" {
		t.Fatalf("fixes = %+v", fixes)
	}
	if fixes[0].Edits[0].Span.Start != 24 {
		t.Fatalf("fix inserts at %d, want right after the literal", fixes[0].Edits[0].Span.Start)
	}
}

func TestExpressionWithoutSemicolonMidBlock(t *testing.T) {
	p := parseSrc(t, "fn f() -> () { g() h(); }")
	got := codes(p.bag)
	if len(got) != 1 || got[0] != diag.SynExpectSemicolon {
		t.Fatalf("codes = %v (%s)", got, diagnosticsSummary(p.bag))
	}
}

func TestBadAssignTarget(t *testing.T) {
	p := parseSrc(t, "fn f() -> () { f() = 1; let ok = 2; }")
	got := codes(p.bag)
	if len(got) != 1 || got[0] != diag.SynBadAssignTarget {
		t.Fatalf("codes = %v", got)
	}
}

func TestUnclosedBlockNote(t *testing.T) {
	p := parseSrc(t, "fn f() -> () { let x = 1;\nfn g() -> () {}")
	items := p.bag.Items()
	if len(items) != 1 || items[0].Code != diag.SynUnclosedBrace || len(items[0].Notes) != 1 {
		t.Fatalf("diagnostics = %+v", items)
	}
	if len(p.items()) != 1 {
		t.Fatalf("g must still be parsed")
	}
}
