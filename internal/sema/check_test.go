package sema_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knox/internal/diag"
	"knox/internal/driver"
	"knox/internal/project"
	"knox/internal/sema"
	"knox/internal/symbols"
	"knox/internal/types"
)

const appRoot = "/app"

func checkFiles(t *testing.T, files map[string]string) (*driver.ModuleGraph, *sema.Result) {
	t.Helper()
	p := driver.NewMemProvider()
	for rel, src := range files {
		p.Add(appRoot, rel, src)
	}
	ctx := context.Background()
	g, err := driver.Resolve(ctx, driver.ResolveOptions{Root: appRoot, Provider: p, Jobs: 4})
	require.NoError(t, err)
	res, err := driver.Check(ctx, g, driver.CheckOptions{Jobs: 4})
	require.NoError(t, err)
	return g, res
}

func checkMain(t *testing.T, src string) (*driver.ModuleGraph, *sema.Result) {
	t.Helper()
	return checkFiles(t, map[string]string{"src/main.kx": src})
}

func codesOf(g *driver.ModuleGraph) []diag.Code {
	var out []diag.Code
	for _, d := range g.Diagnostics(0).Items() {
		out = append(out, d.Code)
	}
	return out
}

func count(codes []diag.Code, c diag.Code) int {
	n := 0
	for _, x := range codes {
		if x == c {
			n++
		}
	}
	return n
}

func TestCheckGreet(t *testing.T) {
	g, res := checkFiles(t, map[string]string{
		"src/main.kx":  "import greet::greet;\nfn main() -> () { print(greet(\"knox\")); }\n",
		"src/greet.kx": "pub fn greet(name: string) -> string { return name; }\n",
	})
	assert.Empty(t, codesOf(g))
	require.NotNil(t, res.Main)
	assert.Equal(t, "main", res.Main.Name)
	assert.Equal(t, project.EntryModule, res.Entry)

	info := res.Module(project.EntryModule)
	require.NotNil(t, info)
	var callees []string
	for _, fn := range info.Calls {
		callees = append(callees, fn.Name)
	}
	assert.ElementsMatch(t, []string{"print", "greet"}, callees)
}

func TestCheckDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"mismatch", `fn main() -> () { let x: string = 1; }`, diag.SemaTypeMismatch},
		{"int overflow", `fn main() -> () { let x = 5000000000; }`, diag.SemaTypeMismatch},
		{"unknown name", `fn main() -> () { print(x); }`, diag.SemaUnknownName},
		{"unknown fn", `fn main() -> () { nothing(); }`, diag.SemaUnknownName},
		{"unknown type", `fn f(x: Nope) -> () {} fn main() -> () {}`, diag.SemaUnknownType},
		{"arg count", `fn f(a: int) -> int { return a; } fn main() -> () { f(1, 2); }`, diag.SemaArgCount},
		{"not callable", `fn main() -> () { let x = 1; x(); }`, diag.SemaNotCallable},
		{"negate bool", `fn main() -> () { let b = -true; }`, diag.SemaBadOperand},
		{"string plus", `fn main() -> () { let s = "a" + "b"; }`, diag.SemaBadOperand},
		{"missing return", `fn f() -> int { let x = 1; } fn main() -> () {}`, diag.SemaMissingReturn},
		{"return unit", `fn f() -> int { return; } fn main() -> () {}`, diag.SemaTypeMismatch},
		{"assign immutable", `fn main() -> () { let x = 1; x = 2; }`, diag.SemaAssignImmutable},
		{"assign param", `fn f(x: int) -> () { x = 2; } fn main() -> () {}`, diag.SemaAssignImmutable},
		{"mut ref of immutable", `fn main() -> () { let x = 1; let r = &mut x; }`, diag.SemaMutRefOfImmutable},
		{"assign through shared ref", `fn main() -> () { let mut x = 1; let r = &x; *r = 2; }`, diag.SemaDerefAssignImmutable},
		{"deref non ref", `fn main() -> () { let x = 1; let y = *x; }`, diag.SemaDerefNonRef},
		{"ref of temporary", `fn main() -> () { let r = &1; }`, diag.SemaRefOfNonPlace},
		{"none without context", `fn main() -> () { let o = None; }`, diag.SemaConstructorContext},
		{"ok without context", `fn main() -> () { let r = Ok(1); }`, diag.SemaConstructorContext},
		{
			"propagate outside result",
			`fn f() -> Result[int, string] { return Ok(1); } fn main() -> () { let x = f()?; }`,
			diag.SemaPropagateOutsideResult,
		},
		{
			"propagate error mismatch",
			`fn f() -> Result[int, string] { return Ok(1); }
fn g() -> Result[int, int] { let x = f()?; return Ok(x); }
fn main() -> () {}`,
			diag.SemaPropagateErrMismatch,
		},
		{
			"propagate non result",
			`fn g(n: int) -> Result[int, int] { let x = n?; return Ok(x); } fn main() -> () {}`,
			diag.SemaPropagateNonResult,
		},
		{"duplicate fn", `fn f() -> () {} fn f() -> () {} fn main() -> () {}`, diag.SemaDuplicateDecl},
		{"duplicate param", `fn f(a: int, a: int) -> () {} fn main() -> () {}`, diag.SemaDuplicateDecl},
		{
			"missing struct field",
			`struct P { x: int, y: int } fn main() -> () { let p = P { x: 1 }; }`,
			diag.SemaStructLiteral,
		},
		{
			"unknown struct field",
			`struct P { x: int } fn main() -> () { let p = P { x: 1 }; let z = p.y; }`,
			diag.SemaUnknownField,
		},
		{
			"unknown method",
			`struct P { x: int } fn main() -> () { let p = P { x: 1 }; p.go(); }`,
			diag.SemaUnknownMethod,
		},
		{"dynamic operand", `fn f(v: dynamic) -> int { return v + 1; } fn main() -> () {}`, diag.SemaDynamicUse},
		{"dynamic as typed", `fn f(v: dynamic) -> int { return v; } fn main() -> () {}`, diag.SemaDynamicUse},
		{
			"literal pattern on dynamic",
			`fn f(v: dynamic) -> int { match v { 1 => 1, _ => 0 } } fn main() -> () {}`,
			diag.SemaBadPattern,
		},
		{
			"record pattern on int",
			`fn f(n: int) -> int { match n { { x: int } => x, _ => 0 } } fn main() -> () {}`,
			diag.SemaBadPattern,
		},
		{"bool not covered", `fn f(b: bool) -> int { match b { true => 1 } } fn main() -> () {}`, diag.SemaNonExhaustiveMatch},
		{"int not covered", `fn f(n: int) -> int { match n { 0 => 1, 1 => 2 } } fn main() -> () {}`, diag.SemaNonExhaustiveMatch},
		{
			"option not covered",
			`fn f(o: Option[int]) -> int { match o { Some(x) => x } } fn main() -> () {}`,
			diag.SemaNonExhaustiveMatch,
		},
		{
			"result not covered",
			`fn f(r: Result[int, string]) -> int { match r { Err(_) => 0 } } fn main() -> () {}`,
			diag.SemaNonExhaustiveMatch,
		},
		{"no main", `fn helper() -> () {}`, diag.SemaNoMain},
		{"main with params", `fn main(x: int) -> () {}`, diag.SemaBadMainSignature},
		{"main returns int", `fn main() -> int { return 0; }`, diag.SemaBadMainSignature},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := checkMain(t, tc.src)
			assert.Contains(t, codesOf(g), tc.code)
		})
	}
}

func TestCheckAcceptsValidPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"negative literal", `fn main() -> () { let x = -2147483648; let y: u64 = 5000000000; let z = y * 2; }`},
		{"literal on the left", `fn f(x: u64) -> u64 { return 1 + x; } fn main() -> () {}`},
		{"bool covered", `fn f(b: bool) -> int { match b { true => 1, false => 0 } } fn main() -> () {}`},
		{"option covered", `fn f(o: Option[int]) -> int { match o { Some(x) => x, None => 0 } } fn main() -> () {}`},
		{"result covered", `fn f(r: Result[int, string]) -> int { match r { Ok(v) => v, Err(_) => 0 } } fn main() -> () {}`},
		{"wildcard", `fn f(s: string) -> int { match s { "a" => 1, _ => 0 } } fn main() -> () {}`},
		{"return in every arm", `fn f(b: bool) -> int { match b { true => { return 1; }, false => { return 0; } } } fn main() -> () {}`},
		{"deref assign", `fn main() -> () { let mut x = 1; let r = &mut x; *r = 2; let y: int = *r; }`},
		{"some infers", `fn main() -> () { let o = Some(1); let n: Option[int] = o; }`},
		{
			"propagate",
			`fn parse(s: string) -> Result[int, string] { match s { "one" => Ok(1), _ => Err("bad") } }
fn twice(s: string) -> Result[int, string] { let n = parse(s)?; return Ok(n + n); }
fn main() -> () { match twice("one") { Ok(_) => print("ok"), Err(e) => print(e) } }`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := checkMain(t, tc.src)
			assert.Empty(t, codesOf(g), "%s", g.Diagnostics(0).Items())
		})
	}
}

func TestCheckUntypedLiteralsFollowContext(t *testing.T) {
	_, res := checkMain(t, `fn f(x: u64) -> u64 { return x + 1; } fn main() -> () {}`)
	info := res.Module(project.EntryModule)
	u64 := res.TypeInterner.Builtins().U64
	wide := 0
	for _, ty := range info.ExprTypes {
		if ty == u64 {
			wide++
		}
	}
	// x, 1, x + 1 and the body block, which diverges through return
	assert.Equal(t, 4, wide)
}

func TestCheckVisibility(t *testing.T) {
	lib := `pub struct User { name: string @pub(get, set), age: int }
pub fn make(n: string) -> User { return User { name: n, age: 1 }; }
fn secret() -> () {}
pub struct Counter { n: int }
pub fn counter() -> Counter { return Counter { n: 0 }; }
fn bump(self: &mut Counter) -> () { self.n = self.n + 1; }
`
	tests := []struct {
		name  string
		main  string
		codes []diag.Code
	}{
		{
			"getter sugar",
			"import a::make;\nfn main() -> () { let u = make(\"k\"); print(u.name); }",
			nil,
		},
		{
			"private field read",
			"import a::make;\nfn main() -> () { let u = make(\"k\"); let n = u.age; }",
			[]diag.Code{diag.VisPrivateField},
		},
		{
			"field write outside module",
			"import a::make;\nfn main() -> () { let mut u = make(\"k\"); u.name = \"x\"; }",
			[]diag.Code{diag.VisPrivateField},
		},
		{
			"setter",
			"import a::make;\nfn main() -> () { let mut u = make(\"k\"); u.set_name(\"x\"); }",
			nil,
		},
		{
			"setter on immutable binding",
			"import a::make;\nfn main() -> () { let u = make(\"k\"); u.set_name(\"x\"); }",
			[]diag.Code{diag.SemaMutRefOfImmutable},
		},
		{
			"foreign struct literal",
			"import a::User;\nfn main() -> () { let u = User { name: \"x\", age: 1 }; }",
			[]diag.Code{diag.VisPrivateField},
		},
		{
			"private import",
			"import a::secret;\nfn main() -> () {}",
			[]diag.Code{diag.VisNotExported},
		},
		{
			"missing import",
			"import a::nothing;\nfn main() -> () {}",
			[]diag.Code{diag.SemaImportNotFound},
		},
		{
			"private path call",
			"import a;\nfn main() -> () { a::secret(); }",
			[]diag.Code{diag.VisNotExported},
		},
		{
			"private method",
			"import a::counter;\nfn main() -> () { let mut c = counter(); c.bump(); }",
			[]diag.Code{diag.VisPrivateMethod},
		},
		{
			"qualified type",
			"import a;\nfn show(u: a::User) -> string { return u.name; }\nfn main() -> () { print(show(a::make(\"k\"))); }",
			nil,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g, _ := checkFiles(t, map[string]string{"src/main.kx": tc.main, "src/a.kx": lib})
			assert.Equal(t, tc.codes, codesOf(g))
		})
	}
}

func TestCheckGetterIsCalled(t *testing.T) {
	_, res := checkFiles(t, map[string]string{
		"src/main.kx": "import a::make;\nfn main() -> () { let u = make(\"k\"); print(u.name); }",
		"src/a.kx":    "pub struct User { name: string @pub(get) }\npub fn make(n: string) -> User { return User { name: n }; }\n",
	})
	info := res.Module(project.EntryModule)
	var getter *symbols.Function
	for _, fn := range info.Calls {
		if fn.Name == "name" {
			getter = fn
		}
	}
	require.NotNil(t, getter)
	assert.Equal(t, project.ModuleID{Path: "a"}, getter.Module)
	assert.Equal(t, symbols.ReceiverRef, getter.Receiver)
	assert.Empty(t, info.Fields, "getter sugar must not read the field directly")
}

func TestCheckMethodReceivers(t *testing.T) {
	src := `struct Counter { n: int }
fn bump(self: &mut Counter) -> () { self.n = self.n + 1; }
fn get(self: &Counter) -> int { return self.n; }
fn main() -> () {
	let mut c = Counter { n: 0 };
	c.bump();
	let r = &mut c;
	r.bump();
	let k = c.get();
}`
	g, res := checkMain(t, src)
	require.Empty(t, codesOf(g))
	info := res.Module(project.EntryModule)
	addrOf, direct := 0, 0
	for _, rcv := range info.Receivers {
		switch {
		case rcv.AddrOf:
			addrOf++
		case rcv.Derefs == 0:
			direct++
		}
	}
	// c.bump() and c.get() take the address of c; r.bump() passes r as is
	assert.Equal(t, 2, addrOf)
	assert.GreaterOrEqual(t, direct, 1)

	bad := `struct Counter { n: int }
fn bump(self: &mut Counter) -> () { self.n = self.n + 1; }
fn through(c: &Counter) -> () { c.bump(); }
fn main() -> () { let c = Counter { n: 0 }; c.bump(); }`
	g, _ = checkMain(t, bad)
	assert.Equal(t, 2, count(codesOf(g), diag.SemaMutRefOfImmutable))
}

func TestCheckFieldAssignThroughSharedRef(t *testing.T) {
	g, _ := checkMain(t, `struct P { x: int }
fn set(p: &P) -> () { p.x = 1; }
fn main() -> () {}`)
	assert.Equal(t, []diag.Code{diag.SemaDerefAssignImmutable}, codesOf(g))
}

func TestCheckDynamicBoxingAndRecordPatterns(t *testing.T) {
	src := `pub struct User { name: string @pub(get), age: int }
struct Point { x: int, y: int }
fn describe(v: dynamic) -> string {
	match v {
		{ name: string } => name,
		s: string => s,
		_ => "other",
	}
}
fn main() -> () {
	print(describe("hi"));
	print(describe(User { name: "a", age: 1 }));
	print(describe(Point { x: 1, y: 2 }));
}`
	g, res := checkMain(t, src)
	require.Empty(t, codesOf(g), "%s", g.Diagnostics(0).Items())
	info := res.Module(project.EntryModule)
	in := res.TypeInterner

	var boxed []string
	for _, ty := range info.Coercions {
		boxed = append(boxed, in.String(ty))
	}
	assert.ElementsMatch(t, []string{"string", "User", "Point"}, boxed)

	var record *sema.PatternInfo
	for _, p := range info.Patterns {
		if len(p.Candidates) > 0 {
			record = &p
		}
	}
	require.NotNil(t, record)
	require.Len(t, record.Candidates, 1)
	assert.Equal(t, "User", in.String(record.Candidates[0]))
	assert.Equal(t, [][]int{{0}}, record.Fields)
	require.Len(t, record.Locals, 1)
	assert.Equal(t, "name", record.Locals[0].Name)
}

func TestCheckRecordPatternNeedsReadableField(t *testing.T) {
	g, _ := checkFiles(t, map[string]string{
		"src/main.kx": "import a::Vault;\nfn f(v: dynamic) -> string { match v { { secret: string } => secret, _ => \"\" } }\nfn main() -> () {}",
		"src/a.kx":    "pub struct Vault { secret: string }\n",
	})
	assert.Equal(t, []diag.Code{diag.SemaBadPattern}, codesOf(g))
}

func TestCheckCyclicModules(t *testing.T) {
	g, res := checkFiles(t, map[string]string{
		"src/main.kx": "import a::ping;\nfn main() -> () { let n = ping(3); }",
		"src/a.kx":    "import b::pong;\npub fn ping(n: int) -> int { return pong(n); }\n",
		"src/b.kx":    "import a::ping;\npub fn pong(n: int) -> int { return n; }\npub fn again() -> int { return ping(1); }\n",
	})
	assert.Empty(t, codesOf(g))
	assert.Len(t, res.Modules, 3)
	for _, mod := range g.Modules {
		assert.NotNil(t, res.Module(mod.ID), mod.ID.String())
	}
}

func TestCheckSyntaxErrorsSkipBodies(t *testing.T) {
	g, res := checkFiles(t, map[string]string{
		"src/main.kx": "import a::f;\nfn main() -> () { f(); }",
		"src/a.kx":    "pub fn f() -> () {}\nfn broken() -> () { let = ; }\n",
	})
	codes := codesOf(g)
	assert.NotEmpty(t, codes)
	for _, c := range codes {
		assert.Less(t, int(c), 3000, "only syntax errors expected, got %v", codes)
	}
	// declarations survive, the body is not checked
	a := res.Module(project.ModuleID{Path: "a"})
	require.NotNil(t, a)
	fn, _ := a.Table.Lookup("f")
	assert.NotNil(t, fn)
	assert.Empty(t, a.Fns)
}

func TestCheckSharedInterner(t *testing.T) {
	in := types.NewInterner()
	p := driver.NewMemProvider().Add(appRoot, "src/main.kx", "fn main() -> () {}")
	ctx := context.Background()
	g, err := driver.Resolve(ctx, driver.ResolveOptions{Root: appRoot, Provider: p})
	require.NoError(t, err)
	res, err := driver.Check(ctx, g, driver.CheckOptions{Types: in})
	require.NoError(t, err)
	assert.Same(t, in, res.TypeInterner)
}
