package wasm_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knox/internal/ast"
	"knox/internal/backend/wasm"
	"knox/internal/driver"
	"knox/internal/project"
	"knox/internal/sema"
)

const appRoot = "/app"

func check(t *testing.T, files map[string]string) *sema.Result {
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
	for _, d := range g.Diagnostics(0).Items() {
		t.Errorf("unexpected diagnostic %s: %s", d.Code, d.Message)
	}
	require.False(t, g.HasErrors())
	return res
}

func compile(t *testing.T, files map[string]string) *wasm.Output {
	t.Helper()
	out, err := wasm.EmitModule(check(t, files), wasm.Options{})
	require.NoError(t, err)
	return out
}

func compileMain(t *testing.T, src string) *wasm.Output {
	t.Helper()
	return compile(t, map[string]string{"src/main.kx": src})
}

var greetFiles = map[string]string{
	"src/main.kx":  "import greet::greet;\nfn main() -> () { print(greet(\"knox\")); }\n",
	"src/greet.kx": "pub fn greet(name: string) -> string { return name; }\n",
}

func TestEmitGreet(t *testing.T) {
	out := compile(t, greetFiles)
	bin := parseBinary(t, out.Binary)

	ids := make([]byte, 0, len(bin.sections))
	for _, s := range bin.sections {
		ids = append(ids, s.id)
	}
	assert.Equal(t, []byte{1, 2, 3, 5, 6, 7, 10, 11, 0}, ids)

	require.Len(t, bin.imports, 1)
	assert.Equal(t, "wasi_snapshot_preview1", bin.imports[0].module)
	assert.Equal(t, "fd_write", bin.imports[0].name)

	names := make([]string, 0, len(bin.exports))
	for _, e := range bin.exports {
		names = append(names, e.name)
	}
	assert.Equal(t, []string{"memory", "_start"}, names)

	data := bin.data(t)
	assert.Equal(t, byte('\n'), data[24])
	assert.True(t, bytes.HasPrefix(data[32:], []byte("knox")), "string data starts at 32")

	// runtime helpers, greet_greet, main_main, _start
	assert.Len(t, bin.bodies, 6)
	for i, body := range bin.bodies {
		assertBalanced(t, i, body)
	}
	assert.Equal(t, []string{"fd_write", "knox_alloc", "knox_print", "knox_str_eq", "greet_greet", "main_main", "_start"}, bin.funcNames)
}

func TestEmitIsDeterministic(t *testing.T) {
	files := map[string]string{
		"src/main.kx": `import shapes::{Point, at, origin, describe};

fn main() -> () {
    let p = origin();
    print(describe(p));
    let mut q = at(3, 4);
    q.move_by(1);
    print(show(q));
    let items: dynamic = q;
    match items {
        { x: int } => print("has x"),
        s: string => print(s),
        _ => print("other"),
    };
    match half(10) {
        Ok(v) => print("even"),
        Err(e) => print(e),
    }
}

fn show(p: Point) -> string {
    if p.x > 3 && p.y == 4 { "moved" } else { "still" }
}

fn half(n: int) -> Result[int, string] {
    if n % 2 == 0 { Ok(n / 2) } else { Err("odd") }
}
`,
		"src/shapes.kx": `pub struct Point {
    x: int @pub(get, set),
    y: int @pub(get),
}

pub fn origin() -> Point { Point { x: 0, y: 0 } }

pub fn at(x: int, y: int) -> Point { Point { x: x, y: y } }

pub fn describe(p: Point) -> string {
    match p.x {
        0 => "origin",
        _ => "somewhere",
    }
}

pub fn move_by(self: &mut Point, d: int) -> () {
    self.x = self.x + d;
}
`,
	}
	first := compile(t, files)
	for range 3 {
		again := compile(t, files)
		require.Equal(t, first.Binary, again.Binary)
		require.Equal(t, first.Surface, again.Surface)
	}
	bin := parseBinary(t, first.Binary)
	for i, body := range bin.bodies {
		assertBalanced(t, i, body)
	}
}

func TestEmitExportsEntryModulePublicFunctions(t *testing.T) {
	out := compileMain(t, `
pub fn add(a: int, b: int) -> int { a + b }
pub fn total(n: u64) -> u64 { n * 2 }
fn hidden() -> () {}
fn main() -> () { hidden(); }
`)
	byName := make(map[string]wasm.SurfaceExport)
	for _, e := range out.Surface.Exports {
		byName[e.Name] = e
	}
	assert.Equal(t, "memory", byName["memory"].Kind)
	assert.Equal(t, "() -> ()", byName["_start"].Signature)
	assert.Equal(t, "(i32, i32) -> (i32)", byName["add"].Signature)
	assert.Equal(t, "(i64) -> (i64)", byName["total"].Signature)
	assert.NotContains(t, byName, "hidden")
	assert.NotContains(t, byName, "main")

	require.Len(t, out.Surface.Imports, 1)
	assert.Equal(t, "(i32, i32, i32, i32) -> (i32)", out.Surface.Imports[0].Signature)
	assert.EqualValues(t, 1, out.Surface.Pages)
}

func TestEmitDeduplicatesStrings(t *testing.T) {
	out := compileMain(t, `fn main() -> () { print("again"); print("again"); print("once"); }`)
	data := parseBinary(t, out.Binary).data(t)
	assert.Equal(t, 1, bytes.Count(data, []byte("again")))
	assert.Equal(t, "againonce", string(data[32:]))
}

func TestEmitPrograms(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"references", `
fn bump(r: &mut int) -> () { *r = *r + 1; }
fn main() -> () {
    let mut n = 1;
    bump(&mut n);
    let r = &n;
    if *r == 2 { print("two"); }
}`},
		{"option and propagate", `
fn parse(s: string) -> Result[int, string] {
    match s {
        "one" => Ok(1),
        _ => Err("bad"),
    }
}
fn twice(s: string) -> Result[int, string] {
    let v = parse(s)?;
    Ok(v * 2)
}
fn main() -> () {
    let x: Option[u64] = Some(7);
    match x {
        Some(v) => if v >= 7 { print("big"); },
        None => print("none"),
    };
    match twice("one") {
        Ok(_) => print("ok"),
        Err(e) => print(e),
    }
}`},
		{"negative literals", `
fn sign(n: int) -> string {
    match n {
        -2147483648 => "min",
        0 => "zero",
        _ => if n < 0 { "neg" } else { "pos" },
    }
}
fn main() -> () { print(sign(-2147483648)); print(sign(-5)); }`},
		{"early return", `
fn first(a: bool, b: bool) -> int {
    if a { return 1; };
    if b { return 2; };
    return 3;
}
fn main() -> () { let r = first(false, true); }`},
		{"dynamic unit and bool", `
fn main() -> () {
    let d: dynamic = ();
    let e: dynamic = true;
    match d { u: () => print("unit"), _ => print("?") };
    match e { b: bool => if !b { print("false"); }, _ => print("?") }
}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := compileMain(t, tt.src)
			bin := parseBinary(t, out.Binary)
			for i, body := range bin.bodies {
				assertBalanced(t, i, body)
			}
		})
	}
}

func TestEmitRejectsUndecoratedNode(t *testing.T) {
	res := check(t, map[string]string{"src/main.kx": `fn main() -> () { print("x"); }`})
	info := res.Module(project.EntryModule)
	require.NotNil(t, info)
	for id, e := range exprsOf(info.Builder) {
		if e.Kind == ast.ExprLit {
			delete(info.ExprTypes, id)
		}
	}
	_, err := wasm.EmitModule(res, wasm.Options{})
	var ie *wasm.InternalError
	require.True(t, errors.As(err, &ie), "err = %v", err)
	assert.Equal(t, "main_main", ie.Func)
}

func TestEmitNeedsEntryPoint(t *testing.T) {
	res := check(t, greetFiles)
	res.Main = nil
	_, err := wasm.EmitModule(res, wasm.Options{})
	var ie *wasm.InternalError
	require.ErrorAs(t, err, &ie)
}

func TestSurfaceEncoding(t *testing.T) {
	out := compile(t, greetFiles)
	var buf bytes.Buffer
	require.NoError(t, wasm.WriteSurface(&buf, out.Surface))
	got, err := wasm.ReadSurface(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, out.Surface, got)

	stale := out.Surface
	stale.Version++
	buf.Reset()
	require.NoError(t, wasm.WriteSurface(&buf, stale))
	_, err = wasm.ReadSurface(buf.Bytes())
	assert.Error(t, err)
}

func exprsOf(b *ast.Builder) map[ast.ExprID]*ast.Expr {
	out := make(map[ast.ExprID]*ast.Expr)
	for i := uint32(1); i <= b.Exprs.Arena.Len(); i++ {
		out[ast.ExprID(i)] = b.Exprs.Get(ast.ExprID(i))
	}
	return out
}
