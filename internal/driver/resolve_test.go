package driver

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knox/internal/diag"
	"knox/internal/project"
	"knox/internal/symbols"
)

const appRoot = "/app"

func resolveMem(t *testing.T, p *MemProvider, deps StaticDeps, loader DepsLoader) *ModuleGraph {
	t.Helper()
	g, err := Resolve(context.Background(), ResolveOptions{
		Root:       appRoot,
		Provider:   p,
		Deps:       deps,
		DepsLoader: loader,
		Jobs:       4,
	})
	require.NoError(t, err)
	return g
}

func codesOf(g *ModuleGraph) []diag.Code {
	var out []diag.Code
	for _, d := range g.Diagnostics(0).Items() {
		out = append(out, d.Code)
	}
	return out
}

func mid(path string) project.ModuleID { return project.ModuleID{Path: path} }

func TestResolveTwoModuleGraph(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import greet::greet;\nfn main() -> () { print(greet(\"knox\")); }\n").
		Add(appRoot, "src/greet.kx", "pub fn greet(name: string) -> string { return name; }\n")
	g := resolveMem(t, p, nil, nil)

	assert.Empty(t, codesOf(g))
	require.Len(t, g.Modules, 2)
	main := g.Module(project.EntryModule)
	require.NotNil(t, main)
	require.Len(t, main.Imports, 1)
	imp := main.Imports[0]
	assert.Equal(t, symbols.ImportItem, imp.Kind)
	assert.Equal(t, mid("greet"), imp.Target)
	assert.Equal(t, "greet", imp.Item)
	assert.Equal(t, "greet", imp.Local)
	assert.Equal(t, 2, g.Cache.ParseCount())
}

func TestResolveCyclesTerminate(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import a;\nfn main() -> () {}\n").
		Add(appRoot, "src/a.kx", "import b;\npub fn fa() -> () {}\n").
		Add(appRoot, "src/b.kx", "import c;\npub fn fb() -> () {}\n").
		Add(appRoot, "src/c.kx", "import a;\nimport c;\npub fn fc() -> () {}\n")
	g := resolveMem(t, p, nil, nil)

	assert.Empty(t, codesOf(g))
	require.Len(t, g.Modules, 4)
	seen := map[project.ModuleID]int{}
	for _, id := range g.ResolveOrder {
		seen[id]++
	}
	for _, mod := range g.Modules {
		assert.Equal(t, StatusResolved, mod.Status, mod.ID.String())
		assert.Equal(t, 1, seen[mod.ID], "module %s resolved more than once", mod.ID)
	}
	assert.Equal(t, 4, g.Cache.ParseCount())

	a := g.Index.ModuleToID[mid("a")]
	c := g.Index.ModuleToID[mid("c")]
	assert.Equal(t, g.Cond.Of[a], g.Cond.Of[c], "a, b, c form one component")
	assert.True(t, g.Cond.Components[g.Cond.Of[a]].Cyclic)

	batches := g.Batches()
	require.Len(t, batches, 2)
	assert.Len(t, batches[0][0], 3)
	assert.Equal(t, project.EntryModule, batches[1][0][0].ID)
}

func TestResolveSharedImportParsedOnce(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import left;\nimport right;\nfn main() -> () {}\n").
		Add(appRoot, "src/left.kx", "import shared::{f};\npub fn l() -> () {}\n").
		Add(appRoot, "src/right.kx", "import shared::{f};\npub fn r() -> () {}\n").
		Add(appRoot, "src/shared.kx", "pub fn f() -> () {}\n")
	g := resolveMem(t, p, nil, nil)

	assert.Empty(t, codesOf(g))
	assert.Equal(t, 4, g.Cache.ParseCount())
	shared := g.Module(mid("shared"))
	require.NotNil(t, shared)
	cached, ok := g.Cache.Get(mid("shared"))
	require.True(t, ok)
	assert.Same(t, shared, cached)
	assert.Same(t, shared.Builder, cached.Builder)
}

func TestModuleCacheSingleParseUnderRace(t *testing.T) {
	cache := NewModuleCache(1)
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		calls int
	)
	results := make([]*Module, 16)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mod, _, err := cache.Load(mid("x"), func() (*Module, error) {
				mu.Lock()
				calls++
				mu.Unlock()
				return &Module{ID: mid("x")}, nil
			})
			assert.NoError(t, err)
			results[i] = mod
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, cache.ParseCount())
	for _, mod := range results {
		assert.Same(t, results[0], mod)
	}
}

func TestResolveModuleNotFound(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import missing::thing;\nimport other;\nfn main() -> () {}\n").
		Add(appRoot, "src/other.kx", "pub fn o() -> () {}\n")
	g := resolveMem(t, p, nil, nil)

	items := g.Diagnostics(0).Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.ResolveModuleNotFound, items[0].Code)
	assert.Contains(t, items[0].Message, "missing::thing")
	// остальные импорты модуля всё равно разрешаются
	assert.NotNil(t, g.Module(mid("other")))
	assert.Len(t, g.Module(project.EntryModule).Imports, 1)
}

func TestResolveUnknownSingleSegment(t *testing.T) {
	p := NewMemProvider().Add(appRoot, "src/main.kx", "import nope;\nfn main() -> () {}\n")
	g := resolveMem(t, p, nil, nil)
	assert.Equal(t, []diag.Code{diag.ResolveUnknownDependency}, codesOf(g))
}

func TestResolveModuleVersusItem(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import auth::token;\nimport auth::login as signin;\nfn main() -> () {}\n").
		Add(appRoot, "src/auth.kx", "pub fn login() -> () {}\n").
		Add(appRoot, "src/auth/token.kx", "pub fn issue() -> () {}\n")
	g := resolveMem(t, p, nil, nil)

	assert.Empty(t, codesOf(g))
	imports := g.Module(project.EntryModule).Imports
	require.Len(t, imports, 2)
	assert.Equal(t, symbols.ImportBinding{
		Local: "token", Kind: symbols.ImportModule, Target: mid("auth::token"),
		Span: imports[0].Span, Decl: imports[0].Decl,
	}, imports[0])
	assert.Equal(t, symbols.ImportItem, imports[1].Kind)
	assert.Equal(t, "signin", imports[1].Local)
	assert.Equal(t, "login", imports[1].Item)
	assert.Equal(t, mid("auth"), imports[1].Target)
}

func TestResolveDuplicateImport(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import a::{f};\nimport b::{g as f};\nfn main() -> () {}\n").
		Add(appRoot, "src/a.kx", "pub fn f() -> () {}\n").
		Add(appRoot, "src/b.kx", "pub fn g() -> () {}\n")
	g := resolveMem(t, p, nil, nil)

	items := g.Diagnostics(0).Items()
	require.Len(t, items, 1)
	assert.Equal(t, diag.ResolveDuplicateImport, items[0].Code)
	require.Len(t, items[0].Notes, 1)
}

func TestResolveDependencies(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import greetlib;\nimport greetlib::fmt::{wrap};\nimport greetlib::hello;\nfn main() -> () {}\n").
		Add("/deps/greetlib", "src/lib.kx", "pub fn hello() -> string { return \"hi\"; }\n").
		Add("/deps/greetlib", "src/fmt.kx", "pub fn wrap(s: string) -> string { return s; }\n")
	g := resolveMem(t, p, StaticDeps{"greetlib": "/deps/greetlib"}, nil)

	assert.Empty(t, codesOf(g))
	lib := project.LibModule("greetlib")
	require.NotNil(t, g.Module(lib))
	require.NotNil(t, g.Module(project.ModuleID{Package: "greetlib", Path: "fmt"}))
	assert.Equal(t, "/deps/greetlib", filepath.ToSlash(g.Packages["greetlib"]))

	imports := g.Module(project.EntryModule).Imports
	require.Len(t, imports, 3)
	assert.Equal(t, symbols.ImportModule, imports[0].Kind)
	assert.Equal(t, lib, imports[0].Target)
	assert.Equal(t, "greetlib", imports[0].Local)
	assert.Equal(t, symbols.ImportItem, imports[2].Kind)
	assert.Equal(t, lib, imports[2].Target)
	assert.Equal(t, "hello", imports[2].Item)
}

func TestResolveWithoutDependencyMap(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import greet::greet;\nimport util;\nfn main() -> () { print(greet(\"knox\")); }\n").
		Add(appRoot, "src/greet.kx", "pub fn greet(name: string) -> string { return name; }\n")

	// Deps не задан вовсе: корневой пакет без зависимостей
	g, err := Resolve(context.Background(), ResolveOptions{Root: appRoot, Provider: p})
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.ResolveUnknownDependency}, codesOf(g))
	require.NotNil(t, g.Module(mid("greet")))

	// загрузчик зависимостей может вернуть nil-карту
	p.Add(appRoot, "src/main.kx", "import util;\nfn main() -> () {}\n").
		Add("/deps/util", "src/lib.kx", "import other;\npub fn u() -> () {}\n")
	nilLoader := func(string) (DependencyMap, error) { return nil, nil }
	g, err = Resolve(context.Background(), ResolveOptions{
		Root:       appRoot,
		Provider:   p,
		Deps:       StaticDeps{"util": "/deps/util"},
		DepsLoader: nilLoader,
	})
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.ResolveUnknownDependency}, codesOf(g))
}

func TestResolveDependencyWithoutLib(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import empty;\nfn main() -> () {}\n")
	g := resolveMem(t, p, StaticDeps{"empty": "/deps/empty"}, nil)
	assert.Equal(t, []diag.Code{diag.ResolveBadDependencyEntry}, codesOf(g))
}

func TestResolveCrossPackageCycleRejected(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import util;\nfn main() -> () {}\n").
		Add(appRoot, "src/shared.kx", "pub fn s() -> () {}\n").
		Add("/deps/util", "src/lib.kx", "import app::shared;\npub fn u() -> () {}\n")
	loader := StaticDepsLoader(map[string]StaticDeps{
		"/deps/util": {"app": appRoot},
	})
	g := resolveMem(t, p, StaticDeps{"util": "/deps/util"}, loader)

	// util::lib -> shared не замыкает цикл, поэтому ошибок нет
	assert.Empty(t, codesOf(g))

	p.Add(appRoot, "src/shared.kx", "import util;\npub fn s() -> () {}\n")
	g = resolveMem(t, p, StaticDeps{"util": "/deps/util"}, loader)
	assert.Contains(t, codesOf(g), diag.ResolveCrossPackageCycle)
}

func TestResolveMissingEntryIsAnError(t *testing.T) {
	_, err := Resolve(context.Background(), ResolveOptions{Root: appRoot, Provider: NewMemProvider()})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveSyntaxErrorsStayInModuleBag(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import bad;\nfn main() -> () {}\n").
		Add(appRoot, "src/bad.kx", "pub fn broken( -> () {}\n")
	g := resolveMem(t, p, nil, nil)
	bad := g.Module(mid("bad"))
	require.NotNil(t, bad)
	assert.NotZero(t, bad.SyntaxErrors)
	assert.True(t, bad.Bag.HasErrors())
	assert.False(t, g.Module(project.EntryModule).Bag.HasErrors())
}

func TestResolveFromDisk(t *testing.T) {
	dir := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(dir, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	write("src/main.kx", "import util::{id};\nfn main() -> () {}\n")
	write("src/util.kx", "pub fn id(x: int) -> int { return x; }\n")

	g, err := Resolve(context.Background(), ResolveOptions{Root: dir})
	require.NoError(t, err)
	assert.Len(t, g.Modules, 2)
	assert.False(t, g.HasErrors())
}

func TestResolveReportsEachParseOnce(t *testing.T) {
	p := NewMemProvider().
		Add(appRoot, "src/main.kx", "import a::{x};\nimport b::{y};\nfn main() -> () {}\n").
		Add(appRoot, "src/a.kx", "import b::{y};\npub fn x() -> () {}\n").
		Add(appRoot, "src/b.kx", "import a::{x};\npub fn y() -> () {}\n")
	var mu sync.Mutex
	seen := map[project.ModuleID]int{}
	g, err := Resolve(context.Background(), ResolveOptions{
		Root:     appRoot,
		Provider: p,
		Deps:     StaticDeps{},
		Jobs:     4,
		OnParsed: func(mod *Module) {
			mu.Lock()
			seen[mod.ID]++
			mu.Unlock()
		},
	})
	require.NoError(t, err)
	assert.Len(t, seen, 3)
	total := 0
	for id, n := range seen {
		assert.Equal(t, 1, n, "module %s", id)
		total += n
	}
	assert.Equal(t, g.Cache.ParseCount(), total)
}
