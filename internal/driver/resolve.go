package driver

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"fortio.org/safecast"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"knox/internal/ast"
	"knox/internal/desugar"
	"knox/internal/diag"
	"knox/internal/parser"
	"knox/internal/project"
	"knox/internal/source"
	"knox/internal/symbols"
)

// ResolveOptions configure one resolution run.
type ResolveOptions struct {
	// Root is the directory of the package being built.
	Root string
	// Entries default to [project.EntryModule].
	Entries    []project.ModuleID
	Provider   SourceProvider // nil: FSProvider
	Deps       DependencyMap  // dependencies of the root package
	DepsLoader DepsLoader     // dependencies of dependency packages; nil: ManifestDeps
	FileSet    *source.FileSet
	// MaxDiagnostics caps every module's bag (0 = unlimited).
	MaxDiagnostics int
	Jobs           int
	Logger         *zerolog.Logger
	// OnParsed is called once per parsed module, from parser goroutines.
	OnParsed func(*Module)
}

type resolver struct {
	opts     ResolveOptions
	log      zerolog.Logger
	provider SourceProvider
	fs       *source.FileSet
	cache    *ModuleCache

	status   map[project.ModuleID]ModuleStatus
	modules  map[project.ModuleID]*Module
	packages map[string]*pkg
	byRoot   map[string]*pkg
	// prefetched keeps sources read while probing import targets.
	prefetched map[project.ModuleID]prefetch
	missing    map[project.ModuleID]error
	order      []project.ModuleID
}

type prefetch struct {
	path    string
	content []byte
}

// Resolve loads every module reachable from the entries. Import cycles are
// allowed: a module is marked in progress the moment it is dequeued and is
// never enqueued again, so every module is parsed and resolved exactly once.
// User errors land in module bags; the returned error is reserved for
// failures that make the run meaningless (missing entry, cancelled context).
func Resolve(ctx context.Context, opts ResolveOptions) (*ModuleGraph, error) {
	r := newResolver(opts)
	r.addPackage("", r.opts.Root, r.opts.Deps)

	worklist := slices.Clone(opts.Entries)
	if len(worklist) == 0 {
		worklist = []project.ModuleID{project.EntryModule}
	}
	for _, id := range worklist {
		if id.Package != "" {
			return nil, fmt.Errorf("entry module %s must belong to the root package", id)
		}
	}
	entries := slices.Clone(worklist)

	for wave := 0; len(worklist) > 0; wave++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		batch := r.dequeue(worklist)
		r.log.Debug().Int("wave", wave).Int("modules", len(batch)).Msg("resolve wave")

		loaded, err := r.parseWave(ctx, batch)
		if err != nil {
			return nil, err
		}

		var next []project.ModuleID
		for i, id := range batch {
			mod := loaded[i]
			if mod == nil {
				// только точки входа могут отсутствовать: импорты проверяются заранее
				return nil, fmt.Errorf("entry module %s: %w", id, r.missing[id])
			}
			next = append(next, r.resolveImports(mod)...)
			mod.Status = StatusResolved
			r.status[id] = StatusResolved
			r.order = append(r.order, id)
			r.log.Debug().Str("module", id.String()).Int("imports", len(mod.Imports)).Msg("resolved")
		}
		worklist = next
	}

	g := r.freeze(entries)
	r.log.Info().
		Int("modules", len(g.Modules)).
		Int("components", len(g.Cond.Components)).
		Int("parses", r.cache.ParseCount()).
		Msg("module graph resolved")
	return g, nil
}

func newResolver(opts ResolveOptions) *resolver {
	if opts.Provider == nil {
		opts.Provider = FSProvider{}
	}
	if opts.DepsLoader == nil {
		opts.DepsLoader = ManifestDeps
	}
	if opts.Deps == nil {
		opts.Deps = StaticDeps{}
	}
	if opts.FileSet == nil {
		opts.FileSet = source.NewFileSetWithBase(opts.Root)
	}
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = opts.Logger.With().Str("phase", "resolve").Logger()
	}
	return &resolver{
		opts:       opts,
		log:        log,
		provider:   opts.Provider,
		fs:         opts.FileSet,
		cache:      NewModuleCache(16),
		status:     make(map[project.ModuleID]ModuleStatus),
		modules:    make(map[project.ModuleID]*Module),
		packages:   make(map[string]*pkg),
		byRoot:     make(map[string]*pkg),
		prefetched: make(map[project.ModuleID]prefetch),
		missing:    make(map[project.ModuleID]error),
	}
}

func (r *resolver) addPackage(name, root string, deps DependencyMap) *pkg {
	if deps == nil {
		deps = StaticDeps{}
	}
	p := &pkg{name: name, root: filepath.Clean(root), deps: deps}
	r.packages[name] = p
	r.byRoot[p.root] = p
	return p
}

// dequeue flips every unvisited id of the worklist to in-progress and
// returns them in ModuleID order.
func (r *resolver) dequeue(worklist []project.ModuleID) []project.ModuleID {
	batch := make([]project.ModuleID, 0, len(worklist))
	for _, id := range worklist {
		if r.status[id] != StatusUnvisited {
			continue
		}
		r.status[id] = StatusInProgress
		batch = append(batch, id)
	}
	slices.SortFunc(batch, project.Compare)
	return batch
}

// parseWave parses one wave in parallel through the module cache.
func (r *resolver) parseWave(ctx context.Context, batch []project.ModuleID) ([]*Module, error) {
	loaded := make([]*Module, len(batch))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(r.opts.Jobs, len(batch))))
	for i, id := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			mod, fresh, err := r.cache.Load(id, func() (*Module, error) {
				return r.parseModule(id)
			})
			if err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			if fresh && mod != nil && r.opts.OnParsed != nil {
				r.opts.OnParsed(mod)
			}
			loaded[i] = mod
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, id := range batch {
		if loaded[i] != nil {
			r.modules[id] = loaded[i]
		} else if _, ok := r.missing[id]; !ok {
			r.missing[id] = ErrNotFound
		}
	}
	return loaded, nil
}

// parseModule runs lexer, parser and desugarer over one module file.
func (r *resolver) parseModule(id project.ModuleID) (*Module, error) {
	start := time.Now()
	p := r.packages[id.Package]
	var (
		path    string
		content []byte
	)
	if pre, ok := r.prefetched[id]; ok {
		path, content = pre.path, pre.content
	} else {
		var err error
		path, content, err = r.provider.Read(p.root, id.RelFile())
		if err != nil {
			return nil, err
		}
	}

	fileID := r.fs.AddNormalized(path, content, 0)
	file := r.fs.Get(fileID)
	bag := diag.NewBag(r.opts.MaxDiagnostics)
	counting := &diag.CountingReporter{Next: diag.BagReporter{Bag: bag}}

	maxErrors, err := safecast.Conv[uint](r.opts.MaxDiagnostics)
	if err != nil {
		return nil, fmt.Errorf("max diagnostics: %w", err)
	}
	builder, res := parser.ParseModule(file, parser.Options{
		MaxErrors: maxErrors,
		Reporter:  counting,
	})
	syntaxErrors := counting.Errors
	ds := desugar.Module(builder, res.File, counting)

	syntaxCount, err := safecast.Conv[uint](syntaxErrors)
	if err != nil {
		return nil, fmt.Errorf("error count: %w", err)
	}
	fileLen, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		return nil, fmt.Errorf("file too large: %w", err)
	}
	mod := &Module{
		ID:           id,
		Path:         path,
		File:         file,
		Builder:      builder,
		AST:          res.File,
		Desugar:      ds,
		SyntaxErrors: syntaxCount,
		Status:       StatusInProgress,
		Bag:          bag,
		Meta: project.ModuleMeta{
			ID:          id,
			File:        fileID,
			FilePath:    path,
			Span:        source.Span{File: fileID, Start: 0, End: fileLen},
			ContentHash: file.Hash,
		},
	}
	mod.ParseTime = time.Since(start)
	r.log.Debug().
		Str("module", id.String()).
		Str("path", path).
		Uint("syntax_errors", syntaxCount).
		Int("accessors", ds.Getters+ds.Setters).
		Msg("parsed")
	return mod, nil
}

// exists probes a module without parsing it. Sources read while probing are
// kept for the parse.
func (r *resolver) exists(id project.ModuleID) (bool, error) {
	if r.status[id] != StatusUnvisited {
		return true, nil
	}
	if _, ok := r.prefetched[id]; ok {
		return true, nil
	}
	if err, ok := r.missing[id]; ok {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	p := r.packages[id.Package]
	path, content, err := r.provider.Read(p.root, id.RelFile())
	if err != nil {
		r.missing[id] = err
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	r.prefetched[id] = prefetch{path: path, content: content}
	return true, nil
}

// resolveImports binds every import of mod and returns the targets that
// still need a visit. Edges into in-progress or resolved modules are
// recorded without re-entering them.
func (r *resolver) resolveImports(mod *Module) []project.ModuleID {
	owner := r.packages[mod.ID.Package]
	reporter := mod.Reporter()
	var next []project.ModuleID
	bound := make(map[string]source.Span)
	edges := make(map[project.ModuleID]bool)

	bind := func(ri symbols.ImportBinding) {
		if prev, dup := bound[ri.Local]; dup {
			diag.ReportError(reporter, diag.ResolveDuplicateImport, ri.Span,
				fmt.Sprintf("%q is imported more than once", ri.Local)).
				WithNote(prev, "previous import here").
				Emit()
			return
		}
		bound[ri.Local] = ri.Span
		mod.Imports = append(mod.Imports, ri)
	}
	edge := func(target project.ModuleID, sp source.Span) {
		if edges[target] {
			return
		}
		edges[target] = true
		mod.Meta.Imports = append(mod.Meta.Imports, project.ImportMeta{Target: target, Span: sp})
		if r.status[target] == StatusUnvisited {
			next = append(next, target)
		}
	}

	for _, itemID := range mod.Builder.Files.Get(mod.AST).Items {
		imp, ok := mod.Builder.Items.Import(itemID)
		if !ok || len(imp.Path) == 0 {
			continue
		}
		target, item, ok := r.classify(mod, owner, imp)
		if !ok {
			continue
		}
		edge(target, imp.PathSpan)

		switch {
		case imp.Group:
			for _, n := range imp.Names {
				bind(symbols.ImportBinding{Local: n.Local(), Kind: symbols.ImportItem, Target: target, Item: n.Name, Span: n.Span, Decl: itemID})
			}
		case item != "":
			local := item
			if imp.Alias != "" {
				local = imp.Alias
			}
			bind(symbols.ImportBinding{Local: local, Kind: symbols.ImportItem, Target: target, Item: item, Span: imp.Span, Decl: itemID})
		default:
			local := imp.Path[len(imp.Path)-1]
			if imp.Alias != "" {
				local = imp.Alias
			}
			bind(symbols.ImportBinding{Local: local, Kind: symbols.ImportModule, Target: target, Span: imp.Span, Decl: itemID})
		}
	}
	return next
}

// classify maps an import path to its target module and, for `a::b::x`
// imports that name an item, the item name.
//
//	a::b::{..}   module a::b
//	a::b         module a::b if it exists, else item b of module a
//	dep          module dep::lib
//	dep::x       module dep::x if it exists, else item x of dep::lib
func (r *resolver) classify(mod *Module, owner *pkg, imp *ast.ImportItem) (project.ModuleID, string, bool) {
	reporter := mod.Reporter()
	target := owner
	rest := imp.Path
	if root, ok := owner.deps.Root(imp.Path[0]); ok {
		dep, err := r.dependency(imp.Path[0], root)
		if err != nil {
			diag.ReportError(reporter, diag.ResolveReadFailed, imp.PathSpan,
				fmt.Sprintf("failed to load dependency %q: %v", imp.Path[0], err)).Emit()
			return project.ModuleID{}, "", false
		}
		target = dep
		rest = imp.Path[1:]
	}

	probe := func(id project.ModuleID) (bool, bool) {
		found, err := r.exists(id)
		if err != nil {
			diag.ReportError(reporter, diag.ResolveReadFailed, imp.PathSpan,
				fmt.Sprintf("failed to read module %s: %v", id, err)).Emit()
			return false, false
		}
		return found, true
	}

	if len(rest) == 0 {
		lib := project.LibModule(target.name)
		found, ok := probe(lib)
		if !ok {
			return project.ModuleID{}, "", false
		}
		if !found {
			diag.ReportError(reporter, diag.ResolveBadDependencyEntry, imp.PathSpan,
				fmt.Sprintf("dependency %q has no %s", target.name, filepath.ToSlash(lib.RelFile()))).Emit()
			return project.ModuleID{}, "", false
		}
		return lib, "", true
	}

	full := project.ModuleID{Package: target.name, Path: strings.Join(rest, "::")}
	found, ok := probe(full)
	if !ok {
		return project.ModuleID{}, "", false
	}
	if found {
		return full, "", true
	}

	if !imp.Group {
		parent := project.LibModule(target.name)
		if len(rest) > 1 {
			parent = project.ModuleID{Package: target.name, Path: strings.Join(rest[:len(rest)-1], "::")}
		}
		if len(rest) > 1 || target != owner {
			found, ok := probe(parent)
			if !ok {
				return project.ModuleID{}, "", false
			}
			if found {
				return parent, rest[len(rest)-1], true
			}
		}
	}

	if len(imp.Path) == 1 {
		diag.ReportError(reporter, diag.ResolveUnknownDependency, imp.PathSpan,
			fmt.Sprintf("%q is neither a dependency nor a module (looked for %s)", imp.Path[0], filepath.ToSlash(full.RelFile()))).Emit()
		return project.ModuleID{}, "", false
	}
	diag.ReportError(reporter, diag.ResolveModuleNotFound, imp.PathSpan,
		fmt.Sprintf("module %s not found (looked for %s)", full, filepath.ToSlash(full.RelFile()))).
		WithNote(mod.Meta.Span.Head(), fmt.Sprintf("imported from module %s", mod.ID)).
		Emit()
	return project.ModuleID{}, "", false
}

// dependency returns the package behind a dependency root, registering it on first use.
// A root that is already known keeps its first name; this is how a dependency
// that points back at the root package is recognised.
func (r *resolver) dependency(name, root string) (*pkg, error) {
	root = filepath.Clean(root)
	if p, ok := r.byRoot[root]; ok {
		return p, nil
	}
	if p, ok := r.packages[name]; ok {
		r.log.Warn().Str("dependency", name).Str("root", root).Str("known_root", p.root).
			Msg("dependency name already bound to another root")
		return p, nil
	}
	deps, err := r.opts.DepsLoader(root)
	if err != nil {
		return nil, err
	}
	r.log.Debug().Str("dependency", name).Str("root", root).Msg("package registered")
	return r.addPackage(name, root, deps), nil
}
