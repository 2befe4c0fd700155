// Package buildpipeline orchestrates the compilation process.
package buildpipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"knox/internal/backend/wasm"
	"knox/internal/diag"
	"knox/internal/driver"
	"knox/internal/observ"
	"knox/internal/project"
	"knox/internal/sema"
	"knox/internal/trace"
)

// ErrDiagnostics is returned when the program has errors; the diagnostics
// themselves are in BuildResult.Diagnostics.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// BuildRequest configures a compilation.
type BuildRequest struct {
	// Root is the package directory (the one holding knox.toml and src/).
	Root string
	// Entry overrides [package].entry; zero value: manifest entry or main.
	Entry project.ModuleID
	// Output is the .wasm path; empty: no artefact is written.
	Output string
	// SurfacePath receives the msgpack export/import surface when set.
	SurfacePath string

	Provider driver.SourceProvider // nil: filesystem
	// Deps of the root package; nil: read from Root/knox.toml.
	Deps       driver.DependencyMap
	DepsLoader driver.DepsLoader

	MaxDiagnostics int
	Jobs           int
	Progress       ProgressSink
	Logger         *zerolog.Logger
	// Timer receives one phase per stage; nil: a private timer.
	Timer *observ.Timer
	// StopAfter ends the run after StageResolve or StageCheck; empty: full build.
	StopAfter Stage
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	Graph       *driver.ModuleGraph
	Sema        *sema.Result
	Wasm        *wasm.Output
	Diagnostics *diag.Bag
	Timings     Timings
	OutputPath  string
}

// Build runs resolve (with parsing), check, codegen and write. User errors
// stop the pipeline after check with ErrDiagnostics; nothing is written then.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Root == "" {
		req.Root = "."
	}
	if req.Timer == nil {
		req.Timer = observ.NewTimer()
	}
	log := req.Logger
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}

	entry, deps, err := packageConfig(req)
	if err != nil {
		emit(req.Progress, Event{Stage: StageResolve, Status: StatusError, Err: err})
		return result, err
	}

	// resolve
	err = runStage(req, log, StageResolve, func() (string, error) {
		g, err := driver.Resolve(ctx, driver.ResolveOptions{
			Root:           req.Root,
			Entries:        []project.ModuleID{entry},
			Provider:       req.Provider,
			Deps:           deps,
			DepsLoader:     req.DepsLoader,
			MaxDiagnostics: req.MaxDiagnostics,
			Jobs:           req.Jobs,
			Logger:         log,
			OnParsed: func(mod *driver.Module) {
				status := StatusDone
				if mod.SyntaxErrors > 0 {
					status = StatusError
				}
				emit(req.Progress, Event{Module: mod.ID.String(), Stage: StageParse, Status: status, Elapsed: mod.ParseTime})
			},
		})
		result.Graph = g
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d modules", len(g.Modules)), nil
	})
	if err != nil {
		result.Timings = timingsOf(req.Timer)
		return result, err
	}
	g := result.Graph
	var parsed time.Duration
	for _, mod := range g.Modules {
		parsed += mod.ParseTime
	}
	req.Timer.Record(string(StageParse), parsed, fmt.Sprintf("%d files", g.Cache.ParseCount()))
	if req.StopAfter == StageResolve {
		result.Diagnostics = g.Diagnostics(req.MaxDiagnostics)
		result.Timings = timingsOf(req.Timer)
		return result, nil
	}

	// check
	err = runStage(req, log, StageCheck, func() (string, error) {
		res, err := driver.Check(ctx, g, driver.CheckOptions{Jobs: req.Jobs, Logger: log})
		result.Sema = res
		if err != nil {
			return "", err
		}
		for _, mod := range g.Modules {
			status := StatusDone
			if mod.Bag.HasErrors() {
				status = StatusError
			}
			emit(req.Progress, Event{Module: mod.ID.String(), Stage: StageCheck, Status: status})
		}
		result.Diagnostics = g.Diagnostics(req.MaxDiagnostics)
		if result.Diagnostics.HasErrors() {
			return "", fmt.Errorf("%w: %d errors", ErrDiagnostics, result.Diagnostics.ErrorCount())
		}
		return fmt.Sprintf("%d diagnostics", result.Diagnostics.Len()), nil
	})
	if result.Diagnostics == nil {
		result.Diagnostics = g.Diagnostics(req.MaxDiagnostics)
	}
	if err != nil || req.StopAfter == StageCheck {
		result.Timings = timingsOf(req.Timer)
		return result, err
	}

	// codegen
	err = runStage(req, log, StageCodegen, func() (string, error) {
		out, err := wasm.EmitModule(result.Sema, wasm.Options{Logger: log})
		if err != nil {
			return "", fmt.Errorf("codegen: %w", err)
		}
		result.Wasm = out
		return fmt.Sprintf("%d bytes", len(out.Binary)), nil
	})
	if err != nil {
		result.Timings = timingsOf(req.Timer)
		return result, err
	}

	// write
	if req.Output != "" || req.SurfacePath != "" {
		err = runStage(req, log, StageWrite, func() (string, error) {
			return writeArtefacts(req, result.Wasm)
		})
		if err == nil {
			result.OutputPath = req.Output
		}
	}
	result.Timings = timingsOf(req.Timer)
	return result, err
}

// runStage brackets fn with progress events, a timer phase and a trace span.
func runStage(req *BuildRequest, log *zerolog.Logger, stage Stage, fn func() (string, error)) error {
	emit(req.Progress, Event{Stage: stage, Status: StatusWorking})
	idx := req.Timer.Begin(string(stage))
	span := trace.Phase(log, string(stage))
	note, err := fn()
	dur := req.Timer.End(idx, note)
	span.End(err)
	if err != nil {
		emit(req.Progress, Event{Stage: stage, Status: StatusError, Err: err, Elapsed: dur})
		return err
	}
	emit(req.Progress, Event{Stage: stage, Status: StatusDone, Elapsed: dur})
	return nil
}

func timingsOf(t *observ.Timer) Timings {
	var out Timings
	for _, p := range t.Phases() {
		out.Set(Stage(p.Name), p.Dur)
	}
	return out
}

// packageConfig decides the entry module and root dependencies: explicit
// request fields first, then knox.toml when it exists.
func packageConfig(req *BuildRequest) (project.ModuleID, driver.DependencyMap, error) {
	entry, deps := req.Entry, req.Deps
	if entry.Path != "" && deps != nil {
		return entry, deps, nil
	}
	path := filepath.Join(req.Root, project.ManifestName)
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return entry, nil, fmt.Errorf("failed to stat %q: %w", path, err)
		}
		if entry.Path == "" {
			entry = project.EntryModule
		}
		if deps == nil {
			deps = driver.StaticDeps{}
		}
		return entry, deps, nil
	}
	m, err := project.LoadManifest(path)
	if err != nil {
		return entry, nil, err
	}
	if entry.Path == "" {
		entry, err = project.ModuleOfFile(m.Entry)
		if err != nil {
			return entry, nil, fmt.Errorf("%s: entry: %w", path, err)
		}
	}
	if deps == nil {
		deps = driver.StaticDeps(m.DependencyRoots())
	}
	return entry, deps, nil
}

func writeArtefacts(req *BuildRequest, out *wasm.Output) (string, error) {
	written := 0
	if req.Output != "" {
		if err := writeFile(req.Output, out.Binary); err != nil {
			return "", err
		}
		written++
	}
	if req.SurfacePath != "" {
		var buf bytes.Buffer
		if err := wasm.WriteSurface(&buf, out.Surface); err != nil {
			return "", err
		}
		if err := writeFile(req.SurfacePath, buf.Bytes()); err != nil {
			return "", err
		}
		written++
	}
	return fmt.Sprintf("%d files", written), nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write build output %q: %w", path, err)
	}
	return nil
}
