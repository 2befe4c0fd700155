package buildpipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knox/internal/backend/wasm"
	"knox/internal/buildpipeline"
	"knox/internal/driver"
)

const appRoot = "/app"

func provider(files map[string]string) *driver.MemProvider {
	p := driver.NewMemProvider()
	for rel, src := range files {
		p.Add(appRoot, rel, src)
	}
	return p
}

var helloFiles = map[string]string{
	"src/main.kx":  "import greet::greet;\nfn main() -> () { print(greet(\"knox\")); }\n",
	"src/greet.kx": "pub fn greet(name: string) -> string { name }\n",
}

func TestBuildWritesArtefacts(t *testing.T) {
	dir := t.TempDir()
	rec := &buildpipeline.Recorder{}
	res, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
		Root:        appRoot,
		Provider:    provider(helloFiles),
		Deps:        driver.StaticDeps{},
		Output:      filepath.Join(dir, "out", "hello.wasm"),
		SurfacePath: filepath.Join(dir, "out", "hello.surface"),
		Jobs:        2,
		Progress:    rec,
	})
	require.NoError(t, err)
	require.NotNil(t, res.Wasm)
	assert.Equal(t, 0, res.Diagnostics.Len())

	bin, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, res.Wasm.Binary, bin)

	raw, err := os.ReadFile(filepath.Join(dir, "out", "hello.surface"))
	require.NoError(t, err)
	surface, err := wasm.ReadSurface(raw)
	require.NoError(t, err)
	assert.Equal(t, res.Wasm.Surface, surface)

	for _, stage := range buildpipeline.Stages {
		assert.True(t, res.Timings.Has(stage), "missing timing for %s", stage)
	}

	parsed := map[string]bool{}
	var done []buildpipeline.Stage
	for _, evt := range rec.Events() {
		if evt.Stage == buildpipeline.StageParse {
			assert.Equal(t, buildpipeline.StatusDone, evt.Status)
			parsed[evt.Module] = true
		}
		if evt.Module == "" && evt.Status == buildpipeline.StatusDone {
			done = append(done, evt.Stage)
		}
	}
	assert.Equal(t, map[string]bool{"main": true, "greet": true}, parsed)
	assert.Equal(t, []buildpipeline.Stage{
		buildpipeline.StageResolve,
		buildpipeline.StageCheck,
		buildpipeline.StageCodegen,
		buildpipeline.StageWrite,
	}, done)
}

func TestBuildStopsOnDiagnostics(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "bad.wasm")
	var events []buildpipeline.Event
	res, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
		Root:     appRoot,
		Provider: provider(map[string]string{"src/main.kx": "fn main() -> () { let x: int = \"s\"; }\n"}),
		Deps:     driver.StaticDeps{},
		Output:   out,
		Progress: buildpipeline.SinkFunc(func(evt buildpipeline.Event) { events = append(events, evt) }),
	})
	require.ErrorIs(t, err, buildpipeline.ErrDiagnostics)
	require.True(t, res.Diagnostics.HasErrors())
	assert.Nil(t, res.Wasm)
	assert.NoFileExists(t, out)
	assert.False(t, res.Timings.Has(buildpipeline.StageCodegen))

	last := events[len(events)-1]
	assert.Equal(t, buildpipeline.StageCheck, last.Stage)
	assert.Equal(t, buildpipeline.StatusError, last.Status)
}

func TestBuildReadsManifest(t *testing.T) {
	root := t.TempDir()
	write := func(rel, content string) {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	}
	write("knox.toml", "[package]\nname = \"app\"\nentry = \"src/app.kx\"\n\n[dependencies]\nutil = { path = \"util\" }\n")
	write("src/app.kx", "import util;\nfn main() -> () { print(util::name()); }\n")
	write("util/knox.toml", "[package]\nname = \"util\"\n")
	write("util/src/lib.kx", "pub fn name() -> string { \"util\" }\n")

	res, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{Root: root})
	require.NoError(t, err)
	require.NotNil(t, res.Wasm)
	assert.Equal(t, "app", res.Graph.Entry().ID.String())
	assert.Len(t, res.Graph.Modules, 2)
}

func TestBuildMissingEntry(t *testing.T) {
	_, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
		Root:     appRoot,
		Provider: driver.NewMemProvider(),
		Deps:     driver.StaticDeps{},
	})
	require.Error(t, err)
	require.NotErrorIs(t, err, buildpipeline.ErrDiagnostics)
}

func TestChannelSink(t *testing.T) {
	ch := make(chan buildpipeline.Event, 1)
	buildpipeline.ChannelSink{Ch: ch}.OnEvent(buildpipeline.Event{Stage: buildpipeline.StageWrite})
	assert.Equal(t, buildpipeline.StageWrite, (<-ch).Stage)
	buildpipeline.ChannelSink{}.OnEvent(buildpipeline.Event{})
}

func TestBuildStopAfter(t *testing.T) {
	for _, stage := range []buildpipeline.Stage{buildpipeline.StageResolve, buildpipeline.StageCheck} {
		t.Run(string(stage), func(t *testing.T) {
			res, err := buildpipeline.Build(context.Background(), &buildpipeline.BuildRequest{
				Root:      appRoot,
				Provider:  provider(helloFiles),
				Deps:      driver.StaticDeps{},
				StopAfter: stage,
			})
			require.NoError(t, err)
			require.NotNil(t, res.Graph)
			require.NotNil(t, res.Diagnostics)
			assert.Nil(t, res.Wasm)
			assert.Equal(t, stage == buildpipeline.StageCheck, res.Sema != nil)
			assert.False(t, res.Timings.Has(buildpipeline.StageCodegen))
		})
	}
}
