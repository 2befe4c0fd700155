package prof

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{CPUPath: filepath.Join(dir, "cpu.pprof"), MemPath: filepath.Join(dir, "mem.pprof")}
	s, err := Start(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Stop())
	require.NoError(t, s.Stop())

	for _, path := range []string{cfg.CPUPath, cfg.MemPath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}
}

func TestEmptyConfigIsNoop(t *testing.T) {
	s, err := Start(Config{})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
	var nilSession *Session
	assert.NoError(t, nilSession.Stop())
}
