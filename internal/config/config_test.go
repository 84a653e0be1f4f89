package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Minimal(t *testing.T) {
	cfg, err := Parse([]byte(`
mode: bmc
depth: 10
engines:
  - aigbmc
`))
	require.NoError(t, err)
	assert.Equal(t, ModeBMC, cfg.Mode)
	assert.Equal(t, 10, cfg.Depth)
	assert.Equal(t, []string{"aigbmc"}, cfg.Engines)

	// Defaults survive decoding.
	assert.True(t, cfg.VCD)
	assert.True(t, cfg.AppendAssume)
	assert.Equal(t, "yices", cfg.Aigsmt)
	assert.Equal(t, "yosys-witness", cfg.ExePaths["witness"])
}

func TestParse_ExePathOverlay(t *testing.T) {
	cfg, err := Parse([]byte(`
mode: prove
engines:
  - avy
exe_paths:
  avy: /opt/avy/bin/avy
`))
	require.NoError(t, err)
	assert.Equal(t, "/opt/avy/bin/avy", cfg.ExePaths["avy"])
	// Untouched entries keep their defaults.
	assert.Equal(t, "yosys-smtbmc", cfg.ExePaths["smtbmc"])
}

func TestParse_RejectsBadMode(t *testing.T) {
	_, err := Parse([]byte(`
mode: simulate
engines:
  - avy
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestParse_RejectsUnknownField(t *testing.T) {
	_, err := Parse([]byte(`
mode: prove
engines:
  - avy
depht: 3
`))
	require.Error(t, err)
}

func TestParse_RequiresEngines(t *testing.T) {
	_, err := Parse([]byte(`
mode: prove
engines: []
`))
	require.Error(t, err)
}

func TestParse_RejectsNegativeDepth(t *testing.T) {
	_, err := Parse([]byte(`
mode: bmc
depth: -1
engines:
  - aigbmc
`))
	require.Error(t, err)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "task.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mode: prove\nengines:\n  - avy\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ModeProve, cfg.Mode)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
