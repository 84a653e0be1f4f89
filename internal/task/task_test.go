package task

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-eda/aigpipe/internal/config"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/summary"
)

func TestStatusFolding(t *testing.T) {
	tk := New(config.Default(), nil, summary.New("run", nil), WithRunID("run"))
	assert.Equal(t, status.Unknown, tk.Status())

	tk.UpdateStatus(status.Pass)
	assert.Equal(t, status.Pass, tk.Status())

	tk.UpdateStatus(status.Fail)
	assert.Equal(t, status.Fail, tk.Status())

	// Fail is sticky.
	tk.UpdateStatus(status.Pass)
	assert.Equal(t, status.Fail, tk.Status())
}

func TestRunID(t *testing.T) {
	a := New(config.Default(), nil, nil)
	b := New(config.Default(), nil, nil)
	assert.NotEmpty(t, a.Run)
	assert.NotEqual(t, a.Run, b.Run)

	c := New(config.Default(), nil, nil, WithRunID("fixed"))
	assert.Equal(t, "fixed", c.Run)
}

func TestExePath(t *testing.T) {
	cfg := config.Default()
	cfg.ExePaths["suprove"] = "/opt/tools/suprove"
	tk := New(cfg, nil, nil, WithRunID("run"))

	assert.Equal(t, "/opt/tools/suprove", tk.ExePath("suprove"))
	assert.Equal(t, "yosys-witness", tk.ExePath("witness"))
	// Unknown tools fall back to their own name on PATH.
	assert.Equal(t, "obscure-tool", tk.ExePath("obscure-tool"))
}

func TestEngineDir(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	tk := New(cfg, nil, nil, WithRunID("run"))

	dir, err := tk.EngineDir(3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.Workdir, "engine_3"), dir)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	// Idempotent.
	_, err = tk.EngineDir(3)
	require.NoError(t, err)
}

func TestEngineTag(t *testing.T) {
	assert.Equal(t, "engine_0", EngineTag(0))
	assert.Equal(t, "engine_12", EngineTag(12))
}

func TestModelHandles(t *testing.T) {
	tk := New(config.Default(), nil, nil, WithRunID("run"))
	assert.Empty(t, tk.Model("aig"))

	n := &proc.Node{Name: "model_aig"}
	tk.RegisterModel("aig", n)

	deps := tk.Model("aig")
	require.Len(t, deps, 1)
	assert.Same(t, n, deps[0])

	// Callers get a copy, not the internal slice.
	deps[0] = nil
	require.Len(t, tk.Model("aig"), 1)
	assert.Same(t, n, tk.Model("aig")[0])
}

func TestErrorf(t *testing.T) {
	var buf bytes.Buffer
	tk := New(config.Default(), nil, nil, WithRunID("run"),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	err := tk.Errorf(ErrCodeConfig, "engine_2", "Invalid solver command %q.", "abc")
	assert.EqualError(t, err, `engine_2: Invalid solver command "abc".`)
	assert.True(t, IsConfigError(err))
	assert.False(t, IsProtocolError(err))
	assert.Contains(t, buf.String(), "engine_2")

	err = tk.Errorf(ErrCodeProtocol, "", "task-level trouble")
	assert.EqualError(t, err, "task-level trouble")
	assert.True(t, IsProtocolError(err))
}

func TestErrorWrapping(t *testing.T) {
	tk := New(config.Default(), nil, nil, WithRunID("run"),
		WithLogger(slog.New(slog.NewTextHandler(bytes.NewBuffer(nil), nil))))

	inner := tk.Errorf(ErrCodeProtocol, "engine_0", "could not determine engine status")
	wrapped := fmt.Errorf("run failed: %w", inner)
	assert.True(t, IsProtocolError(wrapped))
	assert.False(t, IsConfigError(wrapped))
}

func TestLogPrefix(t *testing.T) {
	var buf bytes.Buffer
	tk := New(config.Default(), nil, nil, WithRunID("run"),
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	tk.LogPrefix("engine_1").Info("hello")
	assert.Contains(t, buf.String(), "proc=engine_1")
	assert.Contains(t, buf.String(), "hello")
}
