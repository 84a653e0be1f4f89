package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veridian-eda/aigpipe/internal/status"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "aigpipe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_Idempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aigpipe.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestEngineStatus_LastWriterWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetEngineStatus(ctx, "run-1", 0, status.Pass))
	require.NoError(t, s.SetEngineStatus(ctx, "run-1", 1, status.Fail))
	require.NoError(t, s.SetEngineStatus(ctx, "run-1", 0, status.Fail))

	got, err := s.ReadEngineStatuses(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[int]status.Status{0: status.Fail, 1: status.Fail}, got)
}

func TestEngineStatus_RunNamespacing(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetEngineStatus(ctx, "run-1", 0, status.Pass))
	require.NoError(t, s.SetEngineStatus(ctx, "run-2", 0, status.Fail))

	got, err := s.ReadEngineStatuses(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, map[int]status.Status{0: status.Pass}, got)
}

func TestPropertyStatus_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetPropertyStatus(ctx, "run-1", PropertyStatus{
		HDLName: "top.sub.assert_ok",
		Status:  status.Fail,
		Source:  "aigsmt",
		Engine:  "engine_0",
	}))

	got, err := s.ReadPropertyStatuses(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "top.sub.assert_ok", got[0].HDLName)
	assert.Equal(t, status.Fail, got[0].Status)
	assert.Equal(t, "aigsmt", got[0].Source)
	assert.Equal(t, "engine_0", got[0].Engine)
}

func TestTraceEvents_AppendOnlyOrdered(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	step := 7
	require.NoError(t, s.AddTraceEvent(ctx, "run-1", 0, TraceEvent{
		Engine: 0, Trace: "trace", Path: "engine_0/trace.vcd",
		CellType: "$assert", HDLName: "top.a", Src: "a.sv:1", Step: &step,
	}))
	require.NoError(t, s.AddTraceEvent(ctx, "run-1", 1, TraceEvent{
		Engine: 0, Trace: "trace2", Path: "engine_0/trace2.vcd",
	}))

	got, err := s.ReadTraceEvents(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "trace", got[0].Trace)
	require.NotNil(t, got[0].Step)
	assert.Equal(t, 7, *got[0].Step)
	assert.Equal(t, "trace2", got[1].Trace)
	assert.Nil(t, got[1].Step)
}
