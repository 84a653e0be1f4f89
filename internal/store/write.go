package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/veridian-eda/aigpipe/internal/status"
)

// SetEngineStatus records the terminal verdict of one engine. Last writer
// wins, though in practice each engine publishes exactly once.
func (s *Store) SetEngineStatus(ctx context.Context, run string, engine int, st status.Status) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO engine_status (run, engine, status)
		VALUES (?, ?, ?)
	`, run, engine, st.String())
	if err != nil {
		return fmt.Errorf("set engine status: %w", err)
	}
	return nil
}

// PropertyStatus tags a property verdict with its provenance.
type PropertyStatus struct {
	HDLName string
	Status  status.Status
	// Source names the producing stage (e.g. "aigsmt").
	Source string
	// Engine is the originating engine tag (e.g. "engine_0").
	Engine string
}

// SetPropertyStatus records a property verdict. Last writer wins.
func (s *Store) SetPropertyStatus(ctx context.Context, run string, ps PropertyStatus) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO property_status (run, hdlname, status, source, engine)
		VALUES (?, ?, ?, ?, ?)
	`, run, ps.HDLName, ps.Status.String(), ps.Source, ps.Engine)
	if err != nil {
		return fmt.Errorf("set property status: %w", err)
	}
	return nil
}

// TraceEvent is one append-only trace record. Step is nil when the
// refinement transcript never reported a step number before the trace was
// written.
type TraceEvent struct {
	Engine   int
	Trace    string
	Path     string
	CellType string
	HDLName  string
	Src      string
	Step     *int
}

// AddTraceEvent appends a trace event. seq orders events within a run.
func (s *Store) AddTraceEvent(ctx context.Context, run string, seq int, ev TraceEvent) error {
	var step any
	if ev.Step != nil {
		step = *ev.Step
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO trace_events (id, seq, run, engine, trace, path, cell_type, hdlname, src, step)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.NewString(), seq, run, ev.Engine, ev.Trace, ev.Path, ev.CellType, ev.HDLName, ev.Src, step)
	if err != nil {
		return fmt.Errorf("add trace event: %w", err)
	}
	return nil
}
