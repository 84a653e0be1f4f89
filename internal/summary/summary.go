// Package summary collects the task-wide run summary: per-engine verdicts
// and the append-only trace event log. It is the single owner of this
// shared state; engines publish into it and never read each other's
// records, so no cross-engine locking is required beyond the internal
// mutex.
package summary

import (
	"context"
	"fmt"
	"sync"

	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/store"
)

// Event is one trace record: a generated trace file tied to a failing
// property. Write-once, append-only.
type Event struct {
	Engine   int
	Trace    string
	Path     string
	CellType string
	HDLName  string
	Src      string
	Step     *int
}

// Summary accumulates engine statuses and trace events for one run,
// optionally mirroring them into the durable status database.
type Summary struct {
	run string
	db  *store.Store

	mu           sync.Mutex
	engineStatus map[int]status.Status
	events       []Event
}

// New creates a Summary for a run. db may be nil (in-memory only).
func New(run string, db *store.Store) *Summary {
	return &Summary{
		run:          run,
		db:           db,
		engineStatus: make(map[int]status.Status),
	}
}

// SetEngineStatus publishes the terminal verdict of an engine.
func (s *Summary) SetEngineStatus(ctx context.Context, engine int, st status.Status) error {
	s.mu.Lock()
	s.engineStatus[engine] = st
	s.mu.Unlock()
	if s.db != nil {
		return s.db.SetEngineStatus(ctx, s.run, engine, st)
	}
	return nil
}

// EngineStatus returns the published verdict for an engine, if any.
func (s *Summary) EngineStatus(engine int) (status.Status, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.engineStatus[engine]
	return st, ok
}

// AddEvent appends a trace event.
func (s *Summary) AddEvent(ctx context.Context, ev Event) error {
	s.mu.Lock()
	seq := len(s.events)
	s.events = append(s.events, ev)
	s.mu.Unlock()
	if s.db != nil {
		return s.db.AddTraceEvent(ctx, s.run, seq, store.TraceEvent{
			Engine:   ev.Engine,
			Trace:    ev.Trace,
			Path:     ev.Path,
			CellType: ev.CellType,
			HDLName:  ev.HDLName,
			Src:      ev.Src,
			Step:     ev.Step,
		})
	}
	return nil
}

// Events returns the events appended so far, in order.
func (s *Summary) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Event(nil), s.events...)
}

// Snapshot renders the summary as canonical JSON for golden comparison.
func (s *Summary) Snapshot() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	engines := make(map[string]any, len(s.engineStatus))
	for idx, st := range s.engineStatus {
		engines[fmt.Sprintf("engine_%d", idx)] = st.String()
	}

	events := make([]any, len(s.events))
	for i, ev := range s.events {
		m := map[string]any{
			"engine": ev.Engine,
			"trace":  ev.Trace,
			"path":   ev.Path,
		}
		if ev.CellType != "" {
			m["type"] = ev.CellType
		}
		if ev.HDLName != "" {
			m["hdlname"] = ev.HDLName
		}
		if ev.Src != "" {
			m["src"] = ev.Src
		}
		if ev.Step != nil {
			m["step"] = *ev.Step
		}
		events[i] = m
	}

	return marshalCanonical(map[string]any{
		"engines": engines,
		"events":  events,
	})
}
