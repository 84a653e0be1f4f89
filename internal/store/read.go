package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/veridian-eda/aigpipe/internal/status"
)

// ReadEngineStatuses returns the recorded verdict per engine index for a
// run. Missing engines are simply absent from the map.
func (s *Store) ReadEngineStatuses(ctx context.Context, run string) (map[int]status.Status, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engine, status FROM engine_status
		WHERE run = ?
		ORDER BY engine ASC
	`, run)
	if err != nil {
		return nil, fmt.Errorf("query engine statuses: %w", err)
	}
	defer rows.Close()

	out := make(map[int]status.Status)
	for rows.Next() {
		var engine int
		var raw string
		if err := rows.Scan(&engine, &raw); err != nil {
			return nil, fmt.Errorf("scan engine status: %w", err)
		}
		st, err := status.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("engine %d: %w", engine, err)
		}
		out[engine] = st
	}
	return out, rows.Err()
}

// ReadPropertyStatuses returns all property verdicts for a run, ordered by
// hdlname for determinism.
func (s *Store) ReadPropertyStatuses(ctx context.Context, run string) ([]PropertyStatus, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hdlname, status, source, engine FROM property_status
		WHERE run = ?
		ORDER BY hdlname COLLATE BINARY ASC
	`, run)
	if err != nil {
		return nil, fmt.Errorf("query property statuses: %w", err)
	}
	defer rows.Close()

	var out []PropertyStatus
	for rows.Next() {
		var ps PropertyStatus
		var raw string
		if err := rows.Scan(&ps.HDLName, &raw, &ps.Source, &ps.Engine); err != nil {
			return nil, fmt.Errorf("scan property status: %w", err)
		}
		st, err := status.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("property %s: %w", ps.HDLName, err)
		}
		ps.Status = st
		out = append(out, ps)
	}
	return out, rows.Err()
}

// ReadTraceEvents returns the trace events of a run in append order.
func (s *Store) ReadTraceEvents(ctx context.Context, run string) ([]TraceEvent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT engine, trace, path, cell_type, hdlname, src, step
		FROM trace_events
		WHERE run = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, run)
	if err != nil {
		return nil, fmt.Errorf("query trace events: %w", err)
	}
	defer rows.Close()

	var out []TraceEvent
	for rows.Next() {
		var ev TraceEvent
		var cellType, hdlname, src sql.NullString
		var step sql.NullInt64
		if err := rows.Scan(&ev.Engine, &ev.Trace, &ev.Path, &cellType, &hdlname, &src, &step); err != nil {
			return nil, fmt.Errorf("scan trace event: %w", err)
		}
		ev.CellType = cellType.String
		ev.HDLName = hdlname.String
		ev.Src = src.String
		if step.Valid {
			n := int(step.Int64)
			ev.Step = &n
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
