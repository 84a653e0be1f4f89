// Package store provides the durable task-wide status database: per-engine
// verdicts, per-property verdicts, and the append-only trace event log.
//
// Storage is SQLite with WAL mode. All writes flow through the single
// dispatch goroutine of a run, so the connection pool is pinned to one
// writer; sibling engines never contend because records are keyed by run
// id and engine index.
//
// Status rows are last-writer-wins (INSERT OR REPLACE); trace events are
// append-only and never updated.
package store
