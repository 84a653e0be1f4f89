// Package task holds the shared task context every engine runs under:
// configured options, executable paths, model artifact handles, loggers,
// the folded task verdict, and sibling termination.
//
// Thread-safety model: engines and pipeline stages all execute their
// callbacks on the scheduler's dispatch goroutine, so Task state sees at
// most one writer at a time; the mutex exists for readers on other
// goroutines (CLI reporting, tests).
package task

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/veridian-eda/aigpipe/internal/config"
	"github.com/veridian-eda/aigpipe/internal/hierarchy"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/store"
	"github.com/veridian-eda/aigpipe/internal/summary"
)

// Task is the run-wide context shared by all engines.
type Task struct {
	// Run is the unique id of this task run.
	Run string
	// Cfg holds the validated task options.
	Cfg config.Config
	// Design is the property database, nil when no design listing was
	// configured (refinement then cannot resolve properties).
	Design *hierarchy.Design
	// Summary owns engine statuses and trace events.
	Summary *summary.Summary
	// StatusDB is the durable property status database, may be nil.
	StatusDB *store.Store
	// Sched owns all process nodes of the run.
	Sched *proc.Scheduler

	logger *slog.Logger

	mu     sync.Mutex
	st     status.Status
	models map[string][]*proc.Node
}

// Option configures a Task.
type Option func(*Task)

// WithLogger overrides the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Task) { t.logger = l }
}

// WithRunID fixes the run id (tests want deterministic ids).
func WithRunID(run string) Option {
	return func(t *Task) { t.Run = run }
}

// New creates a Task. The scheduler must be set up by the caller because
// its runner choice (real commands vs scripts) belongs to the entry point.
func New(cfg config.Config, sched *proc.Scheduler, sum *summary.Summary, opts ...Option) *Task {
	t := &Task{
		Run:     uuid.NewString(),
		Cfg:     cfg,
		Summary: sum,
		Sched:   sched,
		logger:  slog.Default(),
		models:  make(map[string][]*proc.Node),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Logger returns the task-wide logger.
func (t *Task) Logger() *slog.Logger {
	return t.logger
}

// LogPrefix returns a logger tagged with a process name, the aggregate
// log destination for that process's forwarded lines.
func (t *Task) LogPrefix(tag string) *slog.Logger {
	return t.logger.With("proc", tag)
}

// Log writes one task-level log line.
func (t *Task) Log(msg string) {
	t.logger.Info(msg)
}

// Errorf builds a fatal task error. Returning it from an exit callback
// aborts the scheduler run; dispatch-time callers propagate it directly.
func (t *Task) Errorf(code ErrorCode, engine string, format string, args ...any) error {
	e := &Error{Code: code, Engine: engine, Message: fmt.Sprintf(format, args...)}
	t.logger.Error(e.Message, "engine", engine, "code", string(code))
	return e
}

// UpdateStatus folds an engine verdict into the task-wide verdict.
func (t *Task) UpdateStatus(st status.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.st = status.Fold(t.st, st)
}

// Status returns the folded task verdict.
func (t *Task) Status() status.Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.st
}

// Terminate cancels all sibling engine processes except the named one.
// The excepted engine's post-processing chain keeps running.
func (t *Task) Terminate(exceptEngine string) {
	t.Sched.Terminate(exceptEngine)
}

// RegisterModel records the dependency handles for a compiled model
// artifact kind ("aig", "aig_fold", "smt2").
func (t *Task) RegisterModel(kind string, deps ...*proc.Node) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.models[kind] = append(t.models[kind], deps...)
}

// Model returns the dependency handles of a model artifact kind. An empty
// slice means the artifact already exists on disk.
func (t *Task) Model(kind string) []*proc.Node {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*proc.Node(nil), t.models[kind]...)
}

// ExePath resolves a tool name through the configured executable table.
func (t *Task) ExePath(name string) string {
	if p, ok := t.Cfg.ExePaths[name]; ok {
		return p
	}
	return name
}

// EngineDir returns (and creates) the working directory of one engine,
// relative to the task workdir.
func (t *Task) EngineDir(engineIdx int) (string, error) {
	dir := filepath.Join(t.Cfg.Workdir, fmt.Sprintf("engine_%d", engineIdx))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("engine dir: %w", err)
	}
	return dir, nil
}

// EngineTag names an engine the way logs and the status database do.
func EngineTag(engineIdx int) string {
	return fmt.Sprintf("engine_%d", engineIdx)
}
