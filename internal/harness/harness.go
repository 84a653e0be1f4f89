// Package harness runs YAML conformance scenarios end to end: scripted
// engine transcripts are fed through the real dispatcher, parsers,
// aggregator and pipeline, and the resulting verdicts and summary
// snapshot are checked against the scenario's expectations.
package harness

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/veridian-eda/aigpipe/internal/engine"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/summary"
	"github.com/veridian-eda/aigpipe/internal/task"
)

// Result is the outcome of one scenario execution.
type Result struct {
	// TaskStatus is the folded task verdict.
	TaskStatus string
	// EngineStatus holds the published per-engine verdicts.
	EngineStatus map[int]string
	// Fatal is the scheduler abort error message, empty on clean runs.
	Fatal string
	// Snapshot is the canonical summary JSON for golden comparison.
	Snapshot []byte
	// Log is the aggregate log of the run.
	Log string

	// Errors lists expectation violations. Empty means the scenario
	// passed.
	Errors []string
}

// AddError records an expectation violation.
func (r *Result) AddError(format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Harness executes scenarios against a private working directory.
type Harness struct {
	// Workdir is the scenario working directory, usually t.TempDir().
	Workdir string
}

// Run executes one scenario and checks its expectations.
func (h *Harness) Run(ctx context.Context, sc *Scenario) (*Result, error) {
	cfg, err := sc.TaskConfig(h.Workdir)
	if err != nil {
		return nil, err
	}

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	runner := proc.NewScriptRunner()
	for _, s := range sc.Scripts {
		runner.On(fmt.Sprintf("cd %s; %s", cfg.Workdir, s.Command),
			proc.Script{Lines: s.Lines, Retcode: s.Retcode})
	}

	sched := proc.NewScheduler(runner, logger)
	sum := summary.New(sc.Name, nil)
	t := task.New(cfg, sched, sum,
		task.WithRunID(sc.Name), task.WithLogger(logger))

	res := &Result{EngineStatus: make(map[int]string)}
	for i, spec := range cfg.Engines {
		if err := engine.Run(t, i, strings.Fields(spec)); err != nil {
			return nil, fmt.Errorf("scenario %s: dispatch engine_%d: %w", sc.Name, i, err)
		}
	}

	if err := sched.Run(ctx); err != nil {
		res.Fatal = err.Error()
	}

	res.TaskStatus = t.Status().String()
	for i := range cfg.Engines {
		if st, ok := sum.EngineStatus(i); ok {
			res.EngineStatus[i] = st.String()
		}
	}
	res.Log = logBuf.String()
	res.Snapshot, err = sum.Snapshot()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: snapshot: %w", sc.Name, err)
	}

	h.check(sc, res)
	return res, nil
}

func (h *Harness) check(sc *Scenario, res *Result) {
	exp := sc.Expect

	if exp.Fatal != "" {
		if !strings.Contains(res.Fatal, exp.Fatal) {
			res.AddError("expected fatal error containing %q, got %q", exp.Fatal, res.Fatal)
		}
	} else if res.Fatal != "" {
		res.AddError("unexpected fatal error: %s", res.Fatal)
	}

	if exp.TaskStatus != "" && res.TaskStatus != exp.TaskStatus {
		res.AddError("task status: expected %s, got %s", exp.TaskStatus, res.TaskStatus)
	}

	for idx, want := range exp.EngineStatus {
		got, ok := res.EngineStatus[idx]
		if !ok {
			res.AddError("engine_%d: expected status %s, none published", idx, want)
			continue
		}
		if got != want {
			res.AddError("engine_%d: expected status %s, got %s", idx, want, got)
		}
	}
	for idx, got := range res.EngineStatus {
		if _, ok := exp.EngineStatus[idx]; !ok {
			res.AddError("engine_%d: unexpected published status %s", idx, got)
		}
	}
}
