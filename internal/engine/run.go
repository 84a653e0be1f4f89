// Package engine wires one solver invocation into the scheduler: it
// dispatches the backend command, attaches the protocol parser, and at
// process exit publishes the verdict and decides whether the
// counterexample chain runs.
package engine

import (
	"context"
	"os"
	"path/filepath"

	"github.com/veridian-eda/aigpipe/internal/cex"
	"github.com/veridian-eda/aigpipe/internal/parser"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/solver"
	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/task"
)

// Run dispatches one engine and schedules its process node. The engine's
// exit callback owns status publication, sibling termination and the
// counterexample pipeline trigger.
func Run(t *task.Task, engineIdx int, args []string) error {
	inv, err := solver.Dispatch(t, engineIdx, args)
	if err != nil {
		return err
	}
	tag := task.EngineTag(engineIdx)

	dir, err := t.EngineDir(engineIdx)
	if err != nil {
		return t.Errorf(task.ErrCodeProcess, tag, "%v", err)
	}
	art, err := parser.NewArtifact(filepath.Join(dir, "trace.aiw"))
	if err != nil {
		return t.Errorf(task.ErrCodeProcess, tag, "open witness artifact: %v", err)
	}
	logfile, err := os.Create(filepath.Join(dir, "logfile.txt"))
	if err != nil {
		return t.Errorf(task.ErrCodeProcess, tag, "open engine log: %v", err)
	}

	var pr parser.Protocol
	switch inv.Protocol {
	case solver.ProtocolJSON:
		pr = parser.NewJSONEvents(art)
	default:
		pr = parser.NewLineStatus(inv.Status2, art)
	}

	node := &proc.Node{
		Group:        tag,
		Name:         tag,
		Command:      inv.Command(t.Cfg.Workdir),
		Deps:         t.Model(inv.ModelKind()),
		Logfile:      logfile,
		CheckRetcode: inv.CheckRetcode,
		Logger:       t.LogPrefix(tag),
		Output:       pr.Line,
	}
	node.RegisterExitCallback(func(retcode int) error {
		if err := art.Close(); err != nil {
			t.Logger().Error("close witness artifact", "error", err)
		}
		st, known := pr.Status()
		if !known || !st.Conclusive() {
			return t.Errorf(task.ErrCodeProtocol, tag, "could not determine engine status")
		}
		return publish(t, engineIdx, st)
	})
	t.Sched.Add(node)
	return nil
}

// publish records the engine verdict, folds it into the task verdict,
// cancels the sibling engines and triggers post-processing on FAIL.
func publish(t *task.Task, engineIdx int, st status.Status) error {
	tag := task.EngineTag(engineIdx)
	t.LogPrefix(tag).Info("Status returned by engine: " + st.String())

	if err := t.Summary.SetEngineStatus(context.Background(), engineIdx, st); err != nil {
		t.Logger().Error("record engine status", "error", err)
	}
	t.UpdateStatus(st)
	t.Terminate(tag)

	if st != status.Fail {
		return nil
	}
	pol := cex.PolicyFor(t.Cfg, t.LogPrefix(tag))
	if pol.RunAigsmt && t.Cfg.Aigsmt == "none" {
		return nil
	}
	p := &cex.Pipeline{Task: t, EngineIdx: engineIdx, Policy: pol}
	return p.Trigger()
}
