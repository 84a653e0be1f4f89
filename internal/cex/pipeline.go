package cex

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/task"
)

// SimRenderer builds the simulation replay node for a witness file.
// Injected so tests (and alternative simulators) can replace the default.
type SimRenderer func(t *task.Task, engineIdx int, witness string, appendN int, deps []*proc.Node) (*proc.Node, error)

// Pipeline builds the post-processing chain for one failing engine.
type Pipeline struct {
	Task      *task.Task
	EngineIdx int
	Policy    Policy
	// Sim renders the replay stage; nil uses the default yosys sim
	// invocation.
	Sim SimRenderer
}

// Trigger creates and schedules the stage nodes. Called from the engine's
// exit callback once a FAIL verdict has been published.
func (p *Pipeline) Trigger() error {
	t := p.Task
	tag := task.EngineTag(p.EngineIdx)
	wd := t.Cfg.Workdir

	if _, err := t.EngineDir(p.EngineIdx); err != nil {
		return t.Errorf(task.ErrCodeProcess, tag, "%v", err)
	}

	// Stage A: translate the raw AIGER witness into the normalized
	// witness format using the structural map written at compile time.
	suffix := ""
	if p.Policy.RunAigsmt {
		suffix = "_aiw"
	}
	witnessCmd := fmt.Sprintf("cd %s; %s aiw2yw %s/trace.aiw model/design_aiger.ywa %s/trace%s.yw",
		wd, t.ExePath("witness"), tag, tag, suffix)
	witness := &proc.Node{
		Group:        tag,
		Name:         tag,
		Command:      witnessCmd,
		CheckRetcode: true,
		Logger:       t.LogPrefix(tag),
	}
	t.Sched.Add(witness)
	final := witness

	if p.Policy.RunAigsmt {
		node, err := p.refinementNode(witness, suffix)
		if err != nil {
			return err
		}
		t.Sched.Add(node)
		final = node
	}

	if SimReplay(t.Cfg) {
		render := p.Sim
		if render == nil {
			render = renderYosysSim
		}
		node, err := render(t, p.EngineIdx, fmt.Sprintf("%s/trace.yw", tag), p.Policy.SimAppend, []*proc.Node{final})
		if err != nil {
			return err
		}
		t.Sched.Add(node)
	} else if !p.Policy.RunAigsmt {
		t.LogPrefix(tag).Info("Engine did not produce a counter example.")
	}
	return nil
}

// refinementNode builds the SMT refinement stage: a bounded check seeded
// with the translated witness against the SMT-level model.
func (p *Pipeline) refinementNode(witness *proc.Node, suffix string) (*proc.Node, error) {
	t := p.Task
	tag := task.EngineTag(p.EngineIdx)
	wd := t.Cfg.Workdir

	opts := []string{"-s", t.Cfg.Aigsmt}
	if t.Cfg.TBTop != "" {
		opts = append(opts, "--vlogtb-top", t.Cfg.TBTop)
	}
	opts = append(opts, "--noprogress", fmt.Sprintf("--append %d", p.Policy.SMTBMCAppend))
	if p.Policy.SMTBMCVCD {
		opts = append(opts, fmt.Sprintf("--dump-vcd %s/trace.vcd", tag))
	}
	opts = append(opts,
		fmt.Sprintf("--dump-yw %s/trace.yw", tag),
		fmt.Sprintf("--dump-vlogtb %s/trace_tb.v", tag),
		fmt.Sprintf("--dump-smtc %s/trace.smtc", tag))

	cmd := fmt.Sprintf("cd %s; %s %s --yw %s/trace%s.yw model/design_smt2.smt2",
		wd, t.ExePath("smtbmc"), strings.Join(opts, " "), tag, suffix)

	logfile, err := os.Create(filepath.Join(wd, tag, "logfile2.txt"))
	if err != nil {
		return nil, t.Errorf(task.ErrCodeProcess, tag, "open refinement log: %v", err)
	}

	parser := newRefinement(t, p.EngineIdx)
	node := &proc.Node{
		Group:   tag,
		Name:    tag,
		Command: cmd,
		Deps:    append(t.Model("smt2"), witness),
		Logfile: logfile,
		Logger:  t.LogPrefix(tag),
		Output:  parser.Line,
	}
	node.RegisterExitCallback(func(retcode int) error {
		st, known := parser.Status()
		if !known {
			return t.Errorf(task.ErrCodeProtocol, tag, "Could not determine aigsmt status.")
		}
		if st != status.Fail {
			return t.Errorf(task.ErrCodeProtocol, tag, "Unexpected aigsmt status.")
		}
		return nil
	})
	return node, nil
}

// renderYosysSim replays the witness through the reference simulator,
// appending the configured number of cycles and dumping the requested
// waveform format.
func renderYosysSim(t *task.Task, engineIdx int, witness string, appendN int, deps []*proc.Node) (*proc.Node, error) {
	tag := task.EngineTag(engineIdx)

	dump := fmt.Sprintf("-vcd %s/trace.vcd", tag)
	if t.Cfg.FST {
		dump = fmt.Sprintf("-fst %s/trace.fst", tag)
	}
	cmd := fmt.Sprintf("cd %s; %s -p 'read_rtlil model/design.il; sim -r %s -append %d %s'",
		t.Cfg.Workdir, t.ExePath("sim"), witness, appendN, dump)

	return &proc.Node{
		Group:        tag,
		Name:         tag,
		Command:      cmd,
		Deps:         deps,
		CheckRetcode: true,
		Logger:       t.LogPrefix(tag),
	}, nil
}
