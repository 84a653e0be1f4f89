package cex

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/veridian-eda/aigpipe/internal/config"
	"github.com/veridian-eda/aigpipe/internal/proc"
	"github.com/veridian-eda/aigpipe/internal/summary"
	"github.com/veridian-eda/aigpipe/internal/task"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func pipelineFixture(t *testing.T, cfg config.Config) (*task.Task, *proc.ScriptRunner, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	log := slog.New(slog.NewTextHandler(&buf, nil))
	runner := proc.NewScriptRunner()
	sched := proc.NewScheduler(runner, log)
	tk := task.New(cfg, sched, summary.New("run", nil),
		task.WithRunID("run"), task.WithLogger(log))
	return tk, runner, &buf
}

func TestPipelineWitnessAndRefinement(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.Append = 2
	cfg.VCD = true
	cfg.VCDSim = false
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	require.True(t, pol.RunAigsmt)

	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace_aiw.yw",
		cfg.Workdir)
	smtbmcCmd := fmt.Sprintf(
		"cd %s; yosys-smtbmc -s yices --noprogress --append 2"+
			" --dump-vcd engine_0/trace.vcd --dump-yw engine_0/trace.yw"+
			" --dump-vlogtb engine_0/trace_tb.v --dump-smtc engine_0/trace.smtc"+
			" --yw engine_0/trace_aiw.yw model/design_smt2.smt2",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On(smtbmcCmd, proc.Script{Lines: []string{
		"## 0:00:00  Solver: yices",
		"## 0:00:01  Status: FAILED",
	}, Retcode: 1})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())
	require.NoError(t, tk.Sched.Run(context.Background()))

	assert.Equal(t, []string{witnessCmd, smtbmcCmd}, runner.Started())

	raw, err := os.ReadFile(filepath.Join(cfg.Workdir, "engine_0", "logfile2.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Status: FAILED")
}

func TestPipelineRefinementUnknownStatusFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.Append = 1
	cfg.VCD = true
	cfg.VCDSim = false
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace_aiw.yw",
		cfg.Workdir)
	smtbmcCmd := fmt.Sprintf(
		"cd %s; yosys-smtbmc -s yices --noprogress --append 1"+
			" --dump-vcd engine_0/trace.vcd --dump-yw engine_0/trace.yw"+
			" --dump-vlogtb engine_0/trace_tb.v --dump-smtc engine_0/trace.smtc"+
			" --yw engine_0/trace_aiw.yw model/design_smt2.smt2",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On(smtbmcCmd, proc.Script{Lines: []string{"## 0:00:00  Solver: yices"}})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())

	err := tk.Sched.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not determine aigsmt status.")
	assert.True(t, task.IsProtocolError(err))
}

func TestPipelineRefinementPassedIsFatal(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.Append = 1
	cfg.VCD = true
	cfg.VCDSim = false
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace_aiw.yw",
		cfg.Workdir)
	smtbmcCmd := fmt.Sprintf(
		"cd %s; yosys-smtbmc -s yices --noprogress --append 1"+
			" --dump-vcd engine_0/trace.vcd --dump-yw engine_0/trace.yw"+
			" --dump-vlogtb engine_0/trace_tb.v --dump-smtc engine_0/trace.smtc"+
			" --yw engine_0/trace_aiw.yw model/design_smt2.smt2",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On(smtbmcCmd, proc.Script{Lines: []string{"## 0:00:05  Status: PASSED"}})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())

	err := tk.Sched.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Unexpected aigsmt status.")
}

func TestPipelineSimReplayOnly(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.Append = 1
	cfg.AppendAssume = false
	cfg.VCD = true
	cfg.VCDSim = true
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	require.False(t, pol.RunAigsmt)
	require.Equal(t, 1, pol.SimAppend)

	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace.yw",
		cfg.Workdir)
	simCmd := fmt.Sprintf(
		"cd %s; yosys -p 'read_rtlil model/design.il; sim -r engine_0/trace.yw -append 1 -vcd engine_0/trace.vcd'",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On(simCmd, proc.Script{})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())
	require.NoError(t, tk.Sched.Run(context.Background()))

	assert.Equal(t, []string{witnessCmd, simCmd}, runner.Started())
}

func TestPipelineFSTDump(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.VCD = false
	cfg.FST = true
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	require.False(t, pol.RunAigsmt)

	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace.yw",
		cfg.Workdir)
	simCmd := fmt.Sprintf(
		"cd %s; yosys -p 'read_rtlil model/design.il; sim -r engine_0/trace.yw -append 0 -fst engine_0/trace.fst'",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On(simCmd, proc.Script{})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())
	require.NoError(t, tk.Sched.Run(context.Background()))
}

func TestPipelineNoStagesLogsDiagnostic(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.VCD = false
	cfg.Append = 0
	tk, runner, buf := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	require.False(t, pol.RunAigsmt)
	require.False(t, SimReplay(cfg))

	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace.yw",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})

	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol}
	require.NoError(t, p.Trigger())
	require.NoError(t, tk.Sched.Run(context.Background()))

	assert.Equal(t, 1, strings.Count(buf.String(), "Engine did not produce a counter example."))
	assert.Equal(t, []string{witnessCmd}, runner.Started())
}

func TestPipelineCustomSimRenderer(t *testing.T) {
	cfg := config.Default()
	cfg.Workdir = t.TempDir()
	cfg.VCD = true
	cfg.VCDSim = true
	tk, runner, _ := pipelineFixture(t, cfg)

	pol := PolicyFor(cfg, tk.Logger())
	witnessCmd := fmt.Sprintf(
		"cd %s; yosys-witness aiw2yw engine_0/trace.aiw model/design_aiger.ywa engine_0/trace.yw",
		cfg.Workdir)
	runner.On(witnessCmd, proc.Script{})
	runner.On("custom-sim", proc.Script{})

	var gotWitness string
	p := &Pipeline{Task: tk, EngineIdx: 0, Policy: pol,
		Sim: func(t *task.Task, engineIdx int, witness string, appendN int, deps []*proc.Node) (*proc.Node, error) {
			gotWitness = witness
			return &proc.Node{Group: "engine_0", Name: "engine_0", Command: "custom-sim", Deps: deps}, nil
		}}
	require.NoError(t, p.Trigger())
	require.NoError(t, tk.Sched.Run(context.Background()))

	assert.Equal(t, "engine_0/trace.yw", gotWitness)
	assert.Equal(t, []string{witnessCmd, "custom-sim"}, runner.Started())
}
