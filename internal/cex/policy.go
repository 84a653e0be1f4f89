// Package cex drives the counterexample post-processing chain: witness
// translation, optional SMT-based refinement, and optional simulation
// replay. Stages are process nodes linked by dependency edges; the chain
// is built up front and resolved by the scheduler.
package cex

import (
	"log/slog"

	"github.com/veridian-eda/aigpipe/internal/config"
)

// Policy captures which pipeline stages run and with which append counts.
// Computed once per engine at dispatch time.
type Policy struct {
	// RunAigsmt enables the SMT refinement stage.
	RunAigsmt bool
	// SMTBMCVCD requests a VCD dump from the refinement stage (a full,
	// non-simulated waveform).
	SMTBMCVCD bool
	// SMTBMCAppend is the cycle count appended by the refinement stage.
	SMTBMCAppend int
	// SimAppend is the cycle count appended by the simulation replay
	// stage instead.
	SimAppend int
}

// PolicyFor derives the stage policy from the task options. The append
// count goes to exactly one consumer: the refinement stage when
// append-as-assume is on (or forced by a full VCD dump), the simulation
// replay otherwise.
func PolicyFor(cfg config.Config, log *slog.Logger) Policy {
	var pol Policy
	pol.SMTBMCVCD = cfg.VCD && !cfg.VCDSim
	pol.RunAigsmt = cfg.Mode != config.ModeLive &&
		(pol.SMTBMCVCD || (cfg.Append > 0 && cfg.AppendAssume))

	if cfg.Mode == config.ModeLive {
		return pol
	}
	switch {
	case cfg.AppendAssume:
		pol.SMTBMCAppend = cfg.Append
	case pol.SMTBMCVCD:
		log.Info("For VCDs generated by smtbmc the option 'append_assume off' is ignored")
		pol.SMTBMCAppend = cfg.Append
	default:
		pol.SimAppend = cfg.Append
	}
	return pol
}

// SimReplay reports whether the simulation replay stage runs: a waveform
// dump in simulation mode, or a non-VCD full-format dump.
func SimReplay(cfg config.Config) bool {
	return cfg.FST || (cfg.VCD && cfg.VCDSim)
}
