// Package solver validates the configured backend and builds its
// invocation: the command line, the model artifact variant it consumes,
// the output protocol its stream speaks, and the backend-specific meaning
// of the status code "2".
//
// Backends live in a fixed dispatch table; adding one means adding a table
// entry, not new control flow.
package solver

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/veridian-eda/aigpipe/internal/config"
	"github.com/veridian-eda/aigpipe/internal/status"
)

// OutputProtocol selects which output-protocol parser consumes the
// backend's stream.
type OutputProtocol int

const (
	// ProtocolLine is the line-oriented status-code protocol.
	ProtocolLine OutputProtocol = iota
	// ProtocolJSON is the JSONL event protocol.
	ProtocolJSON
)

// Backend describes one known verification backend.
type Backend struct {
	Name string
	// Modes is the exact set of verification modes the backend accepts.
	Modes []config.Mode
	// Variant selects the compiled model artifact ("" or "_fold").
	Variant string
	Protocol OutputProtocol
	// Status2 is what a status code "2" means for this backend. Unknown
	// means the code does not resolve to a verdict and the run fails at
	// exit if nothing else did.
	Status2 status.Status
	// CheckRetcode is false for backends with known nonstandard exit
	// codes.
	CheckRetcode bool

	// build produces the command words following the executable. extra
	// holds the user-supplied solver arguments after the backend token.
	build func(in buildInput) []string
}

type buildInput struct {
	exe   string
	mode  config.Mode
	depth int
	extra []string
}

// backends is the fixed dispatch table.
var backends = map[string]*Backend{
	"suprove": {
		Name:         "suprove",
		Modes:        []config.Mode{config.ModeLive, config.ModeProve},
		Protocol:     ProtocolLine,
		Status2:      status.Unknown,
		CheckRetcode: true,
		build: func(in buildInput) []string {
			extra := in.extra
			if in.mode == config.ModeLive && (len(extra) == 0 || extra[0][0] != '+') {
				extra = append([]string{"+simple_liveness"}, extra...)
			}
			return append([]string{in.exe}, extra...)
		},
	},
	"avy": {
		Name:     "avy",
		Modes:    []config.Mode{config.ModeProve},
		Variant:  "_fold",
		Protocol: ProtocolLine,
		Status2:  status.Unknown,
		build: func(in buildInput) []string {
			return append([]string{in.exe, "--cex", "-"}, in.extra...)
		},
	},
	"rIC3": {
		Name:     "rIC3",
		Modes:    []config.Mode{config.ModeProve},
		Protocol: ProtocolLine,
		Status2:  status.Unknown,
		build: func(in buildInput) []string {
			return append([]string{in.exe, "--witness"}, in.extra...)
		},
	},
	"aigbmc": {
		Name:         "aigbmc",
		Modes:        []config.Mode{config.ModeBMC},
		Protocol:     ProtocolLine,
		Status2:      status.Pass, // aigbmc reports status 2 when BMC passes
		CheckRetcode: true,
		build: func(in buildInput) []string {
			return append([]string{in.exe, strconv.Itoa(in.depth - 1)}, in.extra...)
		},
	},
	"modelchecker": {
		Name:         "modelchecker",
		Modes:        []config.Mode{config.ModeBMC},
		Protocol:     ProtocolLine,
		Status2:      status.Pass, // modelchecker reports status 2 when BMC passes
		CheckRetcode: true,
		build: func(in buildInput) []string {
			return append([]string{in.exe, fmt.Sprintf("-findbug %d", in.depth-1)}, in.extra...)
		},
	},
	"imctk-eqy-engine": {
		Name:         "imctk-eqy-engine",
		Modes:        []config.Mode{config.ModeProve},
		Variant:      "_fold",
		Protocol:     ProtocolJSON,
		Status2:      status.Unknown,
		CheckRetcode: true,
		build: func(in buildInput) []string {
			args := []string{in.exe, "--bmc-depth", strconv.Itoa(in.depth), "--jsonl-output"}
			return append(args, in.extra...)
		},
	},
}

// Known returns the backend names in the dispatch table, sorted.
func Known() []*Backend {
	names := make([]string, 0, len(backends))
	for name := range backends {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Backend, 0, len(names))
	for _, name := range names {
		out = append(out, backends[name])
	}
	return out
}

func (b *Backend) allows(mode config.Mode) bool {
	for _, m := range b.Modes {
		if m == mode {
			return true
		}
	}
	return false
}

// modeSet spells the allowed-mode set for error messages.
func (b *Backend) modeSet() string {
	switch len(b.Modes) {
	case 1:
		return fmt.Sprintf("%s mode", b.Modes[0])
	case 2:
		return fmt.Sprintf("%s and %s modes", b.Modes[0], b.Modes[1])
	default:
		out := ""
		for i, m := range b.Modes {
			switch {
			case i == 0:
				out = string(m)
			case i == len(b.Modes)-1:
				out += " and " + string(m)
			default:
				out += ", " + string(m)
			}
		}
		return out + " modes"
	}
}
