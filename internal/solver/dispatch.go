package solver

import (
	"strings"

	"github.com/veridian-eda/aigpipe/internal/status"
	"github.com/veridian-eda/aigpipe/internal/task"
)

// Invocation is a fully validated backend invocation. Immutable once
// built.
type Invocation struct {
	// Backend is the resolved backend name.
	Backend string
	// SolverCmd is the command line up to (not including) the model
	// file argument.
	SolverCmd string
	// ModelVariant is the compiled model variant tag ("" or "_fold").
	ModelVariant string
	// Protocol selects the output parser.
	Protocol OutputProtocol
	// Status2 is the backend's status-code-2 meaning.
	Status2 status.Status
	// CheckRetcode enables strict exit-code checking on the node.
	CheckRetcode bool
}

// Dispatch validates the engine's token list (backend name plus extra
// solver arguments) against the mode and builds the invocation. All
// failures are fatal configuration errors.
func Dispatch(t *task.Task, engineIdx int, args []string) (*Invocation, error) {
	tag := task.EngineTag(engineIdx)

	// Engine-level flags are not a thing for this engine family; any
	// leading option is a configuration error, and an empty token list
	// has no solver to run.
	if len(args) > 0 && strings.HasPrefix(args[0], "-") {
		return nil, t.Errorf(task.ErrCodeConfig, tag, "Unexpected engine options.")
	}
	if len(args) == 0 {
		return nil, t.Errorf(task.ErrCodeConfig, tag, "Missing solver command.")
	}

	b, ok := backends[args[0]]
	if !ok {
		return nil, t.Errorf(task.ErrCodeConfig, tag, "Invalid solver command %q.", args[0])
	}

	mode := t.Cfg.Mode
	if !b.allows(mode) {
		return nil, t.Errorf(task.ErrCodeConfig, tag,
			"The aiger solver '%s' is only supported in %s.", b.Name, b.modeSet())
	}

	words := b.build(buildInput{
		exe:   t.ExePath(b.Name),
		mode:  mode,
		depth: t.Cfg.Depth,
		extra: args[1:],
	})

	return &Invocation{
		Backend:      b.Name,
		SolverCmd:    strings.Join(words, " "),
		ModelVariant: b.Variant,
		Protocol:     b.Protocol,
		Status2:      b.Status2,
		CheckRetcode: b.CheckRetcode,
	}, nil
}

// ModelKind names the compiled model artifact the invocation depends on.
func (in *Invocation) ModelKind() string {
	return "aig" + in.ModelVariant
}

// ModelFile is the model artifact path relative to the task workdir.
func (in *Invocation) ModelFile() string {
	return "model/design_aiger" + in.ModelVariant + ".aig"
}

// Command composes the full shell command for the engine node.
func (in *Invocation) Command(workdir string) string {
	return "cd " + workdir + "; " + in.SolverCmd + " " + in.ModelFile()
}
