// Package proc implements the cooperative process scheduler that owns all
// engine and post-processing nodes.
//
// ARCHITECTURE:
//
// Single-Dispatch Loop:
// All callback invocation happens on the one goroutine running
// Scheduler.Run(). Per-node reader goroutines only pump complete output
// lines (and the final exit event) into the dispatch queue. This gives the
// two invariants everything downstream relies on:
//   - a node's output callback sees complete lines, in production order
//   - the exit callback fires exactly once, after the last output line
//
// Dependency edges:
// A node starts only after all of its dependencies finished successfully.
// A failed or cancelled dependency skips the dependent (it never starts and
// its exit callback never fires). Nodes may be added while the loop runs;
// exit callbacks routinely add the next pipeline stage.
//
// Cancellation:
// Terminate(except) kills running nodes and drops pending nodes belonging
// to every group other than `except`. The excepted group keeps running and
// may keep adding nodes; first conclusive engine wins the race, its own
// post-processing still completes.
package proc

import (
	"io"
	"log/slog"
)

// NodeState tracks a node through its lifetime.
type NodeState int

const (
	// StatePending means the node has not started yet.
	StatePending NodeState = iota
	// StateRunning means the underlying process is live.
	StateRunning
	// StateDone means the process exited and exit callbacks ran.
	StateDone
	// StateSkipped means a dependency failed or the group was cancelled
	// before the node started.
	StateSkipped
	// StateCancelled means the node was killed by Terminate.
	StateCancelled
)

// OutputFunc consumes one complete output line. The returned string, when
// ok is true, is forwarded to the aggregate log in place of the raw line;
// ok=false swallows the line from the aggregate log entirely. The raw line
// always reaches the node's private log sink first, regardless of the
// return value.
type OutputFunc func(line string) (forward string, ok bool)

// ExitFunc runs after the last output line once the process has exited.
// Returning a non-nil error aborts the whole scheduler run (fatal).
type ExitFunc func(retcode int) error

// Node is one external process plus its callbacks and dependency edges.
// Fields are set by the creator before Add; the scheduler owns the node
// afterwards.
type Node struct {
	// Group names the engine this node belongs to (e.g. "engine_0").
	// Terminate cancels by group.
	Group string
	// Name is the display tag used in logs. Often equal to Group.
	Name string
	// Command is the shell command line to run.
	Command string
	// Deps are upstream nodes that must finish successfully first.
	Deps []*Node
	// Logfile, when non-nil, receives every raw output line. Closed by
	// the scheduler after exit.
	Logfile io.WriteCloser
	// CheckRetcode opts into strict exit-code checking: a nonzero exit
	// becomes a fatal scheduler error. Disabled for backends with known
	// nonstandard exit codes.
	CheckRetcode bool
	// Output is the per-line callback. Nil forwards every line as-is.
	Output OutputFunc
	// Logger receives forwarded lines. Nil falls back to the scheduler
	// logger.
	Logger *slog.Logger

	exitFns []ExitFunc
	state   NodeState
	exited  bool
}

// RegisterExitCallback appends fn to the node's exit callbacks. Callbacks
// run in registration order on the dispatch goroutine.
func (n *Node) RegisterExitCallback(fn ExitFunc) {
	n.exitFns = append(n.exitFns, fn)
}

// State returns the node's current lifecycle state. Only meaningful once
// the scheduler run has finished (state is owned by the dispatch loop).
func (n *Node) State() NodeState {
	return n.state
}
