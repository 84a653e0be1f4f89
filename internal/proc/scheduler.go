package proc

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// event is one unit of work for the dispatch loop: a single output line or
// the terminal exit of a node. Events from one node arrive in order because
// exactly one reader goroutine produces them.
type event struct {
	node    *Node
	line    string
	isExit  bool
	retcode int
}

// Scheduler drives all process nodes of one task run.
//
// Thread-safety model:
//   - Add(): safe from any goroutine (normally the dispatch goroutine
//     itself, via exit callbacks)
//   - Run(): must be called from exactly one goroutine
//   - Terminate(): dispatch goroutine only (called from exit callbacks)
type Scheduler struct {
	runner Runner
	logger *slog.Logger

	mu      sync.Mutex
	pending []*Node

	// Owned by the dispatch loop.
	queue      chan event
	running    map[*Node]Handle
	terminated bool
	termExcept string
	fatal      error
}

// NewScheduler creates a scheduler using the given runner. A nil runner
// defaults to ExecRunner.
func NewScheduler(runner Runner, logger *slog.Logger) *Scheduler {
	if runner == nil {
		runner = ExecRunner{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		runner:  runner,
		logger:  logger,
		queue:   make(chan event, 256),
		running: make(map[*Node]Handle),
	}
}

// Add schedules a node. Nodes may be added before Run or from exit
// callbacks while the loop is live.
func (s *Scheduler) Add(n *Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending = append(s.pending, n)
}

// Terminate cancels every node that does not belong to the given group.
// Running processes are killed, pending ones are skipped. The excepted
// group continues and may still add nodes (its post-processing chain).
func (s *Scheduler) Terminate(exceptGroup string) {
	s.terminated = true
	s.termExcept = exceptGroup
	for n, h := range s.running {
		if n.Group != exceptGroup {
			n.state = StateCancelled
			h.Kill()
		}
	}
}

// Run executes the dispatch loop until every node has finished, a fatal
// error occurs, or the context is cancelled. It returns the first fatal
// error (a protocol or process failure reported by an exit callback).
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			s.killAll()
			s.drain()
			if s.fatal == nil {
				s.fatal = err
			}
			return s.fatal
		}

		s.startReady(ctx)

		if len(s.running) == 0 {
			// Nothing live and startReady could not start anything:
			// either all done or the rest are skipped.
			s.skipRemaining()
			return s.fatal
		}

		select {
		case <-ctx.Done():
			s.killAll()
			s.drain()
			if s.fatal == nil {
				s.fatal = ctx.Err()
			}
			return s.fatal
		case ev := <-s.queue:
			s.handle(ev)
			if s.fatal != nil {
				s.killAll()
				s.drain()
				return s.fatal
			}
		}
	}
}

// startReady starts every pending node whose dependencies are satisfied
// and skips nodes that can never start.
func (s *Scheduler) startReady(ctx context.Context) {
	s.mu.Lock()
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	var keep []*Node
	for _, n := range pending {
		switch s.readiness(n) {
		case nodeReady:
			s.start(ctx, n)
		case nodeWaiting:
			keep = append(keep, n)
		case nodeDead:
			n.state = StateSkipped
			s.closeLog(n)
		}
	}

	s.mu.Lock()
	s.pending = append(keep, s.pending...)
	s.mu.Unlock()
}

type readiness int

const (
	nodeWaiting readiness = iota
	nodeReady
	nodeDead
)

func (s *Scheduler) readiness(n *Node) readiness {
	if s.terminated && n.Group != s.termExcept {
		return nodeDead
	}
	for _, dep := range n.Deps {
		switch dep.state {
		case StateSkipped, StateCancelled:
			return nodeDead
		case StateDone:
		default:
			return nodeWaiting
		}
	}
	return nodeReady
}

func (s *Scheduler) start(ctx context.Context, n *Node) {
	h, err := s.runner.Start(ctx, n.Command)
	if err != nil {
		s.fatal = fmt.Errorf("%s: %w", n.Name, err)
		n.state = StateSkipped
		s.closeLog(n)
		return
	}
	n.state = StateRunning
	s.running[n] = h
	s.nodeLogger(n).Debug("starting process", "command", n.Command)

	go func() {
		for line := range h.Lines() {
			s.queue <- event{node: n, line: line}
		}
		s.queue <- event{node: n, isExit: true, retcode: h.Wait()}
	}()
}

func (s *Scheduler) handle(ev event) {
	n := ev.node
	if !ev.isExit {
		if n.state == StateCancelled {
			return
		}
		if n.Logfile != nil {
			fmt.Fprintln(n.Logfile, ev.line)
		}
		fw, ok := ev.line, true
		if n.Output != nil {
			fw, ok = n.Output(ev.line)
		}
		if ok {
			s.nodeLogger(n).Info(fw)
		}
		return
	}

	delete(s.running, n)
	s.closeLog(n)
	if n.state == StateCancelled {
		return
	}
	n.state = StateDone
	n.exited = true

	if n.CheckRetcode && ev.retcode != 0 {
		s.fatal = fmt.Errorf("%s: finished with error (returncode=%d)", n.Name, ev.retcode)
		return
	}
	for _, fn := range n.exitFns {
		if err := fn(ev.retcode); err != nil {
			s.fatal = err
			return
		}
	}
}

func (s *Scheduler) killAll() {
	for n, h := range s.running {
		if n.state == StateRunning {
			n.state = StateCancelled
		}
		h.Kill()
	}
}

// drain consumes events until every reader goroutine has delivered its
// exit event, so no goroutine outlives Run.
func (s *Scheduler) drain() {
	for len(s.running) > 0 {
		ev := <-s.queue
		if ev.isExit {
			delete(s.running, ev.node)
			s.closeLog(ev.node)
		}
	}
}

func (s *Scheduler) skipRemaining() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range s.pending {
		if n.state == StatePending {
			n.state = StateSkipped
			s.closeLog(n)
		}
	}
	s.pending = nil
}

func (s *Scheduler) closeLog(n *Node) {
	if n.Logfile != nil {
		_ = n.Logfile.Close()
		n.Logfile = nil
	}
}

func (s *Scheduler) nodeLogger(n *Node) *slog.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return s.logger.With("proc", n.Name)
}
