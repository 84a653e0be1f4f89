package proc

import (
	"context"
	"fmt"
	"sync"
)

// Script is a canned process transcript used in place of a real command.
type Script struct {
	// Lines are emitted in order as the process output.
	Lines []string
	// Retcode is the exit code reported after the last line.
	Retcode int
	// Block, when non-nil, delays the exit until the channel is closed.
	// Lets tests hold a sibling process "running" while another finishes.
	Block <-chan struct{}
}

// ScriptRunner resolves commands to canned transcripts. Commands without a
// script fail to start, which keeps tests honest about which commands the
// code under test actually builds.
type ScriptRunner struct {
	mu      sync.Mutex
	scripts map[string]Script
	started []string
}

// NewScriptRunner creates an empty ScriptRunner.
func NewScriptRunner() *ScriptRunner {
	return &ScriptRunner{scripts: make(map[string]Script)}
}

// On registers the transcript for an exact command line.
func (r *ScriptRunner) On(command string, s Script) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scripts[command] = s
}

// Started returns the command lines started so far, in start order.
func (r *ScriptRunner) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.started...)
}

// Start implements Runner.
func (r *ScriptRunner) Start(ctx context.Context, command string) (Handle, error) {
	r.mu.Lock()
	s, ok := r.scripts[command]
	if ok {
		r.started = append(r.started, command)
	}
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no script for command %q", command)
	}

	h := &scriptHandle{retcode: s.Retcode, lines: make(chan string), killed: make(chan struct{})}
	go func() {
		defer close(h.lines)
		for _, line := range s.Lines {
			select {
			case h.lines <- line:
			case <-h.killed:
				return
			case <-ctx.Done():
				return
			}
		}
		if s.Block != nil {
			select {
			case <-s.Block:
			case <-h.killed:
			case <-ctx.Done():
			}
		}
	}()
	return h, nil
}

type scriptHandle struct {
	lines    chan string
	retcode  int
	killOnce sync.Once
	killed   chan struct{}
}

func (h *scriptHandle) Lines() <-chan string { return h.lines }

func (h *scriptHandle) Wait() int {
	select {
	case <-h.killed:
		return -1
	default:
		return h.retcode
	}
}

func (h *scriptHandle) Kill() {
	h.killOnce.Do(func() { close(h.killed) })
}
