package proc

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
)

// Handle is one live process started by a Runner.
type Handle interface {
	// Lines streams complete output lines until the process exits. The
	// channel is closed after the last line.
	Lines() <-chan string
	// Wait blocks until the process has exited and returns its exit code.
	// Must be called after Lines is drained.
	Wait() int
	// Kill terminates the process. Safe to call more than once.
	Kill()
}

// Runner starts commands. The production implementation shells out; tests
// substitute a ScriptRunner with canned transcripts.
type Runner interface {
	Start(ctx context.Context, command string) (Handle, error)
}

// ExecRunner runs commands through `sh -c` with stderr folded into stdout,
// the way verification backends are normally driven.
type ExecRunner struct{}

type execHandle struct {
	cmd      *exec.Cmd
	lines    chan string
	killOnce sync.Once
	retcode  int
	waitOnce sync.Once
}

// Start launches the command and begins pumping its output.
func (ExecRunner) Start(ctx context.Context, command string) (Handle, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}
	cmd.Stderr = cmd.Stdout
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %q: %w", command, err)
	}

	h := &execHandle{cmd: cmd, lines: make(chan string, 64)}
	go h.pump(stdout)
	return h, nil
}

func (h *execHandle) pump(r io.Reader) {
	defer close(h.lines)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		h.lines <- sc.Text()
	}
}

func (h *execHandle) Lines() <-chan string { return h.lines }

func (h *execHandle) Wait() int {
	h.waitOnce.Do(func() {
		if err := h.cmd.Wait(); err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				h.retcode = ee.ExitCode()
			} else {
				h.retcode = -1
			}
		}
	})
	return h.retcode
}

func (h *execHandle) Kill() {
	h.killOnce.Do(func() {
		if h.cmd.Process != nil {
			_ = h.cmd.Process.Kill()
		}
	})
}
