// Package parser implements the per-backend output-protocol parsers that
// turn a live line stream into a verification verdict plus the raw
// counterexample artifact.
//
// Two mutually exclusive protocols exist: a line-oriented status protocol
// (bare status codes followed by witness lines) and a JSONL event protocol
// (one JSON object per line, with plain log lines interleaved). The
// dispatcher selects one per backend; both are stateful and must be fed
// complete lines in production order.
//
// Parse leniency is deliberate: lines matching no known pattern pass
// through to the aggregate log unchanged and unknown JSON fields are
// ignored, so forward-compatible backend output never breaks a run.
package parser

import (
	"fmt"
	"os"
)

// Artifact is the raw counterexample, an ordered line sequence written
// incrementally by a parser and consumed by the next pipeline stage once
// the owning process has exited.
type Artifact struct {
	path  string
	f     *os.File
	lines []string
}

// NewArtifact creates a file-backed artifact at path.
func NewArtifact(path string) (*Artifact, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create artifact: %w", err)
	}
	return &Artifact{path: path, f: f}, nil
}

// NewMemArtifact creates an in-memory artifact. Used by tests and by the
// offline transcript parser.
func NewMemArtifact() *Artifact {
	return &Artifact{}
}

// WriteLine appends one line to the artifact.
func (a *Artifact) WriteLine(line string) {
	a.lines = append(a.lines, line)
	if a.f != nil {
		fmt.Fprintln(a.f, line)
	}
}

// Lines returns the lines written so far.
func (a *Artifact) Lines() []string {
	return a.lines
}

// Path returns the backing file path, or "" for in-memory artifacts.
func (a *Artifact) Path() string {
	return a.path
}

// Close flushes and closes the backing file, if any.
func (a *Artifact) Close() error {
	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	return err
}
