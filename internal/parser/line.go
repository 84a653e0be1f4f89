package parser

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/veridian-eda/aigpipe/internal/status"
)

// Protocol is the common surface of the two output-protocol parsers.
// Line consumes one complete output line and returns the line to forward
// to the aggregate log (ok=false swallows it). Status reports the verdict
// parsed so far and whether any verdict has been seen.
type Protocol interface {
	Line(line string) (forward string, ok bool)
	Status() (status.Status, bool)
}

var noCexRe = regexp.MustCompile(`^u(\d+)$`)

// LineStatus parses the line-oriented status protocol: before the verdict,
// a bare "0"/"1"/"2" line sets it; afterwards, witness lines are collected
// into the artifact until a lone "." terminator.
//
// State is explicit rather than captured in a closure so a parser can be
// inspected mid-stream and re-used by the offline transcript command.
type LineStatus struct {
	status2 status.Status
	art     *Artifact

	st          status.Status
	known       bool
	endOfCex    bool
	producedCex bool
}

// NewLineStatus creates a parser. status2 is the backend-specific meaning
// of the status code "2" (Pass for bounded backends that report "no
// counterexample within depth" that way, Unknown otherwise; an Unknown
// verdict at exit is a protocol error reported by the aggregator).
func NewLineStatus(status2 status.Status, art *Artifact) *LineStatus {
	return &LineStatus{status2: status2, art: art}
}

// Line implements Protocol.
func (p *LineStatus) Line(line string) (string, bool) {
	if p.known {
		if p.endOfCex {
			// Collection already terminated; late lines are dropped.
			return "", false
		}
		if !p.producedCex && isDigits(line) {
			p.producedCex = true
		}
		if line == "." {
			p.endOfCex = true
			return "", false
		}
		p.art.WriteLine(line)
		return "", false
	}

	if m := noCexRe.FindStringSubmatch(line); m != nil {
		depth, _ := strconv.Atoi(m[1])
		return fmt.Sprintf("No CEX up to depth %d.", depth-1), true
	}

	switch line {
	case "0":
		p.art.WriteLine(line)
		p.set(status.Pass)
	case "1":
		p.art.WriteLine(line)
		p.set(status.Fail)
	case "2":
		p.art.WriteLine(line)
		p.set(p.status2)
	default:
		return line, true
	}
	return "", false
}

// Status implements Protocol.
func (p *LineStatus) Status() (status.Status, bool) {
	return p.st, p.known
}

// ProducedCex reports whether a digit-only witness line was seen while
// collecting. Diagnostic only; it does not alter control flow.
func (p *LineStatus) ProducedCex() bool {
	return p.producedCex
}

func (p *LineStatus) set(st status.Status) {
	p.st = st
	p.known = true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
