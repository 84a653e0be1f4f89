package parser

import (
	"fmt"
	"strings"
)

// Transcript feeds a saved transcript through a parser and renders the
// outcome as a stable text report: the parsed verdict, the lines that
// would have been forwarded to the aggregate log, and the artifact.
//
// Used by the offline `parse` command and by golden tests.
func Transcript(p Protocol, art *Artifact, lines []string) []byte {
	var forwarded []string
	for _, line := range lines {
		if fw, ok := p.Line(line); ok {
			forwarded = append(forwarded, fw)
		}
	}

	var b strings.Builder
	if st, known := p.Status(); known {
		fmt.Fprintf(&b, "verdict: %s\n", st)
	} else {
		b.WriteString("verdict: none\n")
	}
	b.WriteString("forwarded:\n")
	for _, line := range forwarded {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	b.WriteString("artifact:\n")
	for _, line := range art.Lines() {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return []byte(b.String())
}
