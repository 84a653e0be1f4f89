package parser

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/veridian-eda/aigpipe/internal/status"
)

// Matches log lines after the runtime/memory-stats prefix, capturing the
// severity token and the message.
var severityRe = regexp.MustCompile(`.*(TRACE|DEBUG|INFO|WARN|ERROR) (.*)`)

// JSONEvents parses the JSONL event protocol: every line starting with "{"
// is a JSON object carrying witness data ("aiw") and/or a verdict
// ("status"), everything else is a forwarded log line.
//
// A later "status" event overwrites an earlier one; last value wins. This
// mirrors the observed backend behavior; contradictory events are not
// treated as an error.
type JSONEvents struct {
	art *Artifact

	st    status.Status
	known bool
}

// NewJSONEvents creates a parser writing witness lines to art.
func NewJSONEvents(art *Artifact) *JSONEvents {
	return &JSONEvents{art: art}
}

// Line implements Protocol.
func (p *JSONEvents) Line(line string) (string, bool) {
	if !strings.HasPrefix(line, "{") {
		// Plain log line: re-emit with the stats prefix stripped. INFO
		// messages go out bare, other severities keep their token.
		if m := severityRe.FindStringSubmatch(line); m != nil {
			if m[1] == "INFO" {
				return m[2], true
			}
			return m[1] + " " + m[2], true
		}
		return "", false
	}

	var ev struct {
		Aiw    *string `json:"aiw"`
		Status *string `json:"status"`
	}
	if err := json.Unmarshal([]byte(line), &ev); err != nil {
		// Tolerated: malformed JSON stays in the private log only.
		return "", false
	}
	if ev.Aiw != nil {
		p.art.WriteLine(*ev.Aiw)
	}
	if ev.Status != nil {
		switch *ev.Status {
		case "pass":
			p.st, p.known = status.Pass, true
		case "fail":
			p.st, p.known = status.Fail, true
		}
	}
	return "", false
}

// Status implements Protocol.
func (p *JSONEvents) Status() (status.Status, bool) {
	return p.st, p.known
}
