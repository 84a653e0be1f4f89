// Package status defines the canonical verification verdict shared by the
// dispatcher, the output-protocol parsers and the post-processing pipeline.
//
// A verdict starts as Unknown and must be resolved to Pass or Fail by the
// time the producing process exits; an Unknown verdict at exit is a protocol
// error, never a valid result.
package status

import "fmt"

// Status is the verification verdict for one engine or for the whole task.
type Status int

const (
	// Unknown means no conclusive verdict has been produced yet.
	Unknown Status = iota
	// Pass means the property set was proven (or no counterexample exists
	// within the explored bound).
	Pass
	// Fail means a counterexample was found.
	Fail
)

// String returns the uppercase wire spelling used in logs and the summary.
func (s Status) String() string {
	switch s {
	case Unknown:
		return "UNKNOWN"
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// Conclusive reports whether s is a terminal verdict.
func (s Status) Conclusive() bool {
	return s == Pass || s == Fail
}

// Fold merges a newly published engine verdict into the task-wide verdict.
//
// Fail is sticky: once any engine has found a counterexample the task has
// failed regardless of what sibling engines report. Pass only upgrades an
// Unknown task verdict. Unknown never changes anything.
func Fold(task, engine Status) Status {
	switch {
	case engine == Fail:
		return Fail
	case engine == Pass && task == Unknown:
		return Pass
	default:
		return task
	}
}

// Parse converts the wire spelling back into a Status.
func Parse(s string) (Status, error) {
	switch s {
	case "UNKNOWN":
		return Unknown, nil
	case "PASS":
		return Pass, nil
	case "FAIL":
		return Fail, nil
	}
	return Unknown, fmt.Errorf("invalid status %q", s)
}
