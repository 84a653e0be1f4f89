// Package hierarchy models the design/property database consumed by the
// SMT refinement stage: a set of named assertion/cover cells addressed by
// dot-delimited hierarchical paths, with support for Verilog extended
// identifiers (`\name ` escaped tokens).
package hierarchy

import "regexp"

// Matches one path segment: either a backslash-escaped token terminated by
// an unescaped space, or a run of non-dot characters, each followed by a
// dot or end of string.
var modPathRe = regexp.MustCompile(`(\\([^ ]*) |[^.]+)(?:\.|$)`)

// ParseModPath splits a hierarchical path on dots while keeping escaped
// `\name ` tokens intact (the space terminator is consumed, the backslash
// is dropped).
//
//	ParseModPath("a.b.c")          returns ["a", "b", "c"]
//	ParseModPath(`a.\b.c .d`)      returns ["a", "b.c", "d"]
func ParseModPath(s string) []string {
	var segs []string
	for _, m := range modPathRe.FindAllStringSubmatch(s, -1) {
		if m[2] != "" {
			segs = append(segs, m[2])
		} else {
			segs = append(segs, m[1])
		}
	}
	return segs
}

// SMTTrans is the character translation applied when resolving names from
// SMT solver transcripts: both the Verilog escape lead-in and the internal
// scope separator collapse to the canonical hierarchy separator.
var SMTTrans = map[rune]rune{'\\': '/', '|': '/'}

// Translate applies a character translation table to s.
func Translate(s string, trans map[rune]rune) string {
	if len(trans) == 0 {
		return s
	}
	out := make([]rune, 0, len(s))
	for _, c := range s {
		if r, ok := trans[c]; ok {
			out = append(out, r)
		} else {
			out = append(out, c)
		}
	}
	return string(out)
}
