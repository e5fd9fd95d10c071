// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import (
	"fmt"
	"strings"
)

// ParseError reports a malformed anchor string, a malformed operation
// shape, or an empty required field. Index is the 0-based position of the
// offending operation in the batch, or -1 when no batch is in play.
type ParseError struct {
	Index   int
	Input   string
	Message string
}

func (e *ParseError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("operation %d: %s: %q", e.Index, e.Message, e.Input)
	}
	return fmt.Sprintf("%s: %q", e.Message, e.Input)
}

// OutOfRangeError reports an anchor line number outside the file bounds.
type OutOfRangeError struct {
	Line      int
	FileLines int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("line %d out of range (file has %d lines)", e.Line, e.FileLines)
}

// RangeOrderError reports a range whose start line exceeds its end line
// after any relocation.
type RangeOrderError struct {
	Start int
	End   int
}

func (e *RangeOrderError) Error() string {
	return fmt.Sprintf("range start line %d is after end line %d", e.Start, e.End)
}

// Mismatch records one anchor whose fingerprint no longer matches the file
// and could not be relocated.
type Mismatch struct {
	Line     int    // anchor line number as submitted
	Expected string // fingerprint the caller sent
	Actual   string // fingerprint of the line currently at that position
	Content  string // current content at that position
}

// HashMismatchError aborts a whole batch before any mutation. It carries
// every unresolved anchor plus a rendered context report with suggested
// replacement refs.
type HashMismatchError struct {
	Mismatches []Mismatch
	Report     string // rendered per the mismatch report text contract
}

func (e *HashMismatchError) Error() string {
	return e.Report
}

// AmbiguousMatchError reports a substring search target that occurs more
// than once when "replace all" was not requested.
type AmbiguousMatchError struct {
	Target   string
	Lines    []int    // line numbers of the occurrences (capped)
	Previews []string // bounded context previews, aligned with Lines
	Total    int      // total occurrences, may exceed len(Lines)
}

func (e *AmbiguousMatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "text occurs %d times; pass \"all\" to replace every occurrence, or widen the search text:", e.Total)
	for i, line := range e.Lines {
		fmt.Fprintf(&b, "\n\tline %d: %s", line, e.Previews[i])
	}
	if e.Total > len(e.Lines) {
		fmt.Fprintf(&b, "\n\t... and %d more", e.Total-len(e.Lines))
	}
	return b.String()
}

// MatchFailedError reports a substring search that found no acceptable
// match. The closest candidate is included for diagnostics only; it was
// not applied.
type MatchFailedError struct {
	Target     string
	Closest    string  // best candidate window (empty if nothing scored)
	Score      float64 // similarity of the closest candidate
	StartLine  int     // 1-based line span of the closest candidate
	EndLine    int
	Candidates int // windows at or above the acceptance threshold
}

func (e *MatchFailedError) Error() string {
	if e.Closest == "" {
		return "no match found for search text"
	}
	return fmt.Sprintf("no acceptable match for search text (closest at lines %d-%d, similarity %.2f, %d candidates above threshold)",
		e.StartLine, e.EndLine, e.Score, e.Candidates)
}

// NoOpError is raised when a batch's net effect is empty: every operation
// degenerated to a no-op, so the file was not written. Callers should
// re-read the file rather than assume the edit landed.
type NoOpError struct {
	NoOps []NoOp
}

func (e *NoOpError) Error() string {
	var b strings.Builder
	b.WriteString("batch had no effect; every operation matched current content:")
	for _, n := range e.NoOps {
		fmt.Fprintf(&b, "\n\top %d at line %d: %s", n.OpIndex, n.Line, n.Content)
	}
	return b.String()
}
