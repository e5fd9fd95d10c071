// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Heuristic corrections for replacement text. Each is an independent pure
// function with explicit guards, operating only on the pre-batch snapshot
// content, never on lines another operation already touched.

package engine

import (
	"regexp"
	"strings"

	"github.com/petar-djukic/hashedit/internal/textnorm"
)

// hashlinePrefix matches an echoed display-grammar prefix: "N:HH|".
var hashlinePrefix = regexp.MustCompile(`^\s*\d+:[0-9a-fA-F]{2}\|`)

// preprocessText splits replacement text into lines and strips an
// accidental hashline or diff-marker prefix when at least half the
// non-blank lines carry it. Callers sometimes echo the format they were
// shown. Empty text means zero lines, i.e. deletion.
func preprocessText(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")

	nonBlank, hashHits, plusHits := 0, 0, 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonBlank++
		if hashlinePrefix.MatchString(line) {
			hashHits++
		}
		if strings.HasPrefix(line, "+") {
			plusHits++
		}
	}
	if nonBlank == 0 {
		return lines
	}

	switch {
	case hashHits*2 >= nonBlank:
		for i, line := range lines {
			if m := hashlinePrefix.FindString(line); m != "" {
				lines[i] = line[len(m):]
			}
		}
	case plusHits*2 >= nonBlank:
		for i, line := range lines {
			if strings.HasPrefix(line, "+") {
				lines[i] = line[1:]
			}
		}
	}
	return lines
}

// stripEchoBoundaries drops a leading replacement line that repeats the
// line immediately before the touched span, and a trailing one that
// repeats the line immediately after. Comparison ignores all whitespace.
// Blank lines are never treated as echoes: two blanks matching is
// coincidence, not an echo.
func stripEchoBoundaries(repl []string, before, after string, hasBefore, hasAfter bool) []string {
	if len(repl) > 0 && hasBefore &&
		strings.TrimSpace(repl[0]) != "" && strings.TrimSpace(before) != "" &&
		textnorm.SpaceEqual(repl[0], before) {
		repl = repl[1:]
	}
	if len(repl) > 0 && hasAfter &&
		strings.TrimSpace(repl[len(repl)-1]) != "" && strings.TrimSpace(after) != "" &&
		textnorm.SpaceEqual(repl[len(repl)-1], after) {
		repl = repl[:len(repl)-1]
	}
	return repl
}

// connectives are the trailing tokens that mark a line as a truncated
// continuation of the next one.
var connectives = []string{"&&", "||", "?", ":", "=", ",", "+", "-", "*", "/", ".", "("}

// endsInConnective reports whether the whitespace-stripped line ends with
// a connective token.
func endsInConnective(line string) bool {
	s := textnorm.StripSpace(line)
	if s == "" {
		return false
	}
	for _, tok := range connectives {
		if strings.HasSuffix(s, tok) {
			return true
		}
	}
	return false
}

// mergeLenTolerance bounds how much longer the merged replacement may be
// than the two fragments it subsumes.
const mergeLenTolerance = 12

// mergesPair reports whether a single replacement line subsumes the two
// given original lines: the first ends in a connective, and the
// replacement's whitespace-stripped form contains both fragments in order
// within the length tolerance.
func mergesPair(repl, first, second string) bool {
	if !endsInConnective(first) {
		return false
	}
	r := textnorm.StripSpace(repl)
	f1 := textnorm.StripSpace(first)
	f2 := textnorm.StripSpace(second)
	if f1 == "" || f2 == "" {
		return false
	}
	i := strings.Index(r, f1)
	if i < 0 {
		return false
	}
	if !strings.Contains(r[i+len(f1):], f2) {
		return false
	}
	return len(r) <= len(f1)+len(f2)+mergeLenTolerance
}

const (
	wrapSpanMin  = 2
	wrapSpanMax  = 10
	wrapCanonMin = 6
)

// restoreWrappedLines undoes accidental re-wrapping: when a contiguous
// sub-span of the replacement concatenates (whitespace-stripped) to
// exactly one original line's stripped form, the sub-span is replaced
// with that original line verbatim. Canonical forms shorter than six
// characters or duplicated among the originals are not eligible, and a
// form claimed by more than one candidate span is skipped. Splices run
// right to left so earlier ones don't invalidate later indices.
func restoreWrappedLines(repl, oldSpan []string) []string {
	if len(repl) < wrapSpanMin || len(repl) == len(oldSpan) {
		return repl
	}

	// Eligible canonical forms: long enough and unique among the originals.
	counts := map[string]int{}
	for _, line := range oldSpan {
		counts[textnorm.StripSpace(line)]++
	}
	original := map[string]string{}
	for _, line := range oldSpan {
		c := textnorm.StripSpace(line)
		if len(c) >= wrapCanonMin && counts[c] == 1 {
			original[c] = line
		}
	}
	if len(original) == 0 {
		return repl
	}

	type span struct{ start, length int }
	candidates := map[string][]span{}
	stripped := make([]string, len(repl))
	for i, line := range repl {
		stripped[i] = textnorm.StripSpace(line)
	}
	for i := 0; i < len(repl); i++ {
		var concat strings.Builder
		for l := 1; l <= wrapSpanMax && i+l <= len(repl); l++ {
			concat.WriteString(stripped[i+l-1])
			if l < wrapSpanMin {
				continue
			}
			if _, ok := original[concat.String()]; ok {
				candidates[concat.String()] = append(candidates[concat.String()], span{i, l})
			}
		}
	}

	// Collect unique-candidate splices and apply them right to left.
	var splices []span
	canonFor := map[int]string{}
	for c, spans := range candidates {
		if len(spans) != 1 {
			continue
		}
		splices = append(splices, spans[0])
		canonFor[spans[0].start] = c
	}
	for i := 1; i < len(splices); i++ {
		for j := i; j > 0 && splices[j].start > splices[j-1].start; j-- {
			splices[j], splices[j-1] = splices[j-1], splices[j]
		}
	}

	lastStart := len(repl)
	for _, sp := range splices {
		if sp.start+sp.length > lastStart {
			continue // overlaps a splice already applied to the right
		}
		line := original[canonFor[sp.start]]
		repl = append(repl[:sp.start], append([]string{line}, repl[sp.start+sp.length:]...)...)
		lastStart = sp.start
	}
	return repl
}

// restoreIndent copies the original leading indentation onto replacement
// lines that arrived with none. Only applies when line counts match.
func restoreIndent(repl, oldSpan []string) []string {
	if len(repl) != len(oldSpan) {
		return repl
	}
	out := make([]string, len(repl))
	for i, line := range repl {
		indent := textnorm.LeadingIndent(oldSpan[i])
		if indent != "" && textnorm.LeadingIndent(line) == "" && strings.TrimSpace(line) != "" {
			out[i] = indent + line
			continue
		}
		out[i] = line
	}
	return out
}

// foldConfusableHyphens returns the original span when the replacement
// differs from it only by Unicode hyphen/minus lookalikes. A final
// no-op-avoidance check, nothing more.
func foldConfusableHyphens(repl, oldSpan []string) []string {
	joinedNew := strings.Join(repl, "\n")
	joinedOld := strings.Join(oldSpan, "\n")
	if joinedNew != joinedOld && textnorm.NormalizeHyphens(joinedNew) == joinedOld {
		out := make([]string, len(oldSpan))
		copy(out, oldSpan)
		return out
	}
	return repl
}
