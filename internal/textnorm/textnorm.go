// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package textnorm provides the pure text-normalization utilities the rest
// of the engine is built on: line-ending and BOM capture, whitespace
// stripping and collapsing, Unicode punctuation canonicalization, and
// indentation-profile inference.
package textnorm

import (
	"strings"
	"unicode"
)

// BOM is the UTF-8 byte-order mark.
const BOM = "\uFEFF"

// LineEnding is the line-ending convention captured from a file.
type LineEnding string

const (
	LF   LineEnding = "\n"
	CRLF LineEnding = "\r\n"
	CR   LineEnding = "\r"
)

// Layout captures the byte-level conventions of a file so they can be
// restored verbatim on output.
type Layout struct {
	Ending LineEnding
	HasBOM bool
}

// Split breaks text into lines, collapsing \r\n and bare \r to \n first,
// and captures the dominant line-ending style and any leading BOM.
// CRLF wins over bare CR when both appear.
func Split(text string) ([]string, Layout) {
	layout := Layout{Ending: LF}

	if strings.HasPrefix(text, BOM) {
		layout.HasBOM = true
		text = strings.TrimPrefix(text, BOM)
	}

	switch {
	case strings.Contains(text, "\r\n"):
		layout.Ending = CRLF
	case strings.Contains(text, "\r"):
		layout.Ending = CR
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.Split(text, "\n"), layout
}

// Join rebuilds file text from lines using the captured layout.
func Join(lines []string, layout Layout) string {
	text := strings.Join(lines, string(layout.Ending))
	if layout.HasBOM {
		return BOM + text
	}
	return text
}

// StripSpace removes every whitespace character from s.
func StripSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SpaceEqual reports whether two strings are equal ignoring all whitespace.
func SpaceEqual(a, b string) bool {
	return StripSpace(a) == StripSpace(b)
}

// CollapseSpace trims s and collapses interior runs of whitespace into a
// single space.
func CollapseSpace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inSpace := false
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsSpace(r) {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
			continue
		}
		inSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

// confusables maps visually similar Unicode punctuation to its ASCII form.
// The table only produces ASCII, so canonicalization is idempotent.
var confusables = map[rune]string{
	'‘': "'", '’': "'", '‚': "'", '‛': "'",
	'“': `"`, '”': `"`, '„': `"`, '‟': `"`,
	'‐': "-", '‑': "-", '‒': "-", '–': "-",
	'—': "-", '―': "-", '−': "-",
	'…': "...",
	' ': " ", ' ': " ", ' ': " ", ' ': " ",
	' ': " ", ' ': " ", ' ': " ", ' ': " ",
	' ': " ", ' ': " ", ' ': " ", '　': " ",
	'​': "", '‌': "", '‍': "", '\uFEFF': "",
}

// hyphens is the subset of confusables that render as a hyphen or minus.
var hyphens = map[rune]bool{
	'‐': true, '‑': true, '‒': true, '–': true,
	'—': true, '―': true, '−': true,
}

// CanonicalPunct maps smart quotes, Unicode dashes, exotic spaces, and
// zero-width characters to their ASCII equivalents. Case is preserved.
func CanonicalPunct(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if repl, ok := confusables[r]; ok {
			b.WriteString(repl)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// NormalizeHyphens replaces Unicode hyphen/minus variants with the ASCII
// hyphen and leaves everything else alone.
func NormalizeHyphens(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if hyphens[r] {
			b.WriteByte('-')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// LeadingIndent returns the run of leading whitespace characters of s.
func LeadingIndent(s string) string {
	for i, r := range s {
		if r != ' ' && r != '\t' {
			return s[:i]
		}
	}
	return s
}

// IndentWidth returns the number of leading whitespace characters of s.
func IndentWidth(s string) int {
	return len(LeadingIndent(s))
}

// Profile describes a block's indentation convention.
type Profile struct {
	Char       byte // ' ' or '\t'
	Unit       int  // characters per indentation level
	Consistent bool // true when every indented line uses the same character
}

// InferProfile inspects the leading whitespace of a block's lines and
// infers the indentation character and the smallest positive step between
// distinct indent widths. Blank lines are ignored.
func InferProfile(lines []string) Profile {
	p := Profile{Char: ' ', Unit: 1, Consistent: true}
	seen := false
	widths := map[int]bool{}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := LeadingIndent(line)
		widths[len(indent)] = true
		if indent == "" {
			continue
		}
		ch := indent[0]
		for i := 1; i < len(indent); i++ {
			if indent[i] != ch {
				p.Consistent = false
			}
		}
		if !seen {
			p.Char = ch
			seen = true
		} else if ch != p.Char {
			p.Consistent = false
		}
	}

	if unit := minPositiveStep(widths); unit > 0 {
		p.Unit = unit
	}
	return p
}

// DepthBuckets assigns each line a relative indentation depth: leading
// width minus the block minimum, divided by the smallest positive step
// observed, rounded. Blank lines get depth 0.
func DepthBuckets(lines []string) []int {
	minWidth := -1
	widths := make([]int, len(lines))
	distinct := map[int]bool{}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			widths[i] = -1
			continue
		}
		w := IndentWidth(line)
		widths[i] = w
		distinct[w] = true
		if minWidth < 0 || w < minWidth {
			minWidth = w
		}
	}

	step := minPositiveStep(distinct)
	if step <= 0 {
		step = 1
	}

	depths := make([]int, len(lines))
	for i, w := range widths {
		if w < 0 {
			continue
		}
		depths[i] = (w - minWidth + step/2) / step
	}
	return depths
}

// minPositiveStep returns the smallest positive difference between any two
// of the given widths, or 0 when fewer than two distinct widths exist.
func minPositiveStep(widths map[int]bool) int {
	var sorted []int
	for w := range widths {
		sorted = append(sorted, w)
	}
	if len(sorted) < 2 {
		return 0
	}
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j] < sorted[j-1]; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	step := 0
	for i := 1; i < len(sorted); i++ {
		d := sorted[i] - sorted[i-1]
		if d > 0 && (step == 0 || d < step) {
			step = d
		}
	}
	return step
}
