// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fuzzy resolves anchor-free substring edits. Exact occurrences
// win outright; otherwise a normalized line window slides over the content
// and the best-scoring window is accepted only when it clears the
// acceptance threshold and is either unique or dominant.
package fuzzy

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/petar-djukic/hashedit/internal/textnorm"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// Config holds the similarity thresholds. The exact values are tunable;
// their ordering (fallback < accept < dominant) is what matters.
type Config struct {
	Accept   float64 // minimum score for auto-acceptance
	Fallback float64 // lower bound for trying depth-free normalization
	Dominant float64 // score that wins without being the unique candidate
	Margin   float64 // required lead over the runner-up for dominance
}

// DefaultConfig returns the default thresholds.
func DefaultConfig() Config {
	return Config{Accept: 0.95, Fallback: 0.80, Dominant: 0.97, Margin: 0.08}
}

// previewCap bounds the number of occurrences listed in an ambiguity error.
const previewCap = 5

// previewWidth bounds the rendered length of one occurrence preview.
const previewWidth = 80

// Outcome describes a successful substring replacement.
type Outcome struct {
	Lines     []string // resulting line array
	Count     int      // occurrences replaced
	FirstLine int      // 1-based line of the first replacement
}

// Replace applies a substring-style edit to lines. Exact occurrences win
// outright; when none exist it falls back to fuzzy window matching. An
// unacceptable best candidate is reported through MatchFailedError
// without being applied.
func Replace(lines []string, old, new string, all bool, cfg Config) (*Outcome, error) {
	if old == "" {
		return nil, &types.ParseError{Index: -1, Input: old, Message: "empty search text"}
	}

	content := strings.Join(lines, "\n")

	if offsets := findAll(content, old); len(offsets) > 0 {
		if len(offsets) > 1 && !all {
			return nil, ambiguityError(content, old, offsets)
		}
		var result string
		count := 1
		if all {
			result = strings.ReplaceAll(content, old, new)
			count = len(offsets)
		} else {
			result = content[:offsets[0]] + new + content[offsets[0]+len(old):]
		}
		return &Outcome{
			Lines:     strings.Split(result, "\n"),
			Count:     count,
			FirstLine: strings.Count(content[:offsets[0]], "\n") + 1,
		}, nil
	}

	return fuzzyReplace(lines, old, new, cfg)
}

// findAll returns the byte offsets of every non-overlapping occurrence.
func findAll(content, target string) []int {
	var offsets []int
	start := 0
	for {
		i := strings.Index(content[start:], target)
		if i < 0 {
			return offsets
		}
		offsets = append(offsets, start+i)
		start += i + len(target)
	}
}

// ambiguityError builds an AmbiguousMatchError with bounded previews.
func ambiguityError(content, target string, offsets []int) error {
	e := &types.AmbiguousMatchError{Target: target, Total: len(offsets)}
	for _, off := range offsets {
		if len(e.Lines) == previewCap {
			break
		}
		line := strings.Count(content[:off], "\n") + 1
		e.Lines = append(e.Lines, line)
		e.Previews = append(e.Previews, preview(lineAt(content, off)))
	}
	return e
}

// lineAt returns the full content line containing the byte offset.
func lineAt(content string, off int) string {
	start := strings.LastIndex(content[:off], "\n") + 1
	end := strings.Index(content[off:], "\n")
	if end < 0 {
		return content[start:]
	}
	return content[start : off+end]
}

func preview(line string) string {
	s := textnorm.CollapseSpace(line)
	runes := []rune(s)
	if len(runes) > previewWidth {
		return string(runes[:previewWidth]) + "..."
	}
	return s
}

// candidate is one scored window position.
type candidate struct {
	start int // 0-based first line of the window
	score float64
}

// scan holds the outcome of one normalization pass over the content.
type scan struct {
	best        candidate
	runnerUp    float64
	aboveAccept int
}

// fuzzyReplace slides a normalized window the height of the target across
// the content. Pass 1 prefixes each line with its relative indentation
// depth; pass 2 drops the prefix and is only tried (and only adopted) when
// pass 1 lands between the fallback and acceptance thresholds and pass 2
// scores strictly higher.
func fuzzyReplace(lines []string, old, new string, cfg Config) (*Outcome, error) {
	target := blockLines(old)
	if len(target) == 0 || len(target) > len(lines) {
		return nil, &types.MatchFailedError{Target: old}
	}

	result := scanWindows(lines, target, true, cfg.Accept)
	if result.best.score < cfg.Accept && result.best.score >= cfg.Fallback {
		if second := scanWindows(lines, target, false, cfg.Accept); second.best.score > result.best.score {
			result = second
		}
	}

	best := result.best
	accepted := best.score >= cfg.Accept &&
		(result.aboveAccept == 1 || (best.score >= cfg.Dominant && best.score-result.runnerUp >= cfg.Margin))

	window := lines[best.start : best.start+len(target)]
	if !accepted {
		return nil, &types.MatchFailedError{
			Target:     old,
			Closest:    strings.Join(window, "\n"),
			Score:      best.score,
			StartLine:  best.start + 1,
			EndLine:    best.start + len(target),
			Candidates: result.aboveAccept,
		}
	}

	repl := adaptIndent(window, target, blockLines(new))
	out := make([]string, 0, len(lines)-len(target)+len(repl))
	out = append(out, lines[:best.start]...)
	out = append(out, repl...)
	out = append(out, lines[best.start+len(target):]...)
	return &Outcome{Lines: out, Count: 1, FirstLine: best.start + 1}, nil
}

// blockLines splits snippet text into lines, dropping the empty line a
// trailing newline produces.
func blockLines(s string) []string {
	lines := strings.Split(s, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// scanWindows scores every window of the target's height.
func scanWindows(lines, target []string, withDepth bool, accept float64) scan {
	normTarget := normalizeBlock(target, withDepth)
	result := scan{best: candidate{start: -1}}

	for i := 0; i+len(target) <= len(lines); i++ {
		normWindow := normalizeBlock(lines[i:i+len(target)], withDepth)
		score := meanSimilarity(normWindow, normTarget)

		if score > result.best.score || result.best.start < 0 {
			result.runnerUp = result.best.score
			result.best = candidate{start: i, score: score}
		} else if score > result.runnerUp {
			result.runnerUp = score
		}
		if score >= accept {
			result.aboveAccept++
		}
	}
	return result
}

// normalizeBlock canonicalizes a block for comparison: optional relative
// indentation depth prefix, then punctuation canonicalization and
// whitespace collapsing. Case is preserved.
func normalizeBlock(block []string, withDepth bool) []string {
	depths := textnorm.DepthBuckets(block)
	norm := make([]string, len(block))
	for i, line := range block {
		s := textnorm.CollapseSpace(textnorm.CanonicalPunct(line))
		if withDepth {
			s = fmt.Sprintf("%d>%s", depths[i], s)
		}
		norm[i] = s
	}
	return norm
}

// meanSimilarity averages per-line similarity across a window.
func meanSimilarity(window, target []string) float64 {
	if len(window) == 0 {
		return 0
	}
	var sum float64
	for i := range window {
		sum += similarity(window[i], target[i])
	}
	return sum / float64(len(window))
}

// similarity is the normalized Levenshtein ratio between two strings,
// computed with the go-diff library.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// adaptIndent shifts the replacement's indentation to match the matched
// window rather than the caller's literal snippet. It applies a uniform
// leading-whitespace delta (window indent minus snippet indent), or a
// tab/space unit conversion when the two sides use consistent but
// different indentation characters. Blank lines are left alone.
func adaptIndent(window, snippet, repl []string) []string {
	if len(window) != len(snippet) {
		return repl
	}

	delta, uniform := indentDelta(window, snippet)
	winProfile := textnorm.InferProfile(window)
	snipProfile := textnorm.InferProfile(snippet)

	switch {
	case uniform && delta != 0:
		return shiftIndent(repl, delta, winProfile)
	case winProfile.Consistent && snipProfile.Consistent && winProfile.Char != snipProfile.Char:
		return convertIndent(repl, snipProfile, winProfile)
	default:
		return repl
	}
}

// indentDelta returns the constant indent-width difference across
// corresponding non-blank line pairs, or uniform=false when it varies.
func indentDelta(window, snippet []string) (delta int, uniform bool) {
	seen := false
	for i := range window {
		if strings.TrimSpace(window[i]) == "" || strings.TrimSpace(snippet[i]) == "" {
			continue
		}
		d := textnorm.IndentWidth(window[i]) - textnorm.IndentWidth(snippet[i])
		if !seen {
			delta, seen = d, true
			continue
		}
		if d != delta {
			return 0, false
		}
	}
	return delta, seen
}

// shiftIndent adds or removes delta leading characters on every non-blank
// line, using the window's indentation character when adding.
func shiftIndent(lines []string, delta int, profile textnorm.Profile) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		if delta > 0 {
			out[i] = strings.Repeat(string(profile.Char), delta) + line
			continue
		}
		trim := -delta
		if w := textnorm.IndentWidth(line); trim > w {
			trim = w
		}
		out[i] = line[trim:]
	}
	return out
}

// convertIndent re-expresses each non-blank line's leading indent in the
// window's indentation character, preserving the depth in units.
func convertIndent(lines []string, from, to textnorm.Profile) []string {
	fromUnit := from.Unit
	if fromUnit < 1 {
		fromUnit = 1
	}
	toUnit := to.Unit
	if toUnit < 1 {
		toUnit = 1
	}
	out := make([]string, len(lines))
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			out[i] = line
			continue
		}
		units := textnorm.IndentWidth(line) / fromUnit
		out[i] = strings.Repeat(string(to.Char), units*toUnit) + strings.TrimLeft(line, " \t")
	}
	return out
}
