// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package engine validates and applies batches of anchor-addressed edits
// against one file snapshot. Validation is all-or-nothing: every anchor is
// checked (and relocated where safe) before any line is touched, so a
// mismatch aborts the batch with no rollback needed.
package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petar-djukic/hashedit/internal/fuzzy"
	"github.com/petar-djukic/hashedit/internal/hashline"
	"github.com/petar-djukic/hashedit/internal/textnorm"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// Config holds the engine's tunable knobs.
type Config struct {
	Fuzzy             fuzzy.Config
	ReformatWarnRatio float64 // changed-lines per operation before warning
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{Fuzzy: fuzzy.DefaultConfig(), ReformatWarnRatio: 4.0}
}

// Engine applies edit batches. It is stateless across calls; the
// fingerprint index is derived per call and discarded.
type Engine struct {
	cfg Config
}

// New creates an Engine, filling zero config fields with defaults.
func New(cfg Config) *Engine {
	def := DefaultConfig()
	if cfg.Fuzzy == (fuzzy.Config{}) {
		cfg.Fuzzy = def.Fuzzy
	}
	if cfg.ReformatWarnRatio == 0 {
		cfg.ReformatWarnRatio = def.ReformatWarnRatio
	}
	return &Engine{cfg: cfg}
}

// Apply runs a whole batch against the file text: parse, validate and
// relocate all anchors, dedupe, order bottom-up, apply with heuristic
// corrections, and restore the original line-ending and BOM conventions.
// Any validation failure returns before a single line is modified. A
// batch whose net effect is empty returns NoOpError.
func (e *Engine) Apply(text string, raw []types.RawOp) (*types.ApplyResult, error) {
	ops, err := parseOps(raw)
	if err != nil {
		return nil, err
	}

	lines, layout := textnorm.Split(text)
	orig := make([]string, len(lines))
	copy(orig, lines)

	if err := validate(ops, orig); err != nil {
		return nil, err
	}

	ops = dedupe(ops)
	anchored, substring := sortBottomUp(ops)

	result := &types.ApplyResult{}
	cur := make([]string, len(orig))
	copy(cur, orig)

	mutated := false
	anchorSet := anchoredLines(anchored)
	for _, o := range anchored {
		next := e.applyAnchored(cur, orig, o, anchorSet, result)
		if !equalLines(next, cur) {
			mutated = true
		}
		cur = next
	}

	for _, o := range substring {
		out, err := fuzzy.Replace(cur, o.old, o.new, o.all, e.cfg.Fuzzy)
		if err != nil {
			return nil, err
		}
		if equalLines(out.Lines, cur) {
			result.NoOps = append(result.NoOps, types.NoOp{OpIndex: o.idx, Line: out.FirstLine, Content: o.old})
			continue
		}
		mutated = true
		cur = out.Lines
	}

	result.Text = textnorm.Join(cur, layout)
	if !mutated || result.Text == text {
		return nil, &types.NoOpError{NoOps: result.NoOps}
	}
	result.Changed = true
	result.FirstChangedLine = firstChangedLine(orig, cur)

	if changed := changedLineCount(orig, cur); float64(changed) > e.cfg.ReformatWarnRatio*float64(len(raw)) {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d lines changed for %d operations; the edit may have caused unintended reformatting", changed, len(raw)))
	}
	return result, nil
}

// validate resolves every anchor against the snapshot, relocating stale
// line numbers to the unique line owning the same fingerprint. All
// mismatches are collected before failing so the report is complete.
func validate(ops []*op, lines []string) error {
	unique, ambiguous := fingerprintIndex(lines)

	var mismatches []types.Mismatch
	record := func(a types.Anchor) {
		mismatches = append(mismatches, types.Mismatch{
			Line:     a.Line,
			Expected: a.Hash,
			Actual:   hashline.Hash(lines[a.Line-1]),
			Content:  lines[a.Line-1],
		})
	}

	resolve := func(a types.Anchor) (int, bool, error) {
		if a.Line < 1 || a.Line > len(lines) {
			return 0, false, &types.OutOfRangeError{Line: a.Line, FileLines: len(lines)}
		}
		if hashline.Matches(a, hashline.Hash(lines[a.Line-1])) {
			return a.Line, true, nil
		}
		if key, ok := hashline.IndexKey(a); ok && !ambiguous[key] {
			if line, ok := unique[key]; ok {
				return line, true, nil
			}
		}
		return 0, false, nil
	}

	for _, o := range ops {
		switch o.kind {
		case opSet, opInsert:
			line, ok, err := resolve(o.start)
			if err != nil {
				return err
			}
			if !ok {
				record(o.start)
				continue
			}
			o.startLine, o.endLine = line, line

		case opRange:
			start, okS, err := resolve(o.start)
			if err != nil {
				return err
			}
			end, okE, err := resolve(o.end)
			if err != nil {
				return err
			}
			if !okS || !okE {
				if !okS {
					record(o.start)
				}
				if !okE {
					record(o.end)
				}
				continue
			}

			// Relocation must preserve the range's shape: same span size,
			// start still before end. A partial relocation is worse than a
			// reported mismatch.
			relocated := start != o.start.Line || end != o.end.Line
			if relocated && (end-start != o.end.Line-o.start.Line || start > end) {
				if start != o.start.Line {
					record(o.start)
				}
				if end != o.end.Line {
					record(o.end)
				}
				continue
			}
			if start > end {
				return &types.RangeOrderError{Start: start, End: end}
			}
			o.startLine, o.endLine = start, end
		}
	}

	if len(mismatches) > 0 {
		return &types.HashMismatchError{
			Mismatches: mismatches,
			Report:     renderMismatchReport(mismatches, lines),
		}
	}
	return nil
}

// fingerprintIndex maps each fingerprint to its unique owning line.
// Fingerprints occurring on two or more lines are ambiguous and excluded
// from relocation.
func fingerprintIndex(lines []string) (unique map[string]int, ambiguous map[string]bool) {
	unique = make(map[string]int, len(lines))
	ambiguous = map[string]bool{}
	for i, line := range lines {
		h := hashline.Hash(line)
		if _, seen := unique[h]; seen {
			ambiguous[h] = true
			delete(unique, h)
			continue
		}
		if !ambiguous[h] {
			unique[h] = i + 1
		}
	}
	return unique, ambiguous
}

// reportContext is the number of lines shown around each mismatch.
const reportContext = 2

// renderMismatchReport renders the stale-anchor report: a count line, a
// context block in the display grammar with ">>>" marking mismatched
// lines, and a quick-fix section remapping every stale ref.
func renderMismatchReport(mismatches []types.Mismatch, lines []string) string {
	// Distinct lines, not mismatch entries: two stale anchors naming the
	// same line are one changed line.
	distinct := map[int]bool{}
	for _, m := range mismatches {
		distinct[m.Line] = true
	}

	var b strings.Builder
	if len(distinct) == 1 {
		b.WriteString("1 line has changed since the file was last read.\n\n")
	} else {
		fmt.Fprintf(&b, "%d lines have changed since the file was last read.\n\n", len(distinct))
	}

	marked := map[int]bool{}
	show := map[int]bool{}
	for _, m := range mismatches {
		marked[m.Line] = true
		for l := m.Line - reportContext; l <= m.Line+reportContext; l++ {
			if l >= 1 && l <= len(lines) {
				show[l] = true
			}
		}
	}

	var nums []int
	for l := range show {
		nums = append(nums, l)
	}
	sort.Ints(nums)

	prev := 0
	for _, l := range nums {
		if prev != 0 && l != prev+1 {
			b.WriteString("...\n")
		}
		prefix := "    "
		if marked[l] {
			prefix = ">>> "
		}
		b.WriteString(prefix)
		b.WriteString(hashline.Tag(l, lines[l-1]))
		b.WriteByte('\n')
		prev = l
	}

	b.WriteString("\nQuick fix — replace stale refs:\n")
	for _, m := range mismatches {
		fmt.Fprintf(&b, "\t%d:%s → %d:%s\n", m.Line, m.Expected, m.Line, m.Actual)
	}
	return b.String()
}

// anchoredLines is the set of snapshot lines explicitly anchored by some
// operation, used to keep merge expansion away from a neighbor another
// edit owns.
func anchoredLines(ops []*op) map[int]bool {
	set := map[int]bool{}
	for _, o := range ops {
		for l := o.startLine; l <= o.endLine; l++ {
			set[l] = true
		}
	}
	return set
}

// applyAnchored applies one anchor-based operation to cur. All heuristic
// comparisons read the pre-batch snapshot, never already-edited lines.
func (e *Engine) applyAnchored(cur, orig []string, o *op, anchorSet map[int]bool, result *types.ApplyResult) []string {
	repl := preprocessText(o.text)

	switch o.kind {
	case opInsert:
		if len(repl) > 0 && strings.TrimSpace(repl[0]) != "" && textnorm.SpaceEqual(repl[0], orig[o.startLine-1]) {
			repl = repl[1:] // the caller echoed the anchor line
		}
		if len(repl) == 0 {
			result.NoOps = append(result.NoOps, types.NoOp{OpIndex: o.idx, Line: o.startLine, Content: orig[o.startLine-1]})
			return cur
		}
		out := make([]string, 0, len(cur)+len(repl))
		out = append(out, cur[:o.startLine]...)
		out = append(out, repl...)
		out = append(out, cur[o.startLine:]...)
		return out

	case opSet:
		if start, end, ok := e.mergeExpansion(orig, o, repl, anchorSet); ok {
			return splice(cur, start, end, []string{repl[0]})
		}
		return e.applySpan(cur, orig, o, o.startLine, o.endLine, repl, result)

	default: // opRange
		return e.applySpan(cur, orig, o, o.startLine, o.endLine, repl, result)
	}
}

// mergeExpansion detects a truncated-continuation pair: the anchored line
// ends in a connective token (or follows a line that does), and the single
// replacement line subsumes both fragments. Both originals collapse into
// the replacement. The neighbor must not be anchored by another operation.
func (e *Engine) mergeExpansion(orig []string, o *op, repl []string, anchorSet map[int]bool) (start, end int, ok bool) {
	if len(repl) != 1 {
		return 0, 0, false
	}
	n := o.startLine

	// Anchored line continues onto the next.
	if n < len(orig) && !anchorSet[n+1] && mergesPair(repl[0], orig[n-1], orig[n]) {
		return n, n + 1, true
	}
	// Previous line continues onto the anchored one.
	if n > 1 && !anchorSet[n-1] && mergesPair(repl[0], orig[n-2], orig[n-1]) {
		return n - 1, n, true
	}
	return 0, 0, false
}

// applySpan replaces the inclusive snapshot span [start, end] with repl,
// running the shared heuristic corrections, and records a no-op instead of
// mutating when the corrected replacement equals the original span.
func (e *Engine) applySpan(cur, orig []string, o *op, start, end int, repl []string, result *types.ApplyResult) []string {
	oldSpan := orig[start-1 : end]

	before, hasBefore := "", false
	if start >= 2 {
		before, hasBefore = orig[start-2], true
	}
	after, hasAfter := "", false
	if end < len(orig) {
		after, hasAfter = orig[end], true
	}

	repl = stripEchoBoundaries(repl, before, after, hasBefore, hasAfter)
	repl = restoreWrappedLines(repl, oldSpan)
	repl = restoreIndent(repl, oldSpan)
	repl = foldConfusableHyphens(repl, oldSpan)

	if equalLines(repl, oldSpan) {
		result.NoOps = append(result.NoOps, types.NoOp{OpIndex: o.idx, Line: start, Content: orig[start-1]})
		return cur
	}
	return splice(cur, start, end, repl)
}

// splice replaces the 1-based inclusive line span [start, end] of lines.
func splice(lines []string, start, end int, repl []string) []string {
	out := make([]string, 0, len(lines)-(end-start+1)+len(repl))
	out = append(out, lines[:start-1]...)
	out = append(out, repl...)
	out = append(out, lines[end:]...)
	return out
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// firstChangedLine is the lowest differing line, in new-text coordinates.
func firstChangedLine(orig, cur []string) int {
	n := len(orig)
	if len(cur) < n {
		n = len(cur)
	}
	for i := 0; i < n; i++ {
		if orig[i] != cur[i] {
			return i + 1
		}
	}
	if len(orig) != len(cur) {
		return n + 1
	}
	return 0
}

// changedLineCount is the length delta plus the number of differing
// aligned lines, the measure behind the reformatting warning.
func changedLineCount(orig, cur []string) int {
	n := len(orig)
	if len(cur) < n {
		n = len(cur)
	}
	count := len(orig) - len(cur)
	if count < 0 {
		count = -count
	}
	for i := 0; i < n; i++ {
		if orig[i] != cur[i] {
			count++
		}
	}
	return count
}
