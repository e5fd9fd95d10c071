// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/petar-djukic/hashedit/internal/hashline"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// opKind tags the parsed operation variants.
type opKind int

const (
	opSet opKind = iota
	opRange
	opInsert
	opSubstring
)

// op is the internal form of one edit operation. Anchor-based variants
// carry resolved positions after validation; startLine/endLine are in
// snapshot coordinates and stay valid under bottom-up application.
type op struct {
	idx  int // submission order, 0-based
	kind opKind

	start types.Anchor // set/insert anchor; range start
	end   types.Anchor // range end
	text  string

	old string // substring variant
	new string
	all bool

	startLine int // resolved, 1-based
	endLine   int
}

// parseOps converts the raw batch into tagged internal operations,
// rejecting shapes that match no variant or more than one.
func parseOps(raw []types.RawOp) ([]*op, error) {
	ops := make([]*op, 0, len(raw))

	for i, r := range raw {
		variants := 0
		if r.SetLine != "" {
			variants++
		}
		if len(r.ReplaceLines) > 0 {
			variants++
		}
		if r.InsertAfter != "" {
			variants++
		}
		if r.Replace != nil {
			variants++
		}
		if variants == 0 {
			return nil, &types.ParseError{Index: i, Input: fmt.Sprintf("%+v", r), Message: "operation matches no known variant"}
		}
		if variants > 1 {
			return nil, &types.ParseError{Index: i, Input: fmt.Sprintf("%+v", r), Message: "operation matches more than one variant"}
		}

		o := &op{idx: i, text: r.Text}
		switch {
		case r.SetLine != "":
			o.kind = opSet
			a, err := parseAnchorAt(r.SetLine, i)
			if err != nil {
				return nil, err
			}
			o.start = a

		case len(r.ReplaceLines) > 0:
			o.kind = opRange
			if len(r.ReplaceLines) != 2 {
				return nil, &types.ParseError{Index: i, Input: strings.Join(r.ReplaceLines, ","), Message: "replace_lines wants exactly [start, end]"}
			}
			a, err := parseAnchorAt(r.ReplaceLines[0], i)
			if err != nil {
				return nil, err
			}
			b, err := parseAnchorAt(r.ReplaceLines[1], i)
			if err != nil {
				return nil, err
			}
			o.start, o.end = a, b

		case r.InsertAfter != "":
			o.kind = opInsert
			if r.Text == "" {
				return nil, &types.ParseError{Index: i, Input: r.InsertAfter, Message: "empty insert text"}
			}
			a, err := parseAnchorAt(r.InsertAfter, i)
			if err != nil {
				return nil, err
			}
			o.start = a

		default:
			o.kind = opSubstring
			if r.Replace.Old == "" {
				return nil, &types.ParseError{Index: i, Input: r.Replace.New, Message: "empty search text"}
			}
			o.old, o.new, o.all = r.Replace.Old, r.Replace.New, r.Replace.All
		}

		ops = append(ops, o)
	}

	return ops, nil
}

// parseAnchorAt parses an anchor, stamping the batch index on any error.
func parseAnchorAt(s string, idx int) (types.Anchor, error) {
	a, err := hashline.ParseAnchor(s)
	if err != nil {
		if perr, ok := err.(*types.ParseError); ok {
			perr.Index = idx
		}
		return types.Anchor{}, err
	}
	return a, nil
}

// FromEditOps converts typed operations into the raw wire shape. Library
// callers holding types.EditOp values go through this before Apply.
func FromEditOps(ops []types.EditOp) []types.RawOp {
	raw := make([]types.RawOp, len(ops))
	for i, o := range ops {
		switch v := o.(type) {
		case types.SetLine:
			raw[i] = types.RawOp{SetLine: v.Ref.Ref(), Text: v.Text}
		case types.ReplaceRange:
			raw[i] = types.RawOp{ReplaceLines: []string{v.Start.Ref(), v.End.Ref()}, Text: v.Text}
		case types.InsertAfter:
			raw[i] = types.RawOp{InsertAfter: v.Ref.Ref(), Text: v.Text}
		case types.SubstringReplace:
			raw[i] = types.RawOp{Replace: &types.ReplaceSpec{Old: v.Old, New: v.New, All: v.All}}
		}
	}
	return raw
}

// dedupe drops exact duplicates: same resolved location key and identical
// replacement text after prefix stripping. The first occurrence wins.
func dedupe(ops []*op) []*op {
	seen := map[string]bool{}
	out := ops[:0]
	for _, o := range ops {
		key := dedupeKey(o)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, o)
	}
	return out
}

func dedupeKey(o *op) string {
	text := strings.Join(preprocessText(o.text), "\n")
	switch o.kind {
	case opSet:
		return fmt.Sprintf("set\x00%d\x00%s", o.startLine, text)
	case opRange:
		return fmt.Sprintf("range\x00%d\x00%d\x00%s", o.startLine, o.endLine, text)
	case opInsert:
		return fmt.Sprintf("insert\x00%d\x00%s", o.startLine, text)
	default:
		return fmt.Sprintf("sub\x00%s\x00%s\x00%v", o.old, o.new, o.all)
	}
}

// sortBottomUp orders anchor operations for application: rightmost line
// descending, insert-after after a same-line replacement, submission order
// as the stable tiebreak. Substring operations keep submission order and
// run after the anchor operations.
func sortBottomUp(ops []*op) (anchored, substring []*op) {
	for _, o := range ops {
		if o.kind == opSubstring {
			substring = append(substring, o)
			continue
		}
		anchored = append(anchored, o)
	}

	sort.SliceStable(anchored, func(i, j int) bool {
		a, b := anchored[i], anchored[j]
		ka, kb := a.rightmost(), b.rightmost()
		if ka != kb {
			return ka > kb
		}
		if (a.kind == opInsert) != (b.kind == opInsert) {
			return b.kind == opInsert
		}
		return false
	})
	return anchored, substring
}

// rightmost is the operation's sort line: the last line it touches.
func (o *op) rightmost() int {
	if o.kind == opRange {
		return o.endLine
	}
	return o.startLine
}
