// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package diffview renders a line-numbered unified change report from old
// and new file text. It is feedback for the caller, never input to the
// edit engine.
package diffview

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

const defaultContext = 4

// Config controls report rendering.
type Config struct {
	Context int // unchanged lines kept around each change, default 4
}

// Report is the rendered comparison of two texts.
type Report struct {
	Text             string
	Changed          bool
	FirstChangedLine int // new-text coordinates, 0 when texts are equal
}

type lineKind int

const (
	lineEqual lineKind = iota
	lineDeleted
	lineInserted
)

// record is one report line with its positions in both texts. A deletion
// has no new-side number and an insertion no old-side number.
type record struct {
	kind lineKind
	text string
	oldN int
	newN int
}

// Render diffs old against new at line granularity and formats the
// result. Equal texts produce an empty report.
func Render(oldText, newText string, cfg Config) *Report {
	if cfg.Context <= 0 {
		cfg.Context = defaultContext
	}
	if oldText == newText {
		return &Report{}
	}

	records := diffLines(oldText, newText)

	first := 0
	newCount := 0
	for _, r := range records {
		if r.kind == lineEqual {
			newCount = r.newN
			continue
		}
		if r.kind == lineInserted {
			first = r.newN
		} else {
			first = newCount + 1
		}
		break
	}

	return &Report{
		Text:             format(records, cfg.Context),
		Changed:          true,
		FirstChangedLine: first,
	}
}

// diffLines runs the line-mode diff and flattens the chunks into per-line
// records carrying both counters.
func diffLines(oldText, newText string) []record {
	dmp := diffmatchpatch.New()
	a, b, arr := dmp.DiffLinesToChars(oldText, newText)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), arr)

	var records []record
	oldN, newN := 0, 0
	for _, d := range diffs {
		for _, line := range chunkLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				oldN++
				newN++
				records = append(records, record{kind: lineEqual, text: line, oldN: oldN, newN: newN})
			case diffmatchpatch.DiffDelete:
				oldN++
				records = append(records, record{kind: lineDeleted, text: line, oldN: oldN})
			case diffmatchpatch.DiffInsert:
				newN++
				records = append(records, record{kind: lineInserted, text: line, newN: newN})
			}
		}
	}
	return records
}

// chunkLines splits one diff chunk into lines, dropping the empty tail
// produced by the chunk's trailing newline.
func chunkLines(text string) []string {
	lines := strings.Split(text, "\n")
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// format renders the records, keeping context unchanged lines around each
// change and collapsing longer unchanged runs into an ellipsis line.
func format(records []record, context int) string {
	show := make([]bool, len(records))
	for i, r := range records {
		if r.kind == lineEqual {
			continue
		}
		for j := i - context; j <= i+context; j++ {
			if j >= 0 && j < len(records) {
				show[j] = true
			}
		}
	}

	var b strings.Builder
	hidden := false
	for i, r := range records {
		if !show[i] {
			hidden = true
			continue
		}
		if hidden {
			b.WriteString("...\n")
			hidden = false
		}
		switch r.kind {
		case lineDeleted:
			fmt.Fprintf(&b, "-%4d      │ %s\n", r.oldN, r.text)
		case lineInserted:
			fmt.Fprintf(&b, "+     %4d │ %s\n", r.newN, r.text)
		default:
			fmt.Fprintf(&b, " %4d %4d │ %s\n", r.oldN, r.newN, r.text)
		}
	}
	return b.String()
}
