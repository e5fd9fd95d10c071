// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package patch defines the public interface for hashedit, a library for
// applying fingerprint-anchored edit batches to text files.
package patch

import (
	"errors"

	"github.com/petar-djukic/hashedit/pkg/types"
)

// ErrInvalidConfig wraps configuration validation failures from New.
var ErrInvalidConfig = errors.New("invalid config")

// Config configures a Patcher instance. Zero values mean defaults.
type Config struct {
	FuzzyAccept       float64 // minimum similarity to accept a fuzzy match (default 0.95)
	FuzzyFallback     float64 // similarity floor for the second scoring pass (default 0.80)
	FuzzyDominant     float64 // score at which a match wins despite competitors (default 0.97)
	FuzzyMargin       float64 // required lead over the runner-up (default 0.08)
	ReformatWarnRatio float64 // changed lines per operation before warning (default 4)
	DiffContext       int     // unchanged lines shown around diff changes (default 4)
}

// Diff is a rendered comparison of two texts.
type Diff struct {
	Text             string
	Changed          bool
	FirstChangedLine int // new-text coordinates, 0 when equal
}

// Patcher applies edit batches to in-memory text. Reading and writing
// the underlying file belong to the caller or the CLI layer; every
// method here is a pure computation.
type Patcher interface {
	// Apply validates the whole batch against text, then applies it.
	// Validation is all-or-nothing: any stale anchor rejects the batch
	// before a single line changes.
	Apply(text string, ops []types.RawOp) (*types.ApplyResult, error)

	// ApplyEdits is Apply for callers holding typed operations.
	ApplyEdits(text string, ops []types.EditOp) (*types.ApplyResult, error)

	// Tag renders text in the display grammar, one LINE:HASH|CONTENT
	// line per source line. The tags are valid anchors for a subsequent
	// Apply against the same text.
	Tag(text string) string

	// Diff renders a numbered unified report of old versus new text.
	Diff(oldText, newText string) *Diff
}
