// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types holds the shared data model for the hashedit patch engine:
// anchors, the edit-operation sum type, apply results, and the error
// taxonomy surfaced to callers.
package types

import "fmt"

// Anchor identifies a line by the position it was last observed at and a
// short content fingerprint. The fingerprint, not the position, is the
// durable identity: a stale position with a matching fingerprint can be
// relocated, a matching position with a stale fingerprint cannot.
type Anchor struct {
	Line int    `json:"line"`
	Hash string `json:"hash"`
}

// Ref formats the anchor in the LINE:HASH reference grammar.
func (a Anchor) Ref() string {
	return fmt.Sprintf("%d:%s", a.Line, a.Hash)
}

// EditOp is one edit operation. The four variants form a closed set;
// apply sites switch exhaustively over them.
type EditOp interface {
	editOp()
}

// SetLine replaces a single anchored line with the given text. Empty text
// deletes the line; text containing newlines expands it into several.
type SetLine struct {
	Ref  Anchor
	Text string
}

// ReplaceRange replaces the inclusive span between two anchored lines.
type ReplaceRange struct {
	Start Anchor
	End   Anchor
	Text  string
}

// InsertAfter inserts text immediately after the anchored line.
type InsertAfter struct {
	Ref  Anchor
	Text string
}

// SubstringReplace replaces occurrences of Old with New anywhere in the
// file. It carries no anchor and is resolved by the fuzzy matcher.
type SubstringReplace struct {
	Old string
	New string
	All bool
}

func (SetLine) editOp()          {}
func (ReplaceRange) editOp()     {}
func (InsertAfter) editOp()      {}
func (SubstringReplace) editOp() {}

// RawOp is the wire shape of one edit operation as submitted by a caller.
// Exactly one of the variant fields must be set; the engine rejects
// ambiguous or empty shapes with a ParseError.
type RawOp struct {
	SetLine      string       `json:"set_line,omitempty"`      // anchor ref, e.g. "12:ab"
	ReplaceLines []string     `json:"replace_lines,omitempty"` // [start ref, end ref]
	InsertAfter  string       `json:"insert_after,omitempty"`  // anchor ref
	Replace      *ReplaceSpec `json:"replace,omitempty"`
	Text         string       `json:"text,omitempty"` // replacement text for the anchor variants
}

// ReplaceSpec is the payload of a substring-style edit.
type ReplaceSpec struct {
	Old string `json:"old"`
	New string `json:"new"`
	All bool   `json:"all,omitempty"`
}

// NoOp records an operation whose resolved replacement text equaled the
// content it would have replaced.
type NoOp struct {
	OpIndex int    `json:"op"`      // 0-based index in the submitted batch
	Line    int    `json:"line"`    // first line the operation targeted
	Content string `json:"content"` // current content at that location
}

// ApplyResult is the outcome of applying a batch.
type ApplyResult struct {
	Text             string   `json:"-"`                 // new file text, original conventions restored
	Changed          bool     `json:"changed"`           // false when every operation was a no-op
	FirstChangedLine int      `json:"firstChangedLine"`  // 1-based, new-text coordinates; 0 when unchanged
	NoOps            []NoOp   `json:"noops,omitempty"`   // operations that degenerated to no-ops
	Warnings         []string `json:"warnings,omitempty"`
}
