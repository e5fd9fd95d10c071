// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package hashline implements content-addressed line fingerprints and the
// LINE:HASH reference grammar. A fingerprint is two lowercase hex
// characters derived from the line's whitespace-stripped content, so
// reformatting alone never invalidates an anchor. Collisions across 256
// buckets are expected; validity is always checked, never assumed.
package hashline

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strconv"
	"strings"

	"github.com/petar-djukic/hashedit/internal/textnorm"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// HashLen is the number of hex characters in a fingerprint.
const HashLen = 2

// Hash computes the fingerprint of one line: strip a trailing carriage
// return, remove all whitespace, FNV-1a over the rest, reduced to one of
// 256 buckets. Deterministic across platforms and locales.
func Hash(line string) string {
	s := strings.TrimSuffix(line, "\r")
	s = textnorm.StripSpace(s)
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%02x", h.Sum32()%256)
}

// anchorPattern is the reference grammar after trimming and echo stripping.
var anchorPattern = regexp.MustCompile(`^(\d+):([0-9a-zA-Z]{1,16})$`)

// ParseAnchor parses a "LINE:HASH" reference. Extraneous trailing content
// after a pipe or a double space is stripped first; callers sometimes echo
// back the display format they were shown. The fingerprint is compared
// case-insensitively, and a too-long fingerprint is accepted when its
// fixed-length prefix is well-formed.
func ParseAnchor(s string) (types.Anchor, error) {
	orig := s
	s = strings.TrimSpace(s)

	// Strip echoed content: "12:ab|actual line text" or "12:ab  text".
	if i := strings.Index(s, "|"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, "  "); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimSpace(s)

	m := anchorPattern.FindStringSubmatch(s)
	if m == nil {
		return types.Anchor{}, &types.ParseError{Index: -1, Input: orig, Message: "malformed anchor, want LINE:HASH"}
	}

	line, err := strconv.Atoi(m[1])
	if err != nil || line < 1 {
		return types.Anchor{}, &types.ParseError{Index: -1, Input: orig, Message: "anchor line number must be >= 1"}
	}

	return types.Anchor{Line: line, Hash: strings.ToLower(m[2])}, nil
}

// Matches reports whether the anchor's fingerprint matches an actual
// fingerprint. An exact-length fingerprint must match exactly; a longer
// one matches through its fixed-length prefix, and a shorter one through
// prefix comparison against the actual value.
func Matches(anchor types.Anchor, actual string) bool {
	given := strings.ToLower(anchor.Hash)
	switch {
	case len(given) == HashLen:
		return given == actual
	case len(given) > HashLen:
		return given[:HashLen] == actual
	default:
		return strings.HasPrefix(actual, given)
	}
}

// IndexKey reduces an anchor fingerprint to the fixed-length form used by
// the relocation index. Returns false when the fingerprint is too short to
// name a single bucket.
func IndexKey(anchor types.Anchor) (string, bool) {
	given := strings.ToLower(anchor.Hash)
	if len(given) < HashLen {
		return "", false
	}
	return given[:HashLen], true
}

// Tag formats one line in the display grammar: "LINE:HASH|CONTENT".
func Tag(num int, line string) string {
	return fmt.Sprintf("%d:%s|%s", num, Hash(line), line)
}

// Format renders lines in the display grammar, numbering from start
// (1-indexed; values below 1 are treated as 1).
func Format(lines []string, start int) string {
	if start < 1 {
		start = 1
	}
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(Tag(start+i, line))
	}
	return b.String()
}
