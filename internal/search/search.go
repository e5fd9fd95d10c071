// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package search is the boundary around the external ripgrep utility. It
// builds the invocation, runs it, and reformats matches into the
// LINE:HASH|CONTENT display grammar by recomputing each reported line's
// fingerprint.
package search

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/petar-djukic/hashedit/internal/hashline"
)

const defaultTimeout = 30 * time.Second

// Options narrow a search.
type Options struct {
	IgnoreCase bool
	Glob       string // rg -g pattern, e.g. "*.go"
	Type       string // rg -t type, e.g. "go"
	Context    int    // lines of context around each match
	MaxCount   int    // per-file match cap, 0 means unlimited
	Timeout    time.Duration
}

// Match is one reported line, in file order. Context lines carry
// IsContext so renderers can distinguish them from hits.
type Match struct {
	Path      string
	Line      int
	Content   string
	IsContext bool
}

// buildArgs assembles the ripgrep argument list. Line numbers and
// headings are normalized so the output parses the same everywhere.
func buildArgs(pattern string, opts Options) []string {
	args := []string{"--line-number", "--no-heading", "--color", "never"}
	if opts.IgnoreCase {
		args = append(args, "--ignore-case")
	}
	if opts.Glob != "" {
		args = append(args, "--glob", opts.Glob)
	}
	if opts.Type != "" {
		args = append(args, "--type", opts.Type)
	}
	if opts.Context > 0 {
		args = append(args, "--context", strconv.Itoa(opts.Context))
	}
	if opts.MaxCount > 0 {
		args = append(args, "--max-count", strconv.Itoa(opts.MaxCount))
	}
	return append(args, "--", pattern)
}

// Run searches dir for pattern. A search with zero matches returns an
// empty slice, not an error; ripgrep signals that with exit code 1.
func Run(ctx context.Context, pattern, dir string, opts Options) ([]Match, error) {
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	cmdCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cmdCtx, "rg", buildArgs(pattern, opts)...)
	cmd.Dir = dir

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("running rg: %w: %s", err, strings.TrimSpace(errBuf.String()))
	}
	return parseOutput(out.String()), nil
}

// parseOutput reads ripgrep's no-heading output: "path:line:content" for
// hits and "path-line-content" for context lines. Paths containing the
// separator are handled by scanning for the first separator whose next
// field is numeric.
func parseOutput(out string) []Match {
	var matches []Match
	for _, raw := range strings.Split(out, "\n") {
		if raw == "" || raw == "--" {
			continue
		}
		if m, ok := parseLine(raw, ":"); ok {
			matches = append(matches, m)
			continue
		}
		if m, ok := parseLine(raw, "-"); ok {
			m.IsContext = true
			matches = append(matches, m)
		}
	}
	return matches
}

func parseLine(raw, sep string) (Match, bool) {
	search := raw
	offset := 0
	for {
		i := strings.Index(search, sep)
		if i < 0 {
			return Match{}, false
		}
		rest := raw[offset+i+1:]
		j := strings.Index(rest, sep)
		if j > 0 {
			if n, err := strconv.Atoi(rest[:j]); err == nil && n > 0 {
				return Match{Path: raw[:offset+i], Line: n, Content: rest[j+1:]}, true
			}
		}
		offset += i + 1
		search = raw[offset:]
	}
}

// Format renders matches in the display grammar, grouped under each
// file's path. Every line, context included, gets a recomputed
// fingerprint so its tag can be used directly as an edit anchor.
func Format(matches []Match) string {
	var b strings.Builder
	lastPath := ""
	for _, m := range matches {
		if m.Path != lastPath {
			if lastPath != "" {
				b.WriteByte('\n')
			}
			b.WriteString(m.Path)
			b.WriteByte('\n')
			lastPath = m.Path
		}
		b.WriteString(hashline.Tag(m.Line, m.Content))
		b.WriteByte('\n')
	}
	return b.String()
}
