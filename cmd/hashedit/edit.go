// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/hashedit/internal/fileio"
	"github.com/petar-djukic/hashedit/internal/gitutil"
	"github.com/petar-djukic/hashedit/pkg/patch"
	"github.com/petar-djukic/hashedit/pkg/types"
)

// editOutcome is the JSON summary printed after an edit.
type editOutcome struct {
	File             string   `json:"file"`
	Changed          bool     `json:"changed"`
	FirstChangedLine int      `json:"first_changed_line,omitempty"`
	NoOps            int      `json:"no_ops,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

// newEditCmd creates the "edit" command.
func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit <file>",
		Short: "Apply a batch of anchored edit operations",
		Long: "Edit applies a JSON batch of operations to the file. Each operation is\n" +
			"one of set_line, replace_lines, insert_after, or replace; the first three\n" +
			"are addressed by LINE:HASH anchors from a prior read.",
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}

	cmd.Flags().String("ops", "", "Edit batch as a JSON array")
	cmd.Flags().String("ops-file", "", "Path to a file holding the JSON edit batch")
	cmd.Flags().Bool("diff", false, "Print a unified diff of the change")
	cmd.Flags().Bool("git", false, "Checkpoint a dirty work tree before editing")
	cmd.Flags().Bool("dry-run", false, "Validate and report without writing")

	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	path := args[0]

	ops, err := loadOps(cmd)
	if err != nil {
		return err
	}
	slog.Debug("loaded edit batch", "file", path, "operations", len(ops))

	text, err := fileio.Read(path)
	if err != nil {
		return err
	}

	if useGit, _ := cmd.Flags().GetBool("git"); useGit {
		if err := checkpoint(path); err != nil {
			return err
		}
	}

	p, err := newPatcher()
	if err != nil {
		return err
	}

	res, err := p.Apply(text, ops)
	if err != nil {
		var noop *types.NoOpError
		if errors.As(err, &noop) {
			fmt.Fprintln(os.Stderr, "No changes: every operation matched current content.")
		}
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")
	if !dryRun {
		if err := fileio.Write(path, res.Text); err != nil {
			return err
		}
	}

	if showDiff, _ := cmd.Flags().GetBool("diff"); showDiff {
		fmt.Print(p.Diff(text, res.Text).Text)
	}

	printOutcome(&editOutcome{
		File:             path,
		Changed:          res.Changed && !dryRun,
		FirstChangedLine: res.FirstChangedLine,
		NoOps:            len(res.NoOps),
		Warnings:         res.Warnings,
	})
	return nil
}

// loadOps reads the edit batch from --ops or --ops-file.
func loadOps(cmd *cobra.Command) ([]types.RawOp, error) {
	raw, _ := cmd.Flags().GetString("ops")
	opsFile, _ := cmd.Flags().GetString("ops-file")

	switch {
	case raw != "" && opsFile != "":
		return nil, fmt.Errorf("--ops and --ops-file are mutually exclusive")
	case raw == "" && opsFile == "":
		return nil, fmt.Errorf("one of --ops or --ops-file is required")
	case opsFile != "":
		data, err := os.ReadFile(opsFile)
		if err != nil {
			return nil, fmt.Errorf("reading ops file: %w", err)
		}
		raw = string(data)
	}

	var ops []types.RawOp
	if err := json.Unmarshal([]byte(raw), &ops); err != nil {
		return nil, fmt.Errorf("parsing edit batch: %w", err)
	}
	return ops, nil
}

// checkpoint commits a dirty work tree so the edit can be undone.
func checkpoint(path string) error {
	repo, err := gitutil.Open(filepath.Dir(path))
	if err != nil {
		return err
	}
	if err := repo.Checkpoint(); err != nil {
		return err
	}
	slog.Debug("checkpoint complete", "file", path)
	return nil
}

// newPatcher builds a Patcher from the viper-bound configuration.
func newPatcher() (patch.Patcher, error) {
	return patch.New(patch.Config{
		FuzzyAccept:   viper.GetFloat64("fuzzy-accept"),
		FuzzyFallback: viper.GetFloat64("fuzzy-fallback"),
		DiffContext:   viper.GetInt("diff-context"),
	})
}

// printOutcome outputs the result as JSON to stdout.
func printOutcome(out *editOutcome) {
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling result: %v\n", err)
		return
	}
	fmt.Println(string(data))
}
