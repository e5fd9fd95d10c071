// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/hashedit/internal/gitutil"
)

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "undo [dir]",
		Short: "Revert the last hashedit checkpoint",
		Long:  "Undo soft-resets the last commit if hashedit created it as a pre-edit checkpoint.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			repo, err := gitutil.Open(dir)
			if err != nil {
				return fmt.Errorf("opening repository: %w", err)
			}
			if err := repo.Undo(); err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Println("Reverted last hashedit checkpoint.")
			return nil
		},
	}
	return cmd
}
