// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/hashedit/internal/fileio"
	"github.com/petar-djukic/hashedit/internal/hashline"
	"github.com/petar-djukic/hashedit/internal/textnorm"
)

// newReadCmd creates the "read" command.
func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read <file>",
		Short: "Print a file as LINE:HASH tagged lines",
		Long: "Read prints every line of the file in the display grammar,\n" +
			"LINE:HASH|CONTENT, giving you the anchors an edit batch needs.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetInt("from")
			to, _ := cmd.Flags().GetInt("to")

			text, err := fileio.Read(args[0])
			if err != nil {
				return err
			}
			lines, _ := textnorm.Split(text)

			if from < 1 {
				from = 1
			}
			if to < 1 || to > len(lines) {
				to = len(lines)
			}
			if from > to {
				return fmt.Errorf("--from %d is past --to %d", from, to)
			}

			fmt.Println(hashline.Format(lines[from-1:to], from))
			return nil
		},
	}

	cmd.Flags().Int("from", 0, "First line to print (1-based)")
	cmd.Flags().Int("to", 0, "Last line to print (inclusive)")

	return cmd
}
