// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/hashedit/internal/search"
)

// newSearchCmd creates the "search" command.
func newSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search <pattern> [dir]",
		Short: "Search files and print matches as LINE:HASH tagged lines",
		Long: "Search runs ripgrep over the directory and reformats every match into\n" +
			"the display grammar, so results can be used directly as edit anchors.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 2 {
				dir = args[1]
			}

			ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
			glob, _ := cmd.Flags().GetString("glob")
			fileType, _ := cmd.Flags().GetString("type")
			context, _ := cmd.Flags().GetInt("context")
			maxCount, _ := cmd.Flags().GetInt("max-count")

			matches, err := search.Run(cmd.Context(), args[0], dir, search.Options{
				IgnoreCase: ignoreCase,
				Glob:       glob,
				Type:       fileType,
				Context:    context,
				MaxCount:   maxCount,
			})
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				fmt.Println("No matches.")
				return nil
			}
			fmt.Print(search.Format(matches))
			return nil
		},
	}

	cmd.Flags().BoolP("ignore-case", "i", false, "Case-insensitive search")
	cmd.Flags().StringP("glob", "g", "", "Limit to files matching this glob")
	cmd.Flags().StringP("type", "t", "", "Limit to this ripgrep file type")
	cmd.Flags().IntP("context", "C", 0, "Context lines around each match")
	cmd.Flags().IntP("max-count", "m", 0, "Per-file match limit")

	return cmd
}
