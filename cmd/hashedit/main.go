// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command hashedit edits files through fingerprint-anchored operations:
// read a file as LINE:HASH|CONTENT tags, then submit edits addressed by
// those tags. Stale anchors are detected and reported, never applied.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "hashedit",
		Short: "Fingerprint-anchored text editing",
		Long: "hashedit reads files as LINE:HASH tagged lines and applies edit batches\n" +
			"addressed by those tags, rejecting any batch whose anchors went stale.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if viper.GetBool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	// Global flags.
	rootCmd.PersistentFlags().Float64("fuzzy-accept", 0, "Minimum similarity for a fuzzy match (0 = default)")
	rootCmd.PersistentFlags().Float64("fuzzy-fallback", 0, "Similarity floor for the fallback scoring pass (0 = default)")
	rootCmd.PersistentFlags().Int("diff-context", 0, "Context lines around diff changes (0 = default)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Bind flags to viper.
	viper.BindPFlag("fuzzy-accept", rootCmd.PersistentFlags().Lookup("fuzzy-accept"))
	viper.BindPFlag("fuzzy-fallback", rootCmd.PersistentFlags().Lookup("fuzzy-fallback"))
	viper.BindPFlag("diff-context", rootCmd.PersistentFlags().Lookup("diff-context"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Env vars: HASHEDIT_FUZZY_ACCEPT, HASHEDIT_DIFF_CONTEXT, etc.
	viper.SetEnvPrefix("HASHEDIT")
	viper.AutomaticEnv()

	// Config file.
	viper.SetConfigName(".hashedit")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.ReadInConfig() // Ignore error; config file is optional.

	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newEditCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print hashedit version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("hashedit %s\n", version)
		},
	}
}
