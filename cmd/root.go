package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	dbPath  string
	radius  int
	workers int
)

var rootCmd = &cobra.Command{
	Use:   "gamecov",
	Short: "Track visual-state coverage across fuzzed game sessions",
	Long: `gamecov builds a coverage index over perceptual fingerprints of
game frames, measuring how much of a title's visual state space a fuzzer
has explored.

It clusters observed frames by Hamming distance between their perceptual
hashes: two frames within the configured radius of one another count as
the "same" visual state, and the coverage metric is the number of
distinct clusters discovered so far, not the raw frame count.

Example usage:
  gamecov ingest ./sessions/run-042    # Hash and ingest one session's frames
  gamecov stats                        # Show current coverage and campaign ledger
  gamecov watch                        # Run a live coverage monitor over HTTP
  gamecov reset                        # Clear the campaign ledger`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if radius < 0 {
			radius = 0
		}
		if radius > 64 {
			radius = 64
		}
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".gamecov", "campaign.db")

	defaultRadius := 10
	if v := os.Getenv("GAMECOV_RADIUS"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			defaultRadius = parsed
		}
	}

	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "Path to the campaign ledger database")
	rootCmd.PersistentFlags().IntVar(&radius, "radius", defaultRadius, "Hamming distance radius for clustering (0-64), overrides GAMECOV_RADIUS")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 8, "Number of parallel workers for frame hashing")
}
