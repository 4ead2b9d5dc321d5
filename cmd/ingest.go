package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"gamecov/internal/fingerprint"
	"gamecov/internal/session"
)

var ingestSource string

var ingestCmd = &cobra.Command{
	Use:   "ingest <session-folder>",
	Short: "Hash a session's frames and add them to the coverage index",
	Long: `Ingest reads every frame image directly inside a session folder,
computes its perceptual fingerprint, and feeds the batch into the
coverage index as a single session.

The ingest will:
1. Find all supported frame images (jpg, png, gif, webp, bmp)
2. Compute a 64-bit perceptual hash for each frame
3. Derive a stable path-ID for the session from its fingerprint set
4. Add any new fingerprints to the coverage index and record the session

Example:
  gamecov ingest ./sessions/run-042
  gamecov ingest ./sessions/run-042 --radius 5 --workers 16`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Label recorded alongside this session in the campaign ledger")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	folder := args[0]

	absFolder, err := filepath.Abs(folder)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absFolder)
	if err != nil {
		return fmt.Errorf("session folder not found: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("not a directory: %s", absFolder)
	}

	fmt.Printf("Session:  %s\n", absFolder)
	fmt.Printf("Radius:   %d (Hamming distance)\n", radius)
	fmt.Printf("Workers:  %d\n\n", workers)

	store, tracker, err := openCampaign(dbPath, radius)
	if err != nil {
		return err
	}
	defer store.Close()

	frames, err := fingerprint.HashSession(absFolder, workers, fingerprint.WithProgress(func(hashed, total int, current string) {
		fmt.Printf("\rHashing frames... %d/%d", hashed, total)
	}))
	if err != nil {
		return fmt.Errorf("failed to hash session: %w", err)
	}
	fmt.Println()

	fmt.Printf("Hashed: %d frames\n", len(frames))
	if len(frames) == 0 {
		fmt.Println("No frames found.")
		return nil
	}

	withExif := 0
	fingerprints := make([]uint64, len(frames))
	for i, f := range frames {
		fingerprints[i] = f.Hash
		if f.HasExif {
			withExif++
		}
	}
	if withExif > 0 {
		fmt.Printf("Capture metadata present on %d/%d frames\n", withExif, len(frames))
	}

	source := ingestSource
	if source == "" {
		source = absFolder
	}

	pathID := session.PathID(fingerprints)
	added, skipped := session.Ingest(tracker, pathID, fingerprints)

	if skipped {
		fmt.Println()
		fmt.Printf("Session %s has already been ingested (path-ID %s); skipped.\n", strings.TrimSuffix(absFolder, "/"), pathID)
		return nil
	}

	if err := store.RecordSession(recordFor(pathID, source, len(frames), tracker)); err != nil {
		return fmt.Errorf("failed to record session: %w", err)
	}

	fmt.Println()
	fmt.Println("=== Ingest Complete ===")
	fmt.Printf("Path ID:          %s\n", pathID)
	fmt.Printf("New fingerprints: %d\n", added)
	fmt.Printf("Distinct so far:  %d\n", tracker.DistinctCount())
	fmt.Printf("Components:       %d\n", tracker.ComponentCount())

	return nil
}
