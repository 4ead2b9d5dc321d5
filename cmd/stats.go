package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"gamecov/internal/fileutil"
	"gamecov/internal/storage"
)

var (
	statsLimit  int
	statsOffset int
	statsExport string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show the campaign ledger and current coverage",
	Long: `Display every session recorded in the campaign ledger along with
the coverage snapshot taken right after it was ingested.

Example:
  gamecov stats              # Show the 10 most recent sessions
  gamecov stats -n 0         # Show all sessions
  gamecov stats --offset 10  # Sessions 11-20
  gamecov stats --export ./reports  # Also write a JSON snapshot report`,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().IntVarP(&statsLimit, "limit", "n", 10, "Limit number of sessions to display (0 = all)")
	statsCmd.Flags().IntVar(&statsOffset, "offset", 0, "Skip first N sessions (for pagination)")
	statsCmd.Flags().StringVar(&statsExport, "export", "", "Write a JSON coverage snapshot report to this directory")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open campaign ledger: %w", err)
	}
	defer store.Close()

	records, err := store.Sessions()
	if err != nil {
		return fmt.Errorf("failed to read campaign ledger: %w", err)
	}

	if len(records) == 0 {
		fmt.Println("No sessions recorded yet.")
		fmt.Println("Run 'gamecov ingest <session-folder>' to ingest one.")
		return nil
	}

	latest := records[0]
	fmt.Printf("Sessions ingested: %s\n", humanize.Comma(int64(len(records))))
	fmt.Printf("Distinct frames:   %s\n", humanize.Comma(int64(latest.DistinctAfter)))
	fmt.Printf("Components found:  %s\n", humanize.Comma(int64(latest.ComponentsAfter)))
	fmt.Printf("Radius:            %d\n\n", latest.Radius)

	if statsExport != "" {
		path, err := fileutil.ExportSnapshot(statsExport, fileutil.Snapshot{
			GeneratedAt:    time.Now(),
			DistinctCount:  latest.DistinctAfter,
			ComponentCount: latest.ComponentsAfter,
			Radius:         latest.Radius,
			Sessions:       records,
		})
		if err != nil {
			return fmt.Errorf("failed to export snapshot: %w", err)
		}
		fmt.Printf("Report written to %s\n\n", path)
	}

	total := len(records)
	start := statsOffset
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	records = records[start:]
	if statsLimit > 0 && statsLimit < len(records) {
		records = records[:statsLimit]
	}

	if len(records) == 0 {
		fmt.Printf("No sessions in range (offset %d exceeds total %d)\n", statsOffset, total)
		return nil
	}

	fmt.Printf("%-6s  %-10s  %-10s  %-8s  %s\n", "ID", "Frames", "Distinct", "Groups", "Source")
	fmt.Println(strings.Repeat("-", 70))
	for _, rec := range records {
		source := rec.Source
		if len(source) > 30 {
			source = "..." + source[len(source)-27:]
		}
		fmt.Printf("%-6d  %-10s  %-10s  %-8s  %s\n",
			rec.ID,
			humanize.Comma(int64(rec.FrameCount)),
			humanize.Comma(int64(rec.DistinctAfter)),
			humanize.Comma(int64(rec.ComponentsAfter)),
			source)
	}

	end := start + len(records)
	fmt.Println()
	fmt.Printf("Showing sessions %d-%d of %d\n", start+1, end, total)
	if end < total {
		limitArg := ""
		if statsLimit > 0 {
			limitArg = fmt.Sprintf(" -n %d", statsLimit)
		}
		fmt.Printf("Next page: gamecov stats%s --offset %d\n", limitArg, end)
	}

	return nil
}
