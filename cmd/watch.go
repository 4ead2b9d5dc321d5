package cmd

import (
	"fmt"
	"os/exec"
	"runtime"
	"time"

	"github.com/spf13/cobra"

	"gamecov/internal/server"
)

var (
	watchPort      int
	watchTimeout   time.Duration
	watchNoBrowser bool
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run a live coverage monitor over HTTP",
	Long: `Start a local server that accumulates coverage across a long-running
fuzzing campaign, fed by an external frame-extraction pipeline posting
fingerprint batches to its ingest endpoint.

The server will:
- Expose the current coverage snapshot and campaign ledger as JSON
- Accept POST /api/ingest batches of session fingerprints
- Push a fresh snapshot to connected dashboards over a websocket feed
- Auto-shutdown after an idle timeout with no dashboard connections

Example:
  gamecov watch                  # Start on default port 8080
  gamecov watch -p 3000          # Use a custom port
  gamecov watch --timeout 10m    # 10 minute idle timeout`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchPort, "port", "p", 8080, "Port to listen on")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 5*time.Minute, "Idle timeout (0 to disable)")
	watchCmd.Flags().BoolVar(&watchNoBrowser, "no-browser", false, "Don't open browser automatically")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	srv, err := server.New(dbPath, uint8(radius), watchPort, watchTimeout)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	url := fmt.Sprintf("http://localhost:%d", watchPort)
	fmt.Printf("Starting coverage monitor at %s\n", url)
	fmt.Printf("Radius: %d, idle timeout: %v\n", radius, watchTimeout)
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	if !watchNoBrowser {
		go func() {
			time.Sleep(500 * time.Millisecond)
			openBrowser(url)
		}()
	}

	return srv.Start()
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	cmd.Run()
}
