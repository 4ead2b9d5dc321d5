package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gamecov/internal/storage"
)

var resetNoConfirm bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the campaign ledger",
	Long: `Reset clears every recorded session from the campaign ledger.

It has no effect on a running 'gamecov watch' process's in-memory
coverage index — that index is never persisted (by design), so clearing
the ledger only affects what future CLI invocations and fresh watch
processes start from.

Example:
  gamecov reset          # Prompts for confirmation
  gamecov reset --yes    # Skip confirmation`,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVarP(&resetNoConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(resetCmd)
}

func runReset(cmd *cobra.Command, args []string) error {
	store, err := storage.NewStorage(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open campaign ledger: %w", err)
	}
	defer store.Close()

	count, err := store.SessionCount()
	if err != nil {
		return fmt.Errorf("failed to read campaign ledger: %w", err)
	}
	if count == 0 {
		fmt.Println("Campaign ledger is already empty.")
		return nil
	}

	if !resetNoConfirm {
		fmt.Printf("This will remove %d recorded session(s) from %s. Continue? [y/N]: ", count, dbPath)
		reader := bufio.NewReader(os.Stdin)
		response, _ := reader.ReadString('\n')
		response = strings.TrimSpace(strings.ToLower(response))
		if response != "y" && response != "yes" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := store.Reset(); err != nil {
		return fmt.Errorf("failed to reset campaign ledger: %w", err)
	}

	fmt.Printf("Cleared %d session(s) from the campaign ledger.\n", count)
	return nil
}
