package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var wipeConfirm bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Delete all stored data",
	Long: `Delete every document, transaction, finding, run and report from the
database. Intended for development and staging environments.

Examples:
  ledgerly-worker wipe --confirm`,
	RunE: runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeConfirm, "confirm", false, "actually delete the data")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeConfirm {
		return fmt.Errorf("refusing to wipe without --confirm")
	}

	if err := dbClient.WipeData(context.Background()); err != nil {
		return fmt.Errorf("wipe data: %w", err)
	}

	fmt.Println("All data deleted")
	return nil
}
