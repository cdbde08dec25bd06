package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/franz/musicdb/internal/util"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop and recreate the catalog (destructive)",
	Long: `Drop every entity table and recreate an empty schema. All catalog
data is lost; the music files themselves are untouched. Requires --force.`,
	RunE: runReset,
}

func init() {
	rootCmd.AddCommand(resetCmd)

	resetCmd.Flags().Bool("force", false, "confirm the destructive reset")
}

func runReset(cmd *cobra.Command, args []string) error {
	force, _ := cmd.Flags().GetBool("force")
	if !force {
		return fmt.Errorf("reset wipes the entire catalog; re-run with --force to confirm")
	}

	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Reset(); err != nil {
		return fmt.Errorf("reset failed: %w", err)
	}
	util.SuccessLog("Catalog reset: all entity tables dropped and recreated")
	return nil
}
