package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/musicdb/internal/util"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path...]",
	Short: "Walk the music folders and build the catalog",
	Long: `Walk every configured music folder and merge artists, albums and
tracks into the catalog. With explicit path arguments, only those paths
are ingested (use --as-album to treat a directory as an album instead of
an artist).

Ingestion is idempotent: re-running it overwrites existing entries
instead of duplicating them.`,
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)

	ingestCmd.Flags().Bool("as-album", false, "ingest directory arguments as albums")
}

func runIngest(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	asAlbum, _ := cmd.Flags().GetBool("as-album")

	// Explicit paths bypass the walk
	if len(args) > 0 {
		for _, path := range args {
			id, err := store.IngestPath(path, asAlbum)
			if err != nil {
				util.ErrorLog("cannot ingest %s: %v", path, err)
				continue
			}
			fmt.Printf("%s  %s\n", id, path)
		}
		return nil
	}

	if len(store.MusicFolders()) == 0 {
		return fmt.Errorf("no music folders configured (use --music-folder or set music-folders in config)")
	}

	start := time.Now()
	result, err := store.Walk()
	if err != nil {
		return fmt.Errorf("walk failed: %w", err)
	}
	if result.Skipped {
		util.InfoLog("Walk skipped: last walk is younger than %s", viper.GetDuration("refresh-interval"))
		return nil
	}

	util.SuccessLog("Ingest complete in %v", time.Since(start).Round(time.Millisecond))
	util.InfoLog("  Artists scanned: %d", result.Artists)
	util.InfoLog("  Entries ingested: %d", result.Ingested)
	if len(result.Errors) > 0 {
		util.WarnLog("  Errors: %d", len(result.Errors))
	}
	return nil
}
