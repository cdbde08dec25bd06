package main

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/musicdb/internal/catalog"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show catalog contents and statistics",
	Long: `Display what the catalog currently holds: entity counts per kind,
the configured music folders and the database file size.

With --songs, --albums or --artists, list those entities instead.`,
	RunE: runShow,
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().Bool("songs", false, "list tracks")
	showCmd.Flags().Bool("albums", false, "list albums")
	showCmd.Flags().Bool("artists", false, "list artists")
	showCmd.Flags().String("filter", "", "substring filter on the name/title field")
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	songs, _ := cmd.Flags().GetBool("songs")
	albums, _ := cmd.Flags().GetBool("albums")
	artists, _ := cmd.Flags().GetBool("artists")
	filter, _ := cmd.Flags().GetString("filter")

	switch {
	case songs:
		return listEntities(store, catalog.Media, "title", filter)
	case albums:
		return listEntities(store, catalog.Album, "name", filter)
	case artists:
		return listEntities(store, catalog.Artist, "name", filter)
	}

	fmt.Println("Catalog contents:")
	for _, kind := range catalog.Kinds {
		entities, err := store.Query(kind, nil, nil)
		if err != nil {
			return fmt.Errorf("failed to query %s: %w", kind.Name, err)
		}
		fmt.Printf("  %-10s %s\n", kind.Name, humanize.Comma(int64(len(entities))))
	}

	fmt.Println("\nMusic folders:")
	for _, folder := range store.MusicFolders() {
		fmt.Printf("  %s\n", folder)
	}
	if len(store.MusicFolders()) == 0 {
		fmt.Println("  (none configured)")
	}

	if info, err := os.Stat(viper.GetString("db")); err == nil {
		fmt.Printf("\nDatabase: %s (%s)\n", viper.GetString("db"), humanize.Bytes(uint64(info.Size())))
	}
	return nil
}

func listEntities(store *catalog.Store, kind *catalog.Kind, nameField, filter string) error {
	filters := map[string]string{}
	if filter != "" {
		filters[nameField] = filter
	}
	entities, err := store.Query(kind, filters, &catalog.Order{Field: nameField})
	if err != nil {
		return fmt.Errorf("failed to query %s: %w", kind.Name, err)
	}
	for _, e := range entities {
		fmt.Printf("%s  %s\n", e.ID(), e.Get(nameField))
	}
	return nil
}
