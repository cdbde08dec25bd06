package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/musicdb/internal/catalog"
	"github.com/franz/musicdb/internal/media"
	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/util"
)

var (
	// Version is set at build time
	Version = "dev"

	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "musicdb",
		Short: "musicdb - media catalog store for music collections",
		Long: `musicdb builds and serves a media catalog from folders of music files.
It ingests artists, albums and tracks into an embedded database, keeps the
catalog fresh with periodic or watched re-walks, and exposes the entities
to a higher-level API layer.`,
		Version: Version,
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/musicdb.yaml)")
	rootCmd.PersistentFlags().String("db", "musicdb.db", "catalog database file")
	rootCmd.PersistentFlags().StringSliceP("music-folder", "m", nil, "music folder root (repeatable)")
	rootCmd.PersistentFlags().Duration("refresh-interval", time.Minute, "minimum time between walks (0 enables deep one-shot scans)")
	rootCmd.PersistentFlags().StringSlice("extensions", nil, "additional media file extensions")
	rootCmd.PersistentFlags().String("events-dir", "", "directory for the JSONL audit log (empty disables)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet output (errors only)")

	// Bind flags to viper
	viper.BindPFlag("db", rootCmd.PersistentFlags().Lookup("db"))
	viper.BindPFlag("music-folders", rootCmd.PersistentFlags().Lookup("music-folder"))
	viper.BindPFlag("refresh-interval", rootCmd.PersistentFlags().Lookup("refresh-interval"))
	viper.BindPFlag("extensions", rootCmd.PersistentFlags().Lookup("extensions"))
	viper.BindPFlag("events-dir", rootCmd.PersistentFlags().Lookup("events-dir"))
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.SetConfigName("musicdb")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MUSICDB")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && !viper.GetBool("quiet") {
		util.InfoLog("Using config file: %s", viper.ConfigFileUsed())
	}
}

// openStore opens the catalog with the configured options
func openStore(recreate bool) (*catalog.Store, error) {
	util.SetVerbose(viper.GetBool("verbose"))
	util.SetQuiet(viper.GetBool("quiet"))

	media.RegisterExtensions(viper.GetStringSlice("extensions"))

	events := report.NullLogger()
	if dir := viper.GetString("events-dir"); dir != "" {
		var err error
		events, err = report.NewLogger(dir)
		if err != nil {
			util.WarnLog("Failed to create event logger: %v", err)
			events = report.NullLogger()
		}
	}

	store, err := catalog.Open(&catalog.Options{
		Path:            viper.GetString("db"),
		MusicFolders:    viper.GetStringSlice("music-folders"),
		RefreshInterval: viper.GetDuration("refresh-interval"),
		Recreate:        recreate,
		Events:          events,
	})
	if err != nil {
		events.Close()
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	if events.Path() != "" {
		util.InfoLog("Event log: %s", events.Path())
	}
	return store, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
