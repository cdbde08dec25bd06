package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/franz/musicdb/internal/util"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the music folders and keep the catalog fresh",
	Long: `Run an initial walk, then watch every configured music folder for
filesystem changes and re-walk when something happens. A periodic re-walk
also runs at the refresh interval, so changes the watcher misses are
picked up eventually.

The walk itself is debounced by the refresh interval, so a burst of
filesystem events triggers at most one walk per interval.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	store, err := openStore(false)
	if err != nil {
		return err
	}
	defer store.Close()

	folders := store.MusicFolders()
	if len(folders) == 0 {
		return fmt.Errorf("no music folders configured (use --music-folder or set music-folders in config)")
	}

	interval := viper.GetDuration("refresh-interval")
	if interval <= 0 {
		interval = time.Minute
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	for _, folder := range folders {
		if err := watcher.Add(folder); err != nil {
			return fmt.Errorf("failed to watch %s: %w", folder, err)
		}
		util.InfoLog("Watching: %s", folder)
	}

	if _, err := store.Walk(); err != nil {
		return fmt.Errorf("initial walk failed: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			util.InfoLog("Shutting down")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			util.DebugLog("filesystem event: %s", event)
			if _, err := store.Walk(); err != nil {
				util.ErrorLog("walk failed: %v", err)
			}

		case <-ticker.C:
			if _, err := store.Walk(); err != nil {
				util.ErrorLog("walk failed: %v", err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			util.WarnLog("watcher error: %v", err)
		}
	}
}
