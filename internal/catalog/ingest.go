package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/afero"
	"golang.org/x/text/unicode/norm"

	"github.com/franz/musicdb/internal/media"
	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/util"
)

// IngestPath classifies a filesystem path and merges the resulting
// entity into the catalog.
//
// A directory becomes an Artist (or an Album when asAlbum is set). A
// supported media file becomes a track; when its tagged album differs
// from the containing directory's name and both artist and album are
// known, a virtual Album keyed by the logical "/artist/album" path is
// synthesized and merged in the same transaction, and the track's
// albumId points at it. Anything else fails with ErrUnsupportedEntry.
//
// Returns the primary entity's id. Re-ingesting the same path yields the
// same id and overwrites the existing row.
func (s *Store) IngestPath(rawPath string, asAlbum bool) (string, error) {
	p := filepath.Clean(norm.NFC.String(rawPath))
	util.DebugLog("ingest path: %s (album=%v)", p, asAlbum)

	info, err := s.fs.Stat(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedEntry, p, err)
	}

	var entity, virtual *Entity
	switch {
	case info.IsDir():
		if asAlbum {
			entity = NewAlbum(p)
		} else {
			entity = NewArtist(p)
		}
		util.InfoLog("adding directory: %s, %s", entity.ID(), p)

	case media.IsSupported(p):
		fields, err := media.Extract(s.fs, p)
		if err != nil {
			return "", fmt.Errorf("%w: %s: %v", ErrUnsupportedEntry, p, err)
		}
		entity, err = NewTrack(fields)
		if err != nil {
			return "", err
		}
		if err := entity.Set("parent", media.StableID(filepath.Dir(p))); err != nil {
			return "", err
		}

		// Virtual album: the tag says the track belongs to an album the
		// directory layout doesn't reflect
		album, artist := entity.Get("album"), entity.Get("artist")
		if album != "" && artist != "" && album != filepath.Base(filepath.Dir(p)) {
			vpath := path.Join("/", artist, album)
			virtual = NewAlbum(vpath)
			if err := entity.Set("albumId", virtual.ID()); err != nil {
				return "", err
			}
		}
		util.InfoLog("adding file: %s, %s", entity.ID(), p)

	default:
		return "", fmt.Errorf("%w: path not found or bad extension: %s", ErrUnsupportedEntry, p)
	}

	if entity.Kind().HasField("created") {
		if err := entity.Set("created", strconv.FormatInt(info.ModTime().Unix(), 10)); err != nil {
			return "", err
		}
	}

	// Primary entity and virtual album commit or roll back together
	err = s.withWrite("add path "+p, func(tx *sql.Tx) error {
		if err := mergeTx(tx, entity); err != nil {
			return err
		}
		if virtual != nil {
			return mergeTx(tx, virtual)
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	s.events.LogIngest(entity.ID(), p)
	return entity.ID(), nil
}

// WalkResult summarizes a music-folder walk
type WalkResult struct {
	Skipped  bool // walk debounced by the refresh interval
	Artists  int
	Ingested int
	Errors   []error
}

// Walk ingests every configured music folder: immediate subdirectories
// become artist candidates, and with no refresh interval configured the
// walk also descends into each artist's files. A walk is skipped when the
// last completed one is younger than the refresh interval. Per-entry
// failures are logged and never abort the walk.
//
// The walk itself runs outside the store lock; only each individual merge
// takes it.
func (s *Store) Walk() (*WalkResult, error) {
	s.walkMu.Lock()
	defer s.walkMu.Unlock()

	result := &WalkResult{}
	if s.refreshInterval > 0 && !s.lastWalk.IsZero() && time.Since(s.lastWalk) < s.refreshInterval {
		util.DebugLog("walk skipped, last completed %s ago", time.Since(s.lastWalk).Round(time.Second))
		result.Skipped = true
		return result, nil
	}

	util.InfoLog("walking: %v", s.musicFolders)
	s.events.Log(report.Event{Event: report.EventWalk})

	var bar *progressbar.ProgressBar
	if util.IsTerminal(os.Stdout.Fd()) && !util.IsQuiet() {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Walking"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("artists"),
			progressbar.OptionThrottle(200*time.Millisecond),
			progressbar.OptionClearOnFinish(),
		)
	}

	for _, folder := range s.musicFolders {
		entries, err := afero.ReadDir(s.fs, folder)
		if err != nil {
			util.WarnLog("cannot list music folder %s: %v", folder, err)
			result.Errors = append(result.Errors, fmt.Errorf("list %s: %w", folder, err))
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			artistPath := filepath.Join(folder, entry.Name())
			util.DebugLog("scanning artist: %s", entry.Name())

			if _, err := s.IngestPath(artistPath, false); err != nil {
				util.ErrorLog("cannot ingest %s: %v", artistPath, err)
				s.events.LogError(artistPath, err)
				result.Errors = append(result.Errors, err)
			} else {
				result.Ingested++
			}
			result.Artists++
			if bar != nil {
				bar.Add(1)
			}

			// Deep descent only without a refresh interval: a periodic
			// re-walk covers changes otherwise
			if s.refreshInterval > 0 {
				continue
			}
			s.walkArtistFiles(artistPath, result)
		}
	}

	if bar != nil {
		bar.Finish()
	}

	s.lastWalk = time.Now()
	util.SuccessLog("walk complete: %d artists, %d entries ingested, %d errors",
		result.Artists, result.Ingested, len(result.Errors))
	return result, nil
}

// walkArtistFiles recursively ingests the files below an artist directory
func (s *Store) walkArtistFiles(artistPath string, result *WalkResult) {
	walkErr := afero.Walk(s.fs, artistPath, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			util.WarnLog("error accessing %s: %v", p, err)
			result.Errors = append(result.Errors, fmt.Errorf("access %s: %w", p, err))
			return nil
		}
		if info.IsDir() {
			return nil
		}

		if _, err := s.IngestPath(p, false); err != nil {
			if errors.Is(err, ErrUnsupportedEntry) {
				s.events.LogSkip(p, "unsupported entry")
				util.DebugLog("skipping %s: %v", p, err)
				return nil
			}
			util.ErrorLog("cannot ingest %s: %v", p, err)
			s.events.LogError(p, err)
			result.Errors = append(result.Errors, err)
			return nil
		}
		result.Ingested++
		return nil
	})
	if walkErr != nil {
		result.Errors = append(result.Errors, fmt.Errorf("walk %s: %w", artistPath, walkErr))
	}
}
