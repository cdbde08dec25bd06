// Package media reads audio file metadata and derives the stable
// identifiers used for every catalog entity.
package media

import (
	"crypto/sha1"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dhowden/tag"
	"github.com/spf13/afero"

	"github.com/franz/musicdb/internal/util"
)

// ErrUnsupportedMedia indicates a file is not a recognized audio format
var ErrUnsupportedMedia = errors.New("unsupported media")

// SupportedExtensions are the default supported audio file extensions
var SupportedExtensions = []string{
	".mp3",
	".flac",
	".m4a",
	".aac",
	".ogg",
	".opus",
	".wav",
	".aiff",
	".aif",
	".wma",
}

var extensions = buildExtensionMap(nil)

func buildExtensionMap(additional []string) map[string]bool {
	m := make(map[string]bool)
	for _, ext := range SupportedExtensions {
		m[strings.ToLower(ext)] = true
	}
	for _, ext := range additional {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		m[ext] = true
	}
	return m
}

// RegisterExtensions adds extra supported extensions (from configuration)
func RegisterExtensions(additional []string) {
	extensions = buildExtensionMap(additional)
}

// IsSupported checks if a path has a supported audio extension
func IsSupported(path string) bool {
	return extensions[strings.ToLower(filepath.Ext(path))]
}

// StableID returns the deterministic id for a path or logical key.
// Re-hashing the same key always yields the same id, which is what makes
// catalog merges idempotent.
func StableID(key string) string {
	h := sha1.New()
	fmt.Fprint(h, key)
	return fmt.Sprintf("%x", h.Sum(nil))
}

// Extract reads tags and file metadata for an audio file and returns the
// public field values of a track entity. Returns ErrUnsupportedMedia when
// the extension is not a recognized audio format.
func Extract(fs afero.Fs, path string) (map[string]string, error) {
	if !IsSupported(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMedia, path)
	}

	info, err := fs.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	fields := map[string]string{
		"id":     StableID(path),
		"path":   path,
		"isDir":  "false",
		"size":   strconv.FormatInt(info.Size(), 10),
		"suffix": strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		"type":   "music",
	}

	// Title falls back to the file name so a tagless file is still usable
	fields["title"] = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if err := readTags(fs, path, fields); err != nil {
		util.DebugLog("No readable tags in %s: %v", path, err)
	}

	// ffprobe fills in audio properties the tag library doesn't provide
	if CheckFFprobeAvailable() {
		enrichWithFFprobe(path, fields)
	}

	return fields, nil
}

// readTags fills artist/album/title from embedded tags when present
func readTags(fs afero.Fs, path string, fields map[string]string) error {
	f, err := fs.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	if t := strings.TrimSpace(m.Title()); t != "" {
		fields["title"] = t
	}
	if a := strings.TrimSpace(m.Artist()); a != "" {
		fields["artist"] = a
	}
	if al := strings.TrimSpace(m.Album()); al != "" {
		fields["album"] = al
	}
	return nil
}

// enrichWithFFprobe merges duration and bitrate into fields, ignoring
// probe failures (the catalog serializes absent numerics as 0)
func enrichWithFFprobe(path string, fields map[string]string) {
	probe, err := RunFFprobe(path)
	if err != nil {
		util.DebugLog("ffprobe failed for %s: %v", path, err)
		return
	}
	if probe.DurationSeconds > 0 {
		fields["duration"] = strconv.Itoa(probe.DurationSeconds)
	}
	if probe.BitrateKbps > 0 {
		fields["bitrate"] = strconv.Itoa(probe.BitrateKbps)
	}
}
