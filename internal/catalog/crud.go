package catalog

import (
	"database/sql"
	"fmt"

	"github.com/franz/musicdb/internal/util"
)

// The serialized-form CRUD surface consumed by the API layer. Reads
// return detached mappings; mutations go through the write guard and the
// idempotent merge.

// GetSongs returns tracks matching the filters, serialized
func (s *Store) GetSongs(filters map[string]string) ([]map[string]any, error) {
	return s.QueryFormat(Media, filters, nil)
}

// GetSong returns one track by id, serialized
func (s *Store) GetSong(id string) (map[string]any, error) {
	return s.QueryIDFormat(Media, id)
}

// GetSongList resolves a list of track ids, skipping ids that fail so one
// bad entry never fails the batch
func (s *Store) GetSongList(ids []string) []map[string]any {
	songs := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		song, err := s.GetSong(id)
		if err != nil {
			util.WarnLog("error retrieving %s: %v", id, err)
			continue
		}
		songs = append(songs, song)
	}
	return songs
}

// GetHighest returns the most-rated tracks, serialized
func (s *Store) GetHighest() ([]map[string]any, error) {
	return s.QueryTop(Media, "userRating", 20)
}

// GetAlbums returns albums matching the filters, serialized
func (s *Store) GetAlbums(filters map[string]string, order *Order) ([]map[string]any, error) {
	return s.QueryFormat(Album, filters, order)
}

// GetAlbum returns one album by id, serialized
func (s *Store) GetAlbum(id string) (map[string]any, error) {
	return s.QueryIDFormat(Album, id)
}

// GetArtists returns artist entities matching the filters. Unlike the
// other getters this returns live entities: the index builder needs field
// access before serializing.
func (s *Store) GetArtists(filters map[string]string, order *Order) ([]*Entity, error) {
	return s.Query(Artist, filters, order)
}

// GetArtist returns one artist by id, serialized
func (s *Store) GetArtist(id string) (map[string]any, error) {
	return s.QueryIDFormat(Artist, id)
}

// GetPlaylists returns playlists matching the filters, serialized
func (s *Store) GetPlaylists(filters map[string]string) ([]map[string]any, error) {
	return s.QueryFormat(Playlist, filters, nil)
}

// GetPlaylist returns one playlist by id, serialized
func (s *Store) GetPlaylist(id string) (map[string]any, error) {
	return s.QueryIDFormat(Playlist, id)
}

// GetUsers returns users matching the filters, serialized
func (s *Store) GetUsers(filters map[string]string) ([]map[string]any, error) {
	return s.QueryFormat(User, filters, nil)
}

// GetUser returns one user by id, serialized
func (s *Store) GetUser(id string) (map[string]any, error) {
	return s.QueryIDFormat(User, id)
}

// AddUser creates a user keyed by the username field and returns its id
func (s *Store) AddUser(fields map[string]string) (string, error) {
	username := fields["username"]
	if username == "" {
		return "", fmt.Errorf("username is required")
	}
	entry := NewUser(username)
	if err := entry.Merge(fields); err != nil {
		return "", err
	}
	util.InfoLog("add user: %s", username)
	return s.CreateEntry(entry)
}

// UpdateUser merges partial fields into an existing user
func (s *Store) UpdateUser(id string, fields map[string]string) error {
	return s.withWrite("update user "+id, func(tx *sql.Tx) error {
		old, err := queryIDTx(tx, User, id)
		if err != nil {
			return err
		}
		if err := old.Merge(fields); err != nil {
			return err
		}
		return mergeTx(tx, old)
	})
}

// DeleteUser removes a user by id
func (s *Store) DeleteUser(id string) error {
	return s.withWrite("delete user "+id, func(tx *sql.Tx) error {
		return deleteTx(tx, User, id)
	})
}

// CreateEntry merges an entity into the store (insert-or-replace by
// identity) and returns its id
func (s *Store) CreateEntry(e *Entity) (string, error) {
	if e == nil {
		return "", fmt.Errorf("entity must not be nil")
	}
	err := s.withWrite("create "+e.kind.Name, func(tx *sql.Tx) error {
		return mergeTx(tx, e)
	})
	if err != nil {
		return "", err
	}
	return e.ID(), nil
}

// UpdateEntry merges partial fields into the entity with the given id,
// whatever its kind
func (s *Store) UpdateEntry(id string, fields map[string]string) error {
	return s.withWrite("update "+id, func(tx *sql.Tx) error {
		old, err := findByIDTx(tx, id, nil)
		if err != nil {
			return err
		}
		if err := old.Merge(fields); err != nil {
			return err
		}
		return mergeTx(tx, old)
	})
}

// DeleteEntry removes the entity with the given id, whatever its kind
func (s *Store) DeleteEntry(id string) error {
	return s.withWrite("delete "+id, func(tx *sql.Tx) error {
		old, err := findByIDTx(tx, id, nil)
		if err != nil {
			return err
		}
		return deleteTx(tx, old.kind, id)
	})
}
