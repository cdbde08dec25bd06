package catalog

import (
	"fmt"
	"strings"
)

// Kind describes one entity table: its name and its declared field set.
// The first declared field is always the identity field.
type Kind struct {
	Name   string
	Table  string
	Fields []string

	fieldSet map[string]bool
}

func newKind(name, table string, fields ...string) *Kind {
	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return &Kind{Name: name, Table: table, Fields: fields, fieldSet: set}
}

// Entity kinds of the catalog. Field order matters: the first field is the
// primary identity everywhere.
var (
	Artist = newKind("artist", "artists",
		"id", "name", "path")

	Album = newKind("album", "albums",
		"id", "name", "path", "artist", "parent", "isDir", "title")

	Media = newKind("media", "media",
		"id", "parent", "path", "title", "artist", "album", "albumId",
		"isDir", "duration", "bitrate", "size", "suffix", "type",
		"created", "userRating", "averageRating")

	Playlist = newKind("playlist", "playlists",
		"id", "name", "comment", "entry", "public")

	User = newKind("user", "users",
		"id", "username", "email", "scrobbleUser", "password")

	UserMedia = newKind("usermedia", "user_media",
		"id", "email", "mid", "starred", "rating")
)

// Kinds lists every entity kind, in schema-creation order
var Kinds = []*Kind{Artist, Album, Media, Playlist, User, UserMedia}

// IDField returns the name of the kind's identity field
func (k *Kind) IDField() string {
	return k.Fields[0]
}

// HasField reports whether name is part of the kind's declared field set
func (k *Kind) HasField(name string) bool {
	return k.fieldSet[name]
}

// columnType maps a field name to its storage type. The convention is
// fixed: id/duration are integers, path-like fields are wide text,
// everything else is short text.
func columnType(field string) string {
	switch field {
	case "id", "duration":
		return "INTEGER"
	case "path", "entry":
		return "VARCHAR(192)"
	default:
		return "VARCHAR(64)"
	}
}

// createSQL returns the CREATE TABLE statement for the kind. The identity
// column is the primary key, every other column is nullable.
func (k *Kind) createSQL() string {
	cols := make([]string, 0, len(k.Fields))
	for i, f := range k.Fields {
		col := fmt.Sprintf("%s %s", f, columnType(f))
		if i == 0 {
			col += " PRIMARY KEY"
		}
		cols = append(cols, col)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", k.Table, strings.Join(cols, ", "))
}

// dropSQL returns the DROP TABLE statement for the kind
func (k *Kind) dropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", k.Table)
}
