package catalog

import (
	"fmt"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/franz/musicdb/internal/media"
)

// Entity is a generic catalog record: a kind descriptor plus the values of
// its declared fields. Values are stored as text and coerced on
// serialization; absent fields stay absent (and serialize to nothing).
type Entity struct {
	kind  *Kind
	attrs map[string]string
}

// NewEntity creates an empty entity of the given kind
func NewEntity(kind *Kind) *Entity {
	return &Entity{kind: kind, attrs: make(map[string]string)}
}

// Kind returns the entity's kind descriptor
func (e *Entity) Kind() *Kind {
	return e.kind
}

// ID returns the value of the entity's identity field
func (e *Entity) ID() string {
	return e.attrs[e.kind.IDField()]
}

// Get returns the value of a field, or the empty string when absent
func (e *Entity) Get(name string) string {
	return e.attrs[name]
}

// Lookup returns the value of a field and whether it is present
func (e *Entity) Lookup(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// Set assigns a declared field. Assigning an undeclared field is a
// programming error and fails immediately.
func (e *Entity) Set(name, value string) error {
	if !e.kind.HasField(name) {
		return fmt.Errorf("field %q not declared on %s", name, e.kind.Name)
	}
	e.attrs[name] = value
	return nil
}

// Merge bulk-assigns declared fields, failing on the first undeclared one
func (e *Entity) Merge(values map[string]string) error {
	for name, value := range values {
		if err := e.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// Public returns the externally visible form of the entity: declared
// fields only, absent fields omitted, isDir as a real boolean and
// rating/duration/bitrate fields as integers (0 when absent or textual).
func (e *Entity) Public() map[string]any {
	out := make(map[string]any, len(e.attrs))
	for _, name := range e.kind.Fields {
		v, ok := e.attrs[name]
		switch {
		case strings.EqualFold(name, "isDir"):
			if ok {
				out[name] = strings.EqualFold(v, "true")
			}
		case numericField(name):
			// Numeric display fields always serialize, 0 when absent
			out[name] = atoiOrZero(v)
		default:
			if ok {
				out[name] = v
			}
		}
	}
	return out
}

func (e *Entity) String() string {
	return fmt.Sprintf("<%s: %v>", e.kind.Name, e.Public())
}

// numericField reports whether a field always serializes as an integer
func numericField(name string) bool {
	switch strings.ToLower(name) {
	case "userrating", "averagerating", "duration", "bitrate":
		return true
	}
	return false
}

func atoiOrZero(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

// formatAll serializes a result set
func formatAll(entities []*Entity) []map[string]any {
	out := make([]map[string]any, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.Public())
	}
	return out
}

// NewArtist builds an Artist entity from a top-level directory path
func NewArtist(dirPath string) *Entity {
	e := NewEntity(Artist)
	e.attrs["id"] = media.StableID(dirPath)
	e.attrs["name"] = filepath.Base(dirPath)
	e.attrs["path"] = dirPath
	return e
}

// NewAlbum builds an Album entity from a directory path. The path may be a
// real filesystem directory or a logical "/artist/album" path for virtual
// albums; either way the parent segment is taken as the artist.
func NewAlbum(dirPath string) *Entity {
	e := NewEntity(Album)
	base := filepath.Base(dirPath)
	e.attrs["id"] = media.StableID(dirPath)
	e.attrs["name"] = base
	e.attrs["title"] = base
	e.attrs["path"] = dirPath
	e.attrs["isDir"] = "true"
	if parent := path.Dir(filepath.ToSlash(dirPath)); parent != "/" && parent != "." {
		e.attrs["artist"] = path.Base(parent)
		e.attrs["parent"] = media.StableID(parent)
	}
	return e
}

// NewTrack builds a Media entity from extracted field values
func NewTrack(fields map[string]string) (*Entity, error) {
	e := NewEntity(Media)
	if err := e.Merge(fields); err != nil {
		return nil, err
	}
	return e, nil
}

// NewPlaylist builds a Playlist entity keyed by its name
func NewPlaylist(name string) *Entity {
	e := NewEntity(Playlist)
	e.attrs["id"] = media.StableID(name)
	e.attrs["name"] = name
	return e
}

// NewUser builds a User entity keyed by username
func NewUser(username string) *Entity {
	e := NewEntity(User)
	e.attrs["id"] = media.StableID(username)
	e.attrs["username"] = username
	return e
}

// NewUserMedia builds the per-user media-state relation for (email, mid).
// The composite key is realized as a deterministic hash so the identity
// field convention holds for every kind.
func NewUserMedia(email, mid string) *Entity {
	e := NewEntity(UserMedia)
	e.attrs["id"] = media.StableID(email + ":" + mid)
	e.attrs["email"] = email
	e.attrs["mid"] = mid
	return e
}
