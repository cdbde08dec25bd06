package catalog

import (
	"testing"

	"github.com/franz/musicdb/internal/media"
)

func TestEntitySetUndeclaredField(t *testing.T) {
	e := NewEntity(Artist)
	if err := e.Set("name", "Bob"); err != nil {
		t.Fatalf("failed to set declared field: %v", err)
	}
	if err := e.Set("bitrate", "128"); err == nil {
		t.Error("expected error setting undeclared field on artist")
	}
}

func TestEntityPublicDeclaredFieldsOnly(t *testing.T) {
	e := NewEntity(User)
	if err := e.Merge(map[string]string{
		"id":       "abc",
		"username": "alice",
	}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	public := e.Public()
	if public["id"] != "abc" {
		t.Errorf("expected id abc, got %v", public["id"])
	}
	if public["username"] != "alice" {
		t.Errorf("expected username alice, got %v", public["username"])
	}
	// Absent declared fields must not appear
	if _, ok := public["email"]; ok {
		t.Error("expected absent email to be omitted")
	}
	if len(public) != 2 {
		t.Errorf("expected exactly 2 fields, got %d: %v", len(public), public)
	}
}

func TestEntityPublicNumericCoercion(t *testing.T) {
	e := NewEntity(Media)
	if err := e.Merge(map[string]string{
		"id":         "m1",
		"path":       "/music/a/b.mp3",
		"duration":   "321",
		"userRating": "not-a-number",
	}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}

	public := e.Public()
	if public["duration"] != 321 {
		t.Errorf("expected duration 321, got %v", public["duration"])
	}
	// Textual garbage coerces to 0
	if public["userRating"] != 0 {
		t.Errorf("expected userRating 0, got %v", public["userRating"])
	}
	// Absent numeric fields still serialize as 0
	if public["bitrate"] != 0 {
		t.Errorf("expected bitrate 0, got %v", public["bitrate"])
	}
	if public["averageRating"] != 0 {
		t.Errorf("expected averageRating 0, got %v", public["averageRating"])
	}
}

func TestEntityPublicIsDirBoolean(t *testing.T) {
	e := NewEntity(Media)
	if err := e.Merge(map[string]string{"id": "m1", "isDir": "false"}); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if v, ok := e.Public()["isDir"].(bool); !ok || v {
		t.Errorf("expected isDir false as bool, got %v", e.Public()["isDir"])
	}

	album := NewAlbum("/music/Bob/Greatest")
	if v, ok := album.Public()["isDir"].(bool); !ok || !v {
		t.Errorf("expected isDir true as bool, got %v", album.Public()["isDir"])
	}
}

func TestConstructorsDeriveStableIDs(t *testing.T) {
	artist := NewArtist("/music/Bob")
	if artist.ID() != media.StableID("/music/Bob") {
		t.Errorf("artist id not derived from path")
	}
	if artist.Get("name") != "Bob" {
		t.Errorf("expected artist name Bob, got %s", artist.Get("name"))
	}

	album := NewAlbum("/Bob/GreatestHits")
	if album.ID() != media.StableID("/Bob/GreatestHits") {
		t.Errorf("album id not derived from path")
	}
	if album.Get("name") != "GreatestHits" {
		t.Errorf("expected album name GreatestHits, got %s", album.Get("name"))
	}
	if album.Get("artist") != "Bob" {
		t.Errorf("expected album artist Bob, got %s", album.Get("artist"))
	}

	user := NewUser("alice")
	if user.ID() != media.StableID("alice") {
		t.Errorf("user id not derived from username")
	}

	um := NewUserMedia("alice@example.com", "m1")
	if um.ID() != media.StableID("alice@example.com:m1") {
		t.Errorf("usermedia id not derived from composite key")
	}
	if um.Get("email") != "alice@example.com" || um.Get("mid") != "m1" {
		t.Errorf("usermedia fields not set: %v", um.Public())
	}
}

func TestKindConventions(t *testing.T) {
	for _, kind := range Kinds {
		if kind.IDField() != "id" {
			t.Errorf("%s: expected identity field id, got %s", kind.Name, kind.IDField())
		}
	}
	if columnType("id") != "INTEGER" || columnType("duration") != "INTEGER" {
		t.Error("id and duration must map to INTEGER")
	}
	if columnType("path") != "VARCHAR(192)" || columnType("entry") != "VARCHAR(192)" {
		t.Error("path and entry must map to wide text")
	}
	if columnType("name") != "VARCHAR(64)" {
		t.Error("other fields must map to short text")
	}
}
