package catalog

import (
	"errors"
	"testing"

	"github.com/franz/musicdb/internal/media"
)

func addTrack(t *testing.T, store *Store, fields map[string]string) *Entity {
	t.Helper()
	track, err := NewTrack(fields)
	if err != nil {
		t.Fatalf("bad track fields: %v", err)
	}
	if _, err := store.CreateEntry(track); err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	return track
}

func TestQueryConjunction(t *testing.T) {
	store := newTestStore(t, nil)

	addTrack(t, store, map[string]string{"id": "t1", "artist": "John", "album": "Alpha"})
	addTrack(t, store, map[string]string{"id": "t2", "artist": "Jolene"})
	addTrack(t, store, map[string]string{"id": "t3", "artist": "Mary", "album": "Beta"})

	// artist contains "Jo" AND album is present
	got, err := store.Query(Media, map[string]string{"artist": "Jo", "album": FilterNotNull}, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "t1" {
		t.Fatalf("expected only t1, got %v", got)
	}

	// album absent
	got, err = store.Query(Media, map[string]string{"album": FilterIsNull}, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 || got[0].ID() != "t2" {
		t.Fatalf("expected only t2, got %v", got)
	}
}

func TestQuerySubstringIsCaseSensitive(t *testing.T) {
	store := newTestStore(t, nil)
	addTrack(t, store, map[string]string{"id": "t1", "artist": "John"})

	got, err := store.Query(Media, map[string]string{"artist": "jo"}, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("lowercase filter must not match John, got %d rows", len(got))
	}

	got, err = store.Query(Media, map[string]string{"artist": "oh"}, nil)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("substring oh must match John, got %d rows", len(got))
	}
}

func TestQueryUndeclaredFieldFailsFast(t *testing.T) {
	store := newTestStore(t, nil)

	if _, err := store.Query(Artist, map[string]string{"bitrate": "128"}, nil); err == nil {
		t.Error("expected error filtering artist by undeclared field")
	}
	if _, err := store.Query(Artist, nil, &Order{Field: "bitrate"}); err == nil {
		t.Error("expected error ordering artist by undeclared field")
	}
}

func TestQueryOrder(t *testing.T) {
	store := newTestStore(t, nil)
	for _, name := range []string{"beta", "alpha", "gamma"} {
		if _, err := store.CreateEntry(NewArtist("/m/" + name)); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	asc, err := store.Query(Artist, nil, &Order{Field: "name"})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if asc[0].Get("name") != "alpha" || asc[2].Get("name") != "gamma" {
		t.Errorf("ascending order wrong: %v, %v, %v",
			asc[0].Get("name"), asc[1].Get("name"), asc[2].Get("name"))
	}

	desc, err := store.Query(Artist, nil, &Order{Field: "name", Desc: true})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if desc[0].Get("name") != "gamma" || desc[2].Get("name") != "alpha" {
		t.Errorf("descending order wrong: %v, %v, %v",
			desc[0].Get("name"), desc[1].Get("name"), desc[2].Get("name"))
	}
}

func TestQueryIDNotFound(t *testing.T) {
	store := newTestStore(t, nil)

	_, err := store.QueryID(Media, "no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestQueryTop(t *testing.T) {
	store := newTestStore(t, nil)
	addTrack(t, store, map[string]string{"id": "t1", "title": "one", "userRating": "1"})
	addTrack(t, store, map[string]string{"id": "t2", "title": "two", "userRating": "5"})
	addTrack(t, store, map[string]string{"id": "t3", "title": "three", "userRating": "3"})

	top, err := store.QueryTop(Media, "userRating", 2)
	if err != nil {
		t.Fatalf("query top failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(top))
	}
	if top[0]["userRating"] != 5 || top[1]["userRating"] != 3 {
		t.Errorf("expected ratings 5,3 got %v,%v", top[0]["userRating"], top[1]["userRating"])
	}
}

func TestGetHighest(t *testing.T) {
	store := newTestStore(t, nil)
	addTrack(t, store, map[string]string{"id": "t1", "userRating": "2"})
	addTrack(t, store, map[string]string{"id": "t2", "userRating": "4"})

	top, err := store.GetHighest()
	if err != nil {
		t.Fatalf("get highest failed: %v", err)
	}
	if len(top) != 2 || top[0]["id"] != "t2" {
		t.Errorf("expected t2 first, got %v", top)
	}
}

func TestFindByIDPriority(t *testing.T) {
	store := newTestStore(t, nil)

	// The same id across kinds: the fixed probe order must pick the track
	for _, kind := range []*Kind{Artist, Album, Media, Playlist} {
		e := NewEntity(kind)
		if err := e.Set("id", "shared"); err != nil {
			t.Fatalf("set id failed: %v", err)
		}
		if err := e.Set("name", kind.Name); err != nil && kind != Media {
			t.Fatalf("set name failed: %v", err)
		}
		if _, err := store.CreateEntry(e); err != nil {
			t.Fatalf("create %s failed: %v", kind.Name, err)
		}
	}

	found, err := store.FindByID("shared", nil)
	if err != nil {
		t.Fatalf("find failed: %v", err)
	}
	if found.Kind() != Media {
		t.Errorf("expected media kind to win, got %s", found.Kind().Name)
	}

	// A kind hint narrows the probe
	found, err = store.FindByID("shared", Playlist)
	if err != nil {
		t.Fatalf("find with hint failed: %v", err)
	}
	if found.Kind() != Playlist {
		t.Errorf("expected playlist with hint, got %s", found.Kind().Name)
	}

	if _, err := store.FindByID("missing", nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown id, got %v", err)
	}
}

func TestUsersScenario(t *testing.T) {
	store := newTestStore(t, nil)

	users, err := store.GetUsers(nil)
	if err != nil {
		t.Fatalf("get users failed: %v", err)
	}
	before := len(users)

	id, err := store.AddUser(map[string]string{"username": "alice"})
	if err != nil {
		t.Fatalf("add user failed: %v", err)
	}
	if id != media.StableID("alice") {
		t.Errorf("user id not derived from username")
	}

	users, err = store.GetUsers(nil)
	if err != nil {
		t.Fatalf("get users failed: %v", err)
	}
	if len(users) != before+1 {
		t.Fatalf("expected %d users, got %d", before+1, len(users))
	}
	if users[0]["username"] != "alice" || users[0]["id"] != id {
		t.Errorf("unexpected user row: %v", users[0])
	}
}

func TestUpdateUserMergesPartialFields(t *testing.T) {
	store := newTestStore(t, nil)

	id, err := store.AddUser(map[string]string{"username": "alice"})
	if err != nil {
		t.Fatalf("add user failed: %v", err)
	}

	if err := store.UpdateUser(id, map[string]string{"email": "alice@example.com"}); err != nil {
		t.Fatalf("update user failed: %v", err)
	}

	user, err := store.GetUser(id)
	if err != nil {
		t.Fatalf("get user failed: %v", err)
	}
	if user["username"] != "alice" {
		t.Error("update must preserve fields it does not touch")
	}
	if user["email"] != "alice@example.com" {
		t.Errorf("expected merged email, got %v", user["email"])
	}
}

func TestDeleteUser(t *testing.T) {
	store := newTestStore(t, nil)

	id, err := store.AddUser(map[string]string{"username": "alice"})
	if err != nil {
		t.Fatalf("add user failed: %v", err)
	}
	if err := store.DeleteUser(id); err != nil {
		t.Fatalf("delete user failed: %v", err)
	}
	if _, err := store.GetUser(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteUser(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestUpdateAndDeleteEntryAcrossKinds(t *testing.T) {
	store := newTestStore(t, nil)

	artist := NewArtist("/music/Bob")
	if _, err := store.CreateEntry(artist); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := store.UpdateEntry(artist.ID(), map[string]string{"name": "Bobby"}); err != nil {
		t.Fatalf("update entry failed: %v", err)
	}
	got, err := store.GetArtist(artist.ID())
	if err != nil {
		t.Fatalf("get artist failed: %v", err)
	}
	if got["name"] != "Bobby" {
		t.Errorf("expected updated name, got %v", got["name"])
	}

	if err := store.DeleteEntry(artist.ID()); err != nil {
		t.Fatalf("delete entry failed: %v", err)
	}
	if _, err := store.GetArtist(artist.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetSongListIsolatesFailures(t *testing.T) {
	store := newTestStore(t, nil)
	addTrack(t, store, map[string]string{"id": "t1", "title": "one"})

	songs := store.GetSongList([]string{"t1", "", "missing"})
	if len(songs) != 1 {
		t.Fatalf("expected 1 resolvable song, got %d", len(songs))
	}
	if songs[0]["title"] != "one" {
		t.Errorf("unexpected song: %v", songs[0])
	}
}
