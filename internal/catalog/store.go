// Package catalog is the media-catalog store: entity schema, generic
// queries, filesystem ingestion and the alphabetic artist index, all
// behind a single-writer session guard with corruption self-healing.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/spf13/afero"
	sqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/franz/musicdb/internal/report"
	"github.com/franz/musicdb/internal/util"
)

// Sentinel errors for the caller-visible failure modes
var (
	// ErrNotFound indicates a lookup matched zero rows
	ErrNotFound = errors.New("entry not found")

	// ErrUnsupportedEntry indicates an ingestion target that is neither a
	// directory nor a recognized media file
	ErrUnsupportedEntry = errors.New("unsupported entry")

	// ErrStoreReset indicates a storage-engine fault was recovered by
	// rebuilding an empty store; the triggering operation's result is lost
	// and the caller must retry or treat the store as empty
	ErrStoreReset = errors.New("store reset after storage fault")
)

// Options holds store configuration
type Options struct {
	Path            string        // database file path
	MusicFolders    []string      // roots scanned by Walk
	RefreshInterval time.Duration // debounce between walks; 0 means one-shot deep scans
	Recreate        bool          // drop and recreate the schema on open
	Fs              afero.Fs      // filesystem used by ingestion (defaults to the OS)
	Events          *report.Logger
}

// Store owns the database connection and serializes every operation
// behind one process-wide lock.
type Store struct {
	db *sql.DB
	mu sync.Mutex

	fs              afero.Fs
	musicFolders    []string
	refreshInterval time.Duration
	events          *report.Logger

	// walkMu keeps walks from overlapping; it is never held together
	// with mu, so individual merges still serialize on their own
	walkMu   sync.Mutex
	lastWalk time.Time

	closeOnce sync.Once
}

// Open opens or creates the catalog database at opts.Path
func Open(opts *Options) (*Store, error) {
	if opts == nil || opts.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	events := opts.Events
	if events == nil {
		events = report.NullLogger()
	}

	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", opts.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The store is a single logical connection; the guard serializes all
	// access anyway, so keep the pool at one
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Substring filters are case-sensitive by contract
	if _, err := db.Exec("PRAGMA case_sensitive_like = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragma: %w", err)
	}

	s := &Store{
		db:              db,
		fs:              fs,
		musicFolders:    opts.MusicFolders,
		refreshInterval: opts.RefreshInterval,
		events:          events,
	}

	if opts.Recreate {
		if err := s.resetLocked(); err != nil {
			db.Close()
			return nil, err
		}
	} else if err := s.createAll(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// Close shuts the store down. Safe to call more than once; the underlying
// engine is stopped exactly once.
func (s *Store) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		err = s.db.Close()
	})
	return err
}

// MusicFolders returns the configured music folder roots
func (s *Store) MusicFolders() []string {
	return s.musicFolders
}

// Reset drops and recreates every entity table. Destructive: all catalog
// data is lost.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetLocked()
}

// resetLocked rebuilds the schema. Callers must hold the store lock so no
// concurrent operation can observe a half-reset store.
func (s *Store) resetLocked() error {
	for _, kind := range Kinds {
		if _, err := s.db.Exec(kind.dropSQL()); err != nil {
			return fmt.Errorf("failed to drop %s: %w", kind.Table, err)
		}
	}
	if err := s.createAll(); err != nil {
		return err
	}
	s.events.LogReset("drop and recreate")
	return nil
}

func (s *Store) createAll() error {
	for _, kind := range Kinds {
		if _, err := s.db.Exec(kind.createSQL()); err != nil {
			return fmt.Errorf("failed to create %s: %w", kind.Table, err)
		}
	}
	return nil
}

// withRead runs a read-only operation inside the session guard: one
// process-wide lock, one transaction, rolled back on exit. A storage-engine
// fault triggers a full reset and surfaces as ErrStoreReset; ErrNotFound
// propagates untouched; anything else is logged and returned.
func (s *Store) withRead(op string, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return s.recoverFault(op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		if errors.Is(err, ErrNotFound) {
			return err
		}
		tx.Rollback()
		if isStorageFault(err) {
			return s.recoverFault(op, err)
		}
		util.ErrorLog("%s failed: %v", op, err)
		return err
	}
	return nil
}

// withWrite runs a mutation inside the session guard: lock, transaction,
// commit on success. A storage-engine fault rolls back and triggers a full
// reset; any other failure rolls back and is returned after logging.
func (s *Store) withWrite(op string, fn func(tx *sql.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return s.recoverFault(op, err)
	}

	if err := fn(tx); err != nil {
		tx.Rollback()
		if errors.Is(err, ErrNotFound) {
			return err
		}
		if isStorageFault(err) {
			return s.recoverFault(op, err)
		}
		util.ErrorLog("%s failed: %v", op, err)
		return err
	}

	if err := tx.Commit(); err != nil {
		if isStorageFault(err) {
			return s.recoverFault(op, err)
		}
		return fmt.Errorf("failed to commit %s: %w", op, err)
	}
	return nil
}

// recoverFault handles a storage-engine fault: log, rebuild an empty
// store, report ErrStoreReset. Data loss is the accepted cost. Must be
// called with the store lock held.
func (s *Store) recoverFault(op string, cause error) error {
	util.ErrorLog("Corrupted database on %s: %v - dropping and recreating", op, cause)
	if err := s.resetLocked(); err != nil {
		return fmt.Errorf("reset after fault failed: %w (fault: %v)", err, cause)
	}
	return ErrStoreReset
}

// isStorageFault classifies engine-level faults (bad schema or connection
// state) that are treated as fatal-to-the-connection and self-healed by a
// reset, as opposed to ordinary query failures.
func isStorageFault(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_ERROR, // schema gone, e.g. "no such table"
		sqlite3.SQLITE_CORRUPT,
		sqlite3.SQLITE_NOTADB,
		sqlite3.SQLITE_IOERR:
		return true
	}
	return false
}
