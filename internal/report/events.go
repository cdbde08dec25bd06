// Package report writes a JSONL audit trail of catalog activity.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventType represents the type of event
type EventType string

const (
	EventWalk   EventType = "walk"
	EventIngest EventType = "ingest"
	EventSkip   EventType = "skip"
	EventReset  EventType = "reset"
	EventError  EventType = "error"
)

// Event represents a single catalog event
type Event struct {
	Timestamp time.Time `json:"ts"`
	Event     EventType `json:"event"`
	ID        string    `json:"id,omitempty"`
	Path      string    `json:"path,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// Logger writes events to a JSONL file
type Logger struct {
	file    *os.File
	encoder *json.Encoder
	mu      sync.Mutex
	path    string
}

// NewLogger creates an event logger writing under outputDir
func NewLogger(outputDir string) (*Logger, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	name := fmt.Sprintf("catalog-%s.jsonl", time.Now().Format("20060102-150405"))
	path := filepath.Join(outputDir, name)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create event log: %w", err)
	}

	return &Logger{file: f, encoder: json.NewEncoder(f), path: path}, nil
}

// NullLogger returns a logger that discards everything
func NullLogger() *Logger {
	return &Logger{}
}

// Path returns the log file location, or "" for a null logger
func (l *Logger) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

// Log writes one event
func (l *Logger) Log(ev Event) {
	if l == nil || l.encoder == nil {
		return
	}
	ev.Timestamp = time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.encoder.Encode(ev); err != nil {
		fmt.Fprintf(os.Stderr, "event log write failed: %v\n", err)
	}
}

// LogIngest records a successfully merged entity
func (l *Logger) LogIngest(id, path string) {
	l.Log(Event{Event: EventIngest, ID: id, Path: path})
}

// LogSkip records an entry passed over during a walk
func (l *Logger) LogSkip(path, reason string) {
	l.Log(Event{Event: EventSkip, Path: path, Reason: reason})
}

// LogReset records a destructive store rebuild
func (l *Logger) LogReset(reason string) {
	l.Log(Event{Event: EventReset, Reason: reason})
}

// LogError records a per-entry failure
func (l *Logger) LogError(path string, err error) {
	l.Log(Event{Event: EventError, Path: path, Error: err.Error()})
}

// Close flushes and closes the log file
func (l *Logger) Close() error {
	if l == nil || l.file == nil {
		return nil
	}
	return l.file.Close()
}
