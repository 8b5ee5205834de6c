// Package audit records security-relevant engine events. Its main consumer
// is the admin-override path: when an administrator bypasses an invalid
// state or invalid transition check, the event trail is the only place the
// repair is distinguishable from a normal transition.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event is one audit record.
type Event struct {
	Time    time.Time `json:"time"`
	Caller  string    `json:"caller"`
	DocType string    `json:"doc_type"`
	DocID   string    `json:"doc_id,omitempty"`
	Kind    string    `json:"kind"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	// Override marks events where an administrator bypassed a check that
	// would have rejected a regular caller.
	Override bool `json:"override,omitempty"`
}

// Logger is the audit sink interface.
type Logger interface {
	Log(ctx context.Context, event Event) error
}

// NopLogger discards all events.
type NopLogger struct{}

// Log implements Logger.
func (NopLogger) Log(ctx context.Context, event Event) error { return nil }

// FileLogger appends events as JSON lines to a file.
type FileLogger struct {
	mu   sync.Mutex
	file *os.File
}

// NewFileLogger opens (or creates) the audit file for appending.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	return &FileLogger{file: f}, nil
}

// Log implements Logger.
func (l *FileLogger) Log(ctx context.Context, event Event) error {
	raw, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode audit event: %w", err)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.file.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("failed to write audit event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// MultiLogger fans events out to several sinks. The first failure is
// returned, but every sink still sees the event.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines loggers.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log implements Logger.
func (l *MultiLogger) Log(ctx context.Context, event Event) error {
	var firstErr error
	for _, sink := range l.sinks {
		if err := sink.Log(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// MemoryLogger collects events in memory; used in tests.
type MemoryLogger struct {
	mu     sync.Mutex
	events []Event
}

// Log implements Logger.
func (l *MemoryLogger) Log(ctx context.Context, event Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
	return nil
}

// Events returns a snapshot of recorded events.
func (l *MemoryLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}
