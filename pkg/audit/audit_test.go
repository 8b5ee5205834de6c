package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent(kind string) Event {
	return Event{
		Time:     time.Now().UTC(),
		Caller:   "root@example.com",
		DocType:  "request",
		DocID:    "d1",
		Kind:     kind,
		From:     "requested",
		To:       "closed",
		Override: true,
	}
}

func TestFileLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l, err := NewFileLogger(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Log(ctx, testEvent("invalid_transition")))
	require.NoError(t, l.Log(ctx, testEvent("invalid_state")))
	require.NoError(t, l.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var kinds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &e))
		kinds = append(kinds, e.Kind)
		assert.True(t, e.Override)
		assert.Equal(t, "root@example.com", e.Caller)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"invalid_transition", "invalid_state"}, kinds)
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	ctx := context.Background()

	l, err := NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, l.Log(ctx, testEvent("first")))
	require.NoError(t, l.Close())

	l, err = NewFileLogger(path)
	require.NoError(t, err)
	require.NoError(t, l.Log(ctx, testEvent("second")))
	require.NoError(t, l.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "first")
	assert.Contains(t, string(raw), "second")
}

type failingLogger struct{ err error }

func (f failingLogger) Log(ctx context.Context, event Event) error { return f.err }

func TestMultiLoggerFansOut(t *testing.T) {
	mem1 := &MemoryLogger{}
	mem2 := &MemoryLogger{}
	failure := errors.New("sink down")

	multi := NewMultiLogger(mem1, failingLogger{err: failure}, mem2)
	err := multi.Log(context.Background(), testEvent("k"))

	assert.Equal(t, failure, err)
	// Every sink still sees the event.
	assert.Len(t, mem1.Events(), 1)
	assert.Len(t, mem2.Events(), 1)
}

func TestMemoryLoggerSnapshot(t *testing.T) {
	mem := &MemoryLogger{}
	require.NoError(t, mem.Log(context.Background(), testEvent("k")))

	events := mem.Events()
	require.Len(t, events, 1)
	events[0].Kind = "mutated"
	assert.Equal(t, "k", mem.Events()[0].Kind)
}
