package async

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/platinummonkey/docflow/pkg/observability"
)

func TestSafeGoRunsTask(t *testing.T) {
	done := make(chan struct{})
	SafeGo(nil, time.Second, "test", func(ctx context.Context) error {
		close(done)
		return nil
	})
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("task never ran")
	}
}

// syncBuffer guards concurrent writes from the background goroutine.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestSafeGoRecoversPanic(t *testing.T) {
	buf := &syncBuffer{}
	log := observability.NewLogger(observability.ErrorLevel, buf)

	SafeGo(log, time.Second, "panicky", func(ctx context.Context) error {
		panic("boom")
	})
	assert.Eventually(t, func() bool {
		return strings.Contains(buf.String(), "panic in background task")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSafeGoBoundsTaskLifetime(t *testing.T) {
	expired := make(chan struct{})
	SafeGo(nil, 10*time.Millisecond, "bounded", func(ctx context.Context) error {
		<-ctx.Done()
		close(expired)
		return ctx.Err()
	})
	select {
	case <-expired:
	case <-time.After(2 * time.Second):
		t.Fatal("context never expired")
	}
}
