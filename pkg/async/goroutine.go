// Package async provides safe fire-and-forget goroutine dispatch for side
// effects that must not block or fail an operation, such as outbound
// notifications.
package async

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/platinummonkey/docflow/pkg/observability"
)

// SafeGo executes fn in a goroutine with panic recovery, a timeout, and
// error logging. The spawned work detaches from the parent context's
// cancellation: a request finishing must not cancel the notification it
// queued, but the timeout still bounds the work's lifetime.
func SafeGo(log *observability.Logger, timeout time.Duration, taskName string, fn func(context.Context) error) {
	if log == nil {
		log = observability.NopLogger()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		defer func() {
			if r := recover(); r != nil {
				log.WithFields(map[string]interface{}{
					"task":  taskName,
					"panic": r,
					"stack": string(debug.Stack()),
				}).Error("panic in background task")
			}
		}()

		if err := fn(ctx); err != nil {
			log.WithError(err).WithField("task", taskName).Warn("background task failed")
		}
	}()
}
