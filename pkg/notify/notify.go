// Package notify defines the outbound notification collaborator used by
// lifecycle hooks. Delivery is best-effort: failures are logged and never
// escalated to the caller, and dispatch never blocks the operation that
// triggered it.
package notify

import (
	"context"
	"time"

	"github.com/platinummonkey/docflow/pkg/async"
	"github.com/platinummonkey/docflow/pkg/identity"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// Notifier delivers a message to a set of recipients.
type Notifier interface {
	Send(ctx context.Context, recipients []identity.Person, subject, message string) error
}

// LogNotifier writes notifications to the structured log instead of
// delivering them; the default when no transport is configured.
type LogNotifier struct {
	Log *observability.Logger
}

// Send implements Notifier.
func (n LogNotifier) Send(ctx context.Context, recipients []identity.Person, subject, message string) error {
	log := n.Log
	if log == nil {
		log = observability.NopLogger()
	}
	emails := make([]string, 0, len(recipients))
	for _, r := range recipients {
		emails = append(emails, r.Email)
	}
	log.WithFields(map[string]interface{}{
		"recipients": emails,
		"subject":    subject,
	}).Info("notification")
	return nil
}

// Dispatcher sends notifications without blocking the caller. Hooks hold a
// Dispatcher and call Dispatch from entry/write callbacks.
type Dispatcher struct {
	notifier Notifier
	log      *observability.Logger
	timeout  time.Duration
}

// NewDispatcher wraps a notifier for asynchronous dispatch.
func NewDispatcher(notifier Notifier, log *observability.Logger) *Dispatcher {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Dispatcher{notifier: notifier, log: log, timeout: 30 * time.Second}
}

// Dispatch queues a notification and returns immediately. Failures are
// logged by the background task.
func (d *Dispatcher) Dispatch(recipients []identity.Person, subject, message string) {
	if len(recipients) == 0 {
		return
	}
	async.SafeGo(d.log, d.timeout, "notification dispatch", func(ctx context.Context) error {
		return d.notifier.Send(ctx, recipients, subject, message)
	})
}
