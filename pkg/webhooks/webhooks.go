// Package webhooks delivers document lifecycle events to registered HTTP
// endpoints. Deliveries are signed, asynchronous and best-effort: a failing
// endpoint never fails the operation that produced the event.
package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/platinummonkey/docflow/pkg/async"
	"github.com/platinummonkey/docflow/pkg/docerr"
	"github.com/platinummonkey/docflow/pkg/observability"
)

// EventType names a lifecycle event.
type EventType string

const (
	EventDocumentCreated      EventType = "document.created"
	EventDocumentUpdated      EventType = "document.updated"
	EventDocumentTransitioned EventType = "document.transitioned"
	EventDocumentDeleted      EventType = "document.deleted"
	EventGroupChanged         EventType = "group.changed"
	EventStoreReset           EventType = "store.reset"
)

// Event is one published lifecycle event.
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
}

// Webhook is one registered endpoint. An empty Events list subscribes to
// everything.
type Webhook struct {
	ID          string      `json:"id"`
	URL         string      `json:"url"`
	Events      []EventType `json:"events,omitempty"`
	Secret      string      `json:"secret,omitempty"`
	Active      bool        `json:"active"`
	Description string      `json:"description,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func (w *Webhook) subscribed(t EventType) bool {
	if len(w.Events) == 0 {
		return true
	}
	for _, e := range w.Events {
		if e == t {
			return true
		}
	}
	return false
}

// Manager holds the registered webhooks and fans events out to them.
type Manager struct {
	mu       sync.RWMutex
	webhooks map[string]*Webhook

	client     *http.Client
	deliveries *DeliveryLog
	log        *observability.Logger
	timeout    time.Duration
}

// NewManager builds a webhook manager.
func NewManager(log *observability.Logger) *Manager {
	if log == nil {
		log = observability.NopLogger()
	}
	return &Manager{
		webhooks:   make(map[string]*Webhook),
		client:     &http.Client{Timeout: 10 * time.Second},
		deliveries: NewDeliveryLog(256),
		log:        log,
		timeout:    30 * time.Second,
	}
}

// Register stores a new webhook and assigns it an id.
func (m *Manager) Register(w *Webhook) error {
	if w.URL == "" {
		return docerr.BadRequest("webhook requires a url")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	if _, exists := m.webhooks[w.ID]; exists {
		return docerr.AlreadyExists("webhook %q already registered", w.ID)
	}
	now := time.Now().UTC()
	w.CreatedAt = now
	w.UpdatedAt = now
	m.webhooks[w.ID] = w
	return nil
}

// Get returns a webhook by id.
func (m *Manager) Get(id string) (*Webhook, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.webhooks[id]
	if !ok {
		return nil, docerr.NotFound("webhook %q not found", id)
	}
	return w, nil
}

// List returns all registered webhooks, sorted by id.
func (m *Manager) List() []*Webhook {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Webhook, 0, len(m.webhooks))
	for _, w := range m.webhooks {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Delete removes a webhook.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.webhooks[id]; !ok {
		return docerr.NotFound("webhook %q not found", id)
	}
	delete(m.webhooks, id)
	return nil
}

// Deliveries returns the recent delivery records for a webhook.
func (m *Manager) Deliveries(webhookID string) []Delivery {
	return m.deliveries.For(webhookID)
}

// Publish fans the event out to every subscribed active webhook. It returns
// immediately; delivery happens in the background.
func (m *Manager) Publish(ctx context.Context, eventType string, data map[string]interface{}) {
	event := Event{
		ID:        uuid.NewString(),
		Type:      EventType(eventType),
		Timestamp: time.Now().UTC(),
		Data:      data,
	}

	m.mu.RLock()
	var targets []*Webhook
	for _, w := range m.webhooks {
		if w.Active && w.subscribed(event.Type) {
			targets = append(targets, w)
		}
	}
	m.mu.RUnlock()

	for _, w := range targets {
		hook := w
		async.SafeGo(m.log, m.timeout, "webhook delivery", func(ctx context.Context) error {
			return m.deliver(ctx, hook, event)
		})
	}
}

// deliver posts the event, retrying transient failures with backoff inside
// the background task's deadline.
func (m *Manager) deliver(ctx context.Context, w *Webhook, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode webhook event: %w", err)
	}

	var lastErr error
	backoff := time.Second
	for attempt := 1; attempt <= 3; attempt++ {
		status, err := m.post(ctx, w, payload)
		m.deliveries.Record(Delivery{
			WebhookID: w.ID,
			EventID:   event.ID,
			EventType: event.Type,
			Attempt:   attempt,
			Status:    status,
			Error:     errString(err),
			Time:      time.Now().UTC(),
		})
		if err == nil && status >= 200 && status < 300 {
			return nil
		}
		if err != nil {
			lastErr = err
		} else {
			lastErr = fmt.Errorf("webhook %q returned status %d", w.ID, status)
		}
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return lastErr
		}
	}
	return lastErr
}

func (m *Manager) post(ctx context.Context, w *Webhook, payload []byte) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	if w.Secret != "" {
		req.Header.Set("X-Docflow-Signature", Sign(w.Secret, payload))
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

// Sign computes the hex HMAC-SHA256 of the payload under the webhook secret.
// Receivers recompute it to authenticate deliveries.
func Sign(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
