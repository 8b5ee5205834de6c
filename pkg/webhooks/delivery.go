package webhooks

import (
	"sync"
	"time"
)

// Delivery records one delivery attempt.
type Delivery struct {
	WebhookID string    `json:"webhook_id"`
	EventID   string    `json:"event_id"`
	EventType EventType `json:"event_type"`
	Attempt   int       `json:"attempt"`
	Status    int       `json:"status,omitempty"`
	Error     string    `json:"error,omitempty"`
	Time      time.Time `json:"time"`
}

// DeliveryLog is a bounded in-memory ring of recent delivery attempts, for
// operator debugging of misbehaving endpoints.
type DeliveryLog struct {
	mu      sync.Mutex
	entries []Delivery
	next    int
	size    int
}

// NewDeliveryLog builds a log holding the most recent size entries.
func NewDeliveryLog(size int) *DeliveryLog {
	if size <= 0 {
		size = 256
	}
	return &DeliveryLog{entries: make([]Delivery, 0, size), size: size}
}

// Record appends one attempt, evicting the oldest once full.
func (l *DeliveryLog) Record(d Delivery) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) < l.size {
		l.entries = append(l.entries, d)
		return
	}
	l.entries[l.next] = d
	l.next = (l.next + 1) % l.size
}

// For returns the recorded attempts for one webhook, oldest first.
func (l *DeliveryLog) For(webhookID string) []Delivery {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Delivery
	for i := 0; i < len(l.entries); i++ {
		e := l.entries[(l.next+i)%len(l.entries)]
		if e.WebhookID == webhookID {
			out = append(out, e)
		}
	}
	return out
}
