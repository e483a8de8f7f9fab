// Package realtime fans out document changes to live subscriptions.
package realtime

import (
	"context"
	"sync"
	"time"
)

// Op is the kind of write that produced a change.
type Op string

const (
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// Change announces a write to one document of a user's collection.
type Change struct {
	Collection string    `json:"collection"`
	UserID     string    `json:"user_id"`
	DocumentID string    `json:"document_id"`
	Op         Op        `json:"op"`
	At         time.Time `json:"at"`
}

// Topic returns the subscription topic for a change.
func (c Change) Topic() string {
	return Topic(c.Collection, c.UserID)
}

// Topic names the stream of changes to one user's collection.
func Topic(collection, userID string) string {
	return collection + "/" + userID
}

// Bus delivers changes to subscribers of a topic.
// Delivery is best-effort: a subscriber that falls behind may miss
// notifications, so consumers must treat a change as "re-read", not as a delta.
type Bus interface {
	// Publish announces a change on its topic.
	Publish(ctx context.Context, change Change) error

	// Subscribe returns a channel of changes for the topic.
	// The channel is closed once ctx is done.
	Subscribe(ctx context.Context, topic string) (<-chan Change, error)
}

const subscriberBuffer = 16

// LocalBus is an in-process Bus for single-instance deployments.
type LocalBus struct {
	mu   sync.RWMutex
	subs map[string]map[chan Change]struct{}
}

// NewLocalBus creates an empty in-process bus.
func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[string]map[chan Change]struct{})}
}

// Publish implements Bus. It never blocks.
func (b *LocalBus) Publish(_ context.Context, change Change) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subs[change.Topic()] {
		select {
		case ch <- change:
		default:
			// Subscriber already has pending notifications.
		}
	}
	return nil
}

// Subscribe implements Bus.
func (b *LocalBus) Subscribe(ctx context.Context, topic string) (<-chan Change, error) {
	ch := make(chan Change, subscriberBuffer)

	b.mu.Lock()
	if b.subs[topic] == nil {
		b.subs[topic] = make(map[chan Change]struct{})
	}
	b.subs[topic][ch] = struct{}{}
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs[topic], ch)
		if len(b.subs[topic]) == 0 {
			delete(b.subs, topic)
		}
		b.mu.Unlock()
		close(ch)
	}()

	return ch, nil
}

// SubscriberCount returns the number of live subscriptions on a topic.
func (b *LocalBus) SubscriberCount(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

var _ Bus = (*LocalBus)(nil)
