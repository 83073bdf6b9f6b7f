// Package notify fans committed notifications out to live subscribers.
package notify

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"loklagbe/internal/domain"
)

const defaultBuffer = 16

// Hub is an in-process publish/subscribe channel keyed by recipient id.
// Publish never blocks: a subscriber whose buffer is full misses the message
// and can catch up from the stored notification list.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*subscription]struct{}
	buffer int
	logger *zap.Logger
	closed bool
}

type subscription struct {
	recipient string
	ch        chan domain.Notification
	done      chan struct{}
	once      sync.Once
}

func NewHub(buffer int, logger *zap.Logger) *Hub {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   map[string]map[*subscription]struct{}{},
		buffer: buffer,
		logger: logger,
	}
}

// Subscribe registers a listener for recipientID. The returned cancel func is
// idempotent; the subscription is also released when ctx ends. The channel is
// closed once released.
func (h *Hub) Subscribe(ctx context.Context, recipientID string) (<-chan domain.Notification, func()) {
	sub := &subscription{
		recipient: recipientID,
		ch:        make(chan domain.Notification, h.buffer),
		done:      make(chan struct{}),
	}
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	set, ok := h.subs[recipientID]
	if !ok {
		set = map[*subscription]struct{}{}
		h.subs[recipientID] = set
	}
	set[sub] = struct{}{}
	h.mu.Unlock()

	cancel := func() { h.release(sub) }
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-sub.done:
		}
	}()
	return sub.ch, cancel
}

func (h *Hub) release(sub *subscription) {
	sub.once.Do(func() {
		h.mu.Lock()
		if set, ok := h.subs[sub.recipient]; ok {
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, sub.recipient)
			}
		}
		close(sub.ch)
		h.mu.Unlock()
		close(sub.done)
	})
}

// Publish delivers n to every subscriber of n.ToUserID and returns how many
// received it.
func (h *Hub) Publish(n domain.Notification) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	delivered := 0
	for sub := range h.subs[n.ToUserID] {
		select {
		case sub.ch <- n:
			delivered++
		default:
			h.logger.Warn("notification dropped for slow subscriber",
				zap.String("recipient", n.ToUserID), zap.String("notification_id", n.ID))
		}
	}
	return delivered
}

// Subscribers returns the live subscription count for recipientID.
func (h *Hub) Subscribers(recipientID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[recipientID])
}

// Close releases every subscription. Later Subscribe calls get a closed
// channel.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	var all []*subscription
	for _, set := range h.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	h.mu.Unlock()
	for _, sub := range all {
		h.release(sub)
	}
}
