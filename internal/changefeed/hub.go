package changefeed

import (
	"context"
	"sync"
)

const DefaultSubscriberBuffer = 64

// Hub is the in-process Feed. Slow subscribers drop changes instead of
// blocking publishers.
type Hub struct {
	mu               sync.RWMutex
	subs             map[uint64]chan Change
	nextID           uint64
	subscriberBuffer int
}

func NewHub() *Hub {
	return &Hub{
		subs:             make(map[uint64]chan Change),
		subscriberBuffer: DefaultSubscriberBuffer,
	}
}

func (h *Hub) Publish(ctx context.Context, change Change) error {
	if h == nil {
		return ErrFeedUnavailable
	}
	if err := validate(change); err != nil {
		return err
	}
	change = stamp(change)

	h.mu.RLock()
	subs := make([]chan Change, 0, len(h.subs))
	for _, ch := range h.subs {
		subs = append(subs, ch)
	}
	h.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- change:
		default:
		}
	}
	return nil
}

func (h *Hub) Subscribe(ctx context.Context, fn func(Change)) error {
	if h == nil {
		return ErrFeedUnavailable
	}
	id, ch := h.register()
	defer h.unregister(id)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change := <-ch:
			fn(change)
		}
	}
}

func (h *Hub) register() (uint64, chan Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.nextID
	h.nextID++
	ch := make(chan Change, h.subscriberBuffer)
	h.subs[id] = ch
	return id, ch
}

func (h *Hub) unregister(id uint64) {
	h.mu.Lock()
	delete(h.subs, id)
	h.mu.Unlock()
}

// Subscribers reports the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
