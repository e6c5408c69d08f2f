package broadcast

import (
	"log/slog"
	"sync"
)

// Hub fans timer snapshots out to observers subscribed to an event channel.
// Publishing never blocks: a subscriber whose buffer is full misses that
// message and reconciles through the next one or a status query. Delivery is
// therefore at-most-once per subscriber per mutation.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	logger      *slog.Logger
	subscribers map[string]map[chan any]struct{}
	closed      bool
}

// NewHub constructs a hub whose subscriber channels hold up to buffer
// pending messages. A non-positive buffer defaults to 8.
func NewHub(buffer int, logger *slog.Logger) *Hub {
	if buffer <= 0 {
		buffer = 8
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		buffer:      buffer,
		logger:      logger,
		subscribers: make(map[string]map[chan any]struct{}),
	}
}

// Subscribe registers an observer on the event's channel and returns the
// message stream together with a cancel function. The stream is closed by
// cancel or by Close.
func (h *Hub) Subscribe(eventID string) (<-chan any, func()) {
	ch := make(chan any, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	set, ok := h.subscribers[eventID]
	if !ok {
		set = make(map[chan any]struct{})
		h.subscribers[eventID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			if set, ok := h.subscribers[eventID]; ok {
				if _, member := set[ch]; member {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subscribers, eventID)
				}
			}
			h.mu.Unlock()
		})
	}
	return ch, cancel
}

// Publish delivers the message to every current subscriber of the event.
// Subscribers that cannot accept the message immediately are skipped.
func (h *Hub) Publish(eventID string, message any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	dropped := 0
	for ch := range h.subscribers[eventID] {
		select {
		case ch <- message:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped broadcast messages", "event_id", eventID, "dropped", dropped)
	}
}

// SubscriberCount returns the number of observers on the event's channel.
func (h *Hub) SubscriberCount(eventID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[eventID])
}

// Close terminates every subscriber stream and rejects further activity.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for eventID, set := range h.subscribers {
		for ch := range set {
			close(ch)
		}
		delete(h.subscribers, eventID)
	}
}
