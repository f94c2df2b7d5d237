package realtime

import (
	"log/slog"
	"sync"
	"time"
)

// Snapshot is the full contents of one collection after a committed write.
type Snapshot struct {
	Type       string    `json:"type"`
	Collection string    `json:"collection"`
	Docs       any       `json:"docs"`
	At         time.Time `json:"at"`
}

// NewSnapshot builds a snapshot message for the collection path.
func NewSnapshot(collection string, docs any) Snapshot {
	return Snapshot{
		Type:       "snapshot",
		Collection: collection,
		Docs:       docs,
		At:         time.Now().UTC(),
	}
}

// Listener receives snapshots. It runs on the publisher's goroutine and must
// not block.
type Listener func(Snapshot)

type subscription struct {
	fn Listener
}

// Hub fans snapshots out to listeners keyed by collection path.
type Hub struct {
	mu     sync.RWMutex
	topics map[string]map[*subscription]struct{}
	logger *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		topics: make(map[string]map[*subscription]struct{}),
		logger: logger,
	}
}

// Subscribe registers fn for a collection path. The returned func removes it
// and is safe to call more than once.
func (h *Hub) Subscribe(topic string, fn Listener) func() {
	sub := &subscription{fn: fn}

	h.mu.Lock()
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[*subscription]struct{})
		h.topics[topic] = subs
	}
	subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(topic, sub) })
	}
}

func (h *Hub) unsubscribe(topic string, sub *subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(subs, sub)
	if len(subs) == 0 {
		delete(h.topics, topic)
	}
}

// Publish delivers the snapshot to every listener of its collection.
func (h *Hub) Publish(s Snapshot) {
	h.mu.RLock()
	listeners := make([]Listener, 0, len(h.topics[s.Collection]))
	for sub := range h.topics[s.Collection] {
		listeners = append(listeners, sub.fn)
	}
	h.mu.RUnlock()

	for _, fn := range listeners {
		fn(s)
	}
	if len(listeners) > 0 {
		h.logger.Debug("snapshot published", "collection", s.Collection, "listeners", len(listeners))
	}
}

// HasSubscribers reports whether anyone listens on the topic.
func (h *Hub) HasSubscribers(topic string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic]) > 0
}

// SubscriberCount returns the number of listeners across all topics.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, subs := range h.topics {
		n += len(subs)
	}
	return n
}
