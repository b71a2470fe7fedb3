package notify

import (
	"sync"

	"github.com/blues/tts/internal/logger"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
)

// Tables that emit change events
const (
	TableProject     = "project"
	TablePhase       = "phase"
	TableDeliverable = "deliverable"
	TableTask        = "task"
	TableSession     = "timer_session"
	TableAdjustment  = "time_adjustment"
)

// Actions
const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
)

// Event is a row-level change hint. It carries no payload on purpose:
// consumers re-derive aggregates from the database instead of trusting a
// pushed precomputed value.
type Event struct {
	Table  string `json:"table"`
	Action string `json:"action"`
	Id     int64  `json:"id"`
}

// Hub fans change events out to subscribers through a goroutine pool so a
// slow consumer never blocks the write path.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[uuid.UUID]chan Event
	pool        *ants.Pool
	bufferSize  int
	closed      bool
}

// NewHub creates a hub with the given dispatch pool size and
// per-subscriber channel buffer
func NewHub(poolSize, bufferSize int) (*Hub, error) {
	if poolSize <= 0 {
		poolSize = 8
	}
	if bufferSize <= 0 {
		bufferSize = 64
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	return &Hub{
		subscribers: make(map[uuid.UUID]chan Event),
		pool:        pool,
		bufferSize:  bufferSize,
	}, nil
}

// Subscribe registers a consumer and returns its id and event channel
func (h *Hub) Subscribe() (uuid.UUID, <-chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := uuid.New()
	ch := make(chan Event, h.bufferSize)
	h.subscribers[id] = ch
	return id, ch
}

// Unsubscribe removes a consumer and closes its channel
func (h *Hub) Unsubscribe(id uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		delete(h.subscribers, id)
		close(ch)
	}
}

// Publish delivers an event to every subscriber. Delivery happens on the
// pool; a subscriber with a full buffer misses the event. Events are
// invalidation hints, not state, and the periodic status audit recomputes
// everything a dropped hint would have triggered.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}

	h.mu.RLock()
	closed := h.closed
	empty := len(h.subscribers) == 0
	h.mu.RUnlock()
	if closed || empty {
		return
	}

	// Sends happen under the read lock so Unsubscribe cannot close a
	// channel mid-dispatch; they are non-blocking, so the lock is held
	// only briefly.
	err := h.pool.Submit(func() {
		h.mu.RLock()
		defer h.mu.RUnlock()
		if h.closed {
			return
		}
		for _, ch := range h.subscribers {
			select {
			case ch <- event:
			default:
				logger.Warn("Dropping %s %s event for subscriber with full buffer", event.Table, event.Action)
			}
		}
	})
	if err != nil {
		logger.Error("Failed to submit event dispatch: %v", err)
	}
}

// SubscriberCount reports how many consumers are attached
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

// Close stops the hub and releases the pool
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subscribers {
		delete(h.subscribers, id)
		close(ch)
	}
	h.pool.Release()
}
