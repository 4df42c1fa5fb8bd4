package live

import (
	"sync"

	"go.uber.org/zap"
)

const subscriberBufferSize = 64

// Subscriber is one connection's view of a session channel. Events arrive on
// a buffered channel; when the buffer is full the event is dropped for this
// subscriber rather than blocking the publisher.
type Subscriber struct {
	sessionID string

	mu     sync.Mutex
	events chan []byte
	closed bool
}

func newSubscriber(sessionID string) *Subscriber {
	return &Subscriber{
		sessionID: sessionID,
		events:    make(chan []byte, subscriberBufferSize),
	}
}

func (s *Subscriber) SessionID() string {
	return s.sessionID
}

// Events returns the channel the connection's write loop drains. The channel
// is closed when the subscriber is unsubscribed.
func (s *Subscriber) Events() <-chan []byte {
	return s.events
}

// push enqueues data without blocking. Returns false when the subscriber is
// closed or its buffer is full - fire-and-forget, no retry.
func (s *Subscriber) push(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}

	select {
	case s.events <- data:
		return true
	default:
		return false
	}
}

func (s *Subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.closed {
		s.closed = true
		close(s.events)
	}
}

// Hub is the pub/sub fan-out for session channels. Each session id names a
// channel; publishing delivers to every current subscriber of that channel.
// Delivery is at-most-once: disconnected or saturated subscribers miss the
// event and nothing is retried. All methods are safe for concurrent use.
type Hub struct {
	logger *zap.Logger

	mu    sync.Mutex
	rooms map[string]map[*Subscriber]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		logger: logger,
		rooms:  make(map[string]map[*Subscriber]struct{}),
	}
}

// Subscribe registers a new subscriber on the session's channel.
func (h *Hub) Subscribe(sessionID string) *Subscriber {
	sub := newSubscriber(sessionID)

	h.mu.Lock()
	defer h.mu.Unlock()

	room, ok := h.rooms[sessionID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[sessionID] = room
	}
	room[sub] = struct{}{}

	return sub
}

// Unsubscribe removes the subscriber and closes its event channel. Empty
// channels are dropped from the hub entirely.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}

	h.mu.Lock()
	if room, ok := h.rooms[sub.sessionID]; ok {
		delete(room, sub)
		if len(room) == 0 {
			delete(h.rooms, sub.sessionID)
		}
	}
	h.mu.Unlock()

	sub.close()
}

// Publish fans the event out to every subscriber of the session channel.
// Events published from the same goroutine arrive at each subscriber in
// publish order; no ordering holds across concurrent publishers.
func (h *Hub) Publish(sessionID string, eventType string, payload interface{}) {
	data, err := encodeEnvelope(eventType, payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			zap.String("session_id", sessionID),
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.rooms[sessionID] {
		if !sub.push(data) {
			h.logger.Warn("dropped event for slow subscriber",
				zap.String("session_id", sessionID),
				zap.String("event_type", eventType))
		}
	}
}

// SendTo delivers an event to a single subscriber only, bypassing the fan-out.
// Used for the sessionState snapshot on subscribe.
func (h *Hub) SendTo(sub *Subscriber, eventType string, payload interface{}) {
	data, err := encodeEnvelope(eventType, payload)
	if err != nil {
		h.logger.Error("failed to encode event",
			zap.String("event_type", eventType),
			zap.Error(err))
		return
	}

	sub.push(data)
}

// SubscriberCount reports the number of live subscribers on a channel.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[sessionID])
}
