// Package events broadcasts help request lifecycle events to WebSocket
// subscribers, typically a supervisor dashboard polling for new escalations.
package events

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event types published by the escalation pipeline.
const (
	TypeRequestCreated  = "help_request_created"
	TypeRequestResolved = "help_request_resolved"
	TypeRequestTimeout  = "help_request_timeout"
	TypeKnowledgeAdded  = "knowledge_added"
)

// Event is the outgoing WebSocket message format.
type Event struct {
	Type      string    `json:"type"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub fans events out to subscribers. Slow subscribers drop events rather
// than block the publisher.
type Hub struct {
	mu   sync.Mutex
	subs map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Publish sends an event to every subscriber.
func (h *Hub) Publish(eventType string, data any) {
	event := Event{Type: eventType, Data: data, Timestamp: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a new subscriber. The returned cancel func must be
// called when the subscriber goes away.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
	return ch, cancel
}

// SubscriberCount returns the number of active subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler returns an HTTP handler that upgrades the connection and streams
// hub events to the client until it disconnects.
func Handler(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("events: websocket upgrade: %v", err)
			return
		}
		defer conn.Close()

		ch, cancel := hub.Subscribe()
		defer cancel()

		// Drain reads so close frames are processed.
		done := make(chan struct{})
		go func() {
			defer close(done)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
						log.Printf("events: websocket read: %v", err)
					}
					return
				}
			}
		}()

		for {
			select {
			case <-done:
				return
			case event := <-ch:
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("events: websocket write: %v", err)
					return
				}
			}
		}
	}
}
