package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"phmagent/internal"

	"github.com/gin-gonic/gin"
)

// Event is one notification streamed to subscribers of a sensor table
type Event struct {
	Table     string                 `json:"table"`
	EventType string                 `json:"event_type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Event types
const (
	EventIngestStarted   = "ingest_started"
	EventIngestCompleted = "ingest_completed"
	EventIngestFailed    = "ingest_failed"
	EventOutliersFound   = "outliers_found"
)

// EventHub fans events out to Server-Sent Events subscribers per table
type EventHub struct {
	clients   map[string]map[chan Event]bool
	clientsMu sync.RWMutex
	broadcast chan Event
	done      chan struct{}
	closeOnce sync.Once
	keepAlive time.Duration
	logger    *internal.Logger
}

// NewEventHub creates a hub and starts its delivery loop
func NewEventHub(logger *internal.Logger) *EventHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &EventHub{
		clients:   make(map[string]map[chan Event]bool),
		broadcast: make(chan Event, 100),
		done:      make(chan struct{}),
		keepAlive: 30 * time.Second,
		logger:    logger.With("SSE"),
	}
	go hub.run()
	return hub
}

func (h *EventHub) run() {
	for {
		select {
		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients[event.Table] {
				select {
				case ch <- event:
				default:
					h.logger.Warn("subscriber channel full for %s, dropping %s", event.Table, event.EventType)
				}
			}
			h.clientsMu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Subscribe registers a listener for table. The returned func unsubscribes
// and closes the channel.
func (h *EventHub) Subscribe(table string) (<-chan Event, func()) {
	ch := make(chan Event, 10)

	h.clientsMu.Lock()
	if h.clients[table] == nil {
		h.clients[table] = make(map[chan Event]bool)
	}
	h.clients[table][ch] = true
	h.logger.Debug("subscriber registered for %s (total: %d)", table, len(h.clients[table]))
	h.clientsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.clientsMu.Lock()
			defer h.clientsMu.Unlock()
			if clients, ok := h.clients[table]; ok {
				delete(clients, ch)
				if len(clients) == 0 {
					delete(h.clients, table)
				}
			}
			close(ch)
		})
	}
}

// Publish queues an event; it never blocks the caller
func (h *EventHub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event: %s", event.EventType)
	}
}

// SubscriberCount returns the number of active subscribers for table
func (h *EventHub) SubscriberCount(table string) int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients[table])
}

// Close stops the delivery loop
func (h *EventHub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// stream writes events for table to the client until it disconnects
func (h *EventHub) stream(c *gin.Context, table string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, unsubscribe := h.Subscribe(table)
	defer unsubscribe()

	ctx := c.Request.Context()
	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent(event.EventType, string(payload))
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", `{"status":"alive","timestamp":"`+t.UTC().Format(time.RFC3339)+`"}`)
			return true
		case <-ctx.Done():
			return false
		}
	})
}
