package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"goposterior/domain/posterior"
	"goposterior/domain/run"
	"goposterior/internal"

	"github.com/gin-gonic/gin"
)

// RunEvent announces a newly stored run to streaming clients
type RunEvent struct {
	RunID       string             `json:"run_id"`
	Fingerprint string             `json:"fingerprint"`
	Methods     []posterior.Method `json:"methods"`
	Skipped     int                `json:"skipped"`
	Timestamp   time.Time          `json:"timestamp"`
}

// NewRunEvent summarizes r for the event stream
func NewRunEvent(r *run.Run) RunEvent {
	ev := RunEvent{
		RunID:       r.ID.String(),
		Fingerprint: r.Fingerprint.Short(),
		Skipped:     len(r.Skipped),
		Timestamp:   r.CreatedAt,
	}
	for _, res := range r.Results {
		ev.Methods = append(ev.Methods, res.Method)
	}
	return ev
}

// RunHub fans run events out over Server-Sent Events
type RunHub struct {
	clients   map[chan RunEvent]struct{}
	clientsMu sync.RWMutex
	broadcast chan RunEvent
	done      chan struct{}
	logger    *internal.Logger
}

// NewRunHub creates a hub and starts its dispatch loop
func NewRunHub() *RunHub {
	hub := &RunHub{
		clients:   make(map[chan RunEvent]struct{}),
		broadcast: make(chan RunEvent, 100),
		done:      make(chan struct{}),
		logger:    internal.DefaultLogger.With("RunHub"),
	}

	go hub.run()
	return hub
}

func (h *RunHub) run() {
	for {
		select {
		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for ch := range h.clients {
				select {
				case ch <- event:
				default:
					h.logger.Warn("client channel full, skipping event for run %s", event.RunID)
				}
			}
			h.clientsMu.RUnlock()
		case <-h.done:
			return
		}
	}
}

// Close stops the dispatch loop
func (h *RunHub) Close() {
	close(h.done)
}

// Broadcast queues an event for every connected client
func (h *RunHub) Broadcast(event RunEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event for run %s", event.RunID)
	}
}

func (h *RunHub) subscribe() chan RunEvent {
	ch := make(chan RunEvent, 10)
	h.clientsMu.Lock()
	h.clients[ch] = struct{}{}
	h.logger.Debug("client registered (total clients: %d)", len(h.clients))
	h.clientsMu.Unlock()
	return ch
}

func (h *RunHub) unsubscribe(ch chan RunEvent) {
	h.clientsMu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.logger.Debug("client unregistered (remaining clients: %d)", len(h.clients))
	h.clientsMu.Unlock()
}

// ClientCount returns the number of connected clients
func (h *RunHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE streams run events until the client disconnects
func (h *RunHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-ch:
			if !ok {
				return false
			}
			payload, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(payload))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
