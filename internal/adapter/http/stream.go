package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/vn-hazard-radar/internal/domain"
)

// subscriberBuffer is the number of notices queued per stream client.
const subscriberBuffer = 16

// Hub fans new-event notices out to connected stream clients. A client
// whose queue is full misses the notice.
type Hub struct {
	mu     sync.Mutex
	subs   map[chan domain.Notice]struct{}
	logger *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{subs: make(map[chan domain.Notice]struct{}), logger: logger}
}

// Subscribe registers a client. The returned func unregisters it.
func (h *Hub) Subscribe() (<-chan domain.Notice, func()) {
	ch := make(chan domain.Notice, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// Broadcast delivers n to every client without blocking.
func (h *Hub) Broadcast(n domain.Notice) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- n:
		default:
			h.logger.Warn("stream client too slow, notice dropped", "event_id", n.EventID)
		}
	}
}

// Subscribers returns the number of connected clients.
func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *Server) stream(c *gin.Context) {
	notices, unsubscribe := s.deps.Hub.Subscribe()
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprint(c.Writer, ": connected\n\n")
	c.Writer.Flush()

	ticker := time.NewTicker(s.heartbeat)
	defer ticker.Stop()
	for {
		select {
		case <-c.Request.Context().Done():
			return
		case n := <-notices:
			c.SSEvent(n.Type, n)
			c.Writer.Flush()
		case <-ticker.C:
			fmt.Fprint(c.Writer, ": heartbeat\n\n")
			c.Writer.Flush()
		}
	}
}
