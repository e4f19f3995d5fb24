package devserver

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/buildpreset/internal/telemetry"
)

// Hub fans reload notifications out to the connected browsers over server sent events.
type Hub struct {
	mu      sync.Mutex
	clients map[chan struct{}]struct{}
	done    chan struct{}
	once    sync.Once
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[chan struct{}]struct{}),
		done:    make(chan struct{}),
	}
}

// closeAll ends every open stream.
func (h *Hub) closeAll() {
	h.once.Do(func() { close(h.done) })
}

// Broadcast tells every connected client to reload. Clients with a pending notification are
// skipped.
func (h *Hub) Broadcast() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.clients {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan struct{}) {
	h.mu.Lock()
	delete(h.clients, ch)
	h.mu.Unlock()
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if err := rc.Flush(); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("Live reload requires a flushable response")
		return
	}

	// long lived stream
	_ = rc.SetWriteDeadline(noDeadline)

	ch := h.subscribe()
	defer h.unsubscribe(ch)

	m := telemetry.GetMetrics()
	m.LiveReloadClients.Add(ctx, 1)
	defer m.LiveReloadClients.Add(ctx, -1)

	for {
		select {
		case <-ctx.Done():
			return
		case <-h.done:
			return
		case <-ch:
			if _, err := fmt.Fprint(w, "event: change\ndata: reload\n\n"); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				return
			}
		}
	}
}
