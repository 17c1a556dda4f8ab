package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/wireheat/afterhours/internal/models"
)

// writeTimeout bounds how long a slow dashboard client can block a broadcast.
const writeTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from arbitrary origins in development; the
	// event stream carries no secrets and is read-only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub broadcasts engine events to connected dashboard websocket clients.
// It implements Service so finalization can publish straight into it.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// ServeHTTP upgrades a dashboard client connection and registers it for
// broadcasts. Clients are read-drained so close frames are processed.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Hub.ServeHTTP: websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	h.mu.Lock()
	h.conns[conn] = true
	count := len(h.conns)
	h.mu.Unlock()
	slog.Info("Hub.ServeHTTP: dashboard client connected", "remote", r.RemoteAddr, "clients", count)

	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.drop(conn)
				return
			}
		}
	}()
}

// PublishRequestSubmitted broadcasts a request_submitted event to every
// connected client. Clients that fail to accept the write are dropped.
func (h *Hub) PublishRequestSubmitted(ctx context.Context, req models.ServiceRequest) error {
	event := NewRequestSubmittedEvent(req)
	payload, err := json.Marshal(event)
	if err != nil {
		slog.Error("Hub.PublishRequestSubmitted: failed to marshal event", "error", err, "id", req.ID)
		return err
	}

	h.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(h.conns))
	for conn := range h.conns {
		conns = append(conns, conn)
	}
	h.mu.Unlock()

	for _, conn := range conns {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Warn("Hub.PublishRequestSubmitted: client write failed, dropping", "error", err)
			h.drop(conn)
		}
	}
	slog.Debug("Hub.PublishRequestSubmitted: event broadcast", "id", req.ID, "clients", len(conns))
	return nil
}

// ClientCount returns the number of connected dashboard clients.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

func (h *Hub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.conns[conn]; ok {
		delete(h.conns, conn)
	}
	h.mu.Unlock()
	conn.Close()
}
