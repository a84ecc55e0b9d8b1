package notifier

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	logger "github.com/sirupsen/logrus"

	"resolutionengine/src/model"
)

// Hub broadcasts escalation requests to connected websocket clients (the
// live dashboard feed). Slow or dead clients are dropped on write failure;
// the hub never blocks the dispatcher.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]struct{})}
}

// Add registers a client connection. The hub owns writes from this point;
// the caller keeps reading to notice disconnects.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"component": "EscalationHub",
		"clients":   h.Count(),
	}).Info("dashboard client connected")
}

// Remove unregisters and closes a client connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()

	_ = conn.Close()
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Notify implements Notifier by broadcasting the request to every client,
// regardless of the channel list: the dashboard sees all escalations.
func (h *Hub) Notify(ctx context.Context, channels []string, request *model.EscalationRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteJSON(request); err != nil {
			logger.WithError(err).WithField("component", "EscalationHub").
				Warn("dropping dashboard client after write failure")
			delete(h.conns, conn)
			_ = conn.Close()
		}
	}

	return nil
}
