package server

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"mdc/internal/processor"
)

// Event types streamed over /ws/progress.
const (
	EventJobStarted    = "job_started"
	EventFileStarted   = "file_started"
	EventFileCompleted = "file_completed"
	EventJobCompleted  = "job_completed"
	EventJobFailed     = "job_failed"
)

// Event is one tagged progress message.
type Event struct {
	Type      string            `json:"type"`
	JobID     string            `json:"job_id,omitempty"`
	Path      string            `json:"path,omitempty"`
	Completed int               `json:"completed,omitempty"`
	Total     int               `json:"total,omitempty"`
	Result    *processor.Result `json:"result,omitempty"`
	Stats     *processor.Stats  `json:"stats,omitempty"`
	Error     string            `json:"error,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// Hub fans progress events out to connected websocket clients.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]bool)}
}

// Add registers a client connection.
func (h *Hub) Add(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = true
	h.mu.Unlock()
}

// Remove drops a client connection.
func (h *Hub) Remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	conn.Close()
}

// Broadcast sends one event to every client. Dead clients are dropped.
func (h *Hub) Broadcast(ev Event) {
	ev.Timestamp = time.Now()

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		if err := conn.WriteJSON(ev); err != nil {
			logrus.Debugf("dropping websocket client: %v", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// Close disconnects all clients.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.Close()
		delete(h.clients, conn)
	}
}
