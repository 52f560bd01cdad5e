package api

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// ModelEvent is pushed to websocket subscribers when the active model changes.
type ModelEvent struct {
	Event     string    `json:"event"` // "reload" or "rollback"
	Version   int64     `json:"version"`
	Source    string    `json:"source,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Notifier broadcasts model change events to websocket subscribers.
type Notifier struct {
	upgrader websocket.Upgrader
	logger   *log.Logger

	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewNotifier creates a Notifier.
func NewNotifier(logger *log.Logger) *Notifier {
	return &Notifier{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Subscribers are operator tooling on the same host or LAN.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger: logger,
		conns:  make(map[*websocket.Conn]bool),
	}
}

// HandleWS upgrades the request and registers the connection.
func (n *Notifier) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		n.logger.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	n.mu.Lock()
	n.conns[conn] = true
	total := len(n.conns)
	n.mu.Unlock()
	n.logger.Printf("WebSocket subscriber connected (%d total)", total)

	// Drain reads to detect close; subscribers never send payloads.
	go func() {
		defer n.remove(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends an event to all subscribers. Dead connections are dropped.
func (n *Notifier) Broadcast(event ModelEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for conn := range n.conns {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(event); err != nil {
			n.logger.Printf("WebSocket write failed, dropping subscriber: %v", err)
			conn.Close()
			delete(n.conns, conn)
		}
	}
}

// Close closes all subscriber connections.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for conn := range n.conns {
		conn.Close()
		delete(n.conns, conn)
	}
}

// SubscriberCount returns the number of connected subscribers.
func (n *Notifier) SubscriberCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.conns)
}

func (n *Notifier) remove(conn *websocket.Conn) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.conns[conn] {
		conn.Close()
		delete(n.conns, conn)
	}
}
