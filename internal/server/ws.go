// Package server provides the HTTP server for the FormCoach exercise evaluation system.
package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/formcoach/internal/session"
	"github.com/gorilla/websocket"
)

// liveInterval is how often the broadcaster polls for a fresh result.
const liveInterval = 66 * time.Millisecond // ~15 FPS

// Origin checks are off: the dashboard may be loaded from file:// or
// from another device on the LAN.
var liveUpgrader = websocket.Upgrader{
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(r *http.Request) bool { return true },
}

// LiveSource provides the most recent evaluation produced by the
// running pipeline. The second return is false until the pipeline has
// evaluated at least one frame.
type LiveSource interface {
	Latest() (session.Update, bool)
}

// LiveHandler pushes evaluation results to WebSocket clients as the
// pipeline produces them.
type LiveHandler struct {
	source LiveSource

	mu      sync.RWMutex
	clients map[*websocket.Conn]bool
}

// NewLiveHandler creates a new LiveHandler reading from the given source.
func NewLiveHandler(source LiveSource) *LiveHandler {
	h := &LiveHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
	}
	go h.broadcast()
	return h
}

// ServeHTTP upgrades the connection and parks it in the client set.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("server: websocket upgrade failed: %v", err)
		return
	}

	h.add(conn)
	defer h.remove(conn)

	// Block until the client goes away. Inbound messages are ignored.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *LiveHandler) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = true
}

func (h *LiveHandler) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
	conn.Close()
}

// snapshot copies the client set so writes happen without the lock.
func (h *LiveHandler) snapshot() []*websocket.Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]*websocket.Conn, 0, len(h.clients))
	for conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// broadcast fans the latest evaluation out to every client. Updates are
// deduplicated by timestamp so an idle pipeline does not repeat the
// same result to the dashboard.
func (h *LiveHandler) broadcast() {
	ticker := time.NewTicker(liveInterval)
	defer ticker.Stop()

	var lastSent int64
	for range ticker.C {
		conns := h.snapshot()
		if len(conns) == 0 {
			continue
		}

		update, ok := h.source.Latest()
		if !ok || update.Timestamp == lastSent {
			continue
		}

		msg, err := json.Marshal(update)
		if err != nil {
			log.Printf("server: failed to encode live update: %v", err)
			continue
		}
		lastSent = update.Timestamp

		for _, conn := range conns {
			// A failed write means the read loop is about to reap
			// this connection.
			conn.WriteMessage(websocket.TextMessage, msg)
		}
	}
}
