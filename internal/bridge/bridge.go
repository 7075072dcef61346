// Package bridge re-broadcasts a device's live presence reports to any
// number of connected websocket clients, for a browser-based dashboard.
package bridge

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hilink/ld2410/internal/protocol"
	"github.com/hilink/ld2410/internal/util"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// wireReport is the JSON shape broadcast to clients.
type wireReport struct {
	Type        string                      `json:"type"`
	Basic       protocol.BasicReport        `json:"basic"`
	Engineering *protocol.EngineeringReport `json:"engineering,omitempty"`
}

// Bridge accepts websocket connections on its handler and broadcasts every
// report passed to Broadcast to each connected client as JSON.
type Bridge struct {
	logger  util.Logger
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> connection id, for logging
}

// New returns a Bridge. Call Broadcast as reports arrive, and Handler to
// get the http.HandlerFunc to mount on a mux.
func New(logger util.Logger) *Bridge {
	return &Bridge{
		logger:  util.OrNil(logger),
		clients: make(map[*websocket.Conn]string),
	}
}

// Handler upgrades incoming HTTP requests to websocket connections and
// registers them for broadcasts. Clients are not expected to send
// anything; their inbound messages are read and discarded only so the
// connection's close can be detected.
func (b *Bridge) Handler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Printf("bridge: upgrade failed: %v", err)
		return
	}

	id := uuid.New().String()
	b.mu.Lock()
	b.clients[conn] = id
	b.mu.Unlock()
	b.logger.Printf("bridge: client %s connected", id)

	go func() {
		defer func() {
			b.mu.Lock()
			delete(b.clients, conn)
			b.mu.Unlock()
			if err := conn.Close(); err != nil {
				b.logger.Printf("bridge: close client %s: %v", id, err)
			}
			b.logger.Printf("bridge: client %s disconnected", id)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// Broadcast sends basic (and, if engineering mode is active, eng) to every
// connected client.
func (b *Bridge) Broadcast(basic protocol.BasicReport, eng *protocol.EngineeringReport) {
	typeName := "basic"
	if eng != nil {
		typeName = "engineering"
	}
	msg, err := json.Marshal(wireReport{Type: typeName, Basic: basic, Engineering: eng})
	if err != nil {
		b.logger.Printf("bridge: marshal report: %v", err)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for conn, id := range b.clients {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			b.logger.Printf("bridge: write to client %s: %v", id, err)
		}
	}
}

// ClientCount returns the number of currently connected clients.
func (b *Bridge) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}
