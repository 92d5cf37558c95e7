package pcgweb

import (
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/soypat/pcg/material"
)

// Websocket message types.
const (
	msgScene    = "scene"
	msgReload   = "reload"
	msgDisplace = "displace"
	msgMaterial = "material"
	msgError    = "error"
)

// message is exchanged over the websocket in both directions.
type message struct {
	Type     string           `json:"type"`
	Mesh     string           `json:"mesh,omitempty"`
	Fragment string           `json:"fragment,omitempty"`
	Meshes   []meshJSON       `json:"meshes,omitempty"`
	Material *material.Shader `json:"material,omitempty"`
	Error    string           `json:"error,omitempty"`
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// hub tracks connected websocket clients. Each connection has its own write lock
// since gorilla connections support a single concurrent writer.
type hub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]*sync.Mutex
}

func (h *hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	if h.clients == nil {
		h.clients = make(map[*websocket.Conn]*sync.Mutex)
	}
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()
}

func (h *hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
}

func (h *hub) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *hub) send(conn *websocket.Conn, msg message) error {
	h.mu.RLock()
	mu, ok := h.clients[conn]
	h.mu.RUnlock()
	if !ok {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	return conn.WriteJSON(msg)
}

// broadcast writes msg to every client. Clients that fail are closed and removed.
func (h *hub) broadcast(logger *log.Logger, msg message) {
	var failed []*websocket.Conn
	h.mu.RLock()
	for conn, mu := range h.clients {
		mu.Lock()
		err := conn.WriteJSON(msg)
		mu.Unlock()
		if err != nil {
			logger.Println("websocket write error:", err)
			conn.Close()
			failed = append(failed, conn)
		}
	}
	h.mu.RUnlock()
	for _, conn := range failed {
		h.remove(conn)
	}
}
