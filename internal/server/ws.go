package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/mudra/internal/scene"
)

// DefaultFrameRate is the websocket push rate.
const DefaultFrameRate = 30

const writeWait = time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// frameMessage is one websocket frame. Color is the single particle color
// as hex; vertex colored states also carry colors.
type frameMessage struct {
	Frame int    `json:"frame"`
	Color string `json:"color"`
	*scene.Snapshot
}

// FramesHandler broadcasts snapshots to websocket clients.
type FramesHandler struct {
	app     Controller
	rate    int
	clients map[*websocket.Conn]*sync.Mutex
	mu      sync.RWMutex
	stop    chan struct{}
	once    sync.Once
}

// NewFramesHandler creates a FramesHandler pushing at rate frames per second.
func NewFramesHandler(app Controller, rate int) *FramesHandler {
	if rate <= 0 {
		rate = DefaultFrameRate
	}
	h := &FramesHandler{
		app:     app,
		rate:    rate,
		clients: make(map[*websocket.Conn]*sync.Mutex),
		stop:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *FramesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = &sync.Mutex{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Clients returns the number of connected clients.
func (h *FramesHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close stops broadcasting.
func (h *FramesHandler) Close() {
	h.once.Do(func() { close(h.stop) })
}

// broadcast sends the latest snapshot to all connected clients.
func (h *FramesHandler) broadcast() {
	ticker := time.NewTicker(time.Second / time.Duration(h.rate))
	defer ticker.Stop()

	var snap scene.Snapshot
	last := -1
	for {
		select {
		case <-h.stop:
			return
		case <-ticker.C:
		}

		if h.Clients() == 0 {
			continue
		}

		n := h.app.Latest(&snap)
		if n == last {
			continue
		}
		last = n

		msg, err := json.Marshal(frameMessage{Frame: n, Color: snap.Color.Hex(), Snapshot: &snap})
		if err != nil {
			log.Printf("encode frame: %v", err)
			continue
		}

		h.mu.RLock()
		for conn, wmu := range h.clients {
			wmu.Lock()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
			}
			wmu.Unlock()
		}
		h.mu.RUnlock()
	}
}
