package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/nebula/internal/detector"
	"github.com/ayusman/nebula/internal/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ResultSource exposes the most recent detector result, or nil.
type ResultSource interface {
	LatestResult() *detector.Result
}

type landmarksMessage struct {
	Seq       uint64                   `json:"seq"`
	Hands     []detector.HandLandmarks `json:"hands"`
	Face      *detector.FaceLandmarks  `json:"face,omitempty"`
	Timestamp int64                    `json:"timestamp"`
}

// LandmarksHandler broadcasts real-time hand and face landmarks via
// WebSocket, for debugging overlays.
type LandmarksHandler struct {
	source  ResultSource
	clients map[*websocket.Conn]bool
	mu      sync.RWMutex
	done    chan struct{}
	once    sync.Once
}

// NewLandmarksHandler creates a new LandmarksHandler reading from source.
func NewLandmarksHandler(source ResultSource) *LandmarksHandler {
	h := &LandmarksHandler{
		source:  source,
		clients: make(map[*websocket.Conn]bool),
		done:    make(chan struct{}),
	}
	go h.broadcast()
	return h
}

// Close stops the broadcast loop.
func (h *LandmarksHandler) Close() {
	h.once.Do(func() { close(h.done) })
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *LandmarksHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	h.mu.Lock()
	h.clients[conn] = true
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

func (h *LandmarksHandler) clientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// broadcast sends each new detector result to all connected clients.
func (h *LandmarksHandler) broadcast() {
	ticker := time.NewTicker(StreamInterval)
	defer ticker.Stop()

	var last uint64
	for {
		select {
		case <-h.done:
			return
		case <-ticker.C:
		}

		if h.clientCount() == 0 {
			continue
		}
		res := h.source.LatestResult()
		if res == nil || res.Seq == last {
			continue
		}
		last = res.Seq

		msg, err := json.Marshal(landmarksMessage{
			Seq:       res.Seq,
			Hands:     res.Hands,
			Face:      res.Face,
			Timestamp: time.Now().UnixMilli(),
		})
		if err != nil {
			continue
		}

		h.mu.Lock()
		for conn := range h.clients {
			conn.SetWriteDeadline(time.Now().Add(time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				conn.Close()
				delete(h.clients, conn)
			}
		}
		h.mu.Unlock()
	}
}
