package render

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/nebula/internal/log"
)

// DefaultBroadcastFPS caps how often frames are sent to browsers.
const DefaultBroadcastFPS = 30

const writeWait = 2 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Broadcaster is a Renderer that streams encoded frames to websocket
// clients. A slow client only ever holds the latest frame; older ones are
// dropped rather than stalling the engine.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]struct{}
	interval float64

	// Engine goroutine only.
	last float64
	sent bool
}

// NewBroadcaster creates a Broadcaster sending at most fps frames per
// second of session time. fps <= 0 sends every frame.
func NewBroadcaster(fps int) *Broadcaster {
	b := &Broadcaster{clients: make(map[*client]struct{})}
	if fps > 0 {
		b.interval = 1 / float64(fps)
	}
	return b
}

// Clients returns the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Render implements Renderer.
func (b *Broadcaster) Render(f *Frame) error {
	if b.Clients() == 0 {
		return nil
	}
	if b.sent && f.Time-b.last < b.interval && f.Time >= b.last {
		return nil
	}

	msg, err := f.MarshalBinary()
	if err != nil {
		return err
	}
	b.last, b.sent = f.Time, true

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		// Replace whatever the client has not picked up yet.
		select {
		case <-c.send:
		default:
		}
		select {
		case c.send <- msg:
		default:
		}
	}
	return nil
}

// ServeHTTP handles WebSocket upgrade requests.
func (b *Broadcaster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	c := &client{conn: conn, send: make(chan []byte, 1)}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	log.Debug("frame client connected", "remote", r.RemoteAddr)

	done := make(chan struct{})
	go b.write(c, done)

	defer func() {
		b.mu.Lock()
		delete(b.clients, c)
		b.mu.Unlock()
		close(done)
		log.Debug("frame client disconnected", "remote", r.RemoteAddr)
	}()

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (b *Broadcaster) write(c *client, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, msg); err != nil {
				c.conn.Close()
				return
			}
		}
	}
}
