package favorites

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

const (
	writeTimeout = 5 * time.Second
	sendBuffer   = 8
)

// liveUpdate is what open pages receive on every change.
type liveUpdate struct {
	Count    int      `json:"count"`
	IDs      []string `json:"ids"`
	Changed  string   `json:"changed,omitempty"`
	Favorite bool     `json:"favorite"`
	Version  uint64   `json:"version"`
}

func newLiveUpdate(s Snapshot) liveUpdate {
	ids := s.IDs
	if ids == nil {
		ids = []string{}
	}
	return liveUpdate{Count: len(ids), IDs: ids, Changed: s.Changed, Favorite: s.Favorite, Version: s.Version}
}

type client struct {
	conn net.Conn
	send chan []byte
}

// Hub fans favorite changes out to websocket clients so every open tab stays in sync.
// Slow clients are dropped rather than blocking a toggle.
type Hub struct {
	current func() Snapshot

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub builds a hub. current supplies the snapshot a newly connected client starts from.
func NewHub(current func() Snapshot) *Hub {
	return &Hub{
		current: current,
		clients: make(map[*client]struct{}),
	}
}

// Broadcast queues s for every connected client. It is meant to be passed to Manager.Subscribe.
func (h *Hub) Broadcast(s Snapshot) {
	msg, err := json.Marshal(newLiveUpdate(s))
	if err != nil {
		slog.Error("failed to encode live update", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			slog.Warn("dropping slow live favorites client", "remote", c.conn.RemoteAddr().String())
			h.removeLocked(c)
		}
	}
}

func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	slog.DebugContext(r.Context(), "live favorites client connected", "remote", conn.RemoteAddr().String())

	go h.writeLoop(c)
	go h.readLoop(c)
}

// register adds c and queues its starting snapshot under the same lock Broadcast takes, so a
// change either shows up in that snapshot or arrives as a later broadcast.
func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	initial, err := json.Marshal(newLiveUpdate(h.current()))
	if err != nil {
		slog.Error("failed to encode live update", "error", err)
		return false
	}
	h.clients[c] = struct{}{}
	c.send <- initial
	return true
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) writeLoop(c *client) {
	defer func() {
		_ = c.conn.Close()
	}()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := wsutil.WriteServerText(c.conn, msg); err != nil {
			h.remove(c)
			return
		}
	}
	_ = wsutil.WriteServerMessage(c.conn, ws.OpClose, ws.NewCloseFrameBody(ws.StatusGoingAway, ""))
}

// readLoop only exists to notice the peer going away; clients never send anything useful.
func (h *Hub) readLoop(c *client) {
	for {
		if _, _, err := wsutil.ReadClientData(c.conn); err != nil {
			h.remove(c)
			return
		}
	}
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		h.removeLocked(c)
	}
}
