package notify

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const writeTimeout = 5 * time.Second

// client wraps a websocket connection with a write lock; the websocket
// package allows only one concurrent writer per connection.
type client struct {
	ws *websocket.Conn
	mu sync.Mutex
}

func (c *client) send(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

func (c *client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.Close()
}

// Hub tracks one websocket connection set per user and pushes best-effort
// notifications to them. Delivery is fire-and-forget: a connection that fails
// a write is dropped, never retried.
type Hub struct {
	logger   *zap.Logger
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[string]map[*client]struct{}
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Access is gated by the caller-supplied user resolution,
			// not by origin.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		conns: make(map[string]map[*client]struct{}),
	}
}

// Handler upgrades the request to a websocket and registers the connection
// under the user that resolveUser reports. The connection stays registered
// until the peer closes it.
func (h *Hub) Handler(resolveUser func(*http.Request) (string, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := resolveUser(r)
		if err != nil || userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		conn, err := h.upgrader.Upgrade(w, r, nil)
		if err != nil {
			h.logger.Warn("websocket upgrade", zap.Error(err))
			return
		}

		c := &client{ws: conn}
		h.add(userID, c)
		h.logger.Debug("websocket connected", zap.String("user_id", userID))

		go func() {
			defer func() {
				h.remove(userID, c)
				c.close()
			}()
			// Inbound traffic is ignored; the read loop only notices
			// the peer going away.
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Notify pushes payload as JSON to every connection the user holds open. It
// is safe to call from any number of goroutines.
func (h *Hub) Notify(userID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("encode notification", zap.Error(err))
		return
	}

	h.mu.Lock()
	targets := make([]*client, 0, len(h.conns[userID]))
	for c := range h.conns[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	for _, c := range targets {
		if err := c.send(data); err != nil {
			h.logger.Debug("drop stale websocket", zap.String("user_id", userID), zap.Error(err))
			h.remove(userID, c)
			c.close()
		}
	}
}

// Close tears down every registered connection.
func (h *Hub) Close() {
	h.mu.Lock()
	conns := h.conns
	h.conns = make(map[string]map[*client]struct{})
	h.mu.Unlock()

	for _, set := range conns {
		for c := range set {
			c.close()
		}
	}
}

func (h *Hub) add(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		set = make(map[*client]struct{})
		h.conns[userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) remove(userID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.conns[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
}
