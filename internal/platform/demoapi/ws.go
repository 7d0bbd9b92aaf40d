package demoapi

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const writeWait = time.Second

type wsConn struct {
	conn *websocket.Conn
}

// hub tracks notification subscribers. Writes happen under mu, which keeps
// one writer per connection.
type hub struct {
	mu    sync.Mutex
	conns map[*wsConn]struct{}
}

type unreadFrame struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

func (c *wsConn) sendUnread(count int) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteJSON(unreadFrame{Type: "unread_count", Count: count})
}

// notifications streams unread_count frames: the current value on connect,
// then every change.
func (s *Server) notifications(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsConn{conn: conn}
	defer func() {
		s.hub.mu.Lock()
		delete(s.hub.conns, c)
		s.hub.mu.Unlock()
		conn.Close()
	}()

	s.hub.mu.Lock()
	s.hub.conns[c] = struct{}{}
	err = c.sendUnread(s.Unread())
	s.hub.mu.Unlock()
	if err != nil {
		return
	}

	// Nothing is expected from the client; reading surfaces the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) broadcastUnread() {
	s.hub.mu.Lock()
	defer s.hub.mu.Unlock()
	count := s.Unread()
	for c := range s.hub.conns {
		if err := c.sendUnread(count); err != nil {
			slog.Debug("demo notification send failed", slog.String("error", err.Error()))
			c.conn.Close()
			delete(s.hub.conns, c)
		}
	}
}

func (h *hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(writeWait))
		c.conn.Close()
		delete(h.conns, c)
	}
}
