// Package notify consumes the platform's notification WebSocket and
// republishes unread counts on the broadcast bus.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/five82/backer/internal/broadcast"
	"github.com/five82/backer/internal/platform"
)

// UnreadCountType is the frame type carrying the badge count.
const UnreadCountType = "unread_count"

// NotificationsPath is the WebSocket endpoint path.
const NotificationsPath = "/ws/notifications/"

// Publisher receives decoded events; *broadcast.Bus satisfies it.
type Publisher interface {
	Publish(ev broadcast.Event)
}

// Options configure a Feed.
type Options struct {
	URL   string
	Token string
	Bus   Publisher
	// Backoff returns the wait before reconnect attempt n (1-based).
	Backoff func(attempt int) time.Duration
	Dialer  *websocket.Dialer
}

// Feed keeps one WebSocket session open, reconnecting until its context ends.
type Feed struct {
	opts      Options
	connected atomic.Bool
	received  atomic.Uint64
}

// New validates opts and returns a Feed.
func New(opts Options) (*Feed, error) {
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("notification feed requires a url")
	}
	if opts.Bus == nil {
		return nil, errors.New("notification feed requires a publisher")
	}
	if opts.Backoff == nil {
		opts.Backoff = func(int) time.Duration { return 5 * time.Second }
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	return &Feed{opts: opts}, nil
}

// Connected reports whether a session is currently open.
func (f *Feed) Connected() bool { return f.connected.Load() }

// Received returns the number of unread_count frames published.
func (f *Feed) Received() uint64 { return f.received.Load() }

// Run blocks until ctx ends. The backoff attempt counter restarts after any
// session that got connected, however it ended.
func (f *Feed) Run(ctx context.Context) error {
	attempt := 0
	for {
		connected, err := f.session(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			attempt = 0
		}
		attempt++
		wait := f.opts.Backoff(attempt)
		slog.Warn("notification feed disconnected",
			slog.String("error", errString(err)),
			slog.Int("attempt", attempt),
			slog.Duration("retry_in", wait),
		)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session holds one connection open. connected reports whether the dial
// succeeded.
func (f *Feed) session(ctx context.Context) (connected bool, err error) {
	header := http.Header{}
	if f.opts.Token != "" {
		header.Set("Authorization", "Bearer "+f.opts.Token)
	}
	conn, resp, err := f.opts.Dialer.DialContext(ctx, f.opts.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial notifications: %w", err)
	}
	defer conn.Close()

	f.connected.Store(true)
	defer f.connected.Store(false)
	slog.Info("notification feed connected", slog.String("url", f.opts.URL))

	stop := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stop()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return true, nil
			}
			return true, fmt.Errorf("read notification: %w", err)
		}
		n, err := Decode(data)
		if err != nil {
			slog.Debug("ignoring malformed notification", slog.String("error", err.Error()))
			continue
		}
		if n.Type != UnreadCountType {
			continue
		}
		f.received.Add(1)
		f.opts.Bus.Publish(broadcast.UnreadCount{Count: n.Count})
	}
}

// Decode parses one notification frame.
func Decode(data []byte) (platform.Notification, error) {
	var n platform.Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return platform.Notification{}, fmt.Errorf("decode notification: %w", err)
	}
	if n.Type == "" {
		return platform.Notification{}, errors.New("decode notification: missing type")
	}
	return n, nil
}

// URLFromAPI derives the WebSocket endpoint from the REST base URL:
// http becomes ws, https becomes wss, and the path is NotificationsPath at
// the host root.
func URLFromAPI(apiURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(apiURL))
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http", "":
		u.Scheme = "ws"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported api url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("api url %q has no host", apiURL)
	}
	u.Path = NotificationsPath
	u.RawQuery = ""
	u.Fragment = ""
	return u.String(), nil
}

func errString(err error) string {
	if err == nil {
		return "closed by server"
	}
	return err.Error()
}
