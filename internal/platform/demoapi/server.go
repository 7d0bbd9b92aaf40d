// Package demoapi serves the platform admin API from memory.
//
// It backs `backer demo` and the end-to-end client tests: every endpoint the
// console consumes is implemented over a seeded dataset, mutations are
// recorded in the admin action log, and the unread notification count is
// pushed to WebSocket subscribers.
package demoapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/five82/backer/internal/platform"
)

// NotificationsPath is where the WebSocket feed is mounted.
const NotificationsPath = "/ws/notifications/"

// APIPrefix is the mount point of the REST routes.
const APIPrefix = "/api"

// Options tune a Server.
type Options struct {
	Latency time.Duration // added to every REST request
	Empty   bool          // start without seed data
	Now     func() time.Time
}

// Fault is a scripted failure returned by the next matching request.
type Fault struct {
	Method  string // empty matches any method
	Status  int
	Message string
}

// Server is an in-memory platform API.
type Server struct {
	mu        sync.Mutex
	tables    map[platform.Resource]*table
	favorites []int64
	unread    int
	faults    []Fault

	latency time.Duration
	now     func() time.Time

	hub hub
}

var resources = []platform.Resource{
	platform.Campaigns,
	platform.Organizations,
	platform.Users,
	platform.Transactions,
	platform.Categories,
	platform.AdminActions,
}

// New builds a Server, seeded unless opts.Empty is set.
func New(opts Options) *Server {
	s := &Server{
		tables:  make(map[platform.Resource]*table, len(resources)),
		latency: opts.Latency,
		now:     opts.Now,
		hub:     hub{conns: make(map[*wsConn]struct{})},
	}
	if s.now == nil {
		s.now = time.Now
	}
	for _, r := range resources {
		s.tables[r] = &table{}
	}
	if !opts.Empty {
		s.seed()
	}
	return s
}

// Handler returns the chi router serving the API under APIPrefix and the
// notification feed at NotificationsPath.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestID)

	r.Get(NotificationsPath, s.notifications)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Use(logRequests)
		r.Use(s.delay)
		r.Use(s.injectFaults)

		r.Get("/statistics/", s.statistics)
		r.Get("/favorites/", s.listFavorites)
		r.Get("/favorites/count/", s.countFavorites)
		r.Post("/favorites/toggle/", s.toggleFavorite)

		r.Get("/{resource}/", s.list)
		r.Get("/{resource}/export/", s.export)
		r.Get("/{resource}/{id}/", s.detail)
		r.Patch("/{resource}/{id}/", s.patch)
		r.Delete("/{resource}/{id}/", s.remove)
		// {id} names the bulk action on POST: /{resource}/bulk_verify/
		r.Post("/{resource}/{id}/", s.bulk)
		r.Post("/{resource}/{id}/{action}/", s.action)
	})
	return r
}

// FailNext makes the next REST request with method (any when empty) fail
// with status and message. Faults are consumed in order.
func (s *Server) FailNext(method string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, Fault{Method: strings.ToUpper(method), Status: status, Message: message})
}

// Insert adds a record to resource and returns its id.
func (s *Server) Insert(resource platform.Resource, fields map[string]any) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[resource]
	if !ok {
		return ""
	}
	r := make(record, len(fields)+1)
	for k, v := range fields {
		if k != "id" {
			r[k] = v
		}
	}
	return strconv.FormatInt(t.insert(r).id(), 10)
}

// Count reports how many records resource holds.
func (s *Server) Count(resource platform.Resource) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tables[resource]; ok {
		return len(t.rows)
	}
	return 0
}

// Unread returns the current unread notification count.
func (s *Server) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// SetUnread replaces the unread count and pushes it to subscribers.
func (s *Server) SetUnread(n int) {
	s.mu.Lock()
	s.unread = max(n, 0)
	s.mu.Unlock()
	s.broadcastUnread()
}

func (s *Server) bumpUnread() {
	s.mu.Lock()
	s.unread++
	s.mu.Unlock()
	s.broadcastUnread()
}

// Close disconnects every notification subscriber.
func (s *Server) Close() {
	s.hub.closeAll()
}

type httpError struct {
	status  int
	message string
}

func (e *httpError) Error() string { return e.message }

func errStatus(status int, format string, args ...any) error {
	return &httpError{status: status, message: fmt.Sprintf(format, args...)}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("demo api encode failed", slog.String("error", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

func writeErr(w http.ResponseWriter, err error) {
	var he *httpError
	if errors.As(err, &he) {
		writeError(w, he.status, he.message)
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get("X-Request-ID"))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Debug("demo api request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

func (s *Server) delay(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.latency > 0 {
			timer := time.NewTimer(s.latency)
			select {
			case <-timer.C:
			case <-r.Context().Done():
				timer.Stop()
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f, ok := s.takeFault(r.Method); ok {
			writeError(w, f.Status, f.Message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) takeFault(method string) (Fault, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, f := range s.faults {
		if f.Method == "" || f.Method == method {
			s.faults = append(s.faults[:i], s.faults[i+1:]...)
			return f, true
		}
	}
	return Fault{}, false
}

// tableFor resolves the {resource} URL parameter. Callers hold s.mu.
func (s *Server) tableFor(r *http.Request) (platform.Resource, *table, error) {
	res := platform.Resource(chi.URLParam(r, "resource"))
	t, ok := s.tables[res]
	if !ok {
		return "", nil, errStatus(http.StatusNotFound, "unknown resource %q", res)
	}
	return res, t, nil
}

func writable(res platform.Resource) error {
	if res == platform.AdminActions {
		return errStatus(http.StatusMethodNotAllowed, "admin actions are read-only")
	}
	return nil
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errStatus(http.StatusNotFound, "not found")
	}
	return id, nil
}

// logAction appends an entry to the admin action log. Callers hold s.mu.
func (s *Server) logAction(actionType string, res platform.Resource, target record) {
	s.tables[platform.AdminActions].insert(record{
		"created_at":  s.now().UTC().Format(time.RFC3339),
		"admin":       "demo-admin",
		"action_type": actionType,
		"resource":    string(res),
		"target":      fmt.Sprintf("%s #%d %s", res, target.id(), label(target)),
	})
}

func label(r record) string {
	for _, key := range []string{"title", "name", "username", "reference"} {
		if v := display(r[key]); v != "" {
			return v
		}
	}
	return ""
}
