package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != "127.0.0.1:8000" || u.Path != "/api" {
		t.Fatalf("default url = %q, want http://127.0.0.1:8000/api", u.String())
	}

	u, err = parseBaseURL("https://example.com:1234/api/v1/?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/api/v1" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}

	if _, err := parseBaseURL("http://"); err == nil {
		t.Fatalf("parseBaseURL returned nil error for missing host")
	}
}

func TestEncodeFilters_DropsEmptyValues(t *testing.T) {
	values := encodeFilters(map[string]string{"search": "", "status": "active", "ordering": " -created_at "})
	if values.Has("search") {
		t.Fatalf("search should be omitted, got %v", values)
	}
	if values.Get("status") != "active" || values.Get("ordering") != "-created_at" {
		t.Fatalf("values = %v, want status and trimmed ordering", values)
	}
}

type recorded struct {
	method string
	path   string
	query  url.Values
	body   string
	header http.Header
}

func newRecordingServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, query: r.URL.Query(), body: string(body), header: r.Header.Clone()})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func TestClient_ListEncodesQueryAndNormalizes(t *testing.T) {
	t.Parallel()

	server, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/campaigns/":
			_, _ = w.Write([]byte(`{"results": [{"id": 7, "featured": false}], "count": 45}`))
		case "/api/categories/":
			_, _ = w.Write([]byte(`[{"id": 1}, {"id": 2}]`))
		default:
			http.NotFound(w, r)
		}
	})

	c, err := NewClient(server.URL+"/api", Options{Token: "secret"})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	page, err := c.List(ctx, Campaigns, ListQuery{
		Filters:  map[string]string{"search": "", "status": "active"},
		Page:     2,
		PageSize: 20,
	})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if page.TotalCount != 45 || len(page.Items) != 1 || page.Items[0].ID != "7" {
		t.Fatalf("List page = %#v, want count=45 one item id=7", page)
	}

	cats, err := c.List(ctx, Categories, ListQuery{Page: 1})
	if err != nil {
		t.Fatalf("List categories returned error: %v", err)
	}
	if cats.TotalCount != 2 {
		t.Fatalf("categories TotalCount = %d, want 2", cats.TotalCount)
	}

	got := calls()
	if len(got) != 2 {
		t.Fatalf("calls = %d, want 2", len(got))
	}
	q := got[0].query
	if q.Get("status") != "active" || q.Get("page") != "2" || q.Get("page_size") != "20" || q.Has("search") {
		t.Fatalf("List query = %v, want status/page/page_size without search", q)
	}
	if got[0].header.Get("Authorization") != "Bearer secret" {
		t.Fatalf("Authorization = %q, want bearer token", got[0].header.Get("Authorization"))
	}
	if got[0].header.Get("X-Request-ID") == "" {
		t.Fatalf("X-Request-ID header missing")
	}
	if ua := got[0].header.Get("User-Agent"); !strings.HasPrefix(ua, "backer/") {
		t.Fatalf("User-Agent = %q, want backer/*", ua)
	}
}

func TestClient_MutationEndpoints(t *testing.T) {
	t.Parallel()

	server, calls := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/organizations/bulk_verify/":
			_, _ = w.Write([]byte(`{"updated": 2, "failed": [9]}`))
		case r.URL.Path == "/favorites/toggle/":
			_, _ = w.Write([]byte(`{"favorited": true}`))
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	})
	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.Action(ctx, Organizations, "3", "verify", nil); err != nil {
		t.Fatalf("Action returned error: %v", err)
	}
	if err := c.Patch(ctx, Users, "4", map[string]any{"role": "admin"}); err != nil {
		t.Fatalf("Patch returned error: %v", err)
	}
	if err := c.Delete(ctx, Categories, "5"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	result, err := c.Bulk(ctx, Organizations, "bulk_verify", []string{"1", "9"})
	if err != nil {
		t.Fatalf("Bulk returned error: %v", err)
	}
	if result.Updated != 2 || len(result.Failed) != 1 || result.Failed[0] != "9" {
		t.Fatalf("Bulk result = %#v, want updated=2 failed=[9]", result)
	}
	fav, err := c.ToggleFavorite(ctx, "7")
	if err != nil || !fav {
		t.Fatalf("ToggleFavorite = %v, %v; want true, nil", fav, err)
	}

	want := []struct{ method, path string }{
		{http.MethodPost, "/organizations/3/verify/"},
		{http.MethodPatch, "/users/4/"},
		{http.MethodDelete, "/categories/5/"},
		{http.MethodPost, "/organizations/bulk_verify/"},
		{http.MethodPost, "/favorites/toggle/"},
	}
	got := calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %d, want %d", len(got), len(want))
	}
	for i, w := range want {
		if got[i].method != w.method || got[i].path != w.path {
			t.Fatalf("call %d = %s %s, want %s %s", i, got[i].method, got[i].path, w.method, w.path)
		}
	}
	var patch map[string]string
	if err := json.Unmarshal([]byte(got[1].body), &patch); err != nil || patch["role"] != "admin" {
		t.Fatalf("Patch body = %q, want role=admin", got[1].body)
	}
	var bulk map[string][]string
	if err := json.Unmarshal([]byte(got[3].body), &bulk); err != nil || len(bulk["ids"]) != 2 {
		t.Fatalf("Bulk body = %q, want two ids", got[3].body)
	}
}

func TestClient_BulkUndecodableBodyIsLogged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>ok</html>")
	}))
	defer srv.Close()

	var logs bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(prev)

	c, err := NewClient(srv.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	result, err := c.Bulk(context.Background(), Organizations, "bulk_verify", []string{"1"})
	if err != nil {
		t.Fatalf("Bulk returned error: %v", err)
	}
	if result.Updated != 0 || len(result.Failed) != 0 {
		t.Fatalf("Bulk result = %#v, want empty", result)
	}
	if !strings.Contains(logs.String(), "discarding undecodable bulk response") {
		t.Fatalf("logs = %q, want a debug line for the undecodable body", logs.String())
	}
}

func TestClient_ErrorsBecomeAPIError(t *testing.T) {
	t.Parallel()

	server, _ := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/campaigns/7/feature/":
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message": "campaign already featured"}`))
		case "/users/":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"detail": "not allowed"}`))
		case "/campaigns/":
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/statistics/":
			_, _ = w.Write([]byte("{not-json"))
		default:
			http.NotFound(w, r)
		}
	})
	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	err = c.Action(ctx, Campaigns, "7", "feature", nil)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict || apiErr.Message != "campaign already featured" {
		t.Fatalf("Action error = %v, want 409 with message", err)
	}

	_, err = c.List(ctx, Users, ListQuery{})
	if !errors.As(err, &apiErr) || apiErr.Message != "not allowed" {
		t.Fatalf("List users error = %v, want detail message", err)
	}

	_, err = c.List(ctx, Campaigns, ListQuery{})
	if !errors.As(err, &apiErr) || apiErr.Status != 500 || !strings.Contains(apiErr.Message, "server error") {
		t.Fatalf("List campaigns error = %v, want generic server error", err)
	}

	_, err = c.Statistics(ctx)
	if err == nil || !strings.Contains(err.Error(), "decode response") {
		t.Fatalf("Statistics error = %v, want decode response error", err)
	}
}

func TestClient_CancelledContextReturnsContextError(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(server.URL, Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err = c.List(ctx, Campaigns, ListQuery{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("List error = %v, want context.Canceled", err)
	}
}

func TestClient_RequiresItemID(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", Options{})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.Detail(context.Background(), Campaigns, " "); err == nil {
		t.Fatalf("Detail returned nil error, want error")
	}
	if err := c.Action(context.Background(), Campaigns, "", "feature", nil); err == nil {
		t.Fatalf("Action returned nil error, want error")
	}
	if _, err := c.Bulk(context.Background(), Campaigns, "bulk_feature", nil); err == nil {
		t.Fatalf("Bulk returned nil error, want error")
	}
}

func TestAsAPIError(t *testing.T) {
	if AsAPIError(nil) != nil {
		t.Fatalf("AsAPIError(nil) should be nil")
	}
	plain := AsAPIError(errors.New("dial failed"))
	if plain.Status != 0 || plain.Message != "dial failed" {
		t.Fatalf("AsAPIError(plain) = %#v", plain)
	}
	wrapped := AsAPIError(errors.Join(errors.New("ctx"), &APIError{Status: 502, Message: "bad gateway"}))
	if wrapped.Status != 502 {
		t.Fatalf("AsAPIError(wrapped).Status = %d, want 502", wrapped.Status)
	}
}
