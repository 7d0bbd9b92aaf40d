package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ResourceFetcher lists and loads records of one resource family.
// This interface is implemented by *Client and can be used for testing.
type ResourceFetcher interface {
	List(ctx context.Context, resource Resource, query ListQuery) (Page, error)
	Detail(ctx context.Context, resource Resource, id string) (Item, error)
}

// Mutator issues the write endpoints used by per-item and bulk actions.
type Mutator interface {
	Action(ctx context.Context, resource Resource, id, action string, body any) error
	Patch(ctx context.Context, resource Resource, id string, body any) error
	Delete(ctx context.Context, resource Resource, id string) error
	Bulk(ctx context.Context, resource Resource, action string, ids []string) (BulkResult, error)
}

// FavoritesSource serves the favorites drawer.
type FavoritesSource interface {
	FavoritesCount(ctx context.Context) (int, error)
	Favorites(ctx context.Context, offset, limit int) (FavoritesPage, error)
	ToggleFavorite(ctx context.Context, campaignID string) (bool, error)
}

// Ensure Client implements the interfaces at compile time.
var (
	_ ResourceFetcher = (*Client)(nil)
	_ Mutator         = (*Client)(nil)
	_ FavoritesSource = (*Client)(nil)
)

// APIError is the plain shape every remote failure is converted into.
type APIError struct {
	Status    int
	Message   string
	RequestID string
}

func (e *APIError) Error() string {
	if e.Status == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

// AsAPIError converts any error into an APIError, keeping the original
// status when err already carries one.
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{Message: err.Error()}
}

// Client talks to the platform HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	token     string
	userAgent string
}

const (
	defaultAPIURL    = "http://127.0.0.1:8000/api"
	defaultUserAgent = "backer/0.1"
	requestTimeout   = 10 * time.Second
)

// Options tune a Client.
type Options struct {
	Token   string
	Timeout time.Duration
}

// NewClient builds a Client rooted at apiURL.
func NewClient(apiURL string, opts Options) (*Client, error) {
	base, err := parseBaseURL(apiURL)
	if err != nil {
		return nil, err
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		baseURL:   base,
		http:      &http.Client{Timeout: timeout},
		token:     strings.TrimSpace(opts.Token),
		userAgent: defaultUserAgent,
	}, nil
}

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// List retrieves one page of a resource collection.
func (c *Client) List(ctx context.Context, resource Resource, query ListQuery) (Page, error) {
	if c == nil {
		return Page{}, fmt.Errorf("client is nil")
	}
	values := encodeFilters(query.Filters)
	if query.Page > 0 {
		values.Set("page", strconv.Itoa(query.Page))
	}
	if query.PageSize > 0 {
		values.Set("page_size", strconv.Itoa(query.PageSize))
	}
	rel := c.endpoint(values, string(resource))
	data, err := c.doRaw(ctx, http.MethodGet, rel, nil)
	if err != nil {
		return Page{}, err
	}
	page, err := decodeList(data)
	if err != nil {
		return Page{}, fmt.Errorf("decode response: %w", err)
	}
	return page, nil
}

// Detail retrieves a single record.
func (c *Client) Detail(ctx context.Context, resource Resource, id string) (Item, error) {
	if c == nil {
		return Item{}, fmt.Errorf("client is nil")
	}
	if strings.TrimSpace(id) == "" {
		return Item{}, fmt.Errorf("item id required")
	}
	var item Item
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, string(resource), id), nil, &item); err != nil {
		return Item{}, err
	}
	return item, nil
}

// Action posts to /{resource}/{id}/{action}/.
func (c *Client) Action(ctx context.Context, resource Resource, id, action string, body any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("item id required")
	}
	return c.do(ctx, http.MethodPost, c.endpoint(nil, string(resource), id, action), body, nil)
}

// Patch partially updates /{resource}/{id}/.
func (c *Client) Patch(ctx context.Context, resource Resource, id string, body any) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("item id required")
	}
	return c.do(ctx, http.MethodPatch, c.endpoint(nil, string(resource), id), body, nil)
}

// Delete removes /{resource}/{id}/.
func (c *Client) Delete(ctx context.Context, resource Resource, id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("item id required")
	}
	return c.do(ctx, http.MethodDelete, c.endpoint(nil, string(resource), id), nil, nil)
}

// Bulk posts {ids} to /{resource}/{action}/. An empty response body is a
// success without per-item detail.
func (c *Client) Bulk(ctx context.Context, resource Resource, action string, ids []string) (BulkResult, error) {
	if len(ids) == 0 {
		return BulkResult{}, fmt.Errorf("bulk %s: no ids", action)
	}
	data, err := c.doRaw(ctx, http.MethodPost, c.endpoint(nil, string(resource), action), map[string]any{"ids": ids})
	if err != nil {
		return BulkResult{}, err
	}
	var result BulkResult
	if len(bytes.TrimSpace(data)) == 0 {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		// The request succeeded; only the per-item detail is lost.
		slog.Debug("discarding undecodable bulk response",
			slog.String("resource", string(resource)),
			slog.String("action", action),
			slog.Int("bytes", len(data)),
			slog.String("error", err.Error()),
		)
		return BulkResult{}, nil
	}
	return result, nil
}

// Export downloads the filtered collection as a binary blob.
func (c *Client) Export(ctx context.Context, resource Resource, filters map[string]string) ([]byte, error) {
	return c.doRaw(ctx, http.MethodGet, c.endpoint(encodeFilters(filters), string(resource), "export"), nil)
}

// Statistics retrieves the dashboard summary.
func (c *Client) Statistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "statistics"), nil, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// FavoritesCount returns the number of favorited campaigns.
func (c *Client) FavoritesCount(ctx context.Context) (int, error) {
	var payload struct {
		Count int `json:"count"`
	}
	if err := c.do(ctx, http.MethodGet, c.endpoint(nil, "favorites", "count"), nil, &payload); err != nil {
		return 0, err
	}
	return payload.Count, nil
}

// Favorites retrieves a window of favorited campaigns.
func (c *Client) Favorites(ctx context.Context, offset, limit int) (FavoritesPage, error) {
	values := url.Values{}
	values.Set("offset", strconv.Itoa(offset))
	if limit > 0 {
		values.Set("limit", strconv.Itoa(limit))
	}
	data, err := c.doRaw(ctx, http.MethodGet, c.endpoint(values, "favorites"), nil)
	if err != nil {
		return FavoritesPage{}, err
	}
	page, err := decodeList(data)
	if err != nil {
		return FavoritesPage{}, fmt.Errorf("decode response: %w", err)
	}
	return FavoritesPage{Items: page.Items, Count: page.TotalCount}, nil
}

// ToggleFavorite flips the favorite flag of a campaign and reports the new value.
func (c *Client) ToggleFavorite(ctx context.Context, campaignID string) (bool, error) {
	var payload struct {
		Favorited bool `json:"favorited"`
	}
	body := map[string]any{"campaign": campaignID}
	if err := c.do(ctx, http.MethodPost, c.endpoint(nil, "favorites", "toggle"), body, &payload); err != nil {
		return false, err
	}
	return payload.Favorited, nil
}

// endpoint resolves path segments against the base URL with a trailing slash.
func (c *Client) endpoint(values url.Values, segments ...string) *url.URL {
	reqURL := *c.baseURL
	reqURL.Path = c.baseURL.Path + "/" + strings.Join(segments, "/") + "/"
	if len(values) > 0 {
		reqURL.RawQuery = values.Encode()
	}
	return &reqURL
}

func (c *Client) do(ctx context.Context, method string, reqURL *url.URL, body, dest any) error {
	data, err := c.doRaw(ctx, method, reqURL, body)
	if err != nil {
		return err
	}
	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) doRaw(ctx context.Context, method string, reqURL *url.URL, body any) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &APIError{Message: fmt.Sprintf("execute request: %v", err), RequestID: requestID}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		apiErr := &APIError{
			Status:    resp.StatusCode,
			Message:   errorMessage(data, resp.StatusCode),
			RequestID: requestID,
		}
		slog.Warn("api request failed",
			slog.String("method", method),
			slog.String("path", reqURL.Path),
			slog.Int("status", resp.StatusCode),
			slog.String("request_id", requestID),
		)
		return nil, apiErr
	}
	return data, nil
}

// errorMessage extracts the user-facing message of an error body.
func errorMessage(data []byte, status int) string {
	var payload struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		for _, msg := range []string{payload.Message, payload.Detail, payload.Error} {
			if strings.TrimSpace(msg) != "" {
				return strings.TrimSpace(msg)
			}
		}
	}
	if status >= 500 {
		return "server error, please try again"
	}
	return http.StatusText(status)
}

// encodeFilters drops unset (empty) values; keys are emitted in sorted order.
func encodeFilters(filters map[string]string) url.Values {
	values := url.Values{}
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if v := strings.TrimSpace(filters[k]); v != "" {
			values.Set(k, v)
		}
	}
	return values
}

func parseBaseURL(apiURL string) (*url.URL, error) {
	trimmed := strings.TrimSpace(apiURL)
	if trimmed == "" {
		trimmed = defaultAPIURL
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse api_url %q: %w", apiURL, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse api_url %q: missing host", apiURL)
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	u.RawPath = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
