package platform

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Resource names an admin resource family exposed by the platform API.
type Resource string

const (
	Campaigns     Resource = "campaigns"
	Organizations Resource = "organizations"
	Users         Resource = "users"
	Transactions  Resource = "transactions"
	Categories    Resource = "categories"
	AdminActions  Resource = "admin-actions"
)

// Item is a record returned by a list or detail endpoint. Only the id is
// interpreted; everything else lives in Fields untouched.
type Item struct {
	ID     string
	Fields map[string]any
}

// UnmarshalJSON decodes an object, normalizing numeric and string ids.
func (i *Item) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var fields map[string]any
	if err := decoder.Decode(&fields); err != nil {
		return err
	}
	id, err := normalizeID(fields["id"])
	if err != nil {
		return err
	}
	i.ID = id
	i.Fields = fields
	return nil
}

// MarshalJSON encodes the field map; the id is written from ID.
func (i Item) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(i.Fields)+1)
	for k, v := range i.Fields {
		out[k] = v
	}
	if n, err := strconv.ParseInt(i.ID, 10, 64); err == nil {
		out["id"] = n
	} else {
		out["id"] = i.ID
	}
	return json.Marshal(out)
}

func normalizeID(raw any) (string, error) {
	switch v := raw.(type) {
	case json.Number:
		return v.String(), nil
	case string:
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("item id is empty")
		}
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case nil:
		return "", fmt.Errorf("item has no id")
	default:
		return "", fmt.Errorf("unsupported item id type %T", raw)
	}
}

// With returns a copy of the item with key set to value.
func (i Item) With(key string, value any) Item {
	fields := make(map[string]any, len(i.Fields)+1)
	for k, v := range i.Fields {
		fields[k] = v
	}
	fields[key] = value
	return Item{ID: i.ID, Fields: fields}
}

// Clone returns a shallow copy whose field map can be modified independently.
func (i Item) Clone() Item {
	if i.Fields == nil {
		return Item{ID: i.ID}
	}
	fields := make(map[string]any, len(i.Fields))
	for k, v := range i.Fields {
		fields[k] = v
	}
	return Item{ID: i.ID, Fields: fields}
}

// Bool reports a boolean field, treating missing or non-boolean values as false.
func (i Item) Bool(key string) bool {
	v, _ := i.Fields[key].(bool)
	return v
}

// String renders a field for display.
func (i Item) String(key string) string {
	switch v := i.Fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case map[string]any:
		if name, ok := v["name"].(string); ok {
			return name
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// CreatedAt returns the parsed created_at timestamp when present.
func (i Item) CreatedAt() time.Time {
	return parseTime(i.String("created_at"))
}

// Page is a normalized list response.
type Page struct {
	Items      []Item
	TotalCount int
}

// listEnvelope mirrors the paginated list shape.
type listEnvelope struct {
	Results []Item `json:"results"`
	Count   int    `json:"count"`
}

// decodeList accepts either a bare array or a {results, count} envelope.
func decodeList(data []byte) (Page, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return Page{}, fmt.Errorf("empty list response")
	}
	if trimmed[0] == '[' {
		var items []Item
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return Page{}, err
		}
		return Page{Items: items, TotalCount: len(items)}, nil
	}
	var env listEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return Page{}, err
	}
	if env.Count < len(env.Results) {
		env.Count = len(env.Results)
	}
	return Page{Items: env.Results, TotalCount: env.Count}, nil
}

// ListQuery configures GET /{resource}/ requests.
type ListQuery struct {
	Filters  map[string]string
	Page     int
	PageSize int
}

// BulkResult is the optional outcome body of a bulk endpoint.
type BulkResult struct {
	Updated int      `json:"updated"`
	Failed  []string `json:"failed"`
}

// UnmarshalJSON accepts failed ids encoded as numbers or strings.
func (b *BulkResult) UnmarshalJSON(data []byte) error {
	var raw struct {
		Updated int   `json:"updated"`
		Failed  []any `json:"failed"`
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&raw); err != nil {
		return err
	}
	b.Updated = raw.Updated
	b.Failed = nil
	for _, v := range raw.Failed {
		id, err := normalizeID(v)
		if err != nil {
			return err
		}
		b.Failed = append(b.Failed, id)
	}
	return nil
}

// Statistics is the aggregate summary shown on dashboard cards.
type Statistics map[string]json.Number

// Int returns the named counter, or zero.
func (s Statistics) Int(key string) int64 {
	n, err := s[key].Int64()
	if err != nil {
		f, ferr := s[key].Float64()
		if ferr != nil {
			return 0
		}
		return int64(f)
	}
	return n
}

// Notification is a frame pushed over the notification WebSocket.
type Notification struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// FavoritesPage is a window of the current user's favorites.
type FavoritesPage struct {
	Items []Item `json:"results"`
	Count int    `json:"count"`
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}
