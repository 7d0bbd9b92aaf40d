package demoapi

import (
	"bytes"
	"cmp"
	"encoding/csv"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"
)

// reserved query keys that are not field filters.
var reserved = map[string]bool{"page": true, "page_size": true, "ordering": true, "offset": true, "limit": true}

const defaultPageSize = 20

// display renders a field value the way filters compare it.
func display(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case map[string]any:
		return display(t["name"])
	default:
		return fmt.Sprint(t)
	}
}

// matches applies the list filters in values to r.
//
//	search         case-insensitive substring over every field
//	created_after  created_at >= value (RFC 3339 or date prefix)
//	anything else  exact match on the field's display form
func matches(r record, values url.Values) bool {
	for key, vs := range values {
		if reserved[key] || len(vs) == 0 {
			continue
		}
		want := strings.TrimSpace(vs[0])
		if want == "" {
			continue
		}
		switch key {
		case "search":
			if !searchHit(r, want) {
				return false
			}
		case "created_after":
			if display(r["created_at"]) < want {
				return false
			}
		default:
			if !strings.EqualFold(display(r[key]), want) {
				return false
			}
		}
	}
	return true
}

func searchHit(r record, needle string) bool {
	needle = strings.ToLower(needle)
	for key, v := range r {
		if key == "id" {
			continue
		}
		if strings.Contains(strings.ToLower(display(v)), needle) {
			return true
		}
	}
	return false
}

// order sorts rows in place by the ordering parameter ("field" or "-field").
// Rows keep their insertion order when ordering is empty.
func order(rows []record, ordering string) {
	field := strings.TrimSpace(ordering)
	if field == "" {
		return
	}
	desc := strings.HasPrefix(field, "-")
	field = strings.TrimPrefix(field, "-")
	slices.SortStableFunc(rows, func(a, b record) int {
		c := compareValues(a[field], b[field])
		if desc {
			return -c
		}
		return c
	})
}

func compareValues(a, b any) int {
	if x, ok := number(a); ok {
		if y, ok := number(b); ok {
			return cmp.Compare(x, y)
		}
	}
	return cmp.Compare(display(a), display(b))
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	default:
		return 0, false
	}
}

// paginate returns the requested page of rows. A page past the end yields no
// rows; the count still reports the full collection.
func paginate(rows []record, values url.Values) ([]record, error) {
	size := defaultPageSize
	if raw := values.Get("page_size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid page_size %q", raw)
		}
		size = n
	}
	page := 1
	if raw := values.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("invalid page %q", raw)
		}
		page = n
	}
	start := (page - 1) * size
	if start >= len(rows) {
		return []record{}, nil
	}
	end := min(start+size, len(rows))
	return rows[start:end], nil
}

// encodeCSV writes rows with a header of the union of their keys, id first.
func encodeCSV(rows []record) ([]byte, error) {
	seen := map[string]bool{"id": true}
	columns := []string{"id"}
	for _, r := range rows {
		for k := range r {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	slices.Sort(columns[1:])

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(columns); err != nil {
		return nil, err
	}
	line := make([]string, len(columns))
	for _, r := range rows {
		for i, c := range columns {
			line[i] = display(r[c])
		}
		if err := w.Write(line); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("encode csv: %w", err)
	}
	return buf.Bytes(), nil
}
