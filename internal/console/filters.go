package console

import "strings"

// OrderingKey is the filter key that carries the sort order.
const OrderingKey = "ordering"

// Filters is an ordered, immutable mapping of filter keys to values. Empty
// values mean "unset" and are never sent to the server.
type Filters struct {
	keys   []string
	values map[string]string
}

// NewFilters builds Filters from key/value pairs; a trailing odd key is ignored.
func NewFilters(pairs ...string) Filters {
	f := Filters{}
	for i := 0; i+1 < len(pairs); i += 2 {
		f = f.With(pairs[i], pairs[i+1])
	}
	return f
}

// Get returns the value for key, or "".
func (f Filters) Get(key string) string {
	return f.values[key]
}

// With returns a copy with key set to value. New keys keep insertion order.
func (f Filters) With(key, value string) Filters {
	key = strings.TrimSpace(key)
	if key == "" {
		return f
	}
	values := make(map[string]string, len(f.values)+1)
	for k, v := range f.values {
		values[k] = v
	}
	keys := f.keys
	if _, ok := f.values[key]; !ok {
		keys = append(append([]string(nil), f.keys...), key)
	}
	values[key] = value
	return Filters{keys: keys, values: values}
}

// Keys returns the keys in insertion order.
func (f Filters) Keys() []string {
	return append([]string(nil), f.keys...)
}

// Query returns only the set (non-empty) entries.
func (f Filters) Query() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		if strings.TrimSpace(v) != "" {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Active reports how many entries are set, ignoring ordering.
func (f Filters) Active() int {
	n := 0
	for k, v := range f.values {
		if k != OrderingKey && strings.TrimSpace(v) != "" {
			n++
		}
	}
	return n
}

// Equal compares set entries; order and unset keys are ignored.
func (f Filters) Equal(other Filters) bool {
	a, b := f.Query(), other.Query()
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
