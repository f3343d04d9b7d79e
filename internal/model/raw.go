package model

import (
	"encoding/json"
	"sort"
)

// Raw is a read-only copy of the JSON record a typed value was mapped from.
// It gives access to fields the typed model does not know about yet.
type Raw struct {
	fields map[string]any
}

// NewRaw copies record so later changes by the caller are not observed.
func NewRaw(record map[string]any) Raw {
	if record == nil {
		return Raw{}
	}
	copied, _ := deepCopy(record).(map[string]any)
	return Raw{fields: copied}
}

// Get returns a copy of the value stored under key.
func (r Raw) Get(key string) (any, bool) {
	v, ok := r.fields[key]
	if !ok {
		return nil, false
	}
	return deepCopy(v), true
}

// String returns the value under key when it is a JSON string.
func (r Raw) String(key string) (string, bool) {
	s, ok := r.fields[key].(string)
	return s, ok
}

// Has reports whether key is present.
func (r Raw) Has(key string) bool {
	_, ok := r.fields[key]
	return ok
}

// Keys returns the top-level keys in sorted order.
func (r Raw) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for k := range r.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Map returns a deep copy of the record.
func (r Raw) Map() map[string]any {
	if r.fields == nil {
		return nil
	}
	copied, _ := deepCopy(r.fields).(map[string]any)
	return copied
}

// Len returns the number of top-level fields.
func (r Raw) Len() int {
	return len(r.fields)
}

// MarshalJSON encodes the original record.
func (r Raw) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("null"), nil
	}
	return json.Marshal(r.fields)
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = deepCopy(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return val
	}
}
