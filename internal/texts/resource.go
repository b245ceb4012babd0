package texts

import (
	"fmt"
	"sort"
	"strconv"
)

// Entry is the value stored under one key: either plain text or text
// options grouped by context name.
type Entry struct {
	Text    string
	Options map[string][]string
}

// Resource is the immutable key to text mapping. A nil Resource is empty.
type Resource struct {
	entries map[string]Entry
}

// Empty returns a Resource without entries.
func Empty() *Resource {
	return &Resource{entries: map[string]Entry{}}
}

// Len returns the number of keys.
func (r *Resource) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Keys returns the keys in sorted order.
func (r *Resource) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Lookup returns the plain text stored under key. Keys holding context
// options and missing keys report false; the caller decides what to show.
func (r *Resource) Lookup(key string) (string, bool) {
	if r == nil {
		return "", false
	}
	e, ok := r.entries[key]
	if !ok || e.Options != nil {
		return "", false
	}
	return e.Text, true
}

// Options returns a copy of the options for number in context.
func (r *Resource) Options(number int, context string) []string {
	if r == nil {
		return nil
	}
	e, ok := r.entries[strconv.Itoa(number)]
	if !ok {
		return nil
	}
	opts := e.Options[context]
	if len(opts) == 0 {
		return nil
	}
	return append([]string(nil), opts...)
}

// newResource converts a generically decoded document into a Resource.
func newResource(raw map[string]any) (*Resource, error) {
	entries := make(map[string]Entry, len(raw))
	for key, v := range raw {
		entry, err := decodeEntry(v)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", key, err)
		}
		entries[key] = entry
	}
	return &Resource{entries: entries}, nil
}

func decodeEntry(v any) (Entry, error) {
	switch x := v.(type) {
	case string:
		return Entry{Text: x}, nil
	case map[string]any:
		return decodeContexts(x)
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, val := range x {
			m[fmt.Sprint(k)] = val
		}
		return decodeContexts(m)
	}
	return Entry{}, fmt.Errorf("unsupported value %T", v)
}

func decodeContexts(m map[string]any) (Entry, error) {
	opts := make(map[string][]string, len(m))
	for ctx, v := range m {
		switch x := v.(type) {
		case string:
			opts[ctx] = []string{x}
		case []any:
			list := make([]string, 0, len(x))
			for i, item := range x {
				s, ok := item.(string)
				if !ok {
					return Entry{}, fmt.Errorf("context %q item %d: unsupported value %T", ctx, i, item)
				}
				list = append(list, s)
			}
			opts[ctx] = list
		default:
			return Entry{}, fmt.Errorf("context %q: unsupported value %T", ctx, v)
		}
	}
	return Entry{Options: opts}, nil
}
