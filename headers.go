package apievents

import "strings"

// Headers is a bag of HTTP headers whose values are each either a single
// string or an ordered list of strings (repeated headers). Lookups and
// mutations are case-insensitive on the key while the originally-supplied
// casing of existing keys is preserved.
type Headers struct {
	entries []headerEntry
}

type headerEntry struct {
	name   string
	values []string
	// multi records whether the entry was supplied as a list; it drives the
	// response header shape even for single-element lists.
	multi bool
}

// NewHeaders returns an empty header bag.
func NewHeaders() *Headers {
	return &Headers{}
}

func (h *Headers) index(name string) int {
	for i, entry := range h.entries {
		if strings.EqualFold(entry.name, name) {
			return i
		}
	}
	return -1
}

// Set sets a single-valued header, replacing any existing value. The casing
// of an existing key is kept.
func (h *Headers) Set(name, value string) *Headers {
	if i := h.index(name); i >= 0 {
		h.entries[i].values = []string{value}
		h.entries[i].multi = false
		return h
	}
	h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
	return h
}

// SetList sets a multi-valued header, replacing any existing value.
func (h *Headers) SetList(name string, values []string) *Headers {
	copied := append([]string(nil), values...)
	if i := h.index(name); i >= 0 {
		h.entries[i].values = copied
		h.entries[i].multi = true
		return h
	}
	h.entries = append(h.entries, headerEntry{name: name, values: copied, multi: true})
	return h
}

// SetDefault sets a single-valued header only if the key is not already
// present under any casing.
func (h *Headers) SetDefault(name, value string) *Headers {
	if h.index(name) < 0 {
		h.entries = append(h.entries, headerEntry{name: name, values: []string{value}})
	}
	return h
}

// Get returns the value for the named header. Multi-valued entries are
// returned comma-joined.
func (h *Headers) Get(name string) (string, bool) {
	if i := h.index(name); i >= 0 {
		return strings.Join(h.entries[i].values, ","), true
	}
	return "", false
}

// GetList returns all values for the named header.
func (h *Headers) GetList(name string) ([]string, bool) {
	if i := h.index(name); i >= 0 {
		return append([]string(nil), h.entries[i].values...), true
	}
	return nil, false
}

// Delete removes the named header under any casing.
func (h *Headers) Delete(name string) *Headers {
	if i := h.index(name); i >= 0 {
		h.entries = append(h.entries[:i], h.entries[i+1:]...)
	}
	return h
}

// Len returns the number of header keys.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.entries)
}

// Names returns the header names in insertion order, in their original
// casing.
func (h *Headers) Names() []string {
	names := make([]string, 0, len(h.entries))
	for _, entry := range h.entries {
		names = append(names, entry.name)
	}
	return names
}

// Clone returns a deep copy so callers can layer defaults on a response
// without mutating the input.
func (h *Headers) Clone() *Headers {
	if h == nil {
		return NewHeaders()
	}
	clone := &Headers{entries: make([]headerEntry, len(h.entries))}
	for i, entry := range h.entries {
		clone.entries[i] = headerEntry{
			name:   entry.name,
			values: append([]string(nil), entry.values...),
			multi:  entry.multi,
		}
	}
	return clone
}

// allSingleValued reports whether every entry holds a plain single string.
func (h *Headers) allSingleValued() bool {
	for _, entry := range h.entries {
		if entry.multi {
			return false
		}
	}
	return true
}

// flatMap returns the headers as a single-valued map. Multi-valued entries
// are comma-joined.
func (h *Headers) flatMap() map[string]string {
	out := make(map[string]string, len(h.entries))
	for _, entry := range h.entries {
		out[entry.name] = strings.Join(entry.values, ",")
	}
	return out
}

// multiValueMap returns the headers with every value as a list.
func (h *Headers) multiValueMap() map[string][]string {
	out := make(map[string][]string, len(h.entries))
	for _, entry := range h.entries {
		out[entry.name] = append([]string(nil), entry.values...)
	}
	return out
}

// mergeDefaults adds every header from defaults that is not already present
// under any casing.
func (h *Headers) mergeDefaults(defaults map[string]string) {
	for name, value := range defaults {
		h.SetDefault(name, value)
	}
}
