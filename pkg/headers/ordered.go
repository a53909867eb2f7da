package headers

import (
	"sort"
	"strings"
)

// Headers is an ordered, case-insensitive, multi-valued header table.
// Names are keyed by their lowercased form; the case of the most recent
// Set/Add is kept for rendering.
//
// Headers is not synchronized. The message types never mutate a table once
// it has been handed to a message; they Clone and modify the copy.
type Headers struct {
	order  []string            // Lowercased names in first-insertion order
	values map[string][]string // Lowercased name -> values
	raw    map[string]string   // Lowercased name -> original case
}

// Field is a single header name with all of its values
type Field struct {
	Name   string
	Values []string
}

// New creates an empty header table
func New() *Headers {
	return &Headers{
		order:  make([]string, 0),
		values: make(map[string][]string),
		raw:    make(map[string]string),
	}
}

// FromMap builds a table from a map. Map order is random, so names are
// inserted in sorted order; use Set in sequence when order matters.
func FromMap(m map[string][]string) *Headers {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	h := New()
	for _, name := range names {
		h.Add(name, m[name]...)
	}
	return h
}

// Clone returns a deep copy that shares no slices or maps with h
func (h *Headers) Clone() *Headers {
	clone := New()
	if h == nil {
		return clone
	}
	clone.order = append(clone.order, h.order...)
	for k, v := range h.values {
		vs := make([]string, len(v))
		copy(vs, v)
		clone.values[k] = vs
	}
	for k, v := range h.raw {
		clone.raw[k] = v
	}
	return clone
}

// Set replaces all values for name, keeping its position if already present
func (h *Headers) Set(name string, values ...string) {
	lowerName := strings.ToLower(name)

	if _, exists := h.values[lowerName]; !exists {
		h.order = append(h.order, lowerName)
	}

	vs := make([]string, len(values))
	copy(vs, values)
	h.values[lowerName] = vs
	h.raw[lowerName] = name
}

// Add appends values for name, creating the header if needed
func (h *Headers) Add(name string, values ...string) {
	lowerName := strings.ToLower(name)

	existing, exists := h.values[lowerName]
	if !exists {
		h.order = append(h.order, lowerName)
	}

	h.values[lowerName] = append(append(make([]string, 0, len(existing)+len(values)), existing...), values...)
	h.raw[lowerName] = name
}

// Del removes name and all of its values
func (h *Headers) Del(name string) {
	lowerName := strings.ToLower(name)

	if _, exists := h.values[lowerName]; !exists {
		return
	}
	delete(h.values, lowerName)
	delete(h.raw, lowerName)

	for i, headerName := range h.order {
		if headerName == lowerName {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
}

// Get returns a copy of the values for name, or an empty slice
func (h *Headers) Get(name string) []string {
	if h == nil {
		return []string{}
	}
	v := h.values[strings.ToLower(name)]
	out := make([]string, len(v))
	copy(out, v)
	return out
}

// First returns the first value for name, or ""
func (h *Headers) First(name string) string {
	if h == nil {
		return ""
	}
	if v := h.values[strings.ToLower(name)]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Line returns all values for name joined with ", "
func (h *Headers) Line(name string) string {
	if h == nil {
		return ""
	}
	return strings.Join(h.values[strings.ToLower(name)], ", ")
}

// GetRaw retrieves the original case of the header name
func (h *Headers) GetRaw(name string) string {
	if h == nil {
		return ""
	}
	return h.raw[strings.ToLower(name)]
}

// Has checks if a header exists (case-insensitive)
func (h *Headers) Has(name string) bool {
	if h == nil {
		return false
	}
	_, exists := h.values[strings.ToLower(name)]
	return exists
}

// All returns every header in order, with original-case names
func (h *Headers) All() []Field {
	if h == nil {
		return []Field{}
	}
	fields := make([]Field, 0, len(h.order))
	for _, lowerName := range h.order {
		vs := make([]string, len(h.values[lowerName]))
		copy(vs, h.values[lowerName])
		fields = append(fields, Field{
			Name:   h.raw[lowerName],
			Values: vs,
		})
	}
	return fields
}

// Names returns the lowercased header names in order
func (h *Headers) Names() []string {
	if h == nil {
		return []string{}
	}
	names := make([]string, len(h.order))
	copy(names, h.order)
	return names
}

// Map returns the table as a lowercased-name map
func (h *Headers) Map() map[string][]string {
	m := make(map[string][]string)
	if h == nil {
		return m
	}
	for _, lowerName := range h.order {
		vs := make([]string, len(h.values[lowerName]))
		copy(vs, h.values[lowerName])
		m[lowerName] = vs
	}
	return m
}

// Len returns the number of distinct header names
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}
