package scope

import (
	"cmp"
	"iter"
	"maps"
	"slices"
)

// Pair is a single key/value binding used to construct or update a
// container in a caller-defined order.
type Pair struct {
	Key   string
	Value any
}

// KV returns a [Pair] binding value to key.
func KV(key string, value any) Pair {
	return Pair{Key: key, Value: value}
}

// Container is implemented by [*Map] and [*Scope] only.
//
// Rendering, equality, encoding and the parent chain walk recognize
// containers through this interface and treat every other value as opaque.
type Container interface {
	Has(key string) bool
	Get(key string) (any, error)
	Keys() []string
	Len() int

	local() *Map
}

// entry is a stored value and the sequence number of its key's first
// insertion.
type entry struct {
	value any
	seq   uint64
}

// Map is an insertion-ordered associative container whose entries are
// addressable both by key ([Map.Get], [Map.Set], [Map.Delete]) and by
// attribute name ([Map.Attr], [Map.SetAttr], [Map.DelAttr]).
//
// Keys enumerate in order of first insertion. Overwriting an existing key
// keeps its position; deleting a key and setting it again moves it to the
// end.
//
// The zero value is an empty Map ready to use. A Map is not safe for
// concurrent use.
type Map struct {
	entries map[string]entry
	next    uint64
}

// New returns a Map holding the given pairs in order.
func New(pairs ...Pair) *Map {
	return From(pairs, nil)
}

// From returns a Map initialized by [Map.Update] with pairs and named.
func From(pairs []Pair, named map[string]any) *Map {
	m := &Map{}
	m.Update(pairs, named)

	return m
}

func (m *Map) local() *Map { return m }

// Set stores value under key. A new key is ordered after every key already
// present; an existing key keeps its position.
func (m *Map) Set(key string, value any) {
	if m.entries == nil {
		m.entries = make(map[string]entry)
	}

	if e, ok := m.entries[key]; ok {
		e.value = value
		m.entries[key] = e

		return
	}

	m.entries[key] = entry{value: value, seq: m.next}
	m.next++
}

// Lookup returns the value stored under key and whether it was present.
func (m *Map) Lookup(key string) (any, bool) {
	if m == nil {
		return nil, false
	}

	e, ok := m.entries[key]

	return e.value, ok
}

// Get returns the value stored under key, or [ErrKeyNotFound].
func (m *Map) Get(key string) (any, error) {
	if v, ok := m.Lookup(key); ok {
		return v, nil
	}

	return nil, keyNotFound(key)
}

// Delete removes key, or returns [ErrKeyNotFound] if it is absent.
func (m *Map) Delete(key string) error {
	if !m.Has(key) {
		return keyNotFound(key)
	}

	delete(m.entries, key)

	return nil
}

// Pop removes key and returns its value.
//
// If key is absent, Pop returns the first element of def when given and
// [ErrKeyNotFound] otherwise.
func (m *Map) Pop(key string, def ...any) (any, error) {
	v, ok := m.Lookup(key)
	if !ok {
		if len(def) > 0 {
			return def[0], nil
		}

		return nil, keyNotFound(key)
	}

	delete(m.entries, key)

	return v, nil
}

// Update sets every pair in order, then every named value.
//
// Named values are applied in ascending key order so that the positions of
// newly inserted keys do not depend on map iteration order.
func (m *Map) Update(pairs []Pair, named map[string]any) {
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}

	for _, k := range slices.Sorted(maps.Keys(named)) {
		m.Set(k, named[k])
	}
}

// Has reports whether key is stored in m.
func (m *Map) Has(key string) bool {
	_, ok := m.Lookup(key)

	return ok
}

// Len returns the number of keys in m.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}

	return len(m.entries)
}

// IsEmpty reports whether m has no keys.
func (m *Map) IsEmpty() bool { return m.Len() == 0 }

// Keys returns the keys of m in insertion order.
// The result is computed on each call and owned by the caller.
func (m *Map) Keys() []string {
	if m.Len() == 0 {
		return nil
	}

	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}

	slices.SortFunc(keys, func(a, b string) int {
		return cmp.Compare(m.entries[a].seq, m.entries[b].seq)
	})

	return keys
}

// Values returns the values of m in key order.
func (m *Map) Values() []any {
	keys := m.Keys()
	values := make([]any, len(keys))

	for i, k := range keys {
		values[i] = m.entries[k].value
	}

	return values
}

// Items returns an iterator over the key/value pairs of m in key order.
// Each call returns an independent iterator.
func (m *Map) Items() iter.Seq2[string, any] {
	return func(yield func(string, any) bool) {
		for _, k := range m.Keys() {
			e, ok := m.entries[k]
			if !ok {
				continue // deleted during iteration
			}

			if !yield(k, e.value) {
				return
			}
		}
	}
}

// All is equivalent to [Map.Items].
func (m *Map) All() iter.Seq2[string, any] { return m.Items() }

// Attr returns the value bound to name, or [ErrAttributeNotFound].
func (m *Map) Attr(name string) (any, error) {
	if v, ok := m.Lookup(name); ok {
		return v, nil
	}

	return nil, attrNotFound(name)
}

// SetAttr is equivalent to [Map.Set].
func (m *Map) SetAttr(name string, value any) { m.Set(name, value) }

// DelAttr is equivalent to [Map.Delete]: a missing name is reported as
// [ErrKeyNotFound]. Only attribute reads report [ErrAttributeNotFound].
func (m *Map) DelAttr(name string) error { return m.Delete(name) }

// HasAttr reports whether [Map.Attr] would succeed for name.
func (m *Map) HasAttr(name string) bool { return m.Has(name) }

// Clone returns a shallow copy of m with the same key order.
func (m *Map) Clone() *Map {
	if m == nil {
		return &Map{}
	}

	return &Map{entries: maps.Clone(m.entries), next: m.next}
}

// Equal reports whether m and other hold the same keys bound to equal
// values. Key order is not compared.
func (m *Map) Equal(other Container) bool { return Equal(m, other) }
