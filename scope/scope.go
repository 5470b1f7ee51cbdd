package scope

import "strings"

// ParentKey is the reserved key linking a [Scope] to its parent.
const ParentKey = "_"

// IsReserved reports whether name is a structural name that a [Scope]
// always resolves locally: the parent link itself, or any name that both
// begins and ends with a double underscore.
func IsReserved(name string) bool {
	return name == ParentKey ||
		(strings.HasPrefix(name, "__") && strings.HasSuffix(name, "__"))
}

// Scope is a [Map] with prototype-style reads. A read of a name that is not
// reserved and not stored locally continues in the parent linked by
// [ParentKey], then in the parent's parent, returning the value from the
// first scope that stores the name.
//
// Writes and deletes always act on the receiver; assignment shadows a
// parent's binding and never mutates it.
//
// The chain is not checked for cycles. Linking a scope into its own chain
// makes any read that misses every scope in the cycle loop forever.
type Scope struct {
	Map
}

// NewScope returns a Scope holding the given pairs in order.
func NewScope(pairs ...Pair) *Scope {
	return ScopeFrom(pairs, nil)
}

// ScopeFrom returns a Scope initialized by [Map.Update] with pairs and
// named.
func ScopeFrom(pairs []Pair, named map[string]any) *Scope {
	s := &Scope{}
	s.Update(pairs, named)

	return s
}

// Child returns a new Scope whose parent is s, followed by pairs.
func (s *Scope) Child(pairs ...Pair) *Scope {
	c := &Scope{}
	c.Set(ParentKey, s)
	c.Update(pairs, nil)

	return c
}

// AsScope returns c as a Scope. A *Scope is returned unchanged; a *Map is
// copied into a new Scope with the same entries and key order. A nil
// Container or nil *Scope yields an empty root Scope.
func AsScope(c Container) *Scope {
	if c == nil {
		return &Scope{}
	}

	if s, ok := c.(*Scope); ok {
		if s == nil {
			return &Scope{}
		}

		return s
	}

	return &Scope{Map: *c.local().Clone()}
}

func (s *Scope) local() *Map {
	if s == nil {
		return nil
	}

	return &s.Map
}

// Parent returns the container linked by [ParentKey], or nil if s is a root.
func (s *Scope) Parent() Container {
	return parentOf(s.local())
}

// Depth returns the number of ancestors reachable from s.
func (s *Scope) Depth() int {
	n := 0
	for p := s.Parent(); p != nil; p = parentOf(p.local()) {
		n++
	}

	return n
}

// Lookup returns the value of name as seen from s and whether any scope in
// the chain defines it.
func (s *Scope) Lookup(name string) (any, bool) {
	v, _, ok := s.resolve(name)

	return v, ok
}

// Get returns the value of name as seen from s, or [ErrKeyNotFound].
func (s *Scope) Get(name string) (any, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}

	return nil, keyNotFound(name)
}

// Attr returns the value of name as seen from s, or
// [ErrAttributeNotFound].
func (s *Scope) Attr(name string) (any, error) {
	if v, ok := s.Lookup(name); ok {
		return v, nil
	}

	return nil, attrNotFound(name)
}

// HasAttr reports whether [Scope.Attr] would succeed for name.
func (s *Scope) HasAttr(name string) bool {
	_, ok := s.Lookup(name)

	return ok
}

// Resolve returns the value of name as seen from s together with the
// container that stores it, or [ErrKeyNotFound].
func (s *Scope) Resolve(name string) (any, Container, error) {
	v, owner, ok := s.resolve(name)
	if !ok {
		return nil, nil, keyNotFound(name)
	}

	return v, owner, nil
}

func (s *Scope) resolve(name string) (any, Container, bool) {
	m := s.local()

	if v, ok := m.Lookup(name); ok {
		return v, s, true
	}

	if IsReserved(name) || !m.Has(ParentKey) {
		return nil, nil, false
	}

	return lookupInChain(m, name)
}

// lookupInChain searches the ancestors of m, nearest first, for a scope
// storing name. m itself is never searched.
func lookupInChain(m *Map, name string) (any, Container, bool) {
	for ctx := parentOf(m); ctx != nil; ctx = parentOf(ctx.local()) {
		if v, ok := ctx.local().Lookup(name); ok {
			return v, ctx, true
		}
	}

	return nil, nil, false
}

// parentOf returns the container linked from m, or nil when the link is
// absent, is not a container, or is empty.
func parentOf(m *Map) Container {
	v, ok := m.Lookup(ParentKey)
	if !ok {
		return nil
	}

	c, ok := v.(Container)
	if !ok || c.local().Len() == 0 {
		return nil
	}

	return c
}

// Visible returns every name readable from s: local keys in insertion
// order, then each ancestor's keys not already seen, nearest ancestor first.
// Reserved names are omitted.
func (s *Scope) Visible() []string {
	var names []string

	seen := make(map[string]struct{})

	add := func(m *Map) {
		for _, k := range m.Keys() {
			if _, dup := seen[k]; dup || IsReserved(k) {
				continue
			}

			seen[k] = struct{}{}
			names = append(names, k)
		}
	}

	add(s.local())

	for p := s.Parent(); p != nil; p = parentOf(p.local()) {
		add(p.local())
	}

	return names
}

// Flatten returns every name visible from s bound to the value a read from
// s would return, with nested containers converted by [Native].
func (s *Scope) Flatten() map[string]any {
	names := s.Visible()
	flat := make(map[string]any, len(names))

	for _, name := range names {
		v, _ := s.Lookup(name)
		flat[name] = Native(v)
	}

	return flat
}

// Equal reports whether s and other hold the same keys bound to equal
// values. Key order is not compared.
func (s *Scope) Equal(other Container) bool { return Equal(s, other) }
