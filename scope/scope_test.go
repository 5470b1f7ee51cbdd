package scope

import (
	"errors"
	"maps"
	"slices"
	"testing"
)

// newChain returns root{b:10, foo:{bar:baz}} and its child{a:10}.
func newChain() (root, child *Scope) {
	root = NewScope(KV("b", 10), KV("foo", New(KV("bar", "baz"))))
	child = NewScope(KV("a", 10), KV(ParentKey, root))

	return root, child
}

func TestScope_Get_ResolvesThroughChain(t *testing.T) {
	root, child := newChain()

	tests := []struct {
		name    string
		key     string
		want    any
		wantErr error
	}{
		{name: "local", key: "a", want: 10},
		{name: "inherited", key: "b", want: 10},
		{name: "nested not flattened", key: "bar", wantErr: ErrKeyNotFound},
		{name: "parent link is local", key: ParentKey, want: root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := child.Get(tt.key)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v (%v)", tt.wantErr, err, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("Get(%q): %v", tt.key, err)
			}

			if got != tt.want {
				t.Errorf("Get(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestScope_Get_SharesInheritedContainers(t *testing.T) {
	root, child := newChain()

	got, err := child.Get("foo")
	if err != nil {
		t.Fatalf("Get(foo): %v", err)
	}

	want, _ := root.Get("foo")
	if got != want {
		t.Error("inherited container was copied")
	}

	if !Equal(got, New(KV("bar", "baz"))) {
		t.Errorf("Get(foo) = %v", got)
	}
}

func TestScope_ThreeLevelChain(t *testing.T) {
	a := NewScope(KV("x", 1), KV("keep", true))
	b := a.Child()
	c := b.Child()

	v, err := c.Get("x")
	if err != nil || v != 1 {
		t.Fatalf("Get(x) = %v, %v", v, err)
	}

	if err := a.Delete("x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := c.Get("x"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected not found after delete, got %v", err)
	}

	if c.Depth() != 2 {
		t.Errorf("Depth() = %d, want 2", c.Depth())
	}
}

func TestScope_NoParent_NotFound(t *testing.T) {
	s := NewScope(KV("a", 1))

	if _, err := s.Get("b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if s.Parent() != nil || s.Depth() != 0 {
		t.Error("expected root scope")
	}
}

func TestScope_ChainStopsAtInvalidLink(t *testing.T) {
	tests := []struct {
		name string
		link any
	}{
		{name: "scalar", link: 5},
		{name: "nil", link: nil},
		{name: "empty map", link: New()},
		{name: "empty scope", link: NewScope()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScope(KV(ParentKey, tt.link))

			if _, err := s.Get("b"); !errors.Is(err, ErrKeyNotFound) {
				t.Errorf("expected ErrKeyNotFound, got %v", err)
			}
		})
	}
}

func TestScope_ChainThroughPlainMap(t *testing.T) {
	s := NewScope(KV(ParentKey, New(KV("b", 2))))

	if v, err := s.Get("b"); err != nil || v != 2 {
		t.Errorf("Get(b) = %v, %v", v, err)
	}
}

func TestScope_ReservedNames_NeverInherited(t *testing.T) {
	root := NewScope(KV("__meta__", "root"), KV("__", 1))
	child := root.Child()

	for _, name := range []string{"__meta__", "__"} {
		if _, err := child.Get(name); !errors.Is(err, ErrKeyNotFound) {
			t.Errorf("Get(%q): expected not found, got %v", name, err)
		}
	}

	grand := child.Child()

	v, err := grand.Get(ParentKey)
	if err != nil || v != child {
		t.Errorf("Get(_) should return the local link, got %v, %v", v, err)
	}
}

func TestIsReserved(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"_", true},
		{"__init__", true},
		{"__", true},
		{"__x", false},
		{"x__", false},
		{"_x_", false},
		{"a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReserved(tt.name); got != tt.want {
				t.Errorf("IsReserved(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestScope_Writes_AreLocal(t *testing.T) {
	root, child := newChain()

	child.Set("b", 99)

	if v, _ := root.Get("b"); v != 10 {
		t.Errorf("root b = %v, want 10", v)
	}

	if v, _ := child.Get("b"); v != 99 {
		t.Errorf("child b = %v, want 99", v)
	}

	if err := child.Delete("b"); err != nil {
		t.Fatalf("Delete(b): %v", err)
	}

	if v, _ := child.Get("b"); v != 10 {
		t.Errorf("child b after delete = %v, want inherited 10", v)
	}

	if err := child.Delete("b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("deleting an inherited name: expected not found, got %v", err)
	}

	if !root.Has("b") {
		t.Error("root lost b")
	}
}

func TestScope_Attr(t *testing.T) {
	_, child := newChain()

	if v, err := child.Attr("b"); err != nil || v != 10 {
		t.Errorf("Attr(b) = %v, %v", v, err)
	}

	if !child.HasAttr("b") || child.Has("b") {
		t.Error("HasAttr follows the chain while Has stays local")
	}

	_, err := child.Attr("missing")
	if !errors.Is(err, ErrAttributeNotFound) || errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrAttributeNotFound only, got %v", err)
	}

	if err := child.DelAttr("b"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("DelAttr of inherited name: expected not found, got %v", err)
	}
}

func TestScope_Resolve_ReportsOwner(t *testing.T) {
	root, child := newChain()

	_, owner, err := child.Resolve("b")
	if err != nil {
		t.Fatalf("Resolve(b): %v", err)
	}

	if owner != Container(root) {
		t.Errorf("owner = %v, want root", owner)
	}

	_, owner, _ = child.Resolve("a")
	if owner != Container(child) {
		t.Errorf("owner = %v, want child", owner)
	}

	if _, _, err := child.Resolve("zzz"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestScope_Visible_NearestFirst(t *testing.T) {
	root := NewScope(KV("x", 1), KV("y", 2), KV("__hidden__", 0))
	child := root.Child(KV("z", 3), KV("x", 4))

	want := []string{"z", "x", "y"}
	if got := child.Visible(); !slices.Equal(got, want) {
		t.Errorf("Visible() = %v, want %v", got, want)
	}

	flat := child.Flatten()
	wantFlat := map[string]any{"z": 3, "x": 4, "y": 2}

	if !maps.Equal(flat, wantFlat) {
		t.Errorf("Flatten() = %v, want %v", flat, wantFlat)
	}
}

func TestScope_Child_LinksParentFirst(t *testing.T) {
	root := NewScope(KV("a", 1))
	child := root.Child(KV("b", 2))

	if want := []string{ParentKey, "b"}; !slices.Equal(child.Keys(), want) {
		t.Errorf("Keys() = %v, want %v", child.Keys(), want)
	}

	if child.Parent() != Container(root) {
		t.Error("Parent() should return root")
	}
}

func TestScope_String_Empty(t *testing.T) {
	if got := NewScope().String(); got != "Scope()" {
		t.Errorf("String() = %q, want %q", got, "Scope()")
	}
}

func TestChain(t *testing.T) {
	a := NewScope(KV("x", 1))
	b := NewScope(KV("y", 2), KV(ParentKey, "ignored"))
	c := NewScope(KV("z", 3))

	last := Chain(a, nil, b, c)
	if last != c {
		t.Fatal("Chain should return the last scope")
	}

	for name, want := range map[string]any{"x": 1, "y": 2, "z": 3} {
		if v, err := last.Get(name); err != nil || v != want {
			t.Errorf("Get(%q) = %v, %v", name, v, err)
		}
	}

	if Chain() != nil {
		t.Error("Chain() should return nil")
	}
}

func TestAsScope(t *testing.T) {
	s := NewScope(KV("a", 1))
	if AsScope(s) != s {
		t.Error("AsScope(*Scope) should return its argument")
	}

	m := New(KV("b", 2), KV("a", 1))
	got := AsScope(m)

	if keys := got.Keys(); len(keys) != 2 || keys[0] != "b" || keys[1] != "a" {
		t.Errorf("Keys() = %v, want [b a]", keys)
	}

	got.Set("c", 3)

	if m.Has("c") {
		t.Error("writes to the converted scope should not reach the map")
	}

	var nilScope *Scope
	for name, c := range map[string]Container{"nil": nil, "nil scope": nilScope} {
		if got := AsScope(c); got == nil || got.Len() != 0 || got.Parent() != nil {
			t.Errorf("AsScope(%s) = %v, want an empty root scope", name, got)
		}
	}
}
