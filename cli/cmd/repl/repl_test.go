package repl

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

func testModel(t *testing.T) model {
	t.Helper()

	root := scope.NewScope(scope.KV("base", 10), scope.KV("name", "root"))
	child := root.Child(scope.KV("name", "child"))

	history := NewHistory(filepath.Join(t.TempDir(), baseHistory))

	return newModel(context.Background(), child, history, log.Logger{})
}

func TestSetName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		key     string
		want    any
		wantErr bool
	}{
		{"expression", "set total base + 5", "total", 15, false},
		{"string", `set greeting "hi " + name`, "greeting", "hi child", false},
		{"shadow_inherited", "set base 1", "base", 1, false},
		{"missing_expression", "set lonely", "lonely", nil, true},
		{"reserved", "set _ 1", scope.ParentKey, nil, true},
		{"bad_expression", "set broken (", "broken", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testModel(t)

			m, _ = m.setName(tt.input)

			if tt.wantErr {
				if tt.key != scope.ParentKey && m.scope.Has(tt.key) {
					t.Errorf("setName(%q) stored %q", tt.input, tt.key)
				}

				if m.scope.Parent() == nil {
					t.Errorf("setName(%q) lost the parent link", tt.input)
				}

				return
			}

			got, err := m.scope.Map.Get(tt.key)
			if err != nil {
				t.Fatalf("innermost scope missing %q: %v", tt.key, err)
			}

			if !scope.Equal(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestSetName_DoesNotWriteParent(t *testing.T) {
	m := testModel(t)

	m, _ = m.setName("set base 1")

	parent := m.scope.Parent()
	if v, _ := parent.Get("base"); !scope.Equal(v, 10) {
		t.Errorf("parent base = %v, want 10", v)
	}
}

func TestUnsetNames(t *testing.T) {
	m := testModel(t)
	m.scope.Set("extra", true)

	m, _ = m.unsetNames([]string{"extra", "base", "missing"})

	if m.scope.Has("extra") {
		t.Error("unset did not remove a local name")
	}

	// Inherited names are untouched and still visible.
	if v, ok := m.scope.Lookup("base"); !ok || !scope.Equal(v, 10) {
		t.Errorf("base = %v, %v; want 10, true", v, ok)
	}

	m, _ = m.unsetNames([]string{"name"})

	// Removing the local binding uncovers the inherited one.
	if v, _ := m.scope.Lookup("name"); v != "root" {
		t.Errorf("name = %v, want root", v)
	}
}

func TestListNames(t *testing.T) {
	m := testModel(t)

	out := m.listNames()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")

	if len(lines) != 2 {
		t.Fatalf("listNames() = %d lines, want 2:\n%s", len(lines), out)
	}

	if !strings.Contains(lines[0], "name") || strings.Contains(lines[0], "^") {
		t.Errorf("first line = %q, want local name", lines[0])
	}

	if !strings.Contains(lines[1], "base") || !strings.Contains(lines[1], "^") {
		t.Errorf("second line = %q, want inherited base", lines[1])
	}
}

func TestReparent(t *testing.T) {
	parent := scope.NewScope(scope.KV("x", 1))
	edited := scope.NewScope(
		scope.KV(scope.ParentKey, scope.New(scope.KV("y", 2))),
		scope.KV("z", 3),
	)

	got := reparent(edited, parent)

	if _, ok := got.Lookup("y"); ok {
		t.Error("edited parent link was kept")
	}

	if v, _ := got.Lookup("x"); !scope.Equal(v, 1) {
		t.Errorf("x = %v, want 1", v)
	}

	root := reparent(scope.NewScope(scope.KV("z", 3)), nil)
	if root.Parent() != nil || root.Has(scope.ParentKey) {
		t.Error("reparent(nil) left a parent link")
	}
}

func TestRun_NoScope(t *testing.T) {
	err := Run(context.Background(), nil)
	if !errors.Is(err, ErrNoScope) {
		t.Errorf("Run(nil) error = %v, want %v", err, ErrNoScope)
	}
}
