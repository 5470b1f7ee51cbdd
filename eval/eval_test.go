package eval

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/ardnew/scopemap/scope"
)

func testScope() *scope.Scope {
	root := scope.NewScope(
		scope.KV("base", 10),
		scope.KV("name", "root"),
		scope.KV("log-level", "info"),
		scope.KV("max-jobs", 4),
		scope.KV("x-y-z", 7),
		scope.KV("log-cfg", scope.New(scope.KV("level", "warn"))),
		scope.KV("cfg", scope.New(
			scope.KV("max-depth", 3),
			scope.KV("tags", []any{"a", "b"}),
		)),
	)

	return root.Child(scope.KV("name", "child"), scope.KV("n", 2))
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want any
	}{
		{name: "local", src: "n", want: 2},
		{name: "inherited", src: "base + n", want: 12},
		{name: "shadowed", src: "name", want: "child"},
		{name: "nested member", src: "cfg.tags[1]", want: "b"},
		{name: "hyphenated identifier", src: "log-level", want: "info"},
		{name: "hyphenated member", src: "cfg.max-depth", want: 3},
		{name: "hyphenated member in product", src: "cfg.max-depth * 2", want: 6},
		{name: "hyphenated right operand", src: "2 * max-jobs", want: 8},
		{name: "hyphenated both operands", src: "max-jobs * cfg.max-depth", want: 12},
		{name: "hyphenated then subtraction", src: "2 * max-jobs - n", want: 6},
		{name: "three words in product", src: "x-y-z * 2", want: 14},
		{name: "three words right operand", src: "2 * x-y-z", want: 14},
		{name: "hyphenated power", src: "max-jobs ** 2", want: 16.0},
		{name: "hyphenated with member", src: "log-cfg.level", want: "warn"},
		{name: "parenthesized", src: "(cfg.max-depth) * 2", want: 6},
		{name: "subtraction in product", src: "base - n * 2", want: 6},
		{name: "subtraction", src: "base - n", want: 8},
		{name: "builtin namespace", src: `path.cat("a", "b")`, want: filepath.Join("a", "b")},
		{name: "process env", src: `env("SCOPEMAP_TEST")`, want: "yes"},
		{name: "missing process env", src: `env("SCOPEMAP_UNSET")`, want: ""},
		{name: "membership", src: `"a" in cfg.tags`, want: true},
	}

	s := testScope()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Eval(
				context.Background(),
				s,
				tt.src,
				WithProcessEnv("SCOPEMAP_TEST=yes"),
			)
			if err != nil {
				t.Fatalf("Eval(%q): %v", tt.src, err)
			}

			if got != tt.want {
				t.Errorf("Eval(%q) = %v (%T), want %v (%T)",
					tt.src, got, got, tt.want, tt.want)
			}
		})
	}
}

func TestEval_ScopeShadowsBuiltins(t *testing.T) {
	s := scope.NewScope(scope.KV("hostname", "override"))

	got, err := Eval(context.Background(), s, "hostname")
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}

	if got != "override" {
		t.Errorf("hostname = %v, want override", got)
	}
}

func TestEval_WithoutBuiltins(t *testing.T) {
	_, err := Eval(
		context.Background(),
		scope.NewScope(),
		"hostname",
		WithBuiltins(false),
	)
	if !errors.Is(err, ErrCompile) {
		t.Errorf("expected ErrCompile, got %v", err)
	}
}

func TestEval_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{name: "empty", src: "  ", want: ErrCompile},
		{name: "syntax", src: "n +", want: ErrCompile},
		{name: "unknown name", src: "missing", want: ErrCompile},
		{name: "runtime", src: "cfg.tags[5]", want: ErrEvaluate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Eval(context.Background(), testScope(), tt.src)
			if !errors.Is(err, tt.want) {
				t.Errorf("Eval(%q) error = %v, want %v", tt.src, err, tt.want)
			}
		})
	}
}

func TestEval_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Eval(ctx, testScope(), "n")
	if !errors.Is(err, ErrEvaluate) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected canceled evaluation, got %v", err)
	}
}

func TestCompile_CachesByShape(t *testing.T) {
	ClearCache()

	a := scope.NewScope(scope.KV("x", 1))
	b := scope.NewScope(scope.KV("x", 2))
	c := scope.NewScope(scope.KV("x", "s"))

	pa, err := Compile(context.Background(), a, "x")
	if err != nil {
		t.Fatal(err)
	}

	pb, err := Compile(context.Background(), b, "x")
	if err != nil {
		t.Fatal(err)
	}

	pc, err := Compile(context.Background(), c, "x")
	if err != nil {
		t.Fatal(err)
	}

	if pa != pb {
		t.Error("same shape should share a compiled program")
	}

	if pa == pc {
		t.Error("different value types should not share a compiled program")
	}
}

func TestCacheKey_NestedNames(t *testing.T) {
	a := map[string]any{"m": map[string]any{"a-b": 1}}
	b := map[string]any{"m": map[string]any{"a": 1}}

	if cacheKey("m.a-b", a) == cacheKey("m.a-b", b) {
		t.Error("nested names should change the cache key")
	}
}

func TestBuiltinLookup(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{path: "file", want: []string{"exists", "isDir", "isRegular", "isSymlink"}},
		{path: "path", want: []string{"abs", "cat", "rel"}},
		{path: "mung", want: []string{"prefix", "prefixif"}},
		{path: "hostname", want: nil},
		{path: "nope.deeper", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := BuiltinLookup(tt.path); !slices.Equal(got, tt.want) {
				t.Errorf("BuiltinLookup(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}

	top := BuiltinLookup("")
	for _, name := range []string{"cwd", "env", "file", "target"} {
		if !slices.Contains(top, name) {
			t.Errorf("top-level names %v missing %q", top, name)
		}
	}
}

func TestEnv_Flattened(t *testing.T) {
	env := Env(testScope(), WithBuiltins(false))

	if _, ok := env[scope.ParentKey]; ok {
		t.Error("parent link must not be bound")
	}

	cfg, ok := env["cfg"].(map[string]any)
	if !ok {
		t.Fatalf("cfg = %T, want map[string]any", env["cfg"])
	}

	if cfg["max-depth"] != 3 {
		t.Errorf("cfg.max-depth = %v", cfg["max-depth"])
	}

	if _, ok := env["hostname"]; ok {
		t.Error("built-ins disabled but hostname bound")
	}
}

func TestPathRel(t *testing.T) {
	dir := t.TempDir()

	got := pathRel(dir, filepath.Join(dir, "a", "b"))
	if want := filepath.Join("a", "b"); got != want {
		t.Errorf("pathRel = %q, want %q", got, want)
	}
}

func TestGetTarget(t *testing.T) {
	tests := []struct {
		os, arch, goarm string
		want            target
	}{
		{"linux", "amd64", "", target{"linux", "x86_64"}},
		{"linux", "arm64", "", target{"linux", "aarch64"}},
		{"darwin", "arm64", "", target{"darwin", "arm64"}},
		{"linux", "arm", "7,hardfloat", target{"linux", "armv7"}},
		{"linux", "arm", "8", target{"linux", "arm"}},
		{"linux", "riscv64", "", target{"linux", "riscv64"}},
	}

	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			t.Setenv("GOHOSTOS", tt.os)
			t.Setenv("GOHOSTARCH", tt.arch)
			t.Setenv("GOARM", tt.goarm)

			if got := getTarget(); got != tt.want {
				t.Errorf("getTarget() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFileTests(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	link := filepath.Join(dir, "l")

	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	if err := os.Symlink(file, link); err != nil {
		t.Skip("symlinks unsupported:", err)
	}

	tests := []struct {
		path                     string
		exists, dir, reg, symlnk bool
	}{
		{dir, true, true, false, false},
		{file, true, false, true, false},
		{link, true, false, true, true},
		{filepath.Join(dir, "missing"), false, false, false, false},
	}

	for _, tt := range tests {
		t.Run(filepath.Base(tt.path), func(t *testing.T) {
			got := []bool{
				fileExists(tt.path),
				fileIsDir(tt.path),
				fileIsRegular(tt.path),
				fileIsSymlink(tt.path),
			}
			want := []bool{tt.exists, tt.dir, tt.reg, tt.symlnk}

			if !slices.Equal(got, want) {
				t.Errorf("exists/dir/regular/symlink = %v, want %v", got, want)
			}
		})
	}
}
