package eval

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/zeebo/xxh3"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// programs caches compiled programs by the hash of their source and the
// shape of the environment they were compiled against.
//
//nolint:gochecknoglobals
var programs sync.Map

type config struct {
	logger     log.Logger
	processEnv []string
	builtins   bool
}

// Option configures [Eval], [Compile], and [Env].
type Option func(config) config

func makeConfig(opts ...Option) config {
	c := config{processEnv: os.Environ(), builtins: true}
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// WithLogger returns an option that reports compilation and evaluation
// progress to logger.
func WithLogger(logger log.Logger) Option {
	return func(c config) config {
		c.logger = logger

		return c
	}
}

// WithProcessEnv returns an option that replaces the process environment
// visible through the env() built-in with the given "KEY=VALUE" entries.
func WithProcessEnv(environ ...string) Option {
	return func(c config) config {
		c.processEnv = environ

		return c
	}
}

// WithBuiltins returns an option that controls whether the built-in
// environment is visible to expressions. The env() function is available
// either way unless a visible name shadows it.
func WithBuiltins(enable bool) Option {
	return func(c config) config {
		c.builtins = enable

		return c
	}
}

// Env returns the environment an expression evaluated in s would see:
// every name visible from s, with nested containers converted to plain
// maps, layered over the built-in environment.
func Env(s *scope.Scope, opts ...Option) map[string]any {
	return makeConfig(opts...).env(s)
}

func (c config) env(s *scope.Scope) map[string]any {
	env := make(map[string]any)

	if c.builtins {
		env = Builtins()
	}

	env[ProcessEnvName] = envFunc(processEnvMap(c.processEnv))

	if s != nil {
		for k, v := range s.Flatten() {
			env[k] = v
		}
	}

	return env
}

// Compile compiles src against the environment of s. Compiled programs are
// cached and shared between calls whose environments have the same names
// bound to values of the same types.
func Compile(
	ctx context.Context,
	s *scope.Scope,
	src string,
	opts ...Option,
) (*vm.Program, error) {
	c := makeConfig(opts...)

	return c.compile(ctx, src, c.env(s))
}

func (c config) compile(
	ctx context.Context,
	src string,
	env map[string]any,
) (*vm.Program, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrCompile.With(slog.String("issue", "empty expression"))
	}

	key := cacheKey(src, env)

	if cached, ok := programs.Load(key); ok {
		c.logger.TraceContext(ctx, "cache hit",
			slog.String("key", strconv.FormatUint(key, 36)))

		if program, ok := cached.(*vm.Program); ok {
			return program, nil
		}
	}

	program, err := expr.Compile(
		src,
		expr.Env(env),
		expr.Patch(&hyphenPatcher{env: env, logger: c.logger}),
	)
	if err != nil {
		return nil, ErrCompile.Wrap(err).With(slog.String("source", src))
	}

	programs.Store(key, program)

	c.logger.TraceContext(ctx, "compiled expression",
		slog.String("source", src),
		slog.String("key", strconv.FormatUint(key, 36)),
	)

	return program, nil
}

// Eval evaluates the expression src with every name visible from s in
// scope. A name bound in s or one of its ancestors shadows a built-in of
// the same name.
func Eval(
	ctx context.Context,
	s *scope.Scope,
	src string,
	opts ...Option,
) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrEvaluate.Wrap(err)
	}

	c := makeConfig(opts...)
	env := c.env(s)

	program, err := c.compile(ctx, src, env)
	if err != nil {
		return nil, err
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrEvaluate.Wrap(err).With(slog.String("source", src))
	}

	c.logger.DebugContext(ctx, "evaluated expression",
		slog.String("source", src),
		slog.String("type", resultTypeName(result)),
	)

	return result, nil
}

// ClearCache removes all cached programs.
func ClearCache() {
	programs.Clear()
}

// cacheKey hashes src together with the shape of env: its sorted names,
// the dynamic type of each bound value, and the names of nested mappings,
// which decide how hyphenated names are patched.
func cacheKey(src string, env map[string]any) uint64 {
	h := xxh3.New()
	_, _ = h.Write([]byte(src))

	writeShape(h, env)

	return h.Sum64()
}

func writeShape(h *xxh3.Hasher, m map[string]any) {
	_, _ = h.Write([]byte{'{'})

	for _, name := range slices.Sorted(maps.Keys(m)) {
		_, _ = h.Write([]byte(name))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(fmt.Sprintf("%T", m[name])))
		_, _ = h.Write([]byte{0})

		if nested, ok := m[name].(map[string]any); ok {
			writeShape(h, nested)
		}
	}

	_, _ = h.Write([]byte{'}'})
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return fmt.Sprintf("%T", value)
}
