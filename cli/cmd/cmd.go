package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

type (
	sourceFilesKey struct{}

	// SourceFiles is the ordered, deduplicated list of source documents
	// given on the command line.
	SourceFiles interface {
		IsZero() bool
		Paths() []string
		Scope(ctx context.Context) (*scope.Scope, error)
	}

	sourceFiles struct {
		paths    []string
		hasStdin bool
	}
)

// IsZero reports whether there are no source files.
func (s *sourceFiles) IsZero() bool { return len(s.paths) == 0 && !s.hasStdin }

// Paths returns the source paths in load order. Stdin, if included, is
// reported as "-" and always comes last.
func (s *sourceFiles) Paths() []string {
	paths := append([]string(nil), s.paths...)
	if s.hasStdin {
		paths = append(paths, stdinSource)
	}

	return paths
}

// Scope loads every source into its own scope and chains them, so that each
// source is the parent of the one after it. The innermost scope is
// returned.
func (s *sourceFiles) Scope(ctx context.Context) (*scope.Scope, error) {
	paths := s.Paths()
	chain := make([]*scope.Scope, 0, len(paths))

	for _, path := range paths {
		sc, err := scope.Load(ctx, path, scope.WithLogger(log.Default()))
		if err != nil {
			return nil, err
		}

		chain = append(chain, sc)
	}

	return scope.Chain(chain...), nil
}

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks, absolute/relative paths, and
// special device files.
type fileKey struct {
	dev uint64
	ino uint64
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// WithSourceFiles returns a new context.Context containing the
// [SourceFiles] named by sources.
//
// The function deduplicates sources by resolving symlinks and comparing
// device/inode pairs; the first occurrence of a file keeps its position.
// All occurrences of "-" are replaced with a single stdin source placed last.
func WithSourceFiles(ctx context.Context, sources []string) context.Context {
	return context.WithValue(ctx, sourceFilesKey{},
		buildSourceFiles(ctx, sources))
}

func buildSourceFiles(ctx context.Context, sources []string) SourceFiles {
	if len(sources) == 0 {
		return nil
	}

	var srcs sourceFiles

	srcs.paths = make([]string, 0, len(sources))
	seen := make(map[fileKey]struct{})

	var (
		stdinKey    fileKey
		hasStdinKey bool
	)

	if info, err := os.Stdin.Stat(); err == nil {
		stdinKey, hasStdinKey = makeFileKey(info)
	}

	for _, src := range sources {
		if src == stdinSource {
			srcs.hasStdin = true

			continue
		}

		path, key, ok := resolveSource(src)
		if !ok {
			log.WarnContext(ctx, "skipping unreadable source",
				slog.String("path", src))

			continue
		}

		// Stdin may also be named by a device path; it is read once, last.
		if hasStdinKey && key == stdinKey {
			srcs.hasStdin = true

			continue
		}

		if _, exists := seen[key]; exists {
			continue
		}

		seen[key] = struct{}{}
		srcs.paths = append(srcs.paths, path)
	}

	if srcs.IsZero() {
		return nil
	}

	return &srcs
}

// resolveSource resolves path to an absolute, symlink-free path and the
// device/inode pair identifying the file it names.
func resolveSource(path string) (string, fileKey, bool) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fileKey{}, false
	}

	resolved, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		return "", fileKey{}, false
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", fileKey{}, false
	}

	key, ok := makeFileKey(info)
	if !ok {
		return "", fileKey{}, false
	}

	return resolved, key, true
}

// makeFileKey creates a fileKey from os.FileInfo.
// Returns false if the underlying Sys() data is not of type *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true //nolint:unconvert
}

// sourceFilesFrom retrieves the SourceFiles stored in ctx by WithSourceFiles.
// Returns nil if none were stored.
func sourceFilesFrom(ctx context.Context) SourceFiles {
	r, _ := ctx.Value(sourceFilesKey{}).(SourceFiles)

	return r
}

// scopeFrom loads the scope chain built from the source files in ctx.
func scopeFrom(ctx context.Context) (*scope.Scope, error) {
	src := sourceFilesFrom(ctx)
	if src == nil || src.IsZero() {
		return nil, ErrNoSource
	}

	return src.Scope(ctx)
}

// suggest attaches the names visible from s that best match name to a
// not-found error. Other errors are returned unchanged.
func suggest(err error, s *scope.Scope, name string) error {
	if !errors.Is(err, scope.ErrKeyNotFound) &&
		!errors.Is(err, scope.ErrAttributeNotFound) {
		return err
	}

	matches := fuzzy.Find(name, s.Visible())
	if len(matches) == 0 {
		return err
	}

	const maxSuggestions = 3

	names := make([]string, 0, maxSuggestions)
	for _, m := range matches[:min(len(matches), maxSuggestions)] {
		names = append(names, m.Str)
	}

	return WrapError(err).With(slog.Any("did_you_mean", names))
}
