package eval

// This file defines the built-in environment available to every
// expression. The built-ins are computed once per process and cloned on
// every access, so callers may rebind its top-level names freely.
//
// Names visible from the evaluated scope shadow built-ins of the same name.

import (
	"bufio"
	"errors"
	"io/fs"
	"maps"
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"github.com/ardnew/mung"
)

// ProcessEnvName is the name of the built-in function returning the value
// of a process environment variable.
const ProcessEnvName = "env"

//nolint:gochecknoglobals
var builtins = sync.OnceValue(func() map[string]any {
	return map[string]any{
		// System information.
		"target":   getTarget(),
		"platform": getPlatform(),
		"hostname": getHostname(),
		"user":     getUser(),
		"shell":    getShell(),

		// Working directory.
		"cwd": getCwd,

		// Filesystem functions.
		"file": map[string]any{
			"exists":    fileExists,
			"isDir":     fileIsDir,
			"isRegular": fileIsRegular,
			"isSymlink": fileIsSymlink,
		},

		// Path manipulation functions.
		"path": map[string]any{
			"abs": pathAbs,
			"cat": pathCat,
			"rel": pathRel,
		},

		// PATH-like string manipulation.
		"mung": map[string]any{
			"prefix":   mungPrefix,
			"prefixif": mungPrefixIf,
		},
	}
})

// Builtins returns a copy of the built-in environment.
func Builtins() map[string]any {
	return maps.Clone(builtins())
}

// BuiltinNames returns the sorted top-level names of the built-in
// environment, including [ProcessEnvName].
func BuiltinNames() []string {
	return slices.Sorted(func(yield func(string) bool) {
		for k := range builtins() {
			if !yield(k) {
				return
			}
		}

		yield(ProcessEnvName)
	})
}

// BuiltinLookup returns the sorted member names of the built-in namespace at
// the dot-separated path, or nil if path does not name a namespace. The
// empty path returns [BuiltinNames], and [ProcessEnvName] returns the names
// of the process environment variables.
func BuiltinLookup(path string) []string {
	if path == "" {
		return BuiltinNames()
	}

	if path == ProcessEnvName {
		return slices.Sorted(maps.Keys(processEnvMap(nil)))
	}

	var current any = builtins()

	for seg := range strings.SplitSeq(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		if current, ok = m[seg]; !ok {
			return nil
		}
	}

	if m, ok := current.(map[string]any); ok {
		return slices.Sorted(maps.Keys(m))
	}

	return nil
}

// target names an operating system and instruction set architecture.
type target struct {
	OS   string
	Arch string
}

// gnuArch maps Go architecture names to their GNU toolchain spelling.
//
//nolint:gochecknoglobals
var gnuArch = map[string]string{
	"386":    "i386",
	"amd64":  "x86_64",
	"arm64":  "aarch64",
	"mipsle": "mipsel",
}

// getPlatform reports the host using Go names, honoring GOHOSTOS and
// GOHOSTARCH.
func getPlatform() target {
	return target{
		OS:   envOr("GOHOSTOS", runtime.GOOS),
		Arch: envOr("GOHOSTARCH", runtime.GOARCH),
	}
}

// getTarget reports the host using GNU triple names. Darwin keeps "arm64",
// and 32-bit ARM is refined by the first GOARM setting.
func getTarget() target {
	t := getPlatform()

	switch {
	case t.Arch == "arm64" && t.OS == "darwin":
	case t.Arch == "arm":
		v, _, _ := strings.Cut(os.Getenv("GOARM"), ",")
		switch v = strings.TrimSpace(v); v {
		case "5", "6", "7":
			t.Arch = "armv" + v
		}
	default:
		if gnu, ok := gnuArch[t.Arch]; ok {
			t.Arch = gnu
		}
	}

	return t
}

func envOr(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}

	return fallback
}

func getHostname() string {
	name, _ := os.Hostname()

	return name
}

func getUser() *user.User {
	if u, err := user.Current(); err == nil {
		return u
	}

	return nil
}

// getShell returns $SHELL, or the login shell recorded for the current user
// in /etc/passwd.
func getShell() string {
	if shell, ok := os.LookupEnv("SHELL"); ok {
		return shell
	}

	u := getUser()
	if u == nil || u.Username == "" {
		return ""
	}

	f, err := os.Open("/etc/passwd")
	if err != nil {
		return ""
	}
	defer f.Close()

	for s := bufio.NewScanner(f); s.Scan(); {
		if fields := strings.Split(s.Text(), ":"); len(fields) == 7 &&
			fields[0] == u.Username {
			return fields[6]
		}
	}

	return ""
}

func getCwd() string {
	if cwd, err := os.Getwd(); err == nil {
		return cwd
	}

	return pathAbs(".")
}

// fileTest returns a predicate over the file info of a path. Lstat is used
// when follow is false. A path that cannot be examined fails every test.
func fileTest(follow bool, test func(fs.FileInfo) bool) func(string) bool {
	stat := os.Lstat
	if follow {
		stat = os.Stat
	}

	return func(path string) bool {
		info, err := stat(path)

		return err == nil && test(info)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)

	return !errors.Is(err, fs.ErrNotExist)
}

//nolint:gochecknoglobals
var (
	fileIsDir     = fileTest(true, fs.FileInfo.IsDir)
	fileIsRegular = fileTest(true, func(i fs.FileInfo) bool { return i.Mode().IsRegular() })
	fileIsSymlink = fileTest(false, func(i fs.FileInfo) bool { return i.Mode()&fs.ModeSymlink != 0 })
)

func pathAbs(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}

	return path
}

func pathCat(elem ...string) string { return filepath.Join(elem...) }

// pathRel returns to relative to from, both made absolute first. If no
// relative path exists, the two are joined.
func pathRel(from, to string) string {
	if rel, err := filepath.Rel(pathAbs(from), pathAbs(to)); err == nil {
		return rel
	}

	return pathCat(from, to)
}

// mungPrefix prepends prefix to the PATH-like list key.
func mungPrefix(key string, prefix ...string) string {
	return mungPrefixIf(key, func(string) bool { return true }, prefix...)
}

// mungPrefixIf is [mungPrefix] keeping only the elements keep accepts.
func mungPrefixIf(key string, keep func(string) bool, prefix ...string) string {
	return mung.Make(
		mung.WithSubjectItems(key),
		mung.WithDelim(string(os.PathListSeparator)),
		mung.WithPrefixItems(prefix...),
		mung.WithFilter(keep),
	).String()
}

// processEnvMap indexes "KEY=VALUE" entries by key, reading the process
// environment when environ is empty. Later entries win.
func processEnvMap(environ []string) map[string]string {
	if len(environ) == 0 {
		environ = os.Environ()
	}

	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	return vars
}

// envFunc returns the built-in env() function over processEnv.
func envFunc(processEnv map[string]string) func(string) string {
	return func(key string) string {
		return processEnv[key]
	}
}
