package cli

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	"github.com/ardnew/scopemap/pkg"
)

// baseConfig is the base name of the configuration file and of the section
// within it that holds flag values.
const baseConfig = "config"

//nolint:gochecknoglobals
var defaultDirMode os.FileMode = 0o700

//nolint:gochecknoglobals
var (
	debugBinPattern  = regexp.MustCompile(`^__debug_bin\d+$`)
	leadingDotPattern = regexp.MustCompile(`^\.+`)
)

// basePrefix returns the name used for the per-user configuration and
// cache directories and, upper-cased, as the prefix of environment
// variables that override them.
//
// It is the base name of the executable without extension or leading
// dots. The dlv debugger's default output name maps to [pkg.Name].
//
//nolint:gochecknoglobals
var basePrefix = sync.OnceValue(func() string {
	return exeBase(os.Args[0])
})

func exeBase(arg0 string) string {
	if exe, err := os.Executable(); err == nil {
		arg0 = exe
	}

	base := filepath.Base(arg0)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	if debugBinPattern.MatchString(base) {
		return pkg.Name
	}

	return leadingDotPattern.ReplaceAllString(base, "")
}

// envName returns the environment variable overriding the directory of the
// given kind, such as SCOPEMAP_CONFIG_DIR.
func envName(kind string) string {
	name := strings.ToUpper(basePrefix() + "_" + kind + "_DIR")

	return strings.Map(func(r rune) rune {
		if r == '-' || r == '.' {
			return '_'
		}

		return r
	}, name)
}

// userDir returns the directory of the given kind. The environment
// variable [envName] wins; otherwise the directory is named [basePrefix]
// under the location reported by system, falling back to home/dotDir and
// then the working directory.
func userDir(kind string, system func() (string, error), dotDir string) string {
	if dir, ok := os.LookupEnv(envName(kind)); ok && dir != "" {
		return dir
	}

	dir, err := system()
	if err != nil {
		if home, herr := os.UserHomeDir(); herr == nil {
			dir = filepath.Join(home, dotDir)
		} else if dir, err = os.Getwd(); err != nil {
			dir = "."
		}
	}

	return filepath.Join(dir, basePrefix())
}

//nolint:gochecknoglobals
var (
	configDir = sync.OnceValue(func() string {
		return userDir("config", os.UserConfigDir, ".config")
	})

	cacheDir = sync.OnceValue(func() string {
		return userDir("cache", os.UserCacheDir, ".cache")
	})
)

// configPath joins the configuration directory with elem.
func configPath(elem ...string) string {
	return filepath.Join(append([]string{configDir()}, elem...)...)
}

// mkdirAllRequired creates the configuration and cache directories.
func mkdirAllRequired() error {
	for _, dir := range []string{configDir(), cacheDir()} {
		if err := os.MkdirAll(dir, defaultDirMode); err != nil {
			return err
		}
	}

	return nil
}
