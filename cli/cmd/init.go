package cmd

import (
	"context"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// defaultConfigIndent is the number of spaces to use for indentation
// when generating the default configuration file.
const defaultConfigIndent = 2

// ignoredFlagPrefixes name flags that are never written to a configuration
// file.
//
//nolint:gochecknoglobals
var ignoredFlagPrefixes = []string{"help", "pprof", "source", "version"}

// Init generates a default configuration file with current flag values.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	file, err := os.Create(confPath)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}
	defer file.Close()

	doc := scope.New(scope.KV(ConfigIdentifier, i.buildConfig(ktx)))

	err = scope.Encode(ctx, file, doc, scope.FormatYAML,
		scope.WithIndent(defaultConfigIndent),
		scope.WithLogger(log.Default()),
	)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// buildConfig returns a Map binding each configurable flag to its current
// value, in model order.
func (i *Init) buildConfig(ktx *kong.Context) *scope.Map {
	m := scope.New()

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden || ignoredFlag(flag.Name) {
			continue
		}

		if val, ok := configValue(ktx.FlagValue(flag)); ok {
			m.Set(flag.Name, val)
		}
	}

	return m
}

func ignoredFlag(name string) bool {
	for _, prefix := range ignoredFlagPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}

	return false
}

// configValue converts a flag value to a value the YAML encoder writes
// naturally. Empty strings and empty slices are reported as unset.
func configValue(val any) (any, bool) {
	switch v := val.(type) {
	case nil:
		return nil, false

	case string:
		return v, v != ""

	case bool, int, int64, uint, uint64, float64:
		return v, true
	}

	rv := reflect.ValueOf(val)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return nil, false
		}

		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = rv.Index(i).Interface()
		}

		return out, true

	case reflect.String:
		return rv.String(), rv.Len() > 0

	default:
		return val, true
	}
}
