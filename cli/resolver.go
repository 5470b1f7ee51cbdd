package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// resolve returns a [kong.ConfigurationLoader] that decodes a YAML config
// file into a [scope.Scope] and resolves flag values from it.
//
// Top-level keys of the document apply to every command. If the document
// holds a mapping under section, that mapping is chained below the document
// so its keys override the top-level ones:
//
//	log-level: info
//	config:
//	  log_level: debug   # wins
//	  log-pretty: true
//
// Flag names are looked up with hyphens first and then with underscores.
// A document that fails to decode resolves nothing, so a broken config file
// never prevents the CLI from running.
func resolve(
	ctx context.Context,
	section string,
) func(r io.Reader) (kong.Resolver, error) {
	return func(r io.Reader) (kong.Resolver, error) {
		doc, err := scope.Decode(ctx, r, scope.FormatYAML,
			scope.WithLogger(log.Default()))
		if err != nil {
			log.WarnContext(ctx, "ignoring config", slog.Any("error", err))

			return resolver{}, nil
		}

		if v, ok := doc.Map.Lookup(section); ok {
			if c, ok := v.(scope.Container); ok {
				doc = scope.Chain(doc, scope.AsScope(c))
			}
		}

		return resolver{doc}, nil
	}
}

// resolver implements [kong.Resolver] over a scope chain.
type resolver struct{ *scope.Scope }

// Validate implements [kong.Resolver].
func (resolver) Validate(*kong.Application) error { return nil }

// Resolve implements [kong.Resolver].
func (r resolver) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if r.Scope == nil {
		return nil, nil //nolint:nilnil
	}

	for _, name := range []string{
		flag.Name,
		strings.ReplaceAll(flag.Name, "-", "_"),
	} {
		if value, ok := r.Lookup(name); ok {
			return flagValue(value), nil
		}
	}

	// Not found; let Kong use defaults.
	return nil, nil //nolint:nilnil
}

// flagValue converts a decoded value to a form Kong's mappers accept.
// Kong parses numbers from strings.
func flagValue(value any) any {
	switch v := scope.Native(value).(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return v
	}
}
