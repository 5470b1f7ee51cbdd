package log_test

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

func Example_basic() {
	logger := log.Make(os.Stderr)
	logger.Info("loaded sources", slog.Int("count", 2))
}

func Example_levels() {
	logger := log.Make(os.Stderr, log.WithLevel(log.ParseLevel("warn")))

	logger.Trace("walking parent chain")
	logger.Info("resolved name", slog.String("name", "level"))
	logger.Warn("skipping unreadable source", slog.String("path", "missing.yaml"))
}

func Example_textFormat() {
	logger := log.Make(os.Stderr,
		log.WithFormat(log.FormatText),
		log.WithTimeLayout(""),
		log.WithPretty(false),
	)

	logger.Info("text format message", slog.String("source", "base.yaml"))
}

// A container implements slog.LogValuer, so it is logged as a group in key
// order.
func Example_container() {
	logger := log.Make(os.Stderr, log.WithFormat(log.FormatJSON))

	m := scope.New(scope.KV("name", "base"), scope.KV("level", 1))
	logger.Debug("decoded", slog.Any("scope", m))
}

// Loader options accept a Logger; the zero Logger discards.
func Example_loader() {
	logger := log.Make(os.Stderr, log.WithLevel(log.LevelDebug), log.WithCaller(true))

	_, _ = scope.Decode(
		context.Background(),
		strings.NewReader("name: base\n"),
		scope.FormatYAML,
		scope.WithLogger(logger),
	)
}

func Example_withAttributes() {
	logger := log.Make(os.Stderr).With(slog.String("command", "eval"))

	logger.Info("evaluating expression")
	logger.Debug("expression details", slog.String("source", "level + 1"))
}
