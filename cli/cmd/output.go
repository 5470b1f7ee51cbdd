package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

type outputKey struct{}

// WithOutput returns a new context.Context directing command output to w.
// Commands write to os.Stdout when no output is stored.
func WithOutput(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, outputKey{}, w)
}

func outputFrom(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(outputKey{}).(io.Writer); ok && w != nil {
		return w
	}

	return os.Stdout
}

// write encodes v to the command output in the format named by format.
func write(ctx context.Context, v any, format string, indent int) error {
	f, err := scope.ParseFormat(format)
	if err != nil {
		return ErrUnknownFormat.Wrap(err).With(slog.String("format", format))
	}

	return scope.Encode(ctx, outputFrom(ctx), v, f,
		scope.WithIndent(indent),
		scope.WithLogger(log.Default()),
	)
}
