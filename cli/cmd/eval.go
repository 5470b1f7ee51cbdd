package cmd

import (
	"context"
	"log/slog"
	"strings"

	"github.com/ardnew/scopemap/eval"
	"github.com/ardnew/scopemap/log"
)

// Eval evaluates an expression with every name visible from the innermost
// source in scope.
type Eval struct {
	Format   string `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent   int    `default:"2" help:"Indent width for formatted output" short:"i"`
	Builtins bool   `default:"true" help:"Expose the built-in environment to expressions." negatable:""`

	Expr []string `arg:"" help:"Expression to evaluate; arguments are joined with spaces." name:"expr"`
}

// Run executes the eval command.
func (e *Eval) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	s, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	src := strings.Join(e.Expr, " ")

	result, err := eval.Eval(ctx, s, src,
		eval.WithLogger(log.Default()),
		eval.WithBuiltins(e.Builtins),
	)
	if err != nil {
		return WrapError(err).With(slog.String("command", "eval"))
	}

	return write(ctx, result, e.Format, e.Indent)
}
