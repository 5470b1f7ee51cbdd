package cmd

import (
	"context"
	"slices"

	"github.com/ardnew/scopemap/cli/cmd/repl"
	"github.com/ardnew/scopemap/log"
)

// Repl evaluates expressions interactively in the innermost scope.
type Repl struct{}

// Run starts the REPL over the scope chain built from the source files.
func (r *Repl) Run(ctx context.Context) error {
	s, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	var cacheDir string
	if ktx := kongContextFrom(ctx); ktx != nil {
		cacheDir = ktx.Model.Vars()[CacheIdentifier]
	}

	// Stdin was read as a document, so keys must come from the terminal.
	fromStdin := slices.Contains(sourceFilesFrom(ctx).Paths(), stdinSource)

	return repl.Run(ctx, s,
		repl.WithCacheDir(cacheDir),
		repl.WithLogger(log.Default()),
		repl.WithInputTTY(fromStdin),
	)
}
