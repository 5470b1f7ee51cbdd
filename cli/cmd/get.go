package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// Get prints the value bound to a name as seen from the innermost source.
type Get struct {
	Attr   bool   `help:"Report a missing name as an unknown attribute instead of a missing key."`
	Owner  bool   `help:"Print the source that defines the name instead of its value."`
	Format string `default:"native" enum:"native,json,yaml" help:"Output format (${enum})." short:"o"`
	Indent int    `default:"2" help:"Indent width for formatted output" short:"i"`

	Name string `arg:"" help:"Name to look up." name:"name"`
}

// Run executes the get command.
func (g *Get) Run(ctx context.Context) error {
	s, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	lookup := s.Get
	if g.Attr {
		lookup = s.Attr
	}

	if _, err := lookup(g.Name); err != nil {
		return suggest(err, s, g.Name)
	}

	value, owner, err := s.Resolve(g.Name)
	if err != nil {
		return suggest(err, s, g.Name)
	}

	log.DebugContext(ctx, "resolved name",
		slog.String("name", g.Name),
		slog.Int("depth", depthOf(s, owner)),
	)

	if g.Owner {
		return g.writeOwner(ctx, s, owner)
	}

	return write(ctx, value, g.Format, g.Indent)
}

// writeOwner prints the path of the source whose scope is owner, or the
// owner itself if it was not loaded from a source.
func (g *Get) writeOwner(
	ctx context.Context,
	s *scope.Scope,
	owner scope.Container,
) error {
	var paths []string
	if src := sourceFilesFrom(ctx); src != nil {
		paths = src.Paths()
	}

	// The innermost scope was loaded from the last path.
	if i := len(paths) - 1 - depthOf(s, owner); i >= 0 && i < len(paths) {
		_, err := fmt.Fprintln(outputFrom(ctx), paths[i])

		return err
	}

	return write(ctx, owner, g.Format, g.Indent)
}

// depthOf returns the number of parent links between s and owner, or -1 if
// owner is not reachable through scopes in the chain of s.
func depthOf(s *scope.Scope, owner scope.Container) int {
	depth := 0

	var c scope.Container = s
	for c != nil && c != owner {
		sc, ok := c.(*scope.Scope)
		if !ok {
			return -1
		}

		c = sc.Parent()
		depth++
	}

	if c == nil {
		return -1
	}

	return depth
}
