package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ardnew/scopemap/scope"
)

// Keys prints the keys of the innermost source, one per line.
type Keys struct {
	Visible bool `help:"Print every name visible through the scope chain." short:"a"`
}

// Run executes the keys command.
func (k *Keys) Run(ctx context.Context) error {
	s, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	keys := slices.DeleteFunc(s.Keys(), scope.IsReserved)
	if k.Visible {
		keys = s.Visible()
	}

	if len(keys) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(outputFrom(ctx), strings.Join(keys, "\n"))

	return err
}
