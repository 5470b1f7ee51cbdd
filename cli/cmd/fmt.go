package cmd

import (
	"context"

	"github.com/ardnew/scopemap/scope"
)

// Fmt writes the innermost source in the chosen format.
type Fmt struct {
	Native  Native  `cmd:"" default:"withargs" help:"Format as native rendering (default)."`
	JSON    JSON    `cmd:""                    help:"Format as JSON."`
	YAML    YAML    `cmd:""                    help:"Format as YAML."`
	Bencode Bencode `cmd:""                    help:"Format as bencode."`
}

// layout holds the flags shared by every fmt subcommand.
type layout struct {
	Indent  int  `default:"2" help:"Indent width for formatted output (0 for compact)" short:"i"`
	Flatten bool `help:"Include every name visible through the scope chain." short:"a"`
}

func (l layout) run(ctx context.Context, f scope.Format) error {
	s, err := scopeFrom(ctx)
	if err != nil {
		return err
	}

	var v any = s
	if l.Flatten {
		v = flatten(s)
	}

	return write(ctx, v, f.String(), l.Indent)
}

// flatten returns a Map binding every name visible from s to the value a
// read from s returns, in [scope.Scope.Visible] order.
func flatten(s *scope.Scope) *scope.Map {
	m := scope.New()

	for _, name := range s.Visible() {
		v, _ := s.Lookup(name)
		m.Set(name, v)
	}

	return m
}

// Native formats input with the native container rendering.
type Native struct {
	Layout layout `embed:""`
}

// Run executes the native command.
func (n *Native) Run(ctx context.Context) error {
	return n.Layout.run(ctx, scope.FormatNative)
}

// JSON formats input as JSON, preserving key order.
type JSON struct {
	Layout layout `embed:""`
}

// Run executes the json command.
func (j *JSON) Run(ctx context.Context) error {
	return j.Layout.run(ctx, scope.FormatJSON)
}

// YAML formats input as YAML, preserving key order.
type YAML struct {
	Layout layout `embed:""`
}

// Run executes the yaml command.
func (y *YAML) Run(ctx context.Context) error {
	return y.Layout.run(ctx, scope.FormatYAML)
}

// Bencode formats input as bencode. Dictionary keys are sorted, booleans
// become integers, and floating-point values are rejected.
type Bencode struct {
	Layout layout `embed:""`
}

// Run executes the bencode command.
func (b *Bencode) Run(ctx context.Context) error {
	return b.Layout.run(ctx, scope.FormatBencode)
}
