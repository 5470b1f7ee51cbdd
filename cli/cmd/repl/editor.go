package repl

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

const defaultEditor = "vi"

// editScopeCommand implements [tea.ExecCommand] for the edit-decode-retry
// loop. It writes the entries of the innermost scope to a temp file as
// YAML, opens the user's editor, and decodes the result. On decode error
// the user is prompted to re-edit; declining exits the program.
//
// The edited scope keeps the parent of the scope it replaces.
type editScopeCommand struct {
	scope    *scope.Scope
	ctxFunc  func() context.Context
	newScope *scope.Scope
	logger   log.Logger
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
}

// SetStdin sets the stdin reader for the command.
func (c *editScopeCommand) SetStdin(r io.Reader) { c.stdin = r }

// SetStdout sets the stdout writer for the command.
func (c *editScopeCommand) SetStdout(w io.Writer) { c.stdout = w }

// SetStderr sets the stderr writer for the command.
func (c *editScopeCommand) SetStderr(w io.Writer) { c.stderr = w }

// Run executes the edit-decode-retry loop. If the user declines to re-edit,
// it returns [ErrEditDeclined].
func (c *editScopeCommand) Run() error {
	ctx := c.ctxFunc()

	var buf bytes.Buffer
	if err := scope.Encode(
		ctx,
		&buf,
		c.scope,
		scope.FormatYAML,
		scope.WithIndent(2),
		scope.WithLogger(c.logger),
	); err != nil {
		return err
	}

	content := buf.Bytes()

	// One temp file serves every iteration of the loop.
	f, err := os.CreateTemp(os.TempDir(), "scopemap-repl-*.yaml")
	if err != nil {
		return err
	}

	tmpPath := f.Name()

	defer os.Remove(tmpPath)

	if err := f.Chmod(0o600); err != nil {
		f.Close()

		return err
	}

	f.Close()

	for {
		if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
			return err
		}

		data, err := runEditor(ctx, c.stdin, c.stdout, c.stderr, tmpPath)
		if err != nil {
			return err
		}

		// An emptied file cancels the edit.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}

		s, decodeErr := scope.Decode(
			ctx,
			bytes.NewReader(data),
			scope.FormatYAML,
			scope.WithLogger(c.logger),
		)
		c.logger.TraceContext(
			ctx,
			"editor decode attempt",
			slog.Int("content_length", len(data)),
			slog.Bool("success", decodeErr == nil),
		)

		if decodeErr == nil {
			c.newScope = reparent(s, c.scope.Parent())

			return nil
		}

		fmt.Fprintf(c.stderr, "\nDecode error: %s\n", decodeErr)
		fmt.Fprintf(c.stdout, "Re-edit? [Y/n] ")

		scanner := bufio.NewScanner(c.stdin)
		if !scanner.Scan() {
			return ErrEditDeclined
		}

		response := strings.TrimSpace(strings.ToLower(scanner.Text()))
		if response == "n" || response == "no" {
			return ErrEditDeclined
		}

		// Re-edit the content that failed to decode.
		content = data
	}
}

// reparent links s to parent, discarding any parent link written in the
// edited document.
func reparent(s *scope.Scope, parent scope.Container) *scope.Scope {
	_ = s.Delete(scope.ParentKey)

	if parent != nil {
		s.Set(scope.ParentKey, parent)
	}

	return s
}

// runEditor launches the user's editor on the given file path and returns
// the edited file content.
func runEditor(
	ctx context.Context,
	stdin io.Reader,
	stdout io.Writer,
	stderr io.Writer,
	path string,
) ([]byte, error) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = defaultEditor
	}

	cmd := exec.CommandContext(ctx, editor, path)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Run(); err != nil {
		return nil, err
	}

	return os.ReadFile(path)
}
