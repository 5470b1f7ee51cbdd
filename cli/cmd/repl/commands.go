package repl

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/scopemap/eval"
	"github.com/ardnew/scopemap/scope"
)

func helpMessage() string {
	return `
: Commands (press Esc to toggle mode):

  help              Print this cruft
  list              List visible names (inherited names marked with ^)
  set NAME EXPR     Bind NAME in the innermost scope to the value of EXPR
  unset NAME        Remove NAME from the innermost scope
  edit              Edit the innermost scope as YAML in external $EDITOR
  clear             Clear screen
  quit              Exit REPL

Usage:
  Type an expression to evaluate it (visible names are variables)
  Completions appear automatically as you type
  Press Tab / Shift-Tab to cycle through candidates
  Press Space to accept the current candidate
  Press Esc to toggle between eval and command modes
  Use Up/Down arrows for history navigation (mode switches automatically)
  Use Shift+Up/Shift+Down for history navigation within current mode only
  Use Alt+Up/Alt+Down to switch to command mode and navigate command history
    (restores original mode when reaching end of history)
  Press Ctrl+C on empty line or Ctrl+D to exit
`
}

// echo renders a submitted line after the prompt of mode.
func echo(mode inputMode, input string) string {
	if mode == modeCtrl {
		return ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(input)
	}

	return promptStyle.Render(evalPrompt) + inputStyle.Render(input)
}

// printError prints err in the error style.
func printError(err error) tea.Cmd {
	return tea.Println(errorStyle.Render("error: " + err.Error()))
}

// executeInput records the submitted line in the history and runs it in
// the current mode. Both modes start over with empty input.
func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.drafts = [2]draft{}
	m.input.SetValue("")

	_, _ = m.history.WriteWithMode(input, m.mode)
	m.historyIdx = m.history.Len()

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl submit",
		slog.String("input", input),
		slog.Bool("command", m.mode == modeCtrl),
	)

	if m.mode == modeCtrl {
		return m.executeCommand(input)
	}

	out := m.evaluate(input)

	return m, tea.Sequence(tea.Println(echo(modeEval, input)), out)
}

// evaluate evaluates src in the REPL scope and prints the result.
func (m model) evaluate(src string) tea.Cmd {
	result, err := eval.Eval(
		m.ctxFunc(),
		m.scope,
		src,
		eval.WithLogger(m.logger),
	)
	if err != nil {
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl eval failed",
			slog.String("error", err.Error()),
		)

		return printError(err)
	}

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl eval result",
		slog.String("result_type", resultTypeName(result)),
	)

	return tea.Println(resultStyle.Render(scope.Text(result)))
}

// executeCommand runs a control command. Every command may be abbreviated
// to its first letter.
func (m model) executeCommand(input string) (model, tea.Cmd) {
	fields := strings.Fields(input)
	if len(fields) == 0 {
		return m, nil
	}

	name, args := fields[0], fields[1:]

	m.logger.TraceContext(
		m.ctxFunc(),
		"repl exec command",
		slog.String("command", name),
		slog.Any("args", args),
	)

	var out tea.Cmd

	switch name {
	case "q", "quit", "exit":
		m.quitting = true
		out = tea.Quit

	case "h", "help":
		out = tea.Println(helpMessage())

	case "l", "list":
		out = tea.Println(m.listNames())

	case "s", "set":
		m, out = m.setName(input)

	case "u", "unset":
		m, out = m.unsetNames(args)

	case "c", "clear":
		return m, tea.ClearScreen

	case "e", "edit":
		out = m.editScope()

	default:
		return m, tea.Println(
			errorStyle.Render("Unknown command: " + name + " (try 'help')"),
		)
	}

	return m, tea.Sequence(tea.Println(echo(modeCtrl, input)), out)
}

// editScope suspends the program to edit the innermost scope in an
// external editor. The outcome arrives as one of the edit messages.
func (m model) editScope() tea.Cmd {
	cmd := &editScopeCommand{
		scope:   m.scope,
		ctxFunc: m.ctxFunc,
		logger:  m.logger,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.newScope == nil:
			return editCancelledMsg{}
		default:
			return editScopeMsg{scope: cmd.newScope}
		}
	})
}

// visible reports whether name resolves from the REPL scope.
func (m model) visible(name string) bool {
	_, ok := m.scope.Lookup(name)

	return ok
}

// listNames renders every visible name with a preview of its value. Names
// inherited from an ancestor scope are marked with "^".
func (m model) listNames() string {
	var b strings.Builder

	for _, name := range m.scope.Visible() {
		value, ok := m.scope.Lookup(name)
		if !ok {
			continue
		}

		mark := " "
		if !m.scope.Has(name) {
			mark = "^"
		}

		b.WriteString(fmt.Sprintf("  %s %s %s\n",
			hintStyle.Render(mark), name, hintStyle.Render(formatPreview(value))))
	}

	return b.String()
}

// setName evaluates the expression following the name in a "set NAME EXPR"
// command and binds the result in the innermost scope.
func (m model) setName(input string) (model, tea.Cmd) {
	_, rest, _ := strings.Cut(strings.TrimSpace(input), " ")
	name, src, _ := strings.Cut(strings.TrimSpace(rest), " ")

	if name == "" || strings.TrimSpace(src) == "" {
		return m, tea.Println(errorStyle.Render("usage: set NAME EXPR"))
	}

	if scope.IsReserved(name) {
		return m, tea.Println(
			errorStyle.Render("error: " + ErrReservedName.Error() + ": " + name),
		)
	}

	value, err := eval.Eval(
		m.ctxFunc(),
		m.scope,
		src,
		eval.WithLogger(m.logger),
	)
	if err != nil {
		return m, printError(err)
	}

	m.scope.Set(name, value)
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl set",
		slog.String("name", name),
		slog.String("result_type", resultTypeName(value)),
	)

	return m, tea.Println(
		resultStyle.Render(name + " = " + scope.Text(value)),
	)
}

// unsetNames removes each name from the innermost scope. A name bound only
// in an ancestor is reported as not found.
func (m model) unsetNames(names []string) (model, tea.Cmd) {
	if len(names) == 0 {
		return m, tea.Println(errorStyle.Render("usage: unset NAME..."))
	}

	var lines []string

	for _, name := range names {
		if scope.IsReserved(name) {
			lines = append(lines, errorStyle.Render(
				"error: "+ErrReservedName.Error()+": "+name))

			continue
		}

		if err := m.scope.Delete(name); err != nil {
			lines = append(lines, errorStyle.Render("error: "+err.Error()))

			continue
		}

		lines = append(lines, hintStyle.Render("unset "+name))
	}

	return m, tea.Println(strings.Join(lines, "\n"))
}
