package repl

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/scopemap/log"
	"github.com/ardnew/scopemap/scope"
)

// editScopeMsg is sent when editing the innermost scope completes.
type editScopeMsg struct{ scope *scope.Scope }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a decode
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process encounters a non-decode error.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// draft is input text with its cursor position.
type draft struct {
	text   string
	cursor int
}

func draftOf(ti textinput.Model) draft {
	return draft{text: ti.Value(), cursor: ti.Position()}
}

func (d draft) restore(ti *textinput.Model) {
	ti.SetValue(d.text)
	ti.SetCursor(d.cursor)
}

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// model is the Bubble Tea model for the REPL.
type model struct {
	ctxFunc    func() context.Context
	input      textinput.Model
	scope      *scope.Scope
	logger     log.Logger
	history    *History
	historyIdx int
	matches    fuzzy.Matches // current fuzzy match results
	candidates []string      // backing candidate list
	wordStart  int           // byte offset of current word start
	wordEnd    int           // byte offset of current word end
	suggIdx    int           // selected candidate index
	tabbing    bool          // cycling candidates with Tab
	tabOrigin  draft         // input before cycling began
	altNav     bool          // in Alt+Up/Down command history
	altOrigin  draft         // input before Alt navigation began
	altMode    inputMode     // mode before Alt navigation began
	width      int           // terminal width for ellipsization
	quitting   bool
	mode       inputMode
	drafts     [2]draft // pending input per inputMode
}

type config struct {
	cacheDir string
	logger   log.Logger
	inputTTY bool
}

// Option configures [Run].
type Option func(config) config

// WithCacheDir returns an option that stores the command history in dir.
func WithCacheDir(dir string) Option {
	return func(c config) config {
		c.cacheDir = dir

		return c
	}
}

// WithLogger returns an option that reports REPL activity to logger.
func WithLogger(logger log.Logger) Option {
	return func(c config) config {
		c.logger = logger

		return c
	}
}

// WithInputTTY returns an option that reads keys from the controlling
// terminal instead of stdin. Use it when stdin was consumed as a source.
func WithInputTTY(enable bool) Option {
	return func(c config) config {
		c.inputTTY = enable

		return c
	}
}

// Run starts the REPL over the scope chain s. Expressions are evaluated
// with every name visible from s, and set/unset/edit modify the innermost
// scope only.
func Run(ctx context.Context, s *scope.Scope, opts ...Option) (err error) {
	var c config

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	c.logger.TraceContext(
		ctx,
		"repl start",
		slog.String("cache_dir", c.cacheDir),
		slog.Bool("has_scope", s != nil),
	)

	if s == nil {
		return ErrNoScope
	}

	c.logger.TraceContext(
		ctx,
		"repl scope loaded",
		slog.Int("depth", s.Depth()),
		slog.Int("visible_count", len(s.Visible())),
	)

	history := NewHistory(filepath.Join(c.cacheDir, baseHistory))
	if err := history.Load(); err != nil {
		c.logger.WarnContext(ctx, "could not load history",
			slog.String("path", history.path),
			slog.String("error", err.Error()))
	}

	c.logger.TraceContext(
		ctx,
		"repl history loaded",
		slog.Int("entry_count", history.Len()),
	)

	m := newModel(ctx, s, history, c.logger)

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if c.inputTTY {
		programOpts = append(programOpts, tea.WithInputTTY())
	}

	_, err = tea.NewProgram(m, programOpts...).Run()

	return err
}

const defaultWidth = 80

func newModel(
	ctx context.Context,
	s *scope.Scope,
	history *History,
	logger log.Logger,
) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 1024
	ti.Width = defaultWidth

	return model{
		ctxFunc:    func() context.Context { return ctx },
		input:      ti,
		scope:      s,
		logger:     logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		mode:       modeEval,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(evalPrompt) - 2

		return m, nil

	case editScopeMsg:
		m.scope = msg.scope
		m.logger.TraceContext(
			m.ctxFunc(),
			"repl edit complete",
			slog.Int("key_count", m.scope.Len()),
		)

		return m, tea.Println(resultStyle.Render("✔ scope updated"))

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("🗴 edit cancelled"))

	case editDeclinedMsg:
		m.quitting = true

		return m, tea.Quit

	case editErrorMsg:
		return m, tea.Println(
			errorStyle.Render("🗴 error: " + msg.err.Error()),
		)
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	return m.input.View() + "\n" + m.statusLine() + "\n"
}

// statusLine returns the line shown below the input: the history position
// while browsing history, a usage hint for empty input, the signature of
// the builtin being called, or the completion candidates.
func (m model) statusLine() string {
	input := m.input.Value()

	if m.historyIdx < m.history.Len() {
		pos := lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx + 1))

		return hintStyle.Render(fmt.Sprintf("%s/%d", pos, m.history.Len()))
	}

	if strings.TrimSpace(input) == "" {
		if m.mode == modeCtrl {
			return hintStyle.Render("Type: " + strings.Join(ctrlCommands, ", ") +
				" (press Esc to return)")
		}

		return hintStyle.Render("Type an expression or press Esc for commands")
	}

	if call := detectFunctionCall(input, m.input.Position()); call.inCall &&
		m.mode == modeEval {
		if sig, params := getSignature(m.visible, call.name); sig != "" {
			return renderSignatureHint(sig, params, call.argIndex)
		}
	}

	return renderCandidateBar(m.matches, m.suggIdx, m.tabbing, m.width)
}

func resultTypeName(value any) string {
	if value == nil {
		return "nil"
	}

	return fmt.Sprintf("%T", value)
}
