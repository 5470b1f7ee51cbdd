package repl

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
)

// historyFilter selects the history entries a navigation key visits.
type historyFilter int

const (
	historyAll  historyFilter = iota // every entry; the mode follows the entry
	historyMode                      // entries of the current mode only
	historyCtrl                      // control entries; restores the mode at either end
)

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	m.logger.TraceContext(
		m.ctxFunc(),
		"repl keypress",
		slog.String("key", msg.String()),
		slog.Int("type", int(msg.Type)),
	)

	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			return m.quit()
		}

		m.tabbing = false
		m.altNav = false
		m = m.resetHistory("", 0)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			return m.quit()
		}

		return m, nil

	case tea.KeyEnter:
		m.altNav = false

		if !m.tabbing || len(m.matches) == 0 {
			return m.executeInput()
		}

		// Lock in the current candidate without executing.
		m.tabbing = false
		refreshMatches(&m, true)

		return m, nil

	case tea.KeyTab:
		return m.cycleCandidate(1)

	case tea.KeyShiftTab:
		return m.cycleCandidate(-1)

	case tea.KeyUp, tea.KeyDown:
		step := 1
		if msg.Type == tea.KeyUp {
			step = -1
		}

		if msg.Alt {
			return m.navigateHistory(step, historyCtrl)
		}

		return m.navigateHistory(step, historyAll)

	case tea.KeyShiftUp:
		return m.navigateHistory(-1, historyMode)

	case tea.KeyShiftDown:
		return m.navigateHistory(1, historyMode)

	case tea.KeyEsc:
		if m.tabbing {
			m.tabbing = false
			m.tabOrigin.restore(&m.input)
			refreshMatches(&m, false)

			return m, nil
		}

		m.altNav = false

		return m.toggleMode()

	case tea.KeyRunes:
		// Space ends tab-cycling and keeps the selected candidate.
		if m.tabbing && msg.String() == " " {
			m.tabbing = false
		}

		return m.edit(msg, true)
	}

	// Deletions and cursor movement never auto-confirm a completion.
	m.tabbing = false
	m.altNav = false

	return m.edit(msg, false)
}

// edit forwards msg to the text input and recomputes completions.
func (m model) edit(msg tea.KeyMsg, autoConfirm bool) (model, tea.Cmd) {
	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	refreshMatches(&m, autoConfirm)

	return m, cmd
}

func (m model) quit() (model, tea.Cmd) {
	m.quitting = true

	return m, tea.Quit
}

// cycleCandidate replaces the word at the cursor with the next (step 1) or
// previous (step -1) completion candidate. A sole candidate is accepted
// immediately.
func (m model) cycleCandidate(step int) (model, tea.Cmd) {
	n := len(m.matches)

	switch {
	case n == 0:
		return m, nil

	case n == 1:
		acceptSole(&m)

		return m, nil

	case m.tabbing:
		m.suggIdx = (m.suggIdx + step + n) % n

	default:
		m.tabbing = true
		m.tabOrigin = draftOf(m.input)

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = n - 1
		}
	}

	replaceCurrentWord(&m, m.matches[m.suggIdx].Str)

	return m, nil
}

// acceptSole completes the current word with the only candidate.
func acceptSole(m *model) {
	replaceCurrentWord(m, m.matches[0].Str)
	m.tabbing = false
	m.suggIdx = -1
	m.matches = nil
}

// replaceCurrentWord replaces the current word in the input with
// replacement and moves the cursor to its end.
func replaceCurrentWord(m *model, replacement string) {
	input := m.input.Value()
	cursor := m.wordStart + len(replacement)

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.input.SetCursor(cursor)

	m.wordEnd = cursor
}

// refreshMatches recomputes completions for the current input. With
// autoConfirm, a sole candidate that the typed word already equals is
// accepted.
func refreshMatches(m *model, autoConfirm bool) {
	m.matches, m.candidates, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabbing {
		m.suggIdx = -1
	}

	if autoConfirm && len(m.matches) == 1 &&
		m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		acceptSole(m)
	}
}

// navigateHistory moves step entries through the history, visiting only
// the entries selected by within.
func (m model) navigateHistory(step int, within historyFilter) (model, tea.Cmd) {
	if within == historyCtrl && !m.altNav {
		m.altNav = true
		m.altMode = m.mode
		m.altOrigin = draftOf(m.input)

		if m.mode != modeCtrl {
			m, _ = m.switchToMode(modeCtrl)
		}
	}

	mode := m.mode

	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.GetEntry(i)
		if err != nil || (within != historyAll && entry.Mode != mode) {
			continue
		}

		if entry.Mode != m.mode {
			m, _ = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		refreshMatches(&m, false)

		return m, nil
	}

	// No further entry in this direction.
	switch {
	case within == historyCtrl:
		m.altNav = false

		if m.altMode != m.mode {
			m, _ = m.switchToMode(m.altMode)
		}

		m = m.resetHistory(m.altOrigin.text, m.altOrigin.cursor)

	case step > 0 && m.historyIdx < m.history.Len():
		m = m.resetHistory("", 0)
	}

	return m, nil
}

// resetHistory leaves history navigation with text in the input.
func (m model) resetHistory(text string, cursor int) model {
	m.historyIdx = m.history.Len()
	m.input.SetValue(text)
	m.input.SetCursor(cursor)
	refreshMatches(&m, false)

	return m
}

// toggleMode switches between eval and control modes.
func (m model) toggleMode() (model, tea.Cmd) {
	if m.mode == modeEval {
		return m.switchToMode(modeCtrl)
	}

	return m.switchToMode(modeEval)
}

// switchToMode switches to mode. Each mode keeps its own pending input.
func (m model) switchToMode(mode inputMode) (model, tea.Cmd) {
	m.drafts[m.mode] = draftOf(m.input)
	m.mode = mode

	m.input.Prompt = promptStyle.Render(evalPrompt)
	if mode == modeCtrl {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.drafts[mode].restore(&m.input)

	refreshMatches(&m, false)

	return m, nil
}
