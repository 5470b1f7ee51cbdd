package repl

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/expr-lang/expr/builtin"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/scopemap/eval"
	"github.com/ardnew/scopemap/scope"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "list", "set", "unset", "edit", "clear", "quit"}

// isWordBoundary returns true if the rune is a word delimiter for completion
// purposes. This includes whitespace, the member-access dot, and expr-lang
// operator/punctuation characters. Hyphens are excluded because decoded keys
// often contain them (e.g., log-pretty) and the evaluator patches them back
// into single names.
func isWordBoundary(r rune) bool {
	switch r {
	case '.', ' ', '\t',
		'(', ')', '[', ']',
		'+', '*', '/', '%',
		'<', '>', '=', '!',
		'&', '|', ',', '?', ':', ';':
		return true
	}

	return false
}

// wordBounds returns the current word at the cursor position and its byte
// boundaries within input. Returns an empty word when the cursor sits on a
// boundary (after a space, between dots, start of line, etc.).
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(cursor, len(input))

	start = cursor

	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor

	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the dot-separated prefix path leading up to the current
// word, considering only the contiguous member-access chain. For input
// "x + server.http.ho" with the word "ho", the parent path is "server.http".
// Returns "" for top-level words.
func parentPath(input string, wordStart int) string {
	prefix := strings.TrimRight(input[:wordStart], ".")
	if prefix == "" || len(prefix) == wordStart {
		// No dot immediately before the word: top level.
		return ""
	}

	pos := len(prefix)

	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	return strings.TrimSpace(prefix[pos:])
}

// exprBuiltinNames returns the names of expr-lang's builtin functions.
func exprBuiltinNames() []string {
	names := make([]string, 0, len(builtin.Builtins))

	for _, fn := range builtin.Builtins {
		if !strings.HasPrefix(fn.Name, "$") {
			names = append(names, fn.Name)
		}
	}

	return names
}

// childCandidates returns the names that are valid completions for the given
// parent path. For an empty parent, returns every name visible from s plus
// the built-in environment and expr-lang functions. For a non-empty parent,
// resolves the path through s, falling back to the built-in environment, and
// returns the names of its members.
func childCandidates(s *scope.Scope, parent string) []string {
	if parent == "" {
		names := s.Visible()
		names = append(names, eval.BuiltinNames()...)

		return append(names, exprBuiltinNames()...)
	}

	segments := strings.Split(parent, ".")

	if v, ok := s.Lookup(segments[0]); ok {
		for _, seg := range segments[1:] {
			c, ok := v.(scope.Container)
			if !ok || !c.Has(seg) {
				return nil
			}

			v, _ = c.Get(seg)
		}

		if c, ok := v.(scope.Container); ok {
			return memberNames(c)
		}

		return nil
	}

	return eval.BuiltinLookup(parent)
}

// memberNames returns the non-reserved keys of c.
func memberNames(c scope.Container) []string {
	var names []string

	for _, k := range c.Keys() {
		if !scope.IsReserved(k) {
			names = append(names, k)
		}
	}

	return names
}

// computeMatches calculates the fuzzy match results for the word at the cursor.
// It returns the matches (ranked best-first), the candidate list, and the word
// boundaries. When the current word is empty at the top level, it returns nil
// matches. When the word is empty after a dot (member access), it returns all
// children as matches.
func (m model) computeMatches() (
	matches fuzzy.Matches,
	candidates []string,
	wordStart, wordEnd int,
) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	// The first word of a control command names the command; its
	// arguments complete like expressions.
	if m.mode == modeCtrl && strings.TrimSpace(input[:wordStart]) == "" {
		if word == "" {
			return nil, nil, wordStart, wordEnd
		}

		return fuzzy.Find(word, ctrlCommands), ctrlCommands, wordStart, wordEnd
	}

	parent := parentPath(input, wordStart)
	candidates = childCandidates(m.scope, parent)

	if len(candidates) == 0 {
		return nil, nil, wordStart, wordEnd
	}

	// When the word is empty at the top level, don't show completions
	// (allows the hint text to be visible). After a dot, show all children
	// so the user can browse the available members.
	if word == "" {
		if parent == "" {
			return nil, nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(candidates))
		for i, c := range candidates {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, candidates, wordStart, wordEnd
	}

	return fuzzy.Find(word, candidates), candidates, wordStart, wordEnd
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within the given terminal width. The selected candidate (when tabbing) uses
// the selected style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabbing bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	sepWidth := lipgloss.Width(sep)
	ellipsis := hintStyle.Render("...")
	ellipsisWidth := lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabbing && i == suggIdx)

		entryWidth := lipgloss.Width(rendered)
		if i > 0 {
			entryWidth += sepWidth
		}

		if used+entryWidth+ellipsisWidth > width && i > 0 {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += entryWidth
	}

	return b.String()
}

// renderCandidate renders a single candidate with matched characters
// highlighted. Functions are displayed with a "()" suffix.
func renderCandidate(match fuzzy.Match, selected bool) string {
	baseStyle := suggestionStyle
	highlightStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("4")).
		Bold(true)

	if selected {
		baseStyle = selectedStyle
		highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4")).
			Bold(true)
	}

	matchSet := make(map[int]bool, len(match.MatchedIndexes))
	for _, idx := range match.MatchedIndexes {
		matchSet[idx] = true
	}

	var b strings.Builder

	for i, r := range match.Str {
		if matchSet[i] {
			b.WriteString(highlightStyle.Render(string(r)))
		} else {
			b.WriteString(baseStyle.Render(string(r)))
		}
	}

	if isFunction(match.Str) {
		b.WriteString(baseStyle.Render("()"))
	}

	return b.String()
}

// previewWidth is the widest value preview printed by the list command.
const previewWidth = 40

// formatPreview returns a single-line preview of value.
func formatPreview(value any) string {
	var text string

	switch v := value.(type) {
	case scope.Container:
		text = "{ " + strings.Join(memberNames(v), ", ") + " }"
	default:
		text = scope.Text(v)
	}

	text = strings.ReplaceAll(text, "\n", " ")
	if len(text) > previewWidth {
		return text[:previewWidth-3] + "..."
	}

	return text
}

// isFunction reports whether a top-level name is a function that should
// display with "()".
func isFunction(name string) bool {
	if _, ok := builtin.Index[name]; ok {
		return true
	}

	if name == eval.ProcessEnvName {
		return true
	}

	_, _, ok := builtinSignature(name)

	return ok
}
