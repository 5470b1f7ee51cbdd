package repl

import (
	"bufio"
	"os"
	"slices"
	"strings"
	"sync"
)

const baseHistory = "history.utf8"

// HistoryEntry is a submitted line and the mode it was entered in.
type HistoryEntry struct {
	Line string
	Mode inputMode
}

// History is the REPL command history, persisted one entry per line. Each
// line of the history file is prefixed with the mode of its entry.
//
// A line appears at most once per mode; resubmitting it moves it to the
// end.
type History struct {
	path    string
	entries []HistoryEntry
	mu      sync.RWMutex
}

// NewHistory returns an empty History persisted at path.
func NewHistory(path string) *History {
	return &History{path: path}
}

// Load replaces the entries with those in the history file. A missing file
// is an empty history.
func (h *History) Load() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	file, err := os.Open(h.path)
	if os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return err
	}
	defer file.Close()

	h.entries = nil

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, parseEntry(line))
		}
	}

	return scanner.Err()
}

// WriteWithMode appends line as an entry of mode and persists it.
func (h *History) WriteWithMode(line string, mode inputMode) (int, error) {
	entry := HistoryEntry{Line: strings.TrimSpace(line), Mode: mode}
	if entry.Line == "" {
		return 0, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if n := len(h.entries); n > 0 && h.entries[n-1] == entry {
		return len(entry.Line), nil
	}

	i := slices.Index(h.entries, entry)
	if i >= 0 {
		h.entries = slices.Delete(h.entries, i, i+1)
	}

	h.entries = append(h.entries, entry)

	// Removing an earlier duplicate requires rewriting the whole file.
	if i >= 0 {
		return h.persist(os.O_TRUNC, h.entries...)
	}

	return h.persist(os.O_APPEND, entry)
}

// GetEntry returns the entry at index i, oldest first.
func (h *History) GetEntry(i int) (HistoryEntry, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if i < 0 || i >= len(h.entries) {
		return HistoryEntry{}, ErrOutOfBounds
	}

	return h.entries[i], nil
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.entries)
}

// Entries returns a copy of every entry, oldest first.
func (h *History) Entries() []HistoryEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return slices.Clone(h.entries)
}

// persist writes entries to the history file opened with the extra flag
// (os.O_APPEND or os.O_TRUNC). Must be called with h.mu held.
func (h *History) persist(flag int, entries ...HistoryEntry) (int, error) {
	file, err := os.OpenFile(h.path, os.O_WRONLY|os.O_CREATE|flag, 0o600)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	total := 0

	for _, entry := range entries {
		n, err := file.WriteString(formatEntry(entry))
		total += n

		if err != nil {
			return total, err
		}
	}

	return total, nil
}

// parseEntry decodes a history file line. Lines are prefixed "E:" for eval
// mode or "C:" for control mode; unprefixed lines are eval mode.
func parseEntry(line string) HistoryEntry {
	if s, ok := strings.CutPrefix(line, "C:"); ok {
		return HistoryEntry{Line: s, Mode: modeCtrl}
	}

	s, _ := strings.CutPrefix(line, "E:")

	return HistoryEntry{Line: s, Mode: modeEval}
}

func formatEntry(entry HistoryEntry) string {
	if entry.Mode == modeCtrl {
		return "C:" + entry.Line + "\n"
	}

	return "E:" + entry.Line + "\n"
}
