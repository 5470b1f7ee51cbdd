package log

import (
	"iter"
	"log/slog"
	"strings"
)

// Level represents the severity of a log message.
type Level slog.Level

const (
	LevelTrace Level = Level(slog.LevelDebug - 4) // trace
	LevelDebug Level = Level(slog.LevelDebug)     // debug
	LevelInfo  Level = Level(slog.LevelInfo)      // info
	LevelWarn  Level = Level(slog.LevelWarn)      // warn
	LevelError Level = Level(slog.LevelError)     // error
)

// DefaultLevel is the level used when none is configured or a level name
// cannot be parsed.
const DefaultLevel = LevelInfo

// levelNames is ordered by increasing severity.
var levelNames = []struct {
	level Level
	name  string
}{
	{LevelTrace, "trace"},
	{LevelDebug, "debug"},
	{LevelInfo, "info"},
	{LevelWarn, "warn"},
	{LevelError, "error"},
}

// String returns the lowercase name of l. Levels between the named ones
// use the slog form, as in "info+2".
func (l Level) String() string {
	for _, n := range levelNames {
		if n.level == l {
			return n.name
		}
	}

	return strings.ToLower(slog.Level(l).String())
}

// Levels returns an iterator over the level names, least severe first.
func Levels() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, n := range levelNames {
			if !yield(n.name) {
				return
			}
		}
	}
}

// ParseLevel returns the level named s, ignoring case and surrounding
// whitespace. Besides the names from [Levels], any form accepted by
// [slog.Level.UnmarshalText] is understood ("warn-2", "ERROR+1"). Anything
// else yields [DefaultLevel].
func ParseLevel(s string) Level {
	s = strings.TrimSpace(s)

	for _, n := range levelNames {
		if strings.EqualFold(s, n.name) {
			return n.level
		}
	}

	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return DefaultLevel
	}

	return Level(l)
}

// Format selects the encoding of log records.
type Format int

const (
	FormatText Format = iota // text
	FormatJSON               // json
)

// DefaultFormat is the format used when none is configured or a format name
// cannot be parsed.
const DefaultFormat = FormatJSON

// formatNames lists formats in the order [Formats] reports them.
var formatNames = []struct {
	format Format
	name   string
}{
	{FormatJSON, "json"},
	{FormatText, "text"},
}

// String returns the lowercase name of f, or "unknown".
func (f Format) String() string {
	for _, n := range formatNames {
		if n.format == f {
			return n.name
		}
	}

	return "unknown"
}

// Formats returns an iterator over the format names.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, n := range formatNames {
			if !yield(n.name) {
				return
			}
		}
	}
}

// ParseFormat returns the format named s, ignoring case and surrounding
// whitespace, or [DefaultFormat].
func ParseFormat(s string) Format {
	s = strings.TrimSpace(s)

	for _, n := range formatNames {
		if strings.EqualFold(s, n.name) {
			return n.format
		}
	}

	return DefaultFormat
}
