package log

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// DefaultTimeLayout is the timestamp layout used when none is configured.
const DefaultTimeLayout = time.RFC3339

// config is the immutable configuration behind a [Logger]. Options receive
// and return copies.
type config struct {
	output io.Writer
	stamp  func(time.Time) string
	level  Level
	format Format
	caller bool
	pretty bool
}

// Option modifies the configuration of a [Logger].
type Option func(config) config

func defaultConfig(w io.Writer) config {
	if w == nil {
		w = io.Discard
	}

	return config{
		output: w,
		stamp:  timeStamper(DefaultTimeLayout),
		level:  DefaultLevel,
		format: DefaultFormat,
	}
}

func (c config) with(opts ...Option) config {
	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	return c
}

// replaceAttr rewrites the built-in time and level attributes of a record.
// An empty timestamp drops the time attribute.
func (c config) replaceAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) > 0 {
		return a
	}

	switch a.Key {
	case slog.TimeKey:
		t, ok := a.Value.Any().(time.Time)
		if !ok {
			return a
		}

		if stamp := c.stamp(t); stamp != "" {
			return slog.String(slog.TimeKey, stamp)
		}

		return slog.Attr{}

	case slog.LevelKey:
		if l, ok := a.Value.Any().(slog.Level); ok {
			return slog.String(slog.LevelKey, strings.ToUpper(Level(l).String()))
		}
	}

	return a
}

func (c config) handler() slog.Handler {
	opts := &slog.HandlerOptions{
		AddSource:   c.caller,
		Level:       slog.Level(c.level),
		ReplaceAttr: c.replaceAttr,
	}

	switch {
	case c.format == FormatJSON:
		return slog.NewJSONHandler(c.output, opts)
	case c.format == FormatText && c.pretty:
		return newPrettyTextHandler(c.output, opts)
	case c.format == FormatText:
		return slog.NewTextHandler(c.output, opts)
	default:
		return slog.DiscardHandler
	}
}

// WithOutput sets the writer receiving log records. A nil writer discards
// them.
func WithOutput(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.output = w

		return c
	}
}

// WithLevel sets the minimum level of records that are written.
func WithLevel(level Level) Option {
	return func(c config) config {
		c.level = level

		return c
	}
}

// WithFormat sets the record encoding.
func WithFormat(format Format) Option {
	return func(c config) config {
		c.format = format

		return c
	}
}

// WithTimeLayout sets the timestamp layout. The layout is either the name
// of a [time] package layout such as "RFC3339Nano" or "Kitchen" (matched
// without regard to case or punctuation), or a custom layout passed to
// [time.Time.Format] unchanged. An empty layout or "none" omits timestamps.
func WithTimeLayout(layout string) Option {
	return func(c config) config {
		c.stamp = timeStamper(layout)

		return c
	}
}

// WithCaller controls whether records carry the source location of the
// logging call.
func WithCaller(enable bool) Option {
	return func(c config) config {
		c.caller = enable

		return c
	}
}

// WithPretty controls whether text records are colorized. JSON records are
// never colorized.
func WithPretty(enable bool) Option {
	return func(c config) config {
		c.pretty = enable

		return c
	}
}

//nolint:gochecknoglobals
var namedLayouts = map[string]string{
	"none":        "",
	"ansic":       time.ANSIC,
	"datetime":    time.DateTime,
	"dateonly":    time.DateOnly,
	"timeonly":    time.TimeOnly,
	"kitchen":     time.Kitchen,
	"rfc822":      time.RFC822,
	"rfc822z":     time.RFC822Z,
	"rfc850":      time.RFC850,
	"rfc1123":     time.RFC1123,
	"rfc1123z":    time.RFC1123Z,
	"rfc3339":     time.RFC3339,
	"rfc3339nano": time.RFC3339Nano,
	"rubydate":    time.RubyDate,
	"unixdate":    time.UnixDate,
	"stamp":       time.Stamp,
	"stampmilli":  time.StampMilli,
	"stampmicro":  time.StampMicro,
	"stampnano":   time.StampNano,
	"ms":          time.StampMilli,
	"us":          time.StampMicro,
	"ns":          time.StampNano,
}

// layoutKey reduces a layout to lowercase letters and digits, the form in
// which named layouts are looked up.
func layoutKey(layout string) string {
	var b strings.Builder

	for _, r := range strings.ToLower(layout) {
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

func timeStamper(layout string) func(time.Time) string {
	key := layoutKey(layout)
	if named, ok := namedLayouts[key]; ok {
		layout = named
	}

	if key == "" || layout == "" {
		return func(time.Time) string { return "" }
	}

	return func(t time.Time) string { return t.Format(layout) }
}
