package scope

import (
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"
)

// String renders m as its type name followed by one "key = value" line per
// key in insertion order, or as "Map()" when empty.
func (m *Map) String() string { return render("Map", m) }

// String renders s like [Map.String] under the type name "Scope".
// The parent link is rendered like any other value.
func (s *Scope) String() string { return render("Scope", s.local()) }

func render(tag string, m *Map) string {
	if m.Len() == 0 {
		return tag + "()"
	}

	var b strings.Builder

	b.WriteString(tag)
	b.WriteString(":")

	for k, v := range m.Items() {
		b.WriteString("\n  ")
		b.WriteString(k)
		b.WriteString(" = ")
		// Continuation lines of nested containers are indented one level.
		b.WriteString(strings.ReplaceAll(formatValue(v), "\n", "\n  "))
	}

	return b.String()
}

// formatValue renders a single stored value.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "nil"
	case Container:
		if reflect.ValueOf(val).IsNil() {
			return "nil"
		}

		return fmt.Sprint(val)
	case string:
		return strconv.Quote(val)
	default:
		return fmt.Sprint(val)
	}
}

// Text renders v the way a container renders its values: strings quoted,
// nil as "nil", and containers like their String method except that the
// reserved keys of v itself, including its parent link, are omitted.
func Text(v any) string {
	c, ok := v.(Container)
	if !ok || c.local() == nil {
		return formatValue(v)
	}

	m := c.local().Clone()
	for _, k := range m.Keys() {
		if IsReserved(k) {
			_ = m.Delete(k)
		}
	}

	if _, ok := c.(*Scope); ok {
		return render("Scope", m)
	}

	return render("Map", m)
}

// Native converts v to plain Go values: containers become map[string]any
// (reserved keys dropped) and slices of any are converted element-wise.
// Every other value is returned unchanged.
func Native(v any) any {
	switch val := v.(type) {
	case Container:
		m := val.local()
		if m == nil {
			return nil
		}

		out := make(map[string]any, m.Len())

		for k, e := range m.Items() {
			if IsReserved(k) {
				continue
			}

			out[k] = Native(e)
		}

		return out

	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = Native(e)
		}

		return out

	default:
		return v
	}
}

// LogValue implements slog.LogValuer, logging m as a group in key order.
func (m *Map) LogValue() slog.Value { return logValue(m) }

// LogValue implements slog.LogValuer. The parent link is omitted.
func (s *Scope) LogValue() slog.Value { return logValue(s.local()) }

func logValue(m *Map) slog.Value {
	attrs := make([]slog.Attr, 0, m.Len())

	for k, v := range m.Items() {
		if IsReserved(k) {
			continue
		}

		attrs = append(attrs, slog.Any(k, v))
	}

	return slog.GroupValue(attrs...)
}
