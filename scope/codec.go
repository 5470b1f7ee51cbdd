package scope

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"maps"
	"math"
	"slices"

	"github.com/goccy/go-yaml"
)

// MarshalJSON implements json.Marshaler, encoding m as an object whose
// members appear in insertion order. Reserved keys are omitted.
func (m *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	first := true

	for k, v := range m.Items() {
		if IsReserved(k) {
			continue
		}

		if !first {
			buf.WriteByte(',')
		}

		first = false

		key, err := json.Marshal(k)
		if err != nil {
			return nil, ErrEncode.Wrap(err).With(slog.String("key", k))
		}

		val, err := json.Marshal(v)
		if err != nil {
			return nil, ErrEncode.Wrap(err).With(slog.String("key", k))
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler. JSON is decoded as YAML, so the
// same ordering and conversion rules as [Map.UnmarshalYAML] apply.
func (m *Map) UnmarshalJSON(data []byte) error { return m.UnmarshalYAML(data) }

// MarshalYAML implements yaml.InterfaceMarshaler, encoding m as an ordered
// mapping. Reserved keys are omitted.
func (m *Map) MarshalYAML() (any, error) {
	ms := make(yaml.MapSlice, 0, m.Len())

	for k, v := range m.Items() {
		if IsReserved(k) {
			continue
		}

		ms = append(ms, yaml.MapItem{Key: k, Value: v})
	}

	return ms, nil
}

// UnmarshalYAML implements yaml.BytesUnmarshaler. Entries are added to m in
// document order; nested mappings become [*Map] values.
func (m *Map) UnmarshalYAML(data []byte) error {
	var doc any

	err := yaml.UnmarshalWithOptions(data, &doc, yaml.UseOrderedMap())
	if err != nil {
		return ErrDecode.Wrap(err)
	}

	switch val := doc.(type) {
	case nil:
		return nil

	case yaml.MapSlice:
		fillFromMapSlice(m, val)

		return nil

	default:
		return ErrDecode.With(slog.String("document", resultTypeName(doc)))
	}
}

func fillFromMapSlice(m *Map, ms yaml.MapSlice) {
	for _, item := range ms {
		m.Set(keyString(item.Key), fromDocument(item.Value))
	}
}

// fromDocument converts a decoded document value into a container value.
func fromDocument(v any) any {
	switch val := v.(type) {
	case yaml.MapSlice:
		m := &Map{}
		fillFromMapSlice(m, val)

		return m

	case map[string]any:
		m := &Map{}
		for _, k := range slices.Sorted(maps.Keys(val)) {
			m.Set(k, fromDocument(val[k]))
		}

		return m

	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = fromDocument(e)
		}

		return out

	case int:
		return int64(val)

	case uint64:
		if val <= math.MaxInt64 {
			return int64(val)
		}

		return val

	default:
		return v
	}
}
