package scope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/jackpal/bencode-go"
	"github.com/klauspost/readahead"

	"github.com/ardnew/scopemap/log"
)

// Format identifies a serialization format understood by [Decode] and
// [Encode].
type Format int

const (
	FormatYAML    Format = iota // yaml
	FormatJSON                  // json
	FormatBencode               // bencode
	FormatNative                // native
)

// DefaultFormat is the format assumed for sources without a recognized
// file extension.
const DefaultFormat = FormatYAML

// DefaultIndent is the default indentation width of encoded output.
const DefaultIndent = 2

var formats = []Format{FormatYAML, FormatJSON, FormatBencode, FormatNative}

// String returns the lowercase name of f.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatJSON:
		return "json"
	case FormatBencode:
		return "bencode"
	case FormatNative:
		return "native"
	default:
		return "unknown"
	}
}

// Formats returns an iterator over the names of all defined formats.
func Formats() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, f := range formats {
			if !yield(f.String()) {
				return
			}
		}
	}
}

// ParseFormat returns the format named s, ignoring case and surrounding
// whitespace, or [ErrUnsupportedFormat].
func ParseFormat(s string) (Format, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for _, f := range formats {
		if f.String() == name {
			return f, nil
		}
	}

	return DefaultFormat, ErrUnsupportedFormat.With(slog.String("format", s))
}

// FormatOf returns the format implied by the extension of path, or
// [DefaultFormat] if the extension is not recognized.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".bencode", ".benc", ".torrent":
		return FormatBencode
	default:
		return DefaultFormat
	}
}

type options struct {
	logger log.Logger
	format *Format
	indent int
}

// Option configures [Decode], [Encode], and [Load].
type Option func(options) options

func makeOptions(opts ...Option) options {
	o := options{indent: DefaultIndent}
	for _, opt := range opts {
		if opt != nil {
			o = opt(o)
		}
	}

	return o
}

// WithLogger returns an option that reports decoding and encoding progress
// to logger.
func WithLogger(logger log.Logger) Option {
	return func(o options) options {
		o.logger = logger

		return o
	}
}

// WithFormat returns an option that makes [Load] use f instead of the format
// implied by the file extension.
func WithFormat(f Format) Option {
	return func(o options) options {
		o.format = &f

		return o
	}
}

// WithIndent returns an option that sets the indentation width used by
// [Encode]. A width of zero or less produces compact JSON and flow-style
// YAML.
func WithIndent(width int) Option {
	return func(o options) options {
		o.indent = width

		return o
	}
}

// Load decodes the file at path into a root [Scope]. The path "-" reads
// standard input.
func Load(ctx context.Context, path string, opts ...Option) (*Scope, error) {
	o := makeOptions(opts...)

	f := FormatOf(path)
	if o.format != nil {
		f = *o.format
	}

	var r io.Reader = os.Stdin

	if path != "-" {
		file, err := os.Open(path)
		if err != nil {
			return nil, ErrDecode.Wrap(err).With(slog.String("path", path))
		}
		defer file.Close()

		ra := readahead.NewReader(file)
		defer ra.Close()

		r = ra
	}

	s, err := Decode(ctx, r, f, opts...)
	if err != nil {
		var e *Error
		if errors.As(err, &e) {
			return nil, e.With(slog.String("path", path))
		}

		return nil, err
	}

	return s, nil
}

// Decode reads a single document in format f from r and returns it as a
// root [Scope]. The document must be a mapping; its entries are stored in
// document order, with nested mappings decoded as [*Map] values.
//
// A document without entries decodes to an empty Scope.
func Decode(
	ctx context.Context,
	r io.Reader,
	f Format,
	opts ...Option,
) (*Scope, error) {
	if err := ctx.Err(); err != nil {
		return nil, ErrDecode.Wrap(err)
	}

	o := makeOptions(opts...)

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, ErrDecode.Wrap(err)
	}

	s := &Scope{}

	switch f {
	case FormatYAML, FormatJSON:
		err = s.UnmarshalYAML(data)

	case FormatBencode:
		err = decodeBencode(&s.Map, data)

	default:
		err = ErrUnsupportedFormat.With(slog.String("format", f.String()))
	}

	if err != nil {
		return nil, err
	}

	o.logger.DebugContext(ctx, "decoded source",
		slog.String("format", f.String()),
		slog.Int("bytes", len(data)),
		slog.Int("keys", s.Len()),
	)

	return s, nil
}

func decodeBencode(m *Map, data []byte) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	doc, err := bencode.Decode(bytes.NewReader(data))
	if err != nil {
		return ErrDecode.Wrap(err)
	}

	dict, ok := doc.(map[string]any)
	if !ok {
		return ErrDecode.With(slog.String("document", resultTypeName(doc)))
	}

	// bencode dictionaries carry no order beyond their sorted keys.
	if c, ok := fromDocument(dict).(*Map); ok {
		for k, v := range c.Items() {
			m.Set(k, v)
		}
	}

	return nil
}

// Encode writes v to w in format f. v is usually a [Container], but any
// value a container may hold is accepted. Reserved keys, including the
// parent link, are not written; only the entries stored in a container
// itself are encoded.
func Encode(
	ctx context.Context,
	w io.Writer,
	v any,
	f Format,
	opts ...Option,
) error {
	if err := ctx.Err(); err != nil {
		return ErrEncode.Wrap(err)
	}

	o := makeOptions(opts...)

	var (
		data []byte
		err  error
	)

	switch f {
	case FormatYAML:
		data, err = encodeYAML(ctx, v, o.indent)

	case FormatJSON:
		data, err = encodeJSON(v, o.indent)

	case FormatBencode:
		data, err = encodeBencode(v)

	case FormatNative:
		data = []byte(Text(v) + "\n")

	default:
		err = ErrUnsupportedFormat.With(slog.String("format", f.String()))
	}

	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return ErrEncode.Wrap(err)
	}

	o.logger.DebugContext(ctx, "encoded value",
		slog.String("format", f.String()),
		slog.Int("bytes", len(data)),
	)

	return nil
}

// document returns the value encoders marshal for v.
func document(v any) any {
	if c, ok := v.(Container); ok {
		return c.local()
	}

	return v
}

func encodeYAML(ctx context.Context, v any, indent int) ([]byte, error) {
	opts := []yaml.EncodeOption{yaml.Flow(indent <= 0)}
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	}

	data, err := yaml.MarshalContext(ctx, document(v), opts...)
	if err != nil {
		return nil, ErrEncode.Wrap(err)
	}

	return data, nil
}

func encodeJSON(v any, indent int) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	if indent > 0 {
		enc.SetIndent("", strings.Repeat(" ", indent))
	}

	if err := enc.Encode(document(v)); err != nil {
		return nil, ErrEncode.Wrap(err)
	}

	return buf.Bytes(), nil
}

func encodeBencode(v any) ([]byte, error) {
	b, err := bencodeValue(Native(v))
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := bencode.Marshal(&buf, b); err != nil {
		return nil, ErrEncode.Wrap(err)
	}

	return buf.Bytes(), nil
}

// bencodeValue restricts v to the value kinds bencode can represent:
// integers, byte strings, lists and dictionaries. Booleans become 0 or 1.
func bencodeValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))

		for k, e := range val {
			ev, err := bencodeValue(e)
			if err != nil {
				return nil, err
			}

			out[k] = ev
		}

		return out, nil

	case []any:
		out := make([]any, len(val))

		for i, e := range val {
			ev, err := bencodeValue(e)
			if err != nil {
				return nil, err
			}

			out[i] = ev
		}

		return out, nil

	case string:
		return val, nil

	case []byte:
		return string(val), nil

	case bool:
		if val {
			return int64(1), nil
		}

		return int64(0), nil
	}

	rv := reflect.ValueOf(v)

	switch {
	case rv.CanInt():
		return rv.Int(), nil

	case rv.CanUint() && rv.Uint() <= math.MaxInt64:
		return int64(rv.Uint()), nil

	default:
		return nil, ErrEncode.With(
			slog.String("format", FormatBencode.String()),
			slog.String("type", resultTypeName(v)),
		)
	}
}

// Chain links each scope to the one before it, so that scopes[i] becomes
// the parent of scopes[i+1], and returns the last scope. A parent link
// already stored in a linked scope is replaced. Chain returns nil when
// given no scopes.
func Chain(scopes ...*Scope) *Scope {
	var last *Scope

	for _, s := range scopes {
		if s == nil {
			continue
		}

		if last != nil {
			s.Set(ParentKey, last)
		}

		last = s
	}

	return last
}
