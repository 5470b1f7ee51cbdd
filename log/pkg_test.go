package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(Make(&buf, WithLevel(LevelTrace), WithFormat(FormatJSON)))

	tests := []struct {
		name  string
		fn    func(string, ...slog.Attr)
		level string
		msg   string
	}{
		{"Trace", Trace, "TRACE", "trace message"},
		{"Debug", Debug, "DEBUG", "debug message"},
		{"Info", Info, "INFO", "info message"},
		{"Warn", Warn, "WARN", "warn message"},
		{"Error", Error, "ERROR", "error message"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn(tt.msg, slog.String("key", "value"))

			output := buf.String()
			if !strings.Contains(output, tt.msg) {
				t.Errorf(
					"expected output to contain message %q, got: %s",
					tt.msg,
					output,
				)
			}
			if !strings.Contains(output, tt.level) {
				t.Errorf(
					"expected output to contain level %q, got: %s",
					tt.level,
					output,
				)
			}
			if !strings.Contains(output, `"key":"value"`) {
				t.Errorf("expected output to contain attribute, got: %s", output)
			}
		})
	}
}

func TestPackage_ContextFunctions_UseDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(Make(&buf))
	Config(WithLevel(LevelTrace))

	ctx := context.Background()

	TraceContext(ctx, "trace ctx")
	DebugContext(ctx, "debug ctx")
	InfoContext(ctx, "info ctx")
	WarnContext(ctx, "warn ctx")
	ErrorContext(ctx, "error ctx")

	output := buf.String()
	for _, msg := range []string{
		"trace ctx", "debug ctx", "info ctx", "warn ctx", "error ctx",
	} {
		if !strings.Contains(output, msg) {
			t.Errorf("expected output to contain %q, got: %s", msg, output)
		}
	}
}

func TestPackage_With_UsesDefaultLogger(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	var buf bytes.Buffer
	SetDefault(Make(&buf))

	With(slog.String("component", "loader")).Info("loaded")

	if !strings.Contains(buf.String(), `"component":"loader"`) {
		t.Errorf("expected attribute in output, got: %s", buf.String())
	}
}
