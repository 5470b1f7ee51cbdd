package cli

import (
	"strings"
	"testing"

	"github.com/alecthomas/kong"
)

func loadResolver(t *testing.T, doc string) kong.Resolver {
	t.Helper()

	r, err := resolve(t.Context(), baseConfig)(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}

	return r
}

func TestResolver_Resolve(t *testing.T) {
	doc := `
log-level: warn
log_format: text
log-caller: true
depth: 3
ratio: 0.5
config:
  log-level: debug
  log_time_layout: none
`
	r := loadResolver(t, doc)

	tests := []struct {
		flag string
		want any
	}{
		{"log-level", "debug"},
		{"log-format", "text"},
		{"log-caller", true},
		{"log-time-layout", "none"},
		{"depth", "3"},
		{"ratio", "0.5"},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: tt.flag}})
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}

			if got != tt.want {
				t.Errorf("Resolve() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestResolver_InvalidDocument(t *testing.T) {
	r := loadResolver(t, "key: [unterminated")

	got, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "key"}})
	if err != nil || got != nil {
		t.Errorf("Resolve() = %v, %v; want nil, nil", got, err)
	}

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestResolver_SectionNotMapping(t *testing.T) {
	r := loadResolver(t, "config: scalar\nlog-level: error\n")

	got, _ := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: "log-level"}})
	if got != "error" {
		t.Errorf("Resolve() = %#v, want %q", got, "error")
	}
}
