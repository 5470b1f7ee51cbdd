package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestEnvName(t *testing.T) {
	got := envName("config")

	if !strings.HasSuffix(got, "_CONFIG_DIR") {
		t.Errorf("envName(config) = %q, want suffix _CONFIG_DIR", got)
	}

	if strings.ContainsAny(got, "-.") || got != strings.ToUpper(got) {
		t.Errorf("envName(config) = %q, want an upper-case identifier", got)
	}
}

func TestUserDir(t *testing.T) {
	system := t.TempDir()
	override := t.TempDir()

	tests := []struct {
		name   string
		env    string
		system func() (string, error)
		want   string
	}{
		{
			name:   "system",
			system: func() (string, error) { return system, nil },
			want:   filepath.Join(system, basePrefix()),
		},
		{
			name:   "environment wins",
			env:    override,
			system: func() (string, error) { return system, nil },
			want:   override,
		},
		{
			name:   "home fallback",
			system: func() (string, error) { return "", errors.New("unset") },
			want:   filepath.Join("home", ".test", basePrefix()),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(envName("test"), tt.env)
			t.Setenv("HOME", "home")

			if got := userDir("test", tt.system, ".test"); got != tt.want {
				t.Errorf("userDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigPath(t *testing.T) {
	got := configPath(baseConfig + ".yaml")

	if filepath.Base(got) != "config.yaml" || filepath.Dir(got) != configDir() {
		t.Errorf("configPath() = %q, want config.yaml in %q", got, configDir())
	}
}
