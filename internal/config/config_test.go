package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sandevgo/teammate/internal/core"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Memory.MaxRecentMessages != 10 {
		t.Errorf("expected default window of 10, got %d", cfg.Memory.MaxRecentMessages)
	}
	if cfg.AI.Persona.Name != "Theo" {
		t.Errorf("expected default persona, got %q", cfg.AI.Persona.Name)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
memory:
  max_recent_messages: 3
ai:
  persona:
    name: Iris
    role: Product Lead
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Memory.MaxRecentMessages != 3 {
		t.Errorf("expected 3, got %d", cfg.Memory.MaxRecentMessages)
	}
	if cfg.AI.Persona.Name != "Iris" {
		t.Errorf("expected Iris, got %q", cfg.AI.Persona.Name)
	}
	// Untouched sections keep their defaults.
	if cfg.Speech.SampleRate != 16000 {
		t.Errorf("expected default sample rate, got %d", cfg.Speech.SampleRate)
	}
}

func TestLoad_UnknownKeyFails(t *testing.T) {
	path := writeConfig(t, "memory:\n  max_recent_mesages: 5\n")
	_, err := Load(path)
	var cfgErr *core.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %v", err)
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero sample rate", "speech:\n  sample_rate: 0\n"},
		{"bad temperature", "ai:\n  model:\n    temperature: 3.5\n"},
		{"unknown tts provider", "tts:\n  provider: festival\n"},
		{"unknown metric", "memory:\n  vector_db:\n    metric: dotproduct\n"},
		{"default language missing from map", "speech:\n  default_language: Klingon\n"},
		{"bad search depth", "ai:\n  search:\n    depth: exhaustive\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.yaml))
			var cfgErr *core.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected ConfigError, got %v", err)
			}
		})
	}
}

func TestCredentials_StatusNeverExposesValues(t *testing.T) {
	c := &Credentials{OpenAIAPIKey: "sk-secret", TavilyAPIKey: ""}
	status := c.Status()
	if !status["OpenAI"] {
		t.Error("expected OpenAI key to be reported present")
	}
	if status["Tavily"] {
		t.Error("expected Tavily key to be reported absent")
	}
}
