package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		raw  string
		want zerolog.Level
		ok   bool
	}{
		{"", zerolog.InfoLevel, false},
		{"trace", zerolog.TraceLevel, true},
		{" DEBUG ", zerolog.DebugLevel, true},
		{"warning", zerolog.WarnLevel, true},
		{"error", zerolog.ErrorLevel, true},
		{"off", zerolog.Disabled, true},
		{"loud", zerolog.InfoLevel, false},
	}
	for _, tt := range tests {
		got, ok := parseLevel(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseLevel(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{"", false, false},
		{"true", true, true},
		{"0", false, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := parseBool(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseBool(%q) = %v, %v, want %v, %v", tt.raw, got, ok, tt.want, tt.ok)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvLogNoColor, "true")

	cfg := defaultConfig(ProfileRuntime)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.ErrorLevel {
		t.Errorf("Level = %v, want error", cfg.Level)
	}
	if !cfg.NoColor || !cfg.Timestamp {
		t.Errorf("cfg = %+v, want NoColor and Timestamp", cfg)
	}
}

func TestInvalidEnvIgnored(t *testing.T) {
	t.Setenv(EnvLogLevel, "chatty")
	t.Setenv(EnvLogNoColor, "sometimes")

	cfg := defaultConfig(ProfileTest)
	applyEnvOverrides(&cfg)
	if cfg.Level != zerolog.DebugLevel || cfg.NoColor || cfg.Timestamp {
		t.Errorf("cfg = %+v, want test defaults", cfg)
	}
}

func TestNewLoggerFiltersLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, Config{Level: zerolog.WarnLevel, NoColor: true})

	logger.Info().Msg("hidden")
	logger.Warn().Int("layer", 3).Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %q", out)
	}
	if !strings.Contains(out, "shown") || !strings.Contains(out, "layer=3") {
		t.Errorf("output = %q, want warn message with layer field", out)
	}
}
