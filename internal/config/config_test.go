package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}

	if cfg.Audio.SampleRate != 16000 {
		t.Errorf("SampleRate = %d, want 16000", cfg.Audio.SampleRate)
	}
	if cfg.Turn.SilenceThreshold != 1000 {
		t.Errorf("SilenceThreshold = %f, want 1000", cfg.Turn.SilenceThreshold)
	}
	if cfg.Pause() != 1500*time.Millisecond {
		t.Errorf("Pause = %v, want 1.5s", cfg.Pause())
	}
	if cfg.MinUtterance() != 500*time.Millisecond {
		t.Errorf("MinUtterance = %v, want 500ms", cfg.MinUtterance())
	}
	if cfg.Server.MaxChunkBytes != 512*1024 {
		t.Errorf("MaxChunkBytes = %d, want 512KiB", cfg.Server.MaxChunkBytes)
	}
	if cfg.Generate.Model != "gpt-4o-mini" {
		t.Errorf("Model = %q", cfg.Generate.Model)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
server:
  addr: ":9000"
  max_chunk_bytes: 65536
turn:
  pause_seconds: 2.0
  silence_threshold: 500
synthesize:
  voice: Matthew
`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Addr = %q, want :9000", cfg.Server.Addr)
	}
	if cfg.Server.MaxChunkBytes != 65536 {
		t.Errorf("MaxChunkBytes = %d, want 65536", cfg.Server.MaxChunkBytes)
	}
	if cfg.Turn.PauseSeconds != 2.0 {
		t.Errorf("PauseSeconds = %f, want 2.0", cfg.Turn.PauseSeconds)
	}
	if cfg.Synthesize.Voice != "Matthew" {
		t.Errorf("Voice = %q, want Matthew", cfg.Synthesize.Voice)
	}
	// Untouched sections keep defaults
	if cfg.Transcribe.Language != "en-US" {
		t.Errorf("Language = %q, want en-US", cfg.Transcribe.Language)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load should fail for a missing explicit file")
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("VOICEBRIDGE_ADDR", ":7777")
	t.Setenv("VOICEBRIDGE_PAUSE_SECONDS", "3.5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Addr != ":7777" {
		t.Errorf("Addr = %q, want :7777", cfg.Server.Addr)
	}
	if cfg.Turn.PauseSeconds != 3.5 {
		t.Errorf("PauseSeconds = %f, want 3.5", cfg.Turn.PauseSeconds)
	}
	if cfg.Generate.APIKey != "sk-test" {
		t.Errorf("APIKey = %q, want sk-test", cfg.Generate.APIKey)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"negative threshold", func(c *Config) { c.Turn.SilenceThreshold = -1 }},
		{"zero pause", func(c *Config) { c.Turn.PauseSeconds = 0 }},
		{"zero chunk", func(c *Config) { c.Server.MaxChunkBytes = 0 }},
		{"empty language", func(c *Config) { c.Transcribe.Language = "" }},
		{"empty model", func(c *Config) { c.Generate.Model = "" }},
		{"zero tokens", func(c *Config) { c.Generate.MaxTokens = 0 }},
		{"empty voice", func(c *Config) { c.Synthesize.Voice = "" }},
	}

	for _, tc := range cases {
		cfg := defaults()
		tc.mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: Validate should fail", tc.name)
		}
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := defaults().Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}
