// Package config handles gateway configuration: an optional YAML file with
// environment overrides, validated once at startup. Missing or invalid
// settings are startup errors, never per-request recovery paths.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults match the reference deployment: 16 kHz PCM16 mono, a 1.5 s pause
// threshold and a 512 KiB transport chunk cap.
const (
	DefaultAddr             = ":8765"
	DefaultSampleRate       = 16000
	DefaultSilenceThreshold = 1000.0
	DefaultPauseSeconds     = 1.5
	DefaultMinUtteranceSecs = 0.5
	DefaultMaxChunkBytes    = 512 * 1024
	DefaultPingIntervalSecs = 20
	DefaultPingTimeoutSecs  = 10
)

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Audio      AudioConfig      `yaml:"audio"`
	Turn       TurnConfig       `yaml:"turn"`
	Transcribe TranscribeConfig `yaml:"transcribe"`
	Generate   GenerateConfig   `yaml:"generate"`
	Synthesize SynthesizeConfig `yaml:"synthesize"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig contains the websocket/HTTP listener settings.
type ServerConfig struct {
	Addr             string `yaml:"addr"`
	MaxChunkBytes    int    `yaml:"max_chunk_bytes"`
	PingIntervalSecs int    `yaml:"ping_interval_seconds"`
	PingTimeoutSecs  int    `yaml:"ping_timeout_seconds"`
}

// PingInterval returns the keepalive ping interval.
func (s ServerConfig) PingInterval() time.Duration {
	return time.Duration(s.PingIntervalSecs) * time.Second
}

// PingTimeout returns how long to wait for a pong.
func (s ServerConfig) PingTimeout() time.Duration {
	return time.Duration(s.PingTimeoutSecs) * time.Second
}

// AudioConfig describes the inbound PCM16 stream.
type AudioConfig struct {
	SampleRate int `yaml:"sample_rate"`
}

// TurnConfig holds the two independent silence tunables: the per-frame
// classifier threshold and the per-session pause threshold.
type TurnConfig struct {
	SilenceThreshold float64 `yaml:"silence_threshold"` // RMS, int16 scale
	PauseSeconds     float64 `yaml:"pause_seconds"`
	MinUtteranceSecs float64 `yaml:"min_utterance_seconds"`
}

// TranscribeConfig configures the Amazon Transcribe streaming collaborator.
type TranscribeConfig struct {
	Region        string `yaml:"region"`
	Language      string `yaml:"language"`
	MaxEventBytes int    `yaml:"max_event_bytes"`
}

// GenerateConfig configures the OpenAI chat collaborator. The API key is
// read from OPENAI_API_KEY only, never from the file.
type GenerateConfig struct {
	Model        string  `yaml:"model"`
	SystemPrompt string  `yaml:"system_prompt"`
	Temperature  float64 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	APIKey       string  `yaml:"-"`
}

// SynthesizeConfig configures the Amazon Polly collaborator.
type SynthesizeConfig struct {
	Region string `yaml:"region"`
	Voice  string `yaml:"voice"`
	Engine string `yaml:"engine"`
}

// LoggingConfig controls slog setup.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// Load reads path (optional; empty means defaults), applies environment
// overrides and validates. The returned config is immutable for the process
// lifetime.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:             DefaultAddr,
			MaxChunkBytes:    DefaultMaxChunkBytes,
			PingIntervalSecs: DefaultPingIntervalSecs,
			PingTimeoutSecs:  DefaultPingTimeoutSecs,
		},
		Audio: AudioConfig{SampleRate: DefaultSampleRate},
		Turn: TurnConfig{
			SilenceThreshold: DefaultSilenceThreshold,
			PauseSeconds:     DefaultPauseSeconds,
			MinUtteranceSecs: DefaultMinUtteranceSecs,
		},
		Transcribe: TranscribeConfig{
			Region:        "us-east-1",
			Language:      "en-US",
			MaxEventBytes: 8192,
		},
		Generate: GenerateConfig{
			Model:        "gpt-4o-mini",
			SystemPrompt: "You are a helpful assistant.",
			Temperature:  0.7,
			MaxTokens:    500,
		},
		Synthesize: SynthesizeConfig{
			Region: "us-east-1",
			Voice:  "Joanna",
			Engine: "neural",
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

func (c *Config) applyEnv() {
	c.Server.Addr = getEnv("VOICEBRIDGE_ADDR", c.Server.Addr)
	c.Audio.SampleRate = getEnvInt("VOICEBRIDGE_SAMPLE_RATE", c.Audio.SampleRate)
	c.Turn.SilenceThreshold = getEnvFloat("VOICEBRIDGE_SILENCE_THRESHOLD", c.Turn.SilenceThreshold)
	c.Turn.PauseSeconds = getEnvFloat("VOICEBRIDGE_PAUSE_SECONDS", c.Turn.PauseSeconds)
	c.Transcribe.Region = getEnv("AWS_REGION", c.Transcribe.Region)
	c.Synthesize.Region = getEnv("AWS_REGION", c.Synthesize.Region)
	c.Generate.APIKey = getEnv("OPENAI_API_KEY", c.Generate.APIKey)
	c.Logging.Level = getEnv("VOICEBRIDGE_LOG_LEVEL", c.Logging.Level)
}

// Validate fails fast on settings the session layer cannot run with.
func (c *Config) Validate() error {
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Turn.SilenceThreshold < 0 {
		return fmt.Errorf("turn silence_threshold must be non-negative, got %f", c.Turn.SilenceThreshold)
	}
	if c.Turn.PauseSeconds <= 0 {
		return fmt.Errorf("turn pause_seconds must be positive, got %f", c.Turn.PauseSeconds)
	}
	if c.Turn.MinUtteranceSecs < 0 {
		return fmt.Errorf("turn min_utterance_seconds must be non-negative, got %f", c.Turn.MinUtteranceSecs)
	}
	if c.Server.MaxChunkBytes <= 0 {
		return fmt.Errorf("server max_chunk_bytes must be positive, got %d", c.Server.MaxChunkBytes)
	}
	if c.Server.PingIntervalSecs <= 0 || c.Server.PingTimeoutSecs <= 0 {
		return fmt.Errorf("server ping settings must be positive")
	}
	if c.Transcribe.MaxEventBytes <= 0 {
		return fmt.Errorf("transcribe max_event_bytes must be positive, got %d", c.Transcribe.MaxEventBytes)
	}
	if c.Transcribe.Language == "" {
		return fmt.Errorf("transcribe language must be set")
	}
	if c.Generate.Model == "" {
		return fmt.Errorf("generate model must be set")
	}
	if c.Generate.MaxTokens <= 0 {
		return fmt.Errorf("generate max_tokens must be positive, got %d", c.Generate.MaxTokens)
	}
	if c.Synthesize.Voice == "" {
		return fmt.Errorf("synthesize voice must be set")
	}
	return nil
}

// Pause returns the pause threshold as a duration.
func (c *Config) Pause() time.Duration {
	return time.Duration(c.Turn.PauseSeconds * float64(time.Second))
}

// MinUtterance returns the minimum utterance floor as a duration.
func (c *Config) MinUtterance() time.Duration {
	return time.Duration(c.Turn.MinUtteranceSecs * float64(time.Second))
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
