package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandevgo/teammate/internal/core"
)

// Config is the full application configuration, loaded once at startup and
// passed by reference to every component. Credentials live in env only.
type Config struct {
	Speech  SpeechConfig  `yaml:"speech"`
	TTS     TTSConfig     `yaml:"tts"`
	AI      AIConfig      `yaml:"ai"`
	Memory  MemoryConfig  `yaml:"memory"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
	Session SessionConfig `yaml:"session"`
}

type SpeechConfig struct {
	SampleRate      int               `yaml:"sample_rate"`
	ChunkSeconds    int               `yaml:"chunk_seconds"`
	LanguageCodes   map[string]string `yaml:"language_codes"`
	DefaultLanguage string            `yaml:"default_language"`
}

type TTSConfig struct {
	Provider        string  `yaml:"provider"`
	VoiceID         string  `yaml:"voice_id"`
	ModelID         string  `yaml:"model_id"`
	Stability       float64 `yaml:"stability"`
	SimilarityBoost float64 `yaml:"similarity_boost"`
	Speed           float64 `yaml:"speed"`
}

type AIConfig struct {
	Model     ModelConfig     `yaml:"model"`
	Persona   PersonaConfig   `yaml:"persona"`
	Search    SearchConfig    `yaml:"search"`
	Embedding EmbeddingConfig `yaml:"embedding"`
}

type ModelConfig struct {
	Provider       string  `yaml:"provider"`
	Name           string  `yaml:"name"`
	Temperature    float32 `yaml:"temperature"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds int     `yaml:"timeout_seconds"`
}

type PersonaConfig struct {
	Name              string   `yaml:"name"`
	Role              string   `yaml:"role"`
	PersonalityTraits []string `yaml:"personality_traits"`
	FallbackReply     string   `yaml:"fallback_reply"`
}

type SearchConfig struct {
	Enabled        bool     `yaml:"enabled"`
	Depth          string   `yaml:"depth"`
	MaxResults     int      `yaml:"max_results"`
	IncludeDomains []string `yaml:"include_domains"`
	ExcludeDomains []string `yaml:"exclude_domains"`
}

type EmbeddingConfig struct {
	Model string `yaml:"model"`
}

type MemoryConfig struct {
	MaxRecentMessages int            `yaml:"max_recent_messages"`
	MaxReferences     int            `yaml:"max_references"`
	MinSimilarity     float32        `yaml:"min_similarity"`
	VectorDB          VectorDBConfig `yaml:"vector_db"`
}

type VectorDBConfig struct {
	PersistDirectory     string `yaml:"persist_directory"`
	Metric               string `yaml:"metric"`
	MaxElements          int    `yaml:"max_elements"`
	FlushIntervalSeconds int    `yaml:"flush_interval_seconds"`
}

type UIConfig struct {
	AccentColor      string `yaml:"accent_color"`
	SpeakerColor     string `yaml:"speaker_color"`
	PersonaColor     string `yaml:"persona_color"`
	ReferenceColor   string `yaml:"reference_color"`
	TranscriptHeight int    `yaml:"transcript_height"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type SessionConfig struct {
	Speaker                 string `yaml:"speaker"`
	AutosaveIntervalSeconds int    `yaml:"autosave_interval_seconds"`
}

// Default returns the baseline configuration the YAML file is decoded over,
// so a sparse file only has to mention what it changes.
func Default() *Config {
	return &Config{
		Speech: SpeechConfig{
			SampleRate:      16000,
			ChunkSeconds:    2,
			LanguageCodes:   map[string]string{"English": "en"},
			DefaultLanguage: "English",
		},
		TTS: TTSConfig{
			Provider:        "openai",
			VoiceID:         "alloy",
			ModelID:         "tts-1",
			Stability:       0.5,
			SimilarityBoost: 0.75,
			Speed:           1.0,
		},
		AI: AIConfig{
			Model: ModelConfig{
				Provider:       "openai",
				Name:           "gpt-4o",
				Temperature:    0.7,
				MaxTokens:      1024,
				TimeoutSeconds: 30,
			},
			Persona: PersonaConfig{
				Name:              "Theo",
				Role:              "Technical Advisor",
				PersonalityTraits: []string{"analytical", "supportive", "curious", "professional"},
				FallbackReply:     "Sorry, I lost my train of thought there. Could you say that again?",
			},
			Search: SearchConfig{
				Enabled:    true,
				Depth:      "advanced",
				MaxResults: 5,
			},
			Embedding: EmbeddingConfig{
				Model: "text-embedding-3-small",
			},
		},
		Memory: MemoryConfig{
			MaxRecentMessages: 10,
			MaxReferences:     5,
			MinSimilarity:     0.5,
			VectorDB: VectorDBConfig{
				PersistDirectory:     "vector_db",
				Metric:               "cosine",
				MaxElements:          10000,
				FlushIntervalSeconds: 300,
			},
		},
		UI: UIConfig{
			AccentColor:      "6",
			SpeakerColor:     "2",
			PersonaColor:     "5",
			ReferenceColor:   "8",
			TranscriptHeight: 16,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Session: SessionConfig{
			Speaker:                 "Human",
			AutosaveIntervalSeconds: 300,
		},
	}
}

// Load reads path over the defaults and validates eagerly. A missing file is
// not an error; everything else fails fast with a ConfigError.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, &core.ConfigError{Section: "file", Reason: err.Error()}
	}

	if err := unmarshalStrict(data, cfg); err != nil {
		return nil, &core.ConfigError{Section: "file", Reason: err.Error()}
	}

	return cfg, cfg.Validate()
}

// unmarshalStrict decodes YAML rejecting unknown keys.
func unmarshalStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Speech.SampleRate <= 0 {
		return &core.ConfigError{Section: "speech", Key: "sample_rate", Reason: "must be positive"}
	}
	if c.Speech.ChunkSeconds <= 0 {
		return &core.ConfigError{Section: "speech", Key: "chunk_seconds", Reason: "must be positive"}
	}
	if len(c.Speech.LanguageCodes) == 0 {
		return &core.ConfigError{Section: "speech", Key: "language_codes", Reason: "at least one language required"}
	}
	if _, ok := c.Speech.LanguageCodes[c.Speech.DefaultLanguage]; !ok {
		return &core.ConfigError{Section: "speech", Key: "default_language", Reason: fmt.Sprintf("%q not in language_codes", c.Speech.DefaultLanguage)}
	}

	switch c.TTS.Provider {
	case "openai", "elevenlabs":
	default:
		return &core.ConfigError{Section: "tts", Key: "provider", Reason: fmt.Sprintf("unknown provider %q", c.TTS.Provider)}
	}

	switch c.AI.Model.Provider {
	case "openai", "azure":
	default:
		return &core.ConfigError{Section: "ai", Key: "model.provider", Reason: fmt.Sprintf("unknown provider %q", c.AI.Model.Provider)}
	}
	if c.AI.Model.Name == "" {
		return &core.ConfigError{Section: "ai", Key: "model.name", Reason: "required"}
	}
	if c.AI.Model.Temperature < 0 || c.AI.Model.Temperature > 2 {
		return &core.ConfigError{Section: "ai", Key: "model.temperature", Reason: "must be in [0, 2]"}
	}
	if c.AI.Model.MaxTokens <= 0 {
		return &core.ConfigError{Section: "ai", Key: "model.max_tokens", Reason: "must be positive"}
	}
	if c.AI.Model.TimeoutSeconds <= 0 {
		return &core.ConfigError{Section: "ai", Key: "model.timeout_seconds", Reason: "must be positive"}
	}
	if c.AI.Persona.Name == "" {
		return &core.ConfigError{Section: "ai", Key: "persona.name", Reason: "required"}
	}
	if c.AI.Search.Enabled {
		if c.AI.Search.Depth != "basic" && c.AI.Search.Depth != "advanced" {
			return &core.ConfigError{Section: "ai", Key: "search.depth", Reason: `must be "basic" or "advanced"`}
		}
		if c.AI.Search.MaxResults <= 0 {
			return &core.ConfigError{Section: "ai", Key: "search.max_results", Reason: "must be positive"}
		}
	}
	if c.AI.Embedding.Model == "" {
		return &core.ConfigError{Section: "ai", Key: "embedding.model", Reason: "required"}
	}

	if c.Memory.MaxRecentMessages <= 0 {
		return &core.ConfigError{Section: "memory", Key: "max_recent_messages", Reason: "must be positive"}
	}
	if c.Memory.MaxReferences < 0 {
		return &core.ConfigError{Section: "memory", Key: "max_references", Reason: "must not be negative"}
	}
	if c.Memory.MinSimilarity < 0 || c.Memory.MinSimilarity > 1 {
		return &core.ConfigError{Section: "memory", Key: "min_similarity", Reason: "must be in [0, 1]"}
	}
	if c.Memory.VectorDB.Metric != "cosine" {
		return &core.ConfigError{Section: "memory", Key: "vector_db.metric", Reason: `only "cosine" is supported`}
	}
	if c.Memory.VectorDB.MaxElements <= 0 {
		return &core.ConfigError{Section: "memory", Key: "vector_db.max_elements", Reason: "must be positive"}
	}
	if c.Memory.VectorDB.FlushIntervalSeconds <= 0 {
		return &core.ConfigError{Section: "memory", Key: "vector_db.flush_interval_seconds", Reason: "must be positive"}
	}

	if c.Session.AutosaveIntervalSeconds <= 0 {
		return &core.ConfigError{Section: "session", Key: "autosave_interval_seconds", Reason: "must be positive"}
	}

	return nil
}

func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.AI.Model.TimeoutSeconds) * time.Second
}

func (c *Config) FlushInterval() time.Duration {
	return time.Duration(c.Memory.VectorDB.FlushIntervalSeconds) * time.Second
}

func (c *Config) AutosaveInterval() time.Duration {
	return time.Duration(c.Session.AutosaveIntervalSeconds) * time.Second
}

func (c *Config) ChunkDuration() time.Duration {
	return time.Duration(c.Speech.ChunkSeconds) * time.Second
}

// Persona converts the persona section into the runtime type.
func (c *Config) Persona() core.Persona {
	return core.Persona{
		Name:   c.AI.Persona.Name,
		Role:   c.AI.Persona.Role,
		Traits: c.AI.Persona.PersonalityTraits,
	}
}

// Voice converts the tts section into the runtime type.
func (c *Config) Voice() core.VoiceParams {
	return core.VoiceParams{
		VoiceID:         c.TTS.VoiceID,
		ModelID:         c.TTS.ModelID,
		Stability:       c.TTS.Stability,
		SimilarityBoost: c.TTS.SimilarityBoost,
		Speed:           c.TTS.Speed,
	}
}
