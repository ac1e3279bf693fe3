package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"tutor-rag/internal/models"
)

// Subject filter modes. Hard excludes non-matching chunks, soft only
// demotes them in the ranking.
const (
	FilterModeHard = "hard"
	FilterModeSoft = "soft"
)

// Duration accepts "30s" style values in YAML, or a bare number of
// seconds.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("failed to parse duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var seconds int64
	if err := value.Decode(&seconds); err != nil {
		return fmt.Errorf("failed to parse duration: %w", err)
	}
	*d = Duration(time.Duration(seconds) * time.Second)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type PipelineConfig struct {
	ChunkSize       int      `yaml:"chunk_size"`
	ChunkOverlap    int      `yaml:"chunk_overlap"`
	MaxHistory      int      `yaml:"max_history"`
	TopK            int      `yaml:"top_k"`
	EmbeddingDim    int      `yaml:"embedding_dim"`
	BackendTimeout  Duration `yaml:"backend_timeout"`
	FallbackPenalty float64  `yaml:"fallback_penalty"`
	ContextBudget   int      `yaml:"context_budget"`
	SubjectFilter   string   `yaml:"subject_filter"`
}

type EmbedderConfig struct {
	Provider string `yaml:"provider"` // local, openai, ollama
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type BackendConfig struct {
	Name     string `yaml:"name"`
	Provider string `yaml:"provider"` // scripted, openai, ollama
	BaseURL  string `yaml:"base_url"`
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

type StoreConfig struct {
	Type       string `yaml:"type"` // chromem, postgres
	Path       string `yaml:"path"`
	Collection string `yaml:"collection"`
	DSN        string `yaml:"dsn"`
	Password   string `yaml:"password"`
	Debug      bool   `yaml:"debug"`
}

type Config struct {
	Pipeline PipelineConfig  `yaml:"pipeline"`
	Embedder EmbedderConfig  `yaml:"embedder"`
	Backends []BackendConfig `yaml:"backends"`
	Store    StoreConfig     `yaml:"store"`
}

// Default returns a configuration that works with no external services:
// local hash embedder, scripted backend, in-memory chromem store. The
// numeric defaults match the tutor's documented behavior (1000/200
// chunking, 10-turn history, top-4 retrieval).
func Default() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			ChunkSize:       1000,
			ChunkOverlap:    200,
			MaxHistory:      10,
			TopK:            4,
			EmbeddingDim:    256,
			BackendTimeout:  Duration(30 * time.Second),
			FallbackPenalty: 0.2,
			ContextBudget:   1024,
			SubjectFilter:   FilterModeHard,
		},
		Embedder: EmbedderConfig{Provider: "local"},
		Backends: []BackendConfig{{Name: "scripted", Provider: "scripted"}},
		Store:    StoreConfig{Type: "chromem", Collection: "curriculum"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate enforces the documented bounds for every setting consumed by
// the pipeline. Construction fails on the first violation.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.ChunkSize <= 0:
		return fmt.Errorf("%w: chunk_size must be > 0, got %d", models.ErrInvalidConfig, p.ChunkSize)
	case p.ChunkOverlap <= 0:
		return fmt.Errorf("%w: chunk_overlap must be > 0, got %d", models.ErrInvalidConfig, p.ChunkOverlap)
	case p.ChunkOverlap >= p.ChunkSize:
		return fmt.Errorf("%w: chunk_overlap %d must be smaller than chunk_size %d", models.ErrInvalidConfig, p.ChunkOverlap, p.ChunkSize)
	case p.MaxHistory <= 0:
		return fmt.Errorf("%w: max_history must be > 0, got %d", models.ErrInvalidConfig, p.MaxHistory)
	case p.TopK <= 0:
		return fmt.Errorf("%w: top_k must be > 0, got %d", models.ErrInvalidConfig, p.TopK)
	case p.EmbeddingDim <= 0:
		return fmt.Errorf("%w: embedding_dim must be > 0, got %d", models.ErrInvalidConfig, p.EmbeddingDim)
	case p.BackendTimeout <= 0:
		return fmt.Errorf("%w: backend_timeout must be > 0, got %s", models.ErrInvalidConfig, p.BackendTimeout.Std())
	case p.FallbackPenalty < 0 || p.FallbackPenalty > 1:
		return fmt.Errorf("%w: fallback_penalty must be in [0,1], got %g", models.ErrInvalidConfig, p.FallbackPenalty)
	case p.ContextBudget <= 0:
		return fmt.Errorf("%w: context_budget must be > 0, got %d", models.ErrInvalidConfig, p.ContextBudget)
	}
	if p.SubjectFilter != FilterModeHard && p.SubjectFilter != FilterModeSoft {
		return fmt.Errorf("%w: subject_filter must be %q or %q, got %q", models.ErrInvalidConfig, FilterModeHard, FilterModeSoft, p.SubjectFilter)
	}
	if len(c.Backends) == 0 {
		return fmt.Errorf("%w: at least one generation backend is required", models.ErrInvalidConfig)
	}
	return nil
}
