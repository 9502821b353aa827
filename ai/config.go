package ai

import (
	"errors"

	"github.com/hrygo/paperseek/internal/profile"
)

// Config represents AI service configuration.
type Config struct {
	Embedding      EmbeddingConfig
	LLM            LLMConfig
	SummaryEnabled bool
}

// EmbeddingConfig represents vector embedding configuration.
type EmbeddingConfig struct {
	Provider   string
	Model      string
	APIKey     string
	BaseURL    string
	Dimensions int
}

// LLMConfig represents LLM configuration for abstract summarization.
type LLMConfig struct {
	Provider    string // openai, siliconflow, ollama
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int     // default: 512
	Temperature float32 // default: 0.3
	Timeout     int     // Request timeout in seconds (default: 120)
}

// NewConfigFromProfile creates AI config from profile.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		SummaryEnabled: p.IsSummaryEnabled(),
	}

	cfg.Embedding = EmbeddingConfig{
		Provider:   p.EmbeddingProvider,
		Model:      p.EmbeddingModel,
		APIKey:     p.EmbeddingAPIKey,
		BaseURL:    p.EmbeddingBaseURL,
		Dimensions: p.EmbeddingDimensions,
	}

	// Summaries are short; a small token budget and low temperature keep
	// them cheap and stable across re-ingestion runs.
	cfg.LLM = LLMConfig{
		Provider:    p.LLMProvider,
		Model:       p.LLMModel,
		APIKey:      p.LLMAPIKey,
		BaseURL:     p.LLMBaseURL,
		MaxTokens:   512,
		Temperature: 0.3,
		Timeout:     p.LLMTimeout,
	}

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}

	if c.Embedding.Provider != "ollama" && c.Embedding.APIKey == "" {
		return errors.New("embedding API key is required")
	}

	if c.Embedding.Dimensions <= 0 {
		return errors.New("embedding dimensions must be positive")
	}

	if c.SummaryEnabled {
		if c.LLM.Model == "" {
			return errors.New("LLM model is required when summaries are enabled")
		}
		if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
			return errors.New("LLM API key is required when summaries are enabled")
		}
	}

	return nil
}
