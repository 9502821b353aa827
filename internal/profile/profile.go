package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server and the ingestion pipeline.
type Profile struct {
	// Embedding configuration (OpenAI-compatible protocol)
	// All providers (openai, siliconflow, ollama) use the same config.
	EmbeddingProvider   string // Provider identifier: openai, siliconflow, ollama
	EmbeddingModel      string // Model name: text-embedding-ada-002, BAAI/bge-m3, etc.
	EmbeddingAPIKey     string
	EmbeddingBaseURL    string // Optional, has default per provider
	EmbeddingDimensions int    // Vector dimension (default: 1536)

	// LLM configuration, used for abstract summarization
	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMTimeout  int // Request timeout in seconds (default: 120)

	// Index configuration
	IndexName string // Vector index name (default: papers)
	TopK      int    // Default number of search results (default: 5)

	// Server / storage configuration
	Mode    string
	Addr    string
	Port    int
	Data    string
	Driver  string // postgres or sqlite
	DSN     string
	Version string

	// SummaryEnabled turns on the summary namespace during ingestion.
	SummaryEnabled bool
}

// Provider default configurations for embedding and LLM services.
// Used when the corresponding BASE_URL is not explicitly set.
var providerDefaults = map[string]struct {
	BaseURL string
}{
	"openai":      {BaseURL: "https://api.openai.com/v1"},
	"siliconflow": {BaseURL: "https://api.siliconflow.cn/v1"},
	"ollama":      {BaseURL: "http://localhost:11434"},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsSummaryEnabled returns true if summaries are enabled and an LLM API key is configured.
func (p *Profile) IsSummaryEnabled() bool {
	return p.SummaryEnabled && p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Embedding configuration
	p.EmbeddingProvider = getEnvOrDefault("PAPERSEEK_EMBEDDING_PROVIDER", "openai")
	p.EmbeddingModel = getEnvOrDefault("PAPERSEEK_EMBEDDING_MODEL", "text-embedding-ada-002")
	p.EmbeddingAPIKey = getEnvOrDefault("PAPERSEEK_EMBEDDING_API_KEY", os.Getenv("OPENAI_API_KEY"))
	p.EmbeddingBaseURL = getEnvOrDefault("PAPERSEEK_EMBEDDING_BASE_URL", "")
	p.EmbeddingDimensions = getEnvOrDefaultInt("PAPERSEEK_EMBEDDING_DIMENSIONS", 1536)

	// LLM configuration (summarization)
	p.LLMProvider = getEnvOrDefault("PAPERSEEK_LLM_PROVIDER", "openai")
	p.LLMModel = getEnvOrDefault("PAPERSEEK_LLM_MODEL", "gpt-4o-mini")
	p.LLMAPIKey = getEnvOrDefault("PAPERSEEK_LLM_API_KEY", os.Getenv("OPENAI_API_KEY"))
	p.LLMBaseURL = getEnvOrDefault("PAPERSEEK_LLM_BASE_URL", "")
	p.LLMTimeout = getEnvOrDefaultInt("PAPERSEEK_LLM_TIMEOUT_SECONDS", 120)

	// Index configuration
	p.IndexName = getEnvOrDefault("PAPERSEEK_INDEX_NAME", "papers")
	p.TopK = getEnvOrDefaultInt("PAPERSEEK_TOP_K", 5)

	// Apply provider defaults if base URL not explicitly set
	if p.EmbeddingBaseURL == "" {
		if defaults, ok := providerDefaults[p.EmbeddingProvider]; ok {
			p.EmbeddingBaseURL = defaults.BaseURL
		} else {
			slog.Warn("unknown embedding provider, no base URL default applied", "provider", p.EmbeddingProvider)
		}
	}
	if p.LLMBaseURL == "" {
		if defaults, ok := providerDefaults[p.LLMProvider]; ok {
			p.LLMBaseURL = defaults.BaseURL
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "dev"
	}

	if p.Driver != "postgres" && p.Driver != "sqlite" {
		return errors.Errorf("unsupported database driver %q (postgres, sqlite)", p.Driver)
	}

	if p.EmbeddingProvider != "ollama" && p.EmbeddingAPIKey == "" {
		return errors.New("embedding API key is required (PAPERSEEK_EMBEDDING_API_KEY or OPENAI_API_KEY)")
	}

	if p.EmbeddingDimensions <= 0 {
		return errors.Errorf("invalid embedding dimensions: %d", p.EmbeddingDimensions)
	}

	if p.TopK <= 0 {
		return errors.Errorf("invalid top_k: %d", p.TopK)
	}

	if p.IndexName == "" {
		return errors.New("index name cannot be empty")
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "paperseek")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/paperseek"
		}
	}

	if p.Driver == "sqlite" {
		if p.Data == "" {
			p.Data = "."
		}
		dataDir, err := checkDataDir(p.Data)
		if err != nil {
			slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
			return err
		}
		p.Data = dataDir
		if p.DSN == "" {
			dbFile := fmt.Sprintf("paperseek_%s.db", p.Mode)
			p.DSN = filepath.Join(dataDir, dbFile)
		}
	}

	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver (PAPERSEEK_DSN)")
	}

	return nil
}
