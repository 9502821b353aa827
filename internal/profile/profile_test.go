package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"EmbeddingProvider default", "openai", profile.EmbeddingProvider},
		{"EmbeddingModel default", "text-embedding-ada-002", profile.EmbeddingModel},
		{"EmbeddingBaseURL default", "https://api.openai.com/v1", profile.EmbeddingBaseURL},
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMModel default", "gpt-4o-mini", profile.LLMModel},
		{"IndexName default", "papers", profile.IndexName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.EmbeddingDimensions != 1536 {
		t.Errorf("EmbeddingDimensions: expected 1536, got %d", profile.EmbeddingDimensions)
	}
	if profile.TopK != 5 {
		t.Errorf("TopK: expected 5, got %d", profile.TopK)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "embedding API key",
			envVar:   "PAPERSEEK_EMBEDDING_API_KEY",
			envValue: "test-embedding-key",
			field:    func(p *Profile) string { return p.EmbeddingAPIKey },
			expected: "test-embedding-key",
		},
		{
			name:     "embedding base URL override",
			envVar:   "PAPERSEEK_EMBEDDING_BASE_URL",
			envValue: "http://localhost:8080/v1",
			field:    func(p *Profile) string { return p.EmbeddingBaseURL },
			expected: "http://localhost:8080/v1",
		},
		{
			name:     "siliconflow provider gets base URL default",
			envVar:   "PAPERSEEK_EMBEDDING_PROVIDER",
			envValue: "siliconflow",
			field:    func(p *Profile) string { return p.EmbeddingBaseURL },
			expected: "https://api.siliconflow.cn/v1",
		},
		{
			name:     "index name override",
			envVar:   "PAPERSEEK_INDEX_NAME",
			envValue: "papers-staging",
			field:    func(p *Profile) string { return p.IndexName },
			expected: "papers-staging",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name    string
		profile *Profile
		wantErr bool
	}{
		{
			name: "valid postgres profile",
			profile: &Profile{
				Mode: "dev", Driver: "postgres", DSN: "postgres://localhost/paperseek",
				EmbeddingAPIKey: "k", EmbeddingDimensions: 1536, TopK: 5, IndexName: "papers",
				EmbeddingProvider: "openai",
			},
			wantErr: false,
		},
		{
			name: "postgres without dsn",
			profile: &Profile{
				Mode: "dev", Driver: "postgres",
				EmbeddingAPIKey: "k", EmbeddingDimensions: 1536, TopK: 5, IndexName: "papers",
				EmbeddingProvider: "openai",
			},
			wantErr: true,
		},
		{
			name: "unknown driver",
			profile: &Profile{
				Mode: "dev", Driver: "mysql", DSN: "x",
				EmbeddingAPIKey: "k", EmbeddingDimensions: 1536, TopK: 5, IndexName: "papers",
				EmbeddingProvider: "openai",
			},
			wantErr: true,
		},
		{
			name: "missing embedding API key",
			profile: &Profile{
				Mode: "dev", Driver: "postgres", DSN: "x",
				EmbeddingDimensions: 1536, TopK: 5, IndexName: "papers",
				EmbeddingProvider: "openai",
			},
			wantErr: true,
		},
		{
			name: "ollama provider needs no API key",
			profile: &Profile{
				Mode: "dev", Driver: "postgres", DSN: "x",
				EmbeddingDimensions: 1536, TopK: 5, IndexName: "papers",
				EmbeddingProvider: "ollama",
			},
			wantErr: false,
		},
		{
			name: "invalid top_k",
			profile: &Profile{
				Mode: "dev", Driver: "postgres", DSN: "x",
				EmbeddingAPIKey: "k", EmbeddingDimensions: 1536, TopK: 0, IndexName: "papers",
				EmbeddingProvider: "openai",
			},
			wantErr: true,
		},
		{
			name: "empty index name",
			profile: &Profile{
				Mode: "dev", Driver: "postgres", DSN: "x",
				EmbeddingAPIKey: "k", EmbeddingDimensions: 1536, TopK: 5,
				EmbeddingProvider: "openai",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(): expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestIsSummaryEnabled(t *testing.T) {
	p := &Profile{SummaryEnabled: true}
	if p.IsSummaryEnabled() {
		t.Error("IsSummaryEnabled should be false without an LLM API key")
	}
	p.LLMAPIKey = "test-key"
	if !p.IsSummaryEnabled() {
		t.Error("IsSummaryEnabled should be true with flag and key set")
	}
	p.SummaryEnabled = false
	if p.IsSummaryEnabled() {
		t.Error("IsSummaryEnabled should be false when the flag is off")
	}
}

// clearEnvVars clears all paperseek environment variables used by FromEnv.
func clearEnvVars() {
	suffixes := []string{
		"EMBEDDING_PROVIDER",
		"EMBEDDING_MODEL",
		"EMBEDDING_API_KEY",
		"EMBEDDING_BASE_URL",
		"EMBEDDING_DIMENSIONS",
		"LLM_PROVIDER",
		"LLM_MODEL",
		"LLM_API_KEY",
		"LLM_BASE_URL",
		"LLM_TIMEOUT_SECONDS",
		"INDEX_NAME",
		"TOP_K",
	}
	for _, suffix := range suffixes {
		os.Unsetenv("PAPERSEEK_" + suffix)
	}
	os.Unsetenv("OPENAI_API_KEY")
}
