package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	zero := 0.0
	return Config{
		Server: ServerConfig{
			Port:           8000,
			Bind:           "loopback",
			MaxUploadBytes: 5 * 1024 * 1024,
			DocumentChars:  3000,
			RequestTimeout: 120,
		},
		LLM: ModelConfig{
			Provider:       "deepseek",
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			Temperature:    &zero,
			MaxTokens:      1024,
			Retries:        2,
			TimeoutSeconds: 60,
		},
		TextAgent: ModelConfig{
			Provider:       "deepseek",
			BaseURL:        "https://api.deepseek.com/v1",
			Model:          "deepseek-chat",
			MaxTokens:      1024,
			Retries:        2,
			TimeoutSeconds: 60,
		},
		Search: SearchConfig{
			Provider:       "brave",
			MaxResults:     5,
			TimeoutSeconds: 15,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "text-embedding-3-small",
			Dimension: 384,
		},
		Index: IndexConfig{
			Backend: "memory",
			Name:    "doc-index",
		},
		Rerank: RerankConfig{
			Provider: "lexical",
			TopK:     5,
			TopN:     5,
		},
		Chunking: ChunkingConfig{
			Size:    500,
			Overlap: 100,
		},
		Cache: CacheConfig{
			Capacity:   100,
			TTLSeconds: 3600,
		},
		Agent: AgentConfig{
			MaxRounds:       8,
			ToolConcurrency: 4,
		},
		Logging: LoggingConfig{
			Level:        "info",
			ConsoleStyle: "pretty",
		},
	}
}
