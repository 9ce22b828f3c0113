package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

var (
	validBinds          = []string{"loopback", "lan", "custom"}
	validModelProviders = []string{"openai", "deepseek", "anthropic"}
	validSearch         = []string{"brave", "google", "none"}
	validEmbedders      = []string{"openai", "ollama", "hash"}
	validBackends       = []string{"memory", "sqlite", "qdrant", "postgres"}
	validRerankers      = []string{"http", "lexical"}
	validLogLevels      = []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	validConsoleStyles  = []string{"pretty", "json"}
)

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue
	add := func(path, format string, args ...any) {
		issues = append(issues, ValidationIssue{Path: path, Message: fmt.Sprintf(format, args...)})
	}
	oneOf := func(path string, valid []string, got string) {
		if got != "" && !slices.Contains(valid, got) {
			add(path, "must be one of %v, got %q", valid, got)
		}
	}

	// Server validation
	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		add("server.port", "port must be 0-65535, got %d", cfg.Server.Port)
	}
	oneOf("server.bind", validBinds, cfg.Server.Bind)
	if cfg.Server.Bind == "custom" && cfg.Server.CustomBindHost == "" {
		add("server.customBindHost", "required when bind: custom")
	}
	if cfg.Server.MaxUploadBytes < 0 {
		add("server.maxUploadBytes", "must not be negative, got %d", cfg.Server.MaxUploadBytes)
	}
	if cfg.Server.DocumentChars < 0 {
		add("server.documentChars", "must not be negative, got %d", cfg.Server.DocumentChars)
	}

	// Model validation
	validateModel(&issues, "llm", cfg.LLM)
	validateModel(&issues, "textAgent", cfg.TextAgent)

	// Search validation
	oneOf("search.provider", validSearch, cfg.Search.Provider)
	if cfg.Search.Provider == "google" && cfg.Search.CX == "" {
		add("search.cx", "required when provider: google")
	}
	if cfg.Search.MaxResults < 0 {
		add("search.maxResults", "must not be negative, got %d", cfg.Search.MaxResults)
	}

	// Embedding and index validation
	oneOf("embedding.provider", validEmbedders, cfg.Embedding.Provider)
	if cfg.Embedding.Dimension < 0 {
		add("embedding.dimension", "must not be negative, got %d", cfg.Embedding.Dimension)
	}
	oneOf("index.backend", validBackends, cfg.Index.Backend)
	if cfg.Index.Backend == "qdrant" && cfg.Index.QdrantURL == "" {
		add("index.qdrantUrl", "required when backend: qdrant")
	}
	if cfg.Index.Backend == "postgres" && cfg.Index.PostgresDSN == "" {
		add("index.postgresDsn", "required when backend: postgres")
	}

	// Rerank validation
	oneOf("rerank.provider", validRerankers, cfg.Rerank.Provider)
	if cfg.Rerank.Provider == "http" && cfg.Rerank.URL == "" {
		add("rerank.url", "required when provider: http")
	}
	if cfg.Rerank.TopK < 0 || cfg.Rerank.TopN < 0 {
		add("rerank", "topK and topN must not be negative")
	}

	// Chunking validation
	if cfg.Chunking.Size < 0 {
		add("chunking.size", "must not be negative, got %d", cfg.Chunking.Size)
	}
	if cfg.Chunking.Overlap < 0 || (cfg.Chunking.Size > 0 && cfg.Chunking.Overlap >= cfg.Chunking.Size) {
		add("chunking.overlap", "must be between 0 and size (%d), got %d", cfg.Chunking.Size, cfg.Chunking.Overlap)
	}

	// Cache and agent validation
	if cfg.Cache.Capacity < 0 {
		add("cache.capacity", "must not be negative, got %d", cfg.Cache.Capacity)
	}
	if cfg.Cache.TTLSeconds < 0 {
		add("cache.ttlSeconds", "must not be negative, got %d", cfg.Cache.TTLSeconds)
	}
	if cfg.Agent.MaxRounds < 0 {
		add("agent.maxRounds", "must not be negative, got %d", cfg.Agent.MaxRounds)
	}
	if cfg.Agent.ToolConcurrency < 0 {
		add("agent.toolConcurrency", "must not be negative, got %d", cfg.Agent.ToolConcurrency)
	}

	// Logging validation
	oneOf("logging.level", validLogLevels, cfg.Logging.Level)
	oneOf("logging.consoleStyle", validConsoleStyles, cfg.Logging.ConsoleStyle)

	return issues
}

func validateModel(issues *[]ValidationIssue, prefix string, m ModelConfig) {
	if m.Provider != "" && !slices.Contains(validModelProviders, m.Provider) {
		*issues = append(*issues, ValidationIssue{
			Path:    prefix + ".provider",
			Message: fmt.Sprintf("must be one of %v, got %q", validModelProviders, m.Provider),
		})
	}
	if m.Temperature != nil && (*m.Temperature < 0 || *m.Temperature > 2) {
		*issues = append(*issues, ValidationIssue{
			Path:    prefix + ".temperature",
			Message: fmt.Sprintf("must be between 0 and 2, got %g", *m.Temperature),
		})
	}
	for i, fb := range m.Fallbacks {
		if !slices.Contains(validModelProviders, fb.Provider) {
			*issues = append(*issues, ValidationIssue{
				Path:    fmt.Sprintf("%s.fallbacks[%d].provider", prefix, i),
				Message: fmt.Sprintf("must be one of %v, got %q", validModelProviders, fb.Provider),
			})
		}
		if fb.Model == "" {
			*issues = append(*issues, ValidationIssue{
				Path:    fmt.Sprintf("%s.fallbacks[%d].model", prefix, i),
				Message: "model is required",
			})
		}
	}
}
