package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issuePaths(issues []ValidationIssue) []string {
	var paths []string
	for _, i := range issues {
		paths = append(paths, i.Path)
	}
	return paths
}

func TestValidate_ValidDefaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := Defaults()

	cfg.Server.Port = -1
	issues := Validate(&cfg)
	require.NotEmpty(t, issues)
	assert.Equal(t, "server.port", issues[0].Path)

	cfg.Server.Port = 70000
	assert.NotEmpty(t, Validate(&cfg))
}

func TestValidate_Enumerations(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"bind", func(c *Config) { c.Server.Bind = "tailnet" }, "server.bind"},
		{"llm provider", func(c *Config) { c.LLM.Provider = "gemini" }, "llm.provider"},
		{"text agent provider", func(c *Config) { c.TextAgent.Provider = "cohere" }, "textAgent.provider"},
		{"search", func(c *Config) { c.Search.Provider = "duckduckgo" }, "search.provider"},
		{"embedding", func(c *Config) { c.Embedding.Provider = "pinecone" }, "embedding.provider"},
		{"backend", func(c *Config) { c.Index.Backend = "pinecone" }, "index.backend"},
		{"rerank", func(c *Config) { c.Rerank.Provider = "bge" }, "rerank.provider"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "logging.level"},
		{"console style", func(c *Config) { c.Logging.ConsoleStyle = "compact" }, "logging.consoleStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Contains(t, issuePaths(Validate(&cfg)), tt.path)
		})
	}
}

func TestValidate_RequiredByChoice(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{"custom bind", func(c *Config) { c.Server.Bind = "custom" }, "server.customBindHost"},
		{"google cx", func(c *Config) { c.Search.Provider = "google" }, "search.cx"},
		{"qdrant url", func(c *Config) { c.Index.Backend = "qdrant" }, "index.qdrantUrl"},
		{"postgres dsn", func(c *Config) { c.Index.Backend = "postgres" }, "index.postgresDsn"},
		{"rerank url", func(c *Config) { c.Rerank.Provider = "http" }, "rerank.url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			assert.Contains(t, issuePaths(Validate(&cfg)), tt.path)
		})
	}
}

func TestValidate_ChunkOverlap(t *testing.T) {
	cfg := Defaults()
	cfg.Chunking.Overlap = cfg.Chunking.Size
	assert.Contains(t, issuePaths(Validate(&cfg)), "chunking.overlap")

	cfg.Chunking.Overlap = 0
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Temperature(t *testing.T) {
	cfg := Defaults()
	hot := 3.5
	cfg.TextAgent.Temperature = &hot
	assert.Contains(t, issuePaths(Validate(&cfg)), "textAgent.temperature")
}

func TestValidate_Fallbacks(t *testing.T) {
	cfg := Defaults()
	cfg.LLM.Fallbacks = []FallbackModel{{Provider: "nope"}}
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "llm.fallbacks[0].provider")
	assert.Contains(t, paths, "llm.fallbacks[0].model")
}

func TestValidate_Negatives(t *testing.T) {
	cfg := Defaults()
	cfg.Cache.Capacity = -1
	cfg.Agent.MaxRounds = -2
	paths := issuePaths(Validate(&cfg))
	assert.Contains(t, paths, "cache.capacity")
	assert.Contains(t, paths, "agent.maxRounds")
}

func TestValidationIssueString(t *testing.T) {
	issue := ValidationIssue{Path: "server.port", Message: "bad"}
	assert.Equal(t, "server.port: bad", issue.String())
}
