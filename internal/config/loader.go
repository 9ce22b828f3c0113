package config

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so keys and tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.Server.Auth.Token = expandEnvVars(cfg.Server.Auth.Token)
	expandModel(&cfg.LLM)
	expandModel(&cfg.TextAgent)
	cfg.Search.APIKey = expandEnvVars(cfg.Search.APIKey)
	cfg.Search.CX = expandEnvVars(cfg.Search.CX)
	cfg.Embedding.APIKey = expandEnvVars(cfg.Embedding.APIKey)
	cfg.Index.QdrantAPIKey = expandEnvVars(cfg.Index.QdrantAPIKey)
	cfg.Index.PostgresDSN = expandEnvVars(cfg.Index.PostgresDSN)
	cfg.Rerank.APIKey = expandEnvVars(cfg.Rerank.APIKey)
}

func expandModel(m *ModelConfig) {
	m.APIKey = expandEnvVars(m.APIKey)
	for i := range m.Fallbacks {
		m.Fallbacks[i].APIKey = expandEnvVars(m.Fallbacks[i].APIKey)
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env files into the
// process environment. Variables already set are not overwritten and
// missing files are ignored.
func LoadDotEnv(paths ...string) error {
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return &ConfigError{Message: "failed to load env file: " + err.Error()}
	}
	return nil
}

// Load reads the config file, applies environment overrides, and returns
// a merged Config. Missing files produce defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}

// LoadRaw reads the config file into a generic map for path-based access.
func LoadRaw(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]any{}, nil
		}
		return nil, err
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}
	return raw, nil
}

// applyDefaults fills zero-value fields with sensible defaults. A YAML file
// that names a section replaces the whole struct, so every field is checked.
func applyDefaults(cfg *Config) {
	d := Defaults()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = d.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = d.Server.Bind
	}
	if cfg.Server.MaxUploadBytes == 0 {
		cfg.Server.MaxUploadBytes = d.Server.MaxUploadBytes
	}
	if cfg.Server.DocumentChars == 0 {
		cfg.Server.DocumentChars = d.Server.DocumentChars
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = d.Server.RequestTimeout
	}

	applyModelDefaults(&cfg.LLM, d.LLM)
	if cfg.LLM.Temperature == nil {
		zero := 0.0
		cfg.LLM.Temperature = &zero
	}
	applyModelDefaults(&cfg.TextAgent, d.TextAgent)

	if cfg.Search.Provider == "" {
		cfg.Search.Provider = d.Search.Provider
	}
	if cfg.Search.MaxResults == 0 {
		cfg.Search.MaxResults = d.Search.MaxResults
	}
	if cfg.Search.TimeoutSeconds == 0 {
		cfg.Search.TimeoutSeconds = d.Search.TimeoutSeconds
	}

	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = d.Embedding.Provider
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = d.Embedding.Model
	}
	if cfg.Embedding.Dimension == 0 {
		cfg.Embedding.Dimension = d.Embedding.Dimension
	}

	if cfg.Index.Backend == "" {
		cfg.Index.Backend = d.Index.Backend
	}
	if cfg.Index.Name == "" {
		cfg.Index.Name = d.Index.Name
	}

	if cfg.Rerank.Provider == "" {
		cfg.Rerank.Provider = d.Rerank.Provider
	}
	if cfg.Rerank.TopK == 0 {
		cfg.Rerank.TopK = d.Rerank.TopK
	}
	if cfg.Rerank.TopN == 0 {
		cfg.Rerank.TopN = d.Rerank.TopN
	}

	if cfg.Chunking.Size == 0 {
		cfg.Chunking.Size = d.Chunking.Size
	}
	if cfg.Chunking.Overlap == 0 {
		cfg.Chunking.Overlap = d.Chunking.Overlap
	}

	if cfg.Cache.Capacity == 0 {
		cfg.Cache.Capacity = d.Cache.Capacity
	}
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = d.Cache.TTLSeconds
	}

	if cfg.Agent.MaxRounds == 0 {
		cfg.Agent.MaxRounds = d.Agent.MaxRounds
	}
	if cfg.Agent.ToolConcurrency == 0 {
		cfg.Agent.ToolConcurrency = d.Agent.ToolConcurrency
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = d.Logging.Level
	}
	if cfg.Logging.ConsoleStyle == "" {
		cfg.Logging.ConsoleStyle = d.Logging.ConsoleStyle
	}
}

func applyModelDefaults(m *ModelConfig, d ModelConfig) {
	if m.Provider == "" {
		m.Provider = d.Provider
		if m.BaseURL == "" {
			m.BaseURL = d.BaseURL
		}
	}
	if m.Model == "" {
		m.Model = d.Model
	}
	if m.MaxTokens == 0 {
		m.MaxTokens = d.MaxTokens
	}
	if m.Retries == 0 {
		m.Retries = d.Retries
	}
	if m.TimeoutSeconds == 0 {
		m.TimeoutSeconds = d.TimeoutSeconds
	}
}

// applyEnvOverrides reads DOCENT_* environment variables and overrides config values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DOCENT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("DOCENT_BIND"); v != "" {
		cfg.Server.Bind = v
	}
	if v := os.Getenv("DOCENT_AUTH_TOKEN"); v != "" {
		cfg.Server.Auth.Token = v
	}
	if v := os.Getenv("DOCENT_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := firstEnv("DOCENT_LLM_API_KEY", "DEEPSEEK_API_KEY"); v != "" && cfg.LLM.APIKey == "" {
		cfg.LLM.APIKey = v
	}
	if v := firstEnv("DOCENT_TEXT_AGENT_API_KEY", "DOCENT_LLM_API_KEY", "DEEPSEEK_API_KEY"); v != "" && cfg.TextAgent.APIKey == "" {
		cfg.TextAgent.APIKey = v
	}
	if v := firstEnv("DOCENT_SEARCH_API_KEY", "BRAVE_API_KEY"); v != "" && cfg.Search.APIKey == "" {
		cfg.Search.APIKey = v
	}
	if v := os.Getenv("DOCENT_SEARCH_PROVIDER"); v != "" {
		cfg.Search.Provider = v
	}
	if v := os.Getenv("DOCENT_EMBEDDING_PROVIDER"); v != "" {
		cfg.Embedding.Provider = v
	}
	if v := os.Getenv("DOCENT_INDEX_BACKEND"); v != "" {
		cfg.Index.Backend = v
	}
	if v := os.Getenv("DOCENT_QDRANT_URL"); v != "" {
		cfg.Index.QdrantURL = v
	}
	if v := os.Getenv("DOCENT_POSTGRES_DSN"); v != "" {
		cfg.Index.PostgresDSN = v
	}
	if v := os.Getenv("DOCENT_MAX_ROUNDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Agent.MaxRounds = n
		}
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

// SaveRaw writes a generic map back to a YAML config file.
func SaveRaw(path string, raw map[string]any) error {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
