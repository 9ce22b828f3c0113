package config

// Config is the root configuration for Docent.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	LLM       ModelConfig     `yaml:"llm,omitempty"`
	TextAgent ModelConfig     `yaml:"textAgent,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
	Embedding EmbeddingConfig `yaml:"embedding,omitempty"`
	Index     IndexConfig     `yaml:"index,omitempty"`
	Rerank    RerankConfig    `yaml:"rerank,omitempty"`
	Chunking  ChunkingConfig  `yaml:"chunking,omitempty"`
	Cache     CacheConfig     `yaml:"cache,omitempty"`
	Agent     AgentConfig     `yaml:"agent,omitempty"`
	Logging   LoggingConfig   `yaml:"logging,omitempty"`
	Hooks     HooksConfig     `yaml:"hooks,omitempty"`
}

// ServerConfig controls the HTTP/WebSocket server.
type ServerConfig struct {
	Port           int        `yaml:"port,omitempty"`
	Bind           string     `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string     `yaml:"customBindHost,omitempty"`
	Auth           ServerAuth `yaml:"auth,omitempty"`
	MaxUploadBytes int64      `yaml:"maxUploadBytes,omitempty"`
	DocumentChars  int        `yaml:"documentChars,omitempty"`
	RequestTimeout int        `yaml:"requestTimeoutSeconds,omitempty"`
	AllowedOrigins []string   `yaml:"allowedOrigins,omitempty"`
}

// ServerAuth configures bearer-token authentication.
type ServerAuth struct {
	Token string `yaml:"token,omitempty"`
}

// ModelConfig selects a chat model. The decision model and the text agent
// are configured independently with the same shape.
type ModelConfig struct {
	Provider       string          `yaml:"provider,omitempty"` // "openai" | "deepseek" | "anthropic"
	BaseURL        string          `yaml:"baseUrl,omitempty"`
	APIKey         string          `yaml:"apiKey,omitempty"`
	Model          string          `yaml:"model,omitempty"`
	Temperature    *float64        `yaml:"temperature,omitempty"`
	MaxTokens      int             `yaml:"maxTokens,omitempty"`
	Retries        int             `yaml:"retries,omitempty"`
	TimeoutSeconds int             `yaml:"timeoutSeconds,omitempty"`
	Fallbacks      []FallbackModel `yaml:"fallbacks,omitempty"`
}

// FallbackModel is a secondary provider tried when the primary fails with
// a retryable error.
type FallbackModel struct {
	Provider string `yaml:"provider"`
	BaseURL  string `yaml:"baseUrl,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
	Model    string `yaml:"model"`
}

// SearchConfig configures the web search provider behind browsing.
type SearchConfig struct {
	Provider       string `yaml:"provider,omitempty"` // "brave" | "google" | "none"
	APIKey         string `yaml:"apiKey,omitempty"`
	CX             string `yaml:"cx,omitempty"`
	BaseURL        string `yaml:"baseUrl,omitempty"`
	MaxResults     int    `yaml:"maxResults,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// EmbeddingConfig configures the embedder used by ingestion and retrieval.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider,omitempty"` // "openai" | "ollama" | "hash"
	Model     string `yaml:"model,omitempty"`
	BaseURL   string `yaml:"baseUrl,omitempty"`
	APIKey    string `yaml:"apiKey,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
}

// IndexConfig selects the vector index backend.
type IndexConfig struct {
	Backend      string `yaml:"backend,omitempty"` // "memory" | "sqlite" | "qdrant" | "postgres"
	Name         string `yaml:"name,omitempty"`
	SQLitePath   string `yaml:"sqlitePath,omitempty"`
	QdrantURL    string `yaml:"qdrantUrl,omitempty"`
	QdrantAPIKey string `yaml:"qdrantApiKey,omitempty"`
	PostgresDSN  string `yaml:"postgresDsn,omitempty"`
}

// RerankConfig configures the reranker used by retrieval.
type RerankConfig struct {
	Provider string `yaml:"provider,omitempty"` // "http" | "lexical"
	URL      string `yaml:"url,omitempty"`
	APIKey   string `yaml:"apiKey,omitempty"`
	Model    string `yaml:"model,omitempty"`
	TopK     int    `yaml:"topK,omitempty"`
	TopN     int    `yaml:"topN,omitempty"`
}

// ChunkingConfig sizes the recursive text splitter.
type ChunkingConfig struct {
	Size    int `yaml:"size,omitempty"`
	Overlap int `yaml:"overlap,omitempty"`
}

// CacheConfig sizes the uploaded-document cache.
type CacheConfig struct {
	Capacity   int `yaml:"capacity,omitempty"`
	TTLSeconds int `yaml:"ttlSeconds,omitempty"`
}

// AgentConfig bounds the orchestration loop.
type AgentConfig struct {
	MaxRounds       int `yaml:"maxRounds,omitempty"`
	ToolConcurrency int `yaml:"toolConcurrency,omitempty"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level        string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
	File         string `yaml:"file,omitempty"`
	ConsoleStyle string `yaml:"consoleStyle,omitempty"` // "pretty" | "json"
}

// HooksConfig defines shell-command hooks per event.
type HooksConfig struct {
	DocumentUploaded []HookEntry `yaml:"documentUploaded,omitempty"`
	BeforeAgentRun   []HookEntry `yaml:"beforeAgentRun,omitempty"`
	AfterAgentRun    []HookEntry `yaml:"afterAgentRun,omitempty"`
	ToolInvoked      []HookEntry `yaml:"toolInvoked,omitempty"`
	ServerStart      []HookEntry `yaml:"serverStart,omitempty"`
	ServerStop       []HookEntry `yaml:"serverStop,omitempty"`
}

// HookEntry defines a single hook action.
type HookEntry struct {
	Command string `yaml:"command"`
	Timeout int    `yaml:"timeout,omitempty"` // milliseconds
}
