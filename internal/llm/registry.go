package llm

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/logging"
)

// ProviderError is returned when an LLM provider fails.
type ProviderError struct {
	Provider string
	Message  string
	Code     int // HTTP-like status code (401, 429, 500, etc.)
}

func (e *ProviderError) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s: %d %s", e.Provider, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// Registry manages chat provider clients and resolves model references to clients.
type Registry struct {
	mu       sync.RWMutex
	clients  map[string]Client // provider name → client
	aliases  map[string]string // model alias → provider name
	fallback string            // default provider name
	log      *logging.Logger
}

// NewRegistry creates an empty provider registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		aliases: make(map[string]string),
		log:     log.Sub("llm.registry"),
	}
}

// Register adds a client under the given provider name.
func (r *Registry) Register(name string, client Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clients[name] = client
	r.log.Info().Str("provider", name).Msg("registered LLM provider")
}

// Alias maps a model name/alias to a provider entry.
// e.g., Alias("deepseek-chat", "deepseek:deepseek-chat").
func (r *Registry) Alias(model, provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.aliases[model] = provider
}

// SetFallback sets the default provider used when no model/provider match is found.
func (r *Registry) SetFallback(provider string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fallback = provider
}

// Resolve returns the Client for the given model reference.
// Resolution order: exact provider name → alias → fallback.
func (r *Registry) Resolve(model string) (Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	// Direct provider name match
	if c, ok := r.clients[model]; ok {
		return c, nil
	}

	// Alias lookup
	if provider, ok := r.aliases[model]; ok {
		if c, ok := r.clients[provider]; ok {
			return c, nil
		}
	}

	// Fallback
	if r.fallback != "" {
		if c, ok := r.clients[r.fallback]; ok {
			return c, nil
		}
	}

	return nil, fmt.Errorf("no LLM provider for model %q", model)
}

// List returns all registered provider names, sorted.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.clients))
	for n := range r.clients {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NewProviderClient builds a chat client for a single provider entry.
func NewProviderClient(provider, baseURL, apiKey, model string, maxTokens int, httpClient *http.Client) (Client, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "openai":
		return NewOpenAIClient(OpenAIOptions{
			Name: "openai", APIKey: apiKey, BaseURL: baseURL, Model: model,
			MaxTokens: maxTokens, HTTPClient: httpClient,
		}), nil
	case "deepseek":
		if baseURL == "" {
			baseURL = DeepSeekBaseURL
		}
		return NewOpenAIClient(OpenAIOptions{
			Name: "deepseek", APIKey: apiKey, BaseURL: baseURL, Model: model,
			MaxTokens: maxTokens, HTTPClient: httpClient,
		}), nil
	case "anthropic":
		return NewAnthropicClient(AnthropicOptions{
			APIKey: apiKey, BaseURL: baseURL, Model: model,
			MaxTokens: maxTokens, HTTPClient: httpClient,
		}), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", provider)
	}
}

// ProviderKey names a registry entry for a provider/model pair.
func ProviderKey(provider, model string) string {
	return provider + ":" + model
}

// NewRegistryFromConfig registers the primary model and every fallback of a
// model section. It returns the registry and the entry keys in failover
// order, primary first. The primary also becomes the registry fallback.
func NewRegistryFromConfig(cfg config.ModelConfig, httpClient *http.Client, log *logging.Logger) (*Registry, []string, error) {
	reg := NewRegistry(log)

	primary, err := NewProviderClient(cfg.Provider, cfg.BaseURL, cfg.APIKey, cfg.Model, cfg.MaxTokens, httpClient)
	if err != nil {
		return nil, nil, err
	}
	key := ProviderKey(cfg.Provider, cfg.Model)
	reg.Register(key, primary)
	reg.Alias(cfg.Model, key)
	reg.SetFallback(key)
	order := []string{key}

	for _, fb := range cfg.Fallbacks {
		client, err := NewProviderClient(fb.Provider, fb.BaseURL, fb.APIKey, fb.Model, cfg.MaxTokens, httpClient)
		if err != nil {
			return nil, nil, fmt.Errorf("fallback %s: %w", fb.Model, err)
		}
		fbKey := ProviderKey(fb.Provider, fb.Model)
		reg.Register(fbKey, client)
		reg.Alias(fb.Model, fbKey)
		order = append(order, fbKey)
	}

	return reg, order, nil
}
