package llm

import (
	"context"
	"fmt"
	"testing"

	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silentLog() *logging.Logger {
	return logging.New(nil, "silent")
}

// --- Registry tests ---

func TestRegistryRegisterAndResolve(t *testing.T) {
	reg := NewRegistry(silentLog())

	mock := &MockClient{ProviderName: "test-provider"}
	reg.Register("test-provider", mock)

	client, err := reg.Resolve("test-provider")
	require.NoError(t, err)
	assert.Equal(t, "test-provider", client.Name())
}

func TestRegistryAlias(t *testing.T) {
	reg := NewRegistry(silentLog())

	mock := &MockClient{ProviderName: "deepseek"}
	reg.Register("deepseek:deepseek-chat", mock)
	reg.Alias("deepseek-chat", "deepseek:deepseek-chat")
	reg.Alias("chat", "deepseek:deepseek-chat")

	client, err := reg.Resolve("deepseek-chat")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", client.Name())

	client, err = reg.Resolve("chat")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", client.Name())
}

func TestRegistryFallback(t *testing.T) {
	reg := NewRegistry(silentLog())

	mock := &MockClient{ProviderName: "default-llm"}
	reg.Register("default-llm", mock)
	reg.SetFallback("default-llm")

	// Unknown model should resolve to fallback
	client, err := reg.Resolve("unknown-model-xyz")
	require.NoError(t, err)
	assert.Equal(t, "default-llm", client.Name())
}

func TestRegistryResolveNotFound(t *testing.T) {
	reg := NewRegistry(silentLog())

	_, err := reg.Resolve("nonexistent")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no LLM provider")
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry(silentLog())
	reg.Register("b", &MockClient{ProviderName: "b"})
	reg.Register("a", &MockClient{ProviderName: "a"})

	assert.Equal(t, []string{"a", "b"}, reg.List())
}

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := config.ModelConfig{
		Provider: "deepseek",
		Model:    "deepseek-chat",
		Fallbacks: []config.FallbackModel{
			{Provider: "anthropic", Model: "claude-haiku-4-5"},
			{Provider: "openai", Model: "gpt-4o-mini"},
		},
	}
	reg, order, err := NewRegistryFromConfig(cfg, nil, silentLog())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"deepseek:deepseek-chat",
		"anthropic:claude-haiku-4-5",
		"openai:gpt-4o-mini",
	}, order)

	client, err := reg.Resolve("claude-haiku-4-5")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", client.Name())

	client, err = reg.Resolve("something-else")
	require.NoError(t, err)
	assert.Equal(t, "deepseek", client.Name())
}

func TestNewRegistryFromConfigUnknownProvider(t *testing.T) {
	_, _, err := NewRegistryFromConfig(config.ModelConfig{Provider: "gemini", Model: "x"}, nil, silentLog())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown LLM provider")
}

// --- MockClient tests ---

func TestMockClientComplete(t *testing.T) {
	mock := &MockClient{
		ProviderName: "test",
		CompleteFunc: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
			return &CompletionResponse{
				Content: "The answer is 42",
				Usage:   Usage{InputTokens: 10, OutputTokens: 5},
			}, nil
		},
	}

	resp, err := mock.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: RoleUser, Content: "What is the answer?"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "The answer is 42", resp.Content)
	assert.Equal(t, 10, resp.Usage.InputTokens)
	require.Len(t, mock.Requests(), 1)
}

func TestMockClientCompleteError(t *testing.T) {
	mock := &MockClient{
		ProviderName: "test",
		CompleteFunc: func(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
			return nil, &ProviderError{Provider: "test", Message: "rate limited", Code: 429}
		},
	}

	_, err := mock.Complete(context.Background(), CompletionRequest{})
	assert.Error(t, err)

	var provErr *ProviderError
	assert.ErrorAs(t, err, &provErr)
	assert.Equal(t, 429, provErr.Code)
}

func TestMockClientDefaultComplete(t *testing.T) {
	mock := &MockClient{ProviderName: "default"}
	resp, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	assert.Equal(t, "mock response", resp.Content)
}

func TestScript(t *testing.T) {
	mock := &MockClient{CompleteFunc: Script(
		&CompletionResponse{Content: "first"},
		&CompletionResponse{Content: "second"},
	)}

	r1, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	r2, err := mock.Complete(context.Background(), CompletionRequest{})
	require.NoError(t, err)
	_, err = mock.Complete(context.Background(), CompletionRequest{})

	assert.Equal(t, "first", r1.Content)
	assert.Equal(t, "second", r2.Content)
	assert.Error(t, err)
}

func TestProviderErrorFormat(t *testing.T) {
	tests := []struct {
		err  ProviderError
		want string
	}{
		{ProviderError{Provider: "a", Message: "fail", Code: 500}, "a: 500 fail"},
		{ProviderError{Provider: "b", Message: "oops"}, "b: oops"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error(), fmt.Sprintf("%+v", tt.err))
	}
}

func TestUsageAdd(t *testing.T) {
	u := Usage{InputTokens: 1, OutputTokens: 2}
	u.Add(Usage{InputTokens: 10, OutputTokens: 20})
	assert.Equal(t, Usage{InputTokens: 11, OutputTokens: 22}, u)
}

func TestParseArguments(t *testing.T) {
	assert.Equal(t, map[string]any{"query": "lstm"}, parseArguments(`{"query":"lstm"}`))
	assert.Equal(t, map[string]any{}, parseArguments(""))
	assert.Equal(t, map[string]any{}, parseArguments("{not json"))
	assert.Equal(t, map[string]any{}, parseArguments(`["a"]`))
}
