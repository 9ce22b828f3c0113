package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/soyeahso/docent/internal/llm"
	"github.com/soyeahso/docent/internal/logging"
)

// FailoverClient wraps an LLM registry to try fallback providers on failure.
// It satisfies llm.Client.
type FailoverClient struct {
	registry *llm.Registry
	order    []string
	log      *logging.Logger
}

// NewFailoverClient creates a client that tries the registry entries in
// order, moving on after retryable errors (401, 403, 429, 5xx).
func NewFailoverClient(registry *llm.Registry, order []string, log *logging.Logger) *FailoverClient {
	return &FailoverClient{
		registry: registry,
		order:    order,
		log:      log.Sub("failover"),
	}
}

func (f *FailoverClient) Name() string {
	if len(f.order) == 0 {
		return "failover"
	}
	return f.order[0]
}

// Complete tries the primary provider, falling back on retryable errors.
// Each entry answers with its own configured model.
func (f *FailoverClient) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if len(f.order) == 0 {
		return nil, fmt.Errorf("no LLM providers configured")
	}
	req.Model = ""

	var lastErr error
	for _, key := range f.order {
		client, err := f.registry.Resolve(key)
		if err != nil {
			f.log.Debug().Str("provider", key).Err(err).Msg("no provider for entry, skipping")
			lastErr = err
			continue
		}

		resp, err := client.Complete(ctx, req)
		if err == nil {
			return resp, nil
		}

		lastErr = err

		if ctx.Err() == nil && isRetryable(err) {
			f.log.Warn().
				Str("provider", key).
				Err(err).
				Msg("retryable error, trying next provider")
			continue
		}

		// Non-retryable error, stop here.
		return nil, err
	}

	return nil, lastErr
}

// isRetryable checks if the error suggests trying another provider.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	var provErr *llm.ProviderError
	if errors.As(err, &provErr) {
		switch provErr.Code {
		case 401, 403, 429, 500, 502, 503, 529:
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "overloaded") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "capacity") ||
		strings.Contains(msg, "timeout")
}
