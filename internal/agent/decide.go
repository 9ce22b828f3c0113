package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/soyeahso/docent/internal/domain"
	"github.com/soyeahso/docent/internal/llm"
)

// ErrDecision wraps every failure of the decision model. A run that fails
// with it produced no answer.
var ErrDecision = errors.New("agent decision failed")

// decide asks the decision model for the next assistant message.
func (r *Runner) decide(ctx context.Context, state *domain.ConversationState) (domain.Message, llm.Usage, error) {
	temperature := r.cfg.Temperature
	if temperature == nil {
		temperature = llm.Temperature(0)
	}
	req := llm.CompletionRequest{
		System: BuildSystemPrompt(PromptConfig{
			DocumentText: state.DocumentText(),
			ExtraPrompt:  r.cfg.ExtraPrompt,
		}),
		Messages:    toLLMMessages(state.History()),
		Tools:       r.tools.Definitions(),
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: temperature,
	}

	resp, err := r.client.Complete(ctx, req)
	if err != nil {
		return domain.Message{}, llm.Usage{}, fmt.Errorf("%w: %w", ErrDecision, err)
	}

	calls := make([]domain.ToolCall, len(resp.ToolCalls))
	for i, tc := range resp.ToolCalls {
		calls[i] = domain.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}
	}
	assignCallIDs(calls, state.Round)
	return domain.Assistant(resp.Content, calls...), resp.Usage, nil
}

// assignCallIDs gives every call a unique id, replacing missing or repeated
// ids so results can be matched back.
func assignCallIDs(calls []domain.ToolCall, round int) {
	seen := make(map[string]bool, len(calls))
	for i := range calls {
		if calls[i].ID == "" || seen[calls[i].ID] {
			calls[i].ID = fmt.Sprintf("call_%d_%d", round, i)
		}
		seen[calls[i].ID] = true
	}
}

// toLLMMessages converts the run history to the provider-neutral format.
func toLLMMessages(history []domain.Message) []llm.Message {
	out := make([]llm.Message, 0, len(history))
	for _, m := range history {
		switch m.Role {
		case domain.RoleUser:
			out = append(out, llm.Message{Role: llm.RoleUser, Content: m.Content})
		case domain.RoleAssistant:
			msg := llm.Message{Role: llm.RoleAssistant, Content: m.Content}
			for _, c := range m.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, llm.ToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments})
			}
			out = append(out, msg)
		case domain.RoleTool:
			out = append(out, llm.Message{
				Role:       llm.RoleTool,
				Content:    m.Content,
				ToolCallID: m.ToolCallID,
				Name:       m.Name,
			})
		}
	}
	return out
}
