package agent

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/docent/internal/domain"
	"github.com/soyeahso/docent/internal/hooks"
)

// UnknownToolMessage is the result of a call naming no registered tool.
func UnknownToolMessage(name string, available []string) string {
	return fmt.Sprintf("Incorrect tool name %q, please retry and select a tool from the list of available tools: %s",
		name, strings.Join(available, ", "))
}

// ToolFailedMessage is the result of a call whose tool returned an error.
func ToolFailedMessage(name string, err error) string {
	return fmt.Sprintf("Tool %s failed: %v", name, err)
}

// execute runs every call of one assistant message and returns exactly one
// tool result per call, in call order. Calls to Writer tools run first and
// sequentially. The remaining calls then run concurrently up to
// ToolConcurrency. Nothing here fails the run.
func (r *Runner) execute(ctx context.Context, state *domain.ConversationState, calls []domain.ToolCall, emit EventFunc) []domain.Message {
	names := make([]string, len(calls))
	for i, c := range calls {
		names[i] = c.Name
	}
	r.log.Info().Strs("tools", names).Int("round", state.Round+1).Msg("executing tool calls")

	results := make([]domain.Message, len(calls))
	var rest []int
	for i, call := range calls {
		if tool, ok := r.tools.Get(call.Name); !ok || !writes(tool) {
			rest = append(rest, i)
			continue
		}
		emit(Event{Type: EventToolStart, Round: state.Round + 1, Tool: call.Name, CallID: call.ID})
		results[i] = domain.ToolResult(call, r.invoke(ctx, state, call))
	}

	var g errgroup.Group
	g.SetLimit(r.concurrency())
	for _, i := range rest {
		call := calls[i]
		emit(Event{Type: EventToolStart, Round: state.Round + 1, Tool: call.Name, CallID: call.ID})
		g.Go(func() error {
			results[i] = domain.ToolResult(call, r.invoke(ctx, state, call))
			return nil
		})
	}
	_ = g.Wait()

	for i, call := range calls {
		emit(Event{Type: EventToolResult, Round: state.Round + 1, Tool: call.Name, CallID: call.ID, Content: results[i].Content})
	}
	return results
}

// invoke runs one call and renders any failure as text.
func (r *Runner) invoke(ctx context.Context, state *domain.ConversationState, call domain.ToolCall) (content string) {
	tool, ok := r.tools.Get(call.Name)
	if !ok {
		r.log.Warn().Str("tool", call.Name).Msg("model requested unknown tool")
		return UnknownToolMessage(call.Name, r.tools.Names())
	}

	defer func() {
		if p := recover(); p != nil {
			r.log.Error().
				Str("tool", call.Name).
				Interface("panic", p).
				Bytes("stack", debug.Stack()).
				Msg("tool panicked")
			content = ToolFailedMessage(call.Name, fmt.Errorf("panic: %v", p))
		}
	}()

	args := make(map[string]any, len(call.Arguments))
	for k, v := range call.Arguments {
		args[k] = v
	}
	if _, ok := args["user_id"]; ok {
		args["user_id"] = state.UserID()
	}

	out, err := tool.Execute(ctx, Invocation{
		Args:         args,
		UserID:       state.UserID(),
		DocumentText: state.DocumentText(),
	})
	r.hooks.EmitAsync(ctx, hooks.EventToolInvoked, map[string]any{
		"tool":    call.Name,
		"user_id": state.UserID(),
		"failed":  err != nil,
	})
	if err != nil {
		r.log.Warn().Str("tool", call.Name).Err(err).Msg("tool failed")
		return ToolFailedMessage(call.Name, err)
	}
	return out
}

func (r *Runner) concurrency() int {
	if r.cfg.ToolConcurrency > 0 {
		return r.cfg.ToolConcurrency
	}
	return 4
}
