// Package agent runs the decide/execute loop that answers one user request
// about an uploaded document.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/soyeahso/docent/internal/domain"
	"github.com/soyeahso/docent/internal/hooks"
	"github.com/soyeahso/docent/internal/llm"
	"github.com/soyeahso/docent/internal/logging"
)

// RoundsExhaustedMessage opens the answer of a run that hit its round limit.
const RoundsExhaustedMessage = "I could not finish this request within the allowed number of tool rounds."

// Phase is a state of the orchestration loop.
type Phase string

const (
	PhaseDeciding  Phase = "deciding"
	PhaseExecuting Phase = "executing"
	PhaseDone      Phase = "done"
)

// Event types delivered to an EventFunc.
const (
	EventDecision   = "decision"
	EventToolStart  = "tool_start"
	EventToolResult = "tool_result"
	EventDone       = "done"
	EventError      = "error"
)

// Event reports progress of a run.
type Event struct {
	Type      string            `json:"type"`
	Round     int               `json:"round,omitempty"`
	Content   string            `json:"content,omitempty"`
	ToolCalls []domain.ToolCall `json:"toolCalls,omitempty"`
	Tool      string            `json:"tool,omitempty"`
	CallID    string            `json:"callId,omitempty"`
	Result    *RunResult        `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// EventFunc receives run events. It is always called from the goroutine
// running the loop.
type EventFunc func(Event)

// RunnerConfig configures the agent runner.
type RunnerConfig struct {
	MaxRounds       int
	ToolConcurrency int
	MaxTokens       int
	Temperature     *float64 // nil means 0
	ExtraPrompt     string
}

// Request is the input of one run.
type Request struct {
	UserInput    string
	DocumentText string
	UserID       string
}

// RunResult is the outcome of a run.
type RunResult struct {
	Response  string                    `json:"response"`
	Rounds    int                       `json:"rounds"`
	ToolCalls int                       `json:"toolCalls"`
	Exhausted bool                      `json:"exhausted,omitempty"`
	Usage     llm.Usage                 `json:"usage"`
	Duration  time.Duration             `json:"duration"`
	State     *domain.ConversationState `json:"-"`
}

// Runner is the agent orchestration loop. One Runner serves any number of
// concurrent runs; each run owns its own state.
type Runner struct {
	cfg    RunnerConfig
	client llm.Client
	tools  *ToolRegistry
	hooks  *hooks.Manager
	log    *logging.Logger
}

// NewRunner creates an agent runner. hooks may be nil.
func NewRunner(cfg RunnerConfig, client llm.Client, tools *ToolRegistry, hm *hooks.Manager, log *logging.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		client: client,
		tools:  tools,
		hooks:  hm,
		log:    log.Sub("agent"),
	}
}

// Tools returns the registry the runner dispatches to.
func (r *Runner) Tools() *ToolRegistry { return r.tools }

// Run answers one request.
func (r *Runner) Run(ctx context.Context, req Request) (*RunResult, error) {
	return r.RunStream(ctx, req, nil)
}

// RunStream answers one request and reports progress through cb.
func (r *Runner) RunStream(ctx context.Context, req Request, cb EventFunc) (*RunResult, error) {
	emit := func(e Event) {
		if cb != nil {
			cb(e)
		}
	}

	start := time.Now()
	state := domain.NewConversationState(req.UserInput, req.DocumentText, req.UserID)
	if r.cfg.MaxRounds > 0 {
		state.MaxRounds = r.cfg.MaxRounds
	}
	log := r.log.With("userId", req.UserID)
	log.Info().Int("documentChars", len([]rune(req.DocumentText))).Msg("processing request")

	r.hooks.Emit(ctx, hooks.EventBeforeAgentRun, map[string]any{
		"user_id":    req.UserID,
		"user_input": req.UserInput,
	})

	result := &RunResult{State: state}
	phase := PhaseDeciding
	for phase != PhaseDone {
		switch phase {
		case PhaseDeciding:
			msg, usage, err := r.decide(ctx, state)
			result.Usage.Add(usage)
			if err != nil {
				log.Error().Err(err).Int("round", state.Round).Msg("decision failed")
				emit(Event{Type: EventError, Round: state.Round, Error: err.Error()})
				r.afterRun(ctx, req, result, start, err)
				return nil, err
			}

			if msg.HasToolCalls() && state.RoundsExhausted() {
				log.Warn().Int("rounds", state.Round).Msg("round limit reached, stopping")
				msg = domain.Assistant(exhaustedAnswer(state))
				result.Exhausted = true
			}
			if err := state.Append(msg); err != nil {
				return nil, fmt.Errorf("recording decision: %w", err)
			}
			emit(Event{Type: EventDecision, Round: state.Round, Content: msg.Content, ToolCalls: msg.ToolCalls})

			if msg.HasToolCalls() {
				phase = PhaseExecuting
			} else {
				phase = PhaseDone
			}

		case PhaseExecuting:
			calls := state.Pending()
			results := r.execute(ctx, state, calls, emit)
			if err := state.Append(results...); err != nil {
				return nil, fmt.Errorf("recording tool results: %w", err)
			}
			state.Round++
			result.ToolCalls += len(calls)
			phase = PhaseDeciding
		}
	}

	last, _ := state.Last()
	result.Response = last.Content
	result.Rounds = state.Round
	result.Duration = time.Since(start)

	log.Info().
		Int("rounds", result.Rounds).
		Int("toolCalls", result.ToolCalls).
		Int("inputTokens", result.Usage.InputTokens).
		Int("outputTokens", result.Usage.OutputTokens).
		Dur("duration", result.Duration).
		Msg("response generated")

	emit(Event{Type: EventDone, Round: state.Round, Content: result.Response, Result: result})
	r.afterRun(ctx, req, result, start, nil)
	return result, nil
}

func (r *Runner) afterRun(ctx context.Context, req Request, result *RunResult, start time.Time, err error) {
	data := map[string]any{
		"user_id":     req.UserID,
		"rounds":      result.State.Round,
		"tool_calls":  result.ToolCalls,
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		data["error"] = err.Error()
	} else {
		data["response"] = result.Response
	}
	r.hooks.EmitAsync(ctx, hooks.EventAfterAgentRun, data)
}

// exhaustedAnswer builds the final message of a run that ran out of rounds,
// listing the outputs of the last executed round.
func exhaustedAnswer(state *domain.ConversationState) string {
	history := state.History()
	var last []domain.Message
	for i := len(history) - 1; i >= 0 && history[i].Role == domain.RoleTool; i-- {
		last = append([]domain.Message{history[i]}, last...)
	}
	if len(last) == 0 {
		return RoundsExhaustedMessage
	}

	var b strings.Builder
	b.WriteString(RoundsExhaustedMessage)
	b.WriteString("\n\nLast tool results:")
	for _, m := range last {
		fmt.Fprintf(&b, "\n- %s: %s", m.Name, clip(m.Content, 300))
	}
	return b.String()
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
