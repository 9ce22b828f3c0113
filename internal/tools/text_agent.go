package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/llm"
	"github.com/soyeahso/docent/internal/logging"
)

// Tasks the text agent accepts.
const (
	TaskSummary   = "summary"
	TaskQuestions = "questions"
	TaskBoth      = "both"
)

// DefaultQuestions is the number of questions generated when none is given.
const DefaultQuestions = 5

// TextAgentPrompt is the system instruction of the secondary model.
const TextAgentPrompt = `You are a text analysis assistant. You receive a document and a task.
Only perform the requested task on the given document. Do not use outside knowledge.
Do not add greetings or extra comments.
A summary must be concise and cover the main ideas of the document.
Questions must be answerable from the document and numbered one per line.`

// TextAgent delegates summaries and question generation to a separate,
// tool-less model.
type TextAgent struct {
	client      llm.Client
	maxTokens   int
	temperature *float64
	log         *logging.Logger
}

// NewTextAgent creates the text_agent tool. temperature may be nil.
func NewTextAgent(client llm.Client, maxTokens int, temperature *float64, log *logging.Logger) *TextAgent {
	return &TextAgent{
		client:      client,
		maxTokens:   maxTokens,
		temperature: temperature,
		log:         log.Sub("tools.text_agent"),
	}
}

func (t *TextAgent) Name() string { return NameTextAgent }

func (t *TextAgent) Description() string {
	return "Generates a summary and/or questions about the provided document. " +
		"'task' is one of summary, questions or both."
}

func (t *TextAgent) InputSchema() map[string]any {
	task := property("string", "What to produce.")
	task["enum"] = []string{TaskSummary, TaskQuestions, TaskBoth}
	return objectSchema(map[string]any{
		"text":        property("string", "Text to work on; defaults to the uploaded document."),
		"task":        task,
		"user_id":     property("string", "Identifier of the user."),
		"n_questions": property("integer", fmt.Sprintf("Number of questions to generate (default %d).", DefaultQuestions)),
	}, "task")
}

// InvalidTaskMessage is returned for a task outside summary|questions|both.
func InvalidTaskMessage(task string) string {
	return fmt.Sprintf("Invalid task %q. Valid tasks are: %s, %s, %s.", task, TaskSummary, TaskQuestions, TaskBoth)
}

func (t *TextAgent) Execute(ctx context.Context, inv agent.Invocation) (string, error) {
	task := strings.TrimSpace(inv.String("task"))
	n := inv.Int("n_questions", DefaultQuestions)
	if n <= 0 {
		n = DefaultQuestions
	}

	var instruction string
	switch task {
	case TaskSummary:
		instruction = "Write a summary of the document."
	case TaskQuestions:
		instruction = fmt.Sprintf("Write %d questions about the document.", n)
	case TaskBoth:
		instruction = fmt.Sprintf("Write a summary of the document, then %d questions about it.", n)
	default:
		return InvalidTaskMessage(task), nil
	}

	text := documentOr(inv, "text")
	resp, err := t.client.Complete(ctx, llm.CompletionRequest{
		System:      []string{TextAgentPrompt},
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: instruction + "\n\nDocument:\n" + text}},
		MaxTokens:   t.maxTokens,
		Temperature: t.temperature,
	})
	if err != nil {
		t.log.Warn().Err(err).Str("task", task).Msg("text agent model failed")
		return "Text agent failed: " + err.Error(), nil
	}
	return resp.Content, nil
}
