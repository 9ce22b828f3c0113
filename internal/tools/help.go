package tools

import (
	"context"

	"github.com/soyeahso/docent/internal/agent"
)

// HelpText describes what the assistant can do.
const HelpText = `I am a document assistant. Here is what I can do with the document you uploaded:
- Answer questions about it: I store it in a vector database ('ingesting') and look up the relevant passages ('retrieving').
- Summarize it or write questions about it ('text_agent').
- Find similar articles or documents on the web ('browsing').
- Explain my capabilities ('help_tool').
Upload a PDF or UTF-8 text file (up to 5 MB), then ask me anything about it.`

// Help returns a static description of the assistant.
type Help struct{}

func (Help) Name() string { return NameHelp }

func (Help) Description() string {
	return "Describes what the agent can currently do."
}

func (Help) InputSchema() map[string]any {
	return objectSchema(map[string]any{
		"user_id": property("string", "Identifier of the user."),
	})
}

func (Help) Execute(context.Context, agent.Invocation) (string, error) {
	return HelpText, nil
}
