package agent

import "strings"

// Policy is the fixed instruction given to the decision model on every turn.
const Policy = `You are an intelligent AI agent that works with articles and documents.
Your task is to choose a correct tool provided and make a final answer after completing all tasks.
You can make multiple calls if needed. Do not add any greetings or extra comments.
Always cite the specific parts of the documents you use in your answers.

Available tools:
- 'browsing': Search the web for up-to-date information or documents.
- 'ingesting': Split and store documents in a vector database.
- 'retrieving': Search stored documents semantically when the user asks questions about ingested documents.
- 'text_agent': Generates a summary and/or questions about the provided document.
- 'help_tool': Describes what the agent can currently do.

Use 'ingesting' to add documents if the user provides a document **and** has questions or wants to search within it.
Use 'retrieving' to answer questions about documents already stored.
Use 'browsing' only when user asks for similar articles or documents.
Use 'text_agent' when user asks for summarization or questions based on the document.
Use 'help_tool' when user has any questions about your functionality.`

// PromptConfig controls system prompt generation.
type PromptConfig struct {
	DocumentText string
	ExtraPrompt  string
}

// BuildSystemPrompt returns the system messages of a decision: the policy,
// then the document the user supplied.
func BuildSystemPrompt(cfg PromptConfig) []string {
	policy := Policy
	if extra := strings.TrimSpace(cfg.ExtraPrompt); extra != "" {
		policy += "\n\n" + extra
	}
	return []string{policy, DocumentMessage(cfg.DocumentText)}
}

// DocumentMessage wraps document text for the second system message.
func DocumentMessage(text string) string {
	return "Document provided by user: \n\n" + text
}
