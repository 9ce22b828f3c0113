// Package tools implements the capabilities the agent can call: web search,
// document ingestion and retrieval, summaries and questions, and help.
package tools

import (
	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/embed"
	"github.com/soyeahso/docent/internal/llm"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/rerank"
	"github.com/soyeahso/docent/internal/search"
	"github.com/soyeahso/docent/internal/vectorindex"
)

// Tool names as exposed to the model.
const (
	NameBrowsing   = "browsing"
	NameIngesting  = "ingesting"
	NameRetrieving = "retrieving"
	NameTextAgent  = "text_agent"
	NameHelp       = "help_tool"
)

var (
	_ agent.Tool = (*Browsing)(nil)
	_ agent.Tool = (*Ingesting)(nil)
	_ agent.Tool = (*Retrieving)(nil)
	_ agent.Tool = (*TextAgent)(nil)
	_ agent.Tool = Help{}
)

// property builds a JSON Schema property.
func property(typ, description string) map[string]any {
	return map[string]any{"type": typ, "description": description}
}

// objectSchema builds a JSON Schema object with the given required fields.
func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// documentOr returns text, or the run's document when text is blank.
func documentOr(inv agent.Invocation, key string) string {
	if text := inv.String(key); text != "" {
		return text
	}
	return inv.DocumentText
}

// Deps are the collaborators of the full tool set.
type Deps struct {
	Search     search.Provider
	MaxResults int

	Index     vectorindex.Index
	IndexName string
	Embedder  embed.Embedder
	Reranker  rerank.Reranker
	Splitter  *Splitter
	TopK      int
	TopN      int

	TextModel       llm.Client
	TextMaxTokens   int
	TextTemperature *float64
}

// NewRegistry builds a registry holding all five tools.
func NewRegistry(d Deps, log *logging.Logger) (*agent.ToolRegistry, error) {
	splitter := d.Splitter
	if splitter == nil {
		splitter = NewSplitter(0, 0)
	}
	return agent.NewToolRegistry(
		NewBrowsing(d.Search, d.MaxResults, log),
		NewIngesting(d.Index, d.Embedder, splitter, d.IndexName, log),
		NewRetrieving(RetrievingOptions{
			Index:     d.Index,
			Embedder:  d.Embedder,
			Reranker:  d.Reranker,
			IndexName: d.IndexName,
			TopK:      d.TopK,
			TopN:      d.TopN,
		}, log),
		NewTextAgent(d.TextModel, d.TextMaxTokens, d.TextTemperature, log),
		Help{},
	)
}
