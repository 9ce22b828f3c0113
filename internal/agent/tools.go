package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/soyeahso/docent/internal/llm"
)

// Invocation is what a tool receives for one call.
type Invocation struct {
	// Args are the model-supplied arguments.
	Args map[string]any
	// UserID is the run's user id. Tools must use it instead of any user id
	// found in Args.
	UserID string
	// DocumentText is the document snapshot of the run.
	DocumentText string
}

// String returns a string argument, or "" if it is missing. Numbers are
// formatted.
func (inv Invocation) String(key string) string {
	switch v := inv.Args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Int returns an integer argument, or def if it is missing or not a number.
func (inv Invocation) Int(key string, def int) int {
	switch v := inv.Args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return int(n)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

// Tool is a capability the agent can invoke during a run.
type Tool interface {
	// Name returns the tool's identifier. Lookup is case-sensitive.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// InputSchema returns the JSON Schema object of the tool's arguments.
	InputSchema() map[string]any

	// Execute runs the tool. Expected failures should be reported in the
	// returned text; an error is rendered as a failure message by the runner.
	Execute(ctx context.Context, inv Invocation) (string, error)
}

// Writer is implemented by tools whose calls change state other tools read.
// Within one turn their calls run first, one at a time and in call order.
type Writer interface {
	Writes() bool
}

func writes(t Tool) bool {
	w, ok := t.(Writer)
	return ok && w.Writes()
}

// ToolRegistry holds available tools. It is populated once at startup and
// read concurrently afterwards.
type ToolRegistry struct {
	tools map[string]Tool
}

// NewToolRegistry creates a registry holding the given tools.
func NewToolRegistry(tools ...Tool) (*ToolRegistry, error) {
	r := &ToolRegistry{tools: make(map[string]Tool)}
	for _, t := range tools {
		if err := r.Register(t); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds a tool. Empty and duplicate names are rejected.
func (r *ToolRegistry) Register(t Tool) error {
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if _, ok := r.tools[name]; ok {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	return nil
}

// Get returns a tool by exact name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names, sorted.
func (r *ToolRegistry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered tools.
func (r *ToolRegistry) Len() int { return len(r.tools) }

// Definitions returns LLM-ready tool definitions, sorted by name.
func (r *ToolRegistry) Definitions() []llm.ToolDefinition {
	names := r.Names()
	defs := make([]llm.ToolDefinition, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		defs = append(defs, llm.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			InputSchema: t.InputSchema(),
		})
	}
	return defs
}
