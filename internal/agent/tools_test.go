package agent

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// funcTool adapts a function to Tool for tests.
type funcTool struct {
	name string
	fn   func(ctx context.Context, inv Invocation) (string, error)
}

func (f *funcTool) Name() string        { return f.name }
func (f *funcTool) Description() string { return "test tool " + f.name }
func (f *funcTool) InputSchema() map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": map[string]any{"text": map[string]any{"type": "string"}},
	}
}
func (f *funcTool) Execute(ctx context.Context, inv Invocation) (string, error) {
	return f.fn(ctx, inv)
}

func echoTool(name string) *funcTool {
	return &funcTool{name: name, fn: func(_ context.Context, inv Invocation) (string, error) {
		return name + ":" + inv.String("text"), nil
	}}
}

func TestToolRegistry(t *testing.T) {
	reg, err := NewToolRegistry(echoTool("retrieving"), echoTool("browsing"))
	require.NoError(t, err)

	tool, ok := reg.Get("browsing")
	assert.True(t, ok)
	assert.Equal(t, "browsing", tool.Name())

	_, ok = reg.Get("Browsing")
	assert.False(t, ok, "lookup is case-sensitive")

	assert.Equal(t, []string{"browsing", "retrieving"}, reg.Names())
	assert.Equal(t, 2, reg.Len())

	defs := reg.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "browsing", defs[0].Name)
	assert.Equal(t, "test tool browsing", defs[0].Description)
	assert.Equal(t, "object", defs[0].InputSchema["type"])
}

func TestToolRegistryRejects(t *testing.T) {
	_, err := NewToolRegistry(echoTool("a"), echoTool("a"))
	assert.ErrorContains(t, err, "already registered")

	_, err = NewToolRegistry(echoTool(""))
	assert.ErrorContains(t, err, "empty")
}

func TestInvocationArgs(t *testing.T) {
	var args map[string]any
	require.NoError(t, json.Unmarshal([]byte(`{"s":"x","n":3,"f":2.9,"ns":"7","bad":"x7"}`), &args))
	inv := Invocation{Args: args}

	assert.Equal(t, "x", inv.String("s"))
	assert.Equal(t, "3", inv.String("n"))
	assert.Equal(t, "", inv.String("missing"))

	assert.Equal(t, 3, inv.Int("n", 5))
	assert.Equal(t, 2, inv.Int("f", 5))
	assert.Equal(t, 7, inv.Int("ns", 5))
	assert.Equal(t, 5, inv.Int("bad", 5))
	assert.Equal(t, 5, inv.Int("missing", 5))
}

func TestBuildSystemPrompt(t *testing.T) {
	sys := BuildSystemPrompt(PromptConfig{DocumentText: "LSTMs are recurrent networks."})
	require.Len(t, sys, 2)
	assert.Equal(t, Policy, sys[0])
	assert.Equal(t, "Document provided by user: \n\nLSTMs are recurrent networks.", sys[1])

	for _, name := range []string{"browsing", "ingesting", "retrieving", "text_agent", "help_tool"} {
		assert.Contains(t, sys[0], "'"+name+"'")
	}
}

func TestBuildSystemPromptExtra(t *testing.T) {
	sys := BuildSystemPrompt(PromptConfig{ExtraPrompt: "  Answer in French.  "})
	assert.True(t, strings.HasSuffix(sys[0], "\n\nAnswer in French."))
}
