package gateway

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, env *testEnv) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(env.srv.Handler())
	t.Cleanup(ts.Close)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/agent-stream/"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendRun(t *testing.T, conn *websocket.Conn, id string, p RunParams) {
	t.Helper()
	f, err := NewRequest(id, MethodAgentRun, p)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(f))
}

// readUntilResponse collects event frames until the response frame for id.
func readUntilResponse(t *testing.T, conn *websocket.Conn, id string) ([]agent.Event, Frame) {
	t.Helper()
	var events []agent.Event
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var f Frame
		require.NoError(t, conn.ReadJSON(&f))
		switch f.Type {
		case FrameTypeEvent:
			require.Equal(t, EventAgent, f.Event)
			var e agent.Event
			require.NoError(t, json.Unmarshal(f.Payload, &e))
			events = append(events, e)
		case FrameTypeResponse:
			if f.ID == id {
				return events, f
			}
		}
	}
}

func TestAgentStream(t *testing.T) {
	mock := &llm.MockClient{ProviderName: "mock", CompleteFunc: llm.Script(
		&llm.CompletionResponse{ToolCalls: []llm.ToolCall{{ID: "c1", Name: "help_tool"}}},
		&llm.CompletionResponse{Content: "streamed answer"},
	)}
	env := newTestEnv(t, mock)
	env.docs.Put("user-1", "doc")
	conn := dialStream(t, env)

	sendRun(t, conn, "r1", RunParams{UserInput: "help", UserID: "user-1"})
	events, res := readUntilResponse(t, conn, "r1")

	require.NotNil(t, res.OK)
	assert.True(t, *res.OK)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(res.Payload, &payload))
	assert.Equal(t, "streamed answer", payload["response"])
	assert.Equal(t, float64(1), payload["toolCalls"])

	var types []string
	for _, e := range events {
		types = append(types, e.Type)
	}
	assert.Equal(t, []string{
		agent.EventDecision, agent.EventToolStart, agent.EventToolResult, agent.EventDecision, agent.EventDone,
	}, types)
	assert.Equal(t, "help_tool for user-1", events[2].Content)
}

func TestAgentStreamErrors(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialStream(t, env)

	sendRun(t, conn, "r1", RunParams{UserInput: "hi", UserID: "missing"})
	_, res := readUntilResponse(t, conn, "r1")
	require.NotNil(t, res.Error)
	assert.Equal(t, "not_found", res.Error.Code)
	assert.Equal(t, DetailNoDocument, res.Error.Message)

	sendRun(t, conn, "r2", RunParams{UserInput: "hi"})
	_, res = readUntilResponse(t, conn, "r2")
	require.NotNil(t, res.Error)
	assert.Equal(t, "invalid_params", res.Error.Code)

	f, err := NewRequest("r3", "agent.cancel", nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(f))
	_, res = readUntilResponse(t, conn, "r3")
	require.NotNil(t, res.Error)
	assert.Equal(t, "method_not_found", res.Error.Code)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
	_, res = readUntilResponse(t, conn, "")
	require.NotNil(t, res.Error)
	assert.Equal(t, "protocol_error", res.Error.Code)
}

func TestAgentStreamTracksClients(t *testing.T) {
	env := newTestEnv(t, nil)
	conn := dialStream(t, env)

	assert.Eventually(t, func() bool { return env.srv.clients.Count() == 1 }, time.Second, 10*time.Millisecond)
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
	assert.Eventually(t, func() bool { return env.srv.clients.Count() == 0 }, time.Second, 10*time.Millisecond)
}
