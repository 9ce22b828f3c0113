package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/docent/internal/agent"
)

// handleAgentStream upgrades to a websocket and serves agent.run requests,
// streaming every loop event before the final response.
func (s *Server) handleAgentStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(streamReadLimit)

	client := NewClient(conn, r.RemoteAddr)
	s.clients.Add(client)
	defer func() {
		s.clients.Remove(client.ConnID)
		client.Close()
	}()

	s.readLoop(r.Context(), client)
}

// readLoop serves requests from one client until it disconnects. Runs on a
// connection are handled one at a time.
func (s *Server) readLoop(ctx context.Context, client *Client) {
	for {
		frame, err := client.ReadFrame()
		if errors.Is(err, ErrInvalidFrame) {
			client.RespondError("", "protocol_error", "invalid frame")
			continue
		}
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug().Str("connId", client.ConnID).Msg("client closed connection")
			} else {
				s.log.Warn().Err(err).Str("connId", client.ConnID).Msg("read error")
			}
			return
		}

		if frame.Type != FrameTypeRequest {
			s.log.Debug().Str("type", frame.Type).Msg("ignoring non-request frame")
			continue
		}
		s.dispatch(ctx, client, frame)
	}
}

func (s *Server) dispatch(ctx context.Context, client *Client, frame Frame) {
	if frame.Method != MethodAgentRun {
		client.RespondError(frame.ID, "method_not_found", "unknown method: "+frame.Method)
		return
	}

	var p RunParams
	if len(frame.Params) > 0 {
		if err := json.Unmarshal(frame.Params, &p); err != nil {
			client.RespondError(frame.ID, "invalid_params", err.Error())
			return
		}
	}
	if p.UserID == "" {
		client.RespondError(frame.ID, "invalid_params", "user_id is required")
		return
	}

	result, status := s.runAgent(ctx, p, func(e agent.Event) {
		if err := client.SendEvent(EventAgent, e); err != nil {
			s.log.Debug().Err(err).Str("connId", client.ConnID).Msg("event send failed")
		}
	})
	switch status {
	case http.StatusOK:
		client.Respond(frame.ID, map[string]any{
			"response":   result.Response,
			"rounds":     result.Rounds,
			"toolCalls":  result.ToolCalls,
			"exhausted":  result.Exhausted,
			"usage":      result.Usage,
			"durationMs": result.Duration.Milliseconds(),
		})
	case http.StatusNotFound:
		client.RespondError(frame.ID, "not_found", DetailNoDocument)
	default:
		client.RespondError(frame.ID, "agent_error", DetailAgentUnavailable)
	}
}
