package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/google/uuid"
	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/doccache"
	"github.com/soyeahso/docent/internal/extract"
	"github.com/soyeahso/docent/internal/hooks"
)

// Client-facing error details.
const (
	DetailFileTooLarge     = "File too large, max size is 5 MB"
	DetailUnsupported      = "Unsupported file format"
	DetailNoDocument       = "No document uploaded for this user_id"
	DetailAgentUnavailable = "Error while using LLM-agent"
)

// formMemory is how much of a multipart form is held in memory before
// spilling to temp files. Agent requests only carry two short fields.
const formMemory = 1 << 20

// HealthResponse is returned by the health endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version,omitempty"`
	Documents int    `json:"documents"`
	Streams   int    `json:"streams"`
}

// UploadResponse is returned by POST /files/.
type UploadResponse struct {
	Status string `json:"status"`
	Length int    `json:"length"`
	UserID string `json:"user_id"`
}

// AgentResponse is returned by POST /agent-request/.
type AgentResponse struct {
	Response string `json:"response"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorBody{Detail: detail})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Version:   s.version,
		Documents: s.docs.Len(),
		Streams:   s.clients.Count(),
	})
}

// handleNotFound returns a 404 for unknown routes.
func handleNotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{
		"detail": "Not Found",
		"path":   r.URL.Path,
	})
}

// handleUpload stores the text of an uploaded file under a fresh user id.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	// Leave headroom for multipart framing around the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+formMemory)

	part, err := filePart(r)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, DetailFileTooLarge)
			return
		}
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	defer part.Close()

	data, err := extract.ReadLimited(part, s.cfg.MaxUploadBytes)
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.Is(err, extract.ErrTooLarge) || errors.As(err, &mbe) {
			writeError(w, http.StatusRequestEntityTooLarge, DetailFileTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}

	contentType := part.Header.Get("Content-Type")
	text, err := extract.Text(data, contentType)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", part.FileName()).Str("contentType", contentType).Msg("unsupported upload")
		writeError(w, http.StatusUnsupportedMediaType, DetailUnsupported)
		return
	}

	text = extract.Truncate(text, s.cfg.DocumentChars)
	userID := uuid.New().String()
	s.docs.Put(userID, text)
	length := len([]rune(text))

	s.log.Info().
		Str("userId", userID).
		Str("filename", part.FileName()).
		Int("bytes", len(data)).
		Int("length", length).
		Msg("document uploaded")

	s.hooks.EmitAsync(r.Context(), hooks.EventDocumentUploaded, map[string]any{
		"user_id":  userID,
		"filename": part.FileName(),
		"length":   length,
	})

	writeJSON(w, http.StatusOK, UploadResponse{Status: "ok", Length: length, UserID: userID})
}

// filePart returns the multipart part named "file".
func filePart(r *http.Request) (*multipart.Part, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("expected a multipart form with a file field: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errors.New("missing form field: file")
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == "file" {
			return part, nil
		}
		part.Close()
	}
}

// handleAgentRequest runs the agent for a previously uploaded document.
func (s *Server) handleAgentRequest(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(formMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		writeError(w, http.StatusUnprocessableEntity, "invalid form: "+err.Error())
		return
	}
	for _, field := range []string{"user_input", "user_id"} {
		if _, ok := r.PostForm[field]; !ok {
			writeError(w, http.StatusUnprocessableEntity, "missing form field: "+field)
			return
		}
	}

	result, status := s.runAgent(r.Context(), RunParams{
		UserInput: r.PostForm.Get("user_input"),
		UserID:    r.PostForm.Get("user_id"),
	}, nil)
	if status != http.StatusOK {
		writeError(w, status, statusDetail(status))
		return
	}
	writeJSON(w, http.StatusOK, AgentResponse{Response: result.Response})
}

// runAgent looks up the caller's document and runs the agent over it. The
// returned status is http.StatusOK on success.
func (s *Server) runAgent(ctx context.Context, p RunParams, cb agent.EventFunc) (*agent.RunResult, int) {
	text, err := s.docs.Get(p.UserID)
	if errors.Is(err, doccache.ErrNotFound) {
		return nil, http.StatusNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout())
	defer cancel()

	result, err := s.runner.RunStream(ctx, agent.Request{
		UserInput:    p.UserInput,
		DocumentText: text,
		UserID:       p.UserID,
	}, cb)
	if err != nil {
		s.log.Error().Err(err).Str("userId", p.UserID).Msg("agent error")
		return nil, http.StatusServiceUnavailable
	}
	return result, http.StatusOK
}

func statusDetail(status int) string {
	switch status {
	case http.StatusNotFound:
		return DetailNoDocument
	case http.StatusServiceUnavailable:
		return DetailAgentUnavailable
	default:
		return http.StatusText(status)
	}
}
