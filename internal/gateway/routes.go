package gateway

import "net/http"

// registerHTTPRoutes sets up all HTTP routes on the server mux.
func (s *Server) registerHTTPRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /files/", s.handleUpload)
	mux.HandleFunc("POST /agent-request/", s.handleAgentRequest)
	mux.HandleFunc("GET /agent-stream/", s.handleAgentStream)

	// Catch-all for unknown routes
	mux.HandleFunc("/", handleNotFound)
}
