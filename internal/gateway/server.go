package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/soyeahso/docent/internal/agent"
	"github.com/soyeahso/docent/internal/config"
	"github.com/soyeahso/docent/internal/doccache"
	"github.com/soyeahso/docent/internal/hooks"
	"github.com/soyeahso/docent/internal/logging"
	"github.com/soyeahso/docent/internal/version"
)

var (
	ErrClientClosed = errors.New("client connection closed")
	ErrInvalidFrame = errors.New("invalid frame")
)

// streamReadLimit bounds a single inbound websocket message.
const streamReadLimit = 64 * 1024

// Server is the docent HTTP + websocket server.
type Server struct {
	cfg     config.ServerConfig
	auth    ResolvedAuth
	log     *logging.Logger
	runner  *agent.Runner
	docs    *doccache.Cache
	clients *ClientRegistry
	version string

	// Hook manager (optional, nil if not configured)
	hooks *hooks.Manager

	startedAt   atomic.Int64 // unix nanos
	httpServer  *http.Server
	handler     http.Handler
	upgrader    websocket.Upgrader
	authLimiter *authRateLimiter
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithHooks sets the hook manager for lifecycle events.
func WithHooks(hm *hooks.Manager) ServerOption {
	return func(s *Server) {
		s.hooks = hm
	}
}

// New creates a server answering requests with runner over documents held in docs.
func New(cfg config.ServerConfig, runner *agent.Runner, docs *doccache.Cache, log *logging.Logger, opts ...ServerOption) *Server {
	s := &Server{
		cfg:         cfg,
		auth:        ResolveAuth(cfg.Auth),
		log:         log.Sub("gateway"),
		runner:      runner,
		docs:        docs,
		clients:     NewClientRegistry(log.Sub("stream")),
		version:     version.Current().Version,
		authLimiter: newAuthRateLimiter(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkWebSocketOrigin(cfg.AllowedOrigins),
		},
	}
	if s.cfg.MaxUploadBytes <= 0 {
		s.cfg.MaxUploadBytes = config.Defaults().Server.MaxUploadBytes
	}
	if s.cfg.DocumentChars <= 0 {
		s.cfg.DocumentChars = config.Defaults().Server.DocumentChars
	}

	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	s.registerHTTPRoutes(mux)
	s.handler = withMiddleware(mux, s.log, cfg.AllowedOrigins, s.auth, s.authLimiter)
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// checkWebSocketOrigin returns a function that validates websocket Origin headers.
// If no origins are configured, only same-origin (no Origin header) or non-browser
// clients are allowed. If origins are configured, the Origin must match one of them.
func checkWebSocketOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		return isOriginAllowed(origin, allowed)
	}
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return net.JoinHostPort(host, fmt.Sprint(cfg.Port))
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

func (s *Server) requestTimeout() time.Duration {
	if s.cfg.RequestTimeout <= 0 {
		return time.Duration(config.Defaults().Server.RequestTimeout) * time.Second
	}
	return time.Duration(s.cfg.RequestTimeout) * time.Second
}

// Start begins listening for HTTP and websocket connections.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      s.requestTimeout() + 10*time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	if s.auth.Mode == "none" && s.cfg.Bind != "loopback" {
		s.log.Warn().Msg("no auth token configured while listening beyond loopback")
	}

	s.startedAt.Store(time.Now().UnixNano())
	go s.authLimiter.run(ctx)

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Bind).
		Str("auth", s.auth.Mode).
		Int("tools", s.runner.Tools().Len()).
		Msg("server starting")

	s.hooks.Emit(ctx, hooks.EventServerStart, map[string]any{
		"addr": ln.Addr().String(),
	})

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down server")
		s.hooks.Emit(context.Background(), hooks.EventServerStop, nil)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.clients.CloseAll()
		s.httpServer.Shutdown(shutdownCtx)
		s.hooks.Wait()
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Uptime reports how long the server has been serving.
func (s *Server) Uptime() time.Duration {
	started := s.startedAt.Load()
	if started == 0 {
		return 0
	}
	return time.Since(time.Unix(0, started))
}
