// Package transport exposes the fixer over HTTP.
package transport

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lomakinroman97/code-fixer-agent-mcp-service/pkg/fixer"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 30 * time.Second

// maxBodySize caps the request body of /api/fix.
const maxBodySize = 1 << 20

// Fixer is the operation served on /api/fix.
type Fixer interface {
	FixCode(ctx context.Context, req fixer.Request) fixer.Outcome
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr        string
	CORSOrigins []string
	// Gatherer backs /metrics. The route is not mounted when nil.
	Gatherer prometheus.Gatherer
	// WriteTimeout must cover the slowest completion.
	WriteTimeout time.Duration
}

// HTTPServer serves POST /api/fix, GET /health and GET /metrics.
type HTTPServer struct {
	fixer  Fixer
	config HTTPConfig
	router chi.Router
	logger zerolog.Logger

	mu     sync.Mutex
	server *http.Server
	addr   net.Addr
}

// FixResponse is the body of every /api/fix response.
type FixResponse struct {
	Status    string `json:"status"`
	FixedCode string `json:"fixed_code,omitempty"`
	Message   string `json:"message,omitempty"`
}

func NewHTTPServer(f Fixer, config HTTPConfig, logger zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		fixer:  f,
		config: config,
		logger: logger.With().Str("component", "http_transport").Logger(),
	}
	s.setupRouter()
	return s
}

// Handler returns the router, for tests and embedding.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

func (s *HTTPServer) setupRouter() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.setupCORS())
	r.Use(s.loggingMiddleware)

	r.Post("/api/fix", s.handleFix)
	r.Get("/health", s.handleHealth)
	if s.config.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{}))
	}
	s.router = r
}

func (s *HTTPServer) setupCORS() func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if len(s.config.CORSOrigins) == 0 || (len(s.config.CORSOrigins) == 1 && s.config.CORSOrigins[0] == "*") {
		opts.AllowedOrigins = []string{"*"}
		opts.AllowCredentials = false
	}
	return cors.Handler(opts)
}

func (s *HTTPServer) handleFix(w http.ResponseWriter, r *http.Request) {
	var req fixer.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		s.logger.Debug().Err(err).Msg("Rejected malformed fix request")
		s.sendJSON(w, http.StatusBadRequest, FixResponse{Status: "error", Message: "Invalid request body"})
		return
	}

	// The fix runs to completion even if the caller goes away.
	outcome := s.fixer.FixCode(context.WithoutCancel(r.Context()), req)

	status, body := responseFor(outcome)
	s.sendJSON(w, status, body)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// StatusFor maps an outcome to its HTTP status code.
func StatusFor(o fixer.Outcome) int {
	if o.OK() {
		return http.StatusOK
	}
	switch o.Failure.Reason {
	case fixer.InvalidInput:
		return http.StatusBadRequest
	case fixer.FileNotFound:
		return http.StatusNotFound
	case fixer.UpstreamFailed:
		if o.Failure.Timeout {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func responseFor(o fixer.Outcome) (int, FixResponse) {
	status := StatusFor(o)
	if o.OK() {
		return status, FixResponse{Status: "success", FixedCode: o.FixedCode}
	}
	message := o.Failure.Detail
	if o.Failure.Reason == fixer.InternalError {
		message = fixer.InternalErrorMessage
	}
	return status, FixResponse{Status: "error", Message: message}
}

// Serve listens on the configured address until ctx is cancelled, then
// shuts down gracefully.
func (s *HTTPServer) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Addr, err)
	}

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       120 * time.Second,
	}
	s.mu.Lock()
	s.server, s.addr = srv, ln.Addr()
	s.mu.Unlock()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("Starting HTTP transport")
		if err := srv.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("HTTP server failed: %w", err)
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		return s.Close()
	case err := <-errCh:
		return err
	}
}

// Addr is the bound address once Serve is listening.
func (s *HTTPServer) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Close waits up to ShutdownTimeout for in-flight requests.
func (s *HTTPServer) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()

	s.logger.Info().Msg("Stopping HTTP transport")
	return srv.Shutdown(ctx)
}

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := middleware.GetReqID(r.Context())
		if requestID == "" {
			requestID = uuid.New().String()
		}

		s.logger.Debug().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Str("user_agent", r.UserAgent()).
			Msg("HTTP request received")

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.logger.Info()
		if ww.Status() >= http.StatusInternalServerError {
			event = s.logger.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("response_size", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("HTTP response sent")
	})
}

func (s *HTTPServer) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
