// Package server exposes the estimators over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/ecodetect/ecodetect/internal/estimator"
	"github.com/ecodetect/ecodetect/internal/logging"
	"github.com/ecodetect/ecodetect/pkg/version"
)

// Defaults for Options.
const (
	DefaultAddress      = ":8080"
	DefaultTimeout      = 15 * time.Second
	DefaultMaxBatchSize = 100
	shutdownTimeout     = 5 * time.Second
	maxRequestBytes     = 8 << 20
)

// Options configures a Server.
type Options struct {
	Address      string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CORSOrigins  []string
	MaxBatchSize int

	// BatchConcurrency bounds the batches evaluated in parallel.
	BatchConcurrency int
}

// Server is the estimation HTTP API.
type Server struct {
	est     *estimator.Estimator
	opts    Options
	metrics *Metrics
	log     zerolog.Logger
	handler http.Handler
}

// New builds the router and middleware chain.
func New(est *estimator.Estimator, opts Options, logger zerolog.Logger) *Server {
	if opts.Address == "" {
		opts.Address = DefaultAddress
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = DefaultTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultTimeout
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = DefaultMaxBatchSize
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 4
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		est:     est,
		opts:    opts,
		metrics: NewMetrics(),
		log:     logging.ComponentLogger(logger, "server"),
	}
	s.handler = s.middleware(s.routes())
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Metrics returns the server's collectors.
func (s *Server) Metrics() *Metrics { return s.metrics }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Handle("/healthz", s.metrics.instrument("/healthz", http.HandlerFunc(s.handleHealth))).Methods(http.MethodGet)
	r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := []struct {
		path    string
		method  string
		handler http.HandlerFunc
	}{
		{"/api/v1/footprint", http.MethodPost, s.handleFootprint},
		{"/api/v1/emissions", http.MethodPost, s.handleEmissions},
		{"/api/v1/emissions/batch", http.MethodPost, s.handleBatch},
		{"/api/v1/vehicle-types", http.MethodGet, s.handleVehicleTypes},
	}
	// Registered on the root router so a method mismatch reaches MethodNotAllowedHandler.
	for _, rt := range api {
		r.Handle(rt.path, s.metrics.instrument(rt.path, rt.handler)).Methods(rt.method)
	}
	return r
}

type recoveryLogger struct{ log zerolog.Logger }

func (l recoveryLogger) Println(v ...interface{}) {
	l.log.Error().Str("panic", fmt.Sprint(v...)).Msg("recovered from panic")
}

func (s *Server) middleware(h http.Handler) http.Handler {
	h = http.MaxBytesHandler(h, maxRequestBytes)
	h = handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{log: s.log}))(h)
	h = handlers.CORS(
		handlers.AllowedOrigins(s.opts.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
	)(h)
	h = handlers.CustomLoggingHandler(io.Discard, h, s.logRequest)
	return s.traceMiddleware(h)
}

// traceMiddleware attaches a trace ID and the server logger to each request.
func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceID := r.Header.Get("X-Trace-Id")
		if traceID == "" {
			traceID = logging.GenerateTraceID()
		}
		ctx := logging.ContextWithTraceID(r.Context(), traceID)
		ctx = s.log.WithContext(ctx)
		w.Header().Set("X-Trace-Id", traceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	ctx := p.Request.Context()
	logging.FromContext(ctx).Info().Ctx(ctx).
		Str("method", p.Request.Method).
		Str("path", p.URL.Path).
		Int("status", p.StatusCode).
		Int("size", p.Size).
		Dur("duration", time.Since(p.TimeStamp)).
		Msg("http request")
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.handler,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		ReadTimeout:       s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("address", s.opts.Address).Str("version", version.GetVersion()).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.log.Info().Msg("http server shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}
