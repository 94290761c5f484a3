// Package server exposes an rpc.Service over HTTP: POST /rpc/{command} with
// named JSON arguments, answered with the rpc.Envelope.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"ordertrack/internal/database"
	"ordertrack/internal/rpc"
)

// DefaultAddr matches rpc.DefaultURL.
const DefaultAddr = "127.0.0.1:8787"

const maxBodyBytes = 1 << 20

// Server answers order commands.
type Server struct {
	svc      rpc.Service
	logger   *slog.Logger
	tracer   trace.Tracer
	commands map[string]handler
	router   chi.Router
	server   *http.Server
	addr     string
	listener net.Listener
}

// NewServer builds the router for svc. addr defaults to DefaultAddr.
func NewServer(svc rpc.Service, addr string, logger *slog.Logger) *Server {
	if addr == "" {
		addr = DefaultAddr
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:    svc,
		logger: logger,
		tracer: otel.Tracer("ordertrack/server"),
		addr:   addr,
	}
	s.commands = commands(svc)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Post("/rpc/{command}", s.handleCommand)
	s.router = r

	s.server = &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Start binds the listener and serves in a background goroutine.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = ln
	s.logger.Info("order service listening", "addr", ln.Addr().String())
	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("order service stopped", "error", err)
		}
	}()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Addr returns the bound address once started, else the configured one.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "command")
	requestID := r.Header.Get(rpc.RequestIDHeader)
	ctx, span := s.tracer.Start(r.Context(), "serve "+name,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("rpc.command", name),
			attribute.String("rpc.request_id", requestID),
		),
	)
	defer span.End()

	h, ok := s.commands[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, rpc.Envelope{Error: fmt.Sprintf("unknown command %q", name)})
		return
	}

	start := time.Now()
	result, err := h(ctx, io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		status := statusFor(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelWarn
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.Log(ctx, level, "command failed", "command", name, "request_id", requestID, "status", status, "error", err)
		writeJSON(w, status, rpc.Envelope{Error: err.Error()})
		return
	}
	s.logger.Debug("command served", "command", name, "request_id", requestID, "duration", time.Since(start))
	writeJSON(w, http.StatusOK, rpc.Envelope{Result: result})
}

// argsError marks a request whose arguments could not be decoded.
type argsError struct{ err error }

func (e *argsError) Error() string { return e.err.Error() }
func (e *argsError) Unwrap() error { return e.err }

func statusFor(err error) int {
	var ae *argsError
	switch {
	case errors.As(err, &ae), errors.Is(err, rpc.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
