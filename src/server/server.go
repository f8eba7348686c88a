// Package server exposes the chat dispatcher over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Protocol-Lattice/cabinet-agent/src/dispatch"
)

// Dispatcher runs one chat turn.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.ChatRequest, header http.Header) (string, error)
}

// Options configure the router.
type Options struct {
	Dispatcher Dispatcher
	// Metrics is mounted at /metrics when set.
	Metrics http.Handler
}

// ChatResponse is the success body of POST /chat.
type ChatResponse struct {
	Response string `json:"response"`
}

// ErrorResponse is the failure body of POST /chat.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// NewRouter builds the HTTP surface.
func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(loggingMiddleware)
	r.Use(corsMiddleware)

	r.Get("/health", handleHealth)
	r.Post("/chat", handleChat(opts.Dispatcher))
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// chatBody distinguishes a missing messages field from an empty one.
type chatBody struct {
	Messages *json.RawMessage `json:"messages"`
	Model    *string          `json:"model"`
}

func handleChat(d Dispatcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := decodeChat(r)
		if err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Detail: err.Error()})
			return
		}

		out, err := d.Dispatch(r.Context(), req, r.Header)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, ErrorResponse{Detail: fmt.Sprintf("agent run failed: %v", err)})
			return
		}
		writeJSON(w, http.StatusOK, ChatResponse{Response: out})
	}
}

func decodeChat(r *http.Request) (dispatch.ChatRequest, error) {
	var body chatBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return dispatch.ChatRequest{}, fmt.Errorf("invalid request body: %w", err)
	}
	if body.Messages == nil {
		return dispatch.ChatRequest{}, errors.New("messages: field required")
	}
	var req dispatch.ChatRequest
	if err := json.Unmarshal(*body.Messages, &req.Messages); err != nil {
		return dispatch.ChatRequest{}, fmt.Errorf("messages: %w", err)
	}
	if body.Model != nil {
		req.Model = *body.Model
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, code int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(data)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests for
// up to grace before forcing connections closed.
func Serve(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining in-flight requests", "timeout", grace)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			slog.Warn("in-flight requests exceeded shutdown timeout, forcing close")
			return srv.Close()
		}
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return <-errCh
}
