// Package http implements the HTTP transport for roomcall.
//
// This transport exposes a small REST API: voice platform adapters and the
// touch panel POST turns as JSON and receive the response in the same call.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/nadzzz/roomcall/docs" // registers the OpenAPI description
	"github.com/nadzzz/roomcall/internal/message"
	"github.com/nadzzz/roomcall/internal/transport"
)

const maxBody = 1 << 20

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port int

	mu     sync.Mutex
	server *http.Server
	closed bool
}

// New creates a new HTTP transport on the given port.
func New(port int) *Transport {
	return &Transport{port: port}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the routes of the transport.
func (t *Transport) Handler(handler transport.Handler) http.Handler {
	mux := http.NewServeMux()

	// POST /turn: accepts one turn, returns the response.
	mux.HandleFunc("POST /turn", func(w http.ResponseWriter, r *http.Request) {
		t.handleTurn(w, r, handler)
	})

	// Swagger UI: serves the OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// Listen starts the HTTP server and routes incoming requests to the handler.
// It returns at once when Close already ran.
func (t *Transport) Listen(ctx context.Context, handler transport.Handler) error {
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.server = server
	t.mu.Unlock()

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleTurn processes a POST /turn request.
//
// @Summary     Handle a turn
// @Description Accepts one spoken or tapped turn, resolves domain and target,
// @Description invokes the renderer for the selected route and returns its answer.
// @Tags        turns
// @Accept      json
// @Produce     json
// @Param       turn  body      message.Turn      true  "Turn"
// @Success     200   {object}  message.Response  "Response for the sender"
// @Failure     400   {string}  string            "Invalid request body"
// @Failure     500   {string}  string            "Internal processing error"
// @Router      /turn [post]
func (t *Transport) handleTurn(w http.ResponseWriter, r *http.Request, handler transport.Handler) {
	var turn message.Turn
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBody)).Decode(&turn); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	resp, err := handler(r.Context(), &turn)
	if err != nil {
		slog.Error("dispatch failed", "turn_id", turn.ID, "error", err)
		http.Error(w, "dispatch error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	t.mu.Lock()
	t.closed = true
	server := t.server
	t.mu.Unlock()

	if server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
