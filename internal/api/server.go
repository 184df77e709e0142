// Package api implements the HTTP API: the chat endpoint, REST access
// to planner records, the calendar feed, and the WebSocket event feed.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/lifeplan-ai/lifeplan/internal/agent"
	"github.com/lifeplan-ai/lifeplan/internal/buildinfo"
	"github.com/lifeplan-ai/lifeplan/internal/events"
	"github.com/lifeplan-ai/lifeplan/internal/ical"
	"github.com/lifeplan-ai/lifeplan/internal/llm"
	"github.com/lifeplan-ai/lifeplan/internal/planner"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Server is the HTTP API server.
type Server struct {
	address  string
	port     int
	loop     *agent.Loop
	services *planner.Services
	bus      *events.Bus
	logger   *slog.Logger
	server   *http.Server
	upgrader websocket.Upgrader

	// credentialed reports whether a model credential was configured,
	// so /health can say why chat is unavailable.
	credentialed bool
}

// NewServer creates a new API server.
func NewServer(address string, port int, loop *agent.Loop, services *planner.Services, bus *events.Bus, credentialed bool, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		address:      address,
		port:         port,
		loop:         loop,
		services:     services,
		bus:          bus,
		logger:       logger,
		credentialed: credentialed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Start begins serving HTTP requests.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.withLogging(s.handler()),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Chat turns can take a while
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// handler builds the route table.
func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()

	// Chat
	mux.HandleFunc("POST /api/chat", s.handleChat)

	// Record endpoints, one family per domain
	s.registerMealRoutes(mux)
	s.registerTaskRoutes(mux)
	s.registerWorkoutRoutes(mux)
	s.registerReminderRoutes(mux)
	s.registerTimeBlockRoutes(mux)

	// Calendar feed
	mux.HandleFunc("GET /api/calendar/{userID}", s.handleCalendar)

	// Change feed
	mux.HandleFunc("GET /api/events", s.handleEvents)

	// Health endpoints
	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /", s.handleRoot)

	return mux
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"name":    "lifeplan",
		"version": buildinfo.Version,
		"status":  "ok",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]any{
		"status":                "healthy",
		"credential_configured": s.credentialed,
		"event_subscribers":     s.bus.SubscriberCount(),
	}, s.logger)
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	Message string          `json:"message"`
	History []agent.Message `json:"messages,omitempty"`
	UserID  string          `json:"userId"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" {
		s.errorResponse(w, http.StatusBadRequest, "message is required")
		return
	}
	if req.UserID == "" {
		s.errorResponse(w, http.StatusBadRequest, "userId is required")
		return
	}

	resp, err := s.loop.Run(r.Context(), agent.Request{
		Message: req.Message,
		History: req.History,
		Owner:   req.UserID,
	})
	if err != nil {
		s.chatError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, resp, s.logger)
}

// chatError turns a failed orchestration run into a 500. Known provider
// failures keep a human-readable assistant message in the body so the UI
// can render the reason, but the status still signals failure.
func (s *Server) chatError(w http.ResponseWriter, err error) {
	if errors.Is(err, llm.ErrMissingCredential) {
		s.errorResponse(w, http.StatusInternalServerError,
			"no model credential is configured; set openai.api_key in the config file or the OPENAI_API_KEY environment variable")
		return
	}

	var message string
	switch llm.Classify(err) {
	case llm.FailureQuota:
		message = "I can't reach the language model right now because the account is out of credit. Please check the provider's billing page."
	case llm.FailureAuth:
		message = "I can't reach the language model because the configured API key was rejected. Please check the credential in the server config."
	default:
		s.logger.Error("chat turn failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "chat error")
		return
	}

	s.logger.Warn("model unavailable", "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	writeJSON(w, &agent.Response{
		Message:       message,
		Actions:       []agent.ActionRecord{},
		ActionResults: []any{},
	}, s.logger)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	owner := r.PathValue("userID")
	if owner == "" {
		s.errorResponse(w, http.StatusBadRequest, "user ID is required")
		return
	}
	blocks, err := s.services.TimeBlocks.GetAll(owner)
	if err != nil {
		s.serviceError(w, err)
		return
	}
	data, err := ical.Export(blocks, time.Now())
	if err != nil {
		s.logger.Error("calendar export failed", "owner", owner, "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "calendar export failed")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="lifeplan.ics"`)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write calendar response", "error", err)
	}
}

// handleEvents upgrades to a WebSocket and streams bus events until the
// client hangs up.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ch := s.bus.Subscribe(64)
	defer s.bus.Unsubscribe(ch)

	// Reader goroutine: we never expect client frames, but reading is
	// required to notice the close handshake.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteJSON(event); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

// serviceError maps planner errors to status codes.
func (s *Server) serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, planner.ErrUnauthenticated):
		s.errorResponse(w, http.StatusUnauthorized, "X-User-ID header is required")
	case errors.Is(err, planner.ErrNotFound):
		s.errorResponse(w, http.StatusNotFound, "not found")
	case errors.Is(err, planner.ErrValidation), errors.Is(err, planner.ErrInvalidRange):
		s.errorResponse(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    "invalid_request_error",
			"code":    code,
		},
	}, s.logger)
}
