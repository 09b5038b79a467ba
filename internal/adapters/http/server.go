// Package http exposes the chat API: session start/continue endpoints, the
// WhatsApp webhook pair, health and metrics.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ndanaka/chatflow/internal/logging"
	"github.com/ndanaka/chatflow/pkg/engine"
	"github.com/ndanaka/chatflow/pkg/session"
	"github.com/ndanaka/chatflow/pkg/whatsapp"
)

// Server handles the chat API over a stateless engine plus a session
// manager that serializes access per conversation.
type Server struct {
	engine   *engine.Engine
	sessions *session.Manager
	whatsapp *whatsapp.Service
	verify   string
	metrics  http.Handler
	logger   *slog.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithWhatsApp mounts the WhatsApp webhook endpoints.
func WithWhatsApp(svc *whatsapp.Service, verifyToken string) Option {
	return func(s *Server) {
		s.whatsapp = svc
		s.verify = verifyToken
	}
}

// WithMetricsHandler mounts a handler on /metrics, typically promhttp.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// NewServer wires a Server.
func NewServer(eng *engine.Engine, sessions *session.Manager, opts ...Option) *Server {
	s := &Server{
		engine:   eng,
		sessions: sessions,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/typebots/{typebotId}/startChat", s.handleStartChat)
		r.Post("/sessions/{sessionId}/continueChat", s.handleContinueChat)
		if s.whatsapp != nil {
			r.Get("/whatsapp/webhook", s.handleWhatsAppVerify)
			r.Post("/whatsapp/webhook", s.handleWhatsAppWebhook)
		}
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type startChatRequest struct {
	PrefilledVariables map[string]string `json:"prefilledVariables,omitempty"`
}

type continueChatRequest struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleStartChat(w http.ResponseWriter, r *http.Request) {
	typebotID := chi.URLParam(r, "typebotId")

	var body startChatRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
			return
		}
	}

	state, reply, err := s.engine.StartChat(r.Context(), engine.StartParams{
		TypebotID: typebotID,
		Prefilled: body.PrefilledVariables,
	})
	if err != nil {
		s.logger.Warn("start chat failed", "typebot", typebotID, "error", err)
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
		return
	}

	if !reply.IsCompleted {
		if err := s.sessions.Save(r.Context(), state); err != nil {
			s.logger.Error("failed to save session", "session", state.ID, "error", err)
			writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to persist session"})
			return
		}
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleContinueChat(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionId")

	var body continueChatRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	var reply *engine.Reply
	err := s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		state, err := s.sessions.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		reply, err = s.engine.ContinueChat(ctx, state, body.Message)
		if err != nil {
			return err
		}
		if reply.IsCompleted {
			return s.sessions.Delete(ctx, sessionID)
		}
		return s.sessions.Save(ctx, state)
	})

	switch {
	case errors.Is(err, session.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "session not found"})
	case errors.Is(err, engine.ErrNotAwaitingInput):
		writeJSON(w, http.StatusConflict, errorResponse{Error: "session is not awaiting input"})
	case err != nil:
		s.logger.Error("continue chat failed", "session", sessionID, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	default:
		writeJSON(w, http.StatusOK, reply)
	}
}

// handleWhatsAppVerify answers Meta's subscription handshake.
func (s *Server) handleWhatsAppVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") == "subscribe" && q.Get("hub.verify_token") == s.verify {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(q.Get("hub.challenge")))
		return
	}
	w.WriteHeader(http.StatusForbidden)
}

// handleWhatsAppWebhook always acknowledges with 200 so Meta does not
// retry; processing failures are logged, not surfaced.
func (s *Server) handleWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	messages, err := whatsapp.ParseWebhook(body)
	if err != nil {
		s.logger.Warn("invalid whatsapp webhook payload", "error", err)
		w.WriteHeader(http.StatusOK)
		return
	}

	for _, msg := range messages {
		if err := s.whatsapp.HandleMessage(r.Context(), msg); err != nil {
			s.logger.Error("whatsapp message handling failed", "from", msg.From, "error", err)
		}
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("response encode failed", "error", err)
	}
}
