package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"httpchat/domain/chat"
	"httpchat/errors"
	"httpchat/infrastructure/http/wire"
	"httpchat/services"
)

// ChatServer exposes the sync operations over JSON/HTTP. Handlers are
// stateless; all validation happens here at the boundary before a command
// reaches the service.
type ChatServer struct {
	chatService services.IChatService
	log         *slog.Logger
}

func NewChatServer(log *slog.Logger, chatService services.IChatService) *ChatServer {
	return &ChatServer{chatService: chatService, log: log}
}

func (s *ChatServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/messages", s.handleSendMessage)
	mux.HandleFunc("GET /api/messages", s.handleListMessages)
	mux.HandleFunc("GET /api/messages/search", s.handleSearchMessages)
	mux.HandleFunc("GET /api/conversations", s.handleListConversations)
	return s.withRequestLog(mux)
}

func (s *ChatServer) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req wire.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Text == nil {
		s.writeError(w, http.StatusBadRequest, errors.ErrMissingText.Error())
		return
	}

	msg, err := s.chatService.Send(r.Context(), chat.SendMessageCommand{
		Conversation: req.Conversation,
		From:         req.From,
		Text:         *req.Text,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, wire.SendMessageResponse{
		ID:        wire.MessageID(msg.ID),
		Timestamp: msg.Timestamp,
	})
}

func (s *ChatServer) handleListMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	cmd := chat.ListMessagesCommand{Conversation: query.Get("conversation")}

	// A present "since" selects delta mode: empty means 0, a non-numeric
	// value falls back to the initial window.
	if query.Has("since") {
		raw := query.Get("since")
		if raw == "" {
			cmd.Since = lo.ToPtr(int64(0))
		} else if since, err := strconv.ParseInt(raw, 10, 64); err == nil {
			cmd.Since = &since
		}
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			cmd.Limit = limit
		}
	}

	messages, err := s.chatService.ListMessages(cmd)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wire.ListMessagesResponse{Messages: wire.FromMessages(messages)})
}

func (s *ChatServer) handleSearchMessages(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	cmd := chat.SearchMessagesCommand{
		Conversation: query.Get("conversation"),
		Query:        query.Get("q"),
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			cmd.Limit = limit
		}
	}

	messages, err := s.chatService.SearchMessages(r.Context(), cmd)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wire.ListMessagesResponse{Messages: wire.FromMessages(messages)})
}

func (s *ChatServer) handleListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := s.chatService.ListConversations(chat.ListConversationsCommand{
		From: r.URL.Query().Get("from"),
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wire.ListConversationsResponse{
		Conversations: wire.FromSummaries(summaries),
	})
}

// writeServiceError maps the error taxonomy to a status code. Validation
// failures carry their description; storage failures stay generic.
func (s *ChatServer) writeServiceError(w http.ResponseWriter, err error) {
	status := errors.MapToHTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
		s.writeError(w, status, "internal server error")
		return
	}
	s.writeError(w, status, err.Error())
}

func (s *ChatServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, wire.ErrorResponse{Error: message})
}

func (s *ChatServer) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Error("failed to encode response", "error", err)
	}
}

func (s *ChatServer) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		next.ServeHTTP(w, r)
		s.log.Debug("handled request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start))
	})
}
