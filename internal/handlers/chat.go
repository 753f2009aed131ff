package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"phakamani-backend/internal/models"
	"phakamani-backend/internal/services"
	"phakamani-backend/internal/stream"
)

type ChatHandler struct {
	chatService *services.ChatService
	responder   *services.Responder
	pacer       *stream.Pacer
	log         *zap.Logger
}

func NewChatHandler(chatService *services.ChatService, responder *services.Responder, pacer *stream.Pacer, log *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		responder:   responder,
		pacer:       pacer,
		log:         log,
	}
}

// PostMessage stores a user message, creating a chat when no chat_id is sent.
func (h *ChatHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var req models.PostMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	var chatID *uuid.UUID
	if req.ChatID != nil && strings.TrimSpace(*req.ChatID) != "" {
		id, err := uuid.Parse(strings.TrimSpace(*req.ChatID))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
			return
		}
		chatID = &id
	}

	id, err := h.chatService.PostMessage(r.Context(), chatID, req.Message)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.PostMessageResponse{ChatID: id})
}

func (h *ChatHandler) Title(w http.ResponseWriter, r *http.Request) {
	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	writeJSON(w, http.StatusOK, models.TitleResponse{
		Title: h.chatService.DeriveTitle(r.Context(), req.Message),
	})
}

// Stream generates and persists the assistant reply, then sends it as paced
// text/plain chunks ending with a newline.
func (h *ChatHandler) Stream(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid JSON body", r))
		return
	}

	text, err := h.responder.Reply(r.Context(), chatID, req.Message)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	if err := h.pacer.Stream(r.Context(), text, stream.NewHTTPSink(w)); err != nil {
		h.log.Debug("stream ended early", zap.String("chat_id", chatID.String()), zap.Error(err))
	}
}

func (h *ChatHandler) ListChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.chatService.ListChats(r.Context())
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, chats)
}

func (h *ChatHandler) GetChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	messages, err := h.chatService.GetMessages(r.Context(), chatID)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.MessagesResponse{Messages: messages})
}

func (h *ChatHandler) DeleteChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	if err := h.chatService.DeleteChat(r.Context(), chatID); err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (h *ChatHandler) RenameChat(w http.ResponseWriter, r *http.Request) {
	chatID, ok := parseChatID(w, r)
	if !ok {
		return
	}

	var req models.MessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	title, err := h.chatService.RenameChat(r.Context(), chatID, req.Message)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, models.RenameResponse{Success: true, Title: title})
}

func parseChatID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "chat_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid chat ID", r))
		return uuid.Nil, false
	}
	return id, true
}
