package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"phakamani-backend/internal/models"
)

type chatStore interface {
	Create(ctx context.Context, userID uuid.UUID, title string) (*models.Chat, error)
	List(ctx context.Context) ([]models.Chat, error)
	UpdateTitle(ctx context.Context, id uuid.UUID, title string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type messageStore interface {
	Append(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error)
	ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error)
	DeleteByChat(ctx context.Context, chatID uuid.UUID) error
}

// ChatService owns chat lifecycle: creation on first message, titles,
// history, rename and delete. Every chat belongs to the admin profile.
type ChatService struct {
	chats     chatStore
	messages  messageStore
	assistant Assistant
	ownerID   uuid.UUID
	log       *zap.Logger
}

func NewChatService(chats chatStore, messages messageStore, assistant Assistant, ownerID uuid.UUID, log *zap.Logger) *ChatService {
	return &ChatService{
		chats:     chats,
		messages:  messages,
		assistant: assistant,
		ownerID:   ownerID,
		log:       log,
	}
}

// PostMessage stores a user message. A nil chatID starts a new chat first.
// If the append fails after the chat was created, the empty chat stays behind.
func (s *ChatService) PostMessage(ctx context.Context, chatID *uuid.UUID, message string) (uuid.UUID, error) {
	// Whitespace-only counts as blank, which is stricter than rejecting
	// only the empty string.
	if strings.TrimSpace(message) == "" {
		return uuid.Nil, &ValidationError{Field: "message", Message: "Message is required"}
	}

	var id uuid.UUID
	created := false
	if chatID == nil {
		chat, err := s.chats.Create(ctx, s.ownerID, models.DefaultChatTitle)
		if err != nil {
			return uuid.Nil, err
		}
		id = chat.ID
		created = true
		s.log.Info("chat created", zap.String("chat_id", id.String()))
	} else {
		id = *chatID
	}

	if _, err := s.messages.Append(ctx, id, models.RoleUser, message); err != nil {
		if created {
			s.log.Warn("user message not stored, new chat left empty",
				zap.String("chat_id", id.String()), zap.Error(err))
		}
		return uuid.Nil, err
	}

	return id, nil
}

// DeriveTitle never fails and never returns an empty string.
func (s *ChatService) DeriveTitle(ctx context.Context, message string) string {
	msg := strings.TrimSpace(message)
	if msg == "" {
		return models.DefaultChatTitle
	}

	raw, err := s.assistant.Title(ctx, msg)
	if err != nil {
		s.log.Warn("title generation failed, using first words", zap.Error(err))
	}

	title := normalizeTitle(raw)
	if title == "" {
		title = normalizeTitle(firstWords(msg, 2))
	}
	if title == "" {
		return models.DefaultChatTitle
	}
	return title
}

func normalizeTitle(s string) string {
	s = strings.NewReplacer("\r", "", "\n", "").Replace(s)
	s = strings.TrimSpace(s)
	if len(s) >= len("title:") && strings.EqualFold(s[:len("title:")], "title:") {
		s = strings.TrimSpace(s[len("title:"):])
	}
	s = strings.Trim(s, `"'`)
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}

// ListChats returns all chats, newest first.
func (s *ChatService) ListChats(ctx context.Context) ([]models.Chat, error) {
	return s.chats.List(ctx)
}

// GetMessages returns a chat's messages, oldest first. An unknown chat has none.
func (s *ChatService) GetMessages(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	return s.messages.ListByChat(ctx, chatID)
}

// DeleteChat removes the chat's messages and then the chat. The two steps are
// not atomic; a failure in the second leaves a chat without messages.
func (s *ChatService) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	if err := s.messages.DeleteByChat(ctx, chatID); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID); err != nil {
		s.log.Error("messages deleted but chat removal failed",
			zap.String("chat_id", chatID.String()), zap.Error(err))
		return fmt.Errorf("messages removed but chat deletion failed: %w", err)
	}
	s.log.Info("chat deleted", zap.String("chat_id", chatID.String()))
	return nil
}

// RenameChat stores the trimmed title and returns it.
func (s *ChatService) RenameChat(ctx context.Context, chatID uuid.UUID, title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", &ValidationError{Field: "message", Message: "Title cannot be empty"}
	}
	if err := s.chats.UpdateTitle(ctx, chatID, title); err != nil {
		return "", err
	}
	return title, nil
}

// RecordAssistantReply appends an assistant message. Failures are logged only.
func (s *ChatService) RecordAssistantReply(ctx context.Context, chatID uuid.UUID, content string) {
	if _, err := s.messages.Append(ctx, chatID, models.RoleAssistant, content); err != nil {
		s.log.Warn("could not persist assistant message",
			zap.String("chat_id", chatID.String()), zap.Error(err))
	}
}
