package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Responder produces the assistant reply for a streamed turn: it validates
// the message, generates (or substitutes) the reply and persists it before any
// byte reaches the client.
type Responder struct {
	assistant Assistant
	chats     *ChatService
	log       *zap.Logger
}

func NewResponder(assistant Assistant, chats *ChatService, log *zap.Logger) *Responder {
	return &Responder{assistant: assistant, chats: chats, log: log}
}

// Reply returns the final reply text. Only a blank message is an error;
// generation failures become ApologyReply. Generation and persistence run
// detached from ctx cancellation.
func (r *Responder) Reply(ctx context.Context, chatID uuid.UUID, message string) (string, error) {
	// Whitespace-only counts as blank, which is stricter than rejecting
	// only the empty string.
	if strings.TrimSpace(message) == "" {
		return "", &ValidationError{Field: "message", Message: "Message is required"}
	}

	ctx = context.WithoutCancel(ctx)

	text, err := r.assistant.Reply(ctx, message)
	if err != nil {
		r.log.Warn("generation failed, sending apology",
			zap.String("chat_id", chatID.String()), zap.Error(err))
		text = ApologyReply
	}

	r.chats.RecordAssistantReply(ctx, chatID, text)
	return text, nil
}
