package repository

import (
	"context"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"phakamani-backend/internal/models"
)

const messagesTable = "messages"

type MessageRepo struct {
	client *Client
}

func NewMessageRepo(client *Client) *MessageRepo {
	return &MessageRepo{client: client}
}

func (r *MessageRepo) Append(ctx context.Context, chatID uuid.UUID, role, content string) (*models.Message, error) {
	record := map[string]any{
		"chat_id": chatID,
		"role":    role,
		"content": content,
	}
	return insertOne[models.Message](ctx, r.client, messagesTable, record)
}

// ListByChat returns the chat's messages, oldest first.
func (r *MessageRepo) ListByChat(ctx context.Context, chatID uuid.UUID) ([]models.Message, error) {
	messages := []models.Message{}
	err := r.client.executeTo(ctx, "GET "+messagesTable, messagesTable, &messages, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "", false).
			Eq("chat_id", chatID.String()).
			Order("created_at", &postgrest.OrderOpts{Ascending: true})
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

func (r *MessageRepo) DeleteByChat(ctx context.Context, chatID uuid.UUID) error {
	_, err := r.client.execute(ctx, "DELETE "+messagesTable, messagesTable, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Delete("minimal", "").Eq("chat_id", chatID.String())
	})
	return err
}
