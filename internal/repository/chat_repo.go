package repository

import (
	"context"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"phakamani-backend/internal/models"
)

const chatsTable = "chats"

type ChatRepo struct {
	client *Client
}

func NewChatRepo(client *Client) *ChatRepo {
	return &ChatRepo{client: client}
}

// Create inserts a chat owned by userID. Retrying after an ambiguous failure
// may create a duplicate.
func (r *ChatRepo) Create(ctx context.Context, userID uuid.UUID, title string) (*models.Chat, error) {
	record := map[string]any{
		"user_id": userID,
		"title":   title,
	}
	return insertOne[models.Chat](ctx, r.client, chatsTable, record)
}

// List returns every chat, newest first.
func (r *ChatRepo) List(ctx context.Context) ([]models.Chat, error) {
	chats := []models.Chat{}
	err := r.client.executeTo(ctx, "GET "+chatsTable, chatsTable, &chats, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "", false).Order("created_at", &postgrest.OrderOpts{Ascending: false})
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

func (r *ChatRepo) UpdateTitle(ctx context.Context, id uuid.UUID, title string) error {
	_, err := r.client.execute(ctx, "PATCH "+chatsTable, chatsTable, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Update(map[string]string{"title": title}, "minimal", "").Eq("id", id.String())
	})
	return err
}

func (r *ChatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.client.execute(ctx, "DELETE "+chatsTable, chatsTable, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Delete("minimal", "").Eq("id", id.String())
	})
	return err
}
