package repository

import (
	"context"

	"github.com/google/uuid"
	postgrest "github.com/supabase-community/postgrest-go"

	"phakamani-backend/internal/models"
)

const profilesTable = "profiles"

type ProfileRepo struct {
	client *Client
}

func NewProfileRepo(client *Client) *ProfileRepo {
	return &ProfileRepo{client: client}
}

// GetByID returns nil, nil when no profile has the given id.
func (r *ProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var rows []models.Profile
	err := r.client.executeTo(ctx, "GET "+profilesTable, profilesTable, &rows, func(q *postgrest.QueryBuilder) *postgrest.FilterBuilder {
		return q.Select("*", "", false).Eq("id", id.String())
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *ProfileRepo) Create(ctx context.Context, p *models.Profile) error {
	created, err := insertOne[models.Profile](ctx, r.client, profilesTable, p)
	if err != nil {
		return err
	}
	*p = *created
	return nil
}
