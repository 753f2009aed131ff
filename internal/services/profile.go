package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"phakamani-backend/internal/models"
)

const adminFullName = "Admin User"

type profileStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	Create(ctx context.Context, p *models.Profile) error
}

type ProfileService struct {
	profiles profileStore
	log      *zap.Logger
}

func NewProfileService(profiles profileStore, log *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, log: log}
}

// EnsureAdmin creates the admin profile when it does not exist yet. Chats
// reference it as their owner.
func (s *ProfileService) EnsureAdmin(ctx context.Context, id uuid.UUID, email string) error {
	existing, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("look up admin profile: %w", err)
	}
	if existing != nil {
		s.log.Info("admin profile present", zap.String("id", id.String()))
		return nil
	}

	profile := &models.Profile{ID: id, Email: email, FullName: adminFullName}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return fmt.Errorf("create admin profile: %w", err)
	}
	s.log.Info("admin profile created", zap.String("id", id.String()))
	return nil
}
