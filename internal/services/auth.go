package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"phakamani-backend/internal/middleware"
	"phakamani-backend/internal/models"
)

// AdminSubject is the token subject issued to the single administrative user.
const AdminSubject = "admin"

// AuthService checks the configured admin credentials and issues session tokens.
type AuthService struct {
	jwt          *middleware.JWTAuth
	adminEmail   string
	passwordHash []byte
}

// NewAuthService hashes the configured password once so that login compares
// against a bcrypt hash rather than the plain secret.
func NewAuthService(jwt *middleware.JWTAuth, adminEmail, adminPassword string) (*AuthService, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	return &AuthService{
		jwt:          jwt,
		adminEmail:   adminEmail,
		passwordHash: hash,
	}, nil
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	emailOK := subtle.ConstantTimeCompare([]byte(strings.TrimSpace(req.Email)), []byte(s.adminEmail)) == 1
	// bcrypt runs even when the email does not match.
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(req.Password))

	if !emailOK || passwordErr != nil {
		return nil, &UnauthorizedError{Message: "Invalid credentials"}
	}

	token, err := s.jwt.Issue(AdminSubject)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	return &models.AuthTokens{
		AccessToken: token,
		TokenType:   "bearer",
	}, nil
}
