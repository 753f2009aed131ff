package models

import "github.com/google/uuid"

// Profile is the stored record of the administrative identity.
type Profile struct {
	ID       uuid.UUID `json:"id"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthTokens struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
