package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"phakamani-backend/internal/middleware"
	"phakamani-backend/internal/models"
	"phakamani-backend/internal/repository"
	"phakamani-backend/internal/services"
)

type AuthHandler struct {
	authService *services.AuthService
	log         *zap.Logger
}

func NewAuthHandler(authService *services.AuthService, log *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, log: log}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	tokens, err := h.authService.Login(r.Context(), req)
	if err != nil {
		handleServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, tokens)
}

// Health answers the unauthenticated liveness probe.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:  "ok",
		Message: "Phakamani AI Assistant API",
	})
}

// ─── Helpers ───

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: middleware.RequestID(r),
		},
		Detail: message,
	}
}

// handleServiceError maps service and datastore errors onto the error
// envelope. Datastore details are logged, never returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var (
		validationErr   *services.ValidationError
		unauthorizedErr *services.UnauthorizedError
		unavailableErr  *repository.UnavailableError
		rejectedErr     *repository.RejectedError
	)

	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", validationErr.Message, r))
	case errors.As(err, &unauthorizedErr):
		writeJSON(w, http.StatusUnauthorized, errorResp("INVALID_CREDENTIALS", unauthorizedErr.Message, r))
	case errors.As(err, &unavailableErr):
		log.Error("datastore unavailable", requestFields(r, err)...)
		writeJSON(w, http.StatusInternalServerError, errorResp("DATASTORE_UNAVAILABLE", "Datastore is unavailable", r))
	case errors.As(err, &rejectedErr):
		log.Error("datastore rejected request", requestFields(r, err)...)
		writeJSON(w, http.StatusInternalServerError, errorResp("DATASTORE_REJECTED", "Datastore rejected the request", r))
	default:
		log.Error("unexpected error", requestFields(r, err)...)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func requestFields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("request_id", middleware.RequestID(r)),
		zap.String("subject", middleware.GetSubject(r.Context())),
		zap.Error(err),
	}
}
