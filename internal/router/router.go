package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"phakamani-backend/internal/handlers"
	"phakamani-backend/internal/middleware"
)

func New(
	jwtAuth *middleware.JWTAuth,
	loginLimiter *middleware.RateLimiter,
	authHandler *handlers.AuthHandler,
	chatHandler *handlers.ChatHandler,
	socketHandler *handlers.SocketHandler,
	frontendURLs []string,
	log *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   frontendURLs,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/", handlers.Health)

	// ──── Auth (public, throttled) ────
	r.With(loginLimiter.Middleware).Post("/login", authHandler.Login)

	// ──── WebSocket stream (token in query) ────
	r.Get("/chat/{chat_id}/ws", socketHandler.Stream)

	// ──── Chat (bearer token) ────
	r.Group(func(r chi.Router) {
		r.Use(jwtAuth.Middleware)

		r.Post("/chat", chatHandler.PostMessage)
		r.Post("/chat-title", chatHandler.Title)
		r.Post("/chat/{chat_id}/stream", chatHandler.Stream)

		r.Get("/chats", chatHandler.ListChats)
		r.Get("/chats/{chat_id}", chatHandler.GetChat)
		r.Delete("/chats/{chat_id}", chatHandler.DeleteChat)
		r.Patch("/chats/{chat_id}/title", chatHandler.RenameChat)
	})

	return r
}
