package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"phakamani-backend/internal/config"
	"phakamani-backend/internal/database"
	"phakamani-backend/internal/handlers"
	"phakamani-backend/internal/llm/factory"
	"phakamani-backend/internal/logger"
	"phakamani-backend/internal/middleware"
	"phakamani-backend/internal/repository"
	"phakamani-backend/internal/router"
	"phakamani-backend/internal/services"
	"phakamani-backend/internal/stream"
	"phakamani-backend/internal/tracer"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("✗ Configuration invalid: %v", err)
	}

	// ──── Step 2: Logger & Tracing ────
	zlog := logger.New(cfg.LogFilePath, cfg.IsProduction())
	defer zlog.Sync()
	zlog.Info("🚀 Starting Phakamani Backend...", zap.String("env", cfg.Env))

	ctx := context.Background()
	shutdownTracer := tracer.Init(ctx, cfg.OTelEnabled, cfg.OTelEndpoint, logger.Module(zlog, "tracer"))

	// ──── Step 3: Datastore Client & Repositories ────
	client := repository.NewClient(cfg.RESTEndpoint(), cfg.SupabaseServiceRoleKey, cfg.DatastoreTimeout)
	profileRepo := repository.NewProfileRepo(client)
	chatRepo := repository.NewChatRepo(client)
	messageRepo := repository.NewMessageRepo(client)
	zlog.Info("✓ Datastore client ready", zap.String("endpoint", cfg.RESTEndpoint()))

	// ──── Step 4: Admin Profile ────
	profileService := services.NewProfileService(profileRepo, logger.Module(zlog, "profile"))
	if err := profileService.EnsureAdmin(ctx, cfg.AdminUserID, cfg.AdminEmail); err != nil {
		zlog.Warn("✗ Admin profile check failed, continuing", zap.Error(err))
	}

	// ──── Step 5: Generation Backend ────
	provider, closeProvider, err := factory.NewLLMProvider(ctx, factory.Settings{
		Provider:      cfg.LLMProvider,
		Model:         cfg.LLMModel,
		OllamaBaseURL: cfg.OllamaBaseURL,
		GeminiAPIKey:  cfg.GeminiAPIKey,
	})
	if err != nil {
		zlog.Warn("✗ LLM not loaded, replies will echo", zap.Error(err))
		provider = nil
	}
	defer closeProvider()

	assistant := services.NewAssistant(provider, cfg.LLMTimeout, cfg.LLMConcurrentReqs)
	if services.IsModelBacked(assistant) {
		zlog.Info("✓ LLM loaded", zap.String("provider", cfg.LLMProvider), zap.String("model", cfg.LLMModel))
	}

	// ──── Step 6: Login Throttle ────
	var counter middleware.Counter = middleware.NewMemoryCounter(time.Minute)
	if cfg.RedisURL != "" {
		redisClient, err := database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zlog.Warn("✗ Redis unavailable, using in-memory login throttle", zap.Error(err))
		} else {
			defer redisClient.Close()
			counter = middleware.NewRedisCounter(redisClient)
			zlog.Info("✓ Redis connected")
		}
	}
	loginLimiter := middleware.NewRateLimiter(counter, "login_limit:", cfg.LoginRateLimit, time.Minute, logger.Module(zlog, "ratelimit"))

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret, cfg.TokenTTL)
	authService, err := services.NewAuthService(jwtAuth, cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		zlog.Fatal("✗ Auth service initialization failed", zap.Error(err))
	}
	chatService := services.NewChatService(chatRepo, messageRepo, assistant, cfg.AdminUserID, logger.Module(zlog, "chat"))
	responder := services.NewResponder(assistant, chatService, logger.Module(zlog, "responder"))
	pacer := &stream.Pacer{Delay: cfg.StreamTokenDelay}

	// ──── Initialize Handlers ────
	httpLog := logger.Module(zlog, "http")
	authHandler := handlers.NewAuthHandler(authService, httpLog)
	chatHandler := handlers.NewChatHandler(chatService, responder, pacer, httpLog)
	socketHandler := handlers.NewSocketHandler(jwtAuth, responder, pacer, cfg.FrontendURLs, httpLog)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		loginLimiter,
		authHandler,
		chatHandler,
		socketHandler,
		cfg.FrontendURLs,
		httpLog,
	)

	server := &http.Server{
		Addr:        fmt.Sprintf(":%s", cfg.Port),
		Handler:     otelhttp.NewHandler(r, "phakamani-backend"),
		ReadTimeout: 15 * time.Second,
		// a stream response includes generation time
		WriteTimeout: cfg.LLMTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		zlog.Info("Shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
		shutdownTracer(ctx)
	}()

	zlog.Info(fmt.Sprintf("✓ Phakamani Backend ready on http://localhost:%s", cfg.Port))

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		zlog.Fatal("Server error", zap.Error(err))
	}
}
