package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photobooth-backend/internal/config"
	"photobooth-backend/internal/handlers"
	"photobooth-backend/internal/middleware"
	"photobooth-backend/internal/repository"
	"photobooth-backend/internal/services"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Run starts the photo booth server
func Run() {
	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Initialize repositories
	photoRepo := repository.NewPhotoRepository(db)
	promptRepo := repository.NewPromptRepository(db)
	rouletteRepo := repository.NewRouletteRepository(db)

	// Initialize services
	storage, err := services.NewStorageService(context.Background(), cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create storage service")
	}
	if err := storage.EnsureBucket(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure storage bucket")
	}

	generator, err := services.NewGenAIService(context.Background(), cfg.GenAI)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create genai service")
	}

	feedHub := services.NewFeedHub()
	photoService := services.NewPhotoService(photoRepo, promptRepo, storage, generator, feedHub)
	rouletteService := services.NewRouletteService(rouletteRepo, promptRepo)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.Auth)
	photoHandler := handlers.NewPhotoHandler(photoService)
	originalPhotoHandler := handlers.NewOriginalPhotoHandler(photoService)
	promptHandler := handlers.NewPromptHandler(promptRepo)
	rouletteHandler := handlers.NewRouletteHandler(rouletteService)
	wsHandler := handlers.NewWebSocketHandler(feedHub)

	tokens := middleware.Tokens{
		Admin:  cfg.Auth.AdminToken,
		Upload: cfg.Auth.UploadToken,
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		r.Route("/photos", func(r chi.Router) {
			// Public feed endpoints; the feedsync client depends on these.
			r.Get("/", photoHandler.List)
			r.Get("/since/{timestamp}", photoHandler.ListSince)

			r.Group(func(r chi.Router) {
				r.Use(tokens.RequireAdmin)
				r.Post("/generate", photoHandler.Generate)
				r.Post("/generate-with-prompt", photoHandler.GenerateWithPrompt)
				r.Post("/{id}/like", photoHandler.Like)
			})
		})

		r.Route("/original-photos", func(r chi.Router) {
			r.Use(tokens.RequireAny)
			r.Post("/", originalPhotoHandler.Upload)
			r.Get("/", originalPhotoHandler.List)
		})

		r.Route("/prompts", func(r chi.Router) {
			r.Get("/", promptHandler.List)
			r.Get("/{id}", promptHandler.Get)

			r.Group(func(r chi.Router) {
				r.Use(tokens.RequireAdmin)
				r.Post("/", promptHandler.Create)
				r.Put("/{id}", promptHandler.Update)
				r.Delete("/{id}", promptHandler.Delete)
			})
		})

		r.Route("/roulette", func(r chi.Router) {
			r.Use(tokens.RequireAdmin)
			r.Post("/spin", rouletteHandler.Spin)
			r.Get("/current", rouletteHandler.Current)
			r.Get("/categories", rouletteHandler.Categories)
			r.Get("/prompts", rouletteHandler.Prompts)
			r.Post("/spin-prompts", rouletteHandler.SpinPrompts)
			r.Post("/draw-prompt", rouletteHandler.DrawPrompt)
			r.Post("/draw-random-prompt", rouletteHandler.DrawRandomPrompt)
		})
	})

	// WebSocket route
	r.Get("/ws", wsHandler.HandleFeed)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Disconnect feed viewers before the listener goes away
	feedHub.Close()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
