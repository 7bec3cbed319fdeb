package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"

	"github.com/kmahoney/robotourney/brackets"
	"github.com/kmahoney/robotourney/challenge"
	"github.com/kmahoney/robotourney/config"
	"github.com/kmahoney/robotourney/db"
	"github.com/kmahoney/robotourney/handlers"
	"github.com/kmahoney/robotourney/repositories"
	api "github.com/kmahoney/robotourney/routes"
	"github.com/kmahoney/robotourney/services"
	"github.com/kmahoney/robotourney/storage"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort))

	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	var uploader storage.FileUploader
	if cfg.R2Enabled() {
		uploader, err = storage.NewR2Uploader(storage.R2Config{
			AccountID:       cfg.R2AccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			BucketName:      cfg.R2BucketName,
			PublicBaseURL:   cfg.R2PublicBaseURL,
		})
		if err != nil {
			logger.Error("failed to initialize R2 uploader", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("R2 uploader initialized")
	} else {
		logger.Info("R2 not configured, report snapshots disabled")
	}

	description, err := loadChallenge(cfg.ChallengeFile)
	if err != nil {
		logger.Error("failed to load challenge description", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("challenge description loaded", slog.Int("goals", len(description.Goals())))

	wsHub := brackets.NewHub(logger)
	go wsHub.Run()
	logger.Info("websocket hub started")

	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	scoreRepo := repositories.NewPostgresScoreRepository(dbConn)
	rowRepo := repositories.NewPostgresBracketRowRepository(dbConn)
	logger.Info("repositories initialized")

	bracketService := services.NewBracketService(
		rowRepo,
		scoreRepo,
		teamRepo,
		description,
		cfg.WinnerCriteria,
		wsHub,
		logger,
	)
	if err := bracketService.ValidateChallengeFormula(); err != nil {
		logger.Error("challenge formula validation failed", slog.Any("error", err))
		os.Exit(1)
	}
	scheduleService := services.NewScheduleService(teamRepo, uploader, cfg.ScheduleParams, logger)
	logger.Info("services initialized")

	bracketHandler := handlers.NewBracketHandler(bracketService)
	scheduleHandler := handlers.NewScheduleHandler(scheduleService)
	webSocketHandler := handlers.NewWebsocketHandler(wsHub, logger)
	logger.Info("HTTP handlers initialized")

	router := chi.NewRouter()
	api.SetupRoutes(router, bracketHandler, scheduleHandler, webSocketHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			os.Exit(1)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
}

// loadChallenge reads the rubric from CHALLENGE_FILE, or falls back to a
// single-goal points rubric so the service can run without one.
func loadChallenge(path string) (challenge.Description, error) {
	if path != "" {
		return challenge.Load(path)
	}
	return challenge.NewFixed([]challenge.Goal{
		{Name: "points", Min: 0, Max: 1000, Multiplier: 1},
	}), nil
}
