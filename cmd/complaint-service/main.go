package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"complaint-service/internal/auth"
	"complaint-service/internal/cache"
	"complaint-service/internal/client"
	"complaint-service/internal/config"
	"complaint-service/internal/db"
	httphandler "complaint-service/internal/http"
	"complaint-service/internal/http/middleware"
	"complaint-service/internal/logger"
	"complaint-service/internal/metrics"
	"complaint-service/internal/repository"
	"complaint-service/internal/routing"
	"complaint-service/internal/service"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// .env is optional; app.env and the process environment still apply
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment, cfg.LogLevel)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	vocabulary, err := routing.LoadVocabulary(cfg.Complaints.RoutingTablePath)
	if err != nil {
		appLogger.Fatal().Err(err).Str("path", cfg.Complaints.RoutingTablePath).Msg("failed to load routing table")
	}
	location, err := cfg.Location()
	if err != nil {
		appLogger.Fatal().Err(err).Msg("invalid analytics timezone")
	}

	var redisClient *redis.Client
	var submissionCounter middleware.Counter
	if cfg.Redis.Addr != "" {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		redisClient, err = cache.NewRedisClient(pingCtx, cfg.Redis)
		cancel()
		if err != nil {
			appLogger.Fatal().Err(err).Msg("failed to connect redis")
		}
		submissionCounter = cache.NewWindowCounter(redisClient, "complaints:daily")
	} else {
		appLogger.Warn().Msg("REDIS_ADDR not set, submission limit disabled")
	}

	var classifier service.Classifier
	if classifierClient := client.NewClassifierClient(cfg.Classifier); classifierClient.Enabled() {
		classifier = classifierClient
	} else {
		appLogger.Warn().Msg("AI_SERVICE_URL not set, category suggestions disabled")
	}

	appMetrics := metrics.New()
	store := repository.NewStore(database)

	complaintService := service.NewComplaintService(store, vocabulary, classifier, appMetrics, appLogger)
	assignmentService := service.NewAssignmentService(store, vocabulary, appMetrics, appLogger)
	departmentService := service.NewDepartmentService(store, vocabulary)
	workerService := service.NewWorkerService(store, vocabulary)
	analyticsService := service.NewAnalyticsService(store, vocabulary, location)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(
		complaintService,
		assignmentService,
		departmentService,
		workerService,
		analyticsService,
		appLogger,
	)
	authMiddleware := middleware.Auth(tokenParser)
	submissionLimit := middleware.SubmissionLimit(submissionCounter, cfg.Complaints.DailyLimit, appLogger)
	router := httphandler.NewRouter(handler, authMiddleware, submissionLimit, appMetrics, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info().
			Str("addr", addr).
			Int("routing_version", vocabulary.Version()).
			Msg("starting complaint service")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.Error().Err(err).Msg("server shutdown failed")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			appLogger.Error().Err(err).Msg("failed to close redis")
		}
	}
	if err := db.Close(database); err != nil {
		appLogger.Error().Err(err).Msg("failed to close database")
	}
}
