package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	appLogger "github.com/FACorreiaa/go-voice-travel-planner/app/logger"
	"github.com/FACorreiaa/go-voice-travel-planner/app/observability/metrics"
	"github.com/FACorreiaa/go-voice-travel-planner/app/tracer"
	"github.com/FACorreiaa/go-voice-travel-planner/config"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/constraints"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/edit"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/explain"
	generativeAI "github.com/FACorreiaa/go-voice-travel-planner/internal/api/generative_ai"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/geocode"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/intent"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/itinerary"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/planner"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/poi"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/routing"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/session"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/weather"
	"github.com/FACorreiaa/go-voice-travel-planner/internal/api/wiki"
	api "github.com/FACorreiaa/go-voice-travel-planner/internal/router"
)

func main() {
	// Use standard log until slog is configured, in case godotenv fails
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found or error loading:", err)
	}

	cfg, err := config.InitConfig()
	if err != nil {
		log.Fatalf("FATAL: Error initializing config: %v", err)
	}

	logger := setupLogger()
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// --- Observability ---
	tracer.InitTracingAndMetrics(cfg.Handlers.Prometheus.Port)
	metrics.InitAppMetrics()

	// --- Generative AI ---
	// A nil generator is valid: every consumer degrades to deterministic
	// fallbacks when the model is unavailable.
	var generator generativeAI.Generator
	aiClient, err := generativeAI.NewAIClient(ctx, cfg.LLM.Model)
	if err != nil {
		logger.Warn("Generative AI unavailable, running with deterministic fallbacks", slog.Any("error", err))
	} else {
		generator = aiClient
	}

	// --- Dependency Injection ---
	geocodeService := geocode.NewService(cfg.Providers.NominatimBaseURL, cfg.Providers.DefaultCountryCode, logger)
	routingService := routing.NewService(cfg.Providers.OSRMBaseURL, logger)
	poiService := poi.NewService(poi.NewOverpassProvider(cfg.Providers.OverpassBaseURL), logger)

	deps := planner.Deps{
		Store:       session.NewStore(cfg.Planner.SessionTTL, logger),
		Intent:      intent.NewService(generator, logger),
		Constraints: constraints.NewService(generator, geocodeService, logger),
		Geocode:     geocodeService,
		POI:         poiService,
		Itinerary:   itinerary.NewService(routingService, logger),
		Edit:        edit.NewService(generator, logger),
		Explain:     explain.NewService(generator, logger),
		Wiki:        wiki.NewService(cfg.Providers.WikivoyageBaseURL, logger),
		Weather:     weather.NewService(cfg.Providers.OpenMeteoGeoURL, cfg.Providers.OpenMeteoBaseURL, logger),
	}
	plannerService := planner.NewService(deps, cfg.Planner.MaxCandidates, logger)
	plannerHandler := planner.NewHandler(plannerService, logger)

	// --- Router Setup ---
	apiRouter := api.SetupRouter(&api.Config{
		PlannerHandler:  plannerHandler,
		RateLimitPerMin: cfg.Planner.RateLimitPerMin,
	})

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(appLogger.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.StripSlashes)
	router.Use(middleware.Timeout(cfg.Server.Timeout))
	router.Use(middleware.Compress(5, "application/json"))
	router.Mount("/", apiRouter)

	// --- HTTP Server Setup ---
	srv := &http.Server{
		Addr:         cfg.Server.HTTPPort,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	go func() {
		logger.Info("Starting HTTP server", slog.String("address", srv.Addr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server ListenAndServe error", slog.Any("error", err))
			cancel()
		}
	}()

	<-ctx.Done()

	// --- Graceful Shutdown ---
	logger.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server graceful shutdown failed", slog.Any("error", err))
	} else {
		logger.Info("HTTP server gracefully stopped")
	}

	logger.Info("Application shut down complete.")
}

// setupLogger configures and returns the application logger.
func setupLogger() *slog.Logger {
	var logger *slog.Logger
	env := os.Getenv("APP_ENV")

	if env == "development" || env == "" { // Default to development if not set
		// Colored logs for development
		tintOpts := &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: time.Kitchen,
			AddSource:  true,
		}
		logger = slog.New(tint.NewHandler(os.Stdout, tintOpts))
		log.Println("Initialized development logger (tint)")
	} else {
		// JSON logs for production or other environments
		jsonOpts := &slog.HandlerOptions{
			Level:     slog.LevelInfo,
			AddSource: false,
		}
		logger = slog.New(slog.NewJSONHandler(os.Stdout, jsonOpts))
		log.Println("Initialized production logger (JSON)")
	}
	return logger
}
