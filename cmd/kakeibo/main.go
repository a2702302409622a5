package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/smilior/kakeibo/internal/amqp"
	"github.com/smilior/kakeibo/internal/config"
	apphttp "github.com/smilior/kakeibo/internal/http"
	"github.com/smilior/kakeibo/internal/llm"
	"github.com/smilior/kakeibo/internal/log"
	"github.com/smilior/kakeibo/internal/narrative"
	"github.com/smilior/kakeibo/internal/period"
	"github.com/smilior/kakeibo/internal/services"
	"github.com/smilior/kakeibo/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())

	logger.Info("Starting kakeibo server")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", log.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// AMQP is optional: without a broker the API still works, but the
	// worker-side notifications and cache invalidation are skipped.
	var publisher services.EventPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", log.FieldError, err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	var provider llm.Provider
	if cfg.GeminiAPIKey != "" {
		gemini, err := llm.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey)
		if err != nil {
			logger.Error("Failed to initialize Gemini client", log.FieldError, err)
			os.Exit(1)
		}
		provider = gemini
		logger.Info("Gemini client initialized", log.FieldModel, cfg.GeminiModel)
	} else {
		logger.Info("Gemini disabled - no GEMINI_API_KEY provided")
	}

	narratives := narrative.NewService(repo, provider, logger.WithComponent(log.ComponentNarrative), cfg.GenerateTimeout)

	calendar := period.JapaneseHolidays{}
	expenses := services.NewExpenseService(repo, publisher, logger.WithComponent(log.ComponentExpense))
	dashboard := services.NewDashboardService(repo, calendar, logger.WithComponent(log.ComponentDashboard))
	analytics := services.NewAnalyticsService(repo, narratives, calendar, logger.WithComponent(log.ComponentAnalytics))

	srv := apphttp.NewServer(":"+cfg.Port, expenses, dashboard, analytics, repo, logger.WithComponent(log.ComponentHTTP))

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting kakeibo server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
