package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jeongsim/accounting-api/internal/config"
	"github.com/jeongsim/accounting-api/internal/domain"
	"github.com/jeongsim/accounting-api/internal/handler"
	"github.com/jeongsim/accounting-api/internal/infra/appscript"
	"github.com/jeongsim/accounting-api/internal/infra/cache"
	"github.com/jeongsim/accounting-api/internal/infra/gsheets"
	"github.com/jeongsim/accounting-api/internal/infra/observability"
	"github.com/jeongsim/accounting-api/internal/infra/resilience"
	"github.com/jeongsim/accounting-api/internal/port"
	"github.com/jeongsim/accounting-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_sheets_api", cfg.UseSheetsAPI),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("snapshot_ttl", cfg.SnapshotTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("session_ttl", cfg.SessionTTL),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "accounting-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	snapshotCache := cache.New[*domain.AppData](cfg.SnapshotTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
	}
	cb := resilience.NewCircuitBreaker("spreadsheet-backend")

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	// The Apps Script client always exists: uploads and mail go through
	// the script even when reads and writes use the Sheets API directly.
	scriptClient := appscript.NewClient(httpClient, cfg.ScriptURL, cfg.DriveFolderID, cb, resilienceCfg, logger)

	var fetcher port.SnapshotFetcher = scriptClient
	var txWriter port.TransactionWriter = scriptClient
	var donationWriter port.DonationWriter = scriptClient

	if cfg.UseSheetsAPI {
		logger.Info("using Sheets API as data backend",
			zap.String("spreadsheet_id", cfg.SpreadsheetID),
		)
		sheetsClient, err := gsheets.NewClient(context.Background(), cfg.SpreadsheetID, cfg.GoogleCredsJSON, cfg.GoogleCredsFile, logger)
		if err != nil {
			logger.Fatal("failed to init sheets client", zap.Error(err))
		}
		fetcher = sheetsClient
		txWriter = sheetsClient
		donationWriter = sheetsClient
	} else {
		logger.Info("using Apps Script endpoint as data backend")
	}

	// --- Services ---
	snapshotSvc := service.NewSnapshotService(fetcher, snapshotCache, metrics, logger)
	ledgerSvc := service.NewLedgerService(snapshotSvc)
	txSvc := service.NewTransactionService(snapshotSvc, txWriter, scriptClient, metrics, logger)
	donationSvc := service.NewDonationService(snapshotSvc, donationWriter, scriptClient, metrics, logger)
	sessionSvc := service.NewSessionService(snapshotSvc, cfg.JWTSecret, cfg.SessionTTL, logger)

	var commentarySvc *service.CommentaryService
	if cfg.GeminiAPIKey != "" {
		commentarySvc, err = service.NewCommentaryService(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel, logger)
		if err != nil {
			logger.Fatal("failed to init commentary service", zap.Error(err))
		}
		logger.Info("commentary service enabled", zap.String("model", cfg.GeminiModel))
	} else {
		logger.Warn("commentary service: Gemini not configured, commentary route unavailable")
	}

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Snapshot:     snapshotSvc,
		Ledger:       ledgerSvc,
		Transactions: txSvc,
		Donations:    donationSvc,
		Session:      sessionSvc,
		Commentary:   commentarySvc,
		Uploader:     scriptClient,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
