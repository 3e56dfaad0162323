// Package cli bootstraps the ledger runtime shared by cmd/conti and
// cmd/conti-worker.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"conti/internal/amqp"
	"conti/internal/config"
	"conti/internal/core"
	"conti/internal/ledger"
	applog "conti/internal/log"
	"conti/internal/metrics"
	"conti/internal/services"
	"conti/internal/sheets"
	gsheet "conti/internal/sheets/google"
	"conti/internal/storage"
)

// SetupLogger builds the logger from cfg and installs it as the slog default.
func SetupLogger(cfg *config.Config) *applog.Logger {
	logger := cfg.Logger()
	applog.SetDefault(logger)
	return logger
}

// LoadAndValidateConfig reads .env and the environment and validates the result.
func LoadAndValidateConfig() (*config.Config, error) {
	config.LoadDotEnv()
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SignalContext is cancelled on SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// OpenKV opens the configured storage backend. The SQLite repository is
// returned separately so callers can ping and close it; it is nil for the
// memory backend.
func OpenKV(cfg *config.Config, logger *applog.Logger) (storage.KV, *storage.SQLiteRepository, error) {
	if cfg.LedgerBackend == config.BackendMemory {
		logger.Warn("Using in-memory ledger, changes are lost on exit")
		return storage.NewMemoryKV(), nil, nil
	}
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite ledger %s: %w", cfg.SQLiteDBPath, err)
	}
	return repo, repo, nil
}

// SheetsExporter returns the Google Sheets exporter, or nil when the export
// is not configured.
func SheetsExporter(ctx context.Context, cfg *config.Config, logger *applog.Logger) (sheets.MonthExporter, error) {
	if !cfg.SheetsEnabled() {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
		return nil, nil
	}
	creds, err := gsheet.Credentials(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, creds, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	return client, nil
}

// Runtime is an opened ledger with its household service.
type Runtime struct {
	Config    *config.Config
	Logger    *applog.Logger
	KV        storage.KV
	SQLite    *storage.SQLiteRepository
	Metrics   *metrics.Metrics
	Store     *ledger.Store
	Household *services.Household
	AMQP      *amqp.Client

	stopMetrics func()
}

// Bootstrap opens storage and the ledger. When AMQP is configured a
// publisher is attached; a broker that cannot be reached is logged and
// skipped, since events are best effort.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*Runtime, error) {
	kv, repo, err := OpenKV(cfg, logger)
	if err != nil {
		return nil, err
	}
	m := metrics.New()
	store, err := ledger.Open(ctx, kv, ledger.Options{Logger: logger, Observer: m})
	if err != nil {
		if repo != nil {
			_ = repo.Close()
		}
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	for _, a := range store.Anomalies() {
		logger.Warn("Skipped malformed ledger entry", applog.FieldKey, a.Key, "index", a.Index, "reason", a.Reason)
	}

	rt := &Runtime{
		Config:      cfg,
		Logger:      logger,
		KV:          kv,
		SQLite:      repo,
		Metrics:     m,
		Store:       store,
		stopMetrics: m.ObserveLedger(store),
	}

	opts := []services.Option{services.WithLogger(logger)}
	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			rt.AMQP = client
			opts = append(opts, services.WithPublisher(client))
		}
	}
	rt.Household = services.NewHousehold(store, core.DefaultCatalog(), cfg.Names(), opts...)
	return rt, nil
}

// Ready reports whether the storage backend answers.
func (rt *Runtime) Ready(ctx context.Context) error {
	if rt.SQLite == nil {
		return nil
	}
	return rt.SQLite.Ping(ctx)
}

// Close releases the household subscription, the broker and the database.
func (rt *Runtime) Close() error {
	if rt.Household != nil {
		_ = rt.Household.Close()
	}
	if rt.stopMetrics != nil {
		rt.stopMetrics()
	}
	if rt.AMQP != nil {
		_ = rt.AMQP.Close()
	}
	if rt.SQLite != nil {
		return rt.SQLite.Close()
	}
	return nil
}
