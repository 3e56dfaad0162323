package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"conti/internal/amqp"
	"conti/internal/cli"
	"conti/internal/config"
	"conti/internal/core"
	applog "conti/internal/log"
	"conti/internal/worker"
)

func main() {
	cfg, err := cli.LoadAndValidateConfig()
	if err != nil {
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(2)
	}
	logger := cli.SetupLogger(cfg)
	logger.Info("Starting conti-worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	if cfg.LedgerBackend != config.BackendSQLite {
		return errors.New("conti-worker needs LEDGER_BACKEND=sqlite to read the persisted ledger")
	}

	ctx, cancel := cli.SignalContext(context.Background())
	defer cancel()

	kv, repo, err := cli.OpenKV(cfg, logger)
	if err != nil {
		return err
	}
	defer repo.Close()

	exporter, err := cli.SheetsExporter(ctx, cfg, logger)
	if err != nil {
		return err
	}

	w, err := worker.NewBackupWorker(worker.Config{
		KV:        kv,
		Exporter:  exporter,
		Catalog:   core.DefaultCatalog(),
		Names:     cfg.Names(),
		BackupDir: cfg.BackupDir,
		Logger:    logger,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return w.RunPeriodic(gctx, cfg.BackupInterval)
	})

	if cfg.AMQPEnabled() {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return err
		}
		defer client.Close()
		g.Go(func() error {
			err := client.ConsumeLedgerChanges(gctx, w.HandleLedgerChange)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	} else {
		logger.Info("AMQP disabled - only periodic backups will run")
	}

	return g.Wait()
}
