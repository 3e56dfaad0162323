// Package worker keeps durable copies of the ledger outside the main store:
// dated JSON backups and, when configured, a Google Sheets month export.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"conti/internal/amqp"
	"conti/internal/backup"
	"conti/internal/core"
	"conti/internal/ledger"
	applog "conti/internal/log"
	"conti/internal/report"
	"conti/internal/settlement"
	"conti/internal/sheets"
	"conti/internal/storage"
)

// BackupWorker reacts to ledger change messages by re-reading the persisted
// ledger, writing a backup and exporting the affected month.
type BackupWorker struct {
	kv       storage.KV
	exporter sheets.MonthExporter
	catalog  core.Catalog
	names    core.Names
	dir      string
	now      func() time.Time
	logger   *applog.Logger
}

// Config holds the worker dependencies. Exporter may be nil.
type Config struct {
	KV        storage.KV
	Exporter  sheets.MonthExporter
	Catalog   core.Catalog
	Names     core.Names
	BackupDir string
	Now       func() time.Time
	Logger    *applog.Logger
}

func NewBackupWorker(cfg Config) (*BackupWorker, error) {
	if cfg.KV == nil {
		return nil, errors.New("backup worker: nil storage")
	}
	if cfg.BackupDir == "" {
		return nil, errors.New("backup worker: empty backup dir")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = applog.Discard()
	}
	return &BackupWorker{
		kv:       cfg.KV,
		exporter: cfg.Exporter,
		catalog:  cfg.Catalog,
		names:    cfg.Names,
		dir:      cfg.BackupDir,
		now:      cfg.Now,
		logger:   cfg.Logger.WithComponent(applog.ComponentWorker),
	}, nil
}

// snapshot reopens the ledger from storage so the worker sees what the
// producer persisted, not a stale in-memory copy.
func (w *BackupWorker) snapshot(ctx context.Context) (ledger.Snapshot, error) {
	store, err := ledger.Open(ctx, w.kv, ledger.Options{Logger: w.logger})
	if err != nil {
		return ledger.Snapshot{}, fmt.Errorf("open ledger: %w", err)
	}
	if n := len(store.Anomalies()); n > 0 {
		w.logger.WarnContext(ctx, "Ledger loaded with anomalies", "count", n)
	}
	return store.Snapshot(), nil
}

// HandleLedgerChange processes one change message from AMQP.
func (w *BackupWorker) HandleLedgerChange(ctx context.Context, msg *amqp.LedgerChangeMessage) error {
	w.logger.InfoContext(ctx, "Processing ledger change",
		"collection", msg.Collection,
		applog.FieldOperation, msg.Op,
		applog.FieldID, msg.ID,
		applog.FieldMonth, msg.Month)

	snap, err := w.snapshot(ctx)
	if err != nil {
		return err
	}
	if _, err := w.writeBackup(ctx, snap); err != nil {
		return err
	}

	month, ok := msg.MonthKey()
	if !ok || w.exporter == nil {
		return nil
	}
	return w.exportMonth(ctx, snap, month)
}

// BackupNow writes a full backup of the persisted ledger.
func (w *BackupWorker) BackupNow(ctx context.Context) (string, error) {
	snap, err := w.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return w.writeBackup(ctx, snap)
}

func (w *BackupWorker) writeBackup(ctx context.Context, snap ledger.Snapshot) (string, error) {
	path, err := backup.WriteFile(w.dir, backup.Build(snap, w.now()))
	if err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	w.logger.DebugContext(ctx, "Backup written", "path", path)
	return path, nil
}

func (w *BackupWorker) exportMonth(ctx context.Context, snap ledger.Snapshot, month core.Month) error {
	rep := report.Build(w.catalog, snap.Transactions, month, report.All)
	res := settlement.Calculate(snap.Transactions, month)
	ref, err := w.exporter.ExportMonth(ctx, sheets.BuildMonthSheet(rep, res, w.catalog, w.names))
	if err != nil {
		fields := applog.NewFields().WithOperation(applog.OpExport).WithError(err)
		w.logger.WarnContext(ctx, "Month export failed", append(fields.ToSlice(), applog.FieldMonth, month.String())...)
		return fmt.Errorf("export month %s: %w", month, err)
	}
	w.logger.InfoContext(ctx, "Month exported", applog.FieldMonth, month.String(), "range", ref)
	return nil
}

// RunPeriodic writes a backup immediately and then every interval until ctx
// is cancelled. Failures are logged and retried on the next tick.
func (w *BackupWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("backup interval must be positive, got %s", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.periodic(ctx)
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Periodic backup stopped")
			return nil
		case <-ticker.C:
			w.periodic(ctx)
		}
	}
}

func (w *BackupWorker) periodic(ctx context.Context) {
	path, err := w.BackupNow(ctx)
	if err != nil {
		fields := applog.NewFields().WithOperation(applog.OpPersist).WithError(err)
		w.logger.ErrorContext(ctx, "Periodic backup failed", fields.ToSlice()...)
		return
	}
	w.logger.InfoContext(ctx, "Periodic backup written", "path", path)
}
