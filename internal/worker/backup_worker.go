// Package worker turns change events into backup files and spreadsheet
// snapshots.
package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"dohody/internal/amqp"
	"dohody/internal/backup"
	"dohody/internal/sheets"
	"dohody/internal/storage"
)

// BackupWorker reads the current state from the store and materializes
// it as a dated backup file, optionally pushing the same snapshot to a
// spreadsheet. It never mutates the store.
type BackupWorker struct {
	store     storage.Store
	exporter  sheets.SnapshotExporter
	backupDir string
	now       func() time.Time
}

// NewBackupWorker creates a worker writing to backupDir. exporter may
// be nil when no spreadsheet target is configured.
func NewBackupWorker(store storage.Store, exporter sheets.SnapshotExporter, backupDir string) *BackupWorker {
	return &BackupWorker{
		store:     store,
		exporter:  exporter,
		backupDir: backupDir,
		now:       time.Now,
	}
}

// HandleChange processes a single change event. The message carries no
// payload; the worker re-reads the full snapshot so a burst of events
// collapses into identical, idempotent runs.
func (w *BackupWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change event", "kind", msg.Kind, "timestamp", msg.Timestamp)
	return w.Run(ctx)
}

// Run snapshots the store into a backup file and, when configured, the
// spreadsheet. Called for every change event and by the periodic
// fallback.
func (w *BackupWorker) Run(ctx context.Context) error {
	snap, err := w.readSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	now := w.now()
	path, err := w.writeBackupFile(snap, now)
	if err != nil {
		return fmt.Errorf("write backup file: %w", err)
	}
	slog.InfoContext(ctx, "Backup file written",
		"path", path,
		"records", len(snap.Records),
		"services", len(snap.Services),
		"clients", len(snap.Clients))

	if w.exporter != nil {
		if err := w.exporter.ExportSnapshot(ctx, snap); err != nil {
			return fmt.Errorf("export snapshot: %w", err)
		}
		slog.InfoContext(ctx, "Snapshot exported to spreadsheet")
	}
	return nil
}

// RunPeriodic runs the worker on a fixed interval until the context is
// cancelled. This is the fallback path for lost change events.
func (w *BackupWorker) RunPeriodic(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Run(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic backup failed", "error", err)
			}
		}
	}
}

func (w *BackupWorker) readSnapshot(ctx context.Context) (sheets.Snapshot, error) {
	var snap sheets.Snapshot
	if err := readKey(ctx, w.store, storage.KeyRecords, &snap.Records); err != nil {
		return sheets.Snapshot{}, err
	}
	if err := readKey(ctx, w.store, storage.KeyServices, &snap.Services); err != nil {
		return sheets.Snapshot{}, err
	}
	if err := readKey(ctx, w.store, storage.KeyClients, &snap.Clients); err != nil {
		return sheets.Snapshot{}, err
	}
	return snap, nil
}

func readKey[T any](ctx context.Context, store storage.Store, key string, into *[]T) error {
	data, err := store.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("load %s: %w", key, err)
	}
	if data == nil {
		*into = nil
		return nil
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// writeBackupFile renders the snapshot in the backup file format and
// writes it atomically. One file per day; a later run the same day
// overwrites the earlier one.
func (w *BackupWorker) writeBackupFile(snap sheets.Snapshot, now time.Time) (string, error) {
	if err := os.MkdirAll(w.backupDir, 0755); err != nil {
		return "", fmt.Errorf("create backup dir: %w", err)
	}

	data, err := backup.New(snap.Records, snap.Services, snap.Clients, now).Marshal()
	if err != nil {
		return "", err
	}

	path := filepath.Join(w.backupDir, backup.FileName(now))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return path, nil
}

// LatestBackup returns the snapshot parsed from the newest backup file.
// Missing directory means no backups yet.
func LatestBackup(backupDir string) (*backup.Backup, string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", err
	}

	var latest string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		if name > latest {
			latest = name
		}
	}
	if latest == "" {
		return nil, "", nil
	}

	path := filepath.Join(backupDir, latest)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	b, err := backup.Parse(data)
	if err != nil {
		return nil, "", fmt.Errorf("parse %s: %w", path, err)
	}
	return &b, path, nil
}

// ErrNoBackups is returned by RestoreLatest when the backup directory
// holds no backup files.
var ErrNoBackups = errors.New("no backup files found")

// RestoreLatest writes the newest backup file's collections into the
// store wholesale, returning the restored file's path. The store is
// left untouched when no backup exists or the file does not parse.
func RestoreLatest(ctx context.Context, store storage.Store, backupDir string) (string, error) {
	b, path, err := LatestBackup(backupDir)
	if err != nil {
		return "", err
	}
	if b == nil {
		return "", ErrNoBackups
	}

	for key, collection := range map[string]any{
		storage.KeyRecords:  b.Records,
		storage.KeyServices: b.Services,
		storage.KeyClients:  b.Clients,
	} {
		data, err := json.Marshal(collection)
		if err != nil {
			return "", fmt.Errorf("encode %s: %w", key, err)
		}
		if err := store.Set(ctx, key, data); err != nil {
			return "", fmt.Errorf("persist %s: %w", key, err)
		}
	}

	slog.InfoContext(ctx, "Backup restored into store",
		"path", path,
		"records", len(b.Records),
		"services", len(b.Services),
		"clients", len(b.Clients))
	return path, nil
}
