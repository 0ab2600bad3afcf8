package sheets

import (
	"context"

	"dohody/internal/core"
)

// Snapshot is the flattened state pushed to a spreadsheet: one row per
// appointment with its client and services resolved to display values.
type Snapshot struct {
	Records  []core.Appointment
	Services []core.Service
	Clients  []core.Client
}

// SnapshotExporter replaces the remote sheet contents with the snapshot.
type SnapshotExporter interface {
	ExportSnapshot(ctx context.Context, snap Snapshot) error
}
