// Package memory holds exported snapshots in process, for tests and
// local runs without Google credentials.
package memory

import (
	"context"
	"sync"

	"dohody/internal/sheets"
)

type Exporter struct {
	mu      sync.Mutex
	last    sheets.Snapshot
	exports int
}

var _ sheets.SnapshotExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{}
}

// ExportSnapshot replaces the held snapshot, mirroring the remote
// clear-then-write behavior.
func (e *Exporter) ExportSnapshot(_ context.Context, snap sheets.Snapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.last = snap
	e.exports++
	return nil
}

// Last returns the most recently exported snapshot.
func (e *Exporter) Last() sheets.Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Exports returns how many snapshots were exported.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.exports
}
