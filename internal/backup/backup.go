// Package backup implements the versioned JSON snapshot format used for
// export, import and the worker's backup files.
package backup

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"dohody/internal/core"
)

// Version is written into every export.
const Version = "1.0"

var (
	ErrMissingRecords  = errors.New("backup missing records field")
	ErrMissingServices = errors.New("backup missing services field")
	ErrMissingClients  = errors.New("backup missing clients field")
)

// Backup is a complete snapshot of the three collections.
type Backup struct {
	Records    []core.Appointment `json:"records"`
	Services   []core.Service     `json:"services"`
	Clients    []core.Client      `json:"clients"`
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
}

// New builds a snapshot of the given collections stamped with now.
func New(records []core.Appointment, services []core.Service, clients []core.Client, now time.Time) Backup {
	return Backup{
		Records:    records,
		Services:   services,
		Clients:    clients,
		Version:    Version,
		ExportedAt: now.UTC(),
	}
}

// Marshal renders the snapshot as indented JSON, with empty collections
// written as empty arrays rather than null.
func (b Backup) Marshal() ([]byte, error) {
	if b.Records == nil {
		b.Records = []core.Appointment{}
	}
	if b.Services == nil {
		b.Services = []core.Service{}
	}
	if b.Clients == nil {
		b.Clients = []core.Client{}
	}
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal backup: %w", err)
	}
	return data, nil
}

// Parse validates and decodes a backup file. All three collection
// fields must be present; an empty array is acceptable, an absent field
// is not. No partial result is returned on error.
func Parse(data []byte) (Backup, error) {
	var raw struct {
		Records    *[]core.Appointment `json:"records"`
		Services   *[]core.Service     `json:"services"`
		Clients    *[]core.Client      `json:"clients"`
		Version    string              `json:"version"`
		ExportedAt time.Time           `json:"exportedAt"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Backup{}, fmt.Errorf("parse backup: %w", err)
	}
	switch {
	case raw.Records == nil:
		return Backup{}, ErrMissingRecords
	case raw.Services == nil:
		return Backup{}, ErrMissingServices
	case raw.Clients == nil:
		return Backup{}, ErrMissingClients
	}
	return Backup{
		Records:    *raw.Records,
		Services:   *raw.Services,
		Clients:    *raw.Clients,
		Version:    raw.Version,
		ExportedAt: raw.ExportedAt,
	}, nil
}

// FileName is the canonical name for a backup written on the given day.
func FileName(now time.Time) string {
	return fmt.Sprintf("backup_%s.json", now.Format(time.DateOnly))
}
