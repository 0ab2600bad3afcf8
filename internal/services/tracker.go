// Package services orchestrates the domain collections across the
// key-value store and the optional AMQP change-event pipeline.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dohody/internal/amqp"
	"dohody/internal/backup"
	"dohody/internal/core"
	"dohody/internal/storage"
)

var (
	ErrClientNotFound  = errors.New("client not found")
	ErrServiceNotFound = errors.New("service not found")
)

// Tracker owns the three collections with an explicit lifecycle: Load
// on startup, wholesale flush of every touched collection after each
// mutating operation. All mutations go through here; reads never
// persist. Change events are published best-effort and never fail the
// user operation.
type Tracker struct {
	mu     sync.Mutex
	store  storage.Store
	events *amqp.Client

	records  []core.Appointment
	services []core.Service
	clients  []core.Client
}

// NewTracker creates a tracker over the given store. events may be nil;
// the app then runs purely locally.
func NewTracker(store storage.Store, events *amqp.Client) *Tracker {
	return &Tracker{store: store, events: events}
}

// Load reads all collections from the store. A key that was never
// written initializes its collection empty.
func (t *Tracker) Load(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := loadKey(ctx, t.store, storage.KeyRecords, &t.records); err != nil {
		return err
	}
	if err := loadKey(ctx, t.store, storage.KeyServices, &t.services); err != nil {
		return err
	}
	if err := loadKey(ctx, t.store, storage.KeyClients, &t.clients); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Collections loaded",
		"records", len(t.records),
		"services", len(t.services),
		"clients", len(t.clients))
	return nil
}

func loadKey[T any](ctx context.Context, store storage.Store, key string, into *[]T) error {
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

// flush persists the named collections wholesale. The caller must hold
// the mutex. Every touched collection is written in one pass so a
// cascade is never observable half-applied.
func (t *Tracker) flush(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		var (
			data []byte
			err  error
		)
		switch key {
		case storage.KeyRecords:
			data, err = json.Marshal(emptyAsArray(t.records))
		case storage.KeyServices:
			data, err = json.Marshal(emptyAsArray(t.services))
		case storage.KeyClients:
			data, err = json.Marshal(emptyAsArray(t.clients))
		default:
			err = fmt.Errorf("unknown collection key %q", key)
		}
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		if err := t.store.Set(ctx, key, data); err != nil {
			return fmt.Errorf("persist %s: %w", key, err)
		}
	}
	return nil
}

func emptyAsArray[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func (t *Tracker) publish(ctx context.Context, kind string) {
	if t.events == nil {
		return
	}
	if err := t.events.PublishChange(ctx, kind); err != nil {
		// The mutation is already persisted locally; the worker's
		// periodic fallback will pick the change up.
		slog.ErrorContext(ctx, "Failed to publish change event", "kind", kind, "error", err)
	}
}

// Close releases the store and the event client.
func (t *Tracker) Close() error {
	var errs []error
	if t.store != nil {
		if err := t.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}
	if t.events != nil {
		if err := t.events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close tracker: %v", errs)
	}
	return nil
}

// --- reads ---

// Records returns a copy of the full appointment collection.
func (t *Tracker) Records() []core.Appointment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]core.Appointment(nil), t.records...)
}

// Clients returns the clients in display order.
func (t *Tracker) Clients() []core.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]core.Client(nil), t.clients...)
	core.SortClients(out)
	return out
}

// Services returns the services in display order.
func (t *Tracker) Services() []core.Service {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := append([]core.Service(nil), t.services...)
	core.SortServices(out)
	return out
}

// ClientByID degrades to a "—" placeholder for deleted clients so the
// day view keeps rendering records with stale references.
func (t *Tracker) ClientByID(id string) core.Client {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.clients {
		if c.ID == id {
			return c
		}
	}
	return core.Client{ID: id, FirstName: "—"}
}

// ServiceIndex snapshots the service lookup used by aggregation.
func (t *Tracker) ServiceIndex() core.ServiceIndex {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.NewServiceIndex(t.services)
}

// DayRecords lists the appointments of a day in display order.
func (t *Tracker) DayRecords(date string) []core.Appointment {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.ListForDay(t.records, date)
}

// DayIncome sums the day's referenced service prices.
func (t *Tracker) DayIncome(date string) core.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.DayIncome(t.records, core.NewServiceIndex(t.services), date)
}

// MonthIncome sums income over a YYYY-MM calendar month.
func (t *Tracker) MonthIncome(yearMonth string) core.Money {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.MonthIncome(t.records, core.NewServiceIndex(t.services), yearMonth)
}

// SplitIncome partitions total income around asOf.
func (t *Tracker) SplitIncome(asOf string) core.IncomeSplit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.SplitIncome(t.records, core.NewServiceIndex(t.services), asOf)
}

// YearlyBreakdown aggregates income and top service per year.
func (t *Tracker) YearlyBreakdown() map[string]core.YearStats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.YearlyBreakdown(t.records, core.NewServiceIndex(t.services))
}

// GlobalTopService returns the most referenced service id and count.
func (t *Tracker) GlobalTopService() (string, int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.GlobalTopService(t.records)
}

// Totals reports appointment and sold-service counts.
func (t *Tracker) Totals() (appointments, servicesSold int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.Totals(t.records)
}

// --- clients ---

func (t *Tracker) AddClient(ctx context.Context, firstName, lastName, phone string) (core.Client, error) {
	client := core.Client{
		ID:        uuid.NewString(),
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     strings.TrimSpace(phone),
	}
	if err := client.Validate(); err != nil {
		return core.Client{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.clients = append(t.clients, client)
	if err := t.flush(ctx, storage.KeyClients); err != nil {
		return core.Client{}, err
	}
	t.publish(ctx, amqp.ChangeClients)
	return client, nil
}

func (t *Tracker) UpdateClient(ctx context.Context, id, firstName, lastName, phone string) error {
	updated := core.Client{
		ID:        id,
		FirstName: strings.TrimSpace(firstName),
		LastName:  strings.TrimSpace(lastName),
		Phone:     strings.TrimSpace(phone),
	}
	if err := updated.Validate(); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.clients {
		if t.clients[i].ID == id {
			t.clients[i] = updated
			if err := t.flush(ctx, storage.KeyClients); err != nil {
				return err
			}
			t.publish(ctx, amqp.ChangeClients)
			return nil
		}
	}
	return ErrClientNotFound
}

// DeleteClient removes the client and every appointment referencing it.
// The full cascade is computed before anything is persisted.
func (t *Tracker) DeleteClient(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	found := false
	clients := make([]core.Client, 0, len(t.clients))
	for _, c := range t.clients {
		if c.ID == id {
			found = true
			continue
		}
		clients = append(clients, c)
	}
	if !found {
		return ErrClientNotFound
	}

	records := make([]core.Appointment, 0, len(t.records))
	for _, r := range t.records {
		if r.ClientID == id {
			continue
		}
		records = append(records, r)
	}
	cascaded := len(t.records) - len(records)

	t.clients = clients
	t.records = records
	if err := t.flush(ctx, storage.KeyClients, storage.KeyRecords); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Client deleted", "id", id, "cascaded_records", cascaded)
	t.publish(ctx, amqp.ChangeClients)
	return nil
}

// --- services ---

func (t *Tracker) AddService(ctx context.Context, name string, price core.Money) (core.Service, error) {
	service := core.Service{
		ID:    uuid.NewString(),
		Name:  strings.TrimSpace(name),
		Price: price,
	}
	if err := service.Validate(); err != nil {
		return core.Service{}, err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.services = append(t.services, service)
	if err := t.flush(ctx, storage.KeyServices); err != nil {
		return core.Service{}, err
	}
	t.publish(ctx, amqp.ChangeServices)
	return service, nil
}

func (t *Tracker) UpdateService(ctx context.Context, id, name string, price core.Money) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.services {
		if t.services[i].ID == id {
			updated := t.services[i]
			updated.Name = strings.TrimSpace(name)
			updated.Price = price
			if err := updated.Validate(); err != nil {
				return err
			}
			t.services[i] = updated
			if err := t.flush(ctx, storage.KeyServices); err != nil {
				return err
			}
			t.publish(ctx, amqp.ChangeServices)
			return nil
		}
	}
	return ErrServiceNotFound
}

// DeleteService removes the service and, cascading, every appointment
// that references it. The whole appointment goes, not just the reference.
func (t *Tracker) DeleteService(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	found := false
	services := make([]core.Service, 0, len(t.services))
	for _, s := range t.services {
		if s.ID == id {
			found = true
			continue
		}
		services = append(services, s)
	}
	if !found {
		return ErrServiceNotFound
	}

	records := make([]core.Appointment, 0, len(t.records))
	for _, r := range t.records {
		if referencesService(r, id) {
			continue
		}
		records = append(records, r)
	}
	cascaded := len(t.records) - len(records)

	t.services = services
	t.records = records
	if err := t.flush(ctx, storage.KeyServices, storage.KeyRecords); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Service deleted", "id", id, "cascaded_records", cascaded)
	t.publish(ctx, amqp.ChangeServices)
	return nil
}

func referencesService(r core.Appointment, id string) bool {
	for _, sid := range r.ServiceIDs {
		if sid == id {
			return true
		}
	}
	return false
}

// --- records ---

// AddRecord creates an appointment on the given date. Unknown service
// ids are dropped before validation, matching the day-form behavior;
// each surviving reference bumps its service's usage count once.
func (t *Tracker) AddRecord(ctx context.Context, date, clientID string, serviceIDs []string, timeStr, comment string) (core.Appointment, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record := core.Appointment{
		ID:         uuid.NewString(),
		Date:       date,
		ClientID:   clientID,
		ServiceIDs: t.knownServiceIDs(serviceIDs),
		Time:       timeStr,
		Comment:    strings.TrimSpace(comment),
	}
	if err := record.Validate(); err != nil {
		return core.Appointment{}, err
	}
	if !t.clientExists(clientID) {
		return core.Appointment{}, ErrClientNotFound
	}

	t.bumpUsage(record.ServiceIDs, nil)
	t.records = append(t.records, record)
	if err := t.flush(ctx, storage.KeyRecords, storage.KeyServices); err != nil {
		return core.Appointment{}, err
	}
	t.publish(ctx, amqp.ChangeRecords)
	return record, nil
}

// UpdateRecord replaces the appointment at the given day position. Only
// services newly added relative to the previous list are counted as
// additional usage.
func (t *Tracker) UpdateRecord(ctx context.Context, date string, index int, clientID string, serviceIDs []string, timeStr, comment string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	target, err := core.Resolve(t.records, date, index)
	if err != nil {
		return err
	}

	updated := core.Appointment{
		Date:       date,
		ClientID:   clientID,
		ServiceIDs: t.knownServiceIDs(serviceIDs),
		Time:       timeStr,
		Comment:    strings.TrimSpace(comment),
	}
	// A legacy record from an imported backup has no ID; give it one on
	// first edit so later edits match by ID instead of the structural
	// fallback.
	if target.ID == "" {
		updated.ID = uuid.NewString()
	}
	if err := updated.Validate(); err != nil {
		return err
	}
	if !t.clientExists(clientID) {
		return ErrClientNotFound
	}

	t.bumpUsage(updated.ServiceIDs, target.ServiceIDs)
	t.records = core.Replace(t.records, target, updated)
	if err := t.flush(ctx, storage.KeyRecords, storage.KeyServices); err != nil {
		return err
	}
	t.publish(ctx, amqp.ChangeRecords)
	return nil
}

// DeleteRecord removes the appointment at the given day position.
func (t *Tracker) DeleteRecord(ctx context.Context, date string, index int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	target, err := core.Resolve(t.records, date, index)
	if err != nil {
		return err
	}
	t.records = core.Remove(t.records, target)
	if err := t.flush(ctx, storage.KeyRecords); err != nil {
		return err
	}
	t.publish(ctx, amqp.ChangeRecords)
	return nil
}

// MoveRecord reschedules the appointment at the given day position.
func (t *Tracker) MoveRecord(ctx context.Context, date string, index int, newDate, newTime string) error {
	if !core.ValidDate(newDate) {
		return core.ErrInvalidDate
	}
	if newTime != "" && !core.ValidTime(newTime) {
		return core.ErrInvalidTime
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	target, err := core.Resolve(t.records, date, index)
	if err != nil {
		return err
	}
	t.records = core.Move(t.records, target, newDate, newTime)
	if err := t.flush(ctx, storage.KeyRecords); err != nil {
		return err
	}
	t.publish(ctx, amqp.ChangeRecords)
	return nil
}

// knownServiceIDs drops references to services that do not exist.
// Caller must hold the mutex.
func (t *Tracker) knownServiceIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		for _, s := range t.services {
			if s.ID == id {
				out = append(out, id)
				break
			}
		}
	}
	return out
}

func (t *Tracker) clientExists(id string) bool {
	for _, c := range t.clients {
		if c.ID == id {
			return true
		}
	}
	return false
}

// bumpUsage increments usage counts for service references in updated
// beyond their multiplicity in previous. With a nil previous list every
// reference counts.
func (t *Tracker) bumpUsage(updated, previous []string) {
	prev := make(map[string]int, len(previous))
	for _, id := range previous {
		prev[id]++
	}
	for _, id := range updated {
		if prev[id] > 0 {
			prev[id]--
			continue
		}
		for i := range t.services {
			if t.services[i].ID == id {
				t.services[i].UsageCount++
				break
			}
		}
	}
}

// --- backup ---

// ExportBackup renders the current state as a backup file.
func (t *Tracker) ExportBackup() ([]byte, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return backup.New(t.records, t.services, t.clients, time.Now()).Marshal()
}

// ImportBackup validates data and replaces all collections and
// persisted state wholesale. On any validation error the current state
// is left untouched.
func (t *Tracker) ImportBackup(ctx context.Context, data []byte) error {
	b, err := backup.Parse(data)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = b.Records
	t.services = b.Services
	t.clients = b.Clients
	if err := t.flush(ctx, storage.Keys...); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Backup restored",
		"records", len(t.records),
		"services", len(t.services),
		"clients", len(t.clients))
	t.publish(ctx, amqp.ChangeRestore)
	return nil
}
