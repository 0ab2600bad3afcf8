package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"dohody/internal/core"
	"dohody/internal/storage"
)

func newTestTracker(t *testing.T) (*Tracker, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	tracker := NewTracker(store, nil)
	if err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	return tracker, store
}

func mustAddClient(t *testing.T, tr *Tracker, first, last string) core.Client {
	t.Helper()
	c, err := tr.AddClient(context.Background(), first, last, "")
	if err != nil {
		t.Fatalf("add client: %v", err)
	}
	return c
}

func mustAddService(t *testing.T, tr *Tracker, name string, kopecks int64) core.Service {
	t.Helper()
	s, err := tr.AddService(context.Background(), name, core.Money{Kopecks: kopecks})
	if err != nil {
		t.Fatalf("add service: %v", err)
	}
	return s
}

func TestLoadMissingKeysInitializesEmpty(t *testing.T) {
	tracker, _ := newTestTracker(t)
	if len(tracker.Records()) != 0 || len(tracker.Clients()) != 0 || len(tracker.Services()) != 0 {
		t.Fatalf("fresh store should yield empty collections")
	}
}

func TestAddRecordPersistsWholesale(t *testing.T) {
	tracker, store := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "Petrova")
	service := mustAddService(t, tracker, "Haircut", 50000)

	if _, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "09:00", "first visit"); err != nil {
		t.Fatalf("add record: %v", err)
	}

	data, err := store.Get(ctx, storage.KeyRecords)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var persisted []core.Appointment
	if err := json.Unmarshal(data, &persisted); err != nil {
		t.Fatalf("decode persisted records: %v", err)
	}
	if len(persisted) != 1 || persisted[0].ID == "" {
		t.Fatalf("persisted records: %+v", persisted)
	}

	// a fresh tracker over the same store sees the record
	reloaded := NewTracker(store, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.DayRecords("2024-03-15")) != 1 {
		t.Fatalf("record lost across reload")
	}
}

func TestAddRecordValidationFailsClosed(t *testing.T) {
	tracker, store := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")

	// only unknown service ids: the filtered list is empty
	_, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{"bogus"}, "", "")
	if !errors.Is(err, core.ErrNoServices) {
		t.Fatalf("got %v, want ErrNoServices", err)
	}
	data, _ := store.Get(ctx, storage.KeyRecords)
	if data != nil {
		t.Fatalf("failed add must not persist anything, got %q", data)
	}

	service := mustAddService(t, tracker, "Haircut", 50000)
	if _, err := tracker.AddRecord(ctx, "2024-03-15", "ghost", []string{service.ID}, "", ""); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("got %v, want ErrClientNotFound", err)
	}
	if _, err := tracker.AddRecord(ctx, "15.03.2024", client.ID, []string{service.ID}, "", ""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("got %v, want ErrInvalidDate", err)
	}
}

func TestUsageCountOnCreate(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	service := mustAddService(t, tracker, "Haircut", 50000)

	for i := 0; i < 3; i++ {
		if _, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "", ""); err != nil {
			t.Fatalf("add record %d: %v", i, err)
		}
	}
	if got := tracker.Services()[0].UsageCount; got != 3 {
		t.Fatalf("usage count: got %d want 3", got)
	}
}

func TestUsageCountOnEditOnlyNewServices(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	haircut := mustAddService(t, tracker, "Haircut", 50000)
	coloring := mustAddService(t, tracker, "Coloring", 120000)

	if _, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{haircut.ID}, "09:00", ""); err != nil {
		t.Fatalf("add: %v", err)
	}
	// edit keeps haircut and adds coloring: only coloring is new
	if err := tracker.UpdateRecord(ctx, "2024-03-15", 0, client.ID, []string{haircut.ID, coloring.ID}, "09:00", ""); err != nil {
		t.Fatalf("update: %v", err)
	}

	counts := map[string]int{}
	for _, s := range tracker.Services() {
		counts[s.ID] = s.UsageCount
	}
	if counts[haircut.ID] != 1 {
		t.Fatalf("unchanged service re-counted: got %d want 1", counts[haircut.ID])
	}
	if counts[coloring.ID] != 1 {
		t.Fatalf("new service not counted: got %d want 1", counts[coloring.ID])
	}
}

func TestUpdateRecordReplaces(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	service := mustAddService(t, tracker, "Haircut", 50000)

	original, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "09:00", "")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tracker.UpdateRecord(ctx, "2024-03-15", 0, client.ID, []string{service.ID}, "11:00", "moved later"); err != nil {
		t.Fatalf("update: %v", err)
	}
	day := tracker.DayRecords("2024-03-15")
	if len(day) != 1 {
		t.Fatalf("got %d records, want 1", len(day))
	}
	if day[0].Time != "11:00" || day[0].Comment != "moved later" {
		t.Fatalf("update not applied: %+v", day[0])
	}
	if day[0].ID != original.ID {
		t.Fatalf("edit must keep the appointment identity")
	}
}

func TestDeleteRecordOutOfBounds(t *testing.T) {
	tracker, _ := newTestTracker(t)
	if err := tracker.DeleteRecord(context.Background(), "2024-03-15", 0); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMoveRecord(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	service := mustAddService(t, tracker, "Haircut", 50000)

	if _, err := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "09:00", "keep me"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := tracker.MoveRecord(ctx, "2024-03-15", 0, "2024-03-20", "14:00"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if len(tracker.DayRecords("2024-03-15")) != 0 {
		t.Fatalf("record still on old date")
	}
	day := tracker.DayRecords("2024-03-20")
	if len(day) != 1 || day[0].Time != "14:00" || day[0].Comment != "keep me" {
		t.Fatalf("moved record wrong: %+v", day)
	}

	if err := tracker.MoveRecord(ctx, "2024-03-20", 0, "bad-date", ""); !errors.Is(err, core.ErrInvalidDate) {
		t.Fatalf("got %v, want ErrInvalidDate", err)
	}
}

func TestDeleteClientCascades(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	anna := mustAddClient(t, tracker, "Anna", "")
	boris := mustAddClient(t, tracker, "Boris", "")
	service := mustAddService(t, tracker, "Haircut", 50000)

	_, _ = tracker.AddRecord(ctx, "2024-03-15", anna.ID, []string{service.ID}, "", "")
	_, _ = tracker.AddRecord(ctx, "2024-03-16", anna.ID, []string{service.ID}, "", "")
	_, _ = tracker.AddRecord(ctx, "2024-03-16", boris.ID, []string{service.ID}, "", "")

	if err := tracker.DeleteClient(ctx, anna.ID); err != nil {
		t.Fatalf("delete client: %v", err)
	}
	for _, r := range tracker.Records() {
		if r.ClientID == anna.ID {
			t.Fatalf("record for deleted client survived: %+v", r)
		}
	}
	if len(tracker.Records()) != 1 {
		t.Fatalf("got %d records, want 1", len(tracker.Records()))
	}
	if err := tracker.DeleteClient(ctx, anna.ID); !errors.Is(err, ErrClientNotFound) {
		t.Fatalf("second delete: got %v, want ErrClientNotFound", err)
	}
}

func TestDeleteServiceCascades(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	haircut := mustAddService(t, tracker, "Haircut", 50000)
	coloring := mustAddService(t, tracker, "Coloring", 120000)

	_, _ = tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{haircut.ID}, "", "")
	_, _ = tracker.AddRecord(ctx, "2024-03-16", client.ID, []string{haircut.ID, coloring.ID}, "", "")
	_, _ = tracker.AddRecord(ctx, "2024-03-17", client.ID, []string{coloring.ID}, "", "")

	beforeIncome := tracker.DayIncome("2024-03-17")

	if err := tracker.DeleteService(ctx, haircut.ID); err != nil {
		t.Fatalf("delete service: %v", err)
	}
	// both appointments referencing haircut are gone entirely
	if len(tracker.DayRecords("2024-03-15")) != 0 || len(tracker.DayRecords("2024-03-16")) != 0 {
		t.Fatalf("cascade incomplete: %+v", tracker.Records())
	}
	// untouched days keep their income
	if got := tracker.DayIncome("2024-03-17"); got != beforeIncome {
		t.Fatalf("unrelated day income changed: got %d want %d", got.Kopecks, beforeIncome.Kopecks)
	}
}

func TestDayIncomeScenario(t *testing.T) {
	// Two appointments on one day, one timed and one not, each with a
	// 500-ruble service: the timed one lists first and the day sums to
	// 1000 rubles.
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")
	service := mustAddService(t, tracker, "Haircut", 50000)

	timed, _ := tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "09:00", "")
	_, _ = tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "", "")

	day := tracker.DayRecords("2024-03-15")
	if len(day) != 2 || day[0].ID != timed.ID {
		t.Fatalf("timed record must list first: %+v", day)
	}
	if got := tracker.DayIncome("2024-03-15"); got.Kopecks != 100000 {
		t.Fatalf("day income: got %d want 100000", got.Kopecks)
	}
}

func TestBackupRoundTrip(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "Petrova")
	service := mustAddService(t, tracker, "Haircut", 50000)
	_, _ = tracker.AddRecord(ctx, "2024-03-15", client.ID, []string{service.ID}, "09:00", "")

	data, err := tracker.ExportBackup()
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	restored, _ := newTestTracker(t)
	if err := restored.ImportBackup(ctx, data); err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(restored.Records()) != 1 || len(restored.Services()) != 1 || len(restored.Clients()) != 1 {
		t.Fatalf("restored collections wrong: %d/%d/%d",
			len(restored.Records()), len(restored.Services()), len(restored.Clients()))
	}
	if restored.DayIncome("2024-03-15").Kopecks != 50000 {
		t.Fatalf("restored income wrong")
	}
}

func TestUpdateLegacyRecordGainsID(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()

	// legacy export: records carry no id
	legacy := `{
		"records": [{"date": "2024-03-15", "clientId": "c1", "serviceIds": ["s1"], "time": "09:00", "comment": ""}],
		"services": [{"id": "s1", "name": "Стрижка", "price": 500, "usageCount": 1}],
		"clients": [{"id": "c1", "firstName": "Анна", "lastName": "", "phone": ""}],
		"version": "1.0",
		"exportedAt": "2024-03-15T10:00:00Z"
	}`
	if err := tracker.ImportBackup(ctx, []byte(legacy)); err != nil {
		t.Fatalf("import: %v", err)
	}
	if id := tracker.Records()[0].ID; id != "" {
		t.Fatalf("imported legacy record should keep its empty id, got %q", id)
	}

	if err := tracker.UpdateRecord(ctx, "2024-03-15", 0, "c1", []string{"s1"}, "11:00", ""); err != nil {
		t.Fatalf("update: %v", err)
	}
	first := tracker.Records()[0]
	if first.ID == "" {
		t.Fatalf("edited legacy record must gain a stable id")
	}

	// the id sticks across further edits
	if err := tracker.UpdateRecord(ctx, "2024-03-15", 0, "c1", []string{"s1"}, "12:00", ""); err != nil {
		t.Fatalf("second update: %v", err)
	}
	if got := tracker.Records()[0].ID; got != first.ID {
		t.Fatalf("id changed across edits: %q -> %q", first.ID, got)
	}
}

func TestImportBackupRejectsInvalidWithoutMutation(t *testing.T) {
	tracker, _ := newTestTracker(t)
	ctx := context.Background()
	client := mustAddClient(t, tracker, "Anna", "")

	if err := tracker.ImportBackup(ctx, []byte(`{"records":[],"services":[]}`)); err == nil {
		t.Fatalf("expected validation error")
	}
	if err := tracker.ImportBackup(ctx, []byte(`{broken`)); err == nil {
		t.Fatalf("expected parse error")
	}
	// state untouched
	if len(tracker.Clients()) != 1 || tracker.Clients()[0].ID != client.ID {
		t.Fatalf("failed import mutated state")
	}
}
