package core

import "testing"

func testIndex() ServiceIndex {
	return NewServiceIndex([]Service{
		{ID: "s1", Name: "Haircut", Price: Money{Kopecks: 50000}},
		{ID: "s2", Name: "Coloring", Price: Money{Kopecks: 120000}},
		{ID: "s3", Name: "Styling", Price: Money{Kopecks: 30000}},
	})
}

func TestDayIncome(t *testing.T) {
	idx := testIndex()
	records := []Appointment{
		appt("a", "2024-03-15", "c1", "09:00", "s1"),
		appt("b", "2024-03-15", "c2", "", "s1"),
		appt("c", "2024-03-16", "c1", "10:00", "s2"),
	}
	// two appointments with one 500-ruble service each
	if got := DayIncome(records, idx, "2024-03-15"); got.Kopecks != 100000 {
		t.Fatalf("got %d want 100000", got.Kopecks)
	}
	if got := DayIncome(records, idx, "2024-03-17"); got.Kopecks != 0 {
		t.Fatalf("empty day: got %d want 0", got.Kopecks)
	}
}

func TestDayIncomeMissingServiceCountsZero(t *testing.T) {
	idx := testIndex()
	records := []Appointment{appt("a", "2024-03-15", "c1", "", "s1", "deleted")}
	if got := DayIncome(records, idx, "2024-03-15"); got.Kopecks != 50000 {
		t.Fatalf("got %d want 50000", got.Kopecks)
	}
}

func TestMonthIncome(t *testing.T) {
	idx := testIndex()
	records := []Appointment{
		appt("a", "2024-03-01", "c1", "", "s1"),
		appt("b", "2024-03-31", "c1", "", "s2"),
		appt("c", "2024-04-01", "c1", "", "s2"),
		appt("d", "2023-03-15", "c1", "", "s1"),
	}
	if got := MonthIncome(records, idx, "2024-03"); got.Kopecks != 170000 {
		t.Fatalf("got %d want 170000", got.Kopecks)
	}
}

func TestSplitIncome(t *testing.T) {
	idx := testIndex()
	records := []Appointment{
		appt("a", "2024-03-10", "c1", "", "s1"), // earned
		appt("b", "2024-03-15", "c1", "", "s2"), // exactly on asOf: planned
		appt("c", "2024-03-20", "c1", "", "s3"), // planned
	}
	split := SplitIncome(records, idx, "2024-03-15")
	if split.Earned.Kopecks != 50000 {
		t.Fatalf("earned: got %d want 50000", split.Earned.Kopecks)
	}
	if split.Planned.Kopecks != 150000 {
		t.Fatalf("planned: got %d want 150000", split.Planned.Kopecks)
	}
	// every service price counted exactly once
	total := DayIncome(records, idx, "2024-03-10").
		Add(DayIncome(records, idx, "2024-03-15")).
		Add(DayIncome(records, idx, "2024-03-20"))
	if split.Earned.Add(split.Planned) != total {
		t.Fatalf("earned+planned = %d, total = %d", split.Earned.Add(split.Planned).Kopecks, total.Kopecks)
	}
}

func TestYearlyBreakdown(t *testing.T) {
	idx := testIndex()
	records := []Appointment{
		appt("a", "2023-05-01", "c1", "", "s1", "s1"),
		appt("b", "2023-06-01", "c1", "", "s2"),
		appt("c", "2024-01-01", "c1", "", "s3"),
	}
	breakdown := YearlyBreakdown(records, idx)
	if len(breakdown) != 2 {
		t.Fatalf("got %d years, want 2", len(breakdown))
	}
	y2023 := breakdown["2023"]
	if y2023.Income.Kopecks != 220000 {
		t.Fatalf("2023 income: got %d want 220000", y2023.Income.Kopecks)
	}
	if y2023.TopServiceID != "s1" || y2023.TopServiceCount != 2 {
		t.Fatalf("2023 top: got %s/%d want s1/2", y2023.TopServiceID, y2023.TopServiceCount)
	}
	y2024 := breakdown["2024"]
	if y2024.TopServiceID != "s3" || y2024.Income.Kopecks != 30000 {
		t.Fatalf("2024: got %+v", y2024)
	}

	years := YearsDesc(breakdown)
	if len(years) != 2 || years[0] != "2024" || years[1] != "2023" {
		t.Fatalf("years: got %v", years)
	}
}

func TestTopServiceTieBreakDeterministic(t *testing.T) {
	// s2 and s1 end tied at two uses each; s2 was seen first and must
	// win regardless of how many times the tally is recomputed.
	records := []Appointment{
		appt("a", "2024-01-01", "c1", "", "s2"),
		appt("b", "2024-01-02", "c1", "", "s1"),
		appt("c", "2024-01-03", "c1", "", "s1", "s2"),
	}
	for i := 0; i < 50; i++ {
		id, count := GlobalTopService(records)
		if id != "s2" || count != 2 {
			t.Fatalf("iteration %d: got %s/%d want s2/2", i, id, count)
		}
	}
}

func TestGlobalTopServiceEmpty(t *testing.T) {
	if id, count := GlobalTopService(nil); id != "" || count != 0 {
		t.Fatalf("got %q/%d want empty", id, count)
	}
}

func TestTotals(t *testing.T) {
	records := []Appointment{
		appt("a", "2024-01-01", "c1", "", "s1", "s2"),
		appt("b", "2024-01-02", "c1", "", "s1"),
	}
	appointments, sold := Totals(records)
	if appointments != 2 || sold != 3 {
		t.Fatalf("got %d/%d want 2/3", appointments, sold)
	}
}

func TestServiceIndexPlaceholders(t *testing.T) {
	idx := testIndex()
	if got := idx.NameOf("gone"); got != "—" {
		t.Fatalf("got %q want placeholder", got)
	}
	if got := idx.PriceOf("gone"); got.Kopecks != 0 {
		t.Fatalf("got %d want 0", got.Kopecks)
	}
}
