package core

import "sort"

// ServiceIndex resolves service ids to services for aggregation.
// Lookups of deleted ids degrade to a zero-price placeholder rather
// than failing, so stale references never break the summaries.
type ServiceIndex map[string]Service

// NewServiceIndex builds an index over the given services.
func NewServiceIndex(services []Service) ServiceIndex {
	idx := make(ServiceIndex, len(services))
	for _, s := range services {
		idx[s.ID] = s
	}
	return idx
}

// PriceOf returns the price of the given service id, 0 when unknown.
func (idx ServiceIndex) PriceOf(id string) Money {
	return idx[id].Price
}

// NameOf returns the service name, or the "—" placeholder when the
// service has been deleted since the appointment referenced it.
func (idx ServiceIndex) NameOf(id string) string {
	if s, ok := idx[id]; ok {
		return s.Name
	}
	return "—"
}

func incomeOf(r Appointment, idx ServiceIndex) Money {
	var sum Money
	for _, id := range r.ServiceIDs {
		sum = sum.Add(idx.PriceOf(id))
	}
	return sum
}

// DayIncome sums the prices of every service referenced by the
// appointments on the given date.
func DayIncome(records []Appointment, idx ServiceIndex, date string) Money {
	var sum Money
	for _, r := range records {
		if r.Date == date {
			sum = sum.Add(incomeOf(r, idx))
		}
	}
	return sum
}

// MonthIncome sums income over the calendar month, matched by the
// YYYY-MM prefix of the appointment date.
func MonthIncome(records []Appointment, idx ServiceIndex, yearMonth string) Money {
	var sum Money
	for _, r := range records {
		if len(r.Date) >= len(yearMonth) && r.Date[:len(yearMonth)] == yearMonth {
			sum = sum.Add(incomeOf(r, idx))
		}
	}
	return sum
}

// IncomeSplit partitions total income around a reference date.
type IncomeSplit struct {
	Earned  Money // appointments strictly before the reference date
	Planned Money // appointments on or after the reference date
}

// SplitIncome partitions all appointments by date relative to asOf.
// An appointment dated exactly asOf counts as planned only, so earned
// and planned always add up to the total.
func SplitIncome(records []Appointment, idx ServiceIndex, asOf string) IncomeSplit {
	var split IncomeSplit
	for _, r := range records {
		if r.Date < asOf {
			split.Earned = split.Earned.Add(incomeOf(r, idx))
		} else {
			split.Planned = split.Planned.Add(incomeOf(r, idx))
		}
	}
	return split
}

// usageTally counts service occurrences while remembering the order in
// which ids were first seen, so top-service selection is deterministic.
type usageTally struct {
	counts map[string]int
	order  []string
}

func newUsageTally() *usageTally {
	return &usageTally{counts: make(map[string]int)}
}

func (t *usageTally) add(id string) {
	if _, seen := t.counts[id]; !seen {
		t.order = append(t.order, id)
	}
	t.counts[id]++
}

// top returns the id with the strictly highest count. Ties resolve to
// the id first encountered; an empty tally yields "".
func (t *usageTally) top() (string, int) {
	topID, topCount := "", 0
	for _, id := range t.order {
		if t.counts[id] > topCount {
			topID, topCount = id, t.counts[id]
		}
	}
	return topID, topCount
}

// YearStats is the aggregate for a single 4-digit year.
type YearStats struct {
	Income          Money
	TopServiceID    string
	TopServiceCount int
}

// YearlyBreakdown groups appointments by the 4-digit year prefix of
// their date, tallying income and the most used service per year.
func YearlyBreakdown(records []Appointment, idx ServiceIndex) map[string]YearStats {
	income := make(map[string]Money)
	tallies := make(map[string]*usageTally)
	for _, r := range records {
		if len(r.Date) < 4 {
			continue
		}
		year := r.Date[:4]
		tally := tallies[year]
		if tally == nil {
			tally = newUsageTally()
			tallies[year] = tally
		}
		income[year] = income[year].Add(incomeOf(r, idx))
		for _, id := range r.ServiceIDs {
			tally.add(id)
		}
	}
	out := make(map[string]YearStats, len(income))
	for year, tally := range tallies {
		id, count := tally.top()
		out[year] = YearStats{Income: income[year], TopServiceID: id, TopServiceCount: count}
	}
	return out
}

// YearsDesc returns the breakdown's years newest first.
func YearsDesc(breakdown map[string]YearStats) []string {
	years := make([]string, 0, len(breakdown))
	for y := range breakdown {
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// GlobalTopService returns the most referenced service id over the full
// collection, with the same first-occurrence tie-break as the yearly
// breakdown. Returns "" when no appointment references any service.
func GlobalTopService(records []Appointment) (string, int) {
	tally := newUsageTally()
	for _, r := range records {
		for _, id := range r.ServiceIDs {
			tally.add(id)
		}
	}
	return tally.top()
}

// Totals reports how many appointments exist and how many service
// entries they carry in total.
func Totals(records []Appointment) (appointments, servicesSold int) {
	for _, r := range records {
		appointments++
		servicesSold += len(r.ServiceIDs)
	}
	return appointments, servicesSold
}
