package core

import "errors"

// ErrNotFound is returned when a positional lookup resolves to no
// appointment.
var ErrNotFound = errors.New("appointment not found")

// StructuralEqual reports whether two appointments have the same
// (date, clientId, ordered serviceIds, time) key. This is the legacy
// identity used for records that carry no generated ID. The service
// list comparison is order- and length-sensitive.
func StructuralEqual(a, b Appointment) bool {
	if a.Date != b.Date || a.ClientID != b.ClientID || a.Time != b.Time {
		return false
	}
	if len(a.ServiceIDs) != len(b.ServiceIDs) {
		return false
	}
	for i := range a.ServiceIDs {
		if a.ServiceIDs[i] != b.ServiceIDs[i] {
			return false
		}
	}
	return true
}

// matches applies the reconciliation rule: records with a generated ID
// match on the ID alone; id-less records fall back to the structural
// key, under which every structural duplicate matches.
func matches(target, r Appointment) bool {
	if target.ID != "" {
		return r.ID == target.ID
	}
	return StructuralEqual(target, r)
}

// ListForDay returns the appointments on the given date, sorted by time
// ascending with untimed entries last. The input slice is not modified.
func ListForDay(records []Appointment, date string) []Appointment {
	var day []Appointment
	for _, r := range records {
		if r.Date == date {
			day = append(day, r)
		}
	}
	SortByTime(day)
	return day
}

// Resolve returns the appointment at the given position of the day
// listing, or ErrNotFound when the index is out of bounds.
func Resolve(records []Appointment, date string, index int) (Appointment, error) {
	day := ListForDay(records, date)
	if index < 0 || index >= len(day) {
		return Appointment{}, ErrNotFound
	}
	return day[index], nil
}

// Remove returns records without every entry matching target. Removing
// a target with no remaining match is a no-op, not an error.
func Remove(records []Appointment, target Appointment) []Appointment {
	out := make([]Appointment, 0, len(records))
	for _, r := range records {
		if matches(target, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Replace removes every entry matching old and appends updated. When
// old carries an ID and updated does not, the ID is preserved so the
// appointment keeps its identity across edits.
func Replace(records []Appointment, old, updated Appointment) []Appointment {
	if updated.ID == "" {
		updated.ID = old.ID
	}
	return append(Remove(records, old), updated)
}

// Move reschedules target to newDate/newTime, preserving the client,
// service list and comment.
func Move(records []Appointment, target Appointment, newDate, newTime string) []Appointment {
	moved := Appointment{
		ID:         target.ID,
		Date:       newDate,
		ClientID:   target.ClientID,
		ServiceIDs: target.CopyServiceIDs(),
		Time:       newTime,
		Comment:    target.Comment,
	}
	return append(Remove(records, target), moved)
}
