package core

import (
	"sort"
	"strings"
)

// timeSentinel sorts appointments without a time after every timed one:
// it is lexicographically greater than any valid HH:MM value.
const timeSentinel = "99:99"

func sortTime(a Appointment) string {
	if a.Time == "" {
		return timeSentinel
	}
	return a.Time
}

// SortClients orders clients by trimmed, case-insensitive "First Last".
func SortClients(clients []Client) {
	sort.SliceStable(clients, func(i, j int) bool {
		return strings.ToLower(clients[i].DisplayName()) < strings.ToLower(clients[j].DisplayName())
	})
}

// SortServices orders services by usage count descending, then by name
// ascending. Name comparison is case-sensitive on purpose: that is how
// the service list has always been presented.
func SortServices(services []Service) {
	sort.SliceStable(services, func(i, j int) bool {
		if services[i].UsageCount != services[j].UsageCount {
			return services[i].UsageCount > services[j].UsageCount
		}
		return services[i].Name < services[j].Name
	})
}

// SortByTime orders a day's appointments by time ascending with untimed
// entries last. The sort is stable so equal times keep insertion order.
func SortByTime(records []Appointment) {
	sort.SliceStable(records, func(i, j int) bool {
		return sortTime(records[i]) < sortTime(records[j])
	})
}
