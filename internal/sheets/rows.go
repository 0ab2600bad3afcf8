package sheets

import (
	"sort"
	"strings"

	"dohody/internal/core"
)

// Rows renders the snapshot as spreadsheet cells, header included.
// Records appear in date order with a day's untimed appointments last,
// matching the day view. Deleted references degrade to the same "—"
// placeholder the UI shows.
func (s Snapshot) Rows() [][]interface{} {
	idx := core.NewServiceIndex(s.Services)
	clients := make(map[string]core.Client, len(s.Clients))
	for _, c := range s.Clients {
		clients[c.ID] = c
	}

	records := append([]core.Appointment(nil), s.Records...)
	core.SortByTime(records)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Date < records[j].Date
	})

	rows := make([][]interface{}, 0, len(records)+1)
	rows = append(rows, []interface{}{"Date", "Time", "Client", "Services", "Total", "Comment"})
	for _, r := range records {
		names := make([]string, 0, len(r.ServiceIDs))
		total := core.Money{}
		for _, id := range r.ServiceIDs {
			names = append(names, idx.NameOf(id))
			total = total.Add(idx.PriceOf(id))
		}

		clientName := "—"
		if c, ok := clients[r.ClientID]; ok {
			clientName = c.DisplayName()
		}

		rows = append(rows, []interface{}{
			r.Date,
			r.Time,
			clientName,
			strings.Join(names, ", "),
			total.String(),
			r.Comment,
		})
	}
	return rows
}
