package http

import (
	"log/slog"
	"net/http"
	"time"

	"dohody/internal/core"
)

type yearView struct {
	Year       string
	Income     string
	TopService string
	TopCount   int
}

type statsView struct {
	Earned       string
	Planned      string
	Total        string
	Appointments int
	ServicesSold int
	TopService   string
	TopCount     int
	Years        []yearView
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	today := time.Now().Format(time.DateOnly)
	split := s.tracker.SplitIncome(today)
	appointments, servicesSold := s.tracker.Totals()
	idx := s.tracker.ServiceIndex()

	view := statsView{
		Earned:       formatRubles(split.Earned),
		Planned:      formatRubles(split.Planned),
		Total:        formatRubles(split.Earned.Add(split.Planned)),
		Appointments: appointments,
		ServicesSold: servicesSold,
	}

	if topID, count := s.tracker.GlobalTopService(); count > 0 {
		view.TopService = idx.NameOf(topID)
		view.TopCount = count
	}

	breakdown := s.tracker.YearlyBreakdown()
	for _, year := range core.YearsDesc(breakdown) {
		stats := breakdown[year]
		yv := yearView{
			Year:   year,
			Income: formatRubles(stats.Income),
		}
		if stats.TopServiceCount > 0 {
			yv.TopService = idx.NameOf(stats.TopServiceID)
			yv.TopCount = stats.TopServiceCount
		}
		view.Years = append(view.Years, yv)
	}

	if err := s.templates.ExecuteTemplate(w, "stats.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Stats template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
