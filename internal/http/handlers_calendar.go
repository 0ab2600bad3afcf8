package http

import (
	"log/slog"
	"net/http"
	"time"
)

type calendarCell struct {
	Day     int
	Date    string
	InMonth bool
	Today   bool
	Dots    int
}

type calendarView struct {
	Month       string
	MonthTitle  string
	PrevMonth   string
	NextMonth   string
	Income      string
	Cells       []calendarCell
	Weekdays    []string
	ClientCount int
}

var weekdayNames = []string{"Пн", "Вт", "Ср", "Чт", "Пт", "Сб", "Вс"}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if s.templates == nil {
		slog.ErrorContext(r.Context(), "Templates not loaded", "url", r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	month := queryMonth(r)
	first, _ := time.Parse("2006-01", month)
	summary := s.monthSummary(month)

	view := calendarView{
		Month:       month,
		MonthTitle:  monthTitle(first),
		PrevMonth:   first.AddDate(0, -1, 0).Format("2006-01"),
		NextMonth:   first.AddDate(0, 1, 0).Format("2006-01"),
		Income:      formatRubles(summary.Income),
		Weekdays:    weekdayNames,
		ClientCount: len(s.tracker.Clients()),
	}

	// 42 cells starting from the Monday on or before the 1st.
	start := first
	for start.Weekday() != time.Monday {
		start = start.AddDate(0, 0, -1)
	}
	today := time.Now().Format(time.DateOnly)
	for i := 0; i < 42; i++ {
		day := start.AddDate(0, 0, i)
		date := day.Format(time.DateOnly)
		dots := summary.Days[date]
		if dots > 3 {
			dots = 3
		}
		view.Cells = append(view.Cells, calendarCell{
			Day:     day.Day(),
			Date:    date,
			InMonth: day.Format("2006-01") == month,
			Today:   date == today,
			Dots:    dots,
		})
	}

	if err := s.templates.ExecuteTemplate(w, "index.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Calendar template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// monthSummary computes the month income and per-day appointment counts,
// cached per month.
func (s *Server) monthSummary(month string) monthSummary {
	if cached, ok := s.monthCache.Get(month); ok {
		return cached
	}

	summary := monthSummary{
		Income: s.tracker.MonthIncome(month),
		Days:   make(map[string]int),
	}
	for _, rec := range s.tracker.Records() {
		if len(rec.Date) >= 7 && rec.Date[:7] == month {
			summary.Days[rec.Date]++
		}
	}
	s.monthCache.Set(month, summary)
	return summary
}

// invalidateMonths drops all cached month summaries. Mutations can
// touch any month, so invalidation is wholesale.
func (s *Server) invalidateMonths() {
	s.monthCache.Purge()
}

var monthNames = []string{
	"Январь", "Февраль", "Март", "Апрель", "Май", "Июнь",
	"Июль", "Август", "Сентябрь", "Октябрь", "Ноябрь", "Декабрь",
}

func monthTitle(t time.Time) string {
	return monthNames[int(t.Month())-1] + " " + t.Format("2006")
}
