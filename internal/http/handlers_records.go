package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"dohody/internal/core"
	"dohody/internal/services"
)

type dayRecordView struct {
	Index      int
	Time       string
	Client     string
	ClientID   string
	Services   string
	ServiceIDs []string
	Total      string
	Comment    string
}

// HasService reports whether the record references the service, for
// preselecting the edit form.
func (v dayRecordView) HasService(id string) bool {
	for _, sid := range v.ServiceIDs {
		if sid == id {
			return true
		}
	}
	return false
}

type dayView struct {
	Date     string
	Title    string
	Month    string
	Income   string
	Records  []dayRecordView
	Clients  []core.Client
	Services []core.Service
	Error    string
}

func (s *Server) handleDay(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	date := queryDate(r)
	view := s.dayView(date, r.URL.Query().Get("error"))
	if err := s.templates.ExecuteTemplate(w, "day.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Day template execution failed", "error", err, "date", date)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) dayView(date, errMsg string) dayView {
	idx := s.tracker.ServiceIndex()
	view := dayView{
		Date:     date,
		Title:    dayTitle(date),
		Month:    date[:7],
		Income:   formatRubles(s.tracker.DayIncome(date)),
		Clients:  s.tracker.Clients(),
		Services: s.tracker.Services(),
		Error:    errMsg,
	}
	for i, rec := range s.tracker.DayRecords(date) {
		names := make([]string, 0, len(rec.ServiceIDs))
		total := core.Money{}
		for _, id := range rec.ServiceIDs {
			names = append(names, idx.NameOf(id))
			total = total.Add(idx.PriceOf(id))
		}
		view.Records = append(view.Records, dayRecordView{
			Index:      i,
			Time:       rec.Time,
			Client:     s.tracker.ClientByID(rec.ClientID).DisplayName(),
			ClientID:   rec.ClientID,
			Services:   strings.Join(names, ", "),
			ServiceIDs: rec.CopyServiceIDs(),
			Total:      formatRubles(total),
			Comment:    rec.Comment,
		})
	}
	return view
}

func dayTitle(date string) string {
	t, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return t.Format("02.01.2006")
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	date := formDate(r, "date")
	if date == "" {
		http.Error(w, "Некорректная дата", http.StatusUnprocessableEntity)
		return
	}

	_, err := s.tracker.AddRecord(r.Context(),
		date,
		strings.TrimSpace(r.Form.Get("client_id")),
		r.Form["service_ids"],
		strings.TrimSpace(r.Form.Get("time")),
		sanitizeInput(r.Form.Get("comment")))
	s.finishRecordMutation(w, r, date, err)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	date := formDate(r, "date")
	index := formIndex(r, "index")
	if date == "" || index < 0 {
		http.Error(w, "Запись не найдена", http.StatusNotFound)
		return
	}

	err := s.tracker.UpdateRecord(r.Context(),
		date,
		index,
		strings.TrimSpace(r.Form.Get("client_id")),
		r.Form["service_ids"],
		strings.TrimSpace(r.Form.Get("time")),
		sanitizeInput(r.Form.Get("comment")))
	s.finishRecordMutation(w, r, date, err)
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	date := formDate(r, "date")
	index := formIndex(r, "index")
	if date == "" || index < 0 {
		http.Error(w, "Запись не найдена", http.StatusNotFound)
		return
	}

	err := s.tracker.DeleteRecord(r.Context(), date, index)
	s.finishRecordMutation(w, r, date, err)
}

func (s *Server) handleMoveRecord(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	date := formDate(r, "date")
	index := formIndex(r, "index")
	if date == "" || index < 0 {
		http.Error(w, "Запись не найдена", http.StatusNotFound)
		return
	}

	err := s.tracker.MoveRecord(r.Context(),
		date,
		index,
		strings.TrimSpace(r.Form.Get("new_date")),
		strings.TrimSpace(r.Form.Get("new_time")))
	s.finishRecordMutation(w, r, date, err)
}

// finishRecordMutation invalidates cached months and redirects back to
// the day view, carrying a user-facing message on failure.
func (s *Server) finishRecordMutation(w http.ResponseWriter, r *http.Request, date string, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Record mutation failed", "error", err, "date", date)
		status, msg := recordErrorStatus(err)
		if status == http.StatusNotFound {
			http.Error(w, msg, status)
			return
		}
		http.Redirect(w, r, "/day?date="+date+"&error="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}
	s.invalidateMonths()
	http.Redirect(w, r, "/day?date="+date, http.StatusSeeOther)
}

func recordErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound, "Запись не найдена"
	case errors.Is(err, services.ErrClientNotFound), errors.Is(err, core.ErrNoClient):
		return http.StatusUnprocessableEntity, "Выберите клиента"
	case errors.Is(err, core.ErrNoServices):
		return http.StatusUnprocessableEntity, "Выберите услуги"
	case errors.Is(err, core.ErrInvalidTime):
		return http.StatusUnprocessableEntity, "Некорректное время"
	case errors.Is(err, core.ErrInvalidDate):
		return http.StatusUnprocessableEntity, "Некорректная дата"
	default:
		return http.StatusInternalServerError, "Ошибка сохранения"
	}
}
