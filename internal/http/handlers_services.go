package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"dohody/internal/core"
	"dohody/internal/services"
)

type serviceView struct {
	ID         string
	Name       string
	Price      string
	PriceInput string
	UsageCount int
}

type servicesView struct {
	Services []serviceView
	Error    string
}

// handleServices renders the price list on GET and creates a service on
// POST.
func (s *Server) handleServices(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Некорректный запрос", http.StatusBadRequest)
			return
		}
		price, err := parsePrice(r.Form.Get("price"))
		if err == nil {
			_, err = s.tracker.AddService(r.Context(), sanitizeInput(r.Form.Get("name")), price)
		}
		s.finishServiceMutation(w, r, err)
		return
	}

	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	view := servicesView{Error: r.URL.Query().Get("error")}
	for _, svc := range s.tracker.Services() {
		view.Services = append(view.Services, serviceView{
			ID:         svc.ID,
			Name:       svc.Name,
			Price:      formatRubles(svc.Price),
			PriceInput: svc.Price.String(),
			UsageCount: svc.UsageCount,
		})
	}
	if err := s.templates.ExecuteTemplate(w, "services.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Services template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleUpdateService(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	price, err := parsePrice(r.Form.Get("price"))
	if err == nil {
		err = s.tracker.UpdateService(r.Context(),
			strings.TrimSpace(r.Form.Get("id")),
			sanitizeInput(r.Form.Get("name")),
			price)
	}
	if err == nil {
		// a price change shifts every affected day's income
		s.invalidateMonths()
	}
	s.finishServiceMutation(w, r, err)
}

func (s *Server) handleDeleteService(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	err := s.tracker.DeleteService(r.Context(), strings.TrimSpace(r.Form.Get("id")))
	if err == nil {
		s.invalidateMonths()
	}
	s.finishServiceMutation(w, r, err)
}

func parsePrice(v string) (core.Money, error) {
	k, err := core.ParseDecimalToKopecks(strings.TrimSpace(v))
	if err != nil {
		return core.Money{}, err
	}
	return core.Money{Kopecks: k}, nil
}

func (s *Server) finishServiceMutation(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Service mutation failed", "error", err)
		msg := "Ошибка сохранения"
		switch {
		case errors.Is(err, core.ErrEmptyName):
			msg = "Укажите название"
		case errors.Is(err, core.ErrInvalidAmount):
			msg = "Некорректная цена"
		case errors.Is(err, services.ErrServiceNotFound):
			http.Error(w, "Услуга не найдена", http.StatusNotFound)
			return
		}
		http.Redirect(w, r, "/services?error="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/services", http.StatusSeeOther)
}
