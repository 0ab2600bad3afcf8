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

type clientsView struct {
	Clients []core.Client
	Error   string
}

// handleClients renders the client list on GET and creates a client on
// POST.
func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Некорректный запрос", http.StatusBadRequest)
			return
		}
		_, err := s.tracker.AddClient(r.Context(),
			sanitizeInput(r.Form.Get("first_name")),
			sanitizeInput(r.Form.Get("last_name")),
			sanitizeInput(r.Form.Get("phone")))
		s.finishClientMutation(w, r, err)
		return
	}

	if s.templates == nil {
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	view := clientsView{
		Clients: s.tracker.Clients(),
		Error:   r.URL.Query().Get("error"),
	}
	if err := s.templates.ExecuteTemplate(w, "clients.html", view); err != nil {
		slog.ErrorContext(r.Context(), "Clients template execution failed", "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	err := s.tracker.UpdateClient(r.Context(),
		strings.TrimSpace(r.Form.Get("id")),
		sanitizeInput(r.Form.Get("first_name")),
		sanitizeInput(r.Form.Get("last_name")),
		sanitizeInput(r.Form.Get("phone")))
	s.finishClientMutation(w, r, err)
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	err := s.tracker.DeleteClient(r.Context(), strings.TrimSpace(r.Form.Get("id")))
	if err == nil {
		// cascade may remove records on any date
		s.invalidateMonths()
	}
	s.finishClientMutation(w, r, err)
}

func (s *Server) finishClientMutation(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "Client mutation failed", "error", err)
		msg := "Ошибка сохранения"
		switch {
		case errors.Is(err, core.ErrEmptyFirstName):
			msg = "Укажите имя"
		case errors.Is(err, services.ErrClientNotFound):
			http.Error(w, "Клиент не найден", http.StatusNotFound)
			return
		}
		http.Redirect(w, r, "/clients?error="+url.QueryEscape(msg), http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/clients", http.StatusSeeOther)
}
