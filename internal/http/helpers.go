package http

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"dohody/internal/core"
)

// formatRubles renders an amount for the UI, comma decimal separator
// and a currency sign.
func formatRubles(m core.Money) string {
	return strings.ReplaceAll(m.String(), ".", ",") + " ₽"
}

// sanitizeInput removes potentially dangerous characters and trims whitespace
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// formDate returns a validated YYYY-MM-DD value from the form, or "".
func formDate(r *http.Request, field string) string {
	v := strings.TrimSpace(r.Form.Get(field))
	if !core.ValidDate(v) {
		return ""
	}
	return v
}

// formIndex returns a non-negative day position from the form, or -1.
func formIndex(r *http.Request, field string) int {
	v := strings.TrimSpace(r.Form.Get(field))
	i, err := strconv.Atoi(v)
	if err != nil || i < 0 {
		return -1
	}
	return i
}

// queryMonth returns a validated YYYY-MM value, defaulting to the
// current month.
func queryMonth(r *http.Request) string {
	v := strings.TrimSpace(r.URL.Query().Get("month"))
	if t, err := time.Parse("2006-01", v); err == nil {
		return t.Format("2006-01")
	}
	return time.Now().Format("2006-01")
}

// queryDate returns a validated YYYY-MM-DD value, defaulting to today.
func queryDate(r *http.Request) string {
	v := strings.TrimSpace(r.URL.Query().Get("date"))
	if core.ValidDate(v) {
		return v
	}
	return time.Now().Format(time.DateOnly)
}

func requirePost(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Некорректный запрос", http.StatusBadRequest)
		return false
	}
	return true
}
