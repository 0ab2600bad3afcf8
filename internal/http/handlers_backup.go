package http

import (
	"io"
	"net/http"
	"net/url"
	"time"

	"dohody/internal/backup"
	applog "dohody/internal/log"
)

// maxImportSize bounds uploaded backup files.
const maxImportSize = 10 << 20

// handleBackupExport streams the current state as a downloadable JSON
// backup.
func (s *Server) handleBackupExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.tracker.ExportBackup()
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Backup export failed", "error", err)
		http.Error(w, "Ошибка экспорта", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+backup.FileName(time.Now())+`"`)
	_, _ = w.Write(data)
}

// handleBackupImport replaces all state with an uploaded backup file.
func (s *Server) handleBackupImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseMultipartForm(maxImportSize); err != nil {
		http.Error(w, "Некорректный запрос", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("backup")
	if err != nil {
		http.Error(w, "Выберите файл", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImportSize))
	if err != nil {
		http.Error(w, "Ошибка чтения файла", http.StatusBadRequest)
		return
	}

	if err := s.tracker.ImportBackup(r.Context(), data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Backup import failed", "error", err)
		http.Redirect(w, r, "/stats?error="+url.QueryEscape("Некорректный файл резервной копии"), http.StatusSeeOther)
		return
	}
	s.invalidateMonths()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
