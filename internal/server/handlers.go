package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/hyperjump/jidai/internal/models"
)

// Messages returned for unparsable dates.
const (
	msgInvalidProcessDate = "Invalid date format. Please provide the date in DD-MM-YYYY format."
	msgInvalidNewsDate    = "Invalid date format. Please provide the date in YYYY-MM-DD format."
	msgInvalidAPIDate     = "Invalid date format. Please provide the date in DD-MM-YYYY, DD-MM-YY or DD-MM format."
)

type interpretRequest struct {
	Date  string `json:"date"`
	Query string `json:"query"`
}

type interpretResponse struct {
	Date   string                    `json:"date"`
	Events []models.InterpretedEvent `json:"events"`
}

type pageData struct {
	Date   string
	Query  string
	Events []models.InterpretedEvent
}

func (s *Server) handleHome(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "Hello, World!")
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleProcess interprets archived or uploaded documents that mention the form date.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	limit := s.uploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		s.logger.Debug("process: bad form", zap.Error(err))
		http.Error(w, "Invalid form data.", http.StatusBadRequest)
		return
	}
	date, err := s.processDates.Resolve(r.FormValue("date"))
	if err != nil {
		http.Error(w, msgInvalidProcessDate, http.StatusBadRequest)
		return
	}

	refs, given := s.formDocuments(r)
	if !given && s.archive != nil {
		refs = s.archive.Find(date, "")
	}
	s.logger.Debug("process request", zap.String("date", date.String()), zap.Int("documents", len(refs)))
	events := s.interp.InterpretDocuments(r.Context(), date, refs)
	s.render(w, "events.html", pageData{Date: date.String(), Events: events})
}

func (s *Server) uploadLimit() int64 {
	if s.config.MaxUploadMB > 0 {
		return s.config.MaxUploadMB << 20
	}
	return 32 << 20
}

// formDocuments collects pdf_files references and uploads. given reports whether the
// form named any document, even if none could be used.
func (s *Server) formDocuments(r *http.Request) (refs []models.DocumentReference, given bool) {
	for _, name := range r.PostForm["pdf_files"] {
		if name == "" {
			continue
		}
		given = true
		if s.archive == nil {
			s.logger.Warn("process: file reference without archive", zap.String("name", name))
			continue
		}
		ref, err := s.archive.Resolve(name)
		if err != nil {
			s.logger.Warn("process: unresolved file reference", zap.String("name", name), zap.Error(err))
			continue
		}
		refs = append(refs, ref)
	}
	if r.MultipartForm == nil {
		return refs, given
	}
	for _, fh := range r.MultipartForm.File["pdf_files"] {
		given = true
		f, err := fh.Open()
		if err != nil {
			s.logger.Warn("process: open upload failed", zap.String("name", fh.Filename), zap.Error(err))
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			s.logger.Warn("process: read upload failed", zap.String("name", fh.Filename), zap.Error(err))
			continue
		}
		ref := models.NewPDFBlob(fh.Filename, data)
		ref.Source = models.SourceUpload
		refs = append(refs, ref)
	}
	return refs, given
}

// handleNews interprets news articles for the form date.
func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	date, err := s.newsDates.Resolve(r.FormValue("date"))
	if err != nil {
		http.Error(w, msgInvalidNewsDate, http.StatusBadRequest)
		return
	}
	query := r.FormValue("q")
	events := s.interp.InterpretNews(r.Context(), date, query)
	s.render(w, "news.html", pageData{Date: date.String(), Query: query, Events: events})
}

func (s *Server) handleInterpret(w http.ResponseWriter, r *http.Request) {
	var req interpretRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	date, err := s.apiDates.Resolve(req.Date)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, msgInvalidAPIDate)
		return
	}
	events := s.interp.InterpretNews(r.Context(), date, req.Query)
	s.respondJSON(w, http.StatusOK, interpretResponse{Date: date.String(), Events: events})
}

func (s *Server) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		s.logger.Error("render failed", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
