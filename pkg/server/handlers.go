package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/vango-dev/songdirector/pkg/render"
	"github.com/vango-dev/songdirector/pkg/section"
	"github.com/vango-dev/songdirector/pkg/watch"
)

// maxFormBytes bounds control request bodies.
const maxFormBytes = 4 << 10

// Form field names accepted by the control endpoints.
const (
	FieldSectionType   = "section_type"
	FieldSectionNumber = "section_number"
)

func (s *Server) handleController(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, render.ViewController)
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	s.renderPage(w, r, render.ViewViewer)
}

// renderPage renders view for the current state. Render failures become a
// 500 carrying the error text.
func (s *Server) renderPage(w http.ResponseWriter, r *http.Request, view string) {
	html, err := s.renderer.Render(r.Context(), view, s.controller.Current())
	if err != nil {
		s.logger.Error("error rendering page", "view", view, "error", err)
		s.metrics.RecordRenderError(view)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, html); err != nil {
		s.logger.Debug("error writing page", "view", view, "error", err)
	}
}

func (s *Server) handleSetType(w http.ResponseWriter, r *http.Request) {
	raw, ok := formValue(w, r, FieldSectionType)
	if !ok {
		return
	}
	letter, err := section.ParseCategory(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.respond(w, s.controller.SetCategory(r.Context(), letter))
}

func (s *Server) handleSetNumber(w http.ResponseWriter, r *http.Request) {
	raw, ok := formValue(w, r, FieldSectionNumber)
	if !ok {
		return
	}
	n, err := section.ParseNumber(raw)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	s.respond(w, s.controller.SetNumber(r.Context(), n))
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.respond(w, s.controller.Clear(r.Context()))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "ok")
}

// respond writes 204 on success. Control operations only fail when the shared
// state is gone or the input slipped past parsing.
func (s *Server) respond(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, watch.ErrClosed):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, section.ErrInvalidCategory), errors.Is(err, section.ErrInvalidNumber):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// formValue parses a urlencoded or multipart body and returns one field.
// It writes a 400 and returns false when the body cannot be parsed, and a 422
// when the field is missing.
func formValue(w http.ResponseWriter, r *http.Request, field string) (string, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseMultipartForm(maxFormBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		http.Error(w, "invalid form body: "+err.Error(), http.StatusBadRequest)
		return "", false
	}
	values, ok := r.PostForm[field]
	if !ok || len(values) == 0 {
		http.Error(w, "missing field "+field, http.StatusUnprocessableEntity)
		return "", false
	}
	return values[0], true
}
