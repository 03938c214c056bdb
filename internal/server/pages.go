package server

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/store"
	"github.com/lazypower/scrapbook/internal/view"
)

func (s *Server) handleCollectionPage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := view.ParseMode(q.Get("view"))

	entries, err := s.store.List(r.Context())
	var page view.Collection
	if err != nil {
		s.log.Error("load memories", zap.Error(err))
		page = view.Collection{Mode: mode, Query: q.Get("q"), Error: "Could not load memories."}
	} else {
		page = view.BuildCollection(r.Context(), entries, q.Get("q"), mode, s.resolver(), s.layout())
		if mode == view.Timeline {
			s.metrics.TimelineRecomputes.Inc()
		}
	}
	s.render(w, func(b *bytes.Buffer) error { return s.pages.Collection(b, page) })
}

func (s *Server) handleViewerPage(w http.ResponseWriter, r *http.Request) {
	e, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.log.Error("load memory", zap.Error(err))
		http.Error(w, "could not load memory", http.StatusInternalServerError)
		return
	}
	i, _ := strconv.Atoi(r.URL.Query().Get("i"))
	page := view.BuildViewer(r.Context(), e, i, s.resolver())
	s.render(w, func(b *bytes.Buffer) error { return s.pages.Viewer(b, page) })
}

// render buffers the page so a template error never leaves a half-written
// response.
func (s *Server) render(w http.ResponseWriter, fn func(*bytes.Buffer) error) {
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		s.log.Error("render page", zap.Error(err))
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
