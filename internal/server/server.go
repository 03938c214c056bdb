package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/lazypower/scrapbook/internal/config"
	"github.com/lazypower/scrapbook/internal/logging"
	"github.com/lazypower/scrapbook/internal/media"
	"github.com/lazypower/scrapbook/internal/metrics"
	"github.com/lazypower/scrapbook/internal/storage"
	"github.com/lazypower/scrapbook/internal/store"
	"github.com/lazypower/scrapbook/internal/timeline"
	"github.com/lazypower/scrapbook/internal/view"
)

// Server is the scrapbook HTTP server.
type Server struct {
	store     store.Store
	cfg       config.Config
	presigner storage.Presigner
	log       *zap.Logger
	metrics   *metrics.Collector
	pages     *view.Renderer
	now       func() time.Time

	router  chi.Router
	version string
	started time.Time
}

// Option customizes a Server.
type Option func(*Server)

// WithPresigner enables signed media URLs and uploads.
func WithPresigner(p storage.Presigner) Option {
	return func(s *Server) { s.presigner = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

func WithMetrics(m *metrics.Collector) Option {
	return func(s *Server) { s.metrics = m }
}

// WithClock overrides time.Now for upload keys and created_at.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a new Server over st.
func New(st store.Store, cfg config.Config, version string, opts ...Option) (*Server, error) {
	pages, err := view.NewRenderer()
	if err != nil {
		return nil, err
	}
	s := &Server{
		store:   st,
		cfg:     cfg,
		log:     zap.NewNop(),
		pages:   pages,
		now:     time.Now,
		version: version,
		started: time.Now(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Metrics returns the collector backing /metrics.
func (s *Server) Metrics() *metrics.Collector { return s.metrics }

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(s.log))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", adminHeader},
		MaxAge:         s.cfg.CORS.MaxAge,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Get("/memories", s.handleListMemories)
		r.Get("/memories/{id}", s.handleGetMemory)
		r.Post("/upload-url", s.handleUploadURL)
		r.Post("/timeline", s.handleTimeline)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/memories", s.handleCreateMemory)
			r.Put("/memories/{id}", s.handleUpdateMemory)
			r.Delete("/memories/{id}", s.handleDeleteMemory)
		})
	})

	r.Handle("/metrics", s.metrics.Handler())
	if dir := s.cfg.Media.Dir; dir != "" {
		r.Handle("/media/*", http.StripPrefix("/media/", http.FileServer(http.Dir(dir))))
	}
	r.Handle("/assets/*", assetHandler())

	r.Get("/", s.handleCollectionPage)
	r.Get("/memories/{id}", s.handleViewerPage)

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"store":   s.store.Backend(),
		"storage": s.presigner != nil,
	})
}

// resolver picks how storage keys become URLs: signed GETs when a bucket
// is configured, the public base URL otherwise, or nothing.
func (s *Server) resolver() media.Resolver {
	if s.presigner != nil {
		return storage.Resolver{Presigner: countingPresigner{s.presigner, s.metrics}, TTL: s.cfg.Storage.GetTTL}
	}
	if base := s.cfg.Media.PublicBaseURL; base != "" {
		return media.BaseURL(base)
	}
	return nil
}

// timelineTop offsets the first timeline row below the page header.
const timelineTop = 24

func (s *Server) layout() view.Layout {
	tc := s.cfg.Timeline
	return view.Layout{
		Frame: timeline.Frame{Width: tc.Width, Top: timelineTop, RowHeight: tc.RowHeight, Gutter: tc.Gutter},
		Options: timeline.Options{
			Curve:       tc.Curve,
			MinPull:     tc.MinPull,
			Beads:       tc.Beads,
			BottomInset: tc.BottomInset,
		},
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
