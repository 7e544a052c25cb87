// Package httpapi exposes the analytics pipeline over a JSON/CSV HTTP
// surface: upload a call log, query filtered summaries, download exports.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"talktime/internal/config"
	"talktime/internal/roster"
	"talktime/internal/session"
)

// Server wires the dataset store and analytics configuration to HTTP
// handlers. It holds no per-request state.
type Server struct {
	cfg   *config.AppConfig
	store *session.Store
	teams *roster.Set
}

// NewServer creates a Server over the given store.
func NewServer(cfg *config.AppConfig, store *session.Store) *Server {
	return &Server{
		cfg:   cfg,
		store: store,
		teams: cfg.Analytics.TeamSet(),
	}
}

// Router builds the HTTP routing tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsMiddleware(s.cfg.AllowedOrigins))

	r.Get("/health", s.handleHealth)

	r.Route("/api/datasets", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/", s.handleList)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Delete("/", s.handleDeleteDataset)
			r.Post("/summary", s.handleSummary)
			r.Post("/overview", s.handleOverview)
			r.Post("/hourly", s.handleHourly)
			r.Post("/export", s.handleExport)
		})
	})

	return r
}

func corsMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	return c.Handler
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Msg("Request served")
	})
}
