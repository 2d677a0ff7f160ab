// Package httpapi is the JSON HTTP surface used by the web UI and the Lambda
// entrypoint: image categories, per-context selections, generation submit,
// poll and listing.
package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/catalog"
	"github.com/fpang/reel-studio/internal/reel"
	"github.com/fpang/reel-studio/internal/store"
	"github.com/fpang/reel-studio/internal/workspace"
)

// Generator is the orchestrator surface the API needs.
type Generator interface {
	Submit(ctx context.Context, images []string, style, category string) (string, error)
	Poll(ctx context.Context, sessionID string) (reel.Status, error)
	Jobs() []store.JobRecord
	MaxShotCount() int
}

var _ Generator = (*reel.Orchestrator)(nil)

// Server holds the API's collaborators.
type Server struct {
	gen       Generator
	catalog   *catalog.Catalog
	contexts  *workspace.Registry
	validate  *validator.Validate
	startedAt time.Time
}

// NewServer returns a Server.
func NewServer(gen Generator, cat *catalog.Catalog, contexts *workspace.Registry) *Server {
	return &Server{
		gen:       gen,
		catalog:   cat,
		contexts:  contexts,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		startedAt: time.Now(),
	}
}

// NewRouter returns the API handler.
func NewRouter(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer, withLogging, withCORS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/styles", s.handleStyles)

		r.Get("/categories", s.handleCategories)
		r.Get("/categories/{category}/images", s.handleCategoryImages)

		r.Route("/contexts/{contextID}", func(r chi.Router) {
			r.Get("/selection", s.handleSelectionGet)
			r.Put("/category", s.handleSetCategory)
			r.Post("/selection/add", s.handleSelectionAdd)
			r.Post("/selection/remove", s.handleSelectionRemove)
			r.Post("/selection/toggle", s.handleSelectionToggle)
			r.Delete("/selection", s.handleSelectionClear)
			r.Post("/generate", s.handleContextSubmit)
		})

		r.Route("/generations", func(r chi.Router) {
			r.Get("/", s.handleJobs)
			r.Post("/", s.handleSubmit)
			r.Get("/{sessionID}", s.handlePoll)
		})
	})
	return r
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		if strings.HasPrefix(r.URL.Path, "/api/") {
			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Str("requestId", middleware.GetReqID(r.Context())).
				Dur("duration", time.Since(start)).
				Msg("API request")
		}
	})
}

// withCORS allows the UI dev server on localhost to call the API.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:")) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
