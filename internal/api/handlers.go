package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/chefdigital/chef/internal/archive"
	"github.com/chefdigital/chef/internal/config"
	apperrors "github.com/chefdigital/chef/internal/errors"
	"github.com/chefdigital/chef/internal/export"
	"github.com/chefdigital/chef/internal/metrics"
	"github.com/chefdigital/chef/internal/middleware"
	"github.com/chefdigital/chef/internal/sentry"
	"github.com/chefdigital/chef/internal/session"
	"github.com/chefdigital/chef/internal/workflow"
)

// Suggestions are the example dishes offered on the start page.
var Suggestions = []string{"Souflê de Queijo", "Polvo Grelhado", "Macaron Francês", "Beef Wellington"}

type Server struct {
	cfg      *config.Config
	sessions *session.Manager
	renderer *export.Renderer
	page     *page

	inflight sync.WaitGroup
}

func NewServer(cfg *config.Config, sessions *session.Manager) *Server {
	locale := cfg.Generation.Locale
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		renderer: export.NewRenderer(export.LabelsFor(locale)),
		page:     newPage(locale),
	}
}

// Register mounts the routes on r. Everything except /health runs behind the
// session middleware.
func (s *Server) Register(r chi.Router, sessions *middleware.Sessions) {
	r.Get("/health", s.HandleHealth)

	r.Group(func(r chi.Router) {
		r.Use(sessions.Middleware)
		r.Get("/", s.HandleIndex)
		r.Post("/api/generate", s.HandleGenerate)
		r.Get("/api/state", s.HandleState)
		r.Get("/api/export", s.HandleExport)
		r.Get("/api/recipes", s.HandleRecipes)
		r.Get("/api/suggestions", s.HandleSuggestions)
	})
}

// Wait blocks until every generation started by HandleGenerate has finished.
func (s *Server) Wait() {
	s.inflight.Wait()
}

func (s *Server) workflow(r *http.Request) (*workflow.Workflow, bool) {
	sessionID, ok := middleware.GetSessionID(r.Context())
	if !ok {
		return nil, false
	}
	return s.sessions.Workflow(r.Context(), sessionID), true
}

type GenerateRequest struct {
	Query string `json:"query"`
}

// StateResponse is a snapshot plus the combined loading signal.
type StateResponse struct {
	workflow.State
	Loading bool `json:"loading"`
}

func newStateResponse(st workflow.State) StateResponse {
	return StateResponse{State: st, Loading: st.Loading()}
}

func (s *Server) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req GenerateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 16<<10)).Decode(&req); err != nil {
		writeError(w, r, apperrors.NewValidationError("Invalid request body", "INVALID_BODY", `Send {"query": "..."}.`))
		return
	}

	run, err := wf.Begin(req.Query)
	if err != nil {
		writeError(w, r, err)
		return
	}

	started := wf.State()

	// The run outlives the request; the provider calls are never cancelled.
	ctx := context.WithoutCancel(r.Context())
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(ctx, "Generation panicked", "request", run.Request(), "panic", rec)
				sentry.CapturePanic(rec)
			}
		}()
		run.Execute(ctx)
	}()

	slog.InfoContext(r.Context(), "Generation started", "request", run.Request(), "query", run.Query())
	writeJSON(w, http.StatusAccepted, newStateResponse(started))
}

func (s *Server) HandleState(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(wf.State()))
}

func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	wf, ok := s.workflow(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	st := wf.State()
	if !st.HasRecipe() {
		writeError(w, r, apperrors.NewConflictError("No recipe to export yet", "NO_RECIPE", "Generate a recipe first."))
		return
	}
	doc, err := s.renderer.Document(st.Recipe, st.Image)
	if err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to render recipe", "EXPORT_FAILED", err))
		return
	}

	metrics.RecordExport(r.Context(), !st.Image.IsZero())
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(doc)
}

func (s *Server) HandleRecipes(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, r, apperrors.NewValidationError("limit must be a positive integer", "INVALID_LIMIT", ""))
			return
		}
		limit = n
	}

	items, err := s.sessions.Archiver().List(r.Context(), limit)
	if errors.Is(err, archive.ErrDisabled) {
		writeError(w, r, apperrors.NewUnavailableError("Recipe archive is not configured", "ARCHIVE_DISABLED", err))
		return
	}
	if err != nil {
		writeError(w, r, apperrors.NewInternalError("Failed to list recipes", "ARCHIVE_LIST_FAILED", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"recipes": items})
}

func (s *Server) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"suggestions": Suggestions})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.render(w); err != nil {
		slog.ErrorContext(r.Context(), "Failed to render page", "error", err)
	}
}
