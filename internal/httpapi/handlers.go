package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/fpang/reel-studio/internal/catalog"
	"github.com/fpang/reel-studio/internal/shots"
	"github.com/fpang/reel-studio/internal/store"
	"github.com/fpang/reel-studio/internal/workspace"
)

type categoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type imageRequest struct {
	Image string `json:"image" validate:"required"`
}

type contextSubmitRequest struct {
	Style string `json:"style" validate:"required"`
}

type submitRequest struct {
	Images   []string `json:"images" validate:"required,min=1,dive,required"`
	Style    string   `json:"style" validate:"required"`
	Category string   `json:"category"`
}

type submitResponse struct {
	SessionID string      `json:"sessionId"`
	State     store.State `json:"state"`
	Message   string      `json:"message"`
}

type selectionResponse struct {
	workspace.View
	Rank     int  `json:"rank,omitempty"`
	Selected bool `json:"selected"`
	Cleared  int  `json:"cleared,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"uptime":   time.Since(s.startedAt).Round(time.Second).String(),
		"contexts": s.contexts.Len(),
		"maxShots": s.gen.MaxShotCount(),
	})
}

func (s *Server) handleStyles(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"families": shots.Styles()})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	names, err := s.catalog.Categories()
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"categories": names})
}

func (s *Server) handleCategoryImages(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")
	images, err := s.catalog.Images(category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if images == nil {
		images = []catalog.Image{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"category": category, "images": images})
}

func (s *Server) contextOf(r *http.Request) *workspace.Workspace {
	return s.contexts.Get(chi.URLParam(r, "contextID"))
}

func (s *Server) handleSelectionGet(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, selectionResponse{View: s.contextOf(r).View()})
}

func (s *Server) handleSetCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := s.catalog.Images(req.Category); err != nil {
		writeError(w, r, err)
		return
	}
	ws := s.contextOf(r)
	cleared := ws.SetCategory(req.Category)
	respondJSON(w, http.StatusOK, selectionResponse{View: ws.View(), Cleared: cleared})
}

func (s *Server) handleSelectionAdd(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ws := s.contextOf(r)
	rank, err := ws.Add(req.Image)
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, selectionResponse{View: ws.View(), Rank: rank, Selected: true})
}

func (s *Server) handleSelectionRemove(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ws := s.contextOf(r)
	if _, err := ws.Remove(req.Image); err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, selectionResponse{View: ws.View()})
}

func (s *Server) handleSelectionToggle(w http.ResponseWriter, r *http.Request) {
	var req imageRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ws := s.contextOf(r)
	selected, err := ws.Toggle(req.Image)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resp := selectionResponse{View: ws.View(), Selected: selected}
	if selected {
		resp.Rank = resp.Ranks[req.Image]
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSelectionClear(w http.ResponseWriter, r *http.Request) {
	ws := s.contextOf(r)
	cleared := ws.Clear()
	respondJSON(w, http.StatusOK, selectionResponse{View: ws.View(), Cleared: cleared})
}

// handleContextSubmit submits the context's current selection.
func (s *Server) handleContextSubmit(w http.ResponseWriter, r *http.Request) {
	var req contextSubmitRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	ws := s.contextOf(r)
	category, images, err := ws.Ready()
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.submit(w, r, images, req.Style, category)
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	s.submit(w, r, req.Images, req.Style, req.Category)
}

func (s *Server) submit(w http.ResponseWriter, r *http.Request, images []string, style, category string) {
	sessionID, err := s.gen.Submit(r.Context(), images, style, category)
	if err != nil {
		writeError(w, r, err)
		return
	}
	log.Info().Str("sessionId", sessionID).Int("images", len(images)).Msg("Generation submitted via API")
	respondJSON(w, http.StatusAccepted, submitResponse{
		SessionID: sessionID,
		State:     store.StateStarted,
		Message:   "Video generation started",
	})
}

func (s *Server) handlePoll(w http.ResponseWriter, r *http.Request) {
	st, err := s.gen.Poll(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.gen.Jobs()
	if jobs == nil {
		jobs = []store.JobRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}
