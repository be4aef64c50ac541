package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/wallhub/internal/apperr"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handler holds API route handlers.
type Handler struct {
	svc *Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func queryLimit(r *http.Request, def int) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, false
	}
	return min(n, maxListLimit), true
}

func (h *Handler) notFoundOr500(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, apperr.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	slog.Error("api: "+op+" failed", slog.String("error", err.Error()))
	writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
}

// ListSources handles GET /api/sources.
//
//	@Summary	List enabled sources in display order
//	@Tags		wallpapers
//	@Produce	json
//	@Success	200	{object}	SourceListResponse
//	@Security	BearerAuth
//	@Router		/sources [get]
func (h *Handler) ListSources(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SourceListResponse{Sources: h.svc.Sources()})
}

// ListWallpapers handles GET /api/wallpapers.
//
//	@Summary	List entries newest first
//	@Tags		wallpapers
//	@Produce	json
//	@Param		source	query		string	false	"Source name"
//	@Param		limit	query		int		false	"Maximum entries"
//	@Success	200		{object}	WallpaperListResponse
//	@Failure	400		{object}	errResponse
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/wallpapers [get]
func (h *Handler) ListWallpapers(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, defaultListLimit)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
		return
	}
	items, err := h.svc.ListWallpapers(r.Context(), r.URL.Query().Get("source"), limit)
	if err != nil {
		h.notFoundOr500(w, "list wallpapers", err)
		return
	}
	writeJSON(w, http.StatusOK, WallpaperListResponse{Wallpapers: items, Total: len(items)})
}

// GetWallpaper handles GET /api/wallpapers/{source}/{date}.
//
//	@Summary	Get one entry
//	@Tags		wallpapers
//	@Produce	json
//	@Param		source	path		string	true	"Source name"
//	@Param		date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success	200		{object}	WallpaperItem
//	@Failure	404		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/wallpapers/{source}/{date} [get]
func (h *Handler) GetWallpaper(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetWallpaper(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "date"))
	if err != nil {
		h.notFoundOr500(w, "get wallpaper", err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// GetStory handles GET /api/wallpapers/{source}/{date}/story.
func (h *Handler) GetStory(w http.ResponseWriter, r *http.Request) {
	text, err := h.svc.Story(r.Context(), chi.URLParam(r, "source"), chi.URLParam(r, "date"))
	if err != nil {
		h.notFoundOr500(w, "get story", err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// ListRuns handles GET /api/runs.
func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryLimit(r, 20)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
		return
	}
	runs, err := h.svc.Runs(r.Context(), limit)
	if err != nil {
		h.notFoundOr500(w, "list runs", err)
		return
	}
	writeJSON(w, http.StatusOK, RunListResponse{Runs: runs})
}

// RegenerateIndexes handles POST /api/indexes.
//
//	@Summary	Rewrite the gallery and the README index
//	@Tags		indexes
//	@Produce	json
//	@Success	200	{object}	IndexResponse
//	@Failure	409	{object}	errResponse	"markers missing from a document"
//	@Security	BearerAuth
//	@Router		/indexes [post]
func (h *Handler) RegenerateIndexes(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Regenerate(r.Context())
	if err != nil {
		if errors.Is(err, apperr.ErrMarkersNotFound) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		slog.Error("api: regenerate failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, IndexResponse{Gallery: res.Gallery, Readme: res.Readme})
}
