package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events behind the same auth.
func NewRouter(svc *Service, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/sources", h.ListSources)

	r.Get("/wallpapers", h.ListWallpapers)
	r.Get("/wallpapers/{source}/{date}", h.GetWallpaper)
	r.Get("/wallpapers/{source}/{date}/story", h.GetStory)

	r.Get("/runs", h.ListRuns)
	r.Post("/indexes", h.RegenerateIndexes)

	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
