package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/oedify/internal/entryservice"
	"github.com/starford/oedify/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// store, if non-nil, backs the exported-artifact routes.
func NewRouter(svc *entryservice.Service, authEnabled bool, token string, sseHandler http.Handler, store storage.Provider) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Dictionary queries.
	r.Get("/entries/{word}", h.GetEntry)
	r.Get("/search", h.Search)
	r.Post("/preview", h.Preview)

	// Conversion runs.
	r.Get("/runs/latest", h.LatestRun)
	r.Get("/meta", h.Meta)

	// Exported files.
	if store != nil {
		ah := NewArtifactHandler(store)
		r.Get("/artifacts", ah.List)
		r.Get("/artifacts/{name}", ah.ServeFile)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
