package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/entryservice"
)

const maxPreviewBody = 2 << 20

// Handler holds API route handlers.
type Handler struct {
	svc *entryservice.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *entryservice.Service) *Handler {
	return &Handler{svc: svc}
}

// writeError maps service errors onto HTTP statuses.
func writeError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

// GetEntry handles GET /api/entries/{word}.
//
//	@Summary		Look up the entries keyed by a word
//	@Tags			entries
//	@Produce		json
//	@Param			word	path		string	true	"Headword, alternate or synonym"
//	@Success		200		{object}	LookupResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/entries/{word} [get]
func (h *Handler) GetEntry(w http.ResponseWriter, r *http.Request) {
	word := chi.URLParam(r, "word")
	if decoded, err := url.PathUnescape(word); err == nil {
		word = decoded
	}
	entries, err := h.svc.Lookup(r.Context(), word)
	if err != nil {
		writeError(w, "lookup", err)
		return
	}
	writeJSON(w, http.StatusOK, LookupResponse{Word: word, Entries: entries})
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across keys and definitions
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: nonNil(results)})
}

// Preview handles POST /api/preview.
//
//	@Summary		Convert one raw record without storing it
//	@Tags			preview
//	@Accept			json
//	@Produce		json
//	@Param			body	body		PreviewRequest	true	"Raw record"
//	@Success		200		{object}	PreviewResult
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/preview [post]
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxPreviewBody)
	var req PreviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	res, err := h.svc.Preview(r.Context(), req)
	if err != nil {
		writeError(w, "preview", err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// LatestRun handles GET /api/runs/latest.
//
//	@Summary		Describe the most recent conversion run
//	@Tags			runs
//	@Produce		json
//	@Success		200	{object}	RunInfo
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/runs/latest [get]
func (h *Handler) LatestRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.LatestRun(r.Context())
	if err != nil {
		writeError(w, "latest run", err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// Meta handles GET /api/meta.
//
//	@Summary		Dictionary metadata from the source header
//	@Tags			runs
//	@Produce		json
//	@Success		200	{object}	MetaResponse
//	@Security		BearerAuth
//	@Router			/meta [get]
func (h *Handler) Meta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.Meta(r.Context())
	if err != nil {
		writeError(w, "meta", err)
		return
	}
	writeJSON(w, http.StatusOK, MetaResponse{Meta: nonNil(meta)})
}
