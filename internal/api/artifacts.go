package api

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/oedify/internal/storage"
)

// ArtifactHandler lists and serves the files a conversion exported.
type ArtifactHandler struct {
	store storage.Provider
}

// NewArtifactHandler creates a handler over the output directory.
func NewArtifactHandler(store storage.Provider) *ArtifactHandler {
	return &ArtifactHandler{store: store}
}

// safeName validates that the name is a plain file name (no path
// separators, no traversal).
func safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("name is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid name: %s", name)
	}
	return cleaned, nil
}

// List handles GET /api/artifacts.
//
//	@Summary		List exported files
//	@Tags			artifacts
//	@Produce		json
//	@Success		200	{object}	ArtifactListResponse
//	@Security		BearerAuth
//	@Router			/artifacts [get]
func (h *ArtifactHandler) List(w http.ResponseWriter, _ *http.Request) {
	items, err := h.store.List("")
	if err != nil {
		slog.Error("list artifacts failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	writeJSON(w, http.StatusOK, ArtifactListResponse{Artifacts: nonNil(items)})
}

// ServeFile handles GET /api/artifacts/{name}.
//
//	@Summary		Download an exported file
//	@Tags			artifacts
//	@Param			name	path	string	true	"File name"
//	@Success		200
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/artifacts/{name} [get]
func (h *ArtifactHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	name, err := safeName(chi.URLParam(r, "name"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	data, err := h.store.Read(name)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSON(w, http.StatusNotFound, errorBody("not found"))
			return
		}
		slog.Error("read artifact failed", slog.String("name", name), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		return
	}
	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
