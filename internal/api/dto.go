package api

import (
	"github.com/starford/oedify/internal/entryservice"
	"github.com/starford/oedify/internal/models"
)

// EntryDetail is the full entry response type (aliased from the domain layer).
type EntryDetail = entryservice.EntryDetail

// SearchHit is a single search hit (aliased from the domain layer).
type SearchHit = entryservice.SearchHit

// RunInfo describes a conversion run (aliased from the domain layer).
type RunInfo = entryservice.RunInfo

// PreviewRequest is the request body for a markup preview.
type PreviewRequest = entryservice.PreviewRequest

// PreviewResult is the converter output for a preview.
type PreviewResult = entryservice.PreviewResult

// LookupResponse wraps the entries keyed by one word.
type LookupResponse struct {
	Word    string        `json:"word" example:"bank" validate:"required"`
	Entries []EntryDetail `json:"entries" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchHit `json:"results" validate:"required"`
}

// MetaResponse wraps the dictionary metadata.
type MetaResponse struct {
	Meta []models.MetaField `json:"meta" validate:"required"`
}

// ArtifactListResponse wraps the exported files.
type ArtifactListResponse struct {
	Artifacts []models.FileMetadata `json:"artifacts" validate:"required"`
}
