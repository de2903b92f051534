// Package entryservice answers dictionary queries and markup previews for the
// HTTP and MCP front ends.
package entryservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/convert"
	"github.com/starford/oedify/internal/index"
	"github.com/starford/oedify/internal/markup"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/synonym"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
	maxPreviewMarkup   = 1 << 20
)

// EntryDetail is the full representation of a stored or previewed entry.
type EntryDetail struct {
	ID                 int64    `json:"id,omitempty"`
	Headword           string   `json:"headword"`
	Homograph          int      `json:"homograph,omitempty"`
	Words              []string `json:"words"`
	Definition         string   `json:"definition"`
	UnrecognizedGlyphs []string `json:"unrecognized_glyphs,omitempty"`
}

// SearchHit is one search result.
type SearchHit struct {
	ID        int64  `json:"id"`
	Headword  string `json:"headword"`
	Homograph int    `json:"homograph,omitempty"`
	Snippet   string `json:"snippet"`
}

// RunInfo describes the latest conversion run.
type RunInfo struct {
	ID             string         `json:"id"`
	SourceChecksum string         `json:"source_checksum"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Entries        int            `json:"entries"`
	Faults         int            `json:"faults"`
	Metrics        models.Metrics `json:"metrics"`
}

// PreviewRequest is a raw record to run through the converter.
type PreviewRequest struct {
	Headword    string `json:"headword"`
	Markup      string `json:"markup"`
	AddSynonyms bool   `json:"add_synonyms"`
}

// Validate validates the preview request.
func (r *PreviewRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Headword, validation.Required, validation.By(noTab)),
		validation.Field(&r.Markup, validation.Required, validation.Length(1, maxPreviewMarkup)),
	)
}

func noTab(v any) error {
	if s, _ := v.(string); strings.ContainsAny(s, "\t\n") {
		return errors.New("must not contain tabs or newlines")
	}
	return nil
}

// PreviewResult is the converter output for one previewed record.
type PreviewResult struct {
	Entries    []EntryDetail             `json:"entries"`
	Metrics    models.Metrics            `json:"metrics"`
	Candidates []models.SynonymCandidate `json:"candidates,omitempty"`
}

// Service coordinates the index and the converter.
type Service struct {
	db       index.EntryIndex
	plain    *convert.Converter
	withSyns *convert.Converter
}

// NewService creates a new entry service. opts configures the preview
// converters; its AddSynonyms and DebugWords are ignored.
func NewService(db index.EntryIndex, opts convert.Options) *Service {
	opts.DebugWords = nil
	opts.Workers = 1
	plain, withSyns := opts, opts
	plain.AddSynonyms = false
	withSyns.AddSynonyms = true
	return &Service{
		db:       db,
		plain:    convert.New(plain, nil),
		withSyns: convert.New(withSyns, nil),
	}
}

// Lookup returns every entry keyed by word.
func (s *Service) Lookup(_ context.Context, word string) ([]EntryDetail, error) {
	word = strings.TrimSpace(word)
	if word == "" {
		return nil, fmt.Errorf("%w: empty word", apperr.ErrInvalidInput)
	}
	rows, err := s.db.Lookup(word)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apperr.ErrNotFound
	}
	out := make([]EntryDetail, len(rows))
	for i, r := range rows {
		words := make([]string, len(r.Keys))
		for j, k := range r.Keys {
			words[j] = k.Word
		}
		out[i] = EntryDetail{
			ID:         r.ID,
			Headword:   r.Headword,
			Homograph:  r.Homograph,
			Words:      words,
			Definition: r.Definition,
		}
	}
	return out, nil
}

// Search delegates full-text search to the index.
func (s *Service) Search(_ context.Context, query string, limit int) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", apperr.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	limit = min(limit, maxSearchLimit)

	rows, err := s.db.Search(query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]SearchHit, len(rows))
	for i, r := range rows {
		out[i] = SearchHit{ID: r.EntryID, Headword: r.Headword, Homograph: r.Homograph, Snippet: r.Snippet}
	}
	return out, nil
}

// Preview converts one record without touching the index.
func (s *Service) Preview(_ context.Context, req PreviewRequest) (*PreviewResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	conv := s.plain
	if req.AddSynonyms {
		conv = s.withSyns
	}
	out, err := conv.ProcessLine(req.Headword + "\t" + req.Markup)
	if err != nil {
		return nil, err
	}

	res := &PreviewResult{Metrics: out.Metrics, Entries: make([]EntryDetail, len(out.Entries))}
	for i, e := range out.Entries {
		res.Entries[i] = EntryDetail{
			Headword:           e.Headword,
			Homograph:          e.HomographIndex,
			Words:              e.Words(),
			Definition:         e.Definition,
			UnrecognizedGlyphs: markup.UnrecognizedGlyphs(e.Definition),
		}
		if req.AddSynonyms {
			res.Candidates = append(res.Candidates, synonym.Candidates(e.Headword, e.Definition)...)
		}
	}
	return res, nil
}

// LatestRun returns the most recent conversion run.
func (s *Service) LatestRun(_ context.Context) (*RunInfo, error) {
	r, err := s.db.LatestRun()
	if err != nil {
		return nil, err
	}
	return &RunInfo{
		ID:             r.ID,
		SourceChecksum: r.SourceChecksum,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
		Entries:        r.Entries,
		Faults:         r.Faults,
		Metrics:        r.Metrics,
	}, nil
}

// Meta returns the dictionary metadata of the latest run.
func (s *Service) Meta(_ context.Context) ([]models.MetaField, error) {
	return s.db.Meta()
}
