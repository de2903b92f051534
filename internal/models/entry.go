// Package models defines the domain types shared by the oedify packages.
package models

import "sort"

// RawRecord is one non-metadata line of the source file.
type RawRecord struct {
	Headword string `json:"headword"`
	Markup   string `json:"markup"`
}

// LogicalEntry is the unit the normalization pipeline operates on.
// HomographIndex is 1-based; zero means the record was not split.
type LogicalEntry struct {
	Headword       string `json:"headword"`
	Markup         string `json:"markup"`
	HomographIndex int    `json:"homograph_index,omitempty"`
}

// Entry is a final dictionary record.
type Entry struct {
	Headword       string   `json:"headword"`
	Alternates     []string `json:"alternates,omitempty"`
	Synonyms       []string `json:"synonyms,omitempty"`
	Definition     string   `json:"definition"`
	HomographIndex int      `json:"homograph_index,omitempty"`
}

// Words returns the search keys of e: the headword first, then the distinct
// alternates and synonyms in sorted order, never repeating the headword.
func (e Entry) Words() []string {
	seen := map[string]struct{}{e.Headword: {}}
	var rest []string
	for _, group := range [][]string{e.Alternates, e.Synonyms} {
		for _, w := range group {
			if w == "" {
				continue
			}
			if _, dup := seen[w]; dup {
				continue
			}
			seen[w] = struct{}{}
			rest = append(rest, w)
		}
	}
	sort.Strings(rest)
	return append([]string{e.Headword}, rest...)
}

// Zone is the structural context a synonym candidate was found in.
type Zone string

// Synonym zones.
const (
	ZoneStrict Zone = "strict"
	ZoneLax    Zone = "lax"
)

// SynonymCandidate is a bold run considered as an extra search key.
type SynonymCandidate struct {
	Text  string `json:"text"`
	Zone  Zone   `json:"zone"`
	Valid bool   `json:"valid"`
}

// Metrics counts what happened while processing one or more source lines.
type Metrics struct {
	SourceEntries      int `json:"source_entries"`
	SplitEntries       int `json:"split_entries"`
	DottedWords        int `json:"dotted_words"`
	DotCorrected       int `json:"dot_corrected"`
	SyntheticSplits    int `json:"synthetic_splits"`
	SynonymsAdded      int `json:"synonyms_added"`
	UnrecognizedGlyphs int `json:"unrecognized_glyphs"`
	FinalEntries       int `json:"final_entries"`
	MalformedLines     int `json:"malformed_lines"`
}

// Add accumulates o into m.
func (m *Metrics) Add(o Metrics) {
	m.SourceEntries += o.SourceEntries
	m.SplitEntries += o.SplitEntries
	m.DottedWords += o.DottedWords
	m.DotCorrected += o.DotCorrected
	m.SyntheticSplits += o.SyntheticSplits
	m.SynonymsAdded += o.SynonymsAdded
	m.UnrecognizedGlyphs += o.UnrecognizedGlyphs
	m.FinalEntries += o.FinalEntries
	m.MalformedLines += o.MalformedLines
}

// MetaField is a "##key<TAB>value" line from the source file.
type MetaField struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FileMetadata describes one file in the output directory.
type FileMetadata struct {
	Path     string `json:"path"`
	Checksum string `json:"checksum"`
	Size     int64  `json:"size"`
}
