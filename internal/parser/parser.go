// Package parser reads the tab-separated dictionary source: "##key<TAB>value"
// metadata lines, blank lines, and "headword<TAB>markup" records.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/models"
)

// maxLineSize bounds one source line; some entries run to several megabytes.
const maxLineSize = 16 * 1024 * 1024

const metaPrefix = "##"

// Source holds the contents of a source file.
type Source struct {
	Meta  []models.MetaField
	Lines []string // record lines kept by the filter, in file order
	Blank int      // blank lines skipped
	Total int      // record lines seen before filtering
}

// Read scans r. When filter is non-nil only records whose headword it
// accepts are kept.
func Read(r io.Reader, filter func(headword string) bool) (*Source, error) {
	src := &Source{}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
			src.Blank++
		case strings.HasPrefix(line, metaPrefix):
			if f, ok := ParseMeta(line); ok {
				src.Meta = append(src.Meta, f)
			}
		default:
			src.Total++
			if filter != nil {
				hw, _, _ := strings.Cut(line, "\t")
				if !filter(hw) {
					continue
				}
			}
			src.Lines = append(src.Lines, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parser: scan: %w", err)
	}
	return src, nil
}

// ParseMeta parses a "##key<TAB>value" line.
func ParseMeta(line string) (models.MetaField, bool) {
	body := strings.TrimSpace(strings.TrimLeft(line, "#"))
	key, value, ok := strings.Cut(body, "\t")
	if !ok {
		return models.MetaField{}, false
	}
	return models.MetaField{Key: strings.TrimSpace(key), Value: strings.TrimSpace(value)}, true
}

// ParseRecord splits a record line at its first TAB.
func ParseRecord(line string) (models.RawRecord, error) {
	hw, markup, ok := strings.Cut(line, "\t")
	if !ok {
		return models.RawRecord{}, fmt.Errorf("parser: %w: no tab separator", apperr.ErrMalformedRecord)
	}
	return models.RawRecord{Headword: hw, Markup: markup}, nil
}

// MetaValue returns the value of the last metadata field named key.
func (s *Source) MetaValue(key string) (string, bool) {
	for i := len(s.Meta) - 1; i >= 0; i-- {
		if s.Meta[i].Key == key {
			return s.Meta[i].Value, true
		}
	}
	return "", false
}

// ExpectedEntries is the declared "wordcount", or the number of kept
// records when none is declared or a filter is active.
func (s *Source) ExpectedEntries(filtered bool) int {
	if v, ok := s.MetaValue("wordcount"); ok && !filtered {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return len(s.Lines)
}
