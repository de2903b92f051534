package markup

import (
	"regexp"
	"strings"

	"github.com/starford/oedify/internal/models"
)

var homographMarkerRe = regexp.MustCompile(`<b><span style="color:#8B008B">▪ <span>[IVXL]+\.</span></span></b>`)

// SplitHomographs cuts markup at every homograph marker, keeping each marker
// at the head of its slice. Markup without a marker yields one slice.
// Whitespace-only slices are dropped.
func SplitHomographs(markup string) []string {
	locs := homographMarkerRe.FindAllStringIndex(markup, -1)
	if len(locs) == 0 {
		return []string{markup}
	}
	out := make([]string, 0, len(locs)+1)
	keep := func(part string) {
		if strings.TrimSpace(part) != "" {
			out = append(out, part)
		}
	}
	keep(markup[:locs[0][0]])
	for i, loc := range locs {
		end := len(markup)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		keep(markup[loc[0]:end])
	}
	return out
}

// Split turns a resolved record into its logical entries. Entries of a
// split record are numbered from 1.
func Split(res Resolution) []models.LogicalEntry {
	parts := SplitHomographs(res.Markup)
	split := len(parts) > 1 || homographMarkerRe.MatchString(res.Markup)
	entries := make([]models.LogicalEntry, 0, len(parts))
	for i, p := range parts {
		e := models.LogicalEntry{Headword: res.Headword, Markup: p}
		if split {
			e.HomographIndex = i + 1
		}
		entries = append(entries, e)
	}
	return entries
}
