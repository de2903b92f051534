package markup

import (
	"regexp"
	"strings"
)

// MarkerKind is the structural role of a marker label.
type MarkerKind int

const (
	MarkerSense MarkerKind = iota + 1
	MarkerSubsense
	MarkerMajorDivision
	MarkerPartOfSpeech
)

// Class returns the CSS class the kind is rendered with.
func (k MarkerKind) Class() string {
	switch k {
	case MarkerSense:
		return "senses"
	case MarkerSubsense:
		return "subsenses"
	case MarkerMajorDivision:
		return "major-division"
	case MarkerPartOfSpeech:
		return "pos"
	}
	return ""
}

func (k MarkerKind) String() string { return k.Class() }

// Marker is one classified label.
type Marker struct {
	Kind  MarkerKind
	Label string
}

const (
	senseLabel    = `(\[?[0-9]+\.\]?)`
	subsenseLabel = `(\[?[a-z]\.\]?)`
	romanLabel    = `(\[?[IVXL]+\.\]?)`
	posLabel      = `(\[?[A-Z]\.\]?)`
)

type markerShape struct {
	re    *regexp.Regexp
	kinds []MarkerKind
}

func shape(expr string, kinds ...MarkerKind) markerShape {
	return markerShape{re: regexp.MustCompile(`^` + expr + `$`), kinds: kinds}
}

// Shapes are tried in order; the first full match wins. Roman numerals come
// before the single capital so "I." is a major division.
var markerShapes = []markerShape{
	shape(senseLabel, MarkerSense),
	shape(subsenseLabel, MarkerSubsense),
	shape(`<abr>`+subsenseLabel+`</abr>`, MarkerSubsense),
	shape(senseLabel+` `+subsenseLabel, MarkerSense, MarkerSubsense),
	shape(senseLabel+` <abr>`+subsenseLabel+`</abr>`, MarkerSense, MarkerSubsense),
	shape(romanLabel+` `+senseLabel, MarkerMajorDivision, MarkerSense),
	shape(romanLabel, MarkerMajorDivision),
	shape(posLabel, MarkerPartOfSpeech),
	shape(posLabel+` `+romanLabel, MarkerPartOfSpeech, MarkerMajorDivision),
	shape(posLabel+` `+senseLabel, MarkerPartOfSpeech, MarkerSense),
}

// ClassifyMarker classifies the text of a marker run by shape alone. It
// returns nil when the text has no known shape.
func ClassifyMarker(text string) []Marker {
	for _, sh := range markerShapes {
		m := sh.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		out := make([]Marker, len(sh.kinds))
		for i, k := range sh.kinds {
			out[i] = Marker{Kind: k, Label: m[i+1]}
		}
		return out
	}
	return nil
}

// RenderMarkers renders classified markers as adjacent classed spans.
func RenderMarkers(ms []Marker) string {
	parts := make([]string, len(ms))
	for i, m := range ms {
		parts[i] = `<span class="` + m.Kind.Class() + `">` + m.Label + `</span>`
	}
	return strings.Join(parts, " ")
}

var (
	markerRunRe        = regexp.MustCompile(`<span style="color:#4B0082">(.*?)</span>`)
	obsoleteSenseRe    = regexp.MustCompile(`(</blockquote>)(<blockquote><abr>†</abr>\s*<b><span style="color:#4B0082">)`)
	senseScopedFormsRe = regexp.MustCompile(`(?s)(<blockquote><b><span class="(?:senses|subsenses)">[a-z0-9]+\.</span></b>) (.*?\(<i>[α-ω]</i>\).*?)</blockquote>`)
)

func markerStage() Stage {
	return Stage{Name: "markers", Rules: []Rule{
		replaceRule("obsolete-sense-guard", obsoleteSenseRe, `${1} ${2}`),
		{
			Name: "classify",
			When: func(s string, _ Env) bool { return strings.Contains(s, markerColor) },
			Apply: func(s string, _ Env) string {
				return markerRunRe.ReplaceAllStringFunc(s, classifyRun)
			},
		},
		replaceRule("sense-scoped-forms", senseScopedFormsRe, `${1} <span class="forms">${2}</span></blockquote>`),
	}}
}

// classifyRun rewrites one marker colour run, leaving unknown shapes as-is.
func classifyRun(run string) string {
	inner := run[len(markerColor) : len(run)-len("</span>")]
	ms := ClassifyMarker(inner)
	if ms == nil {
		return run
	}
	return RenderMarkers(ms)
}
