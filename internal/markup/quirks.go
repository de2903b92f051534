package markup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// terminalMarks end headwords that carry quirks: abbreviation entries and
// entries labelled obsolete, alien or erroneous.
const terminalMarks = ".‖¶†‡"

// DefaultWatchList names headwords without a terminal mark that still get
// duplicate-definition detection.
var DefaultWatchList = []string{"&c"}

// definitionOverrides replace junk definitions of a few abbreviation entries.
var definitionOverrides = map[string]string{
	"Prov.": "<br/>proverb, (in the Bible) Proverbs",
	"Div.":  "<br/>division, divinity",
}

var headwordOverrides = map[string]string{
	". s. d.": "l. s. d.",
}

// QuirkFlags records which quirks fired for a record.
type QuirkFlags struct {
	Dotted         bool // headword ends in a terminal mark or is watched
	DotCorrected   bool // a duplicated definition was cut to its first copy
	Overridden     bool // definition or headword replaced from the override table
	SyntheticSplit bool // homograph markers were injected between merged entries
}

// Resolution is the outcome of quirk resolution for one record.
type Resolution struct {
	Headword   string
	Alternates []string
	Markup     string
	Flags      QuirkFlags
}

// QuirkResolver applies headword and definition-shape fixups before
// homograph splitting.
type QuirkResolver struct {
	watch map[string]struct{}
}

// NewQuirkResolver returns a resolver that also checks the watch-listed
// headwords for duplicated definitions.
func NewQuirkResolver(watchList []string) *QuirkResolver {
	w := make(map[string]struct{}, len(watchList))
	for _, hw := range watchList {
		w[hw] = struct{}{}
	}
	return &QuirkResolver{watch: w}
}

var defaultResolver = NewQuirkResolver(DefaultWatchList)

// ResolveQuirks resolves a record with the default watch-list.
func ResolveQuirks(headword, markup string) Resolution {
	return defaultResolver.Resolve(headword, markup)
}

// Resolve applies every quirk to one record. Markup matching no quirk passes
// through unchanged.
func (q *QuirkResolver) Resolve(headword, markup string) Resolution {
	res := Resolution{Headword: headword, Markup: markup}
	_, watched := q.watch[headword]
	if HasTerminalMark(headword) || watched {
		res.Flags.Dotted = true
		q.resolveDotted(&res)
	}
	if m, ok := injectMergedMarkers(res.Markup); ok {
		res.Markup = m
		res.Flags.SyntheticSplit = true
	}
	return res
}

func (q *QuirkResolver) resolveDotted(res *Resolution) {
	if def, ok := definitionOverrides[res.Headword]; ok {
		res.Markup = def
		res.Flags.Overridden = true
	}
	if hw, ok := headwordOverrides[res.Headword]; ok {
		res.Headword = hw
		res.Flags.Overridden = true
	}

	// Misses duplicates whose halves differ in a trailing separator.
	if first, ok := duplicatedDefinition(res.Markup); ok {
		res.Markup = "<br/>" + first
		res.Flags.DotCorrected = true
	}

	if alt := StripTerminalMarks(res.Headword); alt != "" && alt != res.Headword {
		res.Alternates = append(res.Alternates, alt)
	}
}

// duplicatedDefinition reports whether markup, with its newline escapes
// removed, is the same text twice, and returns the markup of the first half.
// Newline escapes inside the first half are kept.
func duplicatedDefinition(markup string) (string, bool) {
	joined := strings.ReplaceAll(markup, `\n`, "")
	n := utf8.RuneCountInString(joined)
	if n == 0 || n%2 != 0 {
		return "", false
	}
	runes := []rune(joined)
	if string(runes[:n/2]) != string(runes[n/2:]) {
		return "", false
	}
	half, count := n/2, 0
	for i := 0; i < len(markup); {
		if count == half {
			return markup[:i], true
		}
		if strings.HasPrefix(markup[i:], `\n`) {
			i += 2
			continue
		}
		_, size := utf8.DecodeRuneInString(markup[i:])
		i += size
		count++
	}
	return markup, true
}

// HasTerminalMark reports whether headword ends in a terminal mark.
func HasTerminalMark(headword string) bool {
	r, _ := utf8.DecodeLastRuneInString(headword)
	return r != utf8.RuneError && strings.ContainsRune(terminalMarks, r)
}

// StripTerminalMarks trims trailing terminal marks and spaces.
func StripTerminalMarks(headword string) string {
	return strings.TrimRight(headword, terminalMarks+" ")
}

// Merged entries: a quotations block closes and is followed directly by a
// bold headword and a pronunciation block, with no homograph marker between.
var mergedEntryRe = regexp.MustCompile(`</ex></blockquote>(<b>[^<]+</b><blockquote>\(<span style="color:#2F4F4F">)`)

// HomographMarker renders the visual homograph marker for ordinal n.
func HomographMarker(n int) string {
	return `<b><span style="color:#8B008B">▪ <span>` + roman(n) + `.</span></span></b>`
}

// injectMergedMarkers numbers the entries found concatenated in one record.
func injectMergedMarkers(markup string) (string, bool) {
	if homographMarkerRe.MatchString(markup) {
		return markup, false
	}
	locs := mergedEntryRe.FindAllStringSubmatchIndex(markup, -1)
	if len(locs) == 0 {
		return markup, false
	}
	var b strings.Builder
	b.WriteString(HomographMarker(1))
	last := 0
	for i, loc := range locs {
		b.WriteString(markup[last:loc[2]])
		b.WriteString(HomographMarker(i + 2))
		last = loc[2]
	}
	b.WriteString(markup[last:])
	return b.String(), true
}

var romanNumerals = []struct {
	value int
	sym   string
}{
	{50, "L"}, {40, "XL"}, {10, "X"}, {9, "IX"}, {5, "V"}, {4, "IV"}, {1, "I"},
}

// roman renders n in the numerals homograph markers use. Values outside
// 1..89 fall back to decimal digits.
func roman(n int) string {
	if n < 1 || n >= 90 {
		return strconv.Itoa(n)
	}
	var b strings.Builder
	for _, r := range romanNumerals {
		for n >= r.value {
			b.WriteString(r.sym)
			n -= r.value
		}
	}
	return b.String()
}
