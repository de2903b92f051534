package markup

import (
	"regexp"
	"sort"
	"strings"
)

// Legacy glyph escapes look like {name}: a letter followed by an accent
// name ("aacu", "cced", "obreve"), or a one-off glyph name ("ddd", "pstlg").

var acute = map[string]string{
	"a": "á", "A": "Á", "e": "é", "E": "É", "i": "í", "I": "Í",
	"o": "ó", "O": "Ó", "u": "ú", "U": "Ú", "y": "ý", "Y": "Ý",
}

var cedilla = map[string]string{
	"a": "a\u0327", "c": "ç", "C": "Ç", "S": "Ş",
	"i": "i\u0327", "d": "d\u0327", "t": "ţ", "z": "z\u0327",
}

var breve = map[string]string{
	"c": "c\u0306", "s": "s\u0306", "y": "y\u0306", "z": "z\u0306",
	"r": "r\u0306", "j": "j\u0306", "n": "n\u0306", "S": "S\u0306",
	"A": "Ă", "G": "Ğ", "I": "Ĭ", "O": "Ŏ",
	"nf": "\u0306", "ae": "æ\u0306\u0306", "go": "\u03bf\u0306", "sq": "",
	"ymac": "y\u0304\u0306", "kmac": "k\u0304\u0306", "oemac": "œ\u0304\u0306",
	"aemac": "æ\u0304\u0306", "ohook": "ǫ\u0306",
}

var macron = map[string]string{
	"a": "ā", "A": "Ā", "e": "ē", "E": "Ē", "i": "ī", "I": "Ī",
	"o": "ō", "O": "Ō", "u": "ū", "U": "Ū", "y": "ȳ", "Y": "Ȳ",
	"ae": "ǣ", "oe": "œ\u0304", "g": "ḡ",
}

var bar = map[string]string{
	"b": "ƀ", "d": "đ", "D": "Đ", "h": "ħ", "H": "Ħ",
	"i": "ɨ", "l": "ł", "L": "Ł", "o": "ɵ", "u": "ʉ",
}

// accents maps accent suffixes to their letter tables.
var accents = []struct {
	suffix string
	table  map[string]string
}{
	{"acu", acute},
	{"ced", cedilla},
	{"breve", breve},
	{"mac", macron},
	{"bar", bar},
}

// namedGlyphs are one-off escapes. "ormg" is unresolved and kept visible as
// a bracketed placeholder.
var namedGlyphs = map[string]string{
	"ddd":     "...",
	"oqq":     "“",
	"cqq":     "”",
	"nfced":   "¸",
	"aacuced": "á",
	"pstlg":   "£",
	"ddag":    "‡",
	"pstr":    "ˈ",
	"sstr":    "ˌ",
	"ormg":    "[ormg]",
}

var (
	glyphEscapeRe = regexp.MustCompile(`\{([^{}]+)\}`)
	smallCapRe    = regexp.MustCompile(`^sup([a-z])$`)
	residualRe    = regexp.MustCompile(`\{([A-Za-z]+)\}`)
)

// ResolveGlyph returns the replacement for one escape name.
func ResolveGlyph(name string) (string, bool) {
	if m := smallCapRe.FindStringSubmatch(name); m != nil {
		return `<span class="small-cap-letter">` + m[1] + `</span>`, true
	}
	if g, ok := namedGlyphs[name]; ok {
		return g, true
	}
	for _, a := range accents {
		letter, found := strings.CutSuffix(name, a.suffix)
		if !found || letter == "" {
			continue
		}
		if g, ok := a.table[letter]; ok {
			return g, true
		}
	}
	return "", false
}

func substituteGlyphs(s string) string {
	return glyphEscapeRe.ReplaceAllStringFunc(s, func(esc string) string {
		if g, ok := ResolveGlyph(esc[1 : len(esc)-1]); ok {
			return g
		}
		return esc
	})
}

func glyphStage() Stage {
	return Stage{Name: "glyphs", Rules: []Rule{
		{
			Name:  "escapes",
			When:  func(s string, _ Env) bool { return strings.Contains(s, "{") },
			Apply: func(s string, _ Env) string { return substituteGlyphs(s) },
		},
		literalRule("superset-e", "⊇", "e"),
	}}
}

// UnrecognizedGlyphs lists the distinct escape names left in normalized
// markup, sorted.
func UnrecognizedGlyphs(s string) []string {
	seen := map[string]struct{}{}
	for _, m := range residualRe.FindAllStringSubmatch(s, -1) {
		seen[m[1]] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
