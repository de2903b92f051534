package markup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// A citation opens with a bold year token; what follows it is classed by
// position. Patterns run from most specific to most general. A span that has
// been classed starts with a tag, which the later patterns never accept as
// author text, so nothing is classed twice.

const yearToken = `<b>(?:\?)?(?:<i>[acp]</i>)?\d{3,4}(?:\x{2013}\d{2})?</b>`

// authorChar is one character of an author token. Glyph escapes are still
// present when citations are classed.
const authorChar = `(?:[\p{L}\p{N}_]|\{[A-Za-z]+\})`

var (
	yearTokenRe  = regexp.MustCompile(yearToken)
	titleRe      = regexp.MustCompile(`(<span class="author">[^<]*</span>)\s+((?:in\s+)?<i>[^<]*</i>)`)
	referenceRe  = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>)?(\d{3,4})</b>)\s+([^\s<]+(?:\s+[^\s<]+)*)\s+(\d+)\s+<span style="color:#8B008B">`)
	lineNumberRe = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>\s?)?(\d{3,4})</b>)\s+((?:[A-Z]+\.)?\s?<abr>[^<]+</abr>)\s+(\d+)\s+<span style="color:#8B008B">`)

	quoteDateSpaceRe = regexp.MustCompile(`</span><b>(\??(<i>)?[acp0-9])`)
	quoteTagSpaceRe  = regexp.MustCompile(`(<span class="quotes">.*?</span>)(<[^>]+>)`)

	translatorRe    = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>)?(\d{3,4})</b>) (<abr>tr\.</abr>)(\s<i>)`)
	authorAbbrevRe  = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>)?(\d{3,4})</b>) ((?:` + authorChar + `\.)?\s?` + authorChar + `+)\s(<abr>[\p{L}\p{N}_]+\.</abr>)(\s<i>)`)
	initialSourceRe = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>)?(?:\d{3,4})</b>) ([A-Z]\.)\s<abr>(` + authorChar + `+\.)</abr>\s(\([^)]+\))\s([0-9]+)`)
	abbrevAuthorRe  = regexp.MustCompile(`(<b>(?:\?)?(?:<i>[acp]</i>)?(?:\d{3,4})</b>) ([^<]*)?<abr>([\p{L}\p{N}_]+\.)</abr>\s(` + authorChar + `+)?\s?((<i>)?[0-9]?\s?)(<i>|<abr>)`)

	authorSpanRe    = regexp.MustCompile(`<span class="author">.*?</span>`)
	authorTrSplitRe = regexp.MustCompile(`<span class="author">(.*?)\s+tr\.\s*</span>`)
)

func citationStage() Stage {
	return Stage{Name: "citations", Rules: []Rule{
		funcRule("author", func(s string, _ Env) string { return tagAuthors(s) }),
		replaceRule("title", titleRe, `${1} <span class="title">${2}</span>`),
		replaceRule("reference", referenceRe, `${1} <span class="author">${3}</span> <span class="reference">${4}</span> <span style="color:#8B008B">`),
		replaceRule("line-number", lineNumberRe, `${1} <span class="author">${3}</span> <span class="line-number">${4}</span> <span style="color:#8B008B">`),
		literalRule("quotes-class", homographColor, `<span class="quotes">`),
		replaceRule("quotes-date-space", quoteDateSpaceRe, `</span> <b>${1}`),
		replaceRule("quotes-tag-space", quoteTagSpaceRe, `${1} ${2}`),
		replaceRule("translator", translatorRe, `${1} <span class="translator">tr.</span>${4}`),
		replaceRule("author-abbreviation", authorAbbrevRe, `${1} <span class="author">${3}</span> ${4}${5}`),
		replaceRule("initial-source", initialSourceRe, `${1} <span class="author">${2} ${3}</span> ${4} ${5}`),
		replaceRule("abbreviated-author", abbrevAuthorRe, `${1} <span class="author">${2}${3} ${4}</span> ${5}${7}`),
		literalRule("anonymous-open", anonOpen, ""),
		literalRule("anonymous-close", anonClose, ""),
		{
			Name: "author-translator",
			When: func(s string, _ Env) bool { return strings.Contains(s, " tr.") },
			Apply: func(s string, _ Env) string {
				return authorSpanRe.ReplaceAllStringFunc(s, splitTranslator)
			},
		},
		literalRule("translator-abbreviation", `<span class="translator">tr.</span>`, `<abr>tr.</abr>`),
	}}
}

func splitTranslator(span string) string {
	if !strings.Contains(span, " tr.") {
		return span
	}
	return authorTrSplitRe.ReplaceAllString(span, `<span class="author">${1}</span> <abr>tr.</abr>`)
}

// tagAuthors wraps the run of whitespace-separated tokens after a year token
// in an author span. The run is the shortest one followed by an italic run,
// the word "in", or an opening parenthesis.
func tagAuthors(s string) string {
	locs := yearTokenRe.FindAllStringIndex(s, -1)
	if len(locs) == 0 {
		return s
	}
	var b strings.Builder
	last := 0
	for _, loc := range locs {
		if loc[0] < last {
			continue
		}
		end, run, ok := scanAuthorRun(s, loc[1])
		if !ok {
			continue
		}
		b.WriteString(s[last:loc[1]])
		b.WriteString(` <span class="author">`)
		b.WriteString(run)
		b.WriteString(`</span> `)
		last = end
	}
	if last == 0 {
		return s
	}
	b.WriteString(s[last:])
	return b.String()
}

// scanAuthorRun reports the author token run starting after pos and the
// offset of the text that terminates it.
func scanAuthorRun(s string, pos int) (end int, run string, ok bool) {
	i := skipSpace(s, pos)
	if i == pos {
		return 0, "", false
	}
	start := i
	for {
		j := i
		for j < len(s) {
			r, size := utf8.DecodeRuneInString(s[j:])
			if r == '<' || unicode.IsSpace(r) {
				break
			}
			j += size
		}
		if j == i {
			return 0, "", false
		}
		k := skipSpace(s, j)
		if k == j {
			return 0, "", false
		}
		if endsAuthorRun(s[k:]) {
			return k, s[start:j], true
		}
		i = k
	}
}

func endsAuthorRun(rest string) bool {
	if strings.HasPrefix(rest, "<i>") || strings.HasPrefix(rest, "in") {
		return true
	}
	if !strings.HasPrefix(rest, "(") {
		return false
	}
	r, _ := utf8.DecodeRuneInString(rest[1:])
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func skipSpace(s string, i int) int {
	for i < len(s) {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !unicode.IsSpace(r) {
			break
		}
		i += size
	}
	return i
}
