package markup

import (
	"regexp"
	"strings"
)

var (
	splitHeadwordRe = regexp.MustCompile(`<b><sup>[IVXL]+</sup></b>\s*<span class="headword">`)
	leadingBoldRe   = regexp.MustCompile(`<span class="headword"><b>(.*?)</b></span>(<blockquote>)?<b>(<span class="abbreviation">[‖¶†]</span>\s)?[\p{L}\p{N}_\x{00C0}-\x{017F}\x{0180}-\x{024F}\x{02C8}' &\-\.]`)
	gluedTextRe     = regexp.MustCompile(`<span class="headword"><b>(.*?)</b></span>(<i>)?(<span class="abbreviation">[\p{L}\p{N}_]|[\p{L}\p{N}_])`)
	firstBoldRe     = regexp.MustCompile(`<b>(.*?)</b>`)
)

// HeadwordSpan renders the headword span placed at the head of an entry.
func HeadwordSpan(headword string) string {
	return `<span class="headword"><b>` + headword + `</b></span>`
}

// WrapHeadword makes sure normalized markup carries exactly one headword
// span. Parts of a split record get the headword after their homograph
// superscript unless a restated headword already follows it. A whole record
// gets the headword prepended unless the markup already opens with a bold
// headword, in which case that run is wrapped instead.
func WrapHeadword(markup, headword string, split bool) string {
	span := HeadwordSpan(headword)
	if split {
		if splitHeadwordRe.MatchString(markup) {
			return markup
		}
		if !strings.Contains(markup, "</b>") {
			return span + markup
		}
		return strings.Replace(markup, "</b>", "</b> "+span, 1)
	}

	out := span + markup
	switch {
	case leadingBoldRe.MatchString(out):
		out = strings.Replace(out, span, "", 1)
		out, _ = replaceFirst(firstBoldRe, out, `<span class="headword"><b>${1}</b></span>`)
	case gluedTextRe.MatchString(out):
		out = strings.Replace(out, span, span+" ", 1)
	}
	return out
}
