package markup

import (
	"regexp"
	"strings"
)

// Block-quotes opening with one of these are forms sections. Later forms
// sections deep in an entry use other openers and are not caught here.
var formsOpeners = []string{
	`Forms:?`,
	`(?:<i>)?Compared`,
	`Also [0-9]`,
	`<abr>Pa.</abr>`,
	`Past and <abr>pple.</abr>`,
	`Pl. <b>`,
	`Usually in <abr>pl.</abr>`,
	`commonly in (?:<i>)?<abr>pl.</abr>`,
	`\(<i>[α-ω]</i>\)`,
	`[α-ω]<sup>[0-9]</sup>`,
}

const formsOpen = `<div class="forms">`

func formsStage() Stage {
	rules := make([]Rule, 0, len(formsOpeners)+1)
	for _, opener := range formsOpeners {
		re := regexp.MustCompile(`(?s)<blockquote>(` + opener + `.*?)</blockquote>`)
		rules = append(rules, replaceRule("opener "+opener, re, formsOpen+`${1}</div>`))
	}
	rules = append(rules, Rule{
		Name: "between-part-of-speech",
		When: func(s string, _ Env) bool { return strings.Count(s, markerColor) >= 2 },
		Apply: func(s string, _ Env) string {
			return wrapFormsZone(s)
		},
	})
	return Stage{Name: "forms", Rules: rules}
}

// wrapFormsZone handles forms sections laid out as a run of block-quotes
// between two part-of-speech markers. When the first marker's block-quote
// mentions forms, every plain block-quote after it and before the second
// marker's block-quote is wrapped if it holds a sense or subsense marker and
// at least one bold form that is not itself a marker.
func wrapFormsZone(s string) string {
	t := ParseTree(s)
	var posBlocks []*Node
	for _, span := range t.Root.FindAll(isMarkerRun) {
		ms := ClassifyMarker(t.Inner(span))
		if len(ms) == 0 || ms[0].Kind != MarkerPartOfSpeech {
			continue
		}
		if bq := span.Closest("blockquote"); bq != nil {
			posBlocks = append(posBlocks, bq)
		}
	}
	if len(posBlocks) < 2 || !strings.Contains(strings.ToLower(posBlocks[0].Text()), "forms") {
		return s
	}

	var ed Edits
	for n := posBlocks[0].NextElementSibling(); n != nil && n != posBlocks[1]; n = n.NextElementSibling() {
		if n.Tag != "blockquote" || n.HasAttr("class") || n.InsideClass("div", "forms") {
			continue
		}
		if hasSenseMarker(t, n) && hasFormToken(n) {
			ed.Wrap(n, formsOpen, "</div>")
		}
	}
	return ed.Apply(s)
}

func isMarkerRun(n *Node) bool {
	return n.Tag == "span" && n.Attr("style") == "color:#4B0082"
}

func hasSenseMarker(t *Tree, bq *Node) bool {
	for _, span := range bq.FindAll(isMarkerRun) {
		for _, m := range ClassifyMarker(t.Inner(span)) {
			if m.Kind == MarkerSense || m.Kind == MarkerSubsense {
				return true
			}
		}
	}
	return false
}

func hasFormToken(bq *Node) bool {
	for _, b := range bq.FindAll(func(n *Node) bool { return n.Tag == "b" }) {
		if len(b.FindAll(isMarkerRun)) == 0 {
			return true
		}
	}
	return false
}
