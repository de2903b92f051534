package markup

import (
	"strings"
)

func etymologyStage() Stage {
	return Stage{Name: "etymology", Rules: []Rule{{
		Name: "etymology-block",
		When: func(s string, _ Env) bool { return strings.Contains(s, "<blockquote>") && strings.Contains(s, "[") },
		Apply: func(s string, _ Env) string {
			return wrapEtymology(s)
		},
	}}}
}

// wrapEtymology wraps the bracketed etymology at the head of an entry. The
// opener is the first unclassed block-quote starting with "[", either inside
// the etymology colour run or bare. The closer is the first block-quote from
// the opener onwards whose text ends in "]". Neither may lie past the first
// sense marker.
func wrapEtymology(s string) string {
	bound := len(s)
	if i := strings.Index(s, "<b>"+markerColor); i >= 0 {
		bound = i
	}
	t := ParseTree(s)

	var opener *Node
	coloured := false
	for _, bq := range t.Root.FindAll(func(n *Node) bool { return n.Tag == "blockquote" }) {
		if bq.Start >= bound {
			break
		}
		if bq.HasAttr("class") {
			continue
		}
		rest := s[bq.TagEnd:]
		if strings.HasPrefix(rest, etymologyColor+"[") {
			opener, coloured = bq, true
			break
		}
		if strings.HasPrefix(rest, "[") {
			opener = bq
			break
		}
	}
	if opener == nil {
		return s
	}

	var closer *Node
	for n := opener; n != nil && n.Start < bound; n = n.NextElementSibling() {
		if n.Tag == "blockquote" && closesEtymology(t, n) {
			closer = n
			break
		}
	}
	if closer == nil {
		if !coloured {
			return s
		}
		closer = opener
	}

	var ed Edits
	ed.Insert(opener.Start, `<div class="etymology">`)
	if coloured {
		ed.Replace(opener.TagEnd, opener.TagEnd+len(etymologyColor), `<span class="etymology-main">`)
	}
	prev := opener
	for n := opener.NextElementSibling(); n != nil && prev != closer; n = n.NextElementSibling() {
		if n.Tag == "blockquote" && n.Start == prev.End && s[n.Start:n.TagEnd] == "<blockquote>" {
			ed.ReplaceOpenTag(n, `<blockquote class="etymology-notes">`)
		}
		prev = n
	}
	ed.Insert(closer.End, "</div>")
	return ed.Apply(s)
}

func closesEtymology(t *Tree, bq *Node) bool {
	inner := strings.TrimRight(t.Inner(bq), " ")
	return strings.HasSuffix(inner, "]") || strings.HasSuffix(inner, "]</span>")
}
