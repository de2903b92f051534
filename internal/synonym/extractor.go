// Package synonym mines normalized entries for extra search keys: bold runs
// that name variant forms, compounds or derived phrases of the headword.
package synonym

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/starford/oedify/internal/markup"
	"github.com/starford/oedify/internal/models"
)

var ignoredWords = map[string]struct{}{
	"to": {}, "or": {}, "and": {}, "a": {}, "an": {}, "the": {}, "after": {}, "before": {},
	"in": {}, "on": {}, "at": {}, "for": {}, "with": {}, "by": {}, "of": {}, "from": {},
	"that": {}, "which": {}, "who": {}, "whom": {}, "whose": {}, "as": {}, "than": {},
	"like": {}, "such": {}, "so": {}, "but": {}, "if": {}, "when": {}, "up": {}, "down": {},
	"Derivatives.": {}, "Compounds.": {},
}

var (
	asideRe     = regexp.MustCompile(`\(.*?\)`)
	digitRunRe  = regexp.MustCompile(`\p{Nd}{2,}`)
	romanRe     = regexp.MustCompile(`^[IVXL]+\.$`)
	letterRe    = regexp.MustCompile(`^[A-Za-z]\.?$`)
	digitRe     = regexp.MustCompile(`^[0-9]\.?$`)
	punctuation = strings.NewReplacer(
		"†", "", "*", "", "ˈ", "", "ˌ", "", "(", "", ")", "", "[", "", "]", "",
		"‖", "", "¶", "", "?", "", "!", "", "–", "", "—", "", ";", "", ":", "",
	)
)

const maxWords = 4

// Clean strips parenthesised asides and marker punctuation from a bold run.
func Clean(text string) string {
	text = asideRe.ReplaceAllString(text, "")
	return strings.TrimSpace(punctuation.Replace(text))
}

// Extract returns the sorted synonyms found in normalized markup. It never
// fails; markup without candidates yields nil.
func Extract(headword, normalized string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, c := range Candidates(headword, normalized) {
		if !c.Valid {
			continue
		}
		if _, dup := seen[c.Text]; dup {
			continue
		}
		seen[c.Text] = struct{}{}
		out = append(out, c.Text)
	}
	sort.Strings(out)
	return out
}

// Candidates classifies every bold run of normalized markup, in document
// order. Text is the cleaned run with the headword shorthand expanded; Valid
// reports whether it would be kept as a synonym.
func Candidates(headword, normalized string) []models.SynonymCandidate {
	hw := Clean(headword)
	if hw == "" {
		return nil
	}
	initial, _ := utf8.DecodeRuneInString(hw)
	shorthand := string(initial) + "."
	lowerHW := strings.ToLower(hw)

	tree := markup.ParseTree(normalized)
	var out []models.SynonymCandidate
	for _, run := range classify(tree) {
		text := Clean(run.node.Text())
		c := models.SynonymCandidate{Text: text, Zone: run.zone}
		if acceptable(text) {
			c.Text = strings.ReplaceAll(text, shorthand, hw)
			c.Valid = c.Text != hw
			if run.zone == models.ZoneStrict && !strings.Contains(strings.ToLower(c.Text), lowerHW) {
				c.Valid = false
			}
		}
		out = append(out, c)
	}
	return out
}

func acceptable(text string) bool {
	if text == "" {
		return false
	}
	if _, ok := ignoredWords[text]; ok {
		return false
	}
	if strings.HasPrefix(text, "-") || strings.HasSuffix(text, "-") {
		return false
	}
	if digitRunRe.MatchString(text) || romanRe.MatchString(text) || letterRe.MatchString(text) || digitRe.MatchString(text) {
		return false
	}
	return len(strings.Fields(text)) <= maxWords
}

type boldRun struct {
	node *markup.Node
	zone models.Zone
}

// classify drops quotations and homograph superscripts, then assigns every
// remaining bold run to a zone. Runs in a forms section delimited by two
// part-of-speech markers are lax; runs inside a sense or subsense block-quote
// are strict; everything else is lax.
func classify(tree *markup.Tree) []boldRun {
	root := tree.Root
	for _, q := range root.FindAll(func(n *markup.Node) bool { return n.Is("div", "quotations") }) {
		q.Remove()
	}
	for _, sup := range root.FindAll(func(n *markup.Node) bool { return n.Tag == "sup" && n.Parent.Tag == "b" }) {
		sup.Remove()
	}

	var posBlocks []*markup.Node
	for _, span := range root.FindAll(func(n *markup.Node) bool { return n.Is("span", "pos") }) {
		if bq := span.Closest("blockquote"); bq != nil {
			posBlocks = append(posBlocks, bq)
		}
	}

	isBold := func(n *markup.Node) bool { return n.Tag == "b" }
	lax := map[*markup.Node]bool{}
	if len(posBlocks) > 0 && strings.Contains(strings.ToLower(posBlocks[0].Text()), "forms") {
		var end *markup.Node
		if len(posBlocks) > 1 {
			end = posBlocks[1]
		}
		for n := posBlocks[0].NextElementSibling(); n != nil && n != end; n = n.NextElementSibling() {
			for _, b := range n.FindAll(isBold) {
				lax[b] = true
			}
		}
	}

	strictBlocks := map[*markup.Node]bool{}
	for _, span := range root.FindAll(func(n *markup.Node) bool { return n.Is("span", "senses", "subsenses") }) {
		if bq := span.Closest("blockquote"); bq != nil {
			strictBlocks[bq] = true
		}
	}
	if len(lax) > 0 {
		delete(strictBlocks, posBlocks[0])
	}

	var runs []boldRun
	for _, b := range root.FindAll(isBold) {
		zone := models.ZoneLax
		if !lax[b] && insideAny(b, strictBlocks) {
			zone = models.ZoneStrict
		}
		runs = append(runs, boldRun{node: b, zone: zone})
	}
	return runs
}

func insideAny(n *markup.Node, blocks map[*markup.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if blocks[p] {
			return true
		}
	}
	return false
}
