// Package markup turns legacy dictionary markup into semantically classed
// markup. It holds the quirk resolver, the homograph splitter, the ordered
// normalization pipeline, and the headword-wrapping rules applied at the
// assembly boundary.
package markup

import (
	"fmt"
	"regexp"
	"strings"
)

// PhoneticMode selects how pronunciation runs are reclassed.
type PhoneticMode string

const (
	// PhoneticBlockquote reclasses a parenthesised pronunciation run only
	// when it is the sole content of a block-quote, dropping the wrapper.
	PhoneticBlockquote PhoneticMode = "blockquote"
	// PhoneticColor reclasses every run in the pronunciation colour.
	PhoneticColor PhoneticMode = "color"
)

// ParsePhoneticMode validates a configured mode name. Empty selects the
// block-quote scoped default.
func ParsePhoneticMode(s string) (PhoneticMode, error) {
	switch PhoneticMode(s) {
	case "", PhoneticBlockquote:
		return PhoneticBlockquote, nil
	case PhoneticColor:
		return PhoneticColor, nil
	}
	return "", fmt.Errorf("markup: unknown phonetic mode %q", s)
}

// Env is the per-entry context visible to every rule.
type Env struct {
	Headword string
	Phonetic PhoneticMode
}

// Rule is one rewrite of a stage. When is an optional precondition; a rule
// whose precondition fails leaves the markup untouched.
type Rule struct {
	Name  string
	When  func(src string, env Env) bool
	Apply func(src string, env Env) string
}

// Stage is a named, ordered group of rules.
type Stage struct {
	Name  string
	Rules []Rule
}

// Run applies the stage's rules in order.
func (st Stage) Run(src string, env Env) string {
	for _, r := range st.Rules {
		if r.When != nil && !r.When(src, env) {
			continue
		}
		src = r.Apply(src, env)
	}
	return src
}

// StageOutput is the markup as it stood after one stage.
type StageOutput struct {
	Stage  string
	Markup string
}

// Pipeline runs the normalization stages in their fixed order. It holds no
// per-entry state and is safe for concurrent use.
type Pipeline struct {
	stages   []Stage
	phonetic PhoneticMode
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithPhoneticMode selects the pronunciation reclassing variant.
func WithPhoneticMode(m PhoneticMode) Option {
	return func(p *Pipeline) {
		if m != "" {
			p.phonetic = m
		}
	}
}

// NewPipeline returns a pipeline over the standard stage registry.
func NewPipeline(opts ...Option) *Pipeline {
	p := &Pipeline{stages: Stages(), phonetic: PhoneticBlockquote}
	for _, o := range opts {
		o(p)
	}
	return p
}

var defaultPipeline = NewPipeline()

// Normalize runs the default pipeline over one logical entry.
func Normalize(slice, headword string) string {
	return defaultPipeline.Normalize(slice, headword)
}

// Normalize rewrites one homograph slice into classed markup.
func (p *Pipeline) Normalize(slice, headword string) string {
	env := Env{Headword: headword, Phonetic: p.phonetic}
	for _, st := range p.stages {
		slice = st.Run(slice, env)
	}
	return slice
}

// Trace is Normalize that also records the markup after every stage.
func (p *Pipeline) Trace(slice, headword string) []StageOutput {
	env := Env{Headword: headword, Phonetic: p.phonetic}
	out := make([]StageOutput, 0, len(p.stages))
	for _, st := range p.stages {
		slice = st.Run(slice, env)
		out = append(out, StageOutput{Stage: st.Name, Markup: slice})
	}
	return out
}

// StageNames lists the pipeline's stages in execution order.
func (p *Pipeline) StageNames() []string {
	names := make([]string, len(p.stages))
	for i, st := range p.stages {
		names[i] = st.Name
	}
	return names
}

// Stages returns the stage registry in execution order. Later stages key off
// classes and placeholders introduced by earlier ones, so the order is fixed.
func Stages() []Stage {
	return []Stage{
		preCleanStage(),
		headwordStage(),
		crossRefStage(),
		quotationStage(),
		dateStage(),
		citationStage(),
		etymologyStage(),
		formsStage(),
		markerStage(),
		blockRoleStage(),
		glyphStage(),
		backRefStage(),
		abbreviationStage(),
	}
}

// Rule constructors.

func replaceRule(name string, re *regexp.Regexp, tmpl string) Rule {
	return Rule{
		Name:  name,
		Apply: func(s string, _ Env) string { return re.ReplaceAllString(s, tmpl) },
	}
}

func literalRule(name, old, repl string) Rule {
	return Rule{
		Name:  name,
		When:  func(s string, _ Env) bool { return strings.Contains(s, old) },
		Apply: func(s string, _ Env) string { return strings.ReplaceAll(s, old, repl) },
	}
}

func funcRule(name string, fn func(string, Env) string) Rule {
	return Rule{Name: name, Apply: fn}
}

// replaceFirst expands tmpl for the leftmost match of re only.
func replaceFirst(re *regexp.Regexp, s, tmpl string) (string, bool) {
	m := re.FindStringSubmatchIndex(s)
	if m == nil {
		return s, false
	}
	var dst []byte
	dst = re.ExpandString(dst, tmpl, s, m)
	return s[:m[0]] + string(dst) + s[m[1]:], true
}

// literalTemplate escapes s for use inside a regexp replacement template.
func literalTemplate(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
