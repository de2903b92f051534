package markup

import (
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// Node is an element or text node of a markup Tree. Offsets refer to the
// source string the tree was built from, so edits can be spliced back into
// the original markup without re-serialising it.
type Node struct {
	Tag      string // lower-case element name; empty for text nodes
	Attrs    []html.Attribute
	Data     string // unescaped text for text nodes
	Start    int    // offset of the opening tag (or text)
	TagEnd   int    // offset just past the opening tag
	End      int    // offset just past the closing tag (or text)
	Parent   *Node
	Children []*Node

	removed bool
}

// Tree is a light element tree over classed markup. Unlike html.Parse it
// applies no HTML5 error recovery: elements nest exactly as their tags do and
// stray end tags are ignored.
type Tree struct {
	Root *Node
	src  string
}

var voidElements = map[string]struct{}{
	"area": {}, "base": {}, "br": {}, "col": {}, "embed": {}, "hr": {}, "img": {},
	"input": {}, "link": {}, "meta": {}, "param": {}, "source": {}, "track": {}, "wbr": {},
}

// ParseTree tokenizes s and builds its element tree.
func ParseTree(s string) *Tree {
	root := &Node{Tag: "#root", End: len(s)}
	stack := []*Node{root}
	z := html.NewTokenizer(strings.NewReader(s))
	offset := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		size := len(z.Raw())
		start := offset
		offset += size
		top := stack[len(stack)-1]

		switch tt {
		case html.TextToken:
			tok := z.Token()
			top.Children = append(top.Children, &Node{Data: tok.Data, Start: start, TagEnd: offset, End: offset, Parent: top})

		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			n := &Node{Tag: tok.Data, Attrs: tok.Attr, Start: start, TagEnd: offset, End: offset, Parent: top}
			top.Children = append(top.Children, n)
			if _, void := voidElements[n.Tag]; tt == html.StartTagToken && !void {
				stack = append(stack, n)
			}

		case html.EndTagToken:
			tok := z.Token()
			for i := len(stack) - 1; i > 0; i-- {
				if stack[i].Tag != tok.Data {
					continue
				}
				for j := len(stack) - 1; j > i; j-- {
					stack[j].End = start
				}
				stack[i].End = offset
				stack = stack[:i]
				break
			}
		}
	}

	for j := len(stack) - 1; j > 0; j-- {
		stack[j].End = len(s)
	}
	return &Tree{Root: root, src: s}
}

// Raw returns the source text covered by n.
func (t *Tree) Raw(n *Node) string { return t.src[n.Start:n.End] }

// IsElement reports whether n is an element node.
func (n *Node) IsElement() bool { return n.Tag != "" }

// Attr returns the value of attribute key, or "".
func (n *Node) Attr(key string) string {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// HasAttr reports whether attribute key is present.
func (n *Node) HasAttr(key string) bool {
	for _, a := range n.Attrs {
		if a.Key == key {
			return true
		}
	}
	return false
}

// HasClass reports whether n carries any of the given classes.
func (n *Node) HasClass(classes ...string) bool {
	for _, c := range strings.Fields(n.Attr("class")) {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

// Is reports whether n is a tag element carrying one of classes. With no
// classes only the tag is compared.
func (n *Node) Is(tag string, classes ...string) bool {
	if n.Tag != tag {
		return false
	}
	return len(classes) == 0 || n.HasClass(classes...)
}

// Remove detaches n from every query and from Text.
func (n *Node) Remove() { n.removed = true }

// Removed reports whether n or one of its ancestors was removed.
func (n *Node) Removed() bool {
	for p := n; p != nil; p = p.Parent {
		if p.removed {
			return true
		}
	}
	return false
}

// FindAll returns the live descendants of n (n excluded) matching pred, in
// document order.
func (n *Node) FindAll(pred func(*Node) bool) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(p *Node) {
		for _, c := range p.Children {
			if c.removed {
				continue
			}
			if c.IsElement() && pred(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	if !n.removed {
		walk(n)
	}
	return out
}

// Closest returns the nearest ancestor of n (n excluded) with the given tag.
func (n *Node) Closest(tag string) *Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Tag == tag {
			return p
		}
	}
	return nil
}

// InsideClass reports whether an ancestor of n is a tag element carrying class.
func (n *Node) InsideClass(tag, class string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is(tag, class) {
			return true
		}
	}
	return false
}

// NextElementSibling returns the next live element sibling of n.
func (n *Node) NextElementSibling() *Node {
	if n.Parent == nil {
		return nil
	}
	sibs := n.Parent.Children
	for i, c := range sibs {
		if c != n {
			continue
		}
		for _, s := range sibs[i+1:] {
			if s.IsElement() && !s.removed {
				return s
			}
		}
		return nil
	}
	return nil
}

// Text concatenates the live text below n.
func (n *Node) Text() string {
	var b strings.Builder
	var walk func(*Node)
	walk = func(p *Node) {
		if p.removed {
			return
		}
		if !p.IsElement() {
			b.WriteString(p.Data)
			return
		}
		for _, c := range p.Children {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// Inner returns the source between n's opening and closing tags.
func (t *Tree) Inner(n *Node) string {
	end := n.End
	if closing := "</" + n.Tag + ">"; strings.HasSuffix(t.src[n.TagEnd:end], closing) {
		end -= len(closing)
	}
	return t.src[n.TagEnd:end]
}

// Edits collects non-overlapping rewrites against a tree's source.
type Edits struct {
	ops []edit
}

type edit struct {
	start, end int
	seq        int
	text       string
}

// Insert schedules text to be inserted at byte offset pos.
func (e *Edits) Insert(pos int, text string) {
	e.Replace(pos, pos, text)
}

// Replace schedules src[start:end] to be replaced by text.
func (e *Edits) Replace(start, end int, text string) {
	e.ops = append(e.ops, edit{start: start, end: end, seq: len(e.ops), text: text})
}

// ReplaceOpenTag schedules n's opening tag to be replaced by tag.
func (e *Edits) ReplaceOpenTag(n *Node, tag string) {
	e.Replace(n.Start, n.TagEnd, tag)
}

// Wrap schedules n to be enclosed in open and close.
func (e *Edits) Wrap(n *Node, open, close string) {
	e.Insert(n.Start, open)
	e.Insert(n.End, close)
}

// Apply returns src with every edit applied. At one offset insertions go
// before replacements, each in scheduling order.
func (e *Edits) Apply(src string) string {
	if len(e.ops) == 0 {
		return src
	}
	ops := append([]edit(nil), e.ops...)
	sort.SliceStable(ops, func(i, j int) bool {
		if ops[i].start != ops[j].start {
			return ops[i].start < ops[j].start
		}
		if ii, ij := ops[i].start == ops[i].end, ops[j].start == ops[j].end; ii != ij {
			return ii
		}
		return ops[i].seq < ops[j].seq
	})
	var b strings.Builder
	b.Grow(len(src) + 64*len(ops))
	last := 0
	for _, op := range ops {
		if op.start < last {
			continue
		}
		b.WriteString(src[last:op.start])
		b.WriteString(op.text)
		last = op.end
	}
	b.WriteString(src[last:])
	return b.String()
}
