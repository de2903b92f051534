package markup

import "testing"

func TestWrapHeadword_SplitInsertsAfterMarker(t *testing.T) {
	got := WrapHeadword(`<b><sup>I</sup></b> text`, "bank", true)
	want := `<b><sup>I</sup></b> <span class="headword"><b>bank</b></span> text`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapHeadword_SplitAlreadyRestated(t *testing.T) {
	in := `<b><sup>II</sup></b> <span class="headword"><b>bank</b></span> x`
	if got := WrapHeadword(in, "bank", true); got != in {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestWrapHeadword_PrependsSpan(t *testing.T) {
	in := `<div class="etymology"><blockquote>[x]</blockquote></div>`
	if got := WrapHeadword(in, "cat", false); got != HeadwordSpan("cat")+in {
		t.Errorf("got %q", got)
	}
}

func TestWrapHeadword_WrapsLeadingBold(t *testing.T) {
	got := WrapHeadword(`<b>cat</b> n.`, "cat", false)
	if want := `<span class="headword"><b>cat</b></span> n.`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestWrapHeadword_SpaceBeforeGluedText(t *testing.T) {
	got := WrapHeadword(`n. a thing`, "gen", false)
	if want := `<span class="headword"><b>gen</b></span> n. a thing`; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
