package markup

import (
	"strings"
	"testing"
)

func TestSplitHomographs_NoMarker(t *testing.T) {
	in := "<b>cat</b> a feline"
	parts := SplitHomographs(in)
	if len(parts) != 1 || parts[0] != in {
		t.Errorf("parts = %q, want whole input", parts)
	}
}

func TestSplitHomographs_MarkerStaysAttached(t *testing.T) {
	in := "  " + HomographMarker(1) + "<b>bank</b> one" + HomographMarker(2) + "<b>bank</b> two" + HomographMarker(3) + "three"
	parts := SplitHomographs(in)
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3", len(parts))
	}
	for i, p := range parts {
		if !strings.HasPrefix(p, HomographMarker(i+1)) {
			t.Errorf("part %d = %q, want marker prefix", i, p)
		}
	}
	if strings.Join(parts, "") != strings.TrimLeft(in, " ") {
		t.Error("slices do not cover the input")
	}
}

func TestSplitHomographs_KeepsPreamble(t *testing.T) {
	parts := SplitHomographs("lead" + HomographMarker(1) + "x")
	if len(parts) != 2 || parts[0] != "lead" {
		t.Errorf("parts = %q", parts)
	}
}

func TestSplit_Numbering(t *testing.T) {
	res := ResolveQuirks("bank", HomographMarker(1)+"one"+HomographMarker(2)+"two")
	entries := Split(res)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	for i, e := range entries {
		if e.HomographIndex != i+1 || e.Headword != "bank" {
			t.Errorf("entry %d = %+v", i, e)
		}
	}

	single := Split(ResolveQuirks("cat", "a feline"))
	if len(single) != 1 || single[0].HomographIndex != 0 {
		t.Errorf("single = %+v", single)
	}
}
