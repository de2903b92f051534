package parser

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/oedify/internal/apperr"
)

const sample = "##bookname\tOED 2nd ed.\n" +
	"##wordcount\t3\n" +
	"\n" +
	"cat\t<b>cat</b> a feline\n" +
	"  dog\t<b>dog</b> a canine  \n" +
	"broken line without tab\n"

func TestRead_MetadataAndRecords(t *testing.T) {
	src, err := Read(strings.NewReader(sample), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Meta) != 2 || src.Meta[0].Key != "bookname" || src.Meta[0].Value != "OED 2nd ed." {
		t.Errorf("meta = %+v", src.Meta)
	}
	if src.Blank != 1 {
		t.Errorf("blank = %d, want 1", src.Blank)
	}
	if src.Total != 3 || len(src.Lines) != 3 {
		t.Errorf("total = %d, lines = %d, want 3", src.Total, len(src.Lines))
	}
	if src.Lines[1] != "dog\t<b>dog</b> a canine" {
		t.Errorf("line not trimmed: %q", src.Lines[1])
	}
	if got := src.ExpectedEntries(false); got != 3 {
		t.Errorf("expected entries = %d, want 3", got)
	}
}

func TestRead_Filter(t *testing.T) {
	src, err := Read(strings.NewReader(sample), func(hw string) bool { return hw == "dog" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Lines) != 1 || !strings.HasPrefix(src.Lines[0], "dog\t") {
		t.Errorf("lines = %q", src.Lines)
	}
	if src.Total != 3 {
		t.Errorf("total = %d, want 3", src.Total)
	}
	if got := src.ExpectedEntries(true); got != 1 {
		t.Errorf("expected entries = %d, want 1", got)
	}
}

func TestRead_LongLine(t *testing.T) {
	long := "big\t" + strings.Repeat("x", 2*1024*1024)
	src, err := Read(strings.NewReader(long+"\n"), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(src.Lines) != 1 || len(src.Lines[0]) != len(long) {
		t.Errorf("long line truncated")
	}
}

func TestParseRecord(t *testing.T) {
	rec, err := ParseRecord("cat\t<b>cat</b>\tmore")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Headword != "cat" || rec.Markup != "<b>cat</b>\tmore" {
		t.Errorf("record = %+v", rec)
	}

	_, err = ParseRecord("no tab here")
	if !errors.Is(err, apperr.ErrMalformedRecord) {
		t.Errorf("err = %v, want ErrMalformedRecord", err)
	}
}

func TestParseMeta(t *testing.T) {
	f, ok := ParseMeta("## author \t Someone ")
	if !ok || f.Key != "author" || f.Value != "Someone" {
		t.Errorf("meta = %+v, %v", f, ok)
	}
	if _, ok := ParseMeta("##notab"); ok {
		t.Error("expected no field without tab")
	}
}
