package convert

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/markup"
	"github.com/starford/oedify/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestProcessLine_Plain(t *testing.T) {
	c := New(Options{}, testLogger())
	out, err := c.ProcessLine("cat\tplain text with nothing to rewrite")
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if len(out.Entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(out.Entries))
	}
	want := `<span class="headword"><b>cat</b></span> plain text with nothing to rewrite`
	if got := out.Entries[0].Definition; got != want {
		t.Errorf("definition = %q, want %q", got, want)
	}
	if out.Metrics != (models.Metrics{SourceEntries: 1, FinalEntries: 1}) {
		t.Errorf("metrics = %+v", out.Metrics)
	}
}

func TestProcessLine_Homographs(t *testing.T) {
	c := New(Options{}, testLogger())
	line := "bank\t" + markup.HomographMarker(1) + "<b>bank</b> one" + markup.HomographMarker(2) + "<b>bank</b> two"
	out, err := c.ProcessLine(line)
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(out.Entries))
	}
	want := []string{
		`<b><sup>I</sup></b> <span class="headword"><b>bank</b></span> one`,
		`<b><sup>II</sup></b> <span class="headword"><b>bank</b></span> two`,
	}
	for i, e := range out.Entries {
		if e.Definition != want[i] || e.HomographIndex != i+1 {
			t.Errorf("entry %d = %+v", i, e)
		}
	}
	if out.Metrics.SplitEntries != 1 || out.Metrics.FinalEntries != 2 {
		t.Errorf("metrics = %+v", out.Metrics)
	}
}

func TestProcessLine_DottedHeadword(t *testing.T) {
	c := New(Options{}, testLogger())
	out, err := c.ProcessLine(`adj.` + "\t" + `<i>adjective</i>\n<i>adjective</i>`)
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	e := out.Entries[0]
	if e.Definition != `<span class="headword"><b>adj.</b></span><br/><i>adjective</i>` {
		t.Errorf("definition = %q", e.Definition)
	}
	if !reflect.DeepEqual(e.Words(), []string{"adj.", "adj"}) {
		t.Errorf("words = %v", e.Words())
	}
	if out.Metrics.DottedWords != 1 || out.Metrics.DotCorrected != 1 {
		t.Errorf("metrics = %+v", out.Metrics)
	}
}

func TestProcessLine_Synonyms(t *testing.T) {
	line := "cat\t<b>cat</b> a feline; also <b>cat flap</b>"

	out, _ := New(Options{}, testLogger()).ProcessLine(line)
	if out.Entries[0].Synonyms != nil {
		t.Errorf("synonyms without AddSynonyms = %v", out.Entries[0].Synonyms)
	}

	out, err := New(Options{AddSynonyms: true}, testLogger()).ProcessLine(line)
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if !reflect.DeepEqual(out.Entries[0].Words(), []string{"cat", "cat flap"}) {
		t.Errorf("words = %v", out.Entries[0].Words())
	}
	if out.Metrics.SynonymsAdded != 1 {
		t.Errorf("synonyms added = %d", out.Metrics.SynonymsAdded)
	}
}

func TestProcessLine_Malformed(t *testing.T) {
	out, err := New(Options{}, testLogger()).ProcessLine("no tab at all")
	if !errors.Is(err, apperr.ErrMalformedRecord) {
		t.Fatalf("err = %v, want ErrMalformedRecord", err)
	}
	if out.Metrics.MalformedLines != 1 || len(out.Entries) != 0 {
		t.Errorf("outcome = %+v", out)
	}
}

type recordingSink struct {
	batches [][]models.Entry
	err     error
}

func (s *recordingSink) Put(_ context.Context, batch []models.Entry) error {
	s.batches = append(s.batches, append([]models.Entry(nil), batch...))
	return s.err
}

func TestRun_OrderMetricsAndBatches(t *testing.T) {
	var lines []string
	for _, hw := range []string{"ant", "bee", "cow", "dog", "eel"} {
		lines = append(lines, hw+"\tplain text")
	}
	lines = append(lines, "broken", "ant\tplain again")

	sink := &recordingSink{}
	c := New(Options{Workers: 4, BatchSize: 2}, testLogger())
	rep, err := c.Run(context.Background(), lines, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	var got []string
	for _, e := range rep.Entries {
		got = append(got, e.Headword)
	}
	if want := []string{"ant", "bee", "cow", "dog", "eel", "ant"}; !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
	if rep.Metrics.SourceEntries != 6 || rep.Metrics.MalformedLines != 1 || rep.Metrics.FinalEntries != 6 {
		t.Errorf("metrics = %+v", rep.Metrics)
	}
	if rep.UniqueHeadwords != 5 {
		t.Errorf("unique headwords = %d, want 5", rep.UniqueHeadwords)
	}
	if len(rep.Faults) != 0 {
		t.Errorf("faults = %+v", rep.Faults)
	}
	if len(sink.batches) != 3 || len(sink.batches[2]) != 2 {
		t.Errorf("batches = %d", len(sink.batches))
	}
	if rep.ID == "" || rep.Duration() < 0 {
		t.Errorf("report id/duration not set: %+v", rep)
	}
}

func TestProcessLine_HomographsWithTerminalMark(t *testing.T) {
	c := New(Options{}, testLogger())
	line := "gyre†\t" + markup.HomographMarker(1) + "<b>gyre†</b> a ring" + markup.HomographMarker(2) + "<b>gyre†</b> to turn"
	out, err := c.ProcessLine(line)
	if err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(out.Entries))
	}
	for i, e := range out.Entries {
		if e.HomographIndex != i+1 {
			t.Errorf("entry %d homograph = %d", i, e.HomographIndex)
		}
		if words := e.Words(); !reflect.DeepEqual(words, []string{"gyre†", "gyre"}) {
			t.Errorf("entry %d words = %v, want [gyre† gyre]", i, words)
		}
	}
	want := models.Metrics{SourceEntries: 1, SplitEntries: 1, DottedWords: 1, FinalEntries: 2}
	if out.Metrics != want {
		t.Errorf("metrics = %+v, want %+v", out.Metrics, want)
	}
}

func TestProcessLine_PanicRecovered(t *testing.T) {
	c := New(Options{}, testLogger())
	c.pipeline = nil

	out, err := c.ProcessLine("cat\tplain text")
	if err == nil || !strings.Contains(err.Error(), "convert: panic") {
		t.Fatalf("err = %v, want recovered panic", err)
	}
	if errors.Is(err, apperr.ErrMalformedRecord) {
		t.Error("panic reported as malformed record")
	}
	if len(out.Entries) != 0 || out.Metrics != (models.Metrics{}) {
		t.Errorf("outcome = %+v, want empty", out)
	}
}

func TestRun_FaultsCollected(t *testing.T) {
	c := New(Options{Workers: 2}, testLogger())
	c.pipeline = nil

	long := "dog\t" + strings.Repeat("x", 300)
	sink := &recordingSink{}
	rep, err := c.Run(context.Background(), []string{"cat\tplain", "broken", long}, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(rep.Faults) != 2 {
		t.Fatalf("faults = %d, want 2", len(rep.Faults))
	}
	if rep.Faults[0].Line != "cat\tplain" {
		t.Errorf("first fault line = %q", rep.Faults[0].Line)
	}
	if got := []rune(rep.Faults[1].Line); len(got) != faultLineRunes+1 || got[len(got)-1] != '…' {
		t.Errorf("long fault line not truncated: %d runes", len(got))
	}
	for _, f := range rep.Faults {
		if f.Err == nil || !strings.Contains(f.Err.Error(), "panic") {
			t.Errorf("fault err = %v", f.Err)
		}
	}
	if rep.Metrics.MalformedLines != 1 || rep.Metrics.FinalEntries != 0 || len(rep.Entries) != 0 {
		t.Errorf("metrics = %+v, entries = %d", rep.Metrics, len(rep.Entries))
	}
	if len(sink.batches) != 0 {
		t.Errorf("batches = %d, want none", len(sink.batches))
	}
}

func TestRun_SinkErrorAborts(t *testing.T) {
	sink := &recordingSink{err: errors.New("disk full")}
	_, err := New(Options{}, testLogger()).Run(context.Background(), []string{"cat\tx"}, sink)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("err = %v, want sink error", err)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New(Options{}, testLogger()).Run(ctx, []string{"cat\tx"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWorkersAndFilter(t *testing.T) {
	if n := New(Options{Workers: 1000}, testLogger()).Workers(); n != maxWorkers {
		t.Errorf("workers = %d, want %d", n, maxWorkers)
	}
	if n := New(Options{Workers: 3}, testLogger()).Workers(); n != 3 {
		t.Errorf("workers = %d, want 3", n)
	}
	if New(Options{}, testLogger()).Filter() != nil {
		t.Error("filter without debug words should be nil")
	}

	c := New(Options{Workers: 8, DebugWords: []string{"cat"}}, testLogger())
	if c.Workers() != 1 {
		t.Errorf("debug workers = %d, want 1", c.Workers())
	}
	f := c.Filter()
	if !f("cat") || f("dog") {
		t.Error("filter does not follow debug words")
	}
}

func TestOptionsKeepsConfiguration(t *testing.T) {
	in := Options{AddSynonyms: true, Phonetic: markup.PhoneticColor}
	got := New(in, testLogger()).Options()
	if !got.AddSynonyms || got.Phonetic != markup.PhoneticColor {
		t.Errorf("options = %+v", got)
	}
	if got.BatchSize != defaultBatchSize {
		t.Errorf("batch size = %d, want default %d", got.BatchSize, defaultBatchSize)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("ééé", 5); got != "ééé" {
		t.Errorf("short = %q", got)
	}
	if got := truncate("ééééé", 2); got != "éé…" {
		t.Errorf("long = %q", got)
	}
}
