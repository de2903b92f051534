// Package convert turns source records into final dictionary entries: it
// runs quirk resolution, homograph splitting, normalization, headword
// wrapping and synonym extraction per line, and fans lines out to a bounded
// pool of workers.
package convert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/markup"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/parser"
	"github.com/starford/oedify/internal/synonym"
)

const (
	maxWorkers       = 64
	defaultBatchSize = 500
	faultLineRunes   = 100
)

// Options configures a Converter.
type Options struct {
	Workers     int // <= 0 selects NumCPU-1
	AddSynonyms bool
	DebugWords  []string
	Phonetic    markup.PhoneticMode
	WatchList   []string // headwords checked for duplicated definitions; nil selects the default
	BatchSize   int      // entries per Sink.Put call
}

// Converter processes source lines. It is safe for concurrent use.
type Converter struct {
	opts     Options
	pipeline *markup.Pipeline
	quirks   *markup.QuirkResolver
	debug    map[string]struct{}
	logger   *slog.Logger
}

// New creates a Converter.
func New(opts Options, logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	watch := opts.WatchList
	if watch == nil {
		watch = markup.DefaultWatchList
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	debug := make(map[string]struct{}, len(opts.DebugWords))
	for _, w := range opts.DebugWords {
		debug[w] = struct{}{}
	}
	return &Converter{
		opts:     opts,
		pipeline: markup.NewPipeline(markup.WithPhoneticMode(opts.Phonetic)),
		quirks:   markup.NewQuirkResolver(watch),
		debug:    debug,
		logger:   logger,
	}
}

// Options returns the options c was built with, defaults applied.
func (c *Converter) Options() Options { return c.opts }

// Workers is the effective worker count. Debug runs use a single worker so
// their stage traces are not interleaved.
func (c *Converter) Workers() int {
	if len(c.debug) > 0 {
		return 1
	}
	n := c.opts.Workers
	if n <= 0 {
		n = runtime.NumCPU() - 1
	}
	return min(max(n, 1), maxWorkers)
}

// Filter returns the headword filter for parser.Read: nil unless debug
// words are configured.
func (c *Converter) Filter() func(string) bool {
	if len(c.debug) == 0 {
		return nil
	}
	return func(hw string) bool {
		_, ok := c.debug[hw]
		return ok
	}
}

// Outcome is the result of processing one source line.
type Outcome struct {
	Entries []models.Entry
	Metrics models.Metrics
}

// ProcessLine converts one record line. A line without a TAB yields an
// error wrapping apperr.ErrMalformedRecord; a panic in any stage is
// recovered and returned as an error.
func (c *Converter) ProcessLine(line string) (out Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{}
			err = fmt.Errorf("convert: panic: %v", r)
		}
	}()

	rec, err := parser.ParseRecord(line)
	if err != nil {
		return Outcome{Metrics: models.Metrics{MalformedLines: 1}}, err
	}

	res := c.quirks.Resolve(rec.Headword, rec.Markup)
	m := models.Metrics{SourceEntries: 1}
	if res.Flags.Dotted {
		m.DottedWords = 1
	}
	if res.Flags.DotCorrected {
		m.DotCorrected = 1
	}
	if res.Flags.SyntheticSplit {
		m.SyntheticSplits = 1
	}

	parts := markup.Split(res)
	split := parts[0].HomographIndex > 0
	if split {
		m.SplitEntries = 1
	}

	_, debug := c.debug[rec.Headword]
	for _, part := range parts {
		def := c.normalize(part, debug)
		def = markup.WrapHeadword(def, res.Headword, split)
		m.UnrecognizedGlyphs += len(markup.UnrecognizedGlyphs(def))

		e := models.Entry{
			Headword:       res.Headword,
			Alternates:     res.Alternates,
			Definition:     def,
			HomographIndex: part.HomographIndex,
		}
		if c.opts.AddSynonyms {
			e.Synonyms = synonym.Extract(res.Headword, def)
			m.SynonymsAdded += len(e.Synonyms)
			if debug {
				c.logger.Info("synonyms",
					slog.String("headword", res.Headword),
					slog.Int("homograph", part.HomographIndex),
					slog.Any("synonyms", e.Synonyms),
				)
			}
		}
		out.Entries = append(out.Entries, e)
	}
	m.FinalEntries = len(out.Entries)
	out.Metrics = m
	return out, nil
}

func (c *Converter) normalize(part models.LogicalEntry, debug bool) string {
	if !debug {
		return c.pipeline.Normalize(part.Markup, part.Headword)
	}
	def := part.Markup
	for _, st := range c.pipeline.Trace(part.Markup, part.Headword) {
		c.logger.Debug("stage",
			slog.String("headword", part.Headword),
			slog.Int("homograph", part.HomographIndex),
			slog.String("stage", st.Stage),
			slog.String("markup", st.Markup),
		)
		def = st.Markup
	}
	return def
}

// Fault is a line that could not be processed.
type Fault struct {
	Line string // truncated
	Err  error
}

// Report summarizes a conversion run.
type Report struct {
	ID              string
	Entries         []models.Entry
	Metrics         models.Metrics
	Faults          []Fault
	UniqueHeadwords int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Duration is the wall-clock time of the run.
func (r *Report) Duration() time.Duration { return r.FinishedAt.Sub(r.StartedAt) }

// Sink receives converted entries in input order, in batches.
type Sink interface {
	Put(ctx context.Context, batch []models.Entry) error
}

// Run converts lines with Workers goroutines. Entries keep input order.
// Malformed lines and faults are counted, never fatal; only context
// cancellation and Sink errors abort the run. sink may be nil.
func (c *Converter) Run(ctx context.Context, lines []string, sink Sink) (*Report, error) {
	rep := &Report{
		ID:        ulid.Make().String(),
		StartedAt: time.Now(),
	}
	c.logger.Info("convert: started",
		slog.String("run", rep.ID),
		slog.Int("lines", len(lines)),
		slog.Int("workers", c.Workers()),
	)

	outcomes := make([]Outcome, len(lines))
	errs := make([]error, len(lines))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.Workers())
	for i, line := range lines {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i], errs[i] = c.ProcessLine(line)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("convert: %w", err)
	}

	headwords := map[string]struct{}{}
	for i, o := range outcomes {
		rep.Metrics.Add(o.Metrics)
		if err := errs[i]; err != nil && !errors.Is(err, apperr.ErrMalformedRecord) {
			f := Fault{Line: truncate(lines[i], faultLineRunes), Err: err}
			rep.Faults = append(rep.Faults, f)
			c.logger.Warn("convert: line failed",
				slog.String("line", f.Line),
				slog.String("error", err.Error()),
			)
			continue
		}
		for _, e := range o.Entries {
			headwords[e.Headword] = struct{}{}
		}
		rep.Entries = append(rep.Entries, o.Entries...)
	}
	rep.UniqueHeadwords = len(headwords)

	if sink != nil {
		for start := 0; start < len(rep.Entries); start += c.opts.BatchSize {
			end := min(start+c.opts.BatchSize, len(rep.Entries))
			if err := sink.Put(ctx, rep.Entries[start:end]); err != nil {
				return nil, fmt.Errorf("convert: sink: %w", err)
			}
		}
	}

	rep.FinishedAt = time.Now()
	c.logger.Info("convert: finished",
		slog.String("run", rep.ID),
		slog.Int("source_entries", rep.Metrics.SourceEntries),
		slog.Int("split_entries", rep.Metrics.SplitEntries),
		slog.Int("final_entries", rep.Metrics.FinalEntries),
		slog.Int("unique_headwords", rep.UniqueHeadwords),
		slog.Int("dotted_words", rep.Metrics.DottedWords),
		slog.Int("dot_corrected", rep.Metrics.DotCorrected),
		slog.Int("synthetic_splits", rep.Metrics.SyntheticSplits),
		slog.Int("synonyms_added", rep.Metrics.SynonymsAdded),
		slog.Int("unrecognized_glyphs", rep.Metrics.UnrecognizedGlyphs),
		slog.Int("malformed_lines", rep.Metrics.MalformedLines),
		slog.Int("faults", len(rep.Faults)),
		slog.Duration("duration", rep.Duration()),
	)
	return rep, nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}
