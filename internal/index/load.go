package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/starford/oedify/internal/apperr"
	"github.com/starford/oedify/internal/checksum"
	"github.com/starford/oedify/internal/convert"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/parser"
)

// LoadResult describes one Load call.
type LoadResult struct {
	Checksum string
	Meta     []models.MetaField
	Report   *convert.Report // nil when skipped
	Skipped  bool            // the latest run already covers this checksum
}

// Load converts the source file into db:
//   - the file checksum is compared with the latest run and an unchanged
//     source is skipped unless force is set
//   - entries, metadata and the run record are replaced in one transaction,
//     so readers see either the previous dictionary or the new one
func Load(ctx context.Context, db *DB, conv *convert.Converter, sourcePath string, force bool, logger *slog.Logger) (*LoadResult, error) {
	sum, err := checksum.File(sourcePath)
	if err != nil {
		return nil, err
	}
	res := &LoadResult{Checksum: sum}

	if !force {
		last, err := db.coveringRun(sum)
		if err != nil {
			return nil, err
		}
		if last != nil {
			logger.Info("load: source unchanged", slog.String("path", sourcePath), slog.String("run", last.ID))
			res.Skipped = true
			return res, nil
		}
	}

	f, err := os.Open(sourcePath)
	if err != nil {
		return nil, fmt.Errorf("index: open source: %w", err)
	}
	src, err := parser.Read(f, conv.Filter())
	f.Close()
	if err != nil {
		return nil, err
	}
	res.Meta = src.Meta
	logger.Info("load: source read",
		slog.String("path", sourcePath),
		slog.Int("records", src.Total),
		slog.Int("kept", len(src.Lines)),
		slog.Int("blank", src.Blank),
		slog.Int("expected_entries", src.ExpectedEntries(conv.Filter() != nil)),
	)

	repl, err := db.BeginReplace()
	if err != nil {
		return nil, err
	}
	defer repl.Rollback() //nolint:errcheck // no-op after Commit

	rep, err := conv.Run(ctx, src.Lines, repl)
	if err != nil {
		return nil, err
	}
	if err := repl.SetMeta(src.Meta); err != nil {
		return nil, err
	}
	run := RunRow{
		ID:             rep.ID,
		SourceChecksum: sum,
		StartedAt:      rep.StartedAt,
		FinishedAt:     rep.FinishedAt,
		Entries:        repl.Count(),
		Faults:         len(rep.Faults),
		Metrics:        rep.Metrics,
	}
	if err := repl.RecordRun(run); err != nil {
		return nil, err
	}
	if err := repl.Commit(); err != nil {
		return nil, err
	}

	logger.Info("load: indexed", slog.String("run", rep.ID), slog.Int("entries", run.Entries))
	res.Report = rep
	return res, nil
}

// coveringRun returns the latest run when it was made from a source with
// checksum sum, or nil when the source changed or nothing was loaded yet.
func (db *DB) coveringRun(sum string) (*RunRow, error) {
	last, err := db.LatestRun()
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil, nil
	case err != nil:
		return nil, err
	case last.SourceChecksum != sum:
		return nil, nil
	}
	return last, nil
}
