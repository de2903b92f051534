package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/oedify/internal/checksum"
	"github.com/starford/oedify/internal/convert"
)

const reloadDebounce = 500 * time.Millisecond

// Reload event kinds passed to an EventCallback.
const (
	EventStarted  = "convert.started"
	EventFinished = "convert.finished"
	EventFailed   = "convert.failed"
)

// EventCallback is called around a watcher-driven reload. Every
// EventStarted is followed by exactly one EventFinished or EventFailed;
// run is set only on EventFinished.
type EventCallback func(kind, run, source string)

// Watch starts an fsnotify watcher on the source file's directory and
// reloads db whenever the file is written, created or renamed into place,
// until ctx is cancelled. Bursts of events are debounced into one reload,
// and a source whose checksum matches the latest run is skipped without
// events. The directory is watched so a file replaced by rename stays
// observed.
func Watch(ctx context.Context, db *DB, conv *convert.Converter, sourcePath string, logger *slog.Logger, cb EventCallback) error {
	abs, err := filepath.Abs(sourcePath)
	if err != nil {
		return err
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("source", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(reloadDebounce)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(reloadDebounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reloadCh:
			reload(ctx, db, conv, abs, logger, cb)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

func reload(ctx context.Context, db *DB, conv *convert.Converter, source string, logger *slog.Logger, cb EventCallback) {
	notify := func(kind, run string) {
		if cb != nil {
			cb(kind, run, source)
		}
	}

	sum, err := checksum.File(source)
	if err != nil {
		logger.Warn("watcher: checksum failed", slog.String("source", source), slog.String("error", err.Error()))
		return
	}
	last, err := db.coveringRun(sum)
	if err != nil {
		logger.Warn("watcher: latest run", slog.String("source", source), slog.String("error", err.Error()))
		return
	}
	if last != nil {
		logger.Debug("watcher: source unchanged", slog.String("source", source), slog.String("run", last.ID))
		return
	}

	notify(EventStarted, "")
	res, err := Load(ctx, db, conv, source, true, logger)
	if err != nil {
		logger.Warn("watcher: reload failed", slog.String("source", source), slog.String("error", err.Error()))
		notify(EventFailed, "")
		return
	}
	logger.Debug("watcher: reloaded", slog.String("source", source), slog.String("run", res.Report.ID))
	notify(EventFinished, res.Report.ID)
}
