// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/oedify/internal/api"
	"github.com/starford/oedify/internal/convert"
	"github.com/starford/oedify/internal/entryservice"
	"github.com/starford/oedify/internal/index"
	"github.com/starford/oedify/internal/mcpserver"
	"github.com/starford/oedify/internal/models"
	"github.com/starford/oedify/internal/parser"
	"github.com/starford/oedify/internal/sse"
	"github.com/starford/oedify/internal/storage"
)

func newApplication(opts []Option) (*application, error) {
	app := &application{version: "dev", logOut: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// logger builds the structured JSON logger and installs it as the default.
func (a *application) logger() *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(a.logOut, &slog.HandlerOptions{
		Level: a.config.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func (a *application) converter(logger *slog.Logger) (*convert.Converter, error) {
	opts, err := a.config.Convert.Options()
	if err != nil {
		return nil, fmt.Errorf("convert options: %w", err)
	}
	return convert.New(opts, logger), nil
}

// Convert runs one conversion of the source file and exports the tabfile.
// When an index is configured the run is also loaded into it.
func Convert(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("source_path", cfg.Source.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("add_synonyms", cfg.Convert.AddSynonyms),
		slog.Any("debug_words", cfg.Convert.DebugWords),
		slog.String("log_level", cfg.App.LogLevel.String()))

	conv, err := app.converter(logger)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	var (
		meta []models.MetaField
		rep  *convert.Report
	)
	if cfg.SQLite.Enabled() {
		db, err := index.Open(cfg.SQLite.Path)
		if err != nil {
			return fmt.Errorf("init index: %w", err)
		}
		defer db.Close()

		res, err := index.Load(ctx, db, conv, cfg.Source.Path, true, logger)
		if err != nil {
			return fmt.Errorf("load: %w", err)
		}
		meta, rep = res.Meta, res.Report
	} else {
		meta, rep, err = convertFile(ctx, conv, cfg.Source.Path)
		if err != nil {
			return err
		}
	}

	var css []byte
	if cfg.Output.Stylesheet != "" {
		css, err = os.ReadFile(cfg.Output.Stylesheet)
		if err != nil {
			return fmt.Errorf("read stylesheet: %w", err)
		}
	}
	written, err := convert.Export(store, convert.ExportOptions{Name: cfg.Output.Name, Stylesheet: css}, meta, rep.Entries)
	if err != nil {
		return err
	}

	logger.Info("Conversion complete",
		slog.String("run", rep.ID),
		slog.Int("entries", len(rep.Entries)),
		slog.Int("unique_headwords", rep.UniqueHeadwords),
		slog.Int("faults", len(rep.Faults)),
		slog.Any("written", written),
		slog.Duration("duration", rep.Duration()))
	return nil
}

func convertFile(ctx context.Context, conv *convert.Converter, path string) ([]models.MetaField, *convert.Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open source: %w", err)
	}
	defer f.Close()

	src, err := parser.Read(f, conv.Filter())
	if err != nil {
		return nil, nil, err
	}
	rep, err := conv.Run(ctx, src.Lines, nil)
	if err != nil {
		return nil, nil, err
	}
	return src.Meta, rep, nil
}

// Run starts the HTTP server over the converted dictionary.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("source_path", cfg.Source.Path),
		slog.String("output_dir", cfg.Output.Dir),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	if !cfg.SQLite.Enabled() {
		return fmt.Errorf("serve: sqlite.path is required")
	}

	conv, err := app.converter(logger)
	if err != nil {
		return err
	}

	store, err := storage.NewFS(cfg.Output.Dir)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	// Initial load; an unchanged source is skipped.
	if _, err := index.Load(ctx, db, conv, cfg.Source.Path, false, logger); err != nil {
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	svc := entryservice.NewService(db, conv.Options())
	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker, store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := db.EntryCount(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Reconvert on source changes and notify SSE clients.
	g.Go(func() error {
		return index.Watch(gCtx, db, conv, cfg.Source.Path, logger, broker.PublishRunEvent)
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP serves the dictionary tools over stdio. Logs go to the configured
// log output, which must not be stdout.
func RunMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(append([]Option{WithLogOutput(os.Stderr)}, opts...))
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger()

	if !cfg.SQLite.Enabled() {
		return fmt.Errorf("mcp: sqlite.path is required")
	}

	conv, err := app.converter(logger)
	if err != nil {
		return err
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	if _, err := index.Load(ctx, db, conv, cfg.Source.Path, false, logger); err != nil {
		logger.Warn("initial load failed", slog.String("error", err.Error()))
	}

	srv := mcpserver.New(entryservice.NewService(db, conv.Options()), app.version)
	logger.Info("MCP server starting on stdio")
	return srv.ServeStdio()
}
