// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/questlog/internal/api"
	"github.com/starford/questlog/internal/journal"
	"github.com/starford/questlog/internal/mcpserver"
	"github.com/starford/questlog/internal/questservice"
	"github.com/starford/questlog/internal/selfwrite"
	"github.com/starford/questlog/internal/sse"
	"github.com/starford/questlog/internal/store"
	"github.com/starford/questlog/internal/watcher"
)

// core is the part of the application shared by every command.
type core struct {
	logger  *slog.Logger
	db      *store.DB
	svc     *questservice.Service
	watcher *watcher.Session
	closers []io.Closer
}

func (c *core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i].Close()
	}
}

func newApplication(opts []Option) (*application, error) {
	app := &application{logOutput: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

// newLogger builds the JSON logger. With a log file configured, records go to
// both the console stream and a rotating file, which is returned for closing.
func newLogger(app *application) (*slog.Logger, *lumberjack.Logger) {
	cfg := app.config.App
	out := app.logOutput
	var lj *lumberjack.Logger
	if cfg.LogFile.Path != "" {
		lj = &lumberjack.Logger{
			Filename:   cfg.LogFile.Path,
			MaxSize:    cfg.LogFile.MaxSizeMB,
			MaxBackups: cfg.LogFile.MaxBackups,
			MaxAge:     cfg.LogFile.MaxAgeDays,
		}
		out = io.MultiWriter(out, lj)
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})), lj
}

// bootstrap opens the store and builds the quest service. No journal is
// attached yet.
func bootstrap(app *application) (*core, error) {
	cfg := app.config

	logger, logFile := newLogger(app)
	slog.SetDefault(logger)

	var closers []io.Closer
	if logFile != nil {
		closers = append(closers, logFile)
	}

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Int("active_limit", cfg.Quests.ActiveLimit),
		slog.String("log_level", cfg.App.LogLevel.String()))

	db, err := store.Open(cfg.SQLite.Path)
	if err != nil {
		for _, cl := range closers {
			_ = cl.Close()
		}
		return nil, fmt.Errorf("init store: %w", err)
	}

	syncer := journal.New(db, selfwrite.New(selfwrite.DefaultCapacity), logger)
	svc := questservice.NewService(db, syncer, logger, cfg.Quests.ActiveLimit)

	return &core{
		logger:  logger,
		db:      db,
		svc:     svc,
		closers: append(closers, db),
	}, nil
}

// startJournal wires the file watcher into the service and attaches the
// journal folder (stored setting first, then config).
func (c *core) startJournal(ctx context.Context, cfg *Config) {
	c.watcher = watcher.New(c.logger, cfg.Journal.Debounce, c.svc.HandleFileChange)
	c.svc.SetWatcher(c.watcher)
	if err := c.svc.Start(ctx, cfg.Journal.Path); err != nil {
		c.logger.Warn("journal start failed", slog.String("error", err.Error()))
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

type pinger interface {
	Ping(ctx context.Context) error
}

type journalState struct {
	Dir      string `json:"dir"`
	Watching bool   `json:"watching"`
}

// readyHandler reports the store reachable and which journal folder is watched.
// An unwatched journal does not make the app unready.
func readyHandler(db pinger, ws *watcher.Session) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		var js journalState
		if ws != nil {
			js = journalState{Dir: ws.Dir(), Watching: ws.Watching()}
		}
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(struct {
			Status  string       `json:"status"`
			Journal journalState `json:"journal"`
		}{Status: "ok", Journal: js})
	}
}

// brokerNotifier forwards service notifications to the SSE broker.
type brokerNotifier struct {
	*sse.Broker
}

func (n brokerNotifier) NotifyImported(dir string, res journal.ImportResult) {
	n.Publish(sse.Event{Type: sse.EventJournalImported, Data: struct {
		Dir string `json:"dir"`
		journal.ImportResult
	}{Dir: dir, ImportResult: res}})
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config

	c, err := bootstrap(app)
	if err != nil {
		return err
	}
	defer c.Close()
	logger := c.logger

	// SSE broker; every service mutation becomes one throttled quests.updated
	// event and imports publish their counts.
	broker := sse.NewBroker(250 * time.Millisecond)
	defer broker.Close()
	c.svc.SetNotifier(brokerNotifier{broker})

	c.startJournal(ctx, cfg)
	defer c.svc.Stop()

	apiRouter := api.NewRouter(c.svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", healthHandler)
	r.Get("/health/ready", readyHandler(c.db, c.watcher))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

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
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// Import runs a one-shot bulk import of dir and returns the counts.
func Import(ctx context.Context, dir string, opts ...Option) (journal.ImportResult, error) {
	app, err := newApplication(opts)
	if err != nil {
		return journal.ImportResult{}, err
	}
	c, err := bootstrap(app)
	if err != nil {
		return journal.ImportResult{}, err
	}
	defer c.Close()

	if err := c.db.EnsureDefaultDomains(); err != nil {
		return journal.ImportResult{}, fmt.Errorf("seed domains: %w", err)
	}
	res, err := c.svc.Import(ctx, dir)
	if err != nil {
		return res, fmt.Errorf("import %s: %w", dir, err)
	}
	c.logger.Info("Import finished",
		slog.String("dir", dir),
		slog.Int("imported", res.Imported),
		slog.Int("updated", res.Updated),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))
	return res, nil
}

// ServeMCP runs the MCP server on stdin/stdout until the client disconnects.
// The journal is watched while it runs so hand edits stay visible to tools.
func ServeMCP(ctx context.Context, opts ...Option) error {
	opts = append([]Option{WithLogOutput(os.Stderr)}, opts...)
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	c, err := bootstrap(app)
	if err != nil {
		return err
	}
	defer c.Close()

	c.startJournal(ctx, app.config)
	defer c.svc.Stop()

	c.logger.Info("Starting MCP server on stdio")
	if err := mcpserver.New(c.svc).ServeStdio(); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}
