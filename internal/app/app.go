package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/specialistvlad/matrixrun/internal/ctxlog"
	"github.com/specialistvlad/matrixrun/internal/model"
	"github.com/specialistvlad/matrixrun/internal/run"
	"github.com/specialistvlad/matrixrun/internal/workflow"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	config    *Config
	loader    *workflow.Loader
	workflows *model.Set

	httpServer *http.Server

	mu      sync.Mutex
	lastRun *run.Run
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance with its workflows loaded and validated. A
// failure to load configuration is a fatal startup error and panics; the
// entrypoint recovers it into a clean exit.
func NewApp(outW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	loader := workflow.NewLoader()
	set, err := loader.Load(ctx, cfg.WorkflowPath)
	if err != nil {
		panic(fmt.Errorf("failed to load workflows: %w", err))
	}
	logger.Debug("Workflows loaded into unified model.", "count", len(set.Workflows))

	return &App{
		outW:      outW,
		logger:    logger,
		config:    cfg,
		loader:    loader,
		workflows: set,
	}
}

// Workflows returns the loaded workflow set. This is primarily for testing.
func (a *App) Workflows() *model.Set {
	return a.workflows
}

// LastRun returns the most recent run, or nil before the first one starts.
func (a *App) LastRun() *run.Run {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lastRun
}

func (a *App) setLastRun(r *run.Run) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lastRun = r
}

// reload re-reads the workflow path, replacing the loaded set. Used by
// watch mode between runs; a broken edit keeps the previous set.
func (a *App) reload(ctx context.Context) error {
	set, err := a.loader.Load(ctx, a.config.WorkflowPath)
	if err != nil {
		return err
	}
	a.workflows = set
	return nil
}
