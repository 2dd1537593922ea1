package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/hcladapter"
	"github.com/vk/modelgraph/internal/model"
	"github.com/vk/modelgraph/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and
// lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	model    *model.Model
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry,
// with the model definition loaded and validated.
func NewApp(outW io.Writer, errW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, errW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load the declaration files into the format-agnostic model first.
	m, err := hcladapter.NewLoader().Load(ctx, cfg.ModelPath)
	if err != nil {
		// A failure to load the model definition is a fatal startup error.
		panic(fmt.Errorf("failed to load model definition: %w", err))
	}
	logger.Debug("Model definition loaded and translated into unified model.")

	// Create and populate the shape-function registry.
	reg := registry.New()
	registry.RegisterBuiltins(reg)
	logger.Debug("Builtin shape functions registered.", "names", reg.Names())

	// Validate that every declared compute_shape names a registered
	// function.
	if err := reg.ValidateModel(ctx, m); err != nil {
		// This is a mismatch between code and declaration, so we panic.
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		model:    m,
	}
}

// Model returns the loaded model. This is primarily for testing.
func (a *App) Model() *model.Model {
	return a.model
}

// Registry returns the application's registry. This is primarily for
// testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
