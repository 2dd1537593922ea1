package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/modelgraph/internal/ctxlog"
	"github.com/vk/modelgraph/internal/emit"
	"github.com/vk/modelgraph/internal/report"
	"github.com/vk/modelgraph/internal/resolver"
)

// Run executes one resolution pass and reports the artifact according to
// the provided configuration.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	res, err := resolver.Resolve(ctx, a.model, a.registry)
	if err != nil {
		// An unconverged shape pass still carries its diagnostic graph;
		// surface it so the stuck state can be inspected.
		var unres *resolver.UnresolvableShapeError
		if errors.As(err, &unres) && cfg.OutputFormat == "graph" {
			if werr := report.WriteGraphJSON(a.outW, &resolver.Resolution{Graph: unres.Graph}); werr != nil {
				a.logger.Error("Failed to render diagnostic graph.", "error", werr)
			}
		}
		return fmt.Errorf("resolution failed: %w", err)
	}
	a.logger.Info("Resolution pass converged.",
		"variables", len(res.Table),
		"connections", len(res.Connections),
		"auto_sources", len(res.AutoSources))

	switch cfg.OutputFormat {
	case "graph":
		if err := report.WriteGraphJSON(a.outW, res); err != nil {
			return fmt.Errorf("failed to render diagnostic graph: %w", err)
		}
	default:
		if err := report.WriteSummary(a.outW, res); err != nil {
			return fmt.Errorf("failed to render summary: %w", err)
		}
	}

	if cfg.EmitURL != "" {
		a.logger.Info("Streaming resolution to endpoint.", "url", cfg.EmitURL)
		opts := emit.Options{
			URL:       cfg.EmitURL,
			Namespace: cfg.EmitNamespace,
			Event:     cfg.EmitEvent,
		}
		if err := emit.Send(ctx, opts, res.Graph); err != nil {
			return fmt.Errorf("failed to stream resolution: %w", err)
		}
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}
