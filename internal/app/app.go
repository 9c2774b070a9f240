// Package app wires configuration loading, engine compilation, and
// batch evaluation into one run, and renders the report.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/fieldflow/internal/config"
	"github.com/vk/fieldflow/internal/ctxlog"
	"github.com/vk/fieldflow/internal/engine"
	"github.com/vk/fieldflow/internal/entity"
	"github.com/vk/fieldflow/internal/provider"
	"github.com/vk/fieldflow/internal/registry"
	"github.com/vk/fieldflow/internal/result"
	"github.com/vk/fieldflow/internal/xmlconf"
)

// App runs one analytics batch from a configuration file.
type App struct {
	out    io.Writer
	logW   io.Writer
	cfg    *Config
	loader config.Loader
}

// Report is the serialized run output: the run identifier plus the
// result table. A failed field renders as null, never as a number.
type Report struct {
	RunID   string       `json:"run_id"`
	Results result.Table `json:"results"`
}

// NewApp creates an App writing the report to out and logs to logW.
func NewApp(out, logW io.Writer, cfg *Config, loader config.Loader) *App {
	return &App{out: out, logW: logW, cfg: cfg, loader: loader}
}

// Run executes the full pipeline: load config, merge XML imports,
// register equations, compile the plan, fetch externals, evaluate the
// batch, and render the report.
func (a *App) Run(ctx context.Context) error {
	runID := uuid.NewString()
	logger := newLogger(a.cfg.level, a.cfg.LogFormat, a.logW).With("run_id", runID)
	ctx = ctxlog.WithLogger(ctx, logger)

	model, err := a.loader.Load(ctx, a.cfg.ConfigPath)
	if err != nil {
		return err
	}

	if model.EquationsXML != "" {
		xmlPath := model.EquationsXML
		if !filepath.IsAbs(xmlPath) {
			xmlPath = filepath.Join(filepath.Dir(a.cfg.ConfigPath), xmlPath)
		}
		imported, err := xmlconf.Import(ctx, xmlPath)
		if err != nil {
			return err
		}
		model.Equations = append(model.Equations, imported...)
	}

	if err := model.Validate(); err != nil {
		return err
	}

	reg := registry.New()
	if err := reg.RegisterAll(ctx, model.Equations); err != nil {
		return err
	}

	eng, err := engine.Compile(ctx, reg, entity.AttrNames(model.Entities))
	if err != nil {
		return err
	}

	requested := model.RequestedFields
	if len(a.cfg.Fields) > 0 {
		requested = a.cfg.Fields
	}

	prov := provider.NewSim(model.ProviderSettings, model.Entities)
	table, err := eng.Run(ctx, model.Entities, requested, prov, a.cfg.WorkerCount)
	if err != nil {
		return err
	}

	return a.render(Report{RunID: runID, Results: table})
}

// render writes the report as indented JSON.
func (a *App) render(report Report) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return nil
}
