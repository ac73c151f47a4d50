// Package engine composes feature providers and applies their merged
// effects to the project's manifest and entry file.
package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/feature"
	"github.com/appgen-dev/appgen/internal/manifest"
	"github.com/appgen-dev/appgen/internal/patch"
)

const tracerName = "github.com/appgen-dev/appgen/internal/engine"

// Engine runs a fixed, ordered provider list against a workspace.
type Engine struct {
	providers []feature.Provider
	tracer    trace.Tracer
}

// Option configures an Engine.
type Option func(*Engine)

// WithTracerProvider sets the provider spans are recorded with. The global
// otel provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(e *Engine) {
		if tp != nil {
			e.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewEngine constructs an Engine. A nil provider list uses feature.Default().
func NewEngine(providers []feature.Provider, opts ...Option) *Engine {
	if providers == nil {
		providers = feature.Default()
	}
	e := &Engine{
		providers: providers,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Providers returns the engine's providers in declared order.
func (e *Engine) Providers() []feature.Provider {
	return append([]feature.Provider(nil), e.providers...)
}

// Outcome describes a finished generation run.
type Outcome struct {
	RunID   string
	Effects *Effects
	// Files lists every project file written, sorted.
	Files []string
}

// Compose runs every enabled provider once, in order, and merges their
// results. It stops at the first provider failure or collision.
func Compose(ctx context.Context, ws *feature.Workspace, cfg config.Configuration, providers []feature.Provider) (*Effects, error) {
	return compose(ctx, otel.Tracer(tracerName), ws, cfg, providers)
}

// Compose runs the engine's providers; see the package-level Compose.
func (e *Engine) Compose(ctx context.Context, ws *feature.Workspace, cfg config.Configuration) (*Effects, error) {
	return compose(ctx, e.tracer, ws, cfg, e.providers)
}

func compose(ctx context.Context, tracer trace.Tracer, ws *feature.Workspace, cfg config.Configuration, providers []feature.Provider) (*Effects, error) {
	if err := checkNames(providers); err != nil {
		return nil, err
	}
	effects := NewEffects()
	for _, p := range providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !p.Enabled(cfg) {
			ws.Logger.Debug("feature disabled", "provider", p.Name())
			continue
		}
		res, err := runProvider(ctx, tracer, ws, cfg, p)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", p.Name(), err)
		}
		if err := effects.Merge(p.Name(), res); err != nil {
			return nil, fmt.Errorf("merge feature %q: %w", p.Name(), err)
		}
	}
	return effects, nil
}

func runProvider(ctx context.Context, tracer trace.Tracer, ws *feature.Workspace, cfg config.Configuration, p feature.Provider) (feature.Result, error) {
	ctx, span := tracer.Start(ctx, "feature "+p.Name(), trace.WithAttributes(attribute.String("feature.name", p.Name())))
	defer span.End()

	ws.Logger.Debug("feature started", "provider", p.Name())
	res, err := p.Setup(ctx, ws, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return feature.Result{}, err
	}
	span.SetAttributes(
		attribute.Int("feature.dependencies", len(res.Dependencies)+len(res.DevDependencies)),
		attribute.Int("feature.uses", len(res.Uses)),
	)
	ws.Logger.Info("feature applied", "provider", p.Name())
	return res, nil
}

func checkNames(providers []feature.Provider) error {
	seen := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		if p == nil {
			return errors.New("provider list contains nil")
		}
		if _, ok := seen[p.Name()]; ok {
			return fmt.Errorf("provider %q is listed more than once", p.Name())
		}
		seen[p.Name()] = struct{}{}
	}
	return nil
}

// Generate reads and parses the seed entry file and manifest, composes the
// providers, then rewrites both artifacts. The shared artifacts are written
// only after every provider and merge step succeeded. The workspace logger
// is tagged with the run id for the duration of the call.
func (e *Engine) Generate(ctx context.Context, ws *feature.Workspace, cfg config.Configuration) (*Outcome, error) {
	runID := uuid.NewString()
	logger := ws.Logger
	ws.Logger = logger.With("run", runID)
	defer func() { ws.Logger = logger }()

	ctx, span := e.tracer.Start(ctx, "generate", trace.WithAttributes(
		attribute.String("run.id", runID),
		attribute.String("project.package", cfg.PackageName),
	))
	defer span.End()

	out, err := e.generate(ctx, ws, cfg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	out.RunID = runID
	return out, nil
}

func (e *Engine) generate(ctx context.Context, ws *feature.Workspace, cfg config.Configuration) (*Outcome, error) {
	entryPath, manifestPath := cfg.EntryFile(), cfg.ManifestFile()

	entryRaw, err := ws.ReadFile(entryPath)
	if err != nil {
		return nil, err
	}
	entry, err := patch.ParseEntry(entryPath, string(entryRaw))
	if err != nil {
		return nil, err
	}
	manifestRaw, err := ws.ReadFile(manifestPath)
	if err != nil {
		return nil, err
	}
	doc, err := manifest.Parse(manifestPath, manifestRaw)
	if err != nil {
		return nil, err
	}

	effects, err := e.Compose(ctx, ws, cfg)
	if err != nil {
		return nil, err
	}
	for _, dup := range effects.DuplicateImports() {
		ws.Logger.Warn("import declared more than once", "import", dup)
	}

	entryOut := entry.Render(effects.Imports(), effects.Uses())
	if err := doc.Merge(effects.Patch(cfg.Versions)); err != nil {
		return nil, fmt.Errorf("merge %q: %w", manifestPath, err)
	}
	manifestOut, err := doc.Encode()
	if err != nil {
		return nil, fmt.Errorf("encode %q: %w", manifestPath, err)
	}

	if err := ws.WriteFile(entryPath, []byte(entryOut), 0); err != nil {
		return nil, err
	}
	if err := ws.WriteFile(manifestPath, manifestOut, 0); err != nil {
		return nil, err
	}

	files := ws.Written()
	ws.Logger.Info("generation complete",
		"features", len(effects.Providers()),
		"files", len(files),
		"dependencies", len(effects.Dependencies()),
		"devDependencies", len(effects.DevDependencies()),
	)
	return &Outcome{Effects: effects, Files: files}, nil
}
