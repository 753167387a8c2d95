package relq

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/types"
)

// Engine renders queries with a fixed configuration: a default dialect, a
// function registry, an optional declared schema and a logger.
type Engine struct {
	cfg        Config
	logger     *slog.Logger
	registry   *functions.Registry
	schema     *Schema
	generators *Generators
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger. Nil keeps the discard logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSchema checks every query against schema before rendering.
func WithSchema(schema *Schema) EngineOption {
	return func(e *Engine) {
		e.schema = schema
	}
}

// WithRegistry resolves function calls against reg.
func WithRegistry(reg *functions.Registry) EngineOption {
	return func(e *Engine) {
		if reg != nil {
			e.registry = reg
		}
	}
}

// NewEngine creates an engine from cfg.
func NewEngine(cfg Config, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		registry: functions.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if cfg.SchemaCheck && e.schema == nil {
		return nil, fmt.Errorf("schema_check is enabled but no schema was provided")
	}
	e.generators = StandardGenerators(GeneratorOptions{
		Registry: e.registry,
		MaxDepth: cfg.MaxDepth,
		Database: cfg.Pure.Database,
	})
	return e, nil
}

// Dialect returns the configured default dialect.
func (e *Engine) Dialect() types.Dialect {
	return types.ParseDialect(e.cfg.Dialect)
}

// Generators returns the engine's generator set. Registering a renderer on it
// makes the dialect available to Render.
func (e *Engine) Generators() *Generators {
	return e.generators
}

// Check validates q against the configured schema, if any.
func (e *Engine) Check(q *types.Query) error {
	if e.schema == nil {
		return nil
	}
	return e.schema.Validate(q)
}

// Render renders q for dialect. An empty dialect uses the configured default.
func (e *Engine) Render(q *types.Query, dialect types.Dialect) (string, error) {
	if dialect == "" {
		dialect = e.Dialect()
	}
	if q == nil {
		return "", fmt.Errorf("query cannot be nil")
	}
	if err := e.Check(q); err != nil {
		e.logger.Debug("schema check failed", "dialect", dialect, "error", err)
		return "", err
	}
	out, err := e.generators.Render(q, dialect)
	if err != nil {
		e.logger.Debug("render failed", "dialect", dialect, "error", err)
		return "", err
	}
	return out, nil
}

// RenderAll renders q for each dialect concurrently. Results are returned in
// request order; the first failure cancels the rest.
func (e *Engine) RenderAll(ctx context.Context, q *types.Query, dialects ...types.Dialect) ([]string, error) {
	if len(dialects) == 0 {
		dialects = e.generators.Dialects()
	}
	if q == nil {
		return nil, fmt.Errorf("query cannot be nil")
	}
	if err := e.Check(q); err != nil {
		return nil, err
	}

	out := make([]string, len(dialects))
	eg, egctx := errgroup.WithContext(ctx)
	for i, d := range dialects {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			r, err := e.generators.Render(q, d)
			if err != nil {
				e.logger.Debug("render failed", "dialect", d, "error", err)
				return fmt.Errorf("%s: %w", d, err)
			}
			out[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
