package relq

import (
	"sort"
	"strings"
	"sync"

	"github.com/zoobzio/relq/duckdb"
	"github.com/zoobzio/relq/functions"
	"github.com/zoobzio/relq/internal/types"
	"github.com/zoobzio/relq/mariadb"
	"github.com/zoobzio/relq/mssql"
	"github.com/zoobzio/relq/postgres"
	"github.com/zoobzio/relq/pure"
	"github.com/zoobzio/relq/sqlite"
)

// Generators maps dialect names to renderers. Names are case-insensitive.
// A Generators value is safe for concurrent use.
type Generators struct {
	mu        sync.RWMutex
	renderers map[string]Renderer
}

// NewGenerators creates an empty generator set.
func NewGenerators() *Generators {
	return &Generators{renderers: make(map[string]Renderer)}
}

// GeneratorOptions configures StandardGenerators.
type GeneratorOptions struct {
	// Registry resolves function calls. Nil means functions.Default().
	Registry *functions.Registry
	// MaxDepth bounds expression and subquery nesting. Zero means the default.
	MaxDepth int
	// Database addresses pure tables through #>{database.table}#.
	Database string
}

// StandardGenerators returns a set holding every built-in dialect.
func StandardGenerators(opts GeneratorOptions) *Generators {
	g := NewGenerators()
	g.Register(duckdb.New(duckdb.WithRegistry(opts.Registry), duckdb.WithMaxDepth(opts.MaxDepth)))
	g.Register(postgres.New(postgres.WithRegistry(opts.Registry), postgres.WithMaxDepth(opts.MaxDepth)))
	g.Register(sqlite.New(sqlite.WithRegistry(opts.Registry), sqlite.WithMaxDepth(opts.MaxDepth)))
	g.Register(mariadb.New(mariadb.WithRegistry(opts.Registry), mariadb.WithMaxDepth(opts.MaxDepth)))
	g.Register(mssql.New(mssql.WithRegistry(opts.Registry), mssql.WithMaxDepth(opts.MaxDepth)))
	g.Register(pure.New(
		pure.WithRegistry(opts.Registry),
		pure.WithMaxDepth(opts.MaxDepth),
		pure.WithDatabase(opts.Database),
	))
	return g
}

// Register adds or replaces the renderer for r.Dialect().
func (g *Generators) Register(r Renderer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.renderers[strings.ToLower(string(r.Dialect()))] = r
}

// Lookup returns the renderer registered for dialect.
func (g *Generators) Lookup(dialect types.Dialect) (Renderer, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	r, ok := g.renderers[strings.ToLower(string(dialect))]
	if !ok {
		return nil, types.UnsupportedDialectError{Dialect: dialect}
	}
	return r, nil
}

// Render dispatches q to the renderer for dialect.
func (g *Generators) Render(q *types.Query, dialect types.Dialect) (string, error) {
	r, err := g.Lookup(dialect)
	if err != nil {
		return "", err
	}
	return r.Render(q)
}

// Dialects lists the registered dialect names in sorted order.
func (g *Generators) Dialects() []types.Dialect {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.renderers))
	for name := range g.renderers {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]types.Dialect, len(names))
	for i, n := range names {
		out[i] = types.Dialect(n)
	}
	return out
}

var (
	defaultGenerators     *Generators
	defaultGeneratorsOnce sync.Once
)

// DefaultGenerators returns the shared set of built-in dialects.
func DefaultGenerators() *Generators {
	defaultGeneratorsOnce.Do(func() {
		defaultGenerators = StandardGenerators(GeneratorOptions{})
	})
	return defaultGenerators
}

// Render converts q for dialect using the built-in generators.
func Render(q *types.Query, dialect types.Dialect) (string, error) {
	return DefaultGenerators().Render(q, dialect)
}
