package functions

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/zoobzio/relq/internal/types"
)

// Registry maps canonical function names to descriptors.
//
// Register during start-up; after that the registry is only read and may be
// shared by concurrent renders.
type Registry struct {
	logger      *slog.Logger
	descriptors map[string]Descriptor
	mu          sync.RWMutex
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used to report overwritten descriptors.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		logger:      slog.New(slog.DiscardHandler),
		descriptors: make(map[string]Descriptor),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewBuiltin creates a registry preloaded with the builtin catalogue.
func NewBuiltin(opts ...Option) *Registry {
	r := New(opts...)
	for _, d := range Builtins() {
		if err := r.Register(d); err != nil {
			panic(fmt.Sprintf("relq: invalid builtin %s: %v", d.Name, err))
		}
	}
	return r
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// Default returns the process-wide builtin registry, built once on first use.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewBuiltin()
	})
	return defaultRegistry
}

// Register inserts d under its canonical name. An existing descriptor with the
// same name is replaced.
func (r *Registry) Register(d Descriptor) error {
	d.Name = Canonical(d.Name)
	if d.Name == "" {
		return fmt.Errorf("descriptor name cannot be empty")
	}
	if d.Kind < Scalar || d.Kind > Window {
		return fmt.Errorf("descriptor %s has unknown kind %d", d.Name, int(d.Kind))
	}
	if d.Arity.Min < 0 || (d.Arity.Max != Variadic && d.Arity.Max < d.Arity.Min) {
		return fmt.Errorf("descriptor %s has invalid arity %d..%d", d.Name, d.Arity.Min, d.Arity.Max)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.descriptors[d.Name]; ok {
		r.logger.Debug("function descriptor replaced",
			slog.String("name", d.Name),
			slog.String("previous_kind", prev.Kind.String()),
			slog.String("kind", d.Kind.String()))
	}
	r.descriptors[d.Name] = d
	return nil
}

// Resolve returns the descriptor registered under name.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	canonical := Canonical(name)
	r.mu.RLock()
	d, ok := r.descriptors[canonical]
	r.mu.RUnlock()
	if !ok {
		return Descriptor{}, types.UnknownFunctionError{Name: canonical}
	}
	return d, nil
}

// Names returns every registered name in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.descriptors))
	for name := range r.descriptors {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func (r *Registry) resolveKind(name string, args []types.Expression, kinds ...Kind) (Descriptor, error) {
	d, err := r.Resolve(name)
	if err != nil {
		return Descriptor{}, err
	}
	matched := false
	for _, k := range kinds {
		if d.Kind == k {
			matched = true
			break
		}
	}
	if !matched {
		return Descriptor{}, fmt.Errorf("%s is a %s function and cannot be used as %s", d.Name, d.Kind, kinds[0])
	}
	if err := d.CheckArgs(args); err != nil {
		return Descriptor{}, err
	}
	return d, nil
}

// Scalar constructs a checked scalar call.
func (r *Registry) Scalar(name string, args ...types.Expression) (types.ScalarCall, error) {
	d, err := r.resolveKind(name, args, Scalar)
	if err != nil {
		return types.ScalarCall{}, err
	}
	return types.ScalarCall{Name: d.Name, Args: args}, nil
}

// Aggregate constructs a checked aggregate call.
func (r *Registry) Aggregate(name string, distinct bool, args ...types.Expression) (types.AggregateCall, error) {
	d, err := r.resolveKind(name, args, Aggregate)
	if err != nil {
		return types.AggregateCall{}, err
	}
	return types.AggregateCall{Name: d.Name, Args: args, Distinct: distinct}, nil
}

// Window constructs a checked window call over an inline spec. Aggregates
// are accepted as window functions.
func (r *Registry) Window(name string, spec types.WindowSpec, args ...types.Expression) (types.WindowCall, error) {
	d, err := r.resolveKind(name, args, Window, Aggregate)
	if err != nil {
		return types.WindowCall{}, err
	}
	if err := spec.Validate(); err != nil {
		return types.WindowCall{}, err
	}
	return types.WindowCall{Name: d.Name, Args: args, Spec: &spec}, nil
}

// NamedWindow constructs a checked window call referencing a WINDOW definition.
func (r *Registry) NamedWindow(name, window string, args ...types.Expression) (types.WindowCall, error) {
	d, err := r.resolveKind(name, args, Window, Aggregate)
	if err != nil {
		return types.WindowCall{}, err
	}
	if window == "" {
		return types.WindowCall{}, fmt.Errorf("window name cannot be empty")
	}
	return types.WindowCall{Name: d.Name, Args: args, Ref: window}, nil
}
