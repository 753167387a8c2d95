package relq

import "github.com/zoobzio/relq/internal/types"

// Renderer defines the interface for dialect-specific rendering.
// Implementations convert a Query to text without mutating it and must be
// safe for concurrent use.
type Renderer interface {
	// Dialect names the target the renderer produces.
	Dialect() types.Dialect

	// Render converts a complete query.
	Render(q *types.Query) (string, error)

	// RenderExpression converts a standalone expression.
	RenderExpression(e types.Expression) (string, error)
}

// CapabilityReporter is implemented by SQL renderers that describe the
// features their dialect supports.
type CapabilityReporter interface {
	Capabilities() Capabilities
}
