package render

import (
	"fmt"

	"github.com/zoobzio/relq/internal/types"
)

// Context tracks nesting depth while a generator walks a query.
type Context struct {
	maxDepth int
	depth    int
}

// NewContext creates a context that rejects nesting beyond maxDepth.
// A non-positive maxDepth selects types.DefaultMaxDepth.
func NewContext(maxDepth int) *Context {
	if maxDepth <= 0 {
		maxDepth = types.DefaultMaxDepth
	}
	return &Context{maxDepth: maxDepth}
}

// Enter descends one level, failing once the limit is exceeded.
// Callers pair it with Leave.
func (c *Context) Enter() error {
	if c.depth >= c.maxDepth {
		return fmt.Errorf("maximum nesting depth (%d) exceeded", c.maxDepth)
	}
	c.depth++
	return nil
}

// Leave returns to the enclosing level.
func (c *Context) Leave() {
	if c.depth > 0 {
		c.depth--
	}
}

// Depth reports the current nesting level.
func (c *Context) Depth() int {
	return c.depth
}
