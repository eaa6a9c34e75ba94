// Package agent resolves Spanish date expressions to the wire shapes, either
// deterministically or through an LLM deployment, with fallback chaining.
package agent

import (
	"context"
	"time"

	"github.com/bv-juan-bedoya/search-agent-tool/internal/fecha"
)

// Resolver turns a Spanish query into a date resolution.
type Resolver interface {
	ResolveDates(ctx context.Context, query string) (fecha.Resolution, error)
}

// Local resolves queries with the deterministic grammar in internal/fecha.
type Local struct {
	Now func() time.Time
}

func (l Local) ResolveDates(_ context.Context, query string) (fecha.Resolution, error) {
	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	return fecha.ResolveAt(query, now)
}

// Chain tries the primary resolver and falls back to the secondary on any
// error. The original function chained agent -> heuristic fallback; here
// either ordering is possible.
type Chain struct {
	Primary  Resolver
	Fallback Resolver
}

func (c Chain) ResolveDates(ctx context.Context, query string) (fecha.Resolution, error) {
	res, err := c.Primary.ResolveDates(ctx, query)
	if err == nil {
		return res, nil
	}
	if ctx.Err() != nil {
		return fecha.Resolution{}, err
	}
	return c.Fallback.ResolveDates(ctx, query)
}
