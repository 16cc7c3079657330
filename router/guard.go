package router

import (
	"context"

	"go-mod.ewintr.nl/fluxreader/readiness"
)

// Guard lets the home route through and holds every other route until the
// feed store reports ready. An error state does not release it; the guard
// keeps waiting for a later successful load or for ctx to end.
type Guard struct {
	feeds *readiness.Signal[readiness.State]
}

func NewGuard(feeds *readiness.Signal[readiness.State]) *Guard {
	return &Guard{feeds: feeds}
}

func (g *Guard) Allow(ctx context.Context, route Route) error {
	if route.IsHome() {
		return nil
	}

	return g.feeds.WaitFor(ctx, readiness.Ready)
}
