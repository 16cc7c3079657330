package router

import (
	"context"
	"log/slog"
	"time"

	"go-mod.ewintr.nl/fluxreader/readiness"
)

const navigationTimeout = time.Minute

// Router tracks the current route. Views subscribe to Current to follow
// navigation.
type Router struct {
	guard   *Guard
	logger  *slog.Logger
	Current *readiness.Signal[Route]
}

func New(guard *Guard, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Router{
		guard:   guard,
		logger:  logger.With("component", "router"),
		Current: readiness.New(Home()),
	}
}

// Go parses path and switches to it once the guard allows.
func (r *Router) Go(ctx context.Context, path string) (Route, error) {
	route, err := Parse(path)
	if err != nil {
		return Route{}, err
	}

	return route, r.GoTo(ctx, route)
}

func (r *Router) GoTo(ctx context.Context, route Route) error {
	if err := r.guard.Allow(ctx, route); err != nil {
		r.logger.Debug("navigation held back", "path", route.Path, "error", err)
		return err
	}
	r.Current.Set(route)
	r.logger.Debug("navigated", "path", route.Path)

	return nil
}

// Navigate switches route without blocking the caller. Guarded routes are
// waited for in the background for at most a minute.
func (r *Router) Navigate(path string) {
	route, err := Parse(path)
	if err != nil {
		r.logger.Warn("could not navigate", "path", path, "error", err)
		return
	}
	if route.IsHome() {
		r.Current.Set(route)
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), navigationTimeout)
		defer cancel()
		if err := r.GoTo(ctx, route); err != nil {
			r.logger.Warn("navigation abandoned", "path", path, "error", err)
		}
	}()
}
