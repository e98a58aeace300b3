package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Initializer is a named startup hook.
type Initializer interface {
	// Name identifies the initializer in logs and errors.
	Name() string
	// AfterRoutes runs once all application routes are registered. It
	// returns the router to continue with, typically r with extra layers.
	AfterRoutes(ctx context.Context, r *Router, app *Context) (*Router, error)
}

// InitializerError reports which initializer aborted boot.
type InitializerError struct {
	Name string
	Err  error
}

func (e *InitializerError) Error() string {
	return fmt.Sprintf("initializer %s: %v", e.Name, e.Err)
}

func (e *InitializerError) Unwrap() error { return e.Err }

// Boot builds the application router: routes registers handlers, then each
// initializer's AfterRoutes runs in order. The first error stops boot.
func Boot(ctx context.Context, app *Context, routes func(*Router), inits ...Initializer) (*Router, error) {
	if app == nil {
		return nil, errors.New("app context is required")
	}
	log := app.Logger
	if log == nil {
		log = slog.Default()
	}

	r := NewRouter()
	if routes != nil {
		routes(r)
	}
	for _, in := range inits {
		name := in.Name()
		next, err := in.AfterRoutes(ctx, r, app)
		if err != nil {
			log.ErrorContext(ctx, "app.initializer.fail", slog.String("initializer", name), slog.String("err", err.Error()))
			return nil, &InitializerError{Name: name, Err: err}
		}
		if next == nil {
			return nil, &InitializerError{Name: name, Err: errors.New("returned a nil router")}
		}
		log.InfoContext(ctx, "app.initializer.after_routes", slog.String("initializer", name), slog.Int("layers", next.Layers()))
		r = next
	}
	return r, nil
}
