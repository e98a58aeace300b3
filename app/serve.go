package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 10 * time.Second

// Serve listens on the configured address and serves h until ctx is
// cancelled, then shuts down gracefully.
func Serve(ctx context.Context, app *Context, h http.Handler) error {
	if app == nil || app.Config == nil {
		return errors.New("app config is required")
	}
	ln, err := net.Listen("tcp", app.Config.Server.Addr())
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	return ServeListener(ctx, app, ln, h)
}

// ServeListener is Serve on an existing listener.
func ServeListener(ctx context.Context, app *Context, ln net.Listener, h http.Handler) error {
	var log *slog.Logger
	if app != nil {
		log = app.Logger
	}
	if log == nil {
		log = slog.Default()
	}
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	errCh := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "app.serve.start", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	log.InfoContext(ctx, "app.serve.shutdown")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
