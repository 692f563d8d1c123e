package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// shutdownTimeout bounds how long in-flight verification streams may finish
// after a shutdown signal.
const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx is done, then shuts it down gracefully.
// Request contexts do not derive from ctx, so a signal stops new requests
// while running streams keep going for up to drainTimeout. Streams still
// open after that are cut off by closing their connections.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, drainTimeout time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down", "drain_timeout", drainTimeout)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Warn("drain timeout exceeded, closing open streams", "error", err)
			return srv.Close()
		}
		return nil
	})

	return g.Wait()
}
