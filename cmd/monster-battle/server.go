package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ericogr/monster-battle/internal/logging"
)

func sweepInterval(ttl time.Duration) time.Duration {
	iv := ttl / 10
	if iv < 5*time.Second {
		iv = 5 * time.Second
	}
	if iv > time.Minute {
		iv = time.Minute
	}
	return iv
}

// serve runs the HTTP server until ctx is cancelled, then drains open
// requests for a few seconds.
func serve(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info("Shutting down", nil)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
