package server

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

const forceExitGrace = 5 * time.Second

// Run starts the HTTP server on addr (HTTPS when tlsConfig is non-nil)
// and blocks until it shuts down. Shutdown is two-stage, grounded in
// the original implementation's signal-handling structure: the first
// SIGINT/SIGTERM requests a graceful stop and arms a 5-second
// force-exit watchdog; a second signal observed while that shutdown
// latch is set exits the process immediately, bypassing the watchdog.
func (s *Server) Run(ctx context.Context, addr string, tlsConfig *tls.Config) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		TLSConfig:         tlsConfig,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		var err error
		if tlsConfig != nil {
			err = httpServer.ListenAndServeTLS("", "")
		} else {
			err = httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	var shuttingDown atomic.Bool

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("gracefully shutting down")
	shuttingDown.Store(true)

	watchdog := time.AfterFunc(forceExitGrace, func() {
		s.logger.Error("graceful shutdown timed out, forcing exit")
		os.Exit(1)
	})
	defer watchdog.Stop()

	// A second signal while shutdown is in flight forces an immediate
	// exit rather than waiting for the graceful path or the watchdog.
	forceCtx, forceStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	go func() {
		<-forceCtx.Done()
		if shuttingDown.Load() {
			s.logger.Error("second shutdown signal received, forcing exit")
			os.Exit(1)
		}
	}()
	defer forceStop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), forceExitGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during graceful shutdown", "error", err)
		return err
	}

	s.logger.Info("shutdown complete")
	return nil
}
