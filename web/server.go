package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
)

// Server owns the HTTP listener and the rate limiter sweeper
type Server struct {
	httpServer  *http.Server
	rateLimiter *RateLimiter
	stopSweeper context.CancelFunc
}

// NewServer wraps the handler in an http.Server with conservative timeouts
func NewServer(addr string, handler http.Handler, rateLimiter *RateLimiter) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		rateLimiter: rateLimiter,
	}
}

// Start begins serving in the background; listener failures are sent on the returned channel
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)

	sweepCtx, cancel := context.WithCancel(context.Background())
	s.stopSweeper = cancel
	if s.rateLimiter != nil {
		go s.sweep(sweepCtx)
	}

	go func() {
		log.Infof("HTTP server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server failed: %w", err)
		}
		close(errCh)
	}()

	return errCh
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stopSweeper != nil {
		s.stopSweeper()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	return nil
}

func (s *Server) sweep(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.rateLimiter.Sweep(); removed > 0 {
				log.WithField("removed", removed).Debug("Swept idle rate limiter entries")
			}
		}
	}
}
