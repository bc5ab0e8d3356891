package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSweepInterval = time.Minute
	shutdownGrace        = 5 * time.Second
)

// Serve answers requests on ln until ctx is done, sweeping idle sessions
// every sweepEvery. It returns nil on a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener, sweepEvery time.Duration) error {
	if sweepEvery <= 0 {
		sweepEvery = DefaultSweepInterval
	}
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	group.Go(func() error {
		ticker := time.NewTicker(sweepEvery)
		defer ticker.Stop()
		for {
			select {
			case <-groupCtx.Done():
				return nil
			case <-ticker.C:
				if removed := s.sessions.Sweep(); removed > 0 {
					s.logger.Info("swept idle sessions", zap.Int("removed", removed), zap.Int("active", s.sessions.Len()))
				}
			}
		}
	})
	return group.Wait()
}
