package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/BiswasSwagatam/Muzik/internal/model"
)

const sweepTimeout = time.Minute

// Reconciler is the part of CatalogService the sweeper runs.
type Reconciler interface {
	Reconcile(ctx context.Context, repair bool) (*model.IntegrityReport, error)
}

// IntegritySweeper runs a read-only Reconcile on a fixed interval and logs
// what it finds. It never repairs: that stays an admin action.
type IntegritySweeper struct {
	catalog  Reconciler
	interval time.Duration
	logger   *slog.Logger

	done      chan struct{}
	wg        sync.WaitGroup
	startOnce sync.Once
	stopOnce  sync.Once
}

// NewIntegritySweeper returns a stopped sweeper. An interval of zero or less
// disables it; Start and Stop are then no-ops.
func NewIntegritySweeper(catalog Reconciler, interval time.Duration, logger *slog.Logger) *IntegritySweeper {
	return &IntegritySweeper{
		catalog:  catalog,
		interval: interval,
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// Start launches the background loop. Calling it again does nothing.
func (s *IntegritySweeper) Start() {
	s.startOnce.Do(func() {
		if s.interval <= 0 {
			s.logger.Info("integrity sweep disabled")
			return
		}
		s.logger.Info("starting integrity sweep", slog.Duration("interval", s.interval))
		s.wg.Add(1)
		go s.loop()
	})
}

// Stop ends the loop and waits for a running sweep to finish.
func (s *IntegritySweeper) Stop() {
	s.stopOnce.Do(func() { close(s.done) })
	s.wg.Wait()
}

func (s *IntegritySweeper) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep runs one check. A sweep in progress is cancelled by Stop.
func (s *IntegritySweeper) Sweep() *model.IntegrityReport {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	go func() {
		select {
		case <-s.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	report, err := s.catalog.Reconcile(ctx, false)
	if err != nil {
		s.logger.Error("integrity sweep failed", slog.String("error", err.Error()))
		return nil
	}
	if report.Clean() {
		s.logger.Debug("integrity sweep clean")
		return report
	}
	s.logger.Warn("catalog references inconsistent",
		slog.Int("unlisted", len(report.UnlistedSongs)),
		slog.Int("dangling", len(report.DanglingSongs)),
		slog.Int("stale", len(report.StaleEntries)),
	)
	return report
}
