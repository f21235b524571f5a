package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/inkwell-press/inkwell/internal/domain/mfa"
	"github.com/inkwell-press/inkwell/internal/shared/logger"
)

// MaintenanceScheduler handles periodic cleanup tasks.
// - Runs every hour to purge trusted device records whose trust window lapsed
// - Expired records are already rejected at validation time; the sweep only
//   keeps the table from accumulating dead rows
type MaintenanceScheduler struct {
	trustedDevices mfa.TrustedDeviceRepository
	logger         logger.Interface
	stopChan       chan struct{}
	stopOnce       sync.Once
	wg             sync.WaitGroup
	interval       time.Duration
}

func NewMaintenanceScheduler(
	trustedDevices mfa.TrustedDeviceRepository,
	logger logger.Interface,
) *MaintenanceScheduler {
	return &MaintenanceScheduler{
		trustedDevices: trustedDevices,
		logger:         logger,
		stopChan:       make(chan struct{}),
		interval:       time.Hour,
	}
}

// Start starts the scheduler. It returns immediately; the sweep loop runs in
// the background until Stop is called or the context is cancelled.
func (s *MaintenanceScheduler) Start(ctx context.Context) {
	s.logger.Infow("starting maintenance scheduler", "interval", s.interval)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runSweepLoop(ctx)
	}()
}

// Stop stops the scheduler gracefully and waits for the sweep loop to finish.
// Safe to call multiple times.
func (s *MaintenanceScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.logger.Infow("stopping maintenance scheduler")
		close(s.stopChan)
		s.wg.Wait()
		s.logger.Infow("maintenance scheduler stopped")
	})
}

func (s *MaintenanceScheduler) runSweepLoop(ctx context.Context) {
	// Run immediately on startup to clear anything that expired while down
	s.sweepExpiredDevices(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Infow("maintenance scheduler stopped due to context cancellation")
			return
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.sweepExpiredDevices(ctx)
		}
	}
}

func (s *MaintenanceScheduler) sweepExpiredDevices(ctx context.Context) {
	purged, err := s.trustedDevices.DeleteExpired(ctx, time.Now().UTC())
	if err != nil {
		s.logger.Errorw("failed to purge expired trusted devices", "error", err)
		return
	}
	if purged > 0 {
		s.logger.Infow("purged expired trusted devices", "count", purged)
	}
}
