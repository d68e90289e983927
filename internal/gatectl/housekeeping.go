package gatectl

import (
	"context"
	"log/slog"
	"time"
)

// DefaultHousekeepingInterval is how often expired credentials are pruned.
const DefaultHousekeepingInterval = time.Hour

// Pruner removes expired credentials. *sqlite.Store satisfies it.
type Pruner interface {
	DeleteExpired(ctx context.Context) (int64, error)
}

// HousekeepingService periodically deletes credential rows past their
// max-age so the database does not grow with abandoned profiles.
type HousekeepingService struct {
	Pruner   Pruner
	Logger   *slog.Logger
	Interval time.Duration

	stopCh chan struct{}
	doneCh chan struct{}
}

// NewHousekeepingService defaults a non-positive interval to
// DefaultHousekeepingInterval.
func NewHousekeepingService(p Pruner, logger *slog.Logger, interval time.Duration) *HousekeepingService {
	if interval <= 0 {
		interval = DefaultHousekeepingInterval
	}
	return &HousekeepingService{
		Pruner:   p,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs the first cleanup immediately, then every Interval. Call Stop
// exactly once.
func (s *HousekeepingService) Start() {
	go s.run()
}

// Stop blocks until an in-progress cleanup has finished.
func (s *HousekeepingService) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.cleanup()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *HousekeepingService) cleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	n, err := s.Pruner.DeleteExpired(ctx)
	if err != nil {
		s.Logger.Error("failed to prune expired credentials", "error", err)
		return
	}
	if n > 0 {
		s.Logger.Info("pruned expired credentials", "count", n)
	}
}
