package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
)

// DefaultKeepAliveInterval is how often the loop looks at the credential.
const DefaultKeepAliveInterval = 120 * time.Second

// Refresher is the part of RefreshService the keep-alive loop needs.
type Refresher interface {
	Refresh(ctx context.Context, st store.Store) (RefreshResult, error)
}

// KeepAliveService refreshes the access credential in Store before it
// expires. The loop stops itself when there is no credential, when the
// credential cannot be decoded, or when a refresh fails; it does not retry a
// failing identity provider.
type KeepAliveService struct {
	Refresher Refresher
	Store     store.Store
	Decoder   *jwtx.Decoder
	Logger    *slog.Logger
	Interval  time.Duration
	Horizon   time.Duration

	// Now defaults to time.Now.
	Now func() time.Time

	mu      sync.Mutex
	current *keepAliveRun
}

type keepAliveRun struct {
	stopCh chan struct{}
	doneCh chan struct{}
}

// NewKeepAliveService creates a keep-alive loop with the default interval and
// expiry horizon.
func NewKeepAliveService(r Refresher, st store.Store, d *jwtx.Decoder, logger *slog.Logger) *KeepAliveService {
	return &KeepAliveService{
		Refresher: r,
		Store:     st,
		Decoder:   d,
		Logger:    logger,
		Interval:  DefaultKeepAliveInterval,
		Horizon:   jwtx.DefaultExpiryHorizon,
		Now:       time.Now,
	}
}

// Start begins the background loop. The first check runs immediately.
// Starting a running loop stops the previous instance first. Cancelling ctx
// ends the loop.
func (s *KeepAliveService) Start(ctx context.Context) {
	run := &keepAliveRun{
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	s.mu.Lock()
	prev := s.current
	s.current = run
	s.mu.Unlock()

	if prev != nil {
		close(prev.stopCh)
		<-prev.doneCh
	}

	go s.run(ctx, run)
	s.Logger.Info("keep-alive started", "interval", s.interval(), "horizon", s.Horizon)
}

// Stop ends the loop and blocks until the worker has exited. It is a no-op
// when nothing runs.
func (s *KeepAliveService) Stop() {
	s.mu.Lock()
	run := s.current
	s.current = nil
	s.mu.Unlock()

	if run == nil {
		return
	}
	close(run.stopCh)
	<-run.doneCh
}

// Running reports whether a loop is active.
func (s *KeepAliveService) Running() bool {
	s.mu.Lock()
	run := s.current
	s.mu.Unlock()

	if run == nil {
		return false
	}
	select {
	case <-run.doneCh:
		return false
	default:
		return true
	}
}

// Done is closed when the current loop exits, whether stopped or by itself.
// It returns a closed channel when nothing runs.
func (s *KeepAliveService) Done() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return s.current.doneCh
}

func (s *KeepAliveService) run(ctx context.Context, run *keepAliveRun) {
	defer close(run.doneCh)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	if !s.check(ctx) {
		return
	}

	for {
		select {
		case <-ticker.C:
			if !s.check(ctx) {
				return
			}
		case <-run.stopCh:
			s.Logger.Info("keep-alive stopped")
			return
		case <-ctx.Done():
			s.Logger.Info("keep-alive cancelled")
			return
		}
	}
}

// check runs one iteration and reports whether the loop should continue.
func (s *KeepAliveService) check(ctx context.Context) bool {
	access, ok := s.Store.Get(store.AccessCredential)
	if !ok {
		s.Logger.Info("keep-alive stopping, no access credential")
		return false
	}

	sess, err := s.Decoder.Decode(access)
	if err != nil {
		s.Logger.Warn("keep-alive stopping, access credential unreadable", "error", err)
		return false
	}

	now := s.now()
	if !sess.IsExpiringSoon(now, s.Horizon) {
		s.Logger.Debug("access credential still fresh", "time_left", sess.TimeLeft(now).Round(time.Second))
		return true
	}

	res, err := s.Refresher.Refresh(ctx, s.Store)
	if err != nil {
		s.Logger.Warn("keep-alive stopping, refresh failed", "outcome", res.Outcome.String(), "error", err)
		return false
	}

	s.Logger.Info("access credential refreshed ahead of expiry", "shared", res.Shared)
	return true
}

func (s *KeepAliveService) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultKeepAliveInterval
	}
	return s.Interval
}

func (s *KeepAliveService) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}
