package gatectl

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
)

// ErrKeepAliveStopped is returned by Watch when the loop ended on its own:
// the credential is gone, unreadable, or could not be refreshed.
var ErrKeepAliveStopped = errors.New("keep-alive stopped, log in again")

// WatchOptions tunes the keep-alive loop. Zero values use the defaults.
type WatchOptions struct {
	Interval             time.Duration
	Horizon              time.Duration
	HousekeepingInterval time.Duration
}

// Watch keeps the profile's access credential fresh until ctx is cancelled
// or the loop gives up. Cancellation is a clean exit.
func (a *Agent) Watch(ctx context.Context, opts WatchOptions) error {
	if err := a.cfg.requireIssuer(); err != nil {
		return err
	}

	ka := service.NewKeepAliveService(a.refresh, a.store, a.decoder, a.logger)
	ka.Now = a.Now
	if opts.Interval > 0 {
		ka.Interval = opts.Interval
	}
	if opts.Horizon > 0 {
		ka.Horizon = opts.Horizon
	}

	hk := NewHousekeepingService(a.db, a.logger, opts.HousekeepingInterval)
	hk.Start()
	defer hk.Stop()

	ka.Start(ctx)
	select {
	case <-ctx.Done():
		ka.Stop()
		return nil
	case <-ka.Done():
		if ctx.Err() != nil {
			return nil
		}
		return ErrKeepAliveStopped
	}
}
