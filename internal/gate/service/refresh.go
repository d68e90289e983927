package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultRefreshTimeout bounds one token endpoint exchange.
	DefaultRefreshTimeout = 15 * time.Second

	// DefaultSignOutDelay lets in-flight work settle before OnSignedOut runs.
	DefaultSignOutDelay = 1500 * time.Millisecond

	// RotationGrace is how long a rotated-out refresh credential still maps
	// to the pair that replaced it.
	RotationGrace = 30 * time.Second

	rotationMemoSize = 4096
)

// RefreshOutcome classifies one refresh attempt.
type RefreshOutcome int

const (
	RefreshOK RefreshOutcome = iota
	RefreshNoCredential
	RefreshTransient
	RefreshPermanent
)

func (o RefreshOutcome) String() string {
	switch o {
	case RefreshOK:
		return "ok"
	case RefreshNoCredential:
		return "no_credential"
	case RefreshTransient:
		return "transient"
	case RefreshPermanent:
		return "permanent"
	default:
		return "unknown"
	}
}

// RefreshResult is what Refresh did.
type RefreshResult struct {
	Outcome RefreshOutcome

	// AccessToken is the new access credential on RefreshOK.
	AccessToken string

	// Shared is set when the result came from another caller's exchange.
	Shared bool
}

// TokenRefresher performs the refresh_token grant. *authsdk.Client
// satisfies it.
type TokenRefresher interface {
	RefreshGrant(ctx context.Context, refreshToken string) (*authsdk.TokenResponse, error)
}

type tokenPair struct {
	access  string
	refresh string
}

// RefreshService exchanges refresh credentials for new token pairs.
//
// At most one exchange per refresh credential is in flight in this process.
// Concurrent callers holding the same credential wait for it and each writes
// the shared pair to its own store. A caller arriving shortly after a rotation
// with the old credential gets the new pair instead of a rejected exchange.
type RefreshService struct {
	IdP          TokenRefresher
	Timeout      time.Duration
	SignOutDelay time.Duration

	// OnSignedOut runs SignOutDelay after a refresh credential is rejected.
	OnSignedOut func()

	Metrics Metrics

	group   singleflight.Group
	rotated *expirable.LRU[string, tokenPair]
}

// NewRefreshService returns a RefreshService with default timings.
func NewRefreshService(idp TokenRefresher) *RefreshService {
	return &RefreshService{
		IdP:          idp,
		Timeout:      DefaultRefreshTimeout,
		SignOutDelay: DefaultSignOutDelay,
		rotated:      expirable.NewLRU[string, tokenPair](rotationMemoSize, nil, RotationGrace),
	}
}

// RefreshAccessCredential refreshes the credentials held by st and reports
// success. Failures are logged, never returned.
func (s *RefreshService) RefreshAccessCredential(ctx context.Context, st store.Store) bool {
	res, _ := s.Refresh(ctx, st)
	return res.Outcome == RefreshOK
}

// Refresh exchanges the refresh credential in st.
//
//   - no refresh credential: RefreshNoCredential, no network call
//   - success: both credentials written with store.DefaultMaxAge
//   - rejected by the identity provider (4xx): both credentials cleared,
//     OnSignedOut scheduled
//   - anything else: RefreshTransient, st untouched
func (s *RefreshService) Refresh(ctx context.Context, st store.Store) (RefreshResult, error) {
	m := orNop(s.Metrics)

	refresh, ok := st.Get(store.RefreshCredential)
	if !ok {
		m.RefreshAttempt(RefreshNoCredential.String(), false)
		return RefreshResult{Outcome: RefreshNoCredential}, domain.ErrNoCredential
	}

	fp := cryptox.FingerprintToken(refresh)
	l := slogx.FromContext(ctx).With(slog.String("refresh_fp", cryptox.ShortFingerprint(refresh)))

	if pair, ok := s.rotated.Get(fp); ok {
		store.SetPair(st, pair.access, pair.refresh)
		l.Debug("refresh served from rotation memo")
		m.RefreshAttempt(RefreshOK.String(), true)
		return RefreshResult{Outcome: RefreshOK, AccessToken: pair.access, Shared: true}, nil
	}

	v, err, shared := s.group.Do(fp, func() (any, error) {
		// The exchange belongs to every waiting caller, not just the first.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout())
		defer cancel()

		tok, err := s.IdP.RefreshGrant(ctx, refresh)
		if err != nil {
			return nil, err
		}

		pair := tokenPair{access: tok.AccessToken, refresh: tok.RefreshToken}
		if pair.refresh == "" {
			pair.refresh = refresh
		}
		if pair.refresh != refresh {
			s.rotated.Add(fp, pair)
		}
		return pair, nil
	})

	if err != nil {
		if authsdk.IsPermanent(err) {
			// Another path may already have stored a newer pair.
			if current, _ := st.Get(store.RefreshCredential); current == refresh {
				store.ClearAll(st)
				l.Info("refresh credential rejected, credentials cleared", slog.Any("error", err))
			}
			s.scheduleSignOut()
			m.RefreshAttempt(RefreshPermanent.String(), shared)
			return RefreshResult{Outcome: RefreshPermanent, Shared: shared}, fmt.Errorf("%w: %w", domain.ErrRefreshPermanent, err)
		}

		l.Warn("refresh failed, will retry later", slog.Any("error", err))
		m.RefreshAttempt(RefreshTransient.String(), shared)
		return RefreshResult{Outcome: RefreshTransient, Shared: shared}, fmt.Errorf("%w: %w", domain.ErrRefreshTransient, err)
	}

	pair := v.(tokenPair)
	store.SetPair(st, pair.access, pair.refresh)

	l.Debug("access credential refreshed", slog.Bool("shared", shared), slog.Bool("rotated", pair.refresh != refresh))
	m.RefreshAttempt(RefreshOK.String(), shared)
	return RefreshResult{Outcome: RefreshOK, AccessToken: pair.access, Shared: shared}, nil
}

func (s *RefreshService) scheduleSignOut() {
	if s.OnSignedOut == nil {
		return
	}
	time.AfterFunc(s.SignOutDelay, s.OnSignedOut)
}

func (s *RefreshService) timeout() time.Duration {
	if s.Timeout <= 0 {
		return DefaultRefreshTimeout
	}
	return s.Timeout
}
