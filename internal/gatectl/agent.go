// Package gatectl is the command line agent: it logs in through the
// identity provider, keeps credentials in a local sqlite database and runs
// the same refresh and capability logic as the gateway against them.
package gatectl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/internal/gate/store/drivers/sqlite"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// revokeTimeout bounds the best-effort revocation on logout.
const revokeTimeout = 5 * time.Second

// Agent operates on the credentials of one profile.
type Agent struct {
	cfg    Config
	logger *slog.Logger

	db    *sqlite.Store
	store *sqlite.ProfileStore

	idp          *authsdk.Client
	decoder      *jwtx.Decoder
	refresh      *service.RefreshService
	capabilities *service.CapabilityService // nil without a backend

	// Now defaults to time.Now.
	Now func() time.Time
}

// Open opens (creating if needed) the credential database and prepares the
// identity provider and backend clients.
func Open(cfg Config, logger *slog.Logger) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "oauth2-pkce"
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create credential directory: %w", err)
		}
	}

	db, err := sqlite.NewStore(cfg.DBPath, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open credential database: %w", err)
	}
	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate credential database: %w", err)
	}

	transport := otelhttp.NewTransport(http.DefaultTransport)

	a := &Agent{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		store:   db.Profile(cfg.Profile),
		decoder: jwtx.NewDecoder(cfg.ClientID),
		Now:     time.Now,
	}

	a.idp = authsdk.NewClient(authsdk.Config{
		IssuerURL:    cfg.IssuerURL,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Timeout:      cfg.HTTPTimeout,
		Transport:    transport,
	})

	a.refresh = service.NewRefreshService(a.idp)
	if cfg.HTTPTimeout > 0 {
		a.refresh.Timeout = cfg.HTTPTimeout
	}

	if cfg.BackendURL != "" {
		client := &http.Client{Timeout: a.idp.HTTPClient.Timeout, Transport: transport}
		a.capabilities = service.NewCapabilityService(
			service.NewBackendManifestSource(cfg.BackendURL, cfg.ManifestPath, client), 0)
	}

	return a, nil
}

func (a *Agent) Close() error {
	return a.db.Close()
}

// Store is the profile's credential store.
func (a *Agent) Store() store.Store {
	return a.store
}

// Profiles lists every profile holding a live credential.
func (a *Agent) Profiles(ctx context.Context) ([]string, error) {
	return a.db.Profiles(ctx)
}

// Status describes the stored session of a profile.
type Status struct {
	Profile    string
	Session    jwtx.Session
	Expired    bool
	TimeLeft   time.Duration
	HasRefresh bool
}

// Status decodes the stored access credential. It fails with
// domain.ErrNoCredential when nothing is stored.
func (a *Agent) Status() (Status, error) {
	access, ok := a.store.Get(store.AccessCredential)
	if !ok {
		return Status{}, domain.ErrNoCredential
	}

	sess, err := a.decoder.Decode(access)
	if err != nil {
		return Status{}, err
	}

	_, hasRefresh := a.store.Get(store.RefreshCredential)
	now := a.Now()
	return Status{
		Profile:    a.cfg.Profile,
		Session:    sess,
		Expired:    sess.IsExpired(now),
		TimeLeft:   sess.TimeLeft(now),
		HasRefresh: hasRefresh,
	}, nil
}

// Refresh exchanges the stored refresh credential once.
func (a *Agent) Refresh(ctx context.Context) (service.RefreshResult, error) {
	if err := a.cfg.requireIssuer(); err != nil {
		return service.RefreshResult{}, err
	}
	return a.refresh.Refresh(ctx, a.store)
}

// Can reports whether the stored session's manifest grants action. An
// access credential close to expiry is refreshed first.
func (a *Agent) Can(ctx context.Context, action string) (bool, error) {
	if a.capabilities == nil {
		return false, errors.New("a backend URL is required (--backend-url or GATE_BACKEND_URL)")
	}

	access, sess, err := a.freshAccess(ctx)
	if err != nil {
		return false, err
	}

	viewer := a.capabilities.For(sess, access)
	manifest, err := viewer.Manifest(ctx)
	if err != nil {
		return false, err
	}
	return manifest.HasAction(action), nil
}

// Logout clears the profile and revokes its refresh credential when it can.
// Revocation failures are logged only.
func (a *Agent) Logout(ctx context.Context) {
	refresh, ok := a.store.Get(store.RefreshCredential)
	store.ClearAll(a.store)
	if a.capabilities != nil {
		a.capabilities.Invalidate()
	}

	if !ok || a.cfg.IssuerURL == "" {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, revokeTimeout)
	defer cancel()
	if err := a.idp.RevokeRefreshToken(ctx, refresh); err != nil {
		a.logger.Warn("failed to revoke refresh credential", "error", err)
	}
}

func (a *Agent) freshAccess(ctx context.Context) (string, jwtx.Session, error) {
	access, ok := a.store.Get(store.AccessCredential)
	if !ok {
		return "", jwtx.Session{}, domain.ErrNoCredential
	}
	sess, err := a.decoder.Decode(access)
	if err != nil {
		return "", jwtx.Session{}, err
	}

	if !sess.IsExpiringSoon(a.Now(), jwtx.DefaultExpiryHorizon) {
		return access, sess, nil
	}
	if _, ok := a.store.Get(store.RefreshCredential); !ok || a.cfg.IssuerURL == "" {
		if sess.IsExpired(a.Now()) {
			return "", jwtx.Session{}, domain.ErrExpired
		}
		return access, sess, nil
	}

	res, err := a.refresh.Refresh(ctx, a.store)
	if err != nil {
		return "", jwtx.Session{}, err
	}
	sess, err = a.decoder.Decode(res.AccessToken)
	if err != nil {
		return "", jwtx.Session{}, err
	}
	return res.AccessToken, sess, nil
}
