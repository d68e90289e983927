package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultManifestTTL is how long a fetched manifest is served from cache.
	DefaultManifestTTL = 5 * time.Minute

	manifestCacheSize = 256
)

// ManifestSource fetches the manifest of one function code.
type ManifestSource interface {
	FetchManifest(ctx context.Context, functionCode, accessToken string) (*domain.Manifest, error)
}

// CapabilityService answers role and action questions for a session from its
// credential and the cached manifest of its primary role.
type CapabilityService struct {
	Source  ManifestSource
	Metrics Metrics

	cache *expirable.LRU[string, *domain.Manifest]
	group singleflight.Group
}

// NewCapabilityService caches manifests for ttl, DefaultManifestTTL when
// zero.
func NewCapabilityService(src ManifestSource, ttl time.Duration) *CapabilityService {
	if ttl <= 0 {
		ttl = DefaultManifestTTL
	}
	return &CapabilityService{
		Source: src,
		cache:  expirable.NewLRU[string, *domain.Manifest](manifestCacheSize, nil, ttl),
	}
}

// Manifest returns the manifest for functionCode, fetching it with
// accessToken when it is not cached. Cached manifests are shared and must not
// be modified.
func (c *CapabilityService) Manifest(ctx context.Context, functionCode, accessToken string) (*domain.Manifest, error) {
	m := orNop(c.Metrics)

	if functionCode == "" {
		return nil, fmt.Errorf("%w: no function code", domain.ErrManifestUnavailable)
	}
	if cached, ok := c.cache.Get(functionCode); ok {
		m.ManifestLookup("hit")
		return cached, nil
	}

	v, err, _ := c.group.Do(functionCode, func() (any, error) {
		manifest, err := c.Source.FetchManifest(context.WithoutCancel(ctx), functionCode, accessToken)
		if err != nil {
			return nil, err
		}
		c.cache.Add(functionCode, manifest)
		return manifest, nil
	})
	if err != nil {
		m.ManifestLookup("error")
		slogx.FromContext(ctx).Warn("manifest unavailable",
			slog.String("function_code", functionCode),
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrManifestUnavailable, err)
	}

	m.ManifestLookup("miss")
	return v.(*domain.Manifest), nil
}

// Invalidate drops every cached manifest.
func (c *CapabilityService) Invalidate() {
	c.cache.Purge()
}

// For binds the service to one session.
func (c *CapabilityService) For(sess jwtx.Session, accessToken string) *Viewer {
	return &Viewer{svc: c, session: sess, token: accessToken}
}

// Viewer answers capability questions for one session. Manifest failures
// read as "no capability"; they never end the session.
type Viewer struct {
	svc     *CapabilityService
	session jwtx.Session
	token   string
}

// FunctionCode is the manifest key, the session's primary role.
func (v *Viewer) FunctionCode() string {
	return v.session.PrimaryRole()
}

// Roles are the session's client-scoped roles.
func (v *Viewer) Roles() []string {
	return v.session.Roles
}

func (v *Viewer) HasRole(role string) bool {
	return v.session.HasRole(role)
}

func (v *Viewer) Manifest(ctx context.Context) (*domain.Manifest, error) {
	return v.svc.Manifest(ctx, v.FunctionCode(), v.token)
}

// HasAction reports whether any manifest item lists the action code.
func (v *Viewer) HasAction(ctx context.Context, code string) bool {
	m, err := v.Manifest(ctx)
	if err != nil {
		return false
	}
	return m.HasAction(code)
}

// HasModule reports whether any manifest item carries the module code.
func (v *Viewer) HasModule(ctx context.Context, code string) bool {
	m, err := v.Manifest(ctx)
	if err != nil {
		return false
	}
	return m.HasModule(code)
}

// AllActions flattens the manifest's actions in order, duplicates kept. It is
// empty when the manifest is unavailable.
func (v *Viewer) AllActions(ctx context.Context) []domain.Action {
	m, err := v.Manifest(ctx)
	if err != nil {
		return []domain.Action{}
	}
	if actions := m.Actions(); actions != nil {
		return actions
	}
	return []domain.Action{}
}
