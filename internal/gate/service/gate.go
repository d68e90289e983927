package service

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gate/policy"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

// ComingSoonPath receives requests for routes declared in navigation but not
// built yet.
const ComingSoonPath = "/coming-soon"

// PolicySource hands out the current policy snapshot. *policy.Holder
// satisfies it.
type PolicySource interface {
	Load() *policy.Policy
}

// GateService decides, per request path, whether to pass the request on or
// where to redirect it.
type GateService struct {
	Policy  PolicySource
	Decoder *jwtx.Decoder

	// Verifier, when set, checks credential signatures before decoding.
	Verifier jwtx.SignatureVerifier

	Metrics Metrics
}

// Evaluate runs the gate for one request. Checks run strictly in order and
// the first terminal one wins:
//
//  1. system paths and the auth namespace pass
//  2. public and file-like paths pass
//  3. no access credential: login redirect
//  4. unreadable credential: login redirect, access credential cleared
//  5. expired credential: pass when a refresh credential exists, otherwise
//     login redirect with both credentials cleared
//  6. no required role: unauthorized redirect, credentials kept
//  7. declared but unbuilt route: coming soon redirect
//  8. unknown route: pass through to not-found handling
//  9. pass
func (g *GateService) Evaluate(ctx context.Context, path string, st store.Store, now time.Time) domain.Decision {
	p := g.Policy.Load()
	class := p.Classify(path)

	d := g.evaluate(ctx, p, class, path, st, now)

	orNop(g.Metrics).GateDecision(class.String(), d.Outcome.String())
	slogx.FromContext(ctx).Debug("gate decision",
		slog.String("path", path),
		slog.String("class", class.String()),
		slog.String("outcome", d.Outcome.String()),
		slog.String("reason", d.Reason),
	)
	return d
}

func (g *GateService) evaluate(ctx context.Context, p *policy.Policy, class policy.Class, path string, st store.Store, now time.Time) domain.Decision {
	if class == policy.System || inAuthNamespace(path) {
		return domain.Decision{Outcome: domain.Pass}
	}
	if class == policy.Public {
		return domain.Decision{Outcome: domain.Pass}
	}

	access, ok := st.Get(store.AccessCredential)
	if !ok {
		return loginRedirect(domain.ReasonNoToken, domain.ErrNoCredential)
	}

	sess, err := jwtx.VerifyAndDecode(ctx, g.Verifier, g.Decoder, access)
	if err != nil {
		st.Clear(store.AccessCredential)
		slogx.FromContext(ctx).Info("unreadable access credential cleared", slog.Any("error", err))
		return loginRedirect(domain.ReasonInvalidToken, err)
	}

	if sess.IsExpired(now) {
		if _, ok := st.Get(store.RefreshCredential); ok {
			return domain.Decision{Outcome: domain.Pass, Reason: domain.ReasonTokenExpired, Refreshable: true, Session: &sess}
		}
		store.ClearAll(st)
		slogx.FromContext(ctx).Info("expired credentials cleared", slog.String("sub", sess.Subject))
		return loginRedirect(domain.ReasonTokenExpired, domain.ErrExpired)
	}

	if !p.Authorized(sess.Roles) {
		return domain.Decision{
			Outcome:  domain.RedirectUnauthorized,
			Location: p.UnauthorizedLocation(),
			Reason:   domain.ReasonInsufficientPermissions,
			Err:      domain.ErrInsufficientRole,
			Session:  &sess,
		}
	}

	switch p.Placement(path) {
	case policy.ComingSoon:
		return domain.Decision{
			Outcome:  domain.RedirectComingSoon,
			Location: ComingSoonPath + "?intended=" + url.QueryEscape(path),
			Reason:   "coming_soon",
			Session:  &sess,
		}
	case policy.Unknown:
		return domain.Decision{Outcome: domain.PassThroughNotFound, Reason: "unknown_route", Session: &sess}
	}

	return domain.Decision{Outcome: domain.Pass, Session: &sess}
}

// LoginLocation is the login redirect target for reason.
func LoginLocation(reason string) string {
	return "/?error=" + url.QueryEscape(reason)
}

func loginRedirect(reason string, err error) domain.Decision {
	return domain.Decision{Outcome: domain.RedirectLogin, Location: LoginLocation(reason), Reason: reason, Err: err}
}

func inAuthNamespace(path string) bool {
	return path == "/auth" || strings.HasPrefix(path, "/auth/")
}
