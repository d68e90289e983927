package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/metrics"
	"github.com/aussiebroadwan/portalgate/internal/gate/policy"
	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/gorilla/securecookie"

	_ "github.com/aussiebroadwan/portalgate/api/gate" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// IdentityProvider is the part of *authsdk.Client the handlers use.
type IdentityProvider interface {
	BuildAuthorizeURL(state string, pkce *authsdk.PKCEChallenge) string
	ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (*authsdk.TokenResponse, error)
	RevokeRefreshToken(ctx context.Context, refreshToken string) error
	Ping(ctx context.Context) error
}

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	cookies      store.CookieOptions
	loginCodec   *securecookie.SecureCookie
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	IdP               IdentityProvider
	Policy            *policy.Holder
	Decoder           *jwtx.Decoder
	Verifier          jwtx.SignatureVerifier // Optional: signatures are not checked when nil
	GateService       *service.GateService
	RefreshService    *service.RefreshService
	CapabilityService *service.CapabilityService
	Metrics           *metrics.Metrics // Optional: no /metrics route when nil

	// Upstream serves every page the gate lets through.
	Upstream http.Handler

	// Backend forwards /api/ calls. Optional: /api/ answers 404 when nil.
	Backend *BackendProxy

	// Now is the clock used for expiry checks.
	Now func() time.Time
}

// NewRouter builds a router. loginCodec seals the short-lived login cookie
// that carries state and the PKCE verifier to the callback.
func NewRouter(
	cookies store.CookieOptions,
	loginCodec *securecookie.SecureCookie,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		cookies:      cookies,
		loginCodec:   loginCodec,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
		Now:          time.Now,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger, "/livez", "/readyz", "/metrics"),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	// Metrics must wrap the mux directly to see the matched pattern.
	if r.Metrics != nil {
		r.middlewares = append(r.middlewares, r.Metrics.HTTPMiddleware)
	}

	r.registerAuth()
	r.registerAPI()
	r.registerSystem()
	r.registerGate()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Portal Gate API
//	@version		0.1.0
//	@description	Session gateway in front of the portal. It runs the Keycloak authorization code flow,
//	@description	keeps the access and refresh credentials in HttpOnly cookies and refreshes them on demand.
//	@description
//	@description	Every page request passes through the access gate, which either forwards it upstream or redirects.
//
//	@contact.name	AussieBroadWAN Team
//	@contact.url	https://github.com/aussiebroadwan/portalgate
//
//	@license.name	MIT
//	@license.url	https://opensource.org/licenses/MIT
//
//	@host			localhost:3000
//	@BasePath		/
//
//	@schemes		http https
//
//	@securityDefinitions.apikey	CookieAuth
//	@in							cookie
//	@name						keycloak-token
//	@description				Access credential cookie written by /auth/callback and /auth/refresh.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	login := &LoginHandler{IdP: r.IdP, Codec: r.loginCodec, Cookies: r.cookies}
	callback := &CallbackHandler{IdP: r.IdP, Codec: r.loginCodec, Cookies: r.cookies}

	// Login and callback hit the identity provider - strict rate limit by IP
	r.Mux.Handle("GET /auth/login",
		httpx.Chain(login,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /auth/callback",
		httpx.Chain(callback,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/refresh - moderate rate limit (called by the browser on expiry)
	refresh := &RefreshHandler{RefreshService: r.RefreshService, Cookies: r.cookies}
	r.Mux.Handle("POST /auth/refresh",
		httpx.Chain(refresh,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	session := &SessionHandler{Now: r.Now}
	r.Mux.Handle("GET /auth/session",
		httpx.Chain(session,
			httpx.AuthnMiddleware(r.resolveSession),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)

	logout := &LogoutHandler{IdP: r.IdP, Cookies: r.cookies, CapabilityService: r.CapabilityService}
	r.Mux.Handle("GET /logout",
		httpx.Chain(logout,
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerAPI() {
	nav := &NavigationHandler{CapabilityService: r.CapabilityService}
	r.Mux.Handle("GET /api/navigation/{functionCode}",
		httpx.Chain(nav,
			httpx.AuthnMiddleware(r.resolveSession),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)

	caps := &CapabilitiesHandler{CapabilityService: r.CapabilityService}
	r.Mux.Handle("GET /api/capabilities",
		httpx.Chain(caps,
			httpx.AuthnMiddleware(r.resolveSession),
			httpx.RateLimitBySubject(httpx.LenientLimit),
		),
	)

	// Everything else under /api/ is forwarded to the backend
	var backend http.Handler = http.NotFoundHandler()
	if r.Backend != nil {
		backend = r.Backend
	}
	r.Mux.Handle("/api/{path...}",
		httpx.Chain(backend,
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.IdP, r.Policy),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)

	if r.Metrics != nil {
		r.Mux.Handle("GET /metrics", r.Metrics.Handler())
	}
}

func (r *Router) registerGate() {
	gate := &GateHandler{
		GateService: r.GateService,
		Upstream:    r.Upstream,
		Cookies:     r.cookies,
		Now:         r.Now,
	}

	// Pages and assets - public rate limit by IP
	r.Mux.Handle("/",
		httpx.Chain(gate,
			httpx.RateLimitByIP(httpx.PublicLimit),
		),
	)
}
