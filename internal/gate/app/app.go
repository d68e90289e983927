package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/aussiebroadwan/portalgate/internal/gate/http"
	"github.com/aussiebroadwan/portalgate/internal/gate/metrics"
	"github.com/aussiebroadwan/portalgate/internal/gate/policy"
	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/coreos/go-oidc/v3/oidc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"

	// loginCookiePurpose separates the login cookie keys from any other
	// keys derived from the same secret.
	loginCookiePurpose = "portalgate/login-cookie"
)

// Application encapsulates the gateway with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// bgCtx scopes background work such as JWKS fetches
	bgCtx    context.Context
	bgCancel context.CancelFunc

	// Core dependencies
	metrics   *metrics.Metrics
	policy    *policy.Holder
	watcher   *policy.Watcher // Optional: only when a policy file is configured
	idp       *authsdk.Client
	decoder   *jwtx.Decoder
	verifier  jwtx.SignatureVerifier // Optional: only when signature checks are enabled
	transport http.RoundTripper

	// Services
	gateService       *service.GateService
	refreshService    *service.RefreshService
	capabilityService *service.CapabilityService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "portalgate",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		metrics:   metrics.New(),
		transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	app.bgCtx, app.bgCancel = context.WithCancel(context.Background())

	if err := app.initPolicy(); err != nil {
		app.bgCancel()
		return nil, err
	}

	app.initIdentityProvider()
	app.initServices()

	if err := app.initHTTP(); err != nil {
		app.stopPolicyWatcher()
		app.bgCancel()
		return nil, err
	}

	return app, nil
}

// Handler is the fully wired HTTP handler.
func (app *Application) Handler() http.Handler {
	return app.server.Handler
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	app.logger.Info("portal gate starting",
		"port", app.cfg.Port,
		"version", BuildVersion,
		"issuer", app.cfg.IssuerURL,
		"upstream", app.cfg.UpstreamURL,
		"verify_signatures", app.cfg.VerifySignatures,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down portal gate...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	var shutdownErr error
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		shutdownErr = err
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.stopPolicyWatcher()
	app.bgCancel()

	app.logger.Info("portal gate stopped")
	return shutdownErr
}

// initPolicy loads the route policy and, when it comes from a file, starts
// watching it for changes.
func (app *Application) initPolicy() error {
	if app.cfg.PolicyFile == "" {
		app.policy = policy.NewHolder(policy.DefaultPolicy())
		app.logger.Info("using built-in route policy")
		return nil
	}

	p, err := policy.Load(app.cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load route policy: %w", err)
	}
	app.policy = policy.NewHolder(p)

	app.watcher = policy.NewWatcher(app.cfg.PolicyFile, app.policy, app.logger)
	app.watcher.OnReload = app.metrics.PolicyReload
	if err := app.watcher.Start(); err != nil {
		app.watcher = nil
		return fmt.Errorf("failed to watch route policy: %w", err)
	}
	return nil
}

func (app *Application) stopPolicyWatcher() {
	if app.watcher != nil {
		app.watcher.Stop()
		app.watcher = nil
	}
}

// initIdentityProvider builds the identity provider client and, when enabled,
// the signature verifier fed from its key set.
func (app *Application) initIdentityProvider() {
	app.idp = authsdk.NewClient(authsdk.Config{
		IssuerURL:    app.cfg.IssuerURL,
		ClientID:     app.cfg.ClientID,
		ClientSecret: app.cfg.ClientSecret,
		RedirectURL:  app.cfg.CallbackURL(),
		Timeout:      app.cfg.HTTPTimeout,
		Transport:    app.transport,
	})
	app.decoder = jwtx.NewDecoder(app.cfg.ClientID)

	if app.cfg.VerifySignatures {
		keyCtx := oidc.ClientContext(app.bgCtx, app.idp.HTTPClient)
		app.verifier = jwtx.NewJWKSVerifier(keyCtx, app.idp.CertsURL())
		app.logger.Info("credential signature verification enabled", "jwks", app.idp.CertsURL())
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.gateService = &service.GateService{
		Policy:   app.policy,
		Decoder:  app.decoder,
		Verifier: app.verifier,
		Metrics:  app.metrics,
	}

	app.refreshService = service.NewRefreshService(app.idp)
	app.refreshService.Timeout = app.cfg.HTTPTimeout
	app.refreshService.Metrics = app.metrics

	backendClient := &http.Client{Timeout: app.cfg.HTTPTimeout, Transport: app.transport}
	app.capabilityService = service.NewCapabilityService(
		service.NewBackendManifestSource(app.cfg.BackendURL, app.cfg.ManifestPath, backendClient),
		app.cfg.ManifestTTL,
	)
	app.capabilityService.Metrics = app.metrics
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() error {
	keys, err := cryptox.DeriveCookieKeys([]byte(app.cfg.CookieSecret), loginCookiePurpose)
	if err != nil {
		return fmt.Errorf("failed to derive cookie keys: %w", err)
	}

	upstreamURL, err := url.Parse(app.cfg.UpstreamURL)
	if err != nil {
		return fmt.Errorf("invalid upstream URL: %w", err)
	}
	backendURL, err := url.Parse(app.cfg.BackendURL)
	if err != nil {
		return fmt.Errorf("invalid backend URL: %w", err)
	}

	cookies := store.CookieOptions{Secure: app.cfg.CookieSecure, Domain: app.cfg.CookieDomain}

	router := httpapi.NewRouter(cookies, httpapi.NewLoginCodec(keys), BuildVersion, app.logger)

	// Wire services to router
	router.IdP = app.idp
	router.Policy = app.policy
	router.Decoder = app.decoder
	router.Verifier = app.verifier
	router.GateService = app.gateService
	router.RefreshService = app.refreshService
	router.CapabilityService = app.capabilityService
	router.Metrics = app.metrics
	router.Upstream = httpapi.NewUpstreamProxy(upstreamURL, app.transport)
	router.Backend = httpapi.NewBackendProxy(
		backendURL,
		&http.Client{Timeout: app.cfg.HTTPTimeout, Transport: app.transport},
		app.refreshService,
		app.decoder,
		cookies,
	)
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           otelhttp.NewHandler(router, "portalgate"),
		ReadHeaderTimeout: 3 * time.Second,
	}
	return nil
}
