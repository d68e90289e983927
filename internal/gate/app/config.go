package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
)

type Config struct {
	IssuerURL    string // Required: realm issuer, e.g. https://id.example.com/realms/app
	ClientID     string // Optional: client registration (default: oauth2-pkce)
	ClientSecret string // Optional: empty for public PKCE clients
	PublicURL    string // Optional: external base URL used for the callback (default: http://localhost:<port>)

	UpstreamURL  string        // Optional: application server receiving gated pages (default: http://localhost:3001)
	BackendURL   string        // Optional: backend API behind /api/ (default: http://localhost:8080)
	ManifestPath string        // Optional: backend path serving navigation manifests
	ManifestTTL  time.Duration // Optional: manifest cache lifetime (default: 5m)
	PolicyFile   string        // Optional: route policy YAML, watched for changes

	CookieSecret     string // Required: at least 32 bytes, seals the login cookie
	CookieSecure     bool   // Optional: mark cookies HTTPS-only (default: true outside dev)
	CookieDomain     string // Optional: cookie domain
	VerifySignatures bool   // Optional: check credential signatures against the issuer's keys

	HTTPTimeout         time.Duration // Optional: timeout for calls to the identity provider and backend (default: 15s)
	Env                 string        // Environment (dev, staging, prod) (default: dev)
	LogLevel            string        // Log level (debug, info, warn, error) (default: info)
	LogFormat           string        // Log format (json, text) (default: json)
	Port                int           // HTTP server port (default: 3000)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)
}

func LoadConfig() Config {
	cfg := Config{
		IssuerURL:    os.Getenv("GATE_ISSUER_URL"),
		ClientID:     getEnvOrDefault("GATE_CLIENT_ID", "oauth2-pkce"),
		ClientSecret: os.Getenv("GATE_CLIENT_SECRET"),
		PublicURL:    os.Getenv("GATE_PUBLIC_URL"),

		UpstreamURL:  getEnvOrDefault("GATE_UPSTREAM_URL", "http://localhost:3001"),
		BackendURL:   getEnvOrDefault("GATE_BACKEND_URL", "http://localhost:8080"),
		ManifestPath: os.Getenv("GATE_MANIFEST_PATH"),
		ManifestTTL:  getEnvDurationOrDefault("GATE_MANIFEST_TTL", 5*time.Minute),
		PolicyFile:   os.Getenv("GATE_POLICY_FILE"),

		CookieSecret:     os.Getenv("GATE_COOKIE_SECRET"),
		CookieDomain:     os.Getenv("GATE_COOKIE_DOMAIN"),
		VerifySignatures: getEnvBoolOrDefault("GATE_VERIFY_SIGNATURES", false),

		HTTPTimeout:         getEnvDurationOrDefault("GATE_HTTP_TIMEOUT", 15*time.Second),
		Env:                 getEnvOrDefault("ENV", "dev"),
		LogLevel:            getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:           getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                getEnvIntOrDefault("PORT", 3000),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
	}

	// Plain HTTP is only expected in development
	cfg.CookieSecure = getEnvBoolOrDefault("GATE_COOKIE_SECURE", cfg.Env != "dev")

	if cfg.PublicURL == "" {
		cfg.PublicURL = fmt.Sprintf("http://localhost:%d", cfg.Port)
	}
	cfg.PublicURL = strings.TrimSuffix(cfg.PublicURL, "/")

	return cfg
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.IssuerURL == "" {
		errs = append(errs, errors.New("GATE_ISSUER_URL is required"))
	}
	for name, raw := range map[string]string{
		"GATE_ISSUER_URL":   c.IssuerURL,
		"GATE_PUBLIC_URL":   c.PublicURL,
		"GATE_UPSTREAM_URL": c.UpstreamURL,
		"GATE_BACKEND_URL":  c.BackendURL,
	} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", name, raw))
		}
	}
	if len(c.CookieSecret) < cryptox.MinSecretSize {
		errs = append(errs, fmt.Errorf("GATE_COOKIE_SECRET must be at least %d bytes", cryptox.MinSecretSize))
	}

	return errors.Join(errs...)
}

// CallbackURL is the redirect URI registered with the identity provider.
func (c Config) CallbackURL() string {
	return c.PublicURL + "/auth/callback"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are seconds
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}

	return defaultValue
}
