package cmd

import (
	"os"
	"strconv"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gatectl"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	dbPath       string
	profile      string
	issuerURL    string
	clientID     string
	clientSecret string
	backendURL   string
	manifestPath string
	timeout      time.Duration
	logLevel     string
}

func (f *globalFlags) config() gatectl.Config {
	return gatectl.Config{
		DBPath:       f.dbPath,
		Profile:      f.profile,
		IssuerURL:    f.issuerURL,
		ClientID:     f.clientID,
		ClientSecret: f.clientSecret,
		BackendURL:   f.backendURL,
		ManifestPath: f.manifestPath,
		HTTPTimeout:  f.timeout,
	}
}

func (f *globalFlags) open() (*gatectl.Agent, error) {
	return gatectl.Open(f.config(), slogx.NewCLI(f.logLevel))
}

// NewRootCommand builds the gatectl command tree.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "gatectl",
		Short:        "gatectl",
		Long:         "gatectl logs in to a portal gate realm and keeps the session alive from the command line.",
		SilenceUsage: true, // do not print usage message when commands fail
	}
	flags := &globalFlags{}

	f := cmd.PersistentFlags()
	f.StringVar(&flags.dbPath, "db", gatectl.DefaultDBPath(), "Credential database (env GATECTL_DB)")
	f.StringVar(&flags.profile, "profile", envOr("GATECTL_PROFILE", gatectl.DefaultProfile), "Credential profile (env GATECTL_PROFILE)")
	f.StringVar(&flags.issuerURL, "issuer", os.Getenv("GATE_ISSUER_URL"), "Realm issuer URL (env GATE_ISSUER_URL)")
	f.StringVar(&flags.clientID, "client-id", envOr("GATE_CLIENT_ID", "oauth2-pkce"), "OAuth2 client ID (env GATE_CLIENT_ID)")
	f.StringVar(&flags.clientSecret, "client-secret", os.Getenv("GATE_CLIENT_SECRET"), "OAuth2 client secret for confidential clients (env GATE_CLIENT_SECRET)")
	f.StringVar(&flags.backendURL, "backend-url", os.Getenv("GATE_BACKEND_URL"), "Backend API serving navigation manifests (env GATE_BACKEND_URL)")
	f.StringVar(&flags.manifestPath, "manifest-path", os.Getenv("GATE_MANIFEST_PATH"), "Backend path serving navigation manifests (env GATE_MANIFEST_PATH)")
	f.DurationVar(&flags.timeout, "timeout", envDurationOr("GATE_HTTP_TIMEOUT", 15*time.Second), "Timeout for calls to the identity provider and backend")
	f.StringVar(&flags.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newLoginCommand(flags, realLoginDeps()),
		newStatusCommand(flags),
		newRefreshCommand(flags),
		newWatchCommand(flags),
		newCanCommand(flags),
		newLogoutCommand(flags),
		newProfilesCommand(flags),
	)
	return cmd
}

// Execute runs the command tree and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	// Bare integers are seconds
	if s, err := strconv.Atoi(v); err == nil {
		return time.Duration(s) * time.Second
	}
	return fallback
}
