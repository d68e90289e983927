package gatectl

import (
	"errors"
	"os"
	"path/filepath"
	"time"
)

// DefaultProfile is used when no profile is named.
const DefaultProfile = "default"

type Config struct {
	DBPath  string // Optional: credential database (default: <user config dir>/portalgate/gatectl.db)
	Profile string // Optional: credential slots to use (default: default)

	IssuerURL    string // Required for login and refresh
	ClientID     string // Optional: client registration (default: oauth2-pkce)
	ClientSecret string // Optional: empty for public PKCE clients

	BackendURL   string // Optional: backend serving navigation manifests
	ManifestPath string // Optional: backend path serving navigation manifests

	HTTPTimeout time.Duration // Optional: timeout for outbound calls (default: 15s)
}

// DefaultDBPath is where credentials live unless GATECTL_DB says otherwise.
func DefaultDBPath() string {
	if p := os.Getenv("GATECTL_DB"); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "gatectl.db"
	}
	return filepath.Join(dir, "portalgate", "gatectl.db")
}

func (c Config) validate() error {
	if c.DBPath == "" {
		return errors.New("a credential database path is required")
	}
	if c.Profile == "" {
		return errors.New("a profile name is required")
	}
	return nil
}

func (c Config) requireIssuer() error {
	if c.IssuerURL == "" {
		return errors.New("an issuer URL is required (--issuer or GATE_ISSUER_URL)")
	}
	return nil
}
