package authsdk

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultTimeout bounds every call to the identity provider.
const DefaultTimeout = 15 * time.Second

// Config describes a client registration at a Keycloak-style identity
// provider.
type Config struct {
	// IssuerURL is the realm issuer, e.g. https://id.example.com/realms/app.
	IssuerURL string

	ClientID string

	// ClientSecret is empty for public (PKCE) clients.
	ClientSecret string

	// RedirectURL is the registered callback for the authorization code flow.
	RedirectURL string

	// Scopes default to openid.
	Scopes []string

	// Timeout defaults to DefaultTimeout.
	Timeout time.Duration

	// Transport defaults to http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the identity provider's OpenID Connect endpoints. It is
// safe for concurrent use.
type Client struct {
	IssuerURL  string
	ClientID   string
	HTTPClient *http.Client

	oauth oauth2.Config
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	issuer := strings.TrimSuffix(cfg.IssuerURL, "/")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid"}
	}

	c := &Client{
		IssuerURL: issuer,
		ClientID:  cfg.ClientID,
		HTTPClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
	}
	c.oauth = oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  c.url("/auth"),
			TokenURL: c.url("/token"),
			// Keycloak public clients expect client_id in the form body.
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
	return c
}

// WithRedirectURL returns a copy of c using redirectURL for the code flow.
// The HTTP client is shared.
func (c *Client) WithRedirectURL(redirectURL string) *Client {
	cp := *c
	cp.oauth.RedirectURL = redirectURL
	return &cp
}

// RedirectURL is the callback the client registers in authorize requests.
func (c *Client) RedirectURL() string { return c.oauth.RedirectURL }

// TokenURL is the token endpoint.
func (c *Client) TokenURL() string { return c.oauth.Endpoint.TokenURL }

// CertsURL is the JSON Web Key Set endpoint.
func (c *Client) CertsURL() string { return c.url("/certs") }

// oauthContext makes x/oauth2 use c.HTTPClient for its requests.
func (c *Client) oauthContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.HTTPClient)
}
