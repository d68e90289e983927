package authsdk

import "time"

// ============================================================================
// Identity provider payloads
// ============================================================================

// TokenResponse is the token endpoint answer for the authorization_code and
// refresh_token grants.
type TokenResponse struct {
	// AccessToken is the JWT carried in the access credential cookie
	AccessToken string `json:"access_token"`

	// RefreshToken is possibly rotated on every refresh
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is "Bearer"
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds
	ExpiresIn int64 `json:"expires_in"`

	// RefreshExpiresIn is the refresh token lifetime in seconds (Keycloak)
	RefreshExpiresIn int64 `json:"refresh_expires_in,omitempty"`

	// IDToken is present when the openid scope was requested
	IDToken string `json:"id_token,omitempty"`

	Scope string `json:"scope,omitempty"`
}

// ErrorResponse is an RFC 6749 error document.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// ============================================================================
// Gateway payloads
// ============================================================================

// HealthResponse represents the response structure for health check endpoints.
// Used by both /livez and /readyz endpoints (readyz includes additional Checks field).
type HealthResponse struct {
	// Status indicates the overall health status (e.g., "ok")
	Status string `json:"status"`

	// Uptime is the service uptime duration as a string (e.g., "1h23m45s")
	Uptime string `json:"uptime,omitempty"`

	// Version is the service version string
	Version string `json:"version,omitempty"`

	// Checks contains readiness check results for critical dependencies (only for /readyz)
	Checks *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports the gateway's dependencies.
type HealthChecks struct {
	// IdentityProvider is "ok" when the issuer discovery document answers
	IdentityProvider string `json:"identity_provider"`

	// Policy is "ok" when a route policy snapshot is loaded
	Policy string `json:"policy"`
}

// SessionResponse describes the caller's decoded access credential.
type SessionResponse struct {
	Subject    string    `json:"sub"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email,omitempty"`
	Name       string    `json:"name"`
	Initials   string    `json:"initials"`
	Roles      []string  `json:"roles"`
	RealmRoles []string  `json:"realm_roles,omitempty"`
	ExpiresAt  time.Time `json:"expires_at"`

	// ExpiresIn is the number of whole seconds until expiry, negative when
	// the credential has expired and awaits a refresh.
	ExpiresIn int64 `json:"expires_in"`
}

// RefreshResponse is returned by POST /auth/refresh.
type RefreshResponse struct {
	Refreshed bool   `json:"refreshed"`
	Outcome   string `json:"outcome"`

	// Redirect is set when the session ended and the browser should leave.
	Redirect string `json:"redirect,omitempty"`
}

// CapabilitiesResponse lists what the caller may do.
type CapabilitiesResponse struct {
	Roles        []string `json:"roles"`
	FunctionCode string   `json:"function_code,omitempty"`

	// Actions are action codes in manifest order, duplicates preserved.
	Actions []string `json:"actions"`

	// Available is false when the manifest could not be fetched.
	Available bool `json:"available"`
}
