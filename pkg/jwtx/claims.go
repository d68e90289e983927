package jwtx

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims issued by a Keycloak-style identity
// provider. Only the fields the gateway reads are mapped, everything else in
// the payload is ignored.
type Claims struct {
	jwt.RegisteredClaims

	// Session ID assigned by the identity provider
	SID string `json:"sid,omitempty"`

	// Space separated scopes granted to the token
	Scope string `json:"scope,omitempty"`

	PreferredUsername string `json:"preferred_username,omitempty"`
	Name              string `json:"name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	Email             string `json:"email,omitempty"`

	// RealmAccess holds realm wide roles. These are informational only and
	// never take part in authorization decisions.
	RealmAccess Access `json:"realm_access,omitzero"`

	// ResourceAccess maps a client registration to the roles granted for it.
	ResourceAccess map[string]Access `json:"resource_access,omitempty"`
}

// Access is a role container as found under realm_access and
// resource_access[client].
type Access struct {
	Roles []string `json:"roles,omitempty"`
}

// ClientRoles returns the roles granted to clientID, deduplicated while
// keeping the order of first appearance.
func (c *Claims) ClientRoles(clientID string) []string {
	access, ok := c.ResourceAccess[clientID]
	if !ok {
		return []string{}
	}
	return dedupe(access.Roles)
}

// RealmRoles returns the realm wide roles, deduplicated.
func (c *Claims) RealmRoles() []string {
	return dedupe(c.RealmAccess.Roles)
}

func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	for _, r := range in {
		if r == "" || slices.Contains(out, r) {
			continue
		}
		out = append(out, r)
	}
	return out
}
