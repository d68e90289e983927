package jwtx_test

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testClientID = "oauth2-pkce"

// mint signs claims with a throwaway HMAC key. The decoder never looks at the
// signature so any key works.
func mint(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// rawToken builds a token from an arbitrary JSON payload.
func rawToken(payload string) string {
	enc := base64.RawURLEncoding
	return enc.EncodeToString([]byte(`{"alg":"none"}`)) + "." +
		enc.EncodeToString([]byte(payload)) + ".sig"
}

func TestClientRoles(t *testing.T) {
	c := &jwtx.Claims{
		ResourceAccess: map[string]jwtx.Access{
			testClientID: {Roles: []string{"ADMIN", "MANAGER", "ADMIN", ""}},
			"other":      {Roles: []string{"ROOT"}},
		},
		RealmAccess: jwtx.Access{Roles: []string{"offline_access", "offline_access"}},
	}

	t.Run("dedupes and keeps first order", func(t *testing.T) {
		require.Equal(t, []string{"ADMIN", "MANAGER"}, c.ClientRoles(testClientID))
	})

	t.Run("unknown client is empty", func(t *testing.T) {
		require.Empty(t, c.ClientRoles("missing"))
	})

	t.Run("realm roles", func(t *testing.T) {
		require.Equal(t, []string{"offline_access"}, c.RealmRoles())
	})
}

func TestClaimsUnmarshalKeycloakPayload(t *testing.T) {
	payload := `{
		"exp": 1900000000,
		"iat": 1899990000,
		"sub": "f3c1",
		"aud": "account",
		"preferred_username": "jdoe",
		"realm_access": {"roles": ["default-roles"]},
		"resource_access": {"oauth2-pkce": {"roles": ["CUSTOMER"]}}
	}`

	var c jwtx.Claims
	require.NoError(t, json.Unmarshal([]byte(payload), &c))
	require.Equal(t, time.Unix(1900000000, 0).Unix(), c.ExpiresAt.Unix())
	require.Equal(t, jwt.ClaimStrings{"account"}, c.Audience)
	require.Equal(t, []string{"CUSTOMER"}, c.ClientRoles(testClientID))
	require.True(t, strings.HasPrefix(c.PreferredUsername, "jd"))
}
