/*
Package authsdk is a small OpenID Connect client for a Keycloak-style identity
provider, built on golang.org/x/oauth2.

It covers what a relying-party gateway needs: the authorization code flow with
PKCE, the refresh_token grant, refresh token revocation on logout and a
discovery ping for readiness checks.

# Creating a client

	client := authsdk.NewClient(authsdk.Config{
		IssuerURL:   "https://id.example.com/realms/app",
		ClientID:    "oauth2-pkce",
		RedirectURL: "https://app.example.com/auth/callback",
	})

All endpoints are derived from the issuer:

	{issuer}/protocol/openid-connect/auth
	{issuer}/protocol/openid-connect/token
	{issuer}/protocol/openid-connect/logout
	{issuer}/protocol/openid-connect/certs

# Authorization code flow

	pkce, _ := authsdk.GeneratePKCEChallenge()
	state, _ := authsdk.GenerateState()
	// store pkce.Verifier and state, then redirect
	http.Redirect(w, r, client.BuildAuthorizeURL(state, pkce), http.StatusFound)

	// on the callback
	code, gotState, err := authsdk.ParseAuthorizationCallback(r.URL.Query())
	tokens, err := client.ExchangeAuthorizationCode(ctx, code, pkce.Verifier)

# Refreshing

	tokens, err := client.RefreshGrant(ctx, refreshToken)
	if authsdk.IsPermanent(err) {
		// the refresh token is dead, sign the user out
	}

Failures are classified by IsPermanent. A 4xx answer other than 408 or 429
is permanent. 5xx answers, timeouts and network errors are transient and
worth retrying on the next cycle.

# Thread Safety

Client is safe for concurrent use. WithRedirectURL returns a copy sharing the
underlying HTTP client.
*/
package authsdk
