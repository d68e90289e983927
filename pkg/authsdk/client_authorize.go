package authsdk

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"

	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
	"golang.org/x/oauth2"
)

// PKCEChallenge holds the PKCE verifier and challenge pair.
// The verifier is kept secret by the client, and the challenge is sent to the authorization endpoint.
type PKCEChallenge struct {
	// Verifier is base64url(32 random bytes), kept until the code exchange
	Verifier string

	// Challenge is base64url(SHA256(Verifier))
	Challenge string

	// Method is always "S256"
	Method string
}

// GeneratePKCEChallenge creates a new PKCE code verifier and challenge pair
// per RFC 7636.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return nil, fmt.Errorf("failed to generate PKCE verifier: %w", err)
	}

	hash := sha256.Sum256([]byte(verifier))
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: base64.RawURLEncoding.EncodeToString(hash[:]),
		Method:    "S256",
	}, nil
}

// GenerateState returns a random OAuth2 state value.
func GenerateState() (string, error) {
	state, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return state, nil
}

// BuildAuthorizeURL returns the URL the browser is sent to for an interactive
// login. It always asks for scope=openid and prompt=login so the identity
// provider shows its form even when it still holds a session.
//
// Example:
//
//	pkce, _ := authsdk.GeneratePKCEChallenge()
//	state, _ := authsdk.GenerateState()
//	// persist pkce.Verifier and state until the callback
//	http.Redirect(w, r, client.BuildAuthorizeURL(state, pkce), http.StatusFound)
func (c *Client) BuildAuthorizeURL(state string, pkce *PKCEChallenge) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("prompt", "login"),
	}
	if pkce != nil {
		opts = append(opts,
			oauth2.SetAuthURLParam("code_challenge", pkce.Challenge),
			oauth2.SetAuthURLParam("code_challenge_method", pkce.Method),
		)
	}
	return c.oauth.AuthCodeURL(state, opts...)
}

// ParseAuthorizationCallback extracts code and state from the callback query.
// An error parameter from the identity provider is returned as *OAuth2Error.
func ParseAuthorizationCallback(query url.Values) (code, state string, err error) {
	if errorCode := query.Get("error"); errorCode != "" {
		return "", "", &OAuth2Error{
			StatusCode:  400,
			Code:        errorCode,
			Description: query.Get("error_description"),
		}
	}

	code = query.Get("code")
	if code == "" {
		return "", "", &OAuth2Error{
			StatusCode:  400,
			Code:        ErrorCodeInvalidRequest,
			Description: "callback missing authorization code",
		}
	}

	return code, query.Get("state"), nil
}
