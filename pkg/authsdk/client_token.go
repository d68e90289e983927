package authsdk

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"golang.org/x/oauth2"
)

// RefreshGrant exchanges refreshToken for a new token pair. The form carries
// grant_type=refresh_token, client_id and refresh_token. When the identity
// provider does not rotate the refresh token the original one is returned.
func (c *Client) RefreshGrant(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	src := c.oauth.TokenSource(c.oauthContext(ctx), &oauth2.Token{RefreshToken: refreshToken})

	tok, err := src.Token()
	if err != nil {
		return nil, fmt.Errorf("refresh grant: %w", fromRetrieveError(err))
	}
	return newTokenResponse(tok), nil
}

// ExchangeAuthorizationCode trades an authorization code for tokens, proving
// possession of the PKCE verifier used to start the flow.
func (c *Client) ExchangeAuthorizationCode(ctx context.Context, code, codeVerifier string) (*TokenResponse, error) {
	var opts []oauth2.AuthCodeOption
	if codeVerifier != "" {
		opts = append(opts, oauth2.VerifierOption(codeVerifier))
	}

	tok, err := c.oauth.Exchange(c.oauthContext(ctx), code, opts...)
	if err != nil {
		return nil, fmt.Errorf("authorization code exchange: %w", fromRetrieveError(err))
	}
	return newTokenResponse(tok), nil
}

// RevokeRefreshToken ends the identity provider session bound to
// refreshToken.
func (c *Client) RevokeRefreshToken(ctx context.Context, refreshToken string) error {
	data := url.Values{
		"client_id":     {c.ClientID},
		"refresh_token": {refreshToken},
	}
	if c.oauth.ClientSecret != "" {
		data.Set("client_secret", c.oauth.ClientSecret)
	}

	resp, err := c.postForm(ctx, c.url("/logout"), data)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return resp.Body.Close()
}

func newTokenResponse(tok *oauth2.Token) *TokenResponse {
	resp := &TokenResponse{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		TokenType:    tok.Type(),
		ExpiresIn:    tok.ExpiresIn,
	}
	if resp.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		resp.ExpiresIn = int64(time.Until(tok.Expiry).Seconds())
	}
	if v, ok := tok.Extra("refresh_expires_in").(float64); ok {
		resp.RefreshExpiresIn = int64(v)
	}
	if v, ok := tok.Extra("id_token").(string); ok {
		resp.IDToken = v
	}
	if v, ok := tok.Extra("scope").(string); ok {
		resp.Scope = v
	}
	return resp
}
