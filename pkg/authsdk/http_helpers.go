package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// url builds an OpenID Connect endpoint URL under the issuer.
func (c *Client) url(path string) string {
	return c.IssuerURL + "/protocol/openid-connect" + path
}

// postForm sends a form-encoded POST and returns the response. Non-2xx
// statuses are turned into *OAuth2Error.
func (c *Client) postForm(ctx context.Context, endpoint string, data url.Values) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return nil, parseErrorResponse(resp.StatusCode, body)
	}

	return resp, nil
}
