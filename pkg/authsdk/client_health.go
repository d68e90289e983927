package authsdk

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// Ping checks that the issuer's discovery document is reachable.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.IssuerURL+"/.well-known/openid-configuration", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("identity provider unreachable: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("identity provider discovery returned %d", resp.StatusCode)
	}
	return nil
}
