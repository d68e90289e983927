package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
)

// DefaultManifestPath is where the backend serves manifests; the function
// code is appended.
const DefaultManifestPath = "/servicemodules/v1/fonctions/navigation/"

const maxManifestSize = 4 << 20

// BackendManifestSource fetches manifests from the backend API with the
// caller's bearer token.
type BackendManifestSource struct {
	BaseURL    string
	Path       string
	HTTPClient *http.Client
}

// NewBackendManifestSource returns a source for baseURL. An empty path uses
// DefaultManifestPath.
func NewBackendManifestSource(baseURL, path string, client *http.Client) *BackendManifestSource {
	if path == "" {
		path = DefaultManifestPath
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &BackendManifestSource{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		Path:       path,
		HTTPClient: client,
	}
}

func (s *BackendManifestSource) FetchManifest(ctx context.Context, functionCode, accessToken string) (*domain.Manifest, error) {
	if accessToken == "" {
		return nil, domain.ErrNoCredential
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.BaseURL+s.Path+url.PathEscape(functionCode), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch manifest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxManifestSize))
		return nil, fmt.Errorf("fetch manifest: backend returned %d", resp.StatusCode)
	}

	var m domain.Manifest
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxManifestSize)).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.FunctionCode == "" {
		m.FunctionCode = functionCode
	}
	return &m, nil
}
