package http

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// startLogin runs /auth/login and returns the sealed login cookie and the
// authorize URL the browser was sent to.
func startLogin(t *testing.T, r http.Handler, target string) (*http.Cookie, *url.URL) {
	t.Helper()

	resp := serve(r, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	loc, err := url.Parse(resp.Header.Get("Location"))
	require.NoError(t, err)

	c := findCookie(resp, loginCookie)
	require.NotNil(t, c)
	return c, loc
}

func callbackRequest(code, state string, login *http.Cookie) *http.Request {
	q := url.Values{}
	if code != "" {
		q.Set("code", code)
	}
	if state != "" {
		q.Set("state", state)
	}
	req := httptest.NewRequest(http.MethodGet, "/auth/callback?"+q.Encode(), nil)
	if login != nil {
		req.AddCookie(login)
	}
	return req
}

func TestLogin_RedirectsWithPKCE(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeIdP{}, nil)
	r.ApplyRoutes()

	c, loc := startLogin(t, r, "/auth/login")

	require.Equal(t, "id.example.com", loc.Host)
	require.NotEmpty(t, loc.Query().Get("state"))
	require.NotEmpty(t, loc.Query().Get("code_challenge"))
	require.Equal(t, "S256", loc.Query().Get("code_challenge_method"))

	require.True(t, c.HttpOnly)
	require.Equal(t, "/auth/", c.Path)
	require.Equal(t, int(loginTTL/time.Second), c.MaxAge)
}

func TestCallback_CompletesLogin(t *testing.T) {
	t.Parallel()

	access := mintAccess(t, testNow.Add(5*time.Minute), "ADMIN")
	var gotVerifier string
	idp := &fakeIdP{
		exchange: func(code, verifier string) (*authsdk.TokenResponse, error) {
			require.Equal(t, "abc", code)
			gotVerifier = verifier
			return &authsdk.TokenResponse{AccessToken: access, RefreshToken: "refresh-1", TokenType: "Bearer"}, nil
		},
	}
	r := newTestRouter(t, idp, nil)
	r.ApplyRoutes()

	login, loc := startLogin(t, r, "/auth/login")
	resp := serve(r, callbackRequest("abc", loc.Query().Get("state"), login))

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, DefaultLandingPath, resp.Header.Get("Location"))
	requireCookieSet(t, resp, store.AccessCredential, access)
	requireCookieSet(t, resp, store.RefreshCredential, "refresh-1")

	// The verifier sent to the token endpoint matches the challenge sent to
	// the authorize endpoint.
	sum := sha256.Sum256([]byte(gotVerifier))
	require.Equal(t, loc.Query().Get("code_challenge"), base64.RawURLEncoding.EncodeToString(sum[:]))

	cleared := findCookie(resp, loginCookie)
	require.NotNil(t, cleared)
	require.Negative(t, cleared.MaxAge)
}

func TestCallback_ReturnsToRequestedPath(t *testing.T) {
	t.Parallel()

	idp := &fakeIdP{
		exchange: func(string, string) (*authsdk.TokenResponse, error) {
			return &authsdk.TokenResponse{AccessToken: "a", RefreshToken: "r"}, nil
		},
	}
	r := newTestRouter(t, idp, nil)
	r.ApplyRoutes()

	login, loc := startLogin(t, r, "/auth/login?next=%2Fusers%3Ftab%3D2")
	resp := serve(r, callbackRequest("abc", loc.Query().Get("state"), login))

	require.Equal(t, "/users?tab=2", resp.Header.Get("Location"))
}

func TestCallback_IgnoresOffsiteReturnPath(t *testing.T) {
	t.Parallel()

	idp := &fakeIdP{
		exchange: func(string, string) (*authsdk.TokenResponse, error) {
			return &authsdk.TokenResponse{AccessToken: "a", RefreshToken: "r"}, nil
		},
	}
	r := newTestRouter(t, idp, nil)
	r.ApplyRoutes()

	for _, next := range []string{"%2F%09%2Fevil.example", "%2F%0A%2Fevil.example", "%2F%2Fevil.example"} {
		login, loc := startLogin(t, r, "/auth/login?next="+next)
		resp := serve(r, callbackRequest("abc", loc.Query().Get("state"), login))

		require.Equal(t, DefaultLandingPath, resp.Header.Get("Location"), next)
	}
}

func TestCallback_Failures(t *testing.T) {
	t.Parallel()

	exchangeErr := &fakeIdP{
		exchange: func(string, string) (*authsdk.TokenResponse, error) {
			return nil, errors.New("connection refused")
		},
	}

	tests := []struct {
		name  string
		idp   *fakeIdP
		build func(t *testing.T, r http.Handler) *http.Request
		want  string
	}{
		{
			name: "provider error",
			idp:  &fakeIdP{},
			build: func(t *testing.T, r http.Handler) *http.Request {
				return httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied&error_description=nope", nil)
			},
			want: "/?error=access_denied",
		},
		{
			name: "missing code",
			idp:  &fakeIdP{},
			build: func(t *testing.T, r http.Handler) *http.Request {
				login, loc := startLogin(t, r, "/auth/login")
				return callbackRequest("", loc.Query().Get("state"), login)
			},
			want: "/?error=no_code",
		},
		{
			name: "missing login cookie",
			idp:  &fakeIdP{},
			build: func(t *testing.T, r http.Handler) *http.Request {
				return callbackRequest("abc", "state", nil)
			},
			want: "/?error=no_verifier",
		},
		{
			name: "tampered login cookie",
			idp:  &fakeIdP{},
			build: func(t *testing.T, r http.Handler) *http.Request {
				login, loc := startLogin(t, r, "/auth/login")
				login.Value = login.Value[:len(login.Value)-4] + "AAAA"
				return callbackRequest("abc", loc.Query().Get("state"), login)
			},
			want: "/?error=no_verifier",
		},
		{
			name: "state mismatch",
			idp:  &fakeIdP{},
			build: func(t *testing.T, r http.Handler) *http.Request {
				login, _ := startLogin(t, r, "/auth/login")
				return callbackRequest("abc", "forged", login)
			},
			want: "/?error=invalid_state",
		},
		{
			name: "exchange fails",
			idp:  exchangeErr,
			build: func(t *testing.T, r http.Handler) *http.Request {
				login, loc := startLogin(t, r, "/auth/login")
				return callbackRequest("abc", loc.Query().Get("state"), login)
			},
			want: "/?error=token_exchange",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(t, tt.idp, nil)
			r.ApplyRoutes()

			resp := serve(r, tt.build(t, r))

			require.Equal(t, http.StatusFound, resp.StatusCode)
			require.Equal(t, tt.want, resp.Header.Get("Location"))
			require.Nil(t, findCookie(resp, string(store.AccessCredential)))
		})
	}
}

func TestLocalPath(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"":                    "",
		"/users":              "/users",
		"/users?tab=2":        "/users?tab=2",
		"//evil.example.com":  "",
		"https://evil.com":    "",
		"/\\evil.example.com": "",
		"users":               "",
		"/\t/evil":            "",
		"/\t/evil.example":    "",
		"/\x00x":              "",
		"/\x7f":               "",
		"/a\r\nSet-Cookie: x": "",
	}
	for in, want := range tests {
		require.Equal(t, want, localPath(in), in)
	}
}

func TestRefresh_Outcomes(t *testing.T) {
	t.Parallel()

	newAccess := mintAccess(t, testNow.Add(5*time.Minute), "ADMIN")

	tests := []struct {
		name       string
		refresh    func(string) (*authsdk.TokenResponse, error)
		refreshTok string
		wantStatus int
		wantBody   authsdk.RefreshResponse
		check      func(t *testing.T, resp *http.Response)
	}{
		{
			name:       "rotated",
			refresh:    rotateTo(newAccess, "refresh-2"),
			refreshTok: "refresh-1",
			wantStatus: http.StatusOK,
			wantBody:   authsdk.RefreshResponse{Refreshed: true, Outcome: "ok"},
			check: func(t *testing.T, resp *http.Response) {
				requireCookieSet(t, resp, store.AccessCredential, newAccess)
				requireCookieSet(t, resp, store.RefreshCredential, "refresh-2")
			},
		},
		{
			name: "rejected",
			refresh: func(string) (*authsdk.TokenResponse, error) {
				return nil, errInvalidGrant
			},
			refreshTok: "refresh-1",
			wantStatus: http.StatusUnauthorized,
			wantBody:   authsdk.RefreshResponse{Outcome: "permanent", Redirect: SignedOutPath},
			check: func(t *testing.T, resp *http.Response) {
				require.Equal(t, "2; url=/landing", resp.Header.Get("Refresh"))
				requireCookieCleared(t, resp, store.AccessCredential)
				requireCookieCleared(t, resp, store.RefreshCredential)
			},
		},
		{
			name: "identity provider down",
			refresh: func(string) (*authsdk.TokenResponse, error) {
				return nil, &authsdk.OAuth2Error{StatusCode: http.StatusBadGateway, Code: authsdk.ErrorCodeServerError}
			},
			refreshTok: "refresh-1",
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   authsdk.RefreshResponse{Outcome: "transient"},
			check: func(t *testing.T, resp *http.Response) {
				require.Equal(t, transientRetryAfter, resp.Header.Get("Retry-After"))
				require.Nil(t, findCookie(resp, string(store.AccessCredential)))
			},
		},
		{
			name:       "no refresh credential",
			wantStatus: http.StatusUnauthorized,
			wantBody:   authsdk.RefreshResponse{Outcome: "no_credential", Redirect: SignedOutPath},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idp := &fakeIdP{refresh: tt.refresh}
			r := newTestRouter(t, idp, nil)
			r.ApplyRoutes()

			req := withCredentials(httptest.NewRequest(http.MethodPost, "/auth/refresh", nil),
				mintAccess(t, testNow.Add(-time.Minute), "ADMIN"), tt.refreshTok)
			resp := serve(r, req)

			require.Equal(t, tt.wantStatus, resp.StatusCode)
			require.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

			var body authsdk.RefreshResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			require.Equal(t, tt.wantBody, body)

			if tt.check != nil {
				tt.check(t, resp)
			}
		})
	}
}

func TestSession(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeIdP{}, nil)
	r.ApplyRoutes()

	req := withCredentials(httptest.NewRequest(http.MethodGet, "/auth/session", nil),
		mintAccess(t, testNow.Add(10*time.Minute), "ADMIN", "MANAGER"), "")
	resp := serve(r, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body authsdk.SessionResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "user-1", body.Subject)
	require.Equal(t, "Jane Doe", body.Name)
	require.Equal(t, "JD", body.Initials)
	require.Equal(t, []string{"ADMIN", "MANAGER"}, body.Roles)
	require.Equal(t, int64(600), body.ExpiresIn)
}

func TestSession_BearerHeader(t *testing.T) {
	t.Parallel()

	r := newTestRouter(t, &fakeIdP{}, nil)
	r.ApplyRoutes()

	req := httptest.NewRequest(http.MethodGet, "/auth/session", nil)
	req.Header.Set("Authorization", "Bearer "+mintAccess(t, testNow.Add(time.Minute), "ADMIN"))
	resp := serve(r, req)

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSession_Unauthorized(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"no credential": "",
		"expired":       mintAccess(t, testNow.Add(-time.Second), "ADMIN"),
		"unreadable":    "garbage",
	}
	for name, access := range tests {
		t.Run(name, func(t *testing.T) {
			r := newTestRouter(t, &fakeIdP{}, nil)
			r.ApplyRoutes()

			req := withCredentials(httptest.NewRequest(http.MethodGet, "/auth/session", nil), access, "")
			resp := serve(r, req)

			require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			require.Contains(t, resp.Header.Get("WWW-Authenticate"), "Bearer")
		})
	}
}

func TestLogout(t *testing.T) {
	t.Parallel()

	idp := &fakeIdP{}
	r := newTestRouter(t, idp, nil)
	r.ApplyRoutes()

	req := withCredentials(httptest.NewRequest(http.MethodGet, "/logout", nil),
		mintAccess(t, testNow.Add(time.Hour), "ADMIN"), "refresh-1")
	resp := serve(r, req)

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, SignedOutPath, resp.Header.Get("Location"))
	requireCookieCleared(t, resp, store.AccessCredential)
	requireCookieCleared(t, resp, store.RefreshCredential)
	require.Equal(t, []string{"refresh-1"}, idp.revoked)
}

type manifestFunc func(ctx context.Context, functionCode, accessToken string) (*domain.Manifest, error)

func (f manifestFunc) FetchManifest(ctx context.Context, functionCode, accessToken string) (*domain.Manifest, error) {
	return f(ctx, functionCode, accessToken)
}

func TestLogout_DropsCachedManifests(t *testing.T) {
	t.Parallel()

	var fetches atomic.Int32
	src := manifestFunc(func(context.Context, string, string) (*domain.Manifest, error) {
		fetches.Add(1)
		return &domain.Manifest{}, nil
	})

	r := newTestRouter(t, &fakeIdP{}, nil)
	r.CapabilityService = service.NewCapabilityService(src, time.Minute)
	r.ApplyRoutes()

	ctx := context.Background()
	_, err := r.CapabilityService.Manifest(ctx, "ADMIN", "A1")
	require.NoError(t, err)
	_, err = r.CapabilityService.Manifest(ctx, "ADMIN", "A1")
	require.NoError(t, err)
	require.EqualValues(t, 1, fetches.Load())

	resp := serve(r, withCredentials(httptest.NewRequest(http.MethodGet, "/logout", nil),
		mintAccess(t, testNow.Add(time.Hour), "ADMIN"), "refresh-1"))
	require.Equal(t, http.StatusFound, resp.StatusCode)

	_, err = r.CapabilityService.Manifest(ctx, "ADMIN", "A2")
	require.NoError(t, err)
	require.EqualValues(t, 2, fetches.Load())
}

func TestLogout_WithoutCredentials(t *testing.T) {
	t.Parallel()

	idp := &fakeIdP{}
	r := newTestRouter(t, idp, nil)
	r.ApplyRoutes()

	resp := serve(r, httptest.NewRequest(http.MethodGet, "/logout", nil))

	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Empty(t, idp.revoked)
}
