package http

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/policy"
	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testClientID = "oauth2-pkce"

var testNow = time.Unix(1_800_000_000, 0)

func mintAccess(t *testing.T, exp time.Time, roles ...string) string {
	t.Helper()

	claims := jwtx.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(exp.Add(-5 * time.Minute)),
		},
		PreferredUsername: "jdoe",
		Name:              "Jane Doe",
		Email:             "jane@example.com",
		ResourceAccess: map[string]jwtx.Access{
			testClientID: {Roles: roles},
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

// fakeIdP scripts the identity provider.
type fakeIdP struct {
	mu       sync.Mutex
	exchange func(code, verifier string) (*authsdk.TokenResponse, error)
	refresh  func(refresh string) (*authsdk.TokenResponse, error)
	revoked  []string
	grants   []string
	pingErr  error
}

func (f *fakeIdP) BuildAuthorizeURL(state string, pkce *authsdk.PKCEChallenge) string {
	q := url.Values{
		"state":                 {state},
		"code_challenge":        {pkce.Challenge},
		"code_challenge_method": {pkce.Method},
	}
	return "https://id.example.com/realms/app/protocol/openid-connect/auth?" + q.Encode()
}

func (f *fakeIdP) ExchangeAuthorizationCode(_ context.Context, code, verifier string) (*authsdk.TokenResponse, error) {
	return f.exchange(code, verifier)
}

func (f *fakeIdP) RefreshGrant(_ context.Context, refresh string) (*authsdk.TokenResponse, error) {
	f.mu.Lock()
	f.grants = append(f.grants, refresh)
	fn := f.refresh
	f.mu.Unlock()
	return fn(refresh)
}

func (f *fakeIdP) RevokeRefreshToken(_ context.Context, refresh string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revoked = append(f.revoked, refresh)
	return nil
}

func (f *fakeIdP) Ping(context.Context) error { return f.pingErr }

func (f *fakeIdP) grantCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.grants)
}

func rotateTo(access, refresh string) func(string) (*authsdk.TokenResponse, error) {
	return func(string) (*authsdk.TokenResponse, error) {
		return &authsdk.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", ExpiresIn: 300}, nil
	}
}

var errInvalidGrant = &authsdk.OAuth2Error{StatusCode: http.StatusBadRequest, Code: authsdk.ErrorCodeInvalidGrant}

// newTestRouter wires a router around idp with the default policy and a fixed
// clock. upstream may be nil.
func newTestRouter(t *testing.T, idp *fakeIdP, upstream http.Handler) *Router {
	t.Helper()

	keys, err := cryptox.DeriveCookieKeys(bytes.Repeat([]byte("k"), cryptox.MinSecretSize), "login")
	require.NoError(t, err)

	decoder := jwtx.NewDecoder(testClientID)
	holder := policy.NewHolder(policy.DefaultPolicy())

	r := NewRouter(store.CookieOptions{}, NewLoginCodec(keys), "test", slogx.Discard())
	r.Now = func() time.Time { return testNow }
	r.IdP = idp
	r.Policy = holder
	r.Decoder = decoder
	r.GateService = &service.GateService{Policy: holder, Decoder: decoder}
	r.RefreshService = service.NewRefreshService(idp)
	r.RefreshService.SignOutDelay = 1500 * time.Millisecond
	r.CapabilityService = service.NewCapabilityService(nil, time.Minute)
	r.Upstream = upstream
	return r
}

func withCredentials(req *http.Request, access, refresh string) *http.Request {
	if access != "" {
		req.AddCookie(&http.Cookie{Name: string(store.AccessCredential), Value: access})
	}
	if refresh != "" {
		req.AddCookie(&http.Cookie{Name: string(store.RefreshCredential), Value: refresh})
	}
	return req
}

func serve(h http.Handler, req *http.Request) *http.Response {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result()
}

func findCookie(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func requireCookieSet(t *testing.T, resp *http.Response, key store.Key, want string) {
	t.Helper()
	c := findCookie(resp, string(key))
	require.NotNil(t, c, "%s not written", key)
	require.Equal(t, want, c.Value)
	require.True(t, c.HttpOnly)
	require.Equal(t, int(store.DefaultMaxAge/time.Second), c.MaxAge)
}

func requireCookieCleared(t *testing.T, resp *http.Response, key store.Key) {
	t.Helper()
	c := findCookie(resp, string(key))
	require.NotNil(t, c, "%s not cleared", key)
	require.Empty(t, c.Value)
	require.Negative(t, c.MaxAge)
}
