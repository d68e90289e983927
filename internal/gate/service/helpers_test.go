package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testClientID = "oauth2-pkce"

var testNow = time.Unix(1_800_000_000, 0)

// mintAccess returns a signed access token expiring at exp with the given
// client roles. The signature is never checked by the decoder.
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
		ResourceAccess: map[string]jwtx.Access{
			testClientID: {Roles: roles},
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func memoryStoreAt(now time.Time) *store.MemoryStore {
	s := store.NewMemoryStore()
	s.Now = func() time.Time { return now }
	return s
}

// fakeIdP is a scripted token endpoint.
type fakeIdP struct {
	calls atomic.Int32

	mu     sync.Mutex
	grant  func(ctx context.Context, refresh string) (*authsdk.TokenResponse, error)
	called []string
}

func (f *fakeIdP) RefreshGrant(ctx context.Context, refresh string) (*authsdk.TokenResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.called = append(f.called, refresh)
	grant := f.grant
	f.mu.Unlock()
	return grant(ctx, refresh)
}

func rotateTo(access, refresh string) func(context.Context, string) (*authsdk.TokenResponse, error) {
	return func(context.Context, string) (*authsdk.TokenResponse, error) {
		return &authsdk.TokenResponse{AccessToken: access, RefreshToken: refresh, TokenType: "Bearer", ExpiresIn: 300}, nil
	}
}

func failWith(err error) func(context.Context, string) (*authsdk.TokenResponse, error) {
	return func(context.Context, string) (*authsdk.TokenResponse, error) {
		return nil, err
	}
}

func requireValue(t *testing.T, st store.Store, key store.Key, want string) {
	t.Helper()
	got, ok := st.Get(key)
	require.True(t, ok, "%s missing", key)
	require.Equal(t, want, got)
}

func requireAbsent(t *testing.T, st store.Store, key store.Key) {
	t.Helper()
	_, ok := st.Get(key)
	require.False(t, ok, "%s present", key)
}
