package gatectl

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/stretchr/testify/require"
)

// browse returns an OpenURL that follows the authorize URL straight back to
// the loopback callback with the given query.
func browse(t *testing.T, realm *fakeRealm, callback func(state string) url.Values) (func(string) error, *int) {
	t.Helper()

	status := new(int)
	return func(authorize string) error {
		u, err := url.Parse(authorize)
		if err != nil {
			return err
		}
		q := u.Query()

		realm.mu.Lock()
		realm.challenge = q.Get("code_challenge")
		realm.mu.Unlock()

		resp, err := http.Get(q.Get("redirect_uri") + "?" + callback(q.Get("state")).Encode())
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		*status = resp.StatusCode
		return nil
	}, status
}

func TestLogin(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	a := newTestAgent(t, realm)

	open, status := browse(t, realm, func(state string) url.Values {
		return url.Values{"code": {"code-1"}, "state": {state}}
	})
	var out bytes.Buffer

	sess, err := a.Login(context.Background(), LoginOptions{OpenURL: open, Out: &out})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, *status)
	require.Equal(t, "user-1", sess.Subject)
	require.Equal(t, []string{"ADMIN"}, sess.Roles)

	require.Contains(t, out.String(), realm.issuer()+"/protocol/openid-connect/auth?")
	require.Contains(t, out.String(), "redirect_uri=http%3A%2F%2F127.0.0.1%3A")

	_, ok := a.Store().Get(store.AccessCredential)
	require.True(t, ok)
	refresh, _ := a.Store().Get(store.RefreshCredential)
	require.Equal(t, "R1", refresh)
}

func TestLogin_BrowserFailureStillPrintsURL(t *testing.T) {
	t.Parallel()

	realm := newFakeRealm(t)
	a := newTestAgent(t, realm)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := a.Login(ctx, LoginOptions{
		OpenURL: func(string) error { return errors.New("no browser") },
		Out:     &out,
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.Contains(t, out.String(), "Log in by visiting this link")
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		callback func(state string) url.Values
		check    func(t *testing.T, err error)
	}{
		{
			name: "state mismatch",
			callback: func(string) url.Values {
				return url.Values{"code": {"code-1"}, "state": {"someone-else"}}
			},
			check: func(t *testing.T, err error) {
				require.ErrorIs(t, err, ErrStateMismatch)
			},
		},
		{
			name: "provider error",
			callback: func(state string) url.Values {
				return url.Values{"error": {"access_denied"}, "state": {state}}
			},
			check: func(t *testing.T, err error) {
				var oauthErr *authsdk.OAuth2Error
				require.ErrorAs(t, err, &oauthErr)
				require.Equal(t, "access_denied", oauthErr.Code)
			},
		},
		{
			name: "code rejected",
			callback: func(state string) url.Values {
				return url.Values{"code": {"stale"}, "state": {state}}
			},
			check: func(t *testing.T, err error) {
				require.True(t, authsdk.IsPermanent(err))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			realm := newFakeRealm(t)
			a := newTestAgent(t, realm)
			open, _ := browse(t, realm, tt.callback)

			_, err := a.Login(context.Background(), LoginOptions{OpenURL: open})
			require.Error(t, err)
			tt.check(t, err)

			_, ok := a.Store().Get(store.AccessCredential)
			require.False(t, ok)
		})
	}
}

func TestLogin_NeedsIssuer(t *testing.T) {
	t.Parallel()

	_, err := newTestAgent(t, nil).Login(context.Background(), LoginOptions{})
	require.Error(t, err)
}
