package gatectl

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
)

const (
	callbackPath = "/callback"

	// DefaultListenAddr picks a free loopback port.
	DefaultListenAddr = "127.0.0.1:0"
)

// ErrStateMismatch is returned when the callback carries another login's
// state.
var ErrStateMismatch = errors.New("login state mismatch")

// LoginOptions controls the interactive login.
type LoginOptions struct {
	// ListenAddr is the loopback address receiving the callback.
	ListenAddr string

	// OpenURL opens the authorize URL in a browser. Failures are not fatal,
	// the URL is always printed too.
	OpenURL func(url string) error

	// Out receives the instructions for the user.
	Out io.Writer
}

type callbackResult struct {
	code string
	err  error
}

// Login runs the authorization code flow with PKCE through a loopback
// listener and stores the resulting credentials.
func (a *Agent) Login(ctx context.Context, opts LoginOptions) (jwtx.Session, error) {
	if err := a.cfg.requireIssuer(); err != nil {
		return jwtx.Session{}, err
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = DefaultListenAddr
	}
	if opts.Out == nil {
		opts.Out = io.Discard
	}

	listener, err := net.Listen("tcp", opts.ListenAddr)
	if err != nil {
		return jwtx.Session{}, fmt.Errorf("could not open callback listener: %w", err)
	}
	idp := a.idp.WithRedirectURL("http://" + listener.Addr().String() + callbackPath)

	pkce, err := authsdk.GeneratePKCEChallenge()
	if err != nil {
		_ = listener.Close()
		return jwtx.Session{}, err
	}
	state, err := authsdk.GenerateState()
	if err != nil {
		_ = listener.Close()
		return jwtx.Session{}, err
	}

	callbacks := make(chan callbackResult, 1)
	shutdown := serve(listener, callbackHandler(state, callbacks))
	defer shutdown()

	authorizeURL := idp.BuildAuthorizeURL(state, pkce)
	if opts.OpenURL != nil {
		if err := opts.OpenURL(authorizeURL); err != nil {
			a.logger.Debug("could not open browser", "error", err)
		}
	}
	_, _ = fmt.Fprintf(opts.Out, "Log in by visiting this link:\n\n    %s\n\n", authorizeURL)

	var res callbackResult
	select {
	case <-ctx.Done():
		return jwtx.Session{}, fmt.Errorf("login cancelled: %w", ctx.Err())
	case res = <-callbacks:
	}
	if res.err != nil {
		return jwtx.Session{}, res.err
	}

	tokens, err := idp.ExchangeAuthorizationCode(ctx, res.code, pkce.Verifier)
	if err != nil {
		return jwtx.Session{}, fmt.Errorf("could not complete login: %w", err)
	}

	sess, err := a.decoder.Decode(tokens.AccessToken)
	if err != nil {
		return jwtx.Session{}, fmt.Errorf("identity provider returned an unreadable credential: %w", err)
	}

	if tokens.RefreshToken != "" {
		store.SetPair(a.store, tokens.AccessToken, tokens.RefreshToken)
	} else {
		a.store.Set(store.AccessCredential, tokens.AccessToken, store.DefaultMaxAge)
	}

	a.logger.Info("logged in", "profile", a.cfg.Profile, "sub", sess.Subject)
	return sess, nil
}

// callbackHandler reports the first callback on results. Later callbacks get
// an error page.
func callbackHandler(state string, results chan<- callbackResult) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != callbackPath {
			http.NotFound(w, r)
			return
		}

		code, gotState, err := authsdk.ParseAuthorizationCallback(r.URL.Query())
		if err == nil && subtle.ConstantTimeCompare([]byte(gotState), []byte(state)) != 1 {
			err = ErrStateMismatch
		}

		select {
		case results <- callbackResult{code: code, err: err}:
		default:
			http.Error(w, "login already handled", http.StatusConflict)
			return
		}

		if err != nil {
			http.Error(w, "login failed: "+err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "you have been logged in and may now close this tab\n")
	})
}

// serve answers on listener until the returned function is called.
func serve(listener net.Listener, h http.Handler) func() {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() { _ = srv.Serve(listener) }()

	return func() {
		// Give the browser a moment to receive the final page.
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}
