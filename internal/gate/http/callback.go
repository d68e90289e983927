package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/gorilla/securecookie"
)

// Login failure codes appended to the landing page as ?error=.
const (
	ErrorNoCode        = "no_code"
	ErrorNoVerifier    = "no_verifier"
	ErrorInvalidState  = "invalid_state"
	ErrorTokenExchange = "token_exchange"
)

// CallbackHandler serves GET /auth/callback.
type CallbackHandler struct {
	IdP     IdentityProvider
	Codec   *securecookie.SecureCookie
	Cookies store.CookieOptions
}

// ServeHTTP godoc
//
//	@Summary		Login Callback
//	@Description	Completes the authorization code flow: checks state, exchanges the code with the PKCE verifier
//	@Description	and stores the access and refresh credentials as HttpOnly cookies (8 hours).
//	@Description	Failures redirect to /?error=<code>.
//	@Tags			Auth
//	@Param			code				query	string	false	"Authorization code"
//	@Param			state				query	string	false	"State from /auth/login"
//	@Param			error				query	string	false	"Error reported by the identity provider"
//	@Param			error_description	query	string	false	"Error description"
//	@Success		302					"Redirect to /dashboard, or to /?error=<code>"
//	@Router			/auth/callback [get].
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	// The login cookie is single use whatever happens next.
	h.clearLoginCookie(w)

	code, state, err := authsdk.ParseAuthorizationCallback(r.URL.Query())
	if err != nil {
		var oe *authsdk.OAuth2Error
		reason := ErrorNoCode
		if errors.As(err, &oe) && oe.Code != authsdk.ErrorCodeInvalidRequest {
			reason = oe.Code
		}
		log.Info("login callback rejected", "reason", reason, "err", err)
		httpx.Redirect(w, r, service.LoginLocation(reason))
		return
	}

	var ls loginState
	c, err := r.Cookie(loginCookie)
	if err != nil || h.Codec.Decode(loginCookie, c.Value, &ls) != nil || ls.Verifier == "" {
		log.Info("login callback without a valid login cookie")
		httpx.Redirect(w, r, service.LoginLocation(ErrorNoVerifier))
		return
	}
	if subtle.ConstantTimeCompare([]byte(state), []byte(ls.State)) != 1 {
		log.Warn("login callback state mismatch")
		httpx.Redirect(w, r, service.LoginLocation(ErrorInvalidState))
		return
	}

	tok, err := h.IdP.ExchangeAuthorizationCode(ctx, code, ls.Verifier)
	if err != nil {
		log.Warn("authorization code exchange failed", "err", err)
		httpx.Redirect(w, r, service.LoginLocation(ErrorTokenExchange))
		return
	}

	st := store.NewCookieStore(w, r, h.Cookies)
	if tok.RefreshToken != "" {
		store.SetPair(st, tok.AccessToken, tok.RefreshToken)
	} else {
		st.Set(store.AccessCredential, tok.AccessToken, store.DefaultMaxAge)
	}

	target := ls.ReturnTo
	if target == "" {
		target = DefaultLandingPath
	}
	log.Info("login completed")
	httpx.Redirect(w, r, target)
}

func (h *CallbackHandler) clearLoginCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     loginCookie,
		Value:    "",
		Path:     "/auth/",
		Domain:   h.Cookies.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
