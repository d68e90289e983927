package http

import (
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/cryptox"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/gorilla/securecookie"
)

const (
	// loginCookie carries state and the PKCE verifier from /auth/login to
	// /auth/callback.
	loginCookie = "portalgate-login"
	loginTTL    = 10 * time.Minute

	// DefaultLandingPath is where a completed login lands.
	DefaultLandingPath = "/dashboard"
)

// loginState is sealed into loginCookie.
type loginState struct {
	State    string `json:"s"`
	Verifier string `json:"v"`
	ReturnTo string `json:"r,omitempty"`
}

// NewLoginCodec seals login cookies with keys derived for that purpose.
func NewLoginCodec(keys cryptox.CookieKeys) *securecookie.SecureCookie {
	sc := securecookie.New(keys.HashKey, keys.BlockKey)
	sc.MaxAge(int(loginTTL / time.Second))
	sc.SetSerializer(securecookie.JSONEncoder{})
	return sc
}

// LoginHandler serves GET /auth/login.
type LoginHandler struct {
	IdP     IdentityProvider
	Codec   *securecookie.SecureCookie
	Cookies store.CookieOptions
}

// ServeHTTP godoc
//
//	@Summary		Start Login
//	@Description	Starts the authorization code flow with PKCE (S256). State and the code verifier are sealed
//	@Description	into a short-lived cookie and the browser is redirected to the identity provider's login form.
//	@Tags			Auth
//	@Param			next	query	string	false	"Local path to land on after login (default /dashboard)"
//	@Success		302		"Redirect to the identity provider"
//	@Failure		500		{object}	httpx.ErrorBody	"error, error_description"
//	@Router			/auth/login [get].
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())

	pkce, err := authsdk.GeneratePKCEChallenge()
	if err != nil {
		log.Error("pkce generation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, authsdk.ErrorCodeServerError, "could not start login")
		return
	}
	state, err := authsdk.GenerateState()
	if err != nil {
		log.Error("state generation failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, authsdk.ErrorCodeServerError, "could not start login")
		return
	}

	sealed, err := h.Codec.Encode(loginCookie, loginState{
		State:    state,
		Verifier: pkce.Verifier,
		ReturnTo: localPath(r.URL.Query().Get("next")),
	})
	if err != nil {
		log.Error("login cookie encode failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, authsdk.ErrorCodeServerError, "could not start login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     loginCookie,
		Value:    sealed,
		Path:     "/auth/",
		Domain:   h.Cookies.Domain,
		MaxAge:   int(loginTTL / time.Second),
		HttpOnly: true,
		Secure:   h.Cookies.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.Redirect(w, r, h.IdP.BuildAuthorizeURL(state, pkce))
}

// localPath returns p when it is a path on this host, otherwise "".
func localPath(p string) string {
	if !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.ContainsRune(p, '\\') {
		return ""
	}
	// Browsers drop tabs and newlines while parsing, so "/\t/host" is "//host".
	if strings.IndexFunc(p, unicode.IsControl) >= 0 {
		return ""
	}
	u, err := url.Parse(p)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return p
}
