package http

import (
	"net/http"

	"github.com/aussiebroadwan/portalgate/internal/gate/domain"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
)

// resolveSession reads the access credential from its cookie, or from an
// Authorization header for non-browser callers, and decodes it. Expired
// credentials are refused; the browser is expected to call /auth/refresh.
func (r *Router) resolveSession(req *http.Request) (jwtx.Session, string, error) {
	credential, ok := store.NewCookieStore(nil, req, r.cookies).Get(store.AccessCredential)
	if !ok {
		credential, ok = httpx.BearerToken(req)
	}
	if !ok {
		return jwtx.Session{}, "", httpx.ErrNoCredential
	}

	sess, err := jwtx.VerifyAndDecode(req.Context(), r.Verifier, r.Decoder, credential)
	if err != nil {
		return jwtx.Session{}, "", err
	}
	if sess.IsExpired(r.Now()) {
		return jwtx.Session{}, "", domain.ErrExpired
	}
	return sess, credential, nil
}
