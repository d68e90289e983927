package httpx

import (
	"errors"
	"net/http"
	"strings"

	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

// ErrNoCredential is returned by a SessionResolver when the request carries
// no access credential at all.
var ErrNoCredential = errors.New("httpx: no credential")

// SessionResolver extracts and decodes the caller's access credential.
type SessionResolver func(r *http.Request) (jwtx.Session, string, error)

// AuthnMiddleware resolves the caller's session and injects it into the
// request context. Requests without a usable credential get a 401.
func AuthnMiddleware(resolve SessionResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			session, credential, err := resolve(r)
			if err != nil {
				desc := "credential is invalid or expired"
				if errors.Is(err, ErrNoCredential) {
					desc = "no credential"
				} else {
					log.Debug("session resolve failed", "err", err)
				}
				writeBearerError(w, desc)
				return
			}

			ctx = ContextWithSession(ctx, session, credential)
			ctx = slogx.With(ctx, "sub", session.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken returns the token from an Authorization: Bearer header.
func BearerToken(r *http.Request) (string, bool) {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return "", false
	}
	tok := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
	return tok, tok != ""
}

// RFC 6750-compliant error response for bearer auth.
func writeBearerError(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token", error_description="`+desc+`"`)
	WriteError(w, http.StatusUnauthorized, "unauthorized", desc)
}
