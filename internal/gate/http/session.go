package http

import (
	"math"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
)

// SessionHandler serves GET /auth/session.
type SessionHandler struct {
	Now func() time.Time
}

// ServeHTTP godoc
//
//	@Summary		Current Session
//	@Description	Returns the decoded access credential: identity, display name, initials, client roles and expiry.
//	@Tags			Auth
//	@Produce		json
//	@Security		CookieAuth
//	@Success		200	{object}	authsdk.SessionResponse
//	@Failure		401	{object}	httpx.ErrorBody	"no credential, or credential invalid or expired"
//	@Router			/auth/session [get].
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := httpx.SessionFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "no credential")
		return
	}

	left := sess.TimeLeft(h.Now())
	httpx.WriteJSON(w, http.StatusOK, authsdk.SessionResponse{
		Subject:    sess.Subject,
		Username:   sess.Username,
		Email:      sess.Email,
		Name:       sess.Name,
		Initials:   sess.Initials,
		Roles:      nonNil(sess.Roles),
		RealmRoles: sess.RealmRoles,
		ExpiresAt:  sess.ExpiresAt,
		ExpiresIn:  int64(math.Floor(left.Seconds())),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
