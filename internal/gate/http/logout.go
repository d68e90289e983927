package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

const revokeTimeout = 5 * time.Second

// LogoutHandler serves GET /logout.
type LogoutHandler struct {
	IdP     IdentityProvider
	Cookies store.CookieOptions

	// CapabilityService, when set, drops its cached manifests.
	CapabilityService *service.CapabilityService
}

// ServeHTTP godoc
//
//	@Summary		Logout
//	@Description	Clears both credential cookies, ends the identity provider session when a refresh credential
//	@Description	is present (best effort), drops cached navigation manifests and redirects to /landing.
//	@Tags			Auth
//	@Success		302	"Redirect to /landing"
//	@Router			/logout [get].
func (h *LogoutHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := slogx.FromContext(r.Context())
	st := store.NewCookieStore(w, r, h.Cookies)

	refresh, hasRefresh := st.Get(store.RefreshCredential)
	store.ClearAll(st)
	if h.CapabilityService != nil {
		h.CapabilityService.Invalidate()
	}

	if hasRefresh && h.IdP != nil {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), revokeTimeout)
		defer cancel()
		if err := h.IdP.RevokeRefreshToken(ctx, refresh); err != nil {
			log.Warn("identity provider logout failed", "err", err)
		}
	}

	httpx.Redirect(w, r, SignedOutPath)
}
