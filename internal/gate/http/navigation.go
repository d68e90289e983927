package http

import (
	"net/http"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
)

// NavigationHandler serves GET /api/navigation/{functionCode}.
type NavigationHandler struct {
	CapabilityService *service.CapabilityService
}

// ServeHTTP godoc
//
//	@Summary		Navigation Manifest
//	@Description	Returns the navigation manifest of a function code. The caller must hold the function code
//	@Description	as a client role. Manifests are cached for a few minutes.
//	@Tags			API
//	@Produce		json
//	@Security		CookieAuth
//	@Param			functionCode	path		string	true	"Function code (client role)"
//	@Success		200				{object}	domain.Manifest
//	@Failure		401				{object}	httpx.ErrorBody	"no credential"
//	@Failure		403				{object}	httpx.ErrorBody	"function code not held"
//	@Failure		502				{object}	httpx.ErrorBody	"manifest unavailable"
//	@Router			/api/navigation/{functionCode} [get].
func (h *NavigationHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := httpx.SessionFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "no credential")
		return
	}

	code := r.PathValue("functionCode")
	if !sess.HasRole(code) {
		httpx.WriteError(w, http.StatusForbidden, "insufficient_permissions",
			"the session does not hold this function code")
		return
	}

	m, err := h.CapabilityService.Manifest(ctx, code, httpx.CredentialFromContext(ctx))
	if err != nil {
		httpx.WriteError(w, http.StatusBadGateway, "manifest_unavailable", "navigation manifest unavailable")
		return
	}
	httpx.WriteJSON(w, http.StatusOK, m)
}
