package http

import (
	"net/http"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
)

// CapabilitiesHandler serves GET /api/capabilities.
type CapabilitiesHandler struct {
	CapabilityService *service.CapabilityService
}

// ServeHTTP godoc
//
//	@Summary		Session Capabilities
//	@Description	Lists the caller's client roles and every action code in the manifest of its primary role.
//	@Description	When the manifest cannot be fetched, actions is empty and available is false.
//	@Tags			API
//	@Produce		json
//	@Security		CookieAuth
//	@Success		200	{object}	authsdk.CapabilitiesResponse
//	@Failure		401	{object}	httpx.ErrorBody	"no credential"
//	@Router			/api/capabilities [get].
func (h *CapabilitiesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess, ok := httpx.SessionFromContext(ctx)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "no credential")
		return
	}

	viewer := h.CapabilityService.For(sess, httpx.CredentialFromContext(ctx))
	resp := authsdk.CapabilitiesResponse{
		Roles:        nonNil(viewer.Roles()),
		FunctionCode: viewer.FunctionCode(),
		Actions:      []string{},
	}

	if m, err := viewer.Manifest(ctx); err == nil {
		resp.Available = true
		for _, a := range m.Actions() {
			resp.Actions = append(resp.Actions, a.Code)
		}
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}
