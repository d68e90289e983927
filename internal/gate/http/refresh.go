package http

import (
	"fmt"
	"math"
	"net/http"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
)

// SignedOutPath is where a browser goes once its session has ended.
const SignedOutPath = "/landing"

// transientRetryAfter is the Retry-After hint, in seconds, on a 503.
const transientRetryAfter = "30"

// RefreshHandler serves POST /auth/refresh.
type RefreshHandler struct {
	RefreshService *service.RefreshService
	Cookies        store.CookieOptions
}

// ServeHTTP godoc
//
//	@Summary		Refresh Credentials
//	@Description	Exchanges the refresh credential cookie for a new pair. Concurrent calls with the same
//	@Description	refresh credential share one exchange.
//	@Description
//	@Description	A rejected refresh credential ends the session: both cookies are cleared and the response
//	@Description	carries redirect=/landing plus a Refresh header that fires after a short delay.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	authsdk.RefreshResponse	"refreshed"
//	@Failure		401	{object}	authsdk.RefreshResponse	"session ended"
//	@Failure		503	{object}	authsdk.RefreshResponse	"identity provider unavailable, retry later"
//	@Header			401	{string}	Refresh		"seconds; url=/landing"
//	@Header			503	{string}	Retry-After	"seconds"
//	@Router			/auth/refresh [post].
func (h *RefreshHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := store.NewCookieStore(w, r, h.Cookies)

	// Errors are already classified in res.Outcome and logged by the service.
	res, _ := h.RefreshService.Refresh(r.Context(), st)

	body := authsdk.RefreshResponse{Outcome: res.Outcome.String()}
	switch res.Outcome {
	case service.RefreshOK:
		body.Refreshed = true
		httpx.WriteJSON(w, http.StatusOK, body)

	case service.RefreshTransient:
		w.Header().Set("Retry-After", transientRetryAfter)
		httpx.WriteJSON(w, http.StatusServiceUnavailable, body)

	case service.RefreshPermanent:
		body.Redirect = SignedOutPath
		w.Header().Set("Refresh", fmt.Sprintf("%d; url=%s", h.signOutSeconds(), SignedOutPath))
		httpx.WriteJSON(w, http.StatusUnauthorized, body)

	default:
		body.Redirect = SignedOutPath
		httpx.WriteJSON(w, http.StatusUnauthorized, body)
	}
}

func (h *RefreshHandler) signOutSeconds() int {
	return int(math.Ceil(h.RefreshService.SignOutDelay.Seconds()))
}
