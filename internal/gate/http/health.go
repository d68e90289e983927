package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/policy"
	"github.com/aussiebroadwan/portalgate/pkg/authsdk"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
)

const readyzTimeout = 3 * time.Second

// LivezHandler godoc
//
//	@Summary		Liveness Probe
//	@Description	Answers 200 with uptime and version while the process is serving. No dependency is checked.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, authsdk.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
		})
	}
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, identity provider reachability and whether a route policy is loaded
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	idp IdentityProvider,
	holder *policy.Holder,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{
			IdentityProvider: "ok",
			Policy:           "ok",
		}
		overallStatus := "ok"
		statusCode := http.StatusOK

		// Check the identity provider answers discovery
		ctx, cancel := context.WithTimeout(r.Context(), readyzTimeout)
		defer cancel()
		if idp == nil {
			checks.IdentityProvider = "error: not configured"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		} else if err := idp.Ping(ctx); err != nil {
			checks.IdentityProvider = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// Check a policy snapshot is loaded
		if holder == nil || holder.Load() == nil {
			checks.Policy = "error: no policy loaded"
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		response := authsdk.HealthResponse{
			Status:  overallStatus,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Version: version,
			Checks:  checks,
		}
		httpx.WriteJSON(w, statusCode, response)
	}
}
