package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestServiceHooks(t *testing.T) {
	t.Parallel()

	m := New()

	m.GateDecision("protected", "redirect_login")
	m.GateDecision("protected", "redirect_login")
	m.RefreshAttempt("ok", true)
	m.ManifestLookup("hit")
	m.PolicyReload(nil)
	m.PolicyReload(errors.New("bad yaml"))

	require.Equal(t, 2.0, testutil.ToFloat64(m.GateDecisionsTotal.WithLabelValues("protected", "redirect_login")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.RefreshAttemptsTotal.WithLabelValues("ok", "true")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.ManifestLookupsTotal.WithLabelValues("hit")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PolicyReloadsTotal.WithLabelValues("ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.PolicyReloadsTotal.WithLabelValues("rejected")))
}

func TestHTTPMiddleware(t *testing.T) {
	t.Parallel()

	m := New()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/{path...}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	h := m.HTTPMiddleware(mux)

	for _, p := range []string{"/api/a", "/api/b/c"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	require.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "GET /api/{path...}", "418")))
}

func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.GateDecision("public", "pass")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), `portalgate_gate_decisions_total{class="public",outcome="pass"} 1`))
}
