package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

// GateHandler runs the access gate on every page request and either
// redirects or hands the request to Upstream.
type GateHandler struct {
	GateService *service.GateService
	Upstream    http.Handler
	Cookies     store.CookieOptions
	Now         func() time.Time
}

func (h *GateHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	st := store.NewCookieStore(w, r, h.Cookies)
	d := h.GateService.Evaluate(r.Context(), r.URL.Path, st, h.Now())

	if d.Redirects() {
		httpx.Redirect(w, r, d.Location)
		return
	}

	if d.Session != nil {
		credential, _ := st.Get(store.AccessCredential)
		ctx := httpx.ContextWithSession(r.Context(), *d.Session, credential)
		ctx = slogx.With(ctx, "sub", d.Session.Subject)
		r = r.WithContext(ctx)
	}

	// Credential writes must not be cached by intermediaries.
	if st.Dirty() {
		httpx.NoCache(w)
	}

	if h.Upstream == nil {
		http.NotFound(w, r)
		return
	}
	h.Upstream.ServeHTTP(w, r)
}
