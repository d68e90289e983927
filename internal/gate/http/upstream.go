package http

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

// NewUpstreamProxy forwards gated page traffic to the application server.
// The original Host header is kept so the application builds its own URLs.
func NewUpstreamProxy(target *url.URL, transport http.RoundTripper) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(target)
			pr.SetXForwarded()
			pr.Out.Host = pr.In.Host
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			slogx.FromContext(r.Context()).Error("upstream unavailable", slog.Any("error", err))
			httpx.WriteError(w, http.StatusBadGateway, "bad_gateway", "upstream unavailable")
		},
	}
}
