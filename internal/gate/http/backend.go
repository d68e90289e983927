package http

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aussiebroadwan/portalgate/internal/gate/service"
	"github.com/aussiebroadwan/portalgate/internal/gate/store"
	"github.com/aussiebroadwan/portalgate/pkg/httpx"
	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
)

// DefaultMaxBodyBytes caps request bodies forwarded to the backend. Bodies are
// buffered so a call can be replayed after a refresh.
const DefaultMaxBodyBytes = 10 << 20

var hopHeaders = []string{
	"Connection",
	"Proxy-Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

// BackendProxy forwards /api/{path...} to BaseURL/{path...} with the access
// credential as a bearer token. A credential inside Horizon of expiry is
// refreshed before the call, and a backend 401 triggers one refresh and one
// retry.
type BackendProxy struct {
	BaseURL *url.URL
	Client  *http.Client

	Refresher service.Refresher
	Decoder   *jwtx.Decoder
	Cookies   store.CookieOptions

	Horizon      time.Duration
	MaxBodyBytes int64
	Now          func() time.Time
}

// NewBackendProxy returns a proxy with the default horizon and body limit.
func NewBackendProxy(baseURL *url.URL, client *http.Client, refresher service.Refresher, decoder *jwtx.Decoder, cookies store.CookieOptions) *BackendProxy {
	return &BackendProxy{
		BaseURL:      baseURL,
		Client:       client,
		Refresher:    refresher,
		Decoder:      decoder,
		Cookies:      cookies,
		Horizon:      jwtx.DefaultExpiryHorizon,
		MaxBodyBytes: DefaultMaxBodyBytes,
		Now:          time.Now,
	}
}

// ServeHTTP godoc
//
//	@Summary		Backend Proxy
//	@Description	Forwards the call to the backend API with the access credential as a bearer token.
//	@Description	The /api prefix is stripped and the query string is kept.
//	@Tags			API
//	@Security		CookieAuth
//	@Param			path	path	string	true	"Backend path"
//	@Success		200		"Backend response, passed through unchanged"
//	@Failure		401		{object}	httpx.ErrorBody	"no credential, or session ended"
//	@Failure		413		{object}	httpx.ErrorBody	"request body too large"
//	@Failure		502		{object}	httpx.ErrorBody	"backend unreachable"
//	@Router			/api/{path} [get].
//	@Router			/api/{path} [post].
//	@Router			/api/{path} [put].
//	@Router			/api/{path} [patch].
//	@Router			/api/{path} [delete].
func (p *BackendProxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)
	st := store.NewCookieStore(w, r, p.Cookies)

	token, ok := st.Get(store.AccessCredential)
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	body, err := p.readBody(w, r)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.WriteError(w, http.StatusRequestEntityTooLarge, "request_too_large", "request body too large")
			return
		}
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "could not read request body")
		return
	}

	refreshed := false
	if p.expiringSoon(token) {
		next, ended := p.refresh(ctx, st)
		if ended {
			p.writeSessionEnded(w)
			return
		}
		if next != "" {
			token, refreshed = next, true
		}
	}

	resp, err := p.do(ctx, r, body, token)
	if err == nil && resp.StatusCode == http.StatusUnauthorized && !refreshed {
		next, ended := p.refresh(ctx, st)
		if ended {
			drain(resp)
			p.writeSessionEnded(w)
			return
		}
		if next != "" {
			drain(resp)
			log.Debug("backend rejected credential, retrying after refresh")
			resp, err = p.do(ctx, r, body, next)
		}
	}
	if err != nil {
		log.Error("backend call failed", slog.Any("error", err))
		httpx.WriteError(w, http.StatusBadGateway, "backend_error", "backend unavailable")
		return
	}
	defer resp.Body.Close()

	copyHeaders(w.Header(), resp.Header)
	if st.Dirty() {
		httpx.NoCache(w)
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		log.Debug("backend response copy interrupted", slog.Any("error", err))
	}
}

func (p *BackendProxy) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}
	limit := p.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return io.ReadAll(http.MaxBytesReader(w, r.Body, limit))
}

func (p *BackendProxy) expiringSoon(token string) bool {
	if p.Decoder == nil {
		return false
	}
	sess, err := p.Decoder.Decode(token)
	if err != nil {
		// The backend makes the final call on unreadable credentials.
		return false
	}
	return sess.IsExpiringSoon(p.Now(), p.Horizon)
}

// refresh returns the new access credential, "" when the refresh did not
// happen, and ended when the session is over.
func (p *BackendProxy) refresh(ctx context.Context, st store.Store) (token string, ended bool) {
	if p.Refresher == nil {
		return "", false
	}
	res, _ := p.Refresher.Refresh(ctx, st)
	switch res.Outcome {
	case service.RefreshOK:
		return res.AccessToken, false
	case service.RefreshPermanent:
		return "", true
	default:
		return "", false
	}
}

func (p *BackendProxy) do(ctx context.Context, in *http.Request, body []byte, token string) (*http.Response, error) {
	target := p.BaseURL.JoinPath(in.PathValue("path"))
	target.RawQuery = in.URL.RawQuery

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	out, err := http.NewRequestWithContext(ctx, in.Method, target.String(), rd)
	if err != nil {
		return nil, err
	}

	copyHeaders(out.Header, in.Header)
	out.Header.Del("Cookie")
	out.Header.Set("Authorization", "Bearer "+token)
	if out.Header.Get("Content-Type") == "" && body != nil {
		out.Header.Set("Content-Type", "application/json")
	}

	return p.Client.Do(out)
}

func (p *BackendProxy) writeSessionEnded(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, httpx.ErrorBody{
		Error:            "session_ended",
		ErrorDescription: "the refresh credential was rejected",
		Redirect:         SignedOutPath,
	})
}

func copyHeaders(dst, src http.Header) {
	for k, vv := range src {
		for _, v := range vv {
			dst.Add(k, v)
		}
	}
	for _, h := range hopHeaders {
		dst.Del(h)
	}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}
