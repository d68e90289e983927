package slogx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aussiebroadwan/portalgate/pkg/idx"
	"github.com/aussiebroadwan/portalgate/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, slogx.ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, slogx.ParseLevel("warning"))
	require.Equal(t, slog.LevelError, slogx.ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, slogx.ParseLevel("bogus"))
}

func TestNewWritesServiceAttributes(t *testing.T) {
	var buf bytes.Buffer
	logger := slogx.New(slogx.Config{Service: "gate", Version: "v1", Env: "test", Output: &buf})
	logger.Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "gate", line["service"])
	require.Equal(t, "hello", line["msg"])
}

func TestContextLogger(t *testing.T) {
	require.Equal(t, slog.Default(), slogx.FromContext(context.Background()))

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	ctx := slogx.With(slogx.WithContext(context.Background(), logger), "sub", "user-1")
	slogx.FromContext(ctx).Info("x")

	require.Contains(t, buf.String(), "sub=user-1")
}

func TestHTTPMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	h := slogx.HTTPMiddleware(logger, "/livez")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		slogx.FromContext(r.Context()).Info("inside")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("assigns request id and logs status", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

		reqID := rec.Header().Get(slogx.RequestIDHeader)
		_, err := idx.Parse(reqID)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		require.Contains(t, lines[0], reqID)
		require.Contains(t, lines[1], `"status":418`)
	})

	t.Run("keeps valid incoming id", func(t *testing.T) {
		incoming := idx.New().String()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(slogx.RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		require.Equal(t, incoming, rec.Header().Get(slogx.RequestIDHeader))
	})

	t.Run("quiet paths log below info", func(t *testing.T) {
		buf.Reset()
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
		require.NotContains(t, buf.String(), "http_request")
	})
}
