package httpx

import (
	"context"

	"github.com/aussiebroadwan/portalgate/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeySession    ctxKey = "session"
	CtxKeyCredential ctxKey = "credential"
)

// ContextWithSession stores the decoded session and the raw access credential
// it came from.
func ContextWithSession(ctx context.Context, s jwtx.Session, credential string) context.Context {
	ctx = context.WithValue(ctx, CtxKeySession, s)
	ctx = context.WithValue(ctx, CtxKeyCredential, credential)
	return ctx
}

func SessionFromContext(ctx context.Context) (jwtx.Session, bool) {
	s, ok := ctx.Value(CtxKeySession).(jwtx.Session)
	return s, ok
}

func CredentialFromContext(ctx context.Context) string {
	c, _ := ctx.Value(CtxKeyCredential).(string)
	return c
}
