package jwtx

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

var ErrInvalidSig = errors.New("jwtx: invalid signature")

// SignatureVerifier checks a credential's signature against the issuer's
// published keys. It does not look at claims.
type SignatureVerifier interface {
	VerifySignature(ctx context.Context, token string) error
}

// JWKSVerifier verifies signatures using a remote JSON Web Key Set. Keys are
// fetched lazily and refetched when a token names an unknown kid.
type JWKSVerifier struct {
	keys *oidc.RemoteKeySet
}

// NewJWKSVerifier builds a verifier for the key set at jwksURL. ctx scopes the
// background key fetches and may carry an oauth2.HTTPClient via
// oidc.ClientContext.
func NewJWKSVerifier(ctx context.Context, jwksURL string) *JWKSVerifier {
	return &JWKSVerifier{keys: oidc.NewRemoteKeySet(ctx, jwksURL)}
}

func (v *JWKSVerifier) VerifySignature(ctx context.Context, token string) error {
	if _, err := v.keys.VerifySignature(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	return nil
}

// VerifyAndDecode runs sv (when non-nil) before decoding. Signature failures
// are folded into ErrInvalidFormat so callers treat them like any other
// unreadable credential.
func VerifyAndDecode(ctx context.Context, sv SignatureVerifier, d *Decoder, token string) (Session, error) {
	if sv != nil {
		if err := sv.VerifySignature(ctx, token); err != nil {
			return Session{}, errors.Join(ErrInvalidFormat, err)
		}
	}
	return d.Decode(token)
}
