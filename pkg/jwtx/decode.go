package jwtx

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidFormat is returned for anything that is not a readable
// three-segment token carrying an exp claim.
var ErrInvalidFormat = errors.New("jwtx: invalid token format")

// segmentParser only decodes segments, it never validates a token. Padding is
// accepted so payloads padded to a multiple of four decode the same as raw
// base64url ones.
var segmentParser = jwt.NewParser(jwt.WithPaddingAllowed())

// Decoder reads the claims of an access credential without verifying its
// signature. The credential is trusted because it was received from the
// identity provider over the login or refresh exchange and only travels in
// HttpOnly cookies. Deployments that cannot rely on that boundary should put
// a SignatureVerifier in front of the decoder.
type Decoder struct {
	// ClientID selects which resource_access entry supplies the roles.
	ClientID string
}

// NewDecoder returns a Decoder reading roles scoped to clientID.
func NewDecoder(clientID string) *Decoder {
	return &Decoder{ClientID: clientID}
}

// Decode parses token into a Session.
func (d *Decoder) Decode(token string) (Session, error) {
	claims, err := ParseClaims(token)
	if err != nil {
		return Session{}, err
	}
	return newSession(claims, d.ClientID), nil
}

// ParseClaims splits token, decodes its payload segment and unmarshals the
// claims. Any structural problem is reported as ErrInvalidFormat.
func ParseClaims(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidFormat
	}
	for _, p := range parts {
		if p == "" {
			return nil, ErrInvalidFormat
		}
	}

	payload, err := segmentParser.DecodeSegment(parts[1])
	if err != nil {
		return nil, ErrInvalidFormat
	}

	var claims Claims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, ErrInvalidFormat
	}

	// A credential without an expiry can never be judged fresh.
	if claims.ExpiresAt == nil {
		return nil, ErrInvalidFormat
	}

	return &claims, nil
}
