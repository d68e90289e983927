package cryptox

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// MinSecretSize is the shortest master secret DeriveCookieKeys accepts.
const MinSecretSize = 32

var ErrSecretTooShort = errors.New("cryptox: secret too short")

// CookieKeys is a signing and encryption key pair for securecookie.
type CookieKeys struct {
	HashKey  []byte // 64 bytes, HMAC-SHA256
	BlockKey []byte // 32 bytes, AES-256
}

// DeriveCookieKeys expands secret into independent hash and block keys using
// HKDF-SHA256. purpose separates keys derived from the same secret.
func DeriveCookieKeys(secret []byte, purpose string) (CookieKeys, error) {
	if len(secret) < MinSecretSize {
		return CookieKeys{}, fmt.Errorf("%w: need %d bytes, got %d", ErrSecretTooShort, MinSecretSize, len(secret))
	}

	hashKey, err := expand(secret, purpose+"/hash", 64)
	if err != nil {
		return CookieKeys{}, err
	}
	blockKey, err := expand(secret, purpose+"/block", 32)
	if err != nil {
		return CookieKeys{}, err
	}

	return CookieKeys{HashKey: hashKey, BlockKey: blockKey}, nil
}

func expand(secret []byte, info string, size int) ([]byte, error) {
	out := make([]byte, size)
	r := hkdf.New(sha256.New, secret, nil, []byte(info))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive %s: %w", info, err)
	}
	return out, nil
}
