// Package store keeps the access and refresh credentials of one session.
//
// Every consumer (gate, refresh coordinator, capability facade) receives the
// Store it should use instead of reaching for ambient state. The HTTP layer
// hands out a request-scoped CookieStore, tests use MemoryStore and the CLI a
// persistent sqlite store.
package store

import "time"

// Key names one of the two credential slots.
type Key string

const (
	// AccessCredential holds the short-lived signed access token.
	AccessCredential Key = "keycloak-token"

	// RefreshCredential holds the opaque, possibly single-use refresh token.
	RefreshCredential Key = "keycloak-refresh-token"
)

// DefaultMaxAge is how long both credentials are kept after a login or a
// successful refresh.
const DefaultMaxAge = 8 * time.Hour

// Store is a key-value credential surface. Implementations never fail loudly:
// a slot that cannot be read is reported as absent.
type Store interface {
	// Get returns the value of key and whether it is present.
	Get(key Key) (string, bool)

	// Set stores value under key for maxAge.
	Set(key Key, value string, maxAge time.Duration)

	// Clear removes key.
	Clear(key Key)
}

// ClearAll removes both credentials.
func ClearAll(s Store) {
	s.Clear(AccessCredential)
	s.Clear(RefreshCredential)
}

// SetPair writes both credentials with DefaultMaxAge.
func SetPair(s Store, access, refresh string) {
	s.Set(AccessCredential, access, DefaultMaxAge)
	s.Set(RefreshCredential, refresh, DefaultMaxAge)
}
