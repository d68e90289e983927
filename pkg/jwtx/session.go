package jwtx

import (
	"slices"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// DefaultExpiryHorizon is how far ahead of exp a credential counts as
// expiring soon.
const DefaultExpiryHorizon = 300 * time.Second

// FallbackDisplayName is shown when a token carries no usable identity.
const FallbackDisplayName = "User"

// Session is the view of a decoded access credential. It is recomputed from
// the raw token on every read and must not be cached across refreshes.
type Session struct {
	Subject   string    `json:"sub"`
	SessionID string    `json:"sid,omitempty"`
	Username  string    `json:"username,omitempty"`
	Email     string    `json:"email,omitempty"`
	Name      string    `json:"name"`
	Initials  string    `json:"initials"`
	ExpiresAt time.Time `json:"expires_at"`
	IssuedAt  time.Time `json:"issued_at,omitzero"`

	// Roles are the client scoped roles in order of first appearance. They
	// are the only roles consulted for authorization.
	Roles []string `json:"roles"`

	// RealmRoles are exposed for display and debugging.
	RealmRoles []string `json:"realm_roles,omitempty"`
}

func newSession(c *Claims, clientID string) Session {
	s := Session{
		Subject:    c.Subject,
		SessionID:  c.SID,
		Username:   c.PreferredUsername,
		Email:      c.Email,
		ExpiresAt:  c.ExpiresAt.Time,
		Roles:      c.ClientRoles(clientID),
		RealmRoles: c.RealmRoles(),
	}
	if c.IssuedAt != nil {
		s.IssuedAt = c.IssuedAt.Time
	}
	s.Name = displayName(c)
	s.Initials = initials(s.Name)
	return s
}

// IsExpired reports whether now has reached exp. The boundary second counts as
// expired.
func (s Session) IsExpired(now time.Time) bool {
	return now.Unix() >= s.ExpiresAt.Unix()
}

// IsExpiringSoon reports whether exp falls within horizon of now.
func (s Session) IsExpiringSoon(now time.Time, horizon time.Duration) bool {
	return s.ExpiresAt.Unix() <= now.Unix()+int64(horizon/time.Second)
}

// TimeLeft is the duration until exp, negative once expired.
func (s Session) TimeLeft(now time.Time) time.Duration {
	return s.ExpiresAt.Sub(now)
}

// PrimaryRole is the first client scoped role, used as the manifest function
// code. It is empty when the session has no roles.
func (s Session) PrimaryRole() string {
	if len(s.Roles) == 0 {
		return ""
	}
	return s.Roles[0]
}

func (s Session) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

// HasAnyRole reports whether the session holds at least one of roles.
func (s Session) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, s.HasRole)
}

// HasAllRoles reports whether the session holds every one of roles.
func (s Session) HasAllRoles(roles ...string) bool {
	for _, r := range roles {
		if !s.HasRole(r) {
			return false
		}
	}
	return true
}

func displayName(c *Claims) string {
	switch {
	case c.Name != "":
		return c.Name
	case c.GivenName != "" && c.FamilyName != "":
		return c.GivenName + " " + c.FamilyName
	case c.PreferredUsername != "":
		return c.PreferredUsername
	case c.Email != "":
		local, _, _ := strings.Cut(c.Email, "@")
		if local != "" {
			return local
		}
	}
	return FallbackDisplayName
}

func initials(name string) string {
	words := strings.Fields(name)
	if len(words) >= 2 {
		a, _ := utf8.DecodeRuneInString(words[0])
		b, _ := utf8.DecodeRuneInString(words[1])
		return strings.ToUpper(string([]rune{a, b}))
	}

	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	for i, r := range runes {
		runes[i] = unicode.ToUpper(r)
	}
	return string(runes)
}
