package domain

import "github.com/aussiebroadwan/portalgate/pkg/jwtx"

// Outcome is the terminal state of one access gate evaluation.
type Outcome int

const (
	Pass Outcome = iota
	RedirectLogin
	RedirectUnauthorized
	RedirectComingSoon
	PassThroughNotFound
)

func (o Outcome) String() string {
	switch o {
	case Pass:
		return "pass"
	case RedirectLogin:
		return "redirect_login"
	case RedirectUnauthorized:
		return "redirect_unauthorized"
	case RedirectComingSoon:
		return "redirect_coming_soon"
	case PassThroughNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Login error indicators carried as ?error= on the login redirect.
const (
	ReasonNoToken                 = "no_token"
	ReasonInvalidToken            = "invalid_token"
	ReasonTokenExpired            = "token_expired"
	ReasonInsufficientPermissions = "insufficient_permissions"
)

// Decision is what the gate tells the HTTP layer to do with a request.
type Decision struct {
	Outcome Outcome

	// Location is the redirect target for the Redirect* outcomes.
	Location string

	// Reason is a short machine-readable cause, empty on Pass.
	Reason string

	// Err is the failure behind a login or unauthorized redirect.
	Err error

	// Refreshable is set on Pass when the access credential has expired but a
	// refresh credential is present.
	Refreshable bool

	// Session is the decoded access credential when the gate read one.
	Session *jwtx.Session
}

// Redirects reports whether the decision ends in a redirect.
func (d Decision) Redirects() bool {
	switch d.Outcome {
	case RedirectLogin, RedirectUnauthorized, RedirectComingSoon:
		return true
	default:
		return false
	}
}
