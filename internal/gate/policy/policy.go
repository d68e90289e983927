// Package policy holds the route policy of the gateway: which paths are
// framework or system paths, which are public, which client roles open the
// protected area and which protected paths exist yet.
//
// A Policy is immutable once loaded. Hot reload swaps whole snapshots through
// a Holder, so classification is a pure function of the path and the
// snapshot it was asked of.
package policy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrInvalidPolicy is returned when a policy document fails validation.
var ErrInvalidPolicy = errors.New("policy: invalid")

// UnauthorizedMode selects where a signed-in user without a required role is
// sent.
type UnauthorizedMode string

const (
	// UnauthorizedRoot redirects to /?error=insufficient_permissions.
	UnauthorizedRoot UnauthorizedMode = "root"

	// UnauthorizedPage redirects to /unauthorized, which must then be public.
	UnauthorizedPage UnauthorizedMode = "page"
)

const unauthorizedPath = "/unauthorized"

// Policy is one immutable snapshot of the route policy.
type Policy struct {
	// SystemPrefixes are always allowed: framework assets, the API proxy,
	// the auth namespace and static directories.
	SystemPrefixes []string `yaml:"system_prefixes"`

	// PublicPaths are allowed without a credential, together with their
	// sub-paths. "/" only matches itself.
	PublicPaths []string `yaml:"public_paths"`

	// RequiredRoles are client roles of which the user needs at least one.
	RequiredRoles []string `yaml:"required_roles"`

	// AppRoutes are the protected routes the upstream application serves.
	// A segment written as "*" or "[name]" matches any single segment. When
	// empty, every protected path is considered to exist.
	AppRoutes []string `yaml:"app_routes"`

	// MenuRoutes are routes declared in navigation but possibly not built
	// yet. Protected paths found here but not in AppRoutes are sent to the
	// coming soon page.
	MenuRoutes []string `yaml:"menu_routes"`

	UnauthorizedMode UnauthorizedMode `yaml:"unauthorized_mode"`

	required map[string]struct{}
}

// DefaultPolicy returns the built-in policy.
func DefaultPolicy() *Policy {
	p := &Policy{
		SystemPrefixes: []string{
			"/coming-soon",
			"/not-found",
			"/_next",
			"/api",
			"/favicon.ico",
			"/images",
			"/icons",
			"/auth",
			"/silent-check-sso.html",
		},
		PublicPaths: []string{
			"/auth/callback",
			"/",
			"/landing",
			"/register",
			"/login",
			"/logout",
			"/debug",
		},
		RequiredRoles:    []string{"ADMIN", "MANAGER", "CUSTOMER"},
		UnauthorizedMode: UnauthorizedRoot,
	}
	if err := p.Validate(); err != nil {
		panic(err)
	}
	return p
}

// Load reads a policy file. Keys absent from the file keep their default
// values.
func Load(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML policy document and validates it.
func Parse(data []byte) (*Policy, error) {
	p := DefaultPolicy()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPolicy, err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate normalises the path lists and checks the document. It must be
// called before a hand-built Policy is used.
func (p *Policy) Validate() error {
	var errs []error

	for _, list := range []*[]string{&p.SystemPrefixes, &p.PublicPaths, &p.AppRoutes, &p.MenuRoutes} {
		for i, path := range *list {
			if !strings.HasPrefix(path, "/") {
				errs = append(errs, fmt.Errorf("path %q must start with /", path))
				continue
			}
			(*list)[i] = normalize(path)
		}
	}

	if len(p.RequiredRoles) == 0 {
		errs = append(errs, errors.New("required_roles must not be empty"))
	}
	p.required = make(map[string]struct{}, len(p.RequiredRoles))
	for _, r := range p.RequiredRoles {
		if r == "" {
			errs = append(errs, errors.New("required_roles must not contain empty roles"))
		}
		p.required[r] = struct{}{}
	}

	switch p.UnauthorizedMode {
	case "":
		p.UnauthorizedMode = UnauthorizedRoot
	case UnauthorizedRoot:
	case UnauthorizedPage:
		// A protected /unauthorized would redirect to itself forever.
		if p.Classify(unauthorizedPath) == Protected {
			errs = append(errs, fmt.Errorf("unauthorized_mode page requires %s to be public", unauthorizedPath))
		}
	default:
		errs = append(errs, fmt.Errorf("unauthorized_mode %q must be page or root", p.UnauthorizedMode))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidPolicy, errors.Join(errs...))
	}
	return nil
}

// Authorized reports whether roles intersects the required role set.
func (p *Policy) Authorized(roles []string) bool {
	for _, r := range roles {
		if _, ok := p.required[r]; ok {
			return true
		}
	}
	return false
}

// UnauthorizedLocation is the redirect target for a user lacking roles.
func (p *Policy) UnauthorizedLocation() string {
	if p.UnauthorizedMode == UnauthorizedPage {
		return unauthorizedPath
	}
	return "/?error=insufficient_permissions"
}

// Equal reports whether two snapshots describe the same policy.
func (p *Policy) Equal(o *Policy) bool {
	return slices.Equal(p.SystemPrefixes, o.SystemPrefixes) &&
		slices.Equal(p.PublicPaths, o.PublicPaths) &&
		slices.Equal(p.RequiredRoles, o.RequiredRoles) &&
		slices.Equal(p.AppRoutes, o.AppRoutes) &&
		slices.Equal(p.MenuRoutes, o.MenuRoutes) &&
		p.UnauthorizedMode == o.UnauthorizedMode
}

// normalize drops a trailing slash, keeping "/" itself.
func normalize(path string) string {
	if trimmed := strings.TrimRight(path, "/"); trimmed != "" {
		return trimmed
	}
	return "/"
}
