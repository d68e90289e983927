package policy

import "strings"

// Class is the coarse classification of a request path.
type Class int

const (
	Protected Class = iota
	Public
	System
)

func (c Class) String() string {
	switch c {
	case System:
		return "system"
	case Public:
		return "public"
	default:
		return "protected"
	}
}

// Placement says whether a protected path is served by the application.
type Placement int

const (
	// Existing paths are handed to the application.
	Existing Placement = iota

	// ComingSoon paths are declared in navigation but not built yet.
	ComingSoon

	// Unknown paths fall through to the application's not-found handling.
	Unknown
)

func (p Placement) String() string {
	switch p {
	case ComingSoon:
		return "coming_soon"
	case Unknown:
		return "unknown"
	default:
		return "existing"
	}
}

// Classify maps path to exactly one class. First match wins: system prefixes,
// then public paths, then file-like paths (containing a dot, served as static
// assets and reported as System), then Protected.
func (p *Policy) Classify(path string) Class {
	switch {
	case p.IsSystem(path):
		return System
	case p.IsPublic(path):
		return Public
	case strings.Contains(path, "."):
		return System
	default:
		return Protected
	}
}

// IsSystem reports whether path falls under a system prefix.
func (p *Policy) IsSystem(path string) bool {
	for _, prefix := range p.SystemPrefixes {
		if underPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// IsPublic reports whether path is a public path or below one. "/" is only
// public as itself.
func (p *Policy) IsPublic(path string) bool {
	for _, pub := range p.PublicPaths {
		if pub == "/" {
			if path == "/" {
				return true
			}
			continue
		}
		if underPrefix(path, pub) {
			return true
		}
	}
	return false
}

// Placement narrows a protected path against the declared application and
// menu routes.
func (p *Policy) Placement(path string) Placement {
	if len(p.AppRoutes) == 0 {
		return Existing
	}

	path = normalize(path)
	if matchAny(p.AppRoutes, path) {
		return Existing
	}
	if matchAny(p.MenuRoutes, path) {
		return ComingSoon
	}
	return Unknown
}

// underPrefix matches prefix on a segment boundary.
func underPrefix(path, prefix string) bool {
	if path == prefix {
		return true
	}
	return strings.HasPrefix(path, prefix) && path[len(prefix)] == '/'
}

func matchAny(routes []string, path string) bool {
	for _, r := range routes {
		if matchRoute(r, path) {
			return true
		}
	}
	return false
}

// matchRoute compares segment by segment. "*" and "[name]" match any one
// non-empty segment.
func matchRoute(route, path string) bool {
	if route == path {
		return true
	}

	rs := strings.Split(route, "/")
	ps := strings.Split(path, "/")
	if len(rs) != len(ps) {
		return false
	}
	for i, seg := range rs {
		if seg == ps[i] {
			continue
		}
		if ps[i] != "" && (seg == "*" || (strings.HasPrefix(seg, "[") && strings.HasSuffix(seg, "]"))) {
			continue
		}
		return false
	}
	return true
}
