package auth

import (
	"sort"
	"strings"
)

// RouteKind is the gate's classification of a request path.
type RouteKind int

const (
	RouteNeither RouteKind = iota
	RoutePublic
	RouteProtected
)

func (k RouteKind) String() string {
	switch k {
	case RoutePublic:
		return "public"
	case RouteProtected:
		return "protected"
	}
	return "neither"
}

// DefaultPublicRoutes lists paths reachable without a session. A "(.*)" suffix
// marks a prefix pattern; anything else matches exactly.
var DefaultPublicRoutes = []string{
	"/",
	"/landing",
	"/sign-in(.*)",
	"/sign-up(.*)",
	"/visitor(.*)",
	"/visitor-response(.*)",
	"/setup-pending",
	"/api/rpc/visitor.checkIn",
	"/api/rpc/visitor.checkOut",
	"/api/rpc/visitor.respond",
	"/api/rpc/visitor.verifyToken",
	"/api/rpc/staff.hosts",
	"/api/rpc/organization.public",
	"/api/calendar/google/callback",
	"/api/calendar/outlook/callback",
	"/api/upload",
	"/health(.*)",
	"/metrics",
	"/manifest.json",
	"/sw.js",
}

// DefaultProtectedRoots are the three role sections.
var DefaultProtectedRoots = []string{"/dashboard", "/employee", "/it"}

const wildcardSuffix = "(.*)"

// RouteClassifier decides whether a path is public, protected or neither.
type RouteClassifier struct {
	exact     map[string]struct{}
	prefixes  []string
	protected []string
}

// NewRouteClassifier compiles public patterns and protected roots.
func NewRouteClassifier(public, protectedRoots []string) *RouteClassifier {
	c := &RouteClassifier{exact: make(map[string]struct{})}
	for _, pattern := range public {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if strings.HasSuffix(pattern, wildcardSuffix) {
			c.prefixes = append(c.prefixes, strings.TrimSuffix(pattern, wildcardSuffix))
			continue
		}
		c.exact[normalizePath(pattern)] = struct{}{}
	}
	for _, root := range protectedRoots {
		if root = strings.TrimSpace(root); root != "" {
			c.protected = append(c.protected, root)
		}
	}

	sort.SliceStable(c.prefixes, func(i, j int) bool {
		return len(c.prefixes[i]) > len(c.prefixes[j])
	})
	return c
}

// Classify checks the public allow-list first, then the protected roots.
func (c *RouteClassifier) Classify(path string) RouteKind {
	path = normalizePath(path)
	if _, ok := c.exact[path]; ok {
		return RoutePublic
	}
	for _, prefix := range c.prefixes {
		if HasPathPrefixOnBoundary(path, prefix) {
			return RoutePublic
		}
	}
	for _, root := range c.protected {
		if HasPathPrefixOnBoundary(path, root) {
			return RouteProtected
		}
	}
	return RouteNeither
}

// HasPathPrefixOnBoundary reports whether prefix matches path on a segment boundary.
func HasPathPrefixOnBoundary(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) || strings.HasSuffix(prefix, "/") {
		return true
	}
	return path[len(prefix)] == '/'
}

func normalizePath(path string) string {
	if path == "" {
		return "/"
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			return "/"
		}
	}
	return path
}
