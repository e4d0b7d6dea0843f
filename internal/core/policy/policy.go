// Package policy decides whether a request may reach its handler.
//
// A Policy is an ordered list of rules. Rules are evaluated top-down and the
// first rule whose method and path pattern match decides; a request matching
// no rule is denied.
//
// Path patterns are either exact paths ("/health"), single-segment globs as
// understood by path.Match ("/api/admin/users/*"), or prefixes ending in
// "/**" which match the prefix itself and everything below it.
package policy

import (
	"net/http"
	"path"
	"strings"

	"github.com/workspacemanager/auth-service/internal/core/domain"
)

// AccessKind classifies what a rule requires.
type AccessKind int

const (
	// Public requires nothing.
	Public AccessKind = iota
	// Authenticated requires a principal.
	Authenticated
	// HasRole requires a principal holding the rule's role authority.
	HasRole
	// Deny rejects every request.
	Deny
)

func (k AccessKind) String() string {
	switch k {
	case Public:
		return "public"
	case Authenticated:
		return "authenticated"
	case HasRole:
		return "role"
	default:
		return "deny"
	}
}

// Access is the requirement attached to a rule.
type Access struct {
	Kind AccessKind
	Role domain.Role
}

func PermitAll() Access { return Access{Kind: Public} }
func RequireAuthenticated() Access { return Access{Kind: Authenticated} }
func RequireRole(r domain.Role) Access { return Access{Kind: HasRole, Role: r} }
func DenyAll() Access { return Access{Kind: Deny} }

// AnyMethod matches every HTTP method.
const AnyMethod = "*"

// Rule binds an access requirement to a method and path pattern.
type Rule struct {
	Method  string
	Pattern string
	Access  Access
}

// Policy is an ordered rule list.
type Policy struct {
	rules []Rule
}

// New returns a Policy evaluating rules in the given order.
func New(rules ...Rule) *Policy {
	cp := make([]Rule, len(rules))
	copy(cp, rules)
	return &Policy{rules: cp}
}

// Rules returns a copy of the policy's rules in evaluation order.
func (p *Policy) Rules() []Rule {
	cp := make([]Rule, len(p.rules))
	copy(cp, p.rules)
	return cp
}

// Match returns the first rule matching method and urlPath.
func (p *Policy) Match(method, urlPath string) (Rule, bool) {
	for _, r := range p.rules {
		if r.matches(method, urlPath) {
			return r, true
		}
	}
	return Rule{}, false
}

// Evaluate returns nil when the request may proceed, domain.ErrUnauthenticated
// when a principal is required but absent, and domain.ErrForbidden when the
// principal lacks the required authority or the route is denied outright.
func (p *Policy) Evaluate(method, urlPath string, principal *domain.Principal) error {
	rule, ok := p.Match(method, urlPath)
	if !ok {
		rule = Rule{Access: DenyAll()}
	}

	switch rule.Access.Kind {
	case Public:
		return nil
	case Authenticated:
		if principal == nil {
			return domain.ErrUnauthenticated
		}
		return nil
	case HasRole:
		if principal == nil {
			return domain.ErrUnauthenticated
		}
		if !principal.HasAuthority(rule.Access.Role.Authority()) {
			return domain.ErrForbidden
		}
		return nil
	default:
		if principal == nil {
			return domain.ErrUnauthenticated
		}
		return domain.ErrForbidden
	}
}

func (r Rule) matches(method, urlPath string) bool {
	if r.Method != "" && r.Method != AnyMethod && !strings.EqualFold(r.Method, method) {
		return false
	}
	return matchPath(r.Pattern, cleanPath(urlPath))
}

func matchPath(pattern, urlPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/")
	}
	if pattern == urlPath {
		return true
	}
	matched, err := path.Match(pattern, urlPath)
	return err == nil && matched
}

func cleanPath(p string) string {
	if p == "" {
		return "/"
	}
	return path.Clean(p)
}

// Default is the route policy of the service.
func Default() *Policy {
	return New(
		Rule{Method: http.MethodPost, Pattern: "/api/auth/register", Access: PermitAll()},
		Rule{Method: http.MethodPost, Pattern: "/api/auth/login", Access: PermitAll()},
		Rule{Method: http.MethodGet, Pattern: "/health", Access: PermitAll()},
		Rule{Method: http.MethodGet, Pattern: "/health/ready", Access: PermitAll()},
		Rule{Method: http.MethodGet, Pattern: "/metrics", Access: PermitAll()},
		Rule{Method: http.MethodGet, Pattern: "/swagger/**", Access: PermitAll()},
		Rule{Method: AnyMethod, Pattern: "/api/admin/**", Access: RequireRole(domain.RoleAdmin)},
		Rule{Method: AnyMethod, Pattern: "/api/**", Access: RequireAuthenticated()},
	)
}
