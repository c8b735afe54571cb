package policy

// Package policy evaluates organization-specific access restrictions for
// staff SSO sign-ins. Evaluation is pure: no network, no storage.

import (
	"fmt"
	"strings"

	jmespath "github.com/jmespath-community/go-jmespath"

	"github.com/sit-hvlab/session-gateway/internal/domain/session"
)

// Policy is the configured allow-lists. Zero value allows everyone.
type Policy struct {
	// AllowedEmailDomain restricts sign-ins to one email domain. A leading
	// "@" is tolerated and stripped; matching is case-insensitive.
	AllowedEmailDomain string

	// AllowedGroupIDs must intersect the group claims when non-empty.
	AllowedGroupIDs []string

	// AllowedRoles must intersect the role claims when non-empty.
	AllowedRoles []string
}

// Decision is the outcome of a restriction evaluation. Reason is set only
// on denial and names the first failing rule.
type Decision struct {
	Allowed bool
	Reason  string
}

// Evaluator applies a Policy to provider claims. Group and role claims live
// under provider-specific paths, so both are selected with JMESPath
// expressions validated at construction time.
type Evaluator struct {
	policy     Policy
	groupsExpr string
	rolesExpr  string
}

// EvaluatorOptions configures claim selection for NewEvaluator.
type EvaluatorOptions struct {
	// GroupsExpr is the JMESPath expression selecting group claims.
	// Defaults to "groups".
	GroupsExpr string

	// RolesExpr is the JMESPath expression selecting role claims.
	// Defaults to "roles".
	RolesExpr string
}

// NewEvaluator builds an Evaluator, validating the claim expressions.
func NewEvaluator(p Policy, opts EvaluatorOptions) (*Evaluator, error) {
	groupsExpr := opts.GroupsExpr
	if groupsExpr == "" {
		groupsExpr = "groups"
	}
	rolesExpr := opts.RolesExpr
	if rolesExpr == "" {
		rolesExpr = "roles"
	}
	if _, err := jmespath.Compile(groupsExpr); err != nil {
		return nil, fmt.Errorf("compile groups expression: %w", err)
	}
	if _, err := jmespath.Compile(rolesExpr); err != nil {
		return nil, fmt.Errorf("compile roles expression: %w", err)
	}
	return &Evaluator{
		policy:     p,
		groupsExpr: groupsExpr,
		rolesExpr:  rolesExpr,
	}, nil
}

// Evaluate runs the rules in fixed order; the first failing rule wins and
// its reason is returned. No configured restrictions means allowed.
func (e *Evaluator) Evaluate(claims map[string]any, email string) Decision {
	if email == "" {
		email = session.EmailFromClaims(claims)
	}

	if domain := normalizeDomain(e.policy.AllowedEmailDomain); domain != "" {
		if !strings.HasSuffix(strings.ToLower(email), "@"+strings.ToLower(domain)) {
			return Decision{Reason: fmt.Sprintf("Email domain must be @%s.", domain)}
		}
	}

	if len(e.policy.AllowedGroupIDs) > 0 {
		groups := toList(e.selectClaim(claims, e.groupsExpr))
		if !intersects(groups, e.policy.AllowedGroupIDs) {
			return Decision{Reason: "Your account is not in an allowed staff/admin group."}
		}
	}

	if len(e.policy.AllowedRoles) > 0 {
		roles := toList(e.selectClaim(claims, e.rolesExpr))
		if !intersects(roles, e.policy.AllowedRoles) {
			return Decision{Reason: "Your account does not have an allowed staff/admin role."}
		}
	}

	return Decision{Allowed: true}
}

// selectClaim evaluates a JMESPath expression against the claims object.
// Expressions were validated in NewEvaluator; a search failure at this
// point means the claim is simply absent.
func (e *Evaluator) selectClaim(claims map[string]any, expr string) any {
	result, err := jmespath.Search(expr, claims)
	if err != nil {
		return nil
	}
	return result
}

// normalizeDomain trims whitespace and a leading "@" from a configured
// domain value. Empty input means no domain restriction.
func normalizeDomain(domain string) string {
	trimmed := strings.TrimSpace(domain)
	return strings.TrimPrefix(trimmed, "@")
}

// toList normalizes claim values: lists pass through, a single non-empty
// string becomes a one-element list, anything else is empty.
func toList(value any) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return []string{trimmed}
		}
	}
	return nil
}

func intersects(values, allowed []string) bool {
	for _, v := range values {
		for _, a := range allowed {
			if v == a {
				return true
			}
		}
	}
	return false
}
