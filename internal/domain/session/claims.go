package session

import (
	"fmt"
	"net/url"
)

// avatarFallback builds a deterministic avatar URL for identities whose
// provider supplies no picture claim.
func avatarFallback(name string) string {
	return fmt.Sprintf("https://ui-avatars.com/api/?name=%s&size=200", url.QueryEscape(name))
}

// EmailFromClaims resolves an email address from SSO claims, falling back
// through the claim names providers actually use.
func EmailFromClaims(claims map[string]any) string {
	for _, key := range []string{"email", "upn", "unique_name"} {
		if v, ok := claims[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// UserFromClaims normalizes SSO claims into the shared User shape. Missing
// fields fall back the same way for every provider so staff identities look
// identical to LTI ones downstream.
func UserFromClaims(claims map[string]any) User {
	str := func(key string) string {
		v, _ := claims[key].(string)
		return v
	}

	email := EmailFromClaims(claims)
	name := str("name")
	if name == "" {
		name = email
	}
	if name == "" {
		name = "Staff User"
	}

	id := firstNonEmpty(str("sub"), email, name)
	picture := str("picture")
	if picture == "" {
		picture = avatarFallback(name)
	}

	return User{ID: id, Email: email, Name: name, Picture: picture}
}

// NormalizeStaffUser applies the same fallback rules to a user record that
// already went through a backend exchange (which may return sparse fields).
func NormalizeStaffUser(u User) User {
	if u.Name == "" {
		u.Name = firstNonEmpty(u.Email, "Staff User")
	}
	if u.ID == "" {
		u.ID = firstNonEmpty(u.Email, "staff")
	}
	if u.Picture == "" {
		u.Picture = avatarFallback(u.Name)
	}
	return u
}

// firstNonEmpty returns the first non-empty string from vals, or empty string if none.
func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
