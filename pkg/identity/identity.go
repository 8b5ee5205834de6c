// Package identity defines the caller and person records the engine
// authorizes against. Authentication itself happens outside the engine; an
// IdentityResolver hands the engine an already-resolved Caller per request.
package identity

import (
	"net/http"
	"strings"
)

// Person is a member of a group. Email is the unique correlation key across
// group membership; comparisons are case-sensitive exact matches.
type Person struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// Caller is the identity a request acts as.
type Caller struct {
	Person

	// Roles are global role names granted at authentication time. A gate
	// listing one of these names grants access without any membership lookup.
	Roles []string `json:"roles,omitempty"`

	// AdminHint marks callers the identity layer already recognized as
	// administrators. The access evaluator honors it alongside its own
	// configured admin rules.
	AdminHint bool `json:"admin_hint,omitempty"`
}

// HasRole reports whether the caller holds the named global role verbatim.
func (c Caller) HasRole(name string) bool {
	for _, r := range c.Roles {
		if r == name {
			return true
		}
	}
	return false
}

// IdentityResolver supplies the resolved caller for an incoming request.
type IdentityResolver interface {
	Resolve(r *http.Request) (Caller, bool)
}

// HeaderResolver reads a pre-authenticated identity from trusted headers set
// by an upstream gateway: X-User-Email, X-User-Roles (comma-separated) and
// X-User-Admin.
type HeaderResolver struct{}

// Resolve implements IdentityResolver.
func (HeaderResolver) Resolve(r *http.Request) (Caller, bool) {
	email := r.Header.Get("X-User-Email")
	if email == "" {
		return Caller{}, false
	}
	c := Caller{
		Person:    Person{Email: email, Name: r.Header.Get("X-User-Name")},
		AdminHint: r.Header.Get("X-User-Admin") == "true",
	}
	if raw := r.Header.Get("X-User-Roles"); raw != "" {
		for _, role := range strings.Split(raw, ",") {
			if role = strings.TrimSpace(role); role != "" {
				c.Roles = append(c.Roles, role)
			}
		}
	}
	return c, true
}
