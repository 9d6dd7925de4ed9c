package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/felixgeelhaar/careslot/pkg/observability"
)

// Role is what a caller may do.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleProfessional Role = "professional"
	RolePatient      Role = "patient"
	RoleAssistant    Role = "assistant"
)

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProfessional, RolePatient, RoleAssistant:
		return true
	}
	return false
}

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	Role   Role
}

// IsAdmin reports whether the caller has administrative rights.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// CanDecide reports whether the caller may approve or reject blocks.
func (p Principal) CanDecide() bool { return p.Role == RoleAdmin || p.Role == RoleAssistant }

type principalKey struct{}

func withPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = observability.WithUserID(ctx, p.UserID)
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the caller attached by the auth middleware.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// Authenticator maps bearer tokens to principals.
type Authenticator struct {
	tokens map[string]Principal
}

// ParseTokens reads "token:user:role" entries separated by commas.
func ParseTokens(spec string) (*Authenticator, error) {
	a := &Authenticator{tokens: make(map[string]Principal)}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" {
			return nil, fmt.Errorf("invalid API token entry %q: want token:user:role", entry)
		}
		role := Role(strings.ToLower(parts[2]))
		if !role.IsValid() {
			return nil, fmt.Errorf("invalid role %q for user %s", parts[2], parts[1])
		}
		a.tokens[parts[0]] = Principal{UserID: parts[1], Role: role}
	}
	return a, nil
}

// Len returns the number of configured tokens.
func (a *Authenticator) Len() int {
	return len(a.tokens)
}

// Authenticate resolves the bearer token of r.
func (a *Authenticator) Authenticate(r *http.Request) (Principal, bool) {
	header := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return Principal{}, false
	}
	p, ok := a.tokens[strings.TrimSpace(token)]
	return p, ok
}

// Require wraps next so only callers holding one of roles get through. No
// roles means any authenticated caller.
func (a *Authenticator) Require(next http.HandlerFunc, roles ...Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := a.Authenticate(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, p.Role) {
			writeError(w, http.StatusForbidden, "forbidden", fmt.Sprintf("role %s may not do this", p.Role))
			return
		}
		next(w, r.WithContext(withPrincipal(r.Context(), p)))
	}
}
