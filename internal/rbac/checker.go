package rbac

import (
	"context"
	"strings"
)

type Checker struct {
	RolePermissions map[Role][]string
}

func NewChecker(rp map[Role][]string) *Checker {
	if rp == nil {
		rp = RolePermissions
	}
	return &Checker{RolePermissions: rp}
}

func (c *Checker) Has(role Role, perm string) bool {
	perms, ok := c.RolePermissions[role]
	if !ok {
		return false
	}
	for _, p := range perms {
		if p == "*" || matchPerm(p, perm) {
			return true
		}
	}
	return false
}

func (c *Checker) Any(role Role, perms ...string) bool {
	for _, p := range perms {
		if c.Has(role, p) {
			return true
		}
	}
	return false
}

func (c *Checker) All(role Role, perms ...string) bool {
	for _, p := range perms {
		if !c.Has(role, p) {
			return false
		}
	}
	return true
}

func matchPerm(pattern, perm string) bool {
	if pattern == "*" || pattern == perm {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(perm, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// ---- actor in context ----

// Actor is the authenticated caller. It is built once per request and passed
// explicitly into services; nothing below the HTTP layer looks it up again.
type Actor struct {
	ID   string
	Role Role
	Caps Capabilities
}

// NewActor resolves capabilities for role using the default policy.
func NewActor(id string, role Role) Actor {
	return Actor{ID: id, Role: role, Caps: defaultChecker.CapabilitiesFor(role)}
}

type ctxKey struct{}

var ctxKeyActor = ctxKey{}

func WithActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKeyActor, a)
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKeyActor).(Actor)
	return a, ok
}

func RoleFromContext(ctx context.Context) Role {
	a, _ := ActorFromContext(ctx)
	return a.Role
}

func SubjectFromContext(ctx context.Context) string {
	a, _ := ActorFromContext(ctx)
	return a.ID
}
