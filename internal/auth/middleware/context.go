package auth

import (
	"net/http"

	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

// ActorFromRequest returns the actor JWTMiddleware attached.
func ActorFromRequest(r *http.Request) (rbac.Actor, bool) {
	return rbac.ActorFromContext(r.Context())
}

// RequireActor rejects requests that reached it without an actor, e.g. a
// route mounted outside the JWT group by mistake.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromRequest(r); !ok {
			http.Error(w, "unauthenticated", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
