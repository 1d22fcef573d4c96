package auth

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

// AttachRoleFromDB re-resolves the actor's role from the users table so a
// role change takes effect before the token expires. allowClaimFallback keeps
// the token role when the lookup fails (offline/dev); online it denies.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			actor, ok := rbac.ActorFromContext(ctx)
			if !ok {
				http.Error(w, "unauthenticated", http.StatusUnauthorized)
				return
			}

			var raw string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, actor.ID).Scan(&raw)
			switch {
			case err == nil:
				role, perr := rbac.ParseRole(raw)
				if perr != nil {
					log.Printf("auth: user %s has unknown role %q", actor.ID, raw)
					http.Error(w, "forbidden", http.StatusForbidden)
					return
				}
				if role != actor.Role {
					actor = rbac.NewActor(actor.ID, role)
				}
				next.ServeHTTP(w, r.WithContext(rbac.WithActor(ctx, actor)))

			case errors.Is(err, sql.ErrNoRows):
				// deleted users lose access even with a live token
				http.Error(w, "forbidden", http.StatusForbidden)

			default:
				if allowClaimFallback {
					next.ServeHTTP(w, r)
					return
				}
				log.Printf("auth: role lookup for %s: %v", actor.ID, err)
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
