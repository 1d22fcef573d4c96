package http

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

type updateUserRoleReq struct {
	Role string `json:"role"`
}

// PUT /users/{userID}/role
func UpdateUserRoleHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID") // id or username
		if target == "" {
			http.Error(w, "missing userID", http.StatusBadRequest)
			return
		}

		var req updateUserRoleReq
		if !decodeJSON(w, r, &req) {
			return
		}
		role, err := rbac.ParseRole(req.Role)
		if err != nil {
			http.Error(w, "invalid role", http.StatusBadRequest)
			return
		}

		var id, curRole string
		err = db.QueryRowContext(r.Context(),
			`SELECT id, role FROM users WHERE id=$1 OR username=$1`, target).Scan(&id, &curRole)
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "user not found", http.StatusNotFound)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}

		// a conference always keeps someone who can manage criteria and reports
		cur, _ := rbac.ParseRole(curRole)
		if cur == rbac.RoleManager && role != rbac.RoleManager {
			var managers int
			if err := db.QueryRowContext(r.Context(),
				`SELECT COUNT(1) FROM users WHERE role=$1 OR role=$2`, string(rbac.RoleManager), "department_head").Scan(&managers); err != nil {
				writeError(w, err)
				return
			}
			if managers <= 1 {
				http.Error(w, "cannot demote the last department manager", http.StatusBadRequest)
				return
			}
		}

		if _, err := db.ExecContext(r.Context(), `UPDATE users SET role=$2 WHERE id=$1`, id, string(role)); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
