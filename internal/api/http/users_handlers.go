package http

import (
	"context"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	authmw "github.com/mind-engage/mindengage-judging/internal/auth/middleware"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

type userRow struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`               // usually "student"
	Password string `json:"password,omitempty"` // plaintext optional (LAN-only)
}

// POST /users/bulk  JSON array, or multipart file= with CSV/JSON.
func BulkUpsertUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rows []userRow
		ct := r.Header.Get("Content-Type")
		if strings.HasPrefix(ct, "multipart/form-data") {
			f, _, err := r.FormFile("file")
			if err != nil {
				http.Error(w, "file required", http.StatusBadRequest)
				return
			}
			defer f.Close()
			raw, err := io.ReadAll(f)
			if err != nil || len(strings.TrimSpace(string(raw))) == 0 {
				http.Error(w, "empty file", http.StatusBadRequest)
				return
			}
			// sniff CSV vs JSON by first non-space byte
			if t := strings.TrimSpace(string(raw)); t[0] == '[' || t[0] == '{' {
				if err := json.Unmarshal(raw, &rows); err != nil {
					http.Error(w, "bad json", http.StatusBadRequest)
					return
				}
			} else {
				rs, err := parseCSV(strings.NewReader(string(raw)))
				if err != nil {
					http.Error(w, "bad csv: "+err.Error(), http.StatusBadRequest)
					return
				}
				rows = rs
			}
		} else {
			if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
				http.Error(w, "expected JSON array or multipart file", http.StatusBadRequest)
				return
			}
		}
		if len(rows) == 0 {
			respondJSON(w, http.StatusOK, map[string]any{"inserted": 0, "updated": 0})
			return
		}

		ins, upd, err := upsertUsers(r.Context(), db, rows)
		var bad *badUserError
		if errors.As(err, &bad) {
			http.Error(w, bad.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"inserted": ins, "updated": upd})
	}
}

// GET /users?role=judge
func ListUsersHandler(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := `SELECT id, username, full_name, role FROM users`
		var args []any
		if raw := r.URL.Query().Get("role"); raw != "" {
			role, err := rbac.ParseRole(raw)
			if err != nil {
				http.Error(w, "invalid role", http.StatusBadRequest)
				return
			}
			q += ` WHERE role=$1`
			args = append(args, string(role))
		}
		rows, err := db.QueryContext(r.Context(), q+` ORDER BY username`, args...)
		if err != nil {
			writeError(w, err)
			return
		}
		defer rows.Close()
		out := []map[string]string{}
		for rows.Next() {
			var id, u, name, role string
			if err := rows.Scan(&id, &u, &name, &role); err != nil {
				writeError(w, err)
				return
			}
			out = append(out, map[string]string{"id": id, "username": u, "full_name": name, "role": role})
		}
		if err := rows.Err(); err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func parseCSV(r io.Reader) ([]userRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	hdr, err := cr.Read()
	if err != nil {
		return nil, err
	}
	idx := map[string]int{}
	for i, h := range hdr {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, k := range []string{"id", "username", "role"} {
		if _, ok := idx[k]; !ok {
			return nil, errors.New("missing column: " + k)
		}
	}
	var rows []userRow
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		row := userRow{
			ID:       rec[idx["id"]],
			Username: rec[idx["username"]],
			Role:     strings.ToLower(rec[idx["role"]]),
		}
		if i, ok := idx["full_name"]; ok {
			row.FullName = rec[i]
		}
		if i, ok := idx["password"]; ok {
			row.Password = rec[i]
		}
		rows = append(rows, row)
	}
	return rows, nil
}

type badUserError struct{ msg string }

func (e *badUserError) Error() string { return e.msg }

// upsertUsers is all-or-nothing. Existing users keep their password hash
// unless a new password is given.
func upsertUsers(ctx context.Context, db *sql.DB, rows []userRow) (inserted, updated int, err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	now := time.Now().Unix()
	for _, r := range rows {
		r.ID, r.Username, r.FullName = strings.TrimSpace(r.ID), strings.TrimSpace(r.Username), strings.TrimSpace(r.FullName)
		if r.ID == "" || r.Username == "" {
			return inserted, updated, &badUserError{"id and username required"}
		}
		if r.Role == "" {
			r.Role = string(rbac.RoleStudent)
		}
		role, perr := rbac.ParseRole(r.Role)
		if perr != nil {
			return inserted, updated, &badUserError{"invalid role: " + r.Role}
		}
		var phash string
		if r.Password != "" {
			if phash, err = authmw.HashPassword(r.Password); err != nil {
				return inserted, updated, err
			}
		}

		var exists bool
		if err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE id=$1`, r.ID).Scan(new(int)); err == nil {
			exists = true
		} else if !errors.Is(err, sql.ErrNoRows) {
			return inserted, updated, err
		}
		err = nil
		if exists {
			if phash != "" {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, full_name=$2, role=$3, password_hash=$4 WHERE id=$5`,
					r.Username, r.FullName, string(role), phash, r.ID)
			} else {
				_, err = tx.ExecContext(ctx, `UPDATE users SET username=$1, full_name=$2, role=$3 WHERE id=$4`,
					r.Username, r.FullName, string(role), r.ID)
			}
			if err != nil {
				return inserted, updated, fmt.Errorf("update %s: %w", r.ID, err)
			}
			updated++
		} else {
			if phash == "" {
				return inserted, updated, &badUserError{"password required for new user: " + r.Username}
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO users (id, username, full_name, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5,$6)`,
				r.ID, r.Username, r.FullName, phash, string(role), now)
			if err != nil {
				return inserted, updated, fmt.Errorf("insert %s: %w", r.ID, err)
			}
			inserted++
		}
	}
	return
}
