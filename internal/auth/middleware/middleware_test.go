package auth

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-judging/internal/db/dbtest"
	"github.com/mind-engage/mindengage-judging/internal/rbac"
)

func seedUser(t *testing.T, dbh *sql.DB, id, username, password, role string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	_, err = dbh.Exec(`INSERT INTO users (id, username, full_name, password_hash, role, created_at)
		VALUES ($1,$2,$3,$4,$5,0)`, id, username, username, string(hash), role)
	require.NoError(t, err)
}

// echoActor writes "id:role" of the context actor.
var echoActor = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	a, ok := ActorFromRequest(r)
	if !ok {
		http.Error(w, "no actor", http.StatusTeapot)
		return
	}
	_, _ = w.Write([]byte(a.ID + ":" + string(a.Role)))
})

func bearer(tok string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}

func TestIssueAndParse(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	tok, err := a.IssueJWT("u1", rbac.RoleJudge)
	require.NoError(t, err)

	c, err := a.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", c.Sub)
	actor, err := c.Actor()
	require.NoError(t, err)
	assert.True(t, actor.Caps.Evaluate)

	_, err = NewAuthService("other", time.Hour).Parse(tok)
	assert.Error(t, err)

	later := NewAuthService("secret", time.Hour)
	later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = later.Parse(tok)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTMiddleware(t *testing.T) {
	a := NewAuthService("secret", time.Hour)
	h := JWTMiddleware(a)(echoActor)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tok, err := a.IssueJWT("m1", rbac.RoleManager)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bearer(tok))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "m1:department_manager", rec.Body.String())

	bad, err := a.IssueJWT("x", rbac.Role("admin"))
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bearer(bad))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Sub: "x", Role: "judge"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bearer(unsigned))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginHandler(t *testing.T) {
	dbh := dbtest.Open(t)
	seedUser(t, dbh, "j1", "judy", "pw", "judge")
	a := NewAuthService("secret", time.Hour)
	h := LoginHandler(a, dbh)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"judy","password":"pw"}`)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out struct {
		AccessToken string `json:"access_token"`
		Role        string `json:"role"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "judge", out.Role)
	c, err := a.Parse(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "j1", c.Sub)

	for _, body := range []string{`{"username":"judy","password":"nope"}`, `{"username":"ghost","password":"pw"}`} {
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body)))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAttachRoleFromDB(t *testing.T) {
	dbh := dbtest.Open(t)
	seedUser(t, dbh, "u1", "promoted", "pw", "department_head")
	a := NewAuthService("secret", time.Hour)
	h := JWTMiddleware(a)(AttachRoleFromDB(dbh, false)(echoActor))

	tok, err := a.IssueJWT("u1", rbac.RoleJudge)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, bearer(tok))
	assert.Equal(t, "u1:department_manager", rec.Body.String())

	gone, err := a.IssueJWT("deleted", rbac.RoleJudge)
	require.NoError(t, err)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, bearer(gone))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireActor(t *testing.T) {
	rec := httptest.NewRecorder()
	RequireActor(echoActor).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHashPassword(t *testing.T) {
	h, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(h), []byte("s3cret")))
}
