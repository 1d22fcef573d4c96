package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODE", "")
	t.Setenv("DB_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeOffline, cfg.Mode)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 8*time.Hour, cfg.TokenTTL)
	assert.Equal(t, cfg.CORSOriginsOffline, cfg.CORSOrigins())
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "judging.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
mode: online
http_addr: ":9000"
db_driver: postgres
auth_hmac_secret: from-file
token_ttl: 2h
report_concurrency: 8
cors_origins_online: ["https://a.example", "https://b.example"]
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":9100")
	t.Setenv("REPORT_CONCURRENCY", "2")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ModeOnline, cfg.Mode)
	assert.Equal(t, ":9100", cfg.HTTPAddr)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 2, cfg.ReportConcurrency)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins())
}

func TestValidate(t *testing.T) {
	cfg := defaults()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.DBDriver = "mysql"
	assert.Error(t, bad.Validate())

	online := cfg
	online.Mode = ModeOnline
	assert.Error(t, online.Validate(), "default secret must be rejected online")

	online.AuthHMACSecret = "real"
	assert.NoError(t, online.Validate())
}

func TestCSVOr(t *testing.T) {
	t.Setenv("X_LIST", " a, ,b ")
	assert.Equal(t, []string{"a", "b"}, csvOr("X_LIST", nil))
	assert.Equal(t, []string{"d"}, csvOr("X_UNSET_LIST", []string{"d"}))
}
