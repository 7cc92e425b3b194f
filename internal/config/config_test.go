// ABOUTME: Tests for configuration loading, env expansion, and validation.
// ABOUTME: Covers YAML files, env-only fallback, defaults, and required fields.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "telegate.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadValidConfig(t *testing.T) {
	path := writeConfig(t, `
telegram:
  app_id: 12345
  app_hash: "abcdef"
  session_token: "c2Vzc2lvbg=="

server:
  http_addr: ":9090"

database:
  path: "/tmp/telegate.db"

auth:
  jwt_secret: "shhh"

fetch:
  default_limit: 25
  max_limit: 500

logging:
  level: "debug"
  format: "json"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 12345, cfg.Telegram.AppID)
	assert.Equal(t, "abcdef", cfg.Telegram.AppHash)
	assert.Equal(t, ":9090", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/telegate.db", cfg.Database.Path)
	assert.Equal(t, "shhh", cfg.Auth.JWTSecret)
	assert.Equal(t, 25, cfg.Fetch.DefaultLimit)
	assert.Equal(t, 500, cfg.Fetch.MaxLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  app_id: 12345
  app_hash: "abcdef"
  session_token: "c2Vzc2lvbg=="
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultHTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, DefaultFetchLimit, cfg.Fetch.DefaultLimit)
	assert.Equal(t, DefaultMaxFetchLimit, cfg.Fetch.MaxLimit)
	assert.Equal(t, DefaultConnectRetries, cfg.Telegram.ConnectRetries)
}

func TestLoadExpandsEnvVars(t *testing.T) {
	t.Setenv("TEST_TG_HASH", "hash-from-env")
	t.Setenv("TEST_TG_SESSION", "session-from-env")

	path := writeConfig(t, `
telegram:
  app_id: 12345
  app_hash: "${TEST_TG_HASH}"
  session_token: "${TEST_TG_SESSION}"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "hash-from-env", cfg.Telegram.AppHash)
	assert.Equal(t, "session-from-env", cfg.Telegram.SessionToken)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadMissingCredentials(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			"no app id",
			"telegram:\n  app_hash: \"h\"\n  session_token: \"s\"\n",
			"app_id",
		},
		{
			"no app hash",
			"telegram:\n  app_id: 1\n  session_token: \"s\"\n",
			"app_hash",
		},
		{
			"no session token",
			"telegram:\n  app_id: 1\n  app_hash: \"h\"\n",
			"session_token",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFromEnv(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "67890")
	t.Setenv("TELEGRAM_API_HASH", "envhash")
	t.Setenv("TELEGRAM_SESSION", "envsession")
	t.Setenv("PORT", "3000")
	t.Setenv("TELEGATE_DB_PATH", "/tmp/cache.db")
	t.Setenv("TELEGATE_JWT_SECRET", "envsecret")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, 67890, cfg.Telegram.AppID)
	assert.Equal(t, "envhash", cfg.Telegram.AppHash)
	assert.Equal(t, "envsession", cfg.Telegram.SessionToken)
	assert.Equal(t, ":3000", cfg.Server.HTTPAddr)
	assert.Equal(t, "/tmp/cache.db", cfg.Database.Path)
	assert.Equal(t, "envsecret", cfg.Auth.JWTSecret)
}

func TestFromEnvBadAppID(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "not-a-number")
	t.Setenv("TELEGRAM_API_HASH", "h")
	t.Setenv("TELEGRAM_SESSION", "s")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TELEGRAM_API_ID")
}

func TestFromEnvMissingCredentials(t *testing.T) {
	t.Setenv("TELEGRAM_API_ID", "")
	t.Setenv("TELEGRAM_API_HASH", "")
	t.Setenv("TELEGRAM_SESSION", "")

	_, err := FromEnv()
	assert.Error(t, err)
}
