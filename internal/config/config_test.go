package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ATTEND_CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite3", cfg.DatabaseDriver)
	assert.Equal(t, "./attendance.db", cfg.DatabaseURL)
	assert.Equal(t, "none", cfg.QueueBackend)
	assert.Equal(t, 30, cfg.CommandRatePerMin)
	assert.Equal(t, 24*time.Hour, cfg.AccessTTL)
	assert.False(t, cfg.Production())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendbot.yaml")
	body := "env: production\ndatabase_url: /var/lib/attend.db\ndiscord_app_id: \"42\"\naccess_ttl: 2h\nexport_limit: 10\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("ATTEND_CONFIG_FILE", path)
	t.Setenv("DATABASE_URL", "/tmp/override.db")
	t.Setenv("EXPORT_LIMIT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Production())
	assert.Equal(t, "/tmp/override.db", cfg.DatabaseURL)
	assert.Equal(t, "42", cfg.DiscordAppID)
	assert.Equal(t, 2*time.Hour, cfg.AccessTTL)
	assert.Equal(t, 10, cfg.ExportLimit, "invalid env int keeps the file value")
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("ATTEND_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestValidateBot(t *testing.T) {
	cfg := Defaults()
	err := cfg.ValidateBot()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DISCORD_TOKEN")
	assert.Contains(t, err.Error(), "DISCORD_APP_ID")

	cfg.DiscordToken = "token"
	cfg.DiscordAppID = "app"
	assert.NoError(t, cfg.ValidateBot())
}

func TestValidateAPI(t *testing.T) {
	cfg := Defaults()
	assert.NoError(t, cfg.ValidateAPI(), "development keeps the default key")

	cfg.Env = "production"
	err := cfg.ValidateAPI()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")

	cfg.JWTSigningKey = ""
	assert.Error(t, cfg.ValidateAPI())

	cfg.JWTSigningKey = "a-real-secret"
	assert.NoError(t, cfg.ValidateAPI())
}

func TestValidateAPI_EnvOverride(t *testing.T) {
	t.Setenv("ATTEND_CONFIG_FILE", "")
	t.Setenv("JWT_SIGNING_KEY", "")
	t.Setenv("APP_ENV", "prod")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Error(t, cfg.ValidateAPI())

	t.Setenv("JWT_SIGNING_KEY", "rotated-secret")
	cfg, err = Load()
	require.NoError(t, err)
	assert.NoError(t, cfg.ValidateAPI())
}
