package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/membergate/pkg/identity"
	"github.com/platinummonkey/membergate/pkg/observability"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("MEMBERGATE_POSTGRES_URL", "postgres://localhost/membergate")
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "9090", cfg.Server.HealthPort)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)

	assert.Equal(t, "redis://localhost:6379/0", cfg.Storage.RedisURL)
	assert.Equal(t, "dummy", cfg.Providers.ActiveID)
	assert.True(t, cfg.Providers.WatchFile)

	assert.Equal(t, 7200*time.Second, cfg.Session.IdleThreshold)
	assert.Equal(t, "/", cfg.Session.PostLoginURL)
	assert.Equal(t, "/gate/login", cfg.Session.PostLogoutURL)
	// A fresh login must never land back on the login prompt.
	assert.NotEqual(t, cfg.Session.PostLogoutURL, cfg.Session.PostLoginURL)

	assert.True(t, cfg.ActivityLog.Enabled)
	assert.Equal(t, 300*time.Second, cfg.ActivityLog.Granularity)
	assert.Equal(t, 12, cfg.ActivityLog.RetentionMonths)

	assert.Equal(t, observability.InfoLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.Observability.OTelEnabled)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MEMBERGATE_PORT", "9000")
	t.Setenv("MEMBERGATE_ACTIVE_PROVIDER", "membership_sso")
	t.Setenv("MEMBERGATE_IDLE_THRESHOLD_SECONDS", "900")
	t.Setenv("MEMBERGATE_POST_LOGIN_URL", "/dashboard")
	t.Setenv("MEMBERGATE_LOG_LEVEL", "debug")
	t.Setenv("MEMBERGATE_ACTIVITY_LOG_ENABLED", "false")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.Equal(t, "membership_sso", cfg.Providers.ActiveID)
	assert.Equal(t, 900*time.Second, cfg.Session.IdleThreshold)
	assert.Equal(t, "/dashboard", cfg.Session.PostLoginURL)
	assert.Equal(t, observability.DebugLevel, cfg.Observability.LogLevel)
	assert.False(t, cfg.ActivityLog.Enabled)
}

func TestLoadConfig_MissingPostgresURL(t *testing.T) {
	t.Setenv("MEMBERGATE_POSTGRES_URL", "")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadConfig_PortClash(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("MEMBERGATE_PORT", "8080")
	t.Setenv("MEMBERGATE_HEALTH_PORT", "8080")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestLoadProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
providers:
  - id: dummy
    label: Dummy
  - id: membership_sso
    label: Vendor
    authorization_server: https://vendor.example.org
    client_id: client
    client_secret: secret
    membership_field: PackageName
    permissions_mapping: "GOLD:virtual_y_premium;SILVER:virtual_y"
    require_active: true
    login_mode: present_login_button
`), 0o600))

	configs, err := LoadProviders(path)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	sso := configs[1]
	assert.Equal(t, "membership_sso", sso.ID)
	assert.Equal(t, "PackageName", sso.MembershipField)
	assert.Equal(t, "GOLD:virtual_y_premium;SILVER:virtual_y", sso.PermissionsMapping)
	assert.True(t, sso.RequireActive)
	assert.Equal(t, identity.LoginModePresentButton, sso.LoginMode)
}

func TestLoadProviders_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("providers: []\n"), 0o600))

	_, err := LoadProviders(path)
	assert.Error(t, err)
}

func TestLoadProviders_MissingFile(t *testing.T) {
	_, err := LoadProviders(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, observability.DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, observability.WarnLevel, parseLogLevel("warning"))
	assert.Equal(t, observability.ErrorLevel, parseLogLevel("error"))
	assert.Equal(t, observability.InfoLevel, parseLogLevel("nonsense"))
}
