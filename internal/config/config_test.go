package config_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/threatlens/dashboard-api/internal/config"
)

type fakeSecrets map[string]string

func (f fakeSecrets) GetSecretOrEnv(ctx context.Context, secretName, envName string) (string, error) {
	if v, ok := f[secretName]; ok {
		return v, nil
	}
	return "", errors.New("not found")
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "session", cfg.Auth.CookieName)
	assert.True(t, cfg.CORS.AllowCredentials)
	assert.Contains(t, cfg.CORS.AllowedMethods, "PATCH")
	assert.Equal(t, 15*time.Second, cfg.Upstream.TimeoutDuration())
	assert.Equal(t, 90*24*time.Hour, cfg.Jobs.ViewedRetention())
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("UPSTREAM_BASEURL", "https://intel.example.com/api/")
	t.Setenv("THREAT_API_KEY", "svc-key")
	t.Setenv("APP_PORT", "9090")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://intel.example.com/api", cfg.Upstream.BaseURL)
	assert.Equal(t, "svc-key", cfg.Upstream.ServiceAPIKey)
	assert.Equal(t, 9090, cfg.App.Port)
}

func TestApplySecrets(t *testing.T) {
	cfg := &config.Config{}
	cfg.Upstream.ServiceAPIKey = "old"
	cfg.Database.Password = "keep-me"

	err := config.ApplySecrets(context.Background(), cfg, fakeSecrets{
		"threat-api-key":     "from-vault",
		"session-jwt-secret": "jwt-secret",
		"admin-api-key":      "admin",
	})
	require.NoError(t, err)

	assert.Equal(t, "from-vault", cfg.Upstream.ServiceAPIKey)
	assert.Equal(t, "jwt-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, "admin", cfg.Auth.APIKey)
	assert.Equal(t, "keep-me", cfg.Database.Password)
}

func TestApplySecrets_NilSource(t *testing.T) {
	err := config.ApplySecrets(context.Background(), &config.Config{}, nil)
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
