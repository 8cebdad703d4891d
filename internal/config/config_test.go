package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "http://127.0.0.1:8000/api/v1", cfg.APIBase)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.NoticeTTL)
	assert.False(t, cfg.DevBackend)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLayering(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "portal.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": "9000",
		"apiBase": "http://json/api",
		"requestTimeout": "5s",
		"noticeTTL": "1s",
		"devBackend": true
	}`), 0o600))

	t.Setenv("PORTAL_API_BASE", "http://env/api")
	t.Setenv("PORTAL_NOTICE_TTL", "2s")
	t.Setenv("PORTAL_DEV_ENVELOPE", "true")

	cfg, err := Load(path, []string{"-port", "9100", "-dev-backend=false"})
	require.NoError(t, err)
	assert.True(t, cfg.DevEnvelope)
	assert.Equal(t, "9100", cfg.Port)
	assert.Equal(t, "http://env/api", cfg.APIBase)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2*time.Second, cfg.NoticeTTL)
	assert.False(t, cfg.DevBackend)
}

func TestConfigFlagSwitchesFile(t *testing.T) {
	dir := t.TempDir()
	other := filepath.Join(dir, "other.json")
	require.NoError(t, os.WriteFile(other, []byte(`{"registryDir": "roles"}`), 0o600))

	cfg, err := Load(filepath.Join(dir, "missing.json"), []string{"-config", other})
	require.NoError(t, err)
	assert.Equal(t, "roles", cfg.RegistryDir)
}

func TestInvalidValues(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.json")

	_, err := Load(missing, []string{"-port", "abc"})
	assert.Error(t, err)

	_, err = Load(missing, []string{"-auto-migrate", "maybe"})
	assert.Error(t, err)

	t.Setenv("PORTAL_REQUEST_TIMEOUT", "soon")
	_, err = Load(missing, nil)
	assert.Error(t, err)
}

func TestDotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	env := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(env, []byte("PORTAL_LOG_LEVEL=debug\nPORTAL_PORT=7000\n"), 0o600))
	t.Setenv("PORTAL_PORT", "7100")
	t.Setenv("PORTAL_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("PORTAL_LOG_LEVEL"))

	LoadDotEnv(env)
	t.Cleanup(func() { _ = os.Unsetenv("PORTAL_LOG_LEVEL") })

	cfg, err := Load(filepath.Join(dir, "missing.json"), nil)
	require.NoError(t, err)
	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
}
