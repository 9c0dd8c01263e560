package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("BACKEND", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.IsDev())
	assert.Equal(t, BackendREST, cfg.Backend.Kind)
	assert.Equal(t, StorageFile, cfg.Storage.Driver)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 2*time.Minute, cfg.Keepalive.RefreshAhead)
	assert.Equal(t, "@every 1m", cfg.Keepalive.Schedule)
}

func TestLoad_BaaSRequiresProject(t *testing.T) {
	t.Setenv("APP_MODE", "dev")
	t.Setenv("BACKEND", "baas")
	t.Setenv("BAAS_PROJECT_ID", "")
	t.Setenv("BAAS_DATABASE_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BAAS_PROJECT_ID")

	t.Setenv("BAAS_PROJECT_ID", "proj")
	t.Setenv("BAAS_DATABASE_ID", "db")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, BackendBaaS, cfg.Backend.Kind)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"app mode", "APP_MODE", "staging"},
		{"backend", "BACKEND", "firebase"},
		{"storage", "STORAGE_DRIVER", "sqlite"},
		{"timeout", "BACKEND_TIMEOUT", "soon"},
		{"refresh ahead", "REFRESH_AHEAD", "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("APP_MODE", "dev")
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadDatabaseConfig_Prefix(t *testing.T) {
	t.Setenv("PROD_DB_HOST", "db.internal")
	t.Setenv("DEV_DB_HOST", "")

	assert.Equal(t, "db.internal", loadDatabaseConfig("prod").Host)
	assert.Equal(t, "localhost", loadDatabaseConfig("dev").Host)
}
