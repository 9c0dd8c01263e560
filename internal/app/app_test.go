package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthmate/internal/config"
	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(restURL string) *config.Config {
	return &config.Config{
		AppMode: "dev",
		Backend: config.BackendConfig{Kind: config.BackendREST, RESTURL: restURL, Timeout: time.Second},
		Storage: config.StorageConfig{Driver: config.StorageMemory, Namespace: "test"},
		Keepalive: config.KeepaliveConfig{
			Schedule:     "@every 1h",
			RefreshAhead: time.Minute,
		},
	}
}

func TestNew_StartsSignedOut(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, testConfig("http://127.0.0.1:1"), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Start(ctx, true))
	assert.NotNil(t, a.Keepalive)
	assert.Equal(t, domain.StatusUnauthenticated, a.Session.Snapshot().Status)
	assert.NoError(t, a.PingStorage(ctx))
	assert.Equal(t, "rest", a.Backend.Name())
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Storage.Driver = "floppy"
	_, err := New(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestNew_SealedFileStore(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Storage = config.StorageConfig{Driver: config.StorageFile, Dir: t.TempDir(), Secret: "correct horse battery staple"}

	a, err := New(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()
	assert.NoError(t, a.PingStorage(context.Background()))
}

func TestDataAuthFailureReachesSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"detail":"Token is invalid or expired","code":"token_not_valid"}`))
	}))
	defer srv.Close()

	ctx := context.Background()
	a, err := New(ctx, testConfig(srv.URL), zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	require.NoError(t, a.Tokens.Set(ctx, domain.AccessTokenKey, "stale"))
	require.NoError(t, a.Tokens.Set(ctx, domain.RefreshTokenKey, "stale-refresh"))

	_, err = a.Data.ListMedications(ctx, domain.ListOptions{})
	require.Error(t, err)

	snapshot := a.Session.Snapshot()
	require.NotNil(t, snapshot.Notice, "an unrecoverable auth failure raises the session expired notice")
	assert.Equal(t, domain.NoticeSessionExpired, snapshot.Notice.Kind)

	_, ok := a.Tokens.Get(ctx, domain.RefreshTokenKey)
	assert.False(t, ok, "tokens are cleared")
}
