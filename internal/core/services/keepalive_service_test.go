package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"healthmate/internal/core/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newKeepalive(t *testing.T, f *sessionFixture) *KeepaliveService {
	t.Helper()
	k, err := NewKeepaliveService(f.service, f.tokens, "@every 1m", 2*time.Minute, zap.NewNop())
	require.NoError(t, err)
	return k
}

func TestKeepalive_InvalidSchedule(t *testing.T) {
	f := newSessionFixture(t)
	_, err := NewKeepaliveService(f.service, f.tokens, "every minute", time.Minute, zap.NewNop())
	assert.Error(t, err)
}

func TestKeepalive_SkipsWhenSignedOut(t *testing.T) {
	f := newSessionFixture(t)
	assert.Equal(t, KeepaliveSkipped, newKeepalive(t, f).Tick(context.Background()))
}

func TestKeepalive_FreshToken(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)
	assert.Equal(t, KeepaliveFresh, newKeepalive(t, f).Tick(context.Background()))
	f.backend.AssertNotCalled(t, "RefreshAccessToken", mock.Anything)
}

func TestKeepalive_RefreshesNearExpiry(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)
	f.storeTokens(t, mintToken(t, "1", time.Now().Add(time.Minute)), "")

	fresh := mintToken(t, "1", time.Now().Add(time.Hour))
	f.backend.On("RefreshAccessToken", mock.Anything).Return(domain.TokenPair{AccessToken: fresh}, nil)

	assert.Equal(t, KeepaliveRefreshed, newKeepalive(t, f).Tick(context.Background()))
	assert.Equal(t, fresh, f.tokens.Tokens(context.Background()).AccessToken)
}

func TestKeepalive_FailedRefreshForcesLogout(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)
	f.storeTokens(t, mintToken(t, "1", time.Now().Add(30*time.Second)), "")
	f.backend.On("RefreshAccessToken", mock.Anything).Return(domain.TokenPair{}, &domain.APIError{StatusCode: http.StatusUnauthorized, Message: "Token is blacklisted"})

	assert.Equal(t, KeepaliveFailed, newKeepalive(t, f).Tick(context.Background()))
	assert.False(t, f.service.IsAuthenticated())
	assert.Equal(t, 1, f.notifier.expiredCount())
}

func TestKeepalive_UnreachableBackendRetriesLater(t *testing.T) {
	f := newSessionFixture(t)
	f.login(t)
	f.storeTokens(t, mintToken(t, "1", time.Now().Add(30*time.Second)), "")
	before := f.tokens.Tokens(context.Background())
	f.backend.On("RefreshAccessToken", mock.Anything).Return(domain.TokenPair{}, errors.New("dial tcp: connect: network is unreachable"))

	assert.Equal(t, KeepaliveDeferred, newKeepalive(t, f).Tick(context.Background()))
	assert.True(t, f.service.IsAuthenticated())
	assert.Equal(t, 0, f.notifier.expiredCount())
	assert.Equal(t, before, f.tokens.Tokens(context.Background()))
}

func TestKeepalive_StartStop(t *testing.T) {
	f := newSessionFixture(t)
	k := newKeepalive(t, f)
	require.NoError(t, k.Start())
	k.Stop()
}
