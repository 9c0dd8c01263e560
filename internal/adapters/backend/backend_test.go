package backend

import (
	"context"
	"testing"
	"time"

	"healthmate/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type noTokens struct{}

func (noTokens) Get(context.Context, string) (string, bool) { return "", false }

func TestNew(t *testing.T) {
	logger := zap.NewNop()

	b, err := New(config.BackendConfig{Kind: config.BackendREST, RESTURL: "http://localhost:8000", Timeout: time.Second}, noTokens{}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, "rest", b.Name())

	b, err = New(config.BackendConfig{Kind: config.BackendBaaS, BaaSURL: "http://localhost/v1", ProjectID: "p", DatabaseID: "d"}, noTokens{}, nil, logger)
	require.NoError(t, err)
	assert.Equal(t, "baas", b.Name())
	assert.False(t, b.IsAuthenticated(context.Background()))

	_, err = New(config.BackendConfig{Kind: config.BackendBaaS, BaaSURL: "http://localhost/v1"}, noTokens{}, nil, logger)
	assert.Error(t, err)

	_, err = New(config.BackendConfig{Kind: config.BackendREST}, noTokens{}, nil, logger)
	assert.Error(t, err)

	_, err = New(config.BackendConfig{Kind: "graphql"}, noTokens{}, nil, logger)
	assert.Error(t, err)
}
