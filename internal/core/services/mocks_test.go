package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"healthmate/internal/adapters/persistence/repositories"
	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/jwt"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockBackend implements Backend for tests
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Name() string { return "mock" }

func (m *MockBackend) Login(ctx context.Context, email, password string) (*domain.LoginResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *MockBackend) Register(ctx context.Context, input domain.RegisterInput) (*domain.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LoginResult), args.Error(1)
}

func (m *MockBackend) Logout(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockBackend) GetCurrentUser(ctx context.Context) (domain.AuthPayload, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.AuthPayload), args.Error(1)
}

func (m *MockBackend) RefreshAccessToken(ctx context.Context) (domain.TokenPair, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.TokenPair), args.Error(1)
}

func (m *MockBackend) IsAuthenticated(ctx context.Context) bool {
	args := m.Called(ctx)
	return args.Bool(0)
}

func (m *MockBackend) List(ctx context.Context, resource domain.Resource, opts domain.ListOptions) (any, error) {
	args := m.Called(ctx, resource, opts)
	return args.Get(0), args.Error(1)
}

func (m *MockBackend) Get(ctx context.Context, resource domain.Resource, id string) (any, error) {
	args := m.Called(ctx, resource, id)
	return args.Get(0), args.Error(1)
}

func (m *MockBackend) Create(ctx context.Context, resource domain.Resource, doc domain.Document) (any, error) {
	args := m.Called(ctx, resource, doc)
	return args.Get(0), args.Error(1)
}

func (m *MockBackend) Update(ctx context.Context, resource domain.Resource, id string, doc domain.Document) (any, error) {
	args := m.Called(ctx, resource, id, doc)
	return args.Get(0), args.Error(1)
}

func (m *MockBackend) Delete(ctx context.Context, resource domain.Resource, id string) error {
	args := m.Called(ctx, resource, id)
	return args.Error(0)
}

func (m *MockBackend) GetProfile(ctx context.Context, userID string) (any, error) {
	args := m.Called(ctx, userID)
	return args.Get(0), args.Error(1)
}

func (m *MockBackend) UpdateProfile(ctx context.Context, userID string, doc domain.Document) (any, error) {
	args := m.Called(ctx, userID, doc)
	return args.Get(0), args.Error(1)
}

// recordingNotifier captures published events
type recordingNotifier struct {
	mu      sync.Mutex
	changes []domain.Session
	expired []domain.SessionNotice
}

func (n *recordingNotifier) SessionChanged(session domain.Session) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, session)
}

func (n *recordingNotifier) SessionExpired(notice domain.SessionNotice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired = append(n.expired, notice)
}

func (n *recordingNotifier) expiredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.expired)
}

func newTestTokenStore() *TokenStore {
	return NewTokenStore(repositories.NewMemoryRepository(), zap.NewNop())
}

func mintToken(t *testing.T, userID string, expiresAt time.Time) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(userID, expiresAt)
	require.NoError(t, err)
	return token
}

func patientPayload() domain.NormalizedAuthPayload {
	return domain.NormalizedAuthPayload{
		AuthUser:    map[string]any{"id": "1", "email": "a@b.com"},
		UserProfile: map[string]any{},
		Role:        map[string]any{"name": "patient", "permissions": map[string]any{}},
	}
}
