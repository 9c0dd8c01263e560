package services

import (
	"context"

	"healthmate/internal/core/domain"
)

// Note: SessionService implementation is in session_service.go
// Note: DataService implementation is in data_service.go

// AuthBackend is the capability set every remote backend provides for
// authentication. Implementations never write tokens: whatever they mint is
// returned to SessionService, which persists it.
type AuthBackend interface {
	Name() string
	Login(ctx context.Context, email, password string) (*domain.LoginResult, error)
	Register(ctx context.Context, input domain.RegisterInput) (*domain.LoginResult, error)
	Logout(ctx context.Context) error
	GetCurrentUser(ctx context.Context) (domain.AuthPayload, error)
	// RefreshAccessToken exchanges the stored refresh credential. An empty
	// AccessToken in the returned pair means the refresh failed.
	RefreshAccessToken(ctx context.Context) (domain.TokenPair, error)
	IsAuthenticated(ctx context.Context) bool
}

// DataBackend is the document CRUD surface of a backend. Payloads are
// returned as decoded JSON and unwrapped by DataService.
type DataBackend interface {
	List(ctx context.Context, resource domain.Resource, opts domain.ListOptions) (any, error)
	Get(ctx context.Context, resource domain.Resource, id string) (any, error)
	Create(ctx context.Context, resource domain.Resource, doc domain.Document) (any, error)
	Update(ctx context.Context, resource domain.Resource, id string, doc domain.Document) (any, error)
	Delete(ctx context.Context, resource domain.Resource, id string) error
	GetProfile(ctx context.Context, userID string) (any, error)
	UpdateProfile(ctx context.Context, userID string, doc domain.Document) (any, error)
}

// Backend is a complete backend implementation
type Backend interface {
	AuthBackend
	DataBackend
}

// AuthFailureFunc is invoked by a data client when a request is rejected
// with 401/403.
type AuthFailureFunc func(ctx context.Context, message string)

// Notifier receives session state changes
type Notifier interface {
	SessionChanged(session domain.Session)
	SessionExpired(notice domain.SessionNotice)
}
