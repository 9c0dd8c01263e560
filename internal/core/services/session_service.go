package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/jwt"
	"healthmate/internal/pkg/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Session expired notice defaults
const (
	SessionExpiredMessage = "Your session has expired. Please log in again."
	LoginRedirect         = "/login"
)

// singleflight keys; a key is never awaited from inside its own call
const (
	flightValidate    = "validate"
	flightRefresh     = "refresh"
	flightAuthFailure = "auth-failure"
)

// SessionService owns the Session and the persisted tokens. It is the only
// writer of both; everything else reads snapshots.
type SessionService struct {
	backend  AuthBackend
	tokens   *TokenStore
	logger   *zap.Logger
	notifier Notifier
	metrics  *metrics.SessionMetrics
	now      func() time.Time

	mu      sync.RWMutex
	session domain.Session
	loading int

	flights   singleflight.Group
	startOnce sync.Once
}

// SessionOption configures a SessionService
type SessionOption func(*SessionService)

// WithNotifier publishes session changes to n
func WithNotifier(n Notifier) SessionOption {
	return func(s *SessionService) { s.notifier = n }
}

// WithMetrics records lifecycle counters
func WithMetrics(m *metrics.SessionMetrics) SessionOption {
	return func(s *SessionService) { s.metrics = m }
}

// WithClock overrides the clock used for expiry checks
func WithClock(now func() time.Time) SessionOption {
	return func(s *SessionService) { s.now = now }
}

// NewSessionService creates a new session service
func NewSessionService(backend AuthBackend, tokens *TokenStore, logger *zap.Logger, opts ...SessionOption) *SessionService {
	s := &SessionService{
		backend: backend,
		tokens:  tokens,
		logger:  logger.Named("session").With(zap.String("backend", backend.Name())),
		now:     time.Now,
		session: domain.Session{Status: domain.StatusUninitialized},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start restores a persisted session. It runs once; later calls return
// immediately.
func (s *SessionService) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		s.beginLoading()
		defer s.endLoading()

		if !s.backend.IsAuthenticated(ctx) {
			s.logger.Info("no stored credentials")
			s.markUnauthenticated()
			return
		}
		if !s.ValidateToken(ctx) {
			s.markUnauthenticated()
			return
		}
		s.logger.Info("session restored")
	})
}

// Snapshot returns a copy of the current session
func (s *SessionService) Snapshot() domain.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.Clone()
}

// IsAuthenticated reports whether a user is signed in
func (s *SessionService) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated
}

// HasPermission reports whether the signed in user's role grants permission
func (s *SessionService) HasPermission(permission string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.session.IsAuthenticated && s.session.Role.Can(permission)
}

// CurrentUserID returns the signed in user's id, or "" when signed out
func (s *SessionService) CurrentUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.session.IsAuthenticated || s.session.User == nil {
		return ""
	}
	return s.session.User.ID
}

// ValidateToken checks the stored access token, refreshing it when expired,
// and loads the current user into the session. Concurrent calls share one
// validation.
func (s *SessionService) ValidateToken(ctx context.Context) bool {
	v, _, _ := s.flights.Do(flightValidate, func() (any, error) {
		return s.validateToken(ctx), nil
	})
	return v.(bool)
}

func (s *SessionService) validateToken(ctx context.Context) bool {
	s.beginLoading()
	defer s.endLoading()

	access, ok := s.tokens.Get(ctx, domain.AccessTokenKey)
	if !ok {
		s.metrics.Validation(metrics.OutcomeMissing)
		return false
	}

	if jwt.IsExpiredAt(access, s.now()) {
		s.logger.Info("access token expired, refreshing")
		if err := s.refresh(ctx); err != nil {
			s.metrics.Validation(metrics.OutcomeFailure)
			s.refreshFailed(ctx, err, "access token expired and refresh failed")
			return false
		}
	}

	payload, err := s.currentUser(ctx)
	if err != nil {
		if !domain.IsAuthError(err) {
			s.logger.Error("failed to load current user", zap.Error(err))
			s.metrics.Validation(metrics.OutcomeFailure)
			return false
		}

		s.logger.Warn("current user rejected, retrying after refresh", zap.Error(err))
		if refreshErr := s.refresh(ctx); refreshErr != nil {
			s.metrics.Validation(metrics.OutcomeFailure)
			s.refreshFailed(ctx, refreshErr, err.Error())
			return false
		}
		if payload, err = s.currentUser(ctx); err != nil {
			s.logger.Error("current user rejected after refresh", zap.Error(err))
			s.metrics.Validation(metrics.OutcomeFailure)
			if domain.IsAuthError(err) {
				s.forceLogout(ctx, err.Error())
			}
			return false
		}
	}

	user, err := NormalizeAuthPayload(payload)
	if err != nil {
		s.logger.Error("failed to normalize current user",
			zap.Strings("keys", PayloadKeys(payload)),
			zap.Error(err),
		)
		s.metrics.Validation(metrics.OutcomeFailure)
		return false
	}

	s.populate(user)
	s.metrics.Validation(metrics.OutcomeSuccess)
	return true
}

func (s *SessionService) currentUser(ctx context.Context) (domain.AuthPayload, error) {
	payload, err := s.backend.GetCurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: empty current user", domain.ErrUnexpectedPayload)
	}
	return payload, nil
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token. It never fails loudly: every error is logged and reported as false.
func (s *SessionService) RefreshAccessToken(ctx context.Context) bool {
	return s.refresh(ctx) == nil
}

// refresh is RefreshAccessToken with the reason it failed
func (s *SessionService) refresh(ctx context.Context) error {
	_, err, _ := s.flights.Do(flightRefresh, func() (any, error) {
		return nil, s.refreshAccessToken(ctx)
	})
	return err
}

// refreshRejected reports whether a refresh failure means the stored
// credentials are dead. Transport errors and cancelled contexts do not.
func refreshRejected(err error) bool {
	return errors.Is(err, domain.ErrNoRefreshToken) ||
		errors.Is(err, domain.ErrNotAuthenticated) ||
		errors.Is(err, domain.ErrTokenInvalid) ||
		domain.IsAuthError(err)
}

// refreshFailed logs the session out when the backend rejected the refresh
// and keeps the tokens for a later attempt otherwise.
func (s *SessionService) refreshFailed(ctx context.Context, err error, reason string) {
	if refreshRejected(err) {
		s.forceLogout(ctx, reason)
		return
	}
	s.logger.Warn("refresh unavailable, keeping stored credentials", zap.Error(err))
}

func (s *SessionService) refreshAccessToken(ctx context.Context) (err error) {
	s.beginLoading()
	defer s.endLoading()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("token refresh panicked", zap.Any("panic", r))
			s.metrics.Refresh(metrics.OutcomeFailure)
			err = fmt.Errorf("token refresh panicked: %v", r)
		}
	}()

	if _, present := s.tokens.Get(ctx, domain.RefreshTokenKey); !present {
		s.metrics.Refresh(metrics.OutcomeMissing)
		return domain.ErrNoRefreshToken
	}

	pair, err := s.backend.RefreshAccessToken(ctx)
	if err != nil {
		s.logger.Warn("token refresh failed", zap.Error(err))
		s.metrics.Refresh(metrics.OutcomeFailure)
		return fmt.Errorf("token refresh failed: %w", err)
	}
	if pair.AccessToken == "" {
		s.logger.Warn("token refresh returned no access token")
		s.metrics.Refresh(metrics.OutcomeFailure)
		return fmt.Errorf("%w: refresh returned no access token", domain.ErrTokenInvalid)
	}
	if err := s.tokens.SaveTokens(ctx, pair); err != nil {
		s.metrics.Refresh(metrics.OutcomeFailure)
		return err
	}

	s.metrics.Refresh(metrics.OutcomeSuccess)
	return nil
}

// Login signs in with email and password. On failure the session is left
// exactly as it was.
func (s *SessionService) Login(ctx context.Context, email, password string) domain.AuthResult {
	result, err := s.backend.Login(ctx, email, password)
	return s.completeAuth(ctx, "login", result, err)
}

// Register creates an account and signs in with it
func (s *SessionService) Register(ctx context.Context, input domain.RegisterInput) domain.AuthResult {
	result, err := s.backend.Register(ctx, input)
	return s.completeAuth(ctx, "register", result, err)
}

func (s *SessionService) completeAuth(ctx context.Context, operation string, result *domain.LoginResult, err error) domain.AuthResult {
	fail := func(message string, fields ...zap.Field) domain.AuthResult {
		s.logger.Warn(operation+" failed", append(fields, zap.String("reason", message))...)
		s.metrics.Auth(operation, metrics.OutcomeFailure)
		return domain.AuthResult{Success: false, Error: message}
	}

	if err != nil {
		return fail(err.Error(), zap.Error(err))
	}
	if result == nil || !result.Success {
		message := operation + " failed"
		if result != nil && result.Message != "" {
			message = result.Message
		}
		return fail(message)
	}

	user, err := NormalizeAuthPayload(result.Payload)
	if err != nil {
		return fail("unexpected user data from server", zap.Strings("keys", PayloadKeys(result.Payload)), zap.Error(err))
	}
	if result.Tokens.AccessToken == "" {
		return fail("server returned no access token")
	}

	previous := s.tokens.Tokens(ctx)
	if err := s.tokens.ReplaceTokens(ctx, result.Tokens); err != nil {
		s.restoreTokens(ctx, previous)
		return fail("failed to store credentials", zap.Error(err))
	}

	s.mu.Lock()
	s.session.User = user.User
	s.session.Profile = user.Profile
	s.session.Role = user.Role
	s.session.IsAuthenticated = true
	s.session.Notice = nil
	s.session.Status = s.statusLocked()
	s.mu.Unlock()
	s.publish()

	s.logger.Info(operation+" succeeded", zap.String("user_id", user.User.ID))
	s.metrics.Auth(operation, metrics.OutcomeSuccess)
	return domain.AuthResult{Success: true, User: user.User}
}

func (s *SessionService) restoreTokens(ctx context.Context, previous domain.TokenPair) {
	if previous.AccessToken == "" && previous.RefreshToken == "" {
		_ = s.tokens.Clear(ctx)
		return
	}
	_ = s.tokens.ReplaceTokens(ctx, previous)
}

// Logout signs out. The backend call is best effort; the local session and
// tokens are always cleared.
func (s *SessionService) Logout(ctx context.Context) error {
	if err := s.backend.Logout(ctx); err != nil {
		s.logger.Warn("backend logout failed", zap.Error(err))
	}

	s.clearSession(nil)

	if err := s.tokens.Clear(ctx); err != nil {
		s.metrics.Auth("logout", metrics.OutcomeFailure)
		return fmt.Errorf("failed to clear tokens: %w", err)
	}
	s.logger.Info("logged out")
	s.metrics.Auth("logout", metrics.OutcomeSuccess)
	return nil
}

// HandleAuthFailure reacts to a 401/403 from a data request: one refresh and
// revalidation, otherwise a forced logout with a session expired notice.
// It has the AuthFailureFunc signature.
func (s *SessionService) HandleAuthFailure(ctx context.Context, message string) {
	s.flights.Do(flightAuthFailure, func() (any, error) {
		s.handleAuthFailure(ctx, message)
		return nil, nil
	})
}

func (s *SessionService) handleAuthFailure(ctx context.Context, message string) {
	if !s.IsAuthenticated() {
		if _, ok := s.tokens.Get(ctx, domain.RefreshTokenKey); !ok {
			s.logger.Debug("auth failure without a session", zap.String("message", message))
			return
		}
	}

	s.logger.Warn("request rejected by backend, attempting recovery", zap.String("message", message))
	if err := s.refresh(ctx); err != nil {
		s.refreshFailed(ctx, err, message)
		return
	}
	if s.ValidateToken(ctx) {
		s.logger.Info("session recovered after auth failure")
		return
	}
	s.forceLogout(ctx, message)
}

// AcknowledgeNotice dismisses the pending notice and returns where the UI
// should navigate. ok is false when no notice was pending.
func (s *SessionService) AcknowledgeNotice() (redirect string, ok bool) {
	s.mu.Lock()
	notice := s.session.Notice
	s.session.Notice = nil
	s.mu.Unlock()

	if notice == nil {
		return "", false
	}
	s.publish()
	return notice.Redirect, true
}

// forceLogout clears the session and tokens and raises the session expired
// notice. A notice that is already pending is not raised again.
func (s *SessionService) forceLogout(ctx context.Context, reason string) {
	notice := &domain.SessionNotice{
		Kind:     domain.NoticeSessionExpired,
		Message:  SessionExpiredMessage,
		Reason:   reason,
		Redirect: LoginRedirect,
		RaisedAt: s.now(),
	}
	raised := s.clearSession(notice)

	if err := s.tokens.Clear(ctx); err != nil {
		s.logger.Error("failed to clear tokens during forced logout", zap.Error(err))
	}

	if !raised {
		return
	}
	s.logger.Warn("session expired, forced logout", zap.String("reason", reason))
	s.metrics.ForcedLogout()
	if s.notifier != nil {
		s.notifier.SessionExpired(*notice)
	}
}

// clearSession empties the session. A non-nil notice is attached unless one
// is already pending; the return value reports whether it was attached.
func (s *SessionService) clearSession(notice *domain.SessionNotice) bool {
	s.mu.Lock()
	pending := s.session.Notice
	raised := false
	if notice != nil && pending == nil {
		pending = notice
		raised = true
	}
	s.session = domain.Session{
		IsLoading: s.loading > 0,
		Notice:    pending,
	}
	s.session.Status = s.statusLocked()
	s.mu.Unlock()

	s.publish()
	return raised
}

func (s *SessionService) populate(user *domain.NormalizedUser) {
	s.mu.Lock()
	s.session.User = user.User
	s.session.Profile = user.Profile
	s.session.Role = user.Role
	s.session.IsAuthenticated = true
	s.session.Status = s.statusLocked()
	s.mu.Unlock()

	s.publish()
}

func (s *SessionService) markUnauthenticated() {
	s.mu.Lock()
	s.session.IsAuthenticated = false
	s.session.User = nil
	s.session.Profile = nil
	s.session.Role = nil
	s.session.Status = s.statusLocked()
	s.mu.Unlock()

	s.publish()
}

func (s *SessionService) beginLoading() {
	s.mu.Lock()
	s.loading++
	s.session.IsLoading = true
	s.session.Status = domain.StatusLoading
	s.mu.Unlock()

	s.publish()
}

func (s *SessionService) endLoading() {
	s.mu.Lock()
	if s.loading > 0 {
		s.loading--
	}
	s.session.IsLoading = s.loading > 0
	s.session.Status = s.statusLocked()
	s.mu.Unlock()

	s.publish()
}

// statusLocked derives the state machine status; mu must be held
func (s *SessionService) statusLocked() domain.SessionStatus {
	switch {
	case s.loading > 0:
		return domain.StatusLoading
	case s.session.IsAuthenticated:
		return domain.StatusAuthenticated
	default:
		return domain.StatusUnauthenticated
	}
}

func (s *SessionService) publish() {
	if s.notifier == nil {
		return
	}
	s.notifier.SessionChanged(s.Snapshot())
}
