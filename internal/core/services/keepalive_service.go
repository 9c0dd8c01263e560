package services

import (
	"context"
	"fmt"
	"time"

	"healthmate/internal/core/domain"
	"healthmate/internal/pkg/jwt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Keepalive tick outcomes
const (
	KeepaliveSkipped   = "skipped"
	KeepaliveFresh     = "fresh"
	KeepaliveRefreshed = "refreshed"
	KeepaliveDeferred  = "deferred"
	KeepaliveFailed    = "failed"
)

// KeepaliveService refreshes the access token shortly before it expires so
// foreground requests rarely hit a 401.
type KeepaliveService struct {
	session  *SessionService
	tokens   *TokenStore
	schedule string
	ahead    time.Duration
	cron     *cron.Cron
	logger   *zap.Logger
	now      func() time.Time
}

// NewKeepaliveService creates a new keepalive service. schedule uses the
// standard cron syntax including descriptors such as "@every 1m".
func NewKeepaliveService(session *SessionService, tokens *TokenStore, schedule string, ahead time.Duration, logger *zap.Logger) (*KeepaliveService, error) {
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid keepalive schedule %q: %w", schedule, err)
	}
	return &KeepaliveService{
		session:  session,
		tokens:   tokens,
		schedule: schedule,
		ahead:    ahead,
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:   logger.Named("keepalive"),
		now:      time.Now,
	}, nil
}

// Start schedules the job
func (s *KeepaliveService) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.Tick(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.logger.Info("keepalive started", zap.String("schedule", s.schedule), zap.Duration("refresh_ahead", s.ahead))
	return nil
}

// Stop waits for a running tick to finish
func (s *KeepaliveService) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("keepalive stopped")
}

// Tick runs one keepalive pass and reports what it did
func (s *KeepaliveService) Tick(ctx context.Context) string {
	if !s.session.IsAuthenticated() {
		return KeepaliveSkipped
	}

	access, ok := s.tokens.Get(ctx, domain.AccessTokenKey)
	if ok && !jwt.ExpiresWithin(access, s.ahead, s.now()) {
		return KeepaliveFresh
	}

	err := s.session.refresh(ctx)
	if err == nil {
		s.logger.Debug("access token refreshed ahead of expiry")
		return KeepaliveRefreshed
	}
	if !refreshRejected(err) {
		s.logger.Warn("proactive refresh failed, retrying next tick", zap.Error(err))
		return KeepaliveDeferred
	}

	s.logger.Warn("proactive refresh rejected", zap.Error(err))
	s.session.HandleAuthFailure(ctx, "access token could not be refreshed")
	return KeepaliveFailed
}
