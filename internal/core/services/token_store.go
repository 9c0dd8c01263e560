package services

import (
	"context"
	"errors"

	"healthmate/internal/adapters/persistence/repositories"
	"healthmate/internal/core/domain"

	"go.uber.org/zap"
)

// TokenStore persists the access and refresh tokens. Storage failures are
// logged and reported to readers as "no token".
type TokenStore struct {
	repo   repositories.KeyValueRepository
	logger *zap.Logger
}

// NewTokenStore creates a new token store
func NewTokenStore(repo repositories.KeyValueRepository, logger *zap.Logger) *TokenStore {
	return &TokenStore{repo: repo, logger: logger.Named("token_store")}
}

// Get returns the value stored under key and whether it was present
func (s *TokenStore) Get(ctx context.Context, key string) (string, bool) {
	value, err := s.repo.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, repositories.ErrKeyNotFound) {
			s.logger.Error("failed to read token", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return value, value != ""
}

// Set stores value under key
func (s *TokenStore) Set(ctx context.Context, key, value string) error {
	if err := s.repo.Set(ctx, key, value); err != nil {
		s.logger.Error("failed to write token", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// RemoveMany deletes every key
func (s *TokenStore) RemoveMany(ctx context.Context, keys ...string) error {
	if err := s.repo.Delete(ctx, keys...); err != nil {
		s.logger.Error("failed to remove tokens", zap.Strings("keys", keys), zap.Error(err))
		return err
	}
	return nil
}

// Tokens returns the stored pair; missing values are empty
func (s *TokenStore) Tokens(ctx context.Context) domain.TokenPair {
	access, _ := s.Get(ctx, domain.AccessTokenKey)
	refresh, _ := s.Get(ctx, domain.RefreshTokenKey)
	return domain.TokenPair{AccessToken: access, RefreshToken: refresh}
}

// SaveTokens writes the pair. An empty refresh token keeps the stored one,
// which is how non-rotating refresh endpoints respond.
func (s *TokenStore) SaveTokens(ctx context.Context, pair domain.TokenPair) error {
	if err := s.Set(ctx, domain.AccessTokenKey, pair.AccessToken); err != nil {
		return err
	}
	if pair.RefreshToken == "" {
		return nil
	}
	return s.Set(ctx, domain.RefreshTokenKey, pair.RefreshToken)
}

// ReplaceTokens stores a fresh sign-in. A pair without a refresh token
// removes the stored one so it cannot outlive the account it belonged to.
func (s *TokenStore) ReplaceTokens(ctx context.Context, pair domain.TokenPair) error {
	if pair.RefreshToken != "" {
		return s.SaveTokens(ctx, pair)
	}
	if err := s.Set(ctx, domain.AccessTokenKey, pair.AccessToken); err != nil {
		return err
	}
	return s.RemoveMany(ctx, domain.RefreshTokenKey)
}

// Clear removes both tokens
func (s *TokenStore) Clear(ctx context.Context) error {
	return s.RemoveMany(ctx, domain.AccessTokenKey, domain.RefreshTokenKey)
}
