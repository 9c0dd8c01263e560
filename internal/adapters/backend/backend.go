// Package backend selects the remote backend implementation from config.
package backend

import (
	"fmt"

	"healthmate/internal/adapters/backend/baas"
	"healthmate/internal/adapters/backend/rest"
	"healthmate/internal/config"
	"healthmate/internal/core/services"

	"go.uber.org/zap"
)

// TokenReader is satisfied by services.TokenStore
type TokenReader interface {
	rest.TokenReader
	baas.TokenReader
}

// New returns the backend named by cfg.Kind
func New(cfg config.BackendConfig, tokens TokenReader, onAuthFailure services.AuthFailureFunc, logger *zap.Logger) (services.Backend, error) {
	switch cfg.Kind {
	case config.BackendREST:
		if cfg.RESTURL == "" {
			return nil, fmt.Errorf("rest backend requires REST_API_URL")
		}
		logger.Info("using REST backend", zap.String("url", cfg.RESTURL))
		return rest.NewClient(cfg.RESTURL, cfg.Timeout, tokens, onAuthFailure, logger), nil
	case config.BackendBaaS:
		if cfg.ProjectID == "" || cfg.DatabaseID == "" {
			return nil, fmt.Errorf("baas backend requires BAAS_PROJECT_ID and BAAS_DATABASE_ID")
		}
		logger.Info("using BaaS backend",
			zap.String("endpoint", cfg.BaaSURL),
			zap.String("project", cfg.ProjectID),
		)
		return baas.NewClient(baas.Config{
			Endpoint:   cfg.BaaSURL,
			ProjectID:  cfg.ProjectID,
			DatabaseID: cfg.DatabaseID,
			Timeout:    cfg.Timeout,
		}, tokens, onAuthFailure, logger), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Kind)
	}
}
