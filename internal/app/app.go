// Package app wires configuration, storage, backend and services into a
// runnable companion. Both cmd/server and cmd/healthctl build on it.
package app

import (
	"context"
	"errors"
	"fmt"

	"healthmate/internal/adapters/backend"
	"healthmate/internal/adapters/persistence/models"
	"healthmate/internal/adapters/persistence/repositories"
	"healthmate/internal/config"
	"healthmate/internal/core/services"
	"healthmate/internal/pkg/metrics"
	"healthmate/internal/pkg/vault"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// healthProbeKey is read to check storage; it is never written
const healthProbeKey = "__healthmate_probe__"

// App holds the wired services
type App struct {
	Config     *config.Config
	Logger     *zap.Logger
	Registry   *prometheus.Registry
	Store      repositories.KeyValueRepository
	Tokens     *services.TokenStore
	Backend    services.Backend
	Session    *services.SessionService
	Hub        *services.SessionHub
	Data       *services.DataService
	LocalState *services.LocalStateService
	Keepalive  *services.KeepaliveService

	db *gorm.DB
}

// New builds the application. Nothing talks to the backend until Start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{
		Config:   cfg,
		Logger:   logger,
		Registry: prometheus.NewRegistry(),
	}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	a.Store = store
	a.Tokens = services.NewTokenStore(store, logger)

	sessionMetrics := metrics.NewSessionMetrics(a.Registry)

	// The backend reports data-call auth failures to the session, which is
	// built after it; the closure resolves a.Session at call time.
	remote, err := backend.New(cfg.Backend, a.Tokens, func(ctx context.Context, message string) {
		a.Session.HandleAuthFailure(ctx, message)
	}, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Backend = remote

	a.Hub = services.NewSessionHub(logger)
	a.Session = services.NewSessionService(remote, a.Tokens, logger,
		services.WithNotifier(a.Hub),
		services.WithMetrics(sessionMetrics),
	)
	a.Data = services.NewDataService(remote, logger,
		services.WithOwner(a.Session.CurrentUserID),
		services.WithDataMetrics(sessionMetrics),
	)
	a.LocalState = services.NewLocalStateService(store, logger)

	return a, nil
}

// Start restores the persisted session and, when enabled, the keepalive
func (a *App) Start(ctx context.Context, keepalive bool) error {
	a.Session.Start(ctx)
	if !keepalive {
		return nil
	}

	k, err := services.NewKeepaliveService(a.Session, a.Tokens, a.Config.Keepalive.Schedule, a.Config.Keepalive.RefreshAhead, a.Logger)
	if err != nil {
		return err
	}
	if err := k.Start(); err != nil {
		return err
	}
	a.Keepalive = k
	return nil
}

// PingStorage checks that the key-value store answers
func (a *App) PingStorage(ctx context.Context) error {
	_, err := a.Store.Get(ctx, healthProbeKey)
	if err == nil || errors.Is(err, repositories.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Close stops background work and releases storage
func (a *App) Close() {
	if a.Keepalive != nil {
		a.Keepalive.Stop()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn("failed to close store", zap.Error(err))
		}
	}
	if err := config.CloseDatabase(a.db); err != nil {
		a.Logger.Warn("failed to close database", zap.Error(err))
	}
}

func (a *App) openStore(ctx context.Context) (repositories.KeyValueRepository, error) {
	cfg := a.Config
	logger := a.Logger.With(zap.String("driver", cfg.Storage.Driver))

	switch cfg.Storage.Driver {
	case config.StorageMemory:
		logger.Warn("using in-memory storage; sessions do not survive restarts")
		return repositories.NewMemoryRepository(), nil

	case config.StorageFile:
		var sealer *vault.Sealer
		if cfg.Storage.Secret != "" {
			s, err := vault.NewSealer(cfg.Storage.Secret)
			if err != nil {
				return nil, fmt.Errorf("invalid STORAGE_KEY: %w", err)
			}
			sealer = s
		} else {
			logger.Warn("STORAGE_KEY not set; tokens are stored unencrypted")
		}
		repo, err := repositories.NewFileRepository(cfg.Storage.Dir, sealer)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", zap.String("dir", cfg.Storage.Dir), zap.Bool("sealed", sealer != nil))
		return repo, nil

	case config.StorageMySQL:
		db, err := config.ConnectDatabase(cfg)
		if err != nil {
			return nil, err
		}
		if err := models.AutoMigrate(db); err != nil {
			_ = config.CloseDatabase(db)
			return nil, fmt.Errorf("failed to migrate: %w", err)
		}
		a.db = db
		logger.Info("storage ready", zap.String("host", cfg.Database.Host), zap.String("database", cfg.Database.DBName))
		return repositories.NewKVEntryRepository(db, cfg.Storage.Namespace), nil

	case config.StorageRedis:
		client, err := config.ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("storage ready", zap.String("addr", cfg.Redis.Addr))
		return repositories.NewRedisRepository(client, cfg.Storage.Namespace), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
