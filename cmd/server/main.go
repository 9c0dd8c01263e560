package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"healthmate/internal/adapters/http/middleware"
	"healthmate/internal/adapters/http/routes"
	"healthmate/internal/app"
	"healthmate/internal/config"
	"healthmate/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zlog := logger.New(cfg.AppMode, cfg.LogLevel)
	defer func() { _ = zlog.Sync() }()

	ctx := context.Background()
	application, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialize", zap.Error(err))
	}
	defer application.Close()

	if err := application.Start(ctx, true); err != nil {
		zlog.Fatal("failed to start", zap.Error(err))
	}

	server := fiber.New(fiber.Config{
		AppName:               "healthmate companion",
		ErrorHandler:          middleware.CustomErrorHandler,
		DisableStartupMessage: cfg.IsProd(),
	})

	middleware.Setup(server, cfg, zlog)
	routes.Setup(server, cfg, routes.Dependencies{
		Session:     application.Session,
		Hub:         application.Hub,
		Data:        application.Data,
		LocalState:  application.LocalState,
		BackendName: application.Backend.Name(),
		StoragePing: application.PingStorage,
		Gatherer:    application.Registry,
		Logger:      zlog,
	})

	go gracefulShutdown(server, zlog)

	zlog.Info("server starting",
		zap.String("port", cfg.Port),
		zap.String("mode", cfg.AppMode),
		zap.String("backend", cfg.Backend.Kind),
		zap.String("storage", cfg.Storage.Driver),
	)
	if err := server.Listen(":" + cfg.Port); err != nil {
		zlog.Error("server stopped", zap.Error(err))
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(server *fiber.App, zlog *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zlog.Info("shutting down server")
	if err := server.Shutdown(); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	zlog.Info("server stopped gracefully")
}
