package routes

import (
	"healthmate/internal/adapters/http/handlers"
	"healthmate/internal/adapters/http/middleware"
	"healthmate/internal/config"
	"healthmate/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Dependencies are the services the routes are served from
type Dependencies struct {
	Session     *services.SessionService
	Hub         *services.SessionHub
	Data        *services.DataService
	LocalState  *services.LocalStateService
	BackendName string
	StoragePing handlers.Pinger
	Gatherer    prometheus.Gatherer
	Logger      *zap.Logger
}

// Setup configures all routes for the application
func Setup(app *fiber.App, cfg *config.Config, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler(cfg.AppMode, deps.BackendName, deps.Session, deps.StoragePing)
	sessionHandler := handlers.NewSessionHandler(deps.Session, deps.Hub, deps.Logger)
	dataHandler := handlers.NewDataHandler(deps.Data)
	localStateHandler := handlers.NewLocalStateHandler(deps.LocalState)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	if deps.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupSessionRoutes(apiV1, sessionHandler)
	setupDataRoutes(apiV1, dataHandler, deps.Session)
	setupLocalStateRoutes(apiV1, localStateHandler)
}

func setupSessionRoutes(router fiber.Router, h *handlers.SessionHandler) {
	session := router.Group("/session", middleware.NoStore())
	session.Get("/", h.GetSession)
	session.Get("/events", h.Events)
	session.Get("/permissions/:permission", h.HasPermission)
	session.Post("/validate", h.Validate)
	session.Post("/notice/ack", h.AcknowledgeNotice)

	auth := router.Group("/auth", middleware.NoStore())
	auth.Post("/login", middleware.AuthRateLimiter(), h.Login)
	auth.Post("/register", middleware.AuthRateLimiter(), h.Register)
	auth.Post("/logout", h.Logout)
}

func setupDataRoutes(router fiber.Router, h *handlers.DataHandler, session *services.SessionService) {
	requireSession := middleware.RequireSession(session)

	profile := router.Group("/profile", middleware.NoStore(), requireSession)
	profile.Get("/", h.GetProfile)
	profile.Put("/", h.UpdateProfile)

	data := router.Group("/data", middleware.NoStore(), requireSession)
	data.Get("/:resource", middleware.HealthTipsCache(), h.List)
	data.Post("/:resource", h.Create)
	data.Get("/:resource/:id", middleware.HealthTipsCache(), h.Get)
	data.Put("/:resource/:id", h.Update)
	data.Patch("/:resource/:id", h.Update)
	data.Delete("/:resource/:id", h.Delete)
}

// setupLocalStateRoutes serves on-device state; it needs no session
func setupLocalStateRoutes(router fiber.Router, h *handlers.LocalStateHandler) {
	router.Get("/preferences/theme", h.GetTheme)
	router.Put("/preferences/theme", h.SetTheme)

	alerts := router.Group("/alerts")
	alerts.Get("/", h.ListAlerts)
	alerts.Put("/", h.SaveAlert)
	alerts.Put("/:id", h.SaveAlert)
	alerts.Delete("/:id", h.DeleteAlert)

	chats := router.Group("/chats")
	chats.Get("/", h.ListChats)
	chats.Put("/", h.SaveChat)
	chats.Put("/:id", h.SaveChat)
	chats.Delete("/", h.ClearChats)
	chats.Delete("/:id", h.DeleteChat)
}
